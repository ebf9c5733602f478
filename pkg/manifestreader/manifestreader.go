// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package manifestreader parses multi-document YAML manifest streams
// into unstructured object sets. The controller charm ships its
// Tensorboard CRDs as such a stream.
package manifestreader

import (
	"bytes"
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// Read parses every document in the stream. Empty documents are
// skipped; a document without apiVersion and kind is an error, since
// the applier cannot route it.
func Read(r io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	var objs []*unstructured.Unstructured
	for {
		var m map[string]interface{}
		err := decoder.Decode(&m)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding manifest document %d: %w", len(objs), err)
		}
		if len(m) == 0 {
			continue
		}
		obj := &unstructured.Unstructured{Object: m}
		if obj.GetAPIVersion() == "" || obj.GetKind() == "" {
			return nil, fmt.Errorf("manifest document %d missing apiVersion or kind", len(objs))
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// ReadBytes parses every document in the passed buffer.
func ReadBytes(raw []byte) ([]*unstructured.Unstructured, error) {
	return Read(bytes.NewReader(raw))
}
