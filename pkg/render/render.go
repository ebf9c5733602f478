// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// Desired-state rendering. Everything in this package is a pure
// function of its inputs: no cluster calls, no clock, no randomness.
// Objects are built field-by-field as typed structs and converted to
// unstructured form at the boundary, so the same inputs always
// serialize to the same bytes. That byte stability is what lets the
// applier skip no-op updates.

package render

import (
	"bytes"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"github.com/canonical/tensorboard-operator/pkg/object"
)

// Set is an ordered collection of rendered objects. Order is part of
// the rendered output: apply happens in slice order.
type Set []*unstructured.Unstructured

// ObjMetas returns the identifying metadata for every object in the
// set, in set order.
func (s Set) ObjMetas() []object.ObjMetadata {
	return object.UnstructuredsToObjMetas(s)
}

// MarshalYAML serializes the set as a multi-document YAML stream.
// Serialization sorts map keys, so two renders from identical inputs
// produce identical bytes.
func (s Set) MarshalYAML() ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range s {
		raw, err := yaml.Marshal(obj.Object)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// toUnstructured converts a typed object into its unstructured form.
// The TypeMeta must already be populated.
func toUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}
	u := &unstructured.Unstructured{Object: content}
	// The converter emits empty status/creationTimestamp stanzas that
	// are not part of the desired state; drop them for stable output.
	unstructured.RemoveNestedField(u.Object, "status")
	unstructured.RemoveNestedField(u.Object, "metadata", "creationTimestamp")
	unstructured.RemoveNestedField(u.Object, "spec", "template", "metadata", "creationTimestamp")
	return u, nil
}

// commonLabels returns the labels stamped on every owned object.
func commonLabels(app string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       app,
		"app.kubernetes.io/managed-by": app + "-operator",
	}
}

// envVars merges the fixed workload environment with free-form config
// options, options last so they can override, sorted by name for
// stable output.
func envVars(fixed map[string]string, options map[string]string) []corev1.EnvVar {
	merged := map[string]string{}
	for k, v := range fixed {
		merged[k] = v
	}
	for k, v := range options {
		merged[k] = v
	}
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]corev1.EnvVar, 0, len(names))
	for _, name := range names {
		vars = append(vars, corev1.EnvVar{Name: name, Value: merged[name]})
	}
	return vars
}

// validateInputs gates rendering on the app name and namespace being
// legal Kubernetes names. Rendering fails before any apply attempt.
func validateInputs(app, namespace string) error {
	if err := object.ValidateName(app); err != nil {
		return &object.ValidationError{
			Name:        app,
			Namespace:   namespace,
			FieldErrors: fieldErrList(err),
		}
	}
	if err := object.ValidateNamespace(namespace); err != nil {
		return &object.ValidationError{
			Name:        app,
			Namespace:   namespace,
			FieldErrors: fieldErrList(err),
		}
	}
	return nil
}

func fieldErrList(err error) field.ErrorList {
	if fe, ok := err.(*field.Error); ok {
		return field.ErrorList{fe}
	}
	return field.ErrorList{field.InternalError(field.NewPath("metadata"), err)}
}
