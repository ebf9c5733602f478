// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"sigs.k8s.io/yaml"

	"github.com/canonical/tensorboard-operator/pkg/charm"
)

// clusterScopedKinds are the kinds the fake RESTMapper maps without a
// namespace.
var clusterScopedKinds = map[string]bool{
	"ClusterRole":              true,
	"ClusterRoleBinding":       true,
	"CustomResourceDefinition": true,
	"Namespace":                true,
}

// NewFakeRESTMapper returns a RESTMapper recognizing exactly the
// passed GVKs, cluster-scoped where the kind demands it.
func NewFakeRESTMapper(gvks ...schema.GroupVersionKind) meta.RESTMapper {
	var groupVersions []schema.GroupVersion
	for _, gvk := range gvks {
		groupVersions = append(groupVersions, gvk.GroupVersion())
	}
	mapper := meta.NewDefaultRESTMapper(groupVersions)
	for _, gvk := range gvks {
		scope := meta.RESTScopeNamespace
		if clusterScopedKinds[gvk.Kind] {
			scope = meta.RESTScopeRoot
		}
		mapper.Add(gvk, scope)
	}
	return mapper
}

// OperatorGVKs are the GVKs the renderers emit plus the inventory
// ConfigMap.
func OperatorGVKs() []schema.GroupVersionKind {
	return []schema.GroupVersionKind{
		{Version: "v1", Kind: "ServiceAccount"},
		{Version: "v1", Kind: "Service"},
		{Version: "v1", Kind: "ConfigMap"},
		{Group: "apps", Version: "v1", Kind: "Deployment"},
		{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRole"},
		{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRoleBinding"},
		{Group: "apiextensions.k8s.io", Version: "v1", Kind: "CustomResourceDefinition"},
	}
}

// NewFakeDynamicClient returns an empty fake dynamic client.
func NewFakeDynamicClient() *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())
}

// Unstructured parses a single-document YAML manifest, failing the
// test on error.
func Unstructured(t *testing.T, manifest string) *unstructured.Unstructured {
	t.Helper()
	m := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(manifest), &m); err != nil {
		t.Fatalf("unable to parse manifest: %v", err)
	}
	return &unstructured.Unstructured{Object: m}
}

// StatusRecorder is a charm.StatusReporter that records every
// transition it sees.
type StatusRecorder struct {
	Statuses []charm.Status
}

func (r *StatusRecorder) ReportStatus(status charm.Status) {
	r.Statuses = append(r.Statuses, status)
}

// Last returns the most recent status, or the zero Status.
func (r *StatusRecorder) Last() charm.Status {
	if len(r.Statuses) == 0 {
		return charm.Status{}
	}
	return r.Statuses[len(r.Statuses)-1]
}
