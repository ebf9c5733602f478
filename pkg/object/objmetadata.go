// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// ObjMetadata is the minimal set of information needed to
// uniquely identify an object owned by a charm:
//
//   Group/Kind (NOTE: NOT version)
//   Namespace
//   Name
//
// The version is deliberately omitted because the API server
// does not treat different versions as different resources.
// This identity is what the inventory stores to track the set
// of objects a charm has applied, so that pruning and removal
// can find them again later.

package object

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	// Separates the fields of a stringified ObjMetadata. Allowed in
	// a ConfigMap key but not in a resource name.
	fieldSeparator = "_"
	// RBAC resource names may contain colons, which are transcoded
	// to a double underscore when stored.
	colonTranscoded = "__"
)

// rbacKinds are the kinds whose names may legally contain colons.
var rbacKinds = map[string]bool{
	"Role":               true,
	"ClusterRole":        true,
	"RoleBinding":        true,
	"ClusterRoleBinding": true,
}

// ObjMetadata organizes and stores the identifying information for an
// owned object. Its string form is stored in the inventory ConfigMap.
type ObjMetadata struct {
	Namespace string
	Name      string
	GroupKind schema.GroupKind
}

// CreateObjMetadata returns an ObjMetadata filled with the passed
// values, normalized and validated.
func CreateObjMetadata(namespace, name string, gk schema.GroupKind) (ObjMetadata, error) {
	// Namespace can be empty for cluster-scoped objects, name cannot.
	name = strings.TrimSpace(name)
	if name == "" {
		return ObjMetadata{}, fmt.Errorf("empty name for object")
	}
	if gk.Empty() {
		return ObjMetadata{}, fmt.Errorf("empty GroupKind for object")
	}
	return ObjMetadata{
		Namespace: strings.TrimSpace(namespace),
		Name:      name,
		GroupKind: gk,
	}, nil
}

// ParseObjMetadata parses the string form produced by String back into
// an ObjMetadata. Example stored string:
//
//	kubeflow_tensorboards-web-app_rbac.authorization.k8s.io_ClusterRole
func ParseObjMetadata(s string) (ObjMetadata, error) {
	index := strings.Index(s, fieldSeparator)
	if index == -1 {
		return ObjMetadata{}, fmt.Errorf("unable to parse stored object metadata: %s", s)
	}
	namespace := s[:index]
	s = s[index+1:]
	index = strings.LastIndex(s, fieldSeparator)
	if index == -1 {
		return ObjMetadata{}, fmt.Errorf("unable to parse stored object metadata: %s", s)
	}
	kind := s[index+1:]
	s = s[:index]
	index = strings.LastIndex(s, fieldSeparator)
	if index == -1 {
		return ObjMetadata{}, fmt.Errorf("unable to parse stored object metadata: %s", s)
	}
	group := s[index+1:]
	// The name may contain a colon transcoded as a double underscore.
	name := strings.ReplaceAll(s[:index], colonTranscoded, ":")
	if strings.Contains(name, fieldSeparator) {
		return ObjMetadata{}, fmt.Errorf("too many fields within: %s", s)
	}
	gk := schema.GroupKind{
		Group: strings.TrimSpace(group),
		Kind:  strings.TrimSpace(kind),
	}
	return CreateObjMetadata(namespace, name, gk)
}

// Equals compares two ObjMetadata and returns true if they are equal.
func (o *ObjMetadata) Equals(other *ObjMetadata) bool {
	if other == nil {
		return false
	}
	return *o == *other
}

// String creates the stored string form of the ObjMetadata. For RBAC
// kinds the name transcodes ":" into a double underscore so the result
// is a valid ConfigMap key.
func (o *ObjMetadata) String() string {
	name := o.Name
	if rbacKinds[o.GroupKind.Kind] {
		name = strings.ReplaceAll(name, ":", colonTranscoded)
	}
	return fmt.Sprintf("%s%s%s%s%s%s%s",
		o.Namespace, fieldSeparator,
		name, fieldSeparator,
		o.GroupKind.Group, fieldSeparator,
		o.GroupKind.Kind)
}

// UnstructuredToObjMeta extracts the identifying information from an
// unstructured object.
func UnstructuredToObjMeta(obj *unstructured.Unstructured) ObjMetadata {
	return ObjMetadata{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		GroupKind: obj.GroupVersionKind().GroupKind(),
	}
}

// UnstructuredsToObjMetas extracts identifying information for each of
// the passed objects.
func UnstructuredsToObjMetas(objs []*unstructured.Unstructured) []ObjMetadata {
	var objMetas []ObjMetadata
	for _, obj := range objs {
		objMetas = append(objMetas, UnstructuredToObjMeta(obj))
	}
	return objMetas
}

// RuntimeToObjMeta extracts the identifying information from a typed
// runtime object.
func RuntimeToObjMeta(obj runtime.Object) ObjMetadata {
	accessor, _ := meta.Accessor(obj)
	return ObjMetadata{
		Namespace: accessor.GetNamespace(),
		Name:      accessor.GetName(),
		GroupKind: obj.GetObjectKind().GroupVersionKind().GroupKind(),
	}
}

// SetDiff returns the objects that exist in "a" but not in "b" (A - B).
func SetDiff(setA, setB []ObjMetadata) []ObjMetadata {
	m := map[string]ObjMetadata{}
	for _, a := range setA {
		m[a.String()] = a
	}
	for _, b := range setB {
		delete(m, b.String()) // OK to delete even if b not in m
	}
	diff := make([]ObjMetadata, 0, len(m))
	for _, r := range m {
		diff = append(diff, r)
	}
	sort.Slice(diff, func(i, j int) bool { return diff[i].String() < diff[j].String() })
	return diff
}

// Union returns the set of unique objects from merging set A and set B.
func Union(setA, setB []ObjMetadata) []ObjMetadata {
	m := map[string]ObjMetadata{}
	for _, a := range setA {
		m[a.String()] = a
	}
	for _, b := range setB {
		m[b.String()] = b
	}
	union := make([]ObjMetadata, 0, len(m))
	for _, u := range m {
		union = append(union, u)
	}
	sort.Slice(union, func(i, j int) bool { return union[i].String() < union[j].String() })
	return union
}

// SetEquals returns true if set A and set B contain the same objects.
func SetEquals(setA, setB []ObjMetadata) bool {
	mapA := map[string]bool{}
	for _, a := range setA {
		mapA[a.String()] = true
	}
	mapB := map[string]bool{}
	for _, b := range setB {
		mapB[b.String()] = true
	}
	if len(mapA) != len(mapB) {
		return false
	}
	for b := range mapB {
		if !mapA[b] {
			return false
		}
	}
	return true
}
