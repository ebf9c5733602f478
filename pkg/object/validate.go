// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidationError captures errors resulting from validation of a
// resource before it is handed to the applier. A reconciliation pass
// that produces one is aborted before anything reaches the cluster.
type ValidationError struct {
	GroupVersionKind schema.GroupVersionKind
	Name             string
	Namespace        string
	FieldErrors      field.ErrorList
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Resource: %q, Name: %q, Namespace: %q\n",
		e.GroupVersionKind.String(), e.Name, e.Namespace))
	b.WriteString(e.FieldErrors.ToAggregate().Error())
	return b.String()
}

// ValidateName checks that the passed string is usable as a Kubernetes
// object name (RFC 1123 subdomain). This is the gate that keeps a bad
// charm application name from ever being interpolated into a manifest.
func ValidateName(name string) error {
	if name == "" {
		return field.Required(field.NewPath("metadata", "name"), "name is required")
	}
	if msgs := validation.IsDNS1123Subdomain(name); len(msgs) > 0 {
		return field.Invalid(field.NewPath("metadata", "name"), name, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateNamespace checks that the passed string is usable as a
// namespace name (RFC 1123 label). Empty is allowed; cluster-scoped
// objects carry no namespace.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return nil
	}
	if msgs := validation.IsDNS1123Label(namespace); len(msgs) > 0 {
		return field.Invalid(field.NewPath("metadata", "namespace"), namespace, strings.Join(msgs, "; "))
	}
	return nil
}

// Validate validates the provided rendered resources. Objects with an
// empty or malformed name, or a malformed namespace, fail validation.
func Validate(resources []*unstructured.Unstructured) error {
	for _, r := range resources {
		var errList field.ErrorList
		if err := ValidateName(r.GetName()); err != nil {
			errList = append(errList, err.(*field.Error))
		}
		if err := ValidateNamespace(r.GetNamespace()); err != nil {
			errList = append(errList, err.(*field.Error))
		}
		if len(errList) > 0 {
			return &ValidationError{
				GroupVersionKind: r.GroupVersionKind(),
				Name:             r.GetName(),
				Namespace:        r.GetNamespace(),
				FieldErrors:      errList,
			}
		}
	}
	return nil
}
