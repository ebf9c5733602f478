// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// The applier actuates a rendered object set against the cluster:
// create what is missing, update what drifted, leave alone what
// already matches, prune what the charm owns but no longer renders.
// Every operation is safe to re-run; a process killed mid-apply
// converges on the next pass instead of double-applying.

package apply

import (
	"context"
	"reflect"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/pkg/inventory"
	"github.com/canonical/tensorboard-operator/pkg/object"
)

// Operation describes what the applier did with one object.
type Operation int

const (
	Created Operation = iota
	Configured
	Unchanged
	Pruned
	Deleted
)

func (op Operation) String() string {
	switch op {
	case Created:
		return "created"
	case Configured:
		return "configured"
	case Unchanged:
		return "unchanged"
	case Pruned:
		return "pruned"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Result records the per-object outcome of an apply or destroy pass.
type Result struct {
	Operations map[string]Operation
}

func newResult() *Result {
	return &Result{Operations: map[string]Operation{}}
}

func (r *Result) record(id object.ObjMetadata, op Operation) {
	r.Operations[id.String()] = op
}

// Count returns how many objects ended in the passed operation.
func (r *Result) Count(op Operation) int {
	n := 0
	for _, o := range r.Operations {
		if o == op {
			n++
		}
	}
	return n
}

// Applier applies rendered object sets and tracks ownership through a
// ConfigMap inventory.
type Applier struct {
	client dynamic.Interface
	mapper meta.RESTMapper
	inv    *inventory.Inventory
}

// NewApplier returns an applier using the passed dynamic client,
// RESTMapper and inventory handle.
func NewApplier(client dynamic.Interface, mapper meta.RESTMapper, inv *inventory.Inventory) *Applier {
	return &Applier{client: client, mapper: mapper, inv: inv}
}

// Apply actuates the desired set and prunes owned objects missing from
// it, then stores the new owned set in the inventory.
func (a *Applier) Apply(ctx context.Context, desired []*unstructured.Unstructured) (*Result, error) {
	if err := object.Validate(desired); err != nil {
		return nil, err
	}
	prev, err := a.inv.Load(ctx, a.client)
	if err != nil {
		return nil, err
	}
	result := newResult()
	for _, obj := range desired {
		if err := a.applyObject(ctx, obj, result); err != nil {
			return result, err
		}
	}
	current := object.UnstructuredsToObjMetas(desired)
	for _, id := range object.SetDiff(prev, current) {
		if err := a.deleteObject(ctx, id, Pruned, result); err != nil {
			return result, err
		}
	}
	if err := a.inv.Store(ctx, a.client, current); err != nil {
		return result, err
	}
	klog.V(3).Infof("apply pass: %d created, %d configured, %d unchanged, %d pruned",
		result.Count(Created), result.Count(Configured), result.Count(Unchanged), result.Count(Pruned))
	return result, nil
}

// Destroy deletes every object the inventory records, then the
// inventory itself. Used on the remove event.
func (a *Applier) Destroy(ctx context.Context) (*Result, error) {
	owned, err := a.inv.Load(ctx, a.client)
	if err != nil {
		return nil, err
	}
	result := newResult()
	for _, id := range owned {
		if err := a.deleteObject(ctx, id, Deleted, result); err != nil {
			return result, err
		}
	}
	if err := a.inv.Delete(ctx, a.client); err != nil {
		return result, err
	}
	klog.V(3).Infof("destroy pass: %d deleted", result.Count(Deleted))
	return result, nil
}

func (a *Applier) applyObject(ctx context.Context, obj *unstructured.Unstructured, result *Result) error {
	id := object.UnstructuredToObjMeta(obj)
	ri, err := a.resourceInterface(obj.GroupVersionKind().GroupKind(), obj.GetNamespace())
	if err != nil {
		return &ApplyError{Op: "mapping", ID: id, Err: err}
	}
	existing, err := ri.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return &ApplyError{Op: "reading", ID: id, Err: err}
		}
		if _, err := ri.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
			return &ApplyError{Op: "creating", ID: id, Err: err}
		}
		result.record(id, Created)
		return nil
	}
	if specEqual(existing, obj) {
		result.record(id, Unchanged)
		return nil
	}
	updated := obj.DeepCopy()
	updated.SetResourceVersion(existing.GetResourceVersion())
	if _, err := ri.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return &ApplyError{Op: "updating", ID: id, Err: err}
	}
	result.record(id, Configured)
	return nil
}

func (a *Applier) deleteObject(ctx context.Context, id object.ObjMetadata, op Operation, result *Result) error {
	ri, err := a.resourceInterface(id.GroupKind, id.Namespace)
	if err != nil {
		return &ApplyError{Op: "mapping", ID: id, Err: err}
	}
	err = ri.Delete(ctx, id.Name, metav1.DeleteOptions{})
	if err != nil {
		// Already gone: a previous partial teardown got here first.
		if apierrors.IsNotFound(err) {
			result.record(id, op)
			return nil
		}
		return &ApplyError{Op: "deleting", ID: id, Err: err}
	}
	result.record(id, op)
	return nil
}

// resourceInterface maps a GroupKind to the dynamic client interface
// for it, namespaced when the mapping says so.
func (a *Applier) resourceInterface(gk schema.GroupKind, namespace string) (dynamic.ResourceInterface, error) {
	mapping, err := a.mapper.RESTMapping(gk)
	if err != nil {
		return nil, err
	}
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		return a.client.Resource(mapping.Resource).Namespace(namespace), nil
	}
	return a.client.Resource(mapping.Resource), nil
}

// specEqual compares the desired object against the live one, field by
// field over the keys the desired object specifies, ignoring
// server-populated metadata. Equal means the update can be skipped.
func specEqual(existing, desired *unstructured.Unstructured) bool {
	for key, want := range desired.Object {
		if key == "metadata" {
			continue
		}
		if !reflect.DeepEqual(existing.Object[key], want) {
			return false
		}
	}
	return metaEqual(existing, desired)
}

// metaEqual compares the client-owned parts of metadata.
func metaEqual(existing, desired *unstructured.Unstructured) bool {
	if existing.GetName() != desired.GetName() ||
		existing.GetNamespace() != desired.GetNamespace() {
		return false
	}
	return reflect.DeepEqual(existing.GetLabels(), desired.GetLabels()) &&
		reflect.DeepEqual(existing.GetAnnotations(), desired.GetAnnotations())
}
