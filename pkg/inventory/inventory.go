// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// The inventory is a ConfigMap recording the identity of every object
// a charm has applied. It is what makes prune and remove possible: the
// next reconciliation pass (or a fresh process after a crash) reads it
// back and knows exactly what the charm owns, without guessing from
// labels alone.

package inventory

import (
	"context"
	"fmt"
	"sort"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/pkg/object"
)

const (
	// InventoryLabel carries the unique identifier of the object set
	// the inventory tracks.
	InventoryLabel = "tensorboard-operator.canonical.com/inventory-id"
)

// configMapGVR is the resource the inventory is stored as.
var configMapGVR = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}

// Inventory identifies the ConfigMap tracking a charm's owned objects.
type Inventory struct {
	// Name of the inventory ConfigMap; by convention the application
	// name suffixed with "-inventory".
	Name string
	// Namespace the ConfigMap lives in.
	Namespace string
	// ID labels the inventory so stray copies can be detected.
	ID string
}

// New returns an inventory handle for the passed application.
func New(app, namespace, id string) *Inventory {
	return &Inventory{
		Name:      app + "-inventory",
		Namespace: namespace,
		ID:        id,
	}
}

// Load reads the owned-object set back from the cluster. A missing
// inventory ConfigMap is not an error: it means nothing has been
// applied yet (or everything was already removed).
func (inv *Inventory) Load(ctx context.Context, client dynamic.Interface) ([]object.ObjMetadata, error) {
	cm, err := client.Resource(configMapGVR).Namespace(inv.Namespace).
		Get(ctx, inv.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading inventory %s/%s: %w", inv.Namespace, inv.Name, err)
	}
	data, _, err := unstructured.NestedStringMap(cm.Object, "data")
	if err != nil {
		return nil, fmt.Errorf("inventory %s/%s has malformed data: %w", inv.Namespace, inv.Name, err)
	}
	var objs []object.ObjMetadata
	for key := range data {
		objMeta, err := object.ParseObjMetadata(key)
		if err != nil {
			return nil, fmt.Errorf("inventory %s/%s: %w", inv.Namespace, inv.Name, err)
		}
		objs = append(objs, objMeta)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].String() < objs[j].String() })
	klog.V(4).Infof("loaded %d objects from inventory %s/%s", len(objs), inv.Namespace, inv.Name)
	return objs, nil
}

// Store writes the owned-object set, creating or replacing the
// inventory ConfigMap.
func (inv *Inventory) Store(ctx context.Context, client dynamic.Interface, objs []object.ObjMetadata) error {
	cm := inv.configMap(objs)
	cms := client.Resource(configMapGVR).Namespace(inv.Namespace)
	existing, err := cms.Get(ctx, inv.Name, metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return fmt.Errorf("reading inventory %s/%s: %w", inv.Namespace, inv.Name, err)
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("creating inventory %s/%s: %w", inv.Namespace, inv.Name, err)
		}
		return nil
	}
	cm.SetResourceVersion(existing.GetResourceVersion())
	if _, err := cms.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("updating inventory %s/%s: %w", inv.Namespace, inv.Name, err)
	}
	return nil
}

// Delete removes the inventory ConfigMap. Already gone is success.
func (inv *Inventory) Delete(ctx context.Context, client dynamic.Interface) error {
	err := client.Resource(configMapGVR).Namespace(inv.Namespace).
		Delete(ctx, inv.Name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("deleting inventory %s/%s: %w", inv.Namespace, inv.Name, err)
	}
	return nil
}

// configMap builds the inventory ConfigMap: one data key per owned
// object, keyed by the ObjMetadata string form.
func (inv *Inventory) configMap(objs []object.ObjMetadata) *unstructured.Unstructured {
	data := map[string]interface{}{}
	for _, objMeta := range objs {
		data[objMeta.String()] = ""
	}
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "ConfigMap",
			"metadata": map[string]interface{}{
				"name":      inv.Name,
				"namespace": inv.Namespace,
				"labels": map[string]interface{}{
					InventoryLabel: inv.ID,
				},
			},
			"data": data,
		},
	}
}
