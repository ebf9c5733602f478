// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/canonical/tensorboard-operator/pkg/object"
	"github.com/canonical/tensorboard-operator/pkg/testutil"
)

func testObjMetas(t *testing.T) []object.ObjMetadata {
	t.Helper()
	sa, err := object.CreateObjMetadata("kubeflow", "tensorboards-web-app",
		schema.GroupKind{Kind: "ServiceAccount"})
	require.NoError(t, err)
	role, err := object.CreateObjMetadata("", "tensorboards-web-app",
		schema.GroupKind{Group: "rbac.authorization.k8s.io", Kind: "ClusterRole"})
	require.NoError(t, err)
	return []object.ObjMetadata{sa, role}
}

func TestInventoryNaming(t *testing.T) {
	inv := New("tensorboards-web-app", "kubeflow", "test-id")
	assert.Equal(t, "tensorboards-web-app-inventory", inv.Name)
	assert.Equal(t, "kubeflow", inv.Namespace)
}

func TestInventoryLoadMissingConfigMap(t *testing.T) {
	client := testutil.NewFakeDynamicClient()
	inv := New("tensorboards-web-app", "kubeflow", "test-id")

	objs, err := inv.Load(context.Background(), client)
	require.NoError(t, err)
	assert.Nil(t, objs)
}

func TestInventoryStoreLoadRoundtrip(t *testing.T) {
	client := testutil.NewFakeDynamicClient()
	inv := New("tensorboards-web-app", "kubeflow", "test-id")
	ctx := context.Background()

	require.NoError(t, inv.Store(ctx, client, testObjMetas(t)))

	cm, err := client.Resource(configMapGVR).Namespace("kubeflow").
		Get(ctx, "tensorboards-web-app-inventory", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "test-id", cm.GetLabels()[InventoryLabel])

	loaded, err := inv.Load(ctx, client)
	require.NoError(t, err)
	assert.True(t, object.SetEquals(testObjMetas(t), loaded))
}

func TestInventoryStoreReplaces(t *testing.T) {
	client := testutil.NewFakeDynamicClient()
	inv := New("tensorboards-web-app", "kubeflow", "test-id")
	ctx := context.Background()

	objs := testObjMetas(t)
	require.NoError(t, inv.Store(ctx, client, objs))
	// Second store with a shrunken set replaces the first.
	require.NoError(t, inv.Store(ctx, client, objs[:1]))

	loaded, err := inv.Load(ctx, client)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, objs[0], loaded[0])
}

func TestInventoryDeleteIdempotent(t *testing.T) {
	client := testutil.NewFakeDynamicClient()
	inv := New("tensorboards-web-app", "kubeflow", "test-id")
	ctx := context.Background()

	require.NoError(t, inv.Store(ctx, client, testObjMetas(t)))
	require.NoError(t, inv.Delete(ctx, client))
	// Already gone is success.
	require.NoError(t, inv.Delete(ctx, client))

	objs, err := inv.Load(ctx, client)
	require.NoError(t, err)
	assert.Nil(t, objs)
}
