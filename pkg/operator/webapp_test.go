// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/canonical/tensorboard-operator/pkg/apply"
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/config"
	"github.com/canonical/tensorboard-operator/pkg/inventory"
	"github.com/canonical/tensorboard-operator/pkg/relation"
	"github.com/canonical/tensorboard-operator/pkg/testutil"
)

var (
	deploymentGVR = schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}
	crdGVR        = schema.GroupVersionResource{Group: "apiextensions.k8s.io", Version: "v1", Resource: "customresourcedefinitions"}
)

// harness wires a full operator around a fake cluster, the way the
// daemon does in production.
type harness struct {
	client     *dynamicfake.FakeDynamicClient
	dispatcher *charm.Dispatcher
	recorder   *testutil.StatusRecorder
	state      *charm.State
}

func writeResourcesFile(t *testing.T, image string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resources.yaml")
	content := "oci-image:\n  registrypath: " + image + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newHarness(t *testing.T, cfg *config.Config) (*harness, *apply.Applier) {
	t.Helper()
	client := testutil.NewFakeDynamicClient()
	mapper := testutil.NewFakeRESTMapper(testutil.OperatorGVKs()...)
	inv := inventory.New(cfg.AppName, cfg.Namespace, "test-id")
	applier := apply.NewApplier(client, mapper, inv)

	recorder := &testutil.StatusRecorder{}
	status := charm.NewStatusManager(recorder)
	state := &charm.State{
		App:       cfg.AppName,
		Namespace: cfg.Namespace,
		Leader:    true,
		Config:    cfg,
		Relations: relation.NewStore(),
	}
	h := &harness{
		client:     client,
		dispatcher: charm.NewDispatcher(state, status),
		recorder:   recorder,
		state:      state,
	}
	return h, applier
}

func newWebAppHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		AppName:       "tensorboards-web-app",
		Namespace:     "testing",
		Port:          5000,
		BackendMode:   "production",
		SecureCookies: true,
		ResourcesFile: writeResourcesFile(t, "kubeflownotebookswg/tensorboards-web-app:v1.7.0"),
	}
	h, applier := newHarness(t, cfg)
	NewWebApp(applier, h.dispatcher.Status()).Register(h.dispatcher)
	return h
}

func (h *harness) dispatch(t *testing.T, ev charm.Event) {
	t.Helper()
	require.NoError(t, h.dispatcher.Dispatch(context.Background(), ev))
}

func (h *harness) statusKind() charm.StatusKind {
	return h.dispatcher.Status().Current().Kind
}

func ingressRemote() map[string]string {
	return map[string]string{"_supported_versions": "- v1\n"}
}

func TestWebAppInstallWithoutIngressWaits(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{Kind: charm.Install})

	// Resources are applied, but the charm holds waiting until ingress
	// is related.
	assert.Equal(t, charm.StatusWaiting, h.statusKind())
	assert.Contains(t, h.dispatcher.Status().Current().Message, "ingress")

	_, err := h.client.Resource(deploymentGVR).Namespace("testing").
		Get(context.Background(), "tensorboards-web-app", metav1.GetOptions{})
	require.NoError(t, err)
}

func TestWebAppMissingImageResourceWaits(t *testing.T) {
	h := newWebAppHarness(t)
	h.state.Config.ResourcesFile = filepath.Join(t.TempDir(), "absent.yaml")
	h.dispatch(t, charm.Event{Kind: charm.Install})

	assert.Equal(t, charm.StatusWaiting, h.statusKind())

	// Nothing is applied without a workload image.
	_, err := h.client.Resource(deploymentGVR).Namespace("testing").
		Get(context.Background(), "tensorboards-web-app", metav1.GetOptions{})
	require.Error(t, err)
}

func TestWebAppFollowerWaits(t *testing.T) {
	h := newWebAppHarness(t)
	h.state.Leader = false
	h.dispatch(t, charm.Event{Kind: charm.Install})

	assert.Equal(t, charm.StatusWaiting, h.statusKind())
	assert.Contains(t, h.dispatcher.Status().Current().Message, "leadership")
}

func TestWebAppIngressRelationGoesActive(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{Kind: charm.Install})
	h.dispatch(t, charm.Event{
		Kind:       charm.RelationJoined,
		Endpoint:   relation.IngressEndpoint,
		RemoteApp:  "istio-pilot",
		RemoteData: ingressRemote(),
	})

	assert.Equal(t, charm.StatusActive, h.statusKind())

	// The local databag carries the published route.
	rels := h.state.Relations.Get(relation.IngressEndpoint)
	require.Len(t, rels, 1)
	local := rels[0].Local()
	assert.Contains(t, local["data"], "service: tensorboards-web-app")
	assert.Contains(t, local["data"], "prefix: /tensorboards")
	assert.Contains(t, local["data"], "rewrite: /")
}

func TestWebAppMalformedIngressRemoteWaits(t *testing.T) {
	h := newWebAppHarness(t)
	remote := ingressRemote()
	// The remote published an incomplete route of its own.
	remote["data"] = "service: \"\"\nport: 80\nprefix: /tb\n"
	h.dispatch(t, charm.Event{
		Kind:       charm.RelationChanged,
		Endpoint:   relation.IngressEndpoint,
		RemoteApp:  "istio-pilot",
		RemoteData: remote,
	})

	assert.Equal(t, charm.StatusWaiting, h.statusKind())
}

func TestWebAppSidebarPublishesLink(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{
		Kind:      charm.RelationJoined,
		Endpoint:  relation.DashboardEndpoint,
		RemoteApp: "kubeflow-dashboard",
	})

	rels := h.state.Relations.Get(relation.DashboardEndpoint)
	require.Len(t, rels, 1)
	assert.Contains(t, rels[0].Local()["config"], `"text":"Tensorboards"`)
}

func TestWebAppSidebarBrokenClearsLink(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{
		Kind:      charm.RelationJoined,
		Endpoint:  relation.DashboardEndpoint,
		RemoteApp: "kubeflow-dashboard",
	})
	rels := h.state.Relations.Get(relation.DashboardEndpoint)
	require.Len(t, rels, 1)
	rel := rels[0]

	h.dispatch(t, charm.Event{
		Kind:      charm.RelationBroken,
		Endpoint:  relation.DashboardEndpoint,
		RemoteApp: "kubeflow-dashboard",
	})
	assert.Equal(t, "[]", rel.Local()["config"])
	assert.False(t, h.state.Relations.Has(relation.DashboardEndpoint))
}

func TestWebAppRemove(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{Kind: charm.Install})

	h.dispatch(t, charm.Event{Kind: charm.Remove})
	assert.Equal(t, charm.StatusTerminated, h.statusKind())

	ctx := context.Background()
	_, err := h.client.Resource(deploymentGVR).Namespace("testing").
		Get(ctx, "tensorboards-web-app", metav1.GetOptions{})
	require.Error(t, err)

	cmGVR := schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
	_, err = h.client.Resource(cmGVR).Namespace("testing").
		Get(ctx, "tensorboards-web-app-inventory", metav1.GetOptions{})
	require.Error(t, err)
}

func TestWebAppUpgradeRefreshesImage(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{Kind: charm.Install})

	// The orchestrator fetched a newer image during the upgrade.
	h.state.Config.ResourcesFile = writeResourcesFile(t,
		"kubeflownotebookswg/tensorboards-web-app:v1.8.0")

	// Ordinary events keep the cached image.
	h.dispatch(t, charm.Event{Kind: charm.ConfigChanged})
	assert.Equal(t, "kubeflownotebookswg/tensorboards-web-app:v1.7.0", deployedImage(t, h))

	// Upgrade refreshes it.
	h.dispatch(t, charm.Event{Kind: charm.UpgradeCharm})
	assert.Equal(t, "kubeflownotebookswg/tensorboards-web-app:v1.8.0", deployedImage(t, h))
}

func deployedImage(t *testing.T, h *harness) string {
	t.Helper()
	deployment, err := h.client.Resource(deploymentGVR).Namespace("testing").
		Get(context.Background(), "tensorboards-web-app", metav1.GetOptions{})
	require.NoError(t, err)
	containers, found, err := unstructured.NestedSlice(deployment.Object, "spec", "template", "spec", "containers")
	require.NoError(t, err)
	require.True(t, found)
	image, _ := containers[0].(map[string]interface{})["image"].(string)
	return image
}

func TestWebAppUpdateStatusIsIdempotent(t *testing.T) {
	h := newWebAppHarness(t)
	h.dispatch(t, charm.Event{
		Kind:       charm.RelationJoined,
		Endpoint:   relation.IngressEndpoint,
		RemoteApp:  "istio-pilot",
		RemoteData: ingressRemote(),
	})
	require.Equal(t, charm.StatusActive, h.statusKind())

	// The periodic tick re-runs the same pass and stays active.
	h.dispatch(t, charm.Event{Kind: charm.UpdateStatus})
	assert.Equal(t, charm.StatusActive, h.statusKind())
}
