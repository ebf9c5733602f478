// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func controllerInputs() ControllerInputs {
	return ControllerInputs{
		App:              "tensorboard-controller",
		Namespace:        "kubeflow",
		Port:             9443,
		Image:            "kubeflownotebookswg/tensorboard-controller:v1.7.0",
		IstioGateway:     "kubeflow/kubeflow-gateway",
		TensorboardImage: "tensorflow/tensorflow:2.1.0",
		CRDs:             []*unstructured.Unstructured{tensorboardCRD()},
	}
}

func tensorboardCRD() *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "apiextensions.k8s.io/v1",
			"kind":       "CustomResourceDefinition",
			"metadata": map[string]interface{}{
				"name": "tensorboards.tensorboard.kubeflow.org",
			},
		},
	}
}

func TestControllerObjects(t *testing.T) {
	set, err := ControllerObjects(controllerInputs())
	require.NoError(t, err)
	require.Len(t, set, 6)

	kinds := make([]string, 0, len(set))
	for _, obj := range set {
		kinds = append(kinds, obj.GetKind())
	}
	// CRDs come first so the controller manager finds its API on start.
	assert.Equal(t, []string{
		"CustomResourceDefinition", "ServiceAccount", "ClusterRole",
		"ClusterRoleBinding", "Deployment", "Service",
	}, kinds)

	deployment := set[4]
	assert.Equal(t, []interface{}{"/manager"}, containerField(t, deployment.Object, "command"))

	env := containerEnv(t, deployment.Object)
	assert.Equal(t, "kubeflow/kubeflow-gateway", env["ISTIO_GATEWAY"])
	assert.Equal(t, "tensorflow/tensorflow:2.1.0", env["TENSORBOARD_IMAGE"])
}

func TestControllerObjectsCopiesCRDs(t *testing.T) {
	in := controllerInputs()
	set, err := ControllerObjects(in)
	require.NoError(t, err)

	// Mutating the rendered set must not leak back into the inputs.
	set[0].SetName("mutated")
	assert.Equal(t, "tensorboards.tensorboard.kubeflow.org", in.CRDs[0].GetName())
}

func TestControllerObjectsRejectsBadInputs(t *testing.T) {
	in := controllerInputs()
	in.App = "Bad Name"
	set, err := ControllerObjects(in)
	assert.Nil(t, set)
	require.Error(t, err)
}
