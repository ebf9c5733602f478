// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/pointer"
)

// ControllerInputs are the inputs the controller renderer is a
// function of.
type ControllerInputs struct {
	App       string
	Namespace string
	Port      int
	Image     string
	// IstioGateway is the namespace/name of the mesh gateway the
	// controller wires Tensorboard routes into, either from the
	// gateway-info relation or the configured default.
	IstioGateway string
	// TensorboardImage is the default image for Tensorboard instances
	// the controller spawns.
	TensorboardImage string
	// CRDs are the Tensorboard custom resource definitions shipped
	// with the charm, already parsed.
	CRDs []*unstructured.Unstructured
	// Options are free-form config options forwarded to the container
	// environment.
	Options map[string]string
}

// ControllerObjects renders the complete desired object set for the
// Tensorboard controller: the shipped CRDs first (the controller
// cannot start without them), then ServiceAccount, ClusterRole,
// ClusterRoleBinding, Deployment and Service.
func ControllerObjects(in ControllerInputs) (Set, error) {
	if err := validateInputs(in.App, in.Namespace); err != nil {
		return nil, err
	}

	sa := &corev1.ServiceAccount{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      in.App,
			Namespace: in.Namespace,
			Labels:    commonLabels(in.App),
		},
	}

	role := &rbacv1.ClusterRole{
		TypeMeta: metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "ClusterRole"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   in.App,
			Labels: commonLabels(in.App),
		},
		Rules: controllerRules(),
	}

	binding := &rbacv1.ClusterRoleBinding{
		TypeMeta: metav1.TypeMeta{APIVersion: "rbac.authorization.k8s.io/v1", Kind: "ClusterRoleBinding"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   in.App,
			Labels: commonLabels(in.App),
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     in.App,
		},
		Subjects: []rbacv1.Subject{{
			Kind:      "ServiceAccount",
			Name:      in.App,
			Namespace: in.Namespace,
		}},
	}

	env := envVars(map[string]string{
		"ISTIO_GATEWAY":     in.IstioGateway,
		"TENSORBOARD_IMAGE": in.TensorboardImage,
	}, in.Options)

	deployment := &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      in.App,
			Namespace: in.Namespace,
			Labels:    commonLabels(in.App),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: pointer.Int32(1),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"app.kubernetes.io/name": in.App},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: commonLabels(in.App),
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: in.App,
					Containers: []corev1.Container{{
						Name:    in.App,
						Image:   in.Image,
						Command: []string{"/manager"},
						Env:     env,
						Ports: []corev1.ContainerPort{{
							Name:          "http",
							ContainerPort: int32(in.Port),
						}},
					}},
				},
			},
		},
	}

	service := &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      in.App,
			Namespace: in.Namespace,
			Labels:    commonLabels(in.App),
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app.kubernetes.io/name": in.App},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       int32(in.Port),
				TargetPort: intstr.FromInt(in.Port),
			}},
		},
	}

	var set Set
	for _, crd := range in.CRDs {
		set = append(set, crd.DeepCopy())
	}
	for _, typed := range []runtime.Object{sa, role, binding, deployment, service} {
		u, err := toUnstructured(typed)
		if err != nil {
			return nil, err
		}
		set = append(set, u)
	}
	return set, nil
}

// controllerRules are the cluster permissions the controller manager
// needs to reconcile Tensorboard custom resources into deployments,
// services and mesh routes.
func controllerRules() []rbacv1.PolicyRule {
	return []rbacv1.PolicyRule{
		{
			APIGroups: []string{"apps"},
			Resources: []string{"deployments"},
			Verbs:     []string{"create", "get", "list", "update", "watch"},
		},
		{
			APIGroups: []string{""},
			Resources: []string{"persistentvolumeclaims", "pods"},
			Verbs:     []string{"get", "list", "watch"},
		},
		{
			APIGroups: []string{""},
			Resources: []string{"services"},
			Verbs:     []string{"create", "get", "list", "update", "watch"},
		},
		{
			APIGroups: []string{"networking.istio.io"},
			Resources: []string{"virtualservices"},
			Verbs:     []string{"get", "list", "create", "update", "watch"},
		},
		{
			APIGroups: []string{"tensorboard.kubeflow.org"},
			Resources: []string{"tensorboards"},
			Verbs:     []string{"get", "list", "create", "delete", "patch", "update", "watch"},
		},
		{
			APIGroups: []string{"tensorboard.kubeflow.org"},
			Resources: []string{"tensorboards/status"},
			Verbs:     []string{"get", "patch", "update"},
		},
		{
			APIGroups: []string{"tensorboard.kubeflow.org"},
			Resources: []string{"tensorboards/finalizers"},
			Verbs:     []string{"update"},
		},
		{
			APIGroups: []string{"storage.k8s.io"},
			Resources: []string{"storageclasses"},
			Verbs:     []string{"get", "list", "watch"},
		},
	}
}
