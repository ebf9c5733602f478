// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/pointer"
)

// WebAppInputs are the inputs the web-app renderer is a function of.
type WebAppInputs struct {
	App           string
	Namespace     string
	Port          int
	Image         string
	BackendMode   string
	SecureCookies bool
	// Options are free-form config options forwarded to the container
	// environment.
	Options map[string]string
}

// WebAppObjects renders the complete desired object set for the
// Tensorboards web app: ServiceAccount, ClusterRole,
// ClusterRoleBinding, Deployment and Service. Cluster-scoped RBAC
// objects are named after the application; the binding subject points
// back into the target namespace.
func WebAppObjects(in WebAppInputs) (Set, error) {
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
		Rules: webAppRules(),
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
		"USERID_HEADER":      "kubeflow-userid",
		"USERID_PREFIX":      "",
		"APP_PREFIX":         "/tensorboards",
		"APP_SECURE_COOKIES": strconv.FormatBool(in.SecureCookies),
		"BACKEND_MODE":       in.BackendMode,
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
						Name:  in.App,
						Image: in.Image,
						Env:   env,
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
	for _, typed := range []runtime.Object{sa, role, binding, deployment, service} {
		u, err := toUnstructured(typed)
		if err != nil {
			return nil, err
		}
		set = append(set, u)
	}
	return set, nil
}

// webAppRules are the cluster permissions the web app backend needs to
// list namespaces, check access and manage Tensorboard instances.
func webAppRules() []rbacv1.PolicyRule {
	return []rbacv1.PolicyRule{
		{
			APIGroups: []string{""},
			Resources: []string{"namespaces"},
			Verbs:     []string{"get", "list"},
		},
		{
			APIGroups: []string{"authorization.k8s.io"},
			Resources: []string{"subjectaccessreviews"},
			Verbs:     []string{"create"},
		},
		{
			APIGroups: []string{"tensorboard.kubeflow.org"},
			Resources: []string{"tensorboards", "tensorboards/finalizers"},
			Verbs:     []string{"get", "list", "create", "delete"},
		},
		{
			APIGroups: []string{""},
			Resources: []string{"persistentvolumeclaims"},
			Verbs:     []string{"create", "delete", "get", "list"},
		},
		{
			APIGroups: []string{"storage.k8s.io"},
			Resources: []string{"storageclasses"},
			Verbs:     []string{"get", "list", "watch"},
		},
	}
}
