// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

// GatewayInfoEndpoint is the endpoint the controller consumes to learn
// which mesh gateway to bind Tensorboard routes to.
const GatewayInfoEndpoint = "gateway-info"

// GatewayInfo describes the mesh gateway published by the provider.
type GatewayInfo struct {
	Name      string
	Namespace string
}

// QualifiedName returns the namespace/name form expected by the
// controller workload's ISTIO_GATEWAY environment variable.
func (g GatewayInfo) QualifiedName() string {
	return g.Namespace + "/" + g.Name
}

// ParseGatewayInfo reads the provider's databag. Both fields are
// required; the provider publishes them together once the gateway is
// up, so a partial bag means it is not ready yet.
func ParseGatewayInfo(rel *Relation) (GatewayInfo, error) {
	info := GatewayInfo{
		Name:      rel.Remote("gateway_name"),
		Namespace: rel.Remote("gateway_namespace"),
	}
	var missing []string
	if info.Name == "" {
		missing = append(missing, "gateway_name")
	}
	if info.Namespace == "" {
		missing = append(missing, "gateway_namespace")
	}
	if len(missing) > 0 {
		return GatewayInfo{}, &DataError{Endpoint: rel.Endpoint, Fields: missing}
	}
	return info, nil
}
