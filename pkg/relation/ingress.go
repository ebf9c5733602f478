// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IngressEndpoint is the endpoint name the web app exposes its HTTP
// routing data on.
const IngressEndpoint = "ingress"

// dataKey is the databag key holding the schema-versioned payload.
const dataKey = "data"

// ingressVersions lists the ingress schema versions this charm will
// write, in preference order. A v2 schema exists upstream, but the
// payload stays on v1 so consumers that only understand v1 keep
// working; the remote must therefore accept v1.
var ingressVersions = []string{"v1"}

// IngressData is the v1 ingress payload. The namespace field is part
// of the published shape even on v1 so that mesh providers on either
// schema can route without guessing.
type IngressData struct {
	Service   string `yaml:"service" json:"service"`
	Port      int    `yaml:"port" json:"port"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	Rewrite   string `yaml:"rewrite" json:"rewrite"`
}

// validate checks the fields every ingress payload must carry.
// Rewrite may be empty.
func (d IngressData) validate(endpoint string) error {
	var missing []string
	if d.Service == "" {
		missing = append(missing, "service")
	}
	if d.Port <= 0 {
		missing = append(missing, "port")
	}
	if d.Namespace == "" {
		missing = append(missing, "namespace")
	}
	if d.Prefix == "" {
		missing = append(missing, "prefix")
	}
	if len(missing) > 0 {
		return &DataError{Endpoint: endpoint, Fields: missing}
	}
	return nil
}

// PublishIngress negotiates the schema version with the remote side
// and writes the v1 payload into the local databag. The payload is
// validated first: a payload with an empty service, non-positive port
// or empty prefix is never published.
func PublishIngress(rel *Relation, data IngressData) error {
	if err := data.validate(rel.Endpoint); err != nil {
		return err
	}
	if err := PublishVersions(rel, ingressVersions); err != nil {
		return err
	}
	if _, err := NegotiateVersion(rel, ingressVersions); err != nil {
		return err
	}
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling ingress data: %w", err)
	}
	rel.Set(dataKey, string(raw))
	return nil
}

// ParseIngressData decodes an ingress payload from a databag snapshot
// and validates the required fields. Missing or empty required fields
// yield a DataError.
func ParseIngressData(endpoint string, bag map[string]string) (IngressData, error) {
	raw, ok := bag[dataKey]
	if !ok || raw == "" {
		return IngressData{}, &DataError{
			Endpoint: endpoint,
			Fields:   []string{dataKey},
		}
	}
	var data IngressData
	if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
		return IngressData{}, &DataError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("malformed ingress payload: %v", err),
		}
	}
	if err := data.validate(endpoint); err != nil {
		return IngressData{}, err
	}
	return data, nil
}

// ValidateIngressRemote re-validates the remote databag on a
// relation-changed event. A remote that has not written a payload is
// fine (the web app is the sending side); a remote that has written a
// malformed or incomplete payload is not.
func ValidateIngressRemote(rel *Relation) error {
	if rel.Remote(dataKey) == "" {
		return nil
	}
	_, err := ParseIngressData(rel.Endpoint, rel.RemoteData())
	return err
}
