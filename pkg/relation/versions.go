// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// supportedVersionsKey is the databag key carrying the YAML list of
// schema versions a side understands. Both sides publish it on join.
const supportedVersionsKey = "_supported_versions"

// PublishVersions writes the local side's supported schema versions
// into the relation databag.
func PublishVersions(rel *Relation, versions []string) error {
	raw, err := yaml.Marshal(versions)
	if err != nil {
		return fmt.Errorf("marshaling supported versions: %w", err)
	}
	rel.Set(supportedVersionsKey, string(raw))
	return nil
}

// NegotiateVersion returns the newest schema version shared by both
// sides of the relation, given the versions the local side supports in
// preference order. A remote that has not published any versions yet
// yields a NoVersionsListedError; a remote with a disjoint version set
// yields a NoCompatibleVersionsError.
func NegotiateVersion(rel *Relation, local []string) (string, error) {
	raw := rel.Remote(supportedVersionsKey)
	if raw == "" {
		return "", &NoVersionsListedError{Endpoint: rel.Endpoint}
	}
	var remote []string
	if err := yaml.Unmarshal([]byte(raw), &remote); err != nil {
		return "", &DataError{
			Endpoint: rel.Endpoint,
			Reason:   fmt.Sprintf("malformed %s: %v", supportedVersionsKey, err),
		}
	}
	if len(remote) == 0 {
		return "", &NoVersionsListedError{Endpoint: rel.Endpoint}
	}
	remoteSet := make(map[string]bool, len(remote))
	for _, v := range remote {
		remoteSet[v] = true
	}
	for _, v := range local {
		if remoteSet[v] {
			return v, nil
		}
	}
	return "", &NoCompatibleVersionsError{Endpoint: rel.Endpoint, Local: local, Remote: remote}
}
