// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package operator wires the charm framework pieces (dispatcher,
// renderer, applier, relation adapters) into the two concrete
// Tensorboard operators.
package operator

import (
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/relation"
	"github.com/canonical/tensorboard-operator/pkg/resource"
)

// NoRelationError indicates a required relation endpoint has no
// relations yet. The charm waits for the operator to relate it.
type NoRelationError struct {
	Endpoint string
}

func (e *NoRelationError) Error() string {
	return "waiting for " + e.Endpoint + " relation"
}

// Waits marks the error as self-healing: relating the charm delivers
// a relation-joined event that re-drives reconciliation.
func (e *NoRelationError) Waits() bool { return true }

// trackRelation folds a relation event into the store before the
// reconcile logic runs, so handlers always observe the freshest
// databag snapshots. Broken sidebar relations publish an empty link
// list first so the dashboard drops the entry.
func trackRelation(ev charm.Event, st *charm.State) {
	switch ev.Kind {
	case charm.RelationJoined, charm.RelationChanged:
		st.Relations.UpdateRemote(ev.Endpoint, ev.RemoteApp, ev.RemoteData)
	case charm.RelationBroken:
		if ev.Endpoint == relation.DashboardEndpoint {
			for _, rel := range st.Relations.Get(ev.Endpoint) {
				if rel.RemoteApp == ev.RemoteApp {
					_ = relation.PublishDashboardLinks(rel, nil)
				}
			}
		}
		st.Relations.Broken(ev.Endpoint, ev.RemoteApp)
	}
}

// imageCache resolves the OCI image resource once and keeps it for
// the unit's lifetime; only an upgrade-charm event refreshes it.
type imageCache struct {
	image    resource.OCIImage
	resolved bool
}

func (c *imageCache) fetch(path string, refresh bool) (resource.OCIImage, error) {
	if c.resolved && !refresh {
		return c.image, nil
	}
	img, err := resource.Fetch(path)
	if err != nil {
		return resource.OCIImage{}, err
	}
	c.image = img
	c.resolved = true
	return img, nil
}
