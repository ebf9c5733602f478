// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/pkg/apply"
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/relation"
	"github.com/canonical/tensorboard-operator/pkg/render"
)

// WebApp is the Tensorboards web-app operator: it reconciles the web
// UI workload and its cluster RBAC, produces ingress and
// dashboard-link relation data and advertises a scrape target.
type WebApp struct {
	applier *apply.Applier
	status  *charm.StatusManager
	image   imageCache
}

// NewWebApp returns the web-app operator.
func NewWebApp(applier *apply.Applier, status *charm.StatusManager) *WebApp {
	return &WebApp{applier: applier, status: status}
}

// Register installs the operator's handlers on the dispatcher. All
// lifecycle events funnel into the single reconcile pass except
// remove, which tears down.
func (w *WebApp) Register(d *charm.Dispatcher) {
	d.RegisterDefault(w.Reconcile)
	d.Register(charm.Remove, w.Remove)
}

// Reconcile is the single idempotent pass: check leadership, resolve
// the image, validate relation data, render the desired set, apply
// it, then publish relation data.
func (w *WebApp) Reconcile(ctx context.Context, ev charm.Event, st *charm.State) error {
	if !st.Leader {
		return &charm.NotLeaderError{}
	}
	trackRelation(ev, st)

	img, err := w.image.fetch(st.Config.ResourcesFile, ev.Kind == charm.UpgradeCharm)
	if err != nil {
		return err
	}

	// Re-validate remote ingress data whenever it changes; a remote
	// that wrote a malformed payload holds the charm in waiting until
	// it corrects itself.
	if ev.Kind == charm.RelationChanged && ev.Endpoint == relation.IngressEndpoint {
		for _, rel := range st.Relations.Get(relation.IngressEndpoint) {
			if rel.RemoteApp == ev.RemoteApp {
				if err := relation.ValidateIngressRemote(rel); err != nil {
					return err
				}
			}
		}
	}

	objs, err := render.WebAppObjects(render.WebAppInputs{
		App:           st.App,
		Namespace:     st.Namespace,
		Port:          st.Config.Port,
		Image:         img.RegistryPath,
		BackendMode:   st.Config.BackendMode,
		SecureCookies: st.Config.SecureCookies,
		Options:       st.Config.Options,
	})
	if err != nil {
		return err
	}

	w.status.Set(charm.Maintenance("applying resources"))
	if _, err := w.applier.Apply(ctx, objs); err != nil {
		return err
	}

	if err := w.publishRelationData(st); err != nil {
		return err
	}

	// The web UI is unreachable without ingress; hold waiting until
	// the relation exists rather than claiming active.
	if !st.Relations.Has(relation.IngressEndpoint) {
		return &NoRelationError{Endpoint: relation.IngressEndpoint}
	}
	return nil
}

// publishRelationData writes the local side of every relation the web
// app participates in.
func (w *WebApp) publishRelationData(st *charm.State) error {
	for _, rel := range st.Relations.Get(relation.IngressEndpoint) {
		err := relation.PublishIngress(rel, relation.IngressData{
			Service:   st.App,
			Port:      st.Config.Port,
			Namespace: st.Namespace,
			Prefix:    "/tensorboards",
			Rewrite:   "/",
		})
		if err != nil {
			return err
		}
	}
	for _, rel := range st.Relations.Get(relation.DashboardEndpoint) {
		links := []relation.DashboardLink{relation.TensorboardsLink(st.App)}
		if err := relation.PublishDashboardLinks(rel, links); err != nil {
			return err
		}
	}
	for _, rel := range st.Relations.Get(relation.MetricsEndpoint) {
		jobs := []relation.ScrapeJob{relation.DefaultScrapeJob(st.App, st.Config.Port)}
		if err := relation.PublishScrapeJobs(rel, jobs); err != nil {
			return err
		}
	}
	if urls := relation.LokiPushURLs(st.Relations); len(urls) > 0 {
		klog.V(3).Infof("shipping workload logs to %d loki endpoints", len(urls))
	}
	return nil
}

// Remove deletes everything the charm owns. Safe to re-run: objects
// already gone are skipped.
func (w *WebApp) Remove(ctx context.Context, ev charm.Event, st *charm.State) error {
	if !st.Leader {
		return nil
	}
	w.status.Set(charm.Maintenance("removing resources"))
	_, err := w.applier.Destroy(ctx)
	return err
}
