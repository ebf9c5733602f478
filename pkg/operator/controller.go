// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"
	_ "embed"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/pkg/apply"
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/manifestreader"
	"github.com/canonical/tensorboard-operator/pkg/relation"
	"github.com/canonical/tensorboard-operator/pkg/render"
)

// crdManifest is the Tensorboard CRD stream shipped with the charm.
//go:embed files/crds.yaml
var crdManifest []byte

// Controller is the Tensorboard controller operator: it reconciles
// the controller-manager workload, its cluster RBAC and the
// Tensorboard CRDs, and consumes gateway-info to learn which mesh
// gateway routes are wired into.
type Controller struct {
	applier *apply.Applier
	status  *charm.StatusManager
	image   imageCache
	crds    []*unstructured.Unstructured
}

// NewController returns the controller operator. The shipped CRD
// manifest is parsed once here; a charm packaged with a broken
// manifest cannot reconcile at all.
func NewController(applier *apply.Applier, status *charm.StatusManager) (*Controller, error) {
	crds, err := manifestreader.ReadBytes(crdManifest)
	if err != nil {
		return nil, err
	}
	return &Controller{applier: applier, status: status, crds: crds}, nil
}

// Register installs the operator's handlers on the dispatcher.
func (c *Controller) Register(d *charm.Dispatcher) {
	d.RegisterDefault(c.Reconcile)
	d.Register(charm.Remove, c.Remove)
}

// Reconcile is the single idempotent pass for the controller charm.
func (c *Controller) Reconcile(ctx context.Context, ev charm.Event, st *charm.State) error {
	if !st.Leader {
		return &charm.NotLeaderError{}
	}
	trackRelation(ev, st)

	img, err := c.image.fetch(st.Config.ResourcesFile, ev.Kind == charm.UpgradeCharm)
	if err != nil {
		return err
	}

	// The controller cannot route Tensorboard instances without a
	// mesh gateway to bind to.
	gateways := st.Relations.Get(relation.GatewayInfoEndpoint)
	if len(gateways) == 0 {
		return &NoRelationError{Endpoint: relation.GatewayInfoEndpoint}
	}
	gateway, err := relation.ParseGatewayInfo(gateways[0])
	if err != nil {
		return err
	}

	objs, err := render.ControllerObjects(render.ControllerInputs{
		App:              st.App,
		Namespace:        st.Namespace,
		Port:             st.Config.Port,
		Image:            img.RegistryPath,
		IstioGateway:     gateway.QualifiedName(),
		TensorboardImage: st.Config.TensorboardImage,
		CRDs:             c.crds,
		Options:          st.Config.Options,
	})
	if err != nil {
		return err
	}

	c.status.Set(charm.Maintenance("applying resources"))
	if _, err := c.applier.Apply(ctx, objs); err != nil {
		return err
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

// Remove deletes everything the charm owns, CRDs included.
func (c *Controller) Remove(ctx context.Context, ev charm.Event, st *charm.State) error {
	if !st.Leader {
		return nil
	}
	c.status.Set(charm.Maintenance("removing resources"))
	_, err := c.applier.Destroy(ctx)
	return err
}
