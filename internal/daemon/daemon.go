// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package daemon assembles a charm operator process: configuration,
// cluster clients, inventory, dispatcher, and the periodic
// update-status tick that keeps reconciliation self-healing.
package daemon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/pkg/apply"
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/config"
	"github.com/canonical/tensorboard-operator/pkg/inventory"
	"github.com/canonical/tensorboard-operator/pkg/relation"
)

// Options configures an operator daemon.
type Options struct {
	// ConfigPath is the optional charm config file.
	ConfigPath string
	// Kubeconfig selects an out-of-cluster kubeconfig; empty means
	// in-cluster configuration.
	Kubeconfig string
	// UpdateStatusInterval is the period of the update-status tick.
	UpdateStatusInterval time.Duration
	// Defaults seed the charm configuration before file and
	// environment are read.
	Defaults map[string]interface{}
}

// Operator is a concrete charm operator that can register its
// handlers on a dispatcher.
type Operator interface {
	Register(d *charm.Dispatcher)
}

// Setup builds the concrete operator from the assembled framework
// pieces.
type Setup func(applier *apply.Applier, status *charm.StatusManager) (Operator, error)

// klogReporter forwards status transitions to the process log. The
// orchestration layer scrapes them from there.
type klogReporter struct{}

func (klogReporter) ReportStatus(status charm.Status) {
	klog.Infof("status: %s %s", status.Kind, status.Message)
}

// Run assembles and runs the operator until the context is cancelled
// or a remove event completes.
func Run(ctx context.Context, opts Options, setup Setup) error {
	cfg, err := config.Load(opts.ConfigPath, opts.Defaults)
	if err != nil {
		return err
	}
	klog.V(2).Infof("starting operator for %s in %s", cfg.AppName, cfg.Namespace)

	restConfig, err := clientcmd.BuildConfigFromFlags("", opts.Kubeconfig)
	if err != nil {
		return err
	}
	client, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return err
	}
	disco, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return err
	}
	groupResources, err := restmapper.GetAPIGroupResources(disco)
	if err != nil {
		return err
	}
	mapper := restmapper.NewDiscoveryRESTMapper(groupResources)

	// The inventory ID is derived from (app, namespace) so that a
	// restarted process finds the same inventory it left behind.
	invID := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(cfg.AppName+"."+cfg.Namespace)).String()
	inv := inventory.New(cfg.AppName, cfg.Namespace, invID)
	applier := apply.NewApplier(client, mapper, inv)

	status := charm.NewStatusManager(klogReporter{})
	state := &charm.State{
		App:       cfg.AppName,
		Namespace: cfg.Namespace,
		// Single-unit operators always hold leadership; a follower
		// unit would be handed Leader=false by the orchestrator.
		Leader:    true,
		Config:    cfg,
		Relations: relation.NewStore(),
	}
	dispatcher := charm.NewDispatcher(state, status)

	op, err := setup(applier, status)
	if err != nil {
		return err
	}
	op.Register(dispatcher)

	dispatcher.Enqueue(charm.Event{Kind: charm.Install})
	dispatcher.Enqueue(charm.Event{Kind: charm.ConfigChanged})

	interval := opts.UpdateStatusInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dispatcher.Enqueue(charm.Event{Kind: charm.UpdateStatus})
			}
		}
	}()

	return dispatcher.Run(ctx)
}
