// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/canonical/tensorboard-operator/internal/daemon"
	"github.com/canonical/tensorboard-operator/pkg/apply"
	"github.com/canonical/tensorboard-operator/pkg/charm"
	"github.com/canonical/tensorboard-operator/pkg/operator"
)

func main() {
	var (
		configPath string
		kubeconfig string
		interval   time.Duration
	)
	cmd := &cobra.Command{
		Use:           "tensorboards-web-app",
		Short:         "Operator for the Kubeflow Tensorboards web app",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return daemon.Run(ctx, daemon.Options{
				ConfigPath:           configPath,
				Kubeconfig:           kubeconfig,
				UpdateStatusInterval: interval,
				Defaults: map[string]interface{}{
					"app-name":       "tensorboards-web-app",
					"namespace":      "kubeflow",
					"port":           5000,
					"backend-mode":   "production",
					"secure-cookies": true,
					"resources-file": "resources.yaml",
				},
			}, func(applier *apply.Applier, status *charm.StatusManager) (daemon.Operator, error) {
				return operator.NewWebApp(applier, status), nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to the charm config file")
	flags.StringVar(&kubeconfig, "kubeconfig", "", "path to a kubeconfig; empty for in-cluster")
	flags.DurationVar(&interval, "update-status-interval", 5*time.Minute, "period of the update-status tick")
	klog.InitFlags(nil)
	flags.AddGoFlagSet(flag.CommandLine)

	if err := cmd.Execute(); err != nil {
		klog.Errorf("%v", err)
		os.Exit(1)
	}
}
