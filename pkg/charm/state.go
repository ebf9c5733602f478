// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

import (
	"github.com/canonical/tensorboard-operator/pkg/config"
	"github.com/canonical/tensorboard-operator/pkg/relation"
)

// State is the snapshot of everything a handler is allowed to observe.
// It is passed in explicitly on every invocation; handlers are
// functions of (event, state) and carry no hidden caches of their own.
type State struct {
	// App is the application name this unit belongs to.
	App string

	// Namespace is the model namespace the charm is deployed into.
	Namespace string

	// Leader reports whether this unit holds leadership. Only the
	// leader writes application relation data or applies manifests.
	Leader bool

	// Config is the charm configuration as last observed.
	Config *config.Config

	// Relations is the store of relation databags for all endpoints.
	Relations *relation.Store
}
