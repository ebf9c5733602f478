// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
)

// Handler processes one lifecycle event against the passed state
// snapshot. Handlers must be idempotent: running one twice against the
// same observed state produces the same desired state and no duplicate
// side effects. A nil return means the pass fully reconciled.
type Handler func(ctx context.Context, ev Event, st *State) error

// Dispatcher receives lifecycle events and runs exactly one handler
// at a time, to completion, on a single goroutine. Handler errors are
// converted to status transitions at this boundary and never retried;
// the next event (typically the periodic update-status tick)
// re-drives reconciliation, so transient failures self-heal.
type Dispatcher struct {
	handlers map[Kind]Handler
	fallback Handler
	queue    chan Event
	state    *State
	status   *StatusManager
}

// NewDispatcher returns a dispatcher for the passed state, reporting
// transitions through the status manager.
func NewDispatcher(state *State, status *StatusManager) *Dispatcher {
	return &Dispatcher{
		handlers: map[Kind]Handler{},
		queue:    make(chan Event, 16),
		state:    state,
		status:   status,
	}
}

// Register installs a handler for one event kind, replacing any
// previous registration.
func (d *Dispatcher) Register(kind Kind, h Handler) {
	d.handlers[kind] = h
}

// RegisterDefault installs the handler invoked for kinds with no
// specific registration. Charms typically funnel install, upgrade,
// config-changed and most relation events into one reconcile-all
// handler.
func (d *Dispatcher) RegisterDefault(h Handler) {
	d.fallback = h
}

// Enqueue schedules an event for dispatch. It blocks if the queue is
// full; the orchestration layer serializes event delivery anyway.
func (d *Dispatcher) Enqueue(ev Event) {
	d.queue <- ev
}

// Status returns the status manager driving transitions.
func (d *Dispatcher) Status() *StatusManager {
	return d.status
}

// State returns the state snapshot handlers observe.
func (d *Dispatcher) State() *State {
	return d.state
}

// Dispatch runs the handler for a single event and performs the
// resulting status transition. Only fatal internal faults are
// returned; every other handler error becomes a blocked or waiting
// status.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	h, ok := d.handlers[ev.Kind]
	if !ok {
		h = d.fallback
	}
	if h == nil {
		klog.V(4).Infof("no handler for %s event, skipping", ev.Kind)
		return nil
	}
	klog.V(3).Infof("dispatching %s event (endpoint=%q remote=%q)", ev.Kind, ev.Endpoint, ev.RemoteApp)
	if err := h(ctx, ev, d.state); err != nil {
		if IsFatal(err) {
			return err
		}
		status := StatusFor(err)
		klog.V(2).Infof("%s handler failed: %v", ev.Kind, err)
		d.status.Set(status)
		return nil
	}
	if ev.Kind == Remove {
		d.status.Set(Terminated())
		return nil
	}
	d.status.Set(Active())
	return nil
}

// Run dequeues and dispatches events until the context is cancelled,
// a remove event completes, or a fatal fault occurs. The single-loop
// structure is what guarantees no two handlers ever run concurrently.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-d.queue:
			if err := d.Dispatch(ctx, ev); err != nil {
				return fmt.Errorf("dispatching %s event: %w", ev.Kind, err)
			}
			if d.status.Current().Kind == StatusTerminated {
				klog.V(2).Info("remove complete, dispatcher exiting")
				return nil
			}
		}
	}
}
