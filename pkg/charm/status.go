// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

import (
	"k8s.io/klog/v2"
)

// StatusKind is the coarse operator state reported to the
// orchestration layer.
type StatusKind int

const (
	// StatusMaintenance means the operator is mid-reconciliation
	// (or mid-upgrade) and the reported state is transient.
	StatusMaintenance StatusKind = iota
	// StatusWaiting means a dependency is not yet satisfied: a
	// required relation is absent, the remote side has not published
	// its data, or the workload image has not been resolved.
	StatusWaiting
	// StatusBlocked means reconciliation cannot proceed until an
	// operator fixes configuration or relation wiring.
	StatusBlocked
	// StatusActive means the last reconciliation pass completed and
	// everything the charm owns matches the desired state.
	StatusActive
	// StatusTerminated means the charm processed its remove event,
	// deleted what it owned and will exit. Terminal.
	StatusTerminated
)

func (k StatusKind) String() string {
	switch k {
	case StatusMaintenance:
		return "maintenance"
	case StatusWaiting:
		return "waiting"
	case StatusBlocked:
		return "blocked"
	case StatusActive:
		return "active"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Status pairs a status kind with a human-readable message.
type Status struct {
	Kind    StatusKind
	Message string
}

func Maintenance(msg string) Status { return Status{Kind: StatusMaintenance, Message: msg} }
func Waiting(msg string) Status     { return Status{Kind: StatusWaiting, Message: msg} }
func Blocked(msg string) Status     { return Status{Kind: StatusBlocked, Message: msg} }
func Active() Status                { return Status{Kind: StatusActive} }
func Terminated() Status            { return Status{Kind: StatusTerminated} }

// StatusReporter receives status transitions. The production reporter
// forwards them to the orchestration layer's status call; tests record
// them.
type StatusReporter interface {
	ReportStatus(status Status)
}

// StatusManager tracks the current status and forwards transitions to
// a reporter. Transitions are driven exclusively by dispatcher handler
// outcomes; there is no other writer.
type StatusManager struct {
	current  Status
	reporter StatusReporter
}

// NewStatusManager returns a manager starting in maintenance, the
// state a charm occupies until its first successful reconciliation.
func NewStatusManager(reporter StatusReporter) *StatusManager {
	return &StatusManager{
		current:  Maintenance("installing"),
		reporter: reporter,
	}
}

// Current returns the last status set.
func (sm *StatusManager) Current() Status {
	return sm.current
}

// Set transitions to the passed status and forwards it to the
// reporter. Setting a status after termination is ignored.
func (sm *StatusManager) Set(status Status) {
	if sm.current.Kind == StatusTerminated {
		return
	}
	if sm.current != status {
		klog.V(2).Infof("status %s -> %s %q", sm.current.Kind, status.Kind, status.Message)
	}
	sm.current = status
	if sm.reporter != nil {
		sm.reporter.ReportStatus(status)
	}
}
