// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

import (
	"errors"
	"fmt"
)

// NotLeaderError indicates this unit does not hold leadership. There
// is nothing useful a follower can do, so it waits.
type NotLeaderError struct{}

func (e *NotLeaderError) Error() string {
	return "waiting for leadership"
}

func (e *NotLeaderError) Waits() bool { return true }

// waiter marks error kinds that resolve themselves on a later event
// (missing relation data, unfetched resources) rather than requiring
// operator intervention. Error types in the relation and resource
// packages implement it.
type waiter interface {
	Waits() bool
}

// StatusFor converts the error returned by a handler into the status
// transition the dispatcher reports. Errors that describe a dependency
// not yet satisfied map to waiting; everything else (validation
// failures, incompatible schema versions, cluster API rejections)
// blocks until an operator intervenes.
func StatusFor(err error) Status {
	var w waiter
	if errors.As(err, &w) && w.Waits() {
		return Waiting(err.Error())
	}
	return Blocked(err.Error())
}

// fatalError wraps unrecoverable internal faults. These are the only
// errors that escape the dispatcher and terminate the process.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return fmt.Sprintf("unrecoverable internal fault: %v", e.err)
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// Fatalf returns an error the dispatcher will not convert to a status;
// it propagates out of Run and the process exits.
func Fatalf(format string, args ...interface{}) error {
	return &fatalError{err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether the error is an unrecoverable internal
// fault.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
