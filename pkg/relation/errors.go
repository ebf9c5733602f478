// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"fmt"
	"strings"
)

// DataError reports missing or malformed fields in a relation databag.
// The charm holds a waiting status until the remote side corrects its
// data; the next relation-changed event re-drives validation.
type DataError struct {
	Endpoint string
	Fields   []string
	Reason   string
}

func (e *DataError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("relation %q: missing or empty fields: %s",
			e.Endpoint, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("relation %q: %s", e.Endpoint, e.Reason)
}

// Waits marks the error as self-healing: the charm waits for the
// remote side to publish corrected data.
func (e *DataError) Waits() bool { return true }

// NoVersionsListedError indicates the remote side has not yet
// published its supported schema versions. This is the normal state
// right after a relation is created, so the charm waits.
type NoVersionsListedError struct {
	Endpoint string
}

func (e *NoVersionsListedError) Error() string {
	return fmt.Sprintf("relation %q: remote side has not listed supported versions", e.Endpoint)
}

// Waits marks the error as self-healing: the remote side publishes
// its versions once it finishes its own join handling.
func (e *NoVersionsListedError) Waits() bool { return true }

// NoCompatibleVersionsError indicates the two sides of a relation
// share no schema version. This cannot resolve itself; the charm
// blocks until an operator deploys compatible charms.
type NoCompatibleVersionsError struct {
	Endpoint string
	Local    []string
	Remote   []string
}

func (e *NoCompatibleVersionsError) Error() string {
	return fmt.Sprintf("relation %q: no compatible versions (local %v, remote %v)",
		e.Endpoint, e.Local, e.Remote)
}
