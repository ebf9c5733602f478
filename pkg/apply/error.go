// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"fmt"

	"github.com/canonical/tensorboard-operator/pkg/object"
)

// ApplyError reports a cluster API rejection while actuating one
// object. The message carries the underlying API error so the blocked
// status is actionable.
type ApplyError struct {
	Op  string
	ID  object.ObjMetadata
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID.String(), e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
