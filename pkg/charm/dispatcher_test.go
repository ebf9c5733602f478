// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher() (*Dispatcher, *recorder) {
	r := &recorder{}
	state := &State{App: "tensorboards-web-app", Namespace: "testing", Leader: true}
	return NewDispatcher(state, NewStatusManager(r)), r
}

func TestDispatchSuccessGoesActive(t *testing.T) {
	d, _ := newTestDispatcher()
	var seen []Kind
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		seen = append(seen, ev.Kind)
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), Event{Kind: ConfigChanged}))
	assert.Equal(t, []Kind{ConfigChanged}, seen)
	assert.Equal(t, StatusActive, d.Status().Current().Kind)
}

func TestDispatchSpecificHandlerWins(t *testing.T) {
	d, _ := newTestDispatcher()
	var calls []string
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		calls = append(calls, "default")
		return nil
	})
	d.Register(Remove, func(ctx context.Context, ev Event, st *State) error {
		calls = append(calls, "remove")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), Event{Kind: Remove}))
	assert.Equal(t, []string{"remove"}, calls)
}

func TestDispatchNoHandlerIsSkipped(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.Dispatch(context.Background(), Event{Kind: UpdateStatus}))
	// Status untouched: still the initial maintenance.
	assert.Equal(t, StatusMaintenance, d.Status().Current().Kind)
}

func TestDispatchErrorBecomesStatus(t *testing.T) {
	tests := map[string]struct {
		err      error
		expected StatusKind
	}{
		"waiting error": {err: &NotLeaderError{}, expected: StatusWaiting},
		"other error":   {err: errors.New("bad gateway data"), expected: StatusBlocked},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, _ := newTestDispatcher()
			d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
				return tc.err
			})
			// The error is absorbed; only the status changes.
			require.NoError(t, d.Dispatch(context.Background(), Event{Kind: ConfigChanged}))
			assert.Equal(t, tc.expected, d.Status().Current().Kind)
		})
	}
}

func TestDispatchFatalPropagates(t *testing.T) {
	d, _ := newTestDispatcher()
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		return Fatalf("inventory corrupt")
	})
	err := d.Dispatch(context.Background(), Event{Kind: ConfigChanged})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestDispatchRemoveTerminates(t *testing.T) {
	d, r := newTestDispatcher()
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		return nil
	})
	require.NoError(t, d.Dispatch(context.Background(), Event{Kind: Remove}))
	assert.Equal(t, StatusTerminated, d.Status().Current().Kind)
	require.NotEmpty(t, r.statuses)
	assert.Equal(t, StatusTerminated, r.statuses[len(r.statuses)-1].Kind)
}

func TestRunExitsAfterRemove(t *testing.T) {
	d, _ := newTestDispatcher()
	var seen []Kind
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		seen = append(seen, ev.Kind)
		return nil
	})

	d.Enqueue(Event{Kind: Install})
	d.Enqueue(Event{Kind: ConfigChanged})
	d.Enqueue(Event{Kind: Remove})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, []Kind{Install, ConfigChanged, Remove}, seen)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSerializesHandlers(t *testing.T) {
	d, _ := newTestDispatcher()
	running := false
	d.RegisterDefault(func(ctx context.Context, ev Event, st *State) error {
		require.False(t, running, "handlers must not overlap")
		running = true
		time.Sleep(time.Millisecond)
		running = false
		return nil
	})

	for i := 0; i < 5; i++ {
		d.Enqueue(Event{Kind: UpdateStatus})
	}
	d.Enqueue(Event{Kind: Remove})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))
}
