// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateVersion(t *testing.T) {
	tests := map[string]struct {
		remote   string
		local    []string
		expected string
		err      error
	}{
		"common version": {
			remote:   "- v1\n- v2\n",
			local:    []string{"v1"},
			expected: "v1",
		},
		"local preference order wins": {
			remote:   "- v1\n- v2\n",
			local:    []string{"v2", "v1"},
			expected: "v2",
		},
		"remote has not published": {
			remote: "",
			local:  []string{"v1"},
			err:    &NoVersionsListedError{},
		},
		"empty remote list": {
			remote: "[]\n",
			local:  []string{"v1"},
			err:    &NoVersionsListedError{},
		},
		"disjoint versions": {
			remote: "- v2\n",
			local:  []string{"v1"},
			err:    &NoCompatibleVersionsError{},
		},
		"malformed remote list": {
			remote: "{not a list",
			local:  []string{"v1"},
			err:    &DataError{},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := NewStore()
			data := map[string]string{}
			if tc.remote != "" {
				data[supportedVersionsKey] = tc.remote
			}
			rel := store.UpdateRemote("ingress", "istio-pilot", data)
			version, err := NegotiateVersion(rel, tc.local)
			switch tc.err.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tc.expected, version)
			case *NoVersionsListedError:
				var e *NoVersionsListedError
				require.ErrorAs(t, err, &e)
				assert.True(t, e.Waits())
			case *NoCompatibleVersionsError:
				var e *NoCompatibleVersionsError
				require.ErrorAs(t, err, &e)
			case *DataError:
				var e *DataError
				require.ErrorAs(t, err, &e)
			}
		})
	}
}

func TestPublishVersions(t *testing.T) {
	store := NewStore()
	rel := store.Join("ingress", "istio-pilot")
	require.NoError(t, PublishVersions(rel, []string{"v1"}))
	assert.Equal(t, "- v1\n", rel.Local()[supportedVersionsKey])
}
