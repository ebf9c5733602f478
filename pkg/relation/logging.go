// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"encoding/json"
)

// LoggingEndpoint is the optional endpoint both charms consume to ship
// workload logs to a collector (loki_push_api interface).
const LoggingEndpoint = "logging"

// loggingEndpointKey is the databag key the provider publishes its
// push endpoint under.
const loggingEndpointKey = "endpoint"

// LokiEndpoint is a provider's push API endpoint.
type LokiEndpoint struct {
	URL string `json:"url"`
}

// LokiPushURLs returns the push API URLs published on the endpoint.
// The logging relation is optional: no relations, or a provider that
// has not published yet, yields an empty slice and no error.
func LokiPushURLs(store *Store) []string {
	var urls []string
	for _, rel := range store.Get(LoggingEndpoint) {
		raw := rel.Remote(loggingEndpointKey)
		if raw == "" {
			continue
		}
		var ep LokiEndpoint
		if err := json.Unmarshal([]byte(raw), &ep); err != nil {
			continue
		}
		if ep.URL != "" {
			urls = append(urls, ep.URL)
		}
	}
	return urls
}
