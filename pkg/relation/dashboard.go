// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"encoding/json"
	"fmt"
)

// DashboardEndpoint is the endpoint the web app uses to register a
// sidebar entry in the Kubeflow central dashboard
// (kubeflow_dashboard_links interface).
const DashboardEndpoint = "sidebar"

// dashboardConfigKey is the databag key the dashboard reads the link
// list from.
const dashboardConfigKey = "config"

// DashboardLink is one sidebar entry in the parent dashboard.
type DashboardLink struct {
	App      string `json:"app"`
	Position int    `json:"position"`
	Type     string `json:"type"`
	Link     string `json:"link"`
	Text     string `json:"text"`
	Icon     string `json:"icon"`
}

// PublishDashboardLinks writes the link list into the local databag as
// the JSON document the dashboard consumes. An empty (non-nil) list is
// published on relation-broken so the dashboard drops the entry.
func PublishDashboardLinks(rel *Relation, links []DashboardLink) error {
	if links == nil {
		links = []DashboardLink{}
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshaling dashboard links: %w", err)
	}
	rel.Set(dashboardConfigKey, string(raw))
	return nil
}

// TensorboardsLink returns the sidebar entry for the Tensorboards UI.
func TensorboardsLink(app string) DashboardLink {
	return DashboardLink{
		App:      app,
		Position: 4,
		Type:     "item",
		Link:     "/tensorboards/",
		Text:     "Tensorboards",
		Icon:     "assessment",
	}
}
