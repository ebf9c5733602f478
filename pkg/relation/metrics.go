// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package relation

import (
	"encoding/json"
	"fmt"
)

// MetricsEndpoint is the endpoint both charms use to advertise their
// workload as a scrape target (prometheus_scrape interface).
const MetricsEndpoint = "metrics-endpoint"

// scrapeJobsKey is the databag key the scraper reads jobs from.
const scrapeJobsKey = "scrape_jobs"

// ScrapeStaticConfig is one static_configs entry of a scrape job.
type ScrapeStaticConfig struct {
	Targets []string `json:"targets"`
}

// ScrapeJob advertises one scrape job in the standard shape consumed
// by prometheus-style collectors.
type ScrapeJob struct {
	JobName       string               `json:"job_name"`
	MetricsPath   string               `json:"metrics_path,omitempty"`
	StaticConfigs []ScrapeStaticConfig `json:"static_configs"`
}

// PublishScrapeJobs writes the scrape job list into the local databag.
func PublishScrapeJobs(rel *Relation, jobs []ScrapeJob) error {
	raw, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("marshaling scrape jobs: %w", err)
	}
	rel.Set(scrapeJobsKey, string(raw))
	return nil
}

// DefaultScrapeJob returns the single scrape job advertising every
// unit of the application on the workload port.
func DefaultScrapeJob(app string, port int) ScrapeJob {
	return ScrapeJob{
		JobName: app,
		StaticConfigs: []ScrapeStaticConfig{
			{Targets: []string{fmt.Sprintf("*:%d", port)}},
		},
	}
}
