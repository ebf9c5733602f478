// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0
//
// A relation is a typed, bidirectional data-exchange channel between
// two applications, identified by a local endpoint name. Each side
// owns its own databag and can only read the other side's. The store
// here is the operator's view of every relation instance it is part
// of; the orchestration layer feeds remote databag snapshots in
// through relation events.

package relation

import (
	"sort"
)

// Relation is one relation instance: a (endpoint, remote application)
// pair with a writable local databag and a read-only remote snapshot.
type Relation struct {
	Endpoint  string
	RemoteApp string

	local  map[string]string
	remote map[string]string
}

// Set writes a single key into the local databag.
func (r *Relation) Set(key, value string) {
	if r.local == nil {
		r.local = map[string]string{}
	}
	r.local[key] = value
}

// Local returns a copy of the local databag.
func (r *Relation) Local() map[string]string {
	out := make(map[string]string, len(r.local))
	for k, v := range r.local {
		out[k] = v
	}
	return out
}

// Remote returns the value for a key in the remote databag, or "".
func (r *Relation) Remote(key string) string {
	return r.remote[key]
}

// RemoteData returns a copy of the remote databag snapshot.
func (r *Relation) RemoteData() map[string]string {
	out := make(map[string]string, len(r.remote))
	for k, v := range r.remote {
		out[k] = v
	}
	return out
}

// Store holds every relation instance the charm participates in,
// keyed by endpoint. All access happens from the dispatcher goroutine,
// so the store needs no locking.
type Store struct {
	relations map[string]map[string]*Relation
}

// NewStore returns an empty relation store.
func NewStore() *Store {
	return &Store{relations: map[string]map[string]*Relation{}}
}

// Join records a new relation instance and returns it. Joining an
// existing (endpoint, remote app) pair returns the existing instance.
func (s *Store) Join(endpoint, remoteApp string) *Relation {
	byApp, ok := s.relations[endpoint]
	if !ok {
		byApp = map[string]*Relation{}
		s.relations[endpoint] = byApp
	}
	rel, ok := byApp[remoteApp]
	if !ok {
		rel = &Relation{
			Endpoint:  endpoint,
			RemoteApp: remoteApp,
			local:     map[string]string{},
			remote:    map[string]string{},
		}
		byApp[remoteApp] = rel
	}
	return rel
}

// UpdateRemote replaces the remote databag snapshot for the passed
// relation instance, creating the instance if the joined event was
// missed (the orchestrator may deliver changed before joined after an
// operator restart).
func (s *Store) UpdateRemote(endpoint, remoteApp string, data map[string]string) *Relation {
	rel := s.Join(endpoint, remoteApp)
	rel.remote = map[string]string{}
	for k, v := range data {
		rel.remote[k] = v
	}
	return rel
}

// Broken removes the relation instance for the pair.
func (s *Store) Broken(endpoint, remoteApp string) {
	if byApp, ok := s.relations[endpoint]; ok {
		delete(byApp, remoteApp)
		if len(byApp) == 0 {
			delete(s.relations, endpoint)
		}
	}
}

// Get returns the relation instances on the passed endpoint, ordered
// by remote application name.
func (s *Store) Get(endpoint string) []*Relation {
	byApp := s.relations[endpoint]
	apps := make([]string, 0, len(byApp))
	for app := range byApp {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	rels := make([]*Relation, 0, len(apps))
	for _, app := range apps {
		rels = append(rels, byApp[app])
	}
	return rels
}

// Has reports whether at least one relation exists on the endpoint.
func (s *Store) Has(endpoint string) bool {
	return len(s.relations[endpoint]) > 0
}
