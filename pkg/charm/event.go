// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: Apache-2.0

package charm

// Kind determines the lifecycle event kinds an operator can observe.
type Kind int

const (
	Install Kind = iota
	UpgradeCharm
	ConfigChanged
	RelationJoined
	RelationChanged
	RelationBroken
	Remove
	UpdateStatus
)

func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case UpgradeCharm:
		return "upgrade-charm"
	case ConfigChanged:
		return "config-changed"
	case RelationJoined:
		return "relation-joined"
	case RelationChanged:
		return "relation-changed"
	case RelationBroken:
		return "relation-broken"
	case Remove:
		return "remove"
	case UpdateStatus:
		return "update-status"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle notification delivered to the operator
// by the orchestration layer. Relation events additionally carry the
// endpoint they fired on, the remote application name, and a snapshot
// of the remote databag at delivery time.
type Event struct {
	// Kind is the kind of lifecycle event.
	Kind Kind

	// Endpoint is the local relation endpoint name for relation
	// events; empty otherwise.
	Endpoint string

	// RemoteApp is the application on the far side of the relation
	// for relation events; empty otherwise.
	RemoteApp string

	// RemoteData is the remote application databag observed when the
	// event fired. Only set for relation-joined and relation-changed.
	RemoteData map[string]string
}

// IsRelation reports whether the event is one of the relation kinds.
func (e Event) IsRelation() bool {
	switch e.Kind {
	case RelationJoined, RelationChanged, RelationBroken:
		return true
	default:
		return false
	}
}
