// Package events is the change-notification boundary for the complaint store.
// Every committed insert, update, or delete of a complaint is fanned out to
// subscribers (dashboards, cached views, other replicas) so derived views can
// stay current without polling.
//
// Delivery semantics are deliberately loose: events are published best-effort
// after commit, delivered at-least-once, and ordering is only meaningful
// within a single complaint's mutations. Consumers must treat a replayed or
// out-of-order event as a hint to re-read, never as authoritative state; the
// store remains the single source of truth.
package events

import (
	"context"
	"time"
)

// Type discriminates what happened to the complaint.
type Type string

// Event types emitted by the store boundary.
const (
	TypeInsert Type = "insert"
	TypeUpdate Type = "update"
	TypeDelete Type = "delete"
)

// Event describes one committed change to a complaint record. It carries the
// record's post-commit UpdatedAt so idempotent consumers can discard stale
// replays by comparing revisions.
type Event struct {
	Type        Type      `json:"type"`
	ComplaintID string    `json:"complaint_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Publisher emits change events. Implementations must be safe for concurrent
// use. Publish failures are reported to the caller but mutations are already
// committed by the time Publish runs; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards all events. Used when the sync boundary is disabled
// (single-process deployments, tests).
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
