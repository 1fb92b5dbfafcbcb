// Package audit records operational audit events for ladder mutations.
package audit

import (
	"context"
	"time"

	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

// Severity describes the audit severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Event names recorded by the ladder engine.
const (
	EventTenantCreated  = "tenant.created"
	EventTenantUpdated  = "tenant.updated"
	EventProfileCreated = "profile.created"
	EventProfileUpdated = "profile.updated"
	EventCacheHydrated  = "cache.hydrated"
)

// Emitter records operational audit events.
type Emitter struct {
	store storage.AuditEventStore
	clock func() time.Time
}

// NewEmitter creates a new audit event emitter.
func NewEmitter(store storage.AuditEventStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records an audit event. It is a no-op when the store is nil, so
// callers can emit unconditionally.
func (e *Emitter) Emit(ctx context.Context, evt storage.AuditEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	if evt.Severity == "" {
		evt.Severity = string(SeverityInfo)
	}
	return e.store.AppendAuditEvent(ctx, evt)
}
