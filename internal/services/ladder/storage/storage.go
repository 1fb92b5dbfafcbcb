package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/ladder/internal/platform/errors"
)

// ErrNotConnected indicates a data operation ran before Open succeeded.
// The no-op close of a never-opened store reports it as well.
var ErrNotConnected = apperrors.New(apperrors.CodeNotConnected, "store is not connected")

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrUnavailable indicates the backing engine failed to execute a statement.
// Callers must treat the corresponding cache state as unchanged.
var ErrUnavailable = apperrors.New(apperrors.CodeStorageUnavailable, "storage unavailable")

// TenantRecord holds the per-tenant configuration row. All four references
// default to zero until a caller assigns them.
type TenantRecord struct {
	TenantID   uint64
	CategoryA  uint64
	CategoryB  uint64
	RoleRef    uint64
	ChannelRef uint64
}

// ProfileRecord holds one member's persistent profile within a tenant.
type ProfileRecord struct {
	TenantID    uint64
	MemberID    uint64
	DisplayName string
	Rating      int64
	Banned      bool
	Wins        int64
	Losses      int64
}

// MatchRecord identifies one recorded contest within a tenant.
type MatchRecord struct {
	TenantID uint64
	MatchID  uint64
}

// ParticipantRecord identifies one member's row within a match.
type ParticipantRecord struct {
	TenantID uint64
	MatchID  uint64
	MemberID uint64
}

// AppliedFields reports the columns an update actually changed, keyed by
// column name.
type AppliedFields map[string]any

// TenantFields names the updatable tenant columns. A nil field is excluded
// from the update, never zeroed.
type TenantFields struct {
	CategoryA  *uint64
	CategoryB  *uint64
	RoleRef    *uint64
	ChannelRef *uint64
}

// Empty reports whether no field was supplied.
func (f TenantFields) Empty() bool {
	return f.CategoryA == nil && f.CategoryB == nil && f.RoleRef == nil && f.ChannelRef == nil
}

// Applied returns the supplied fields as a column-keyed map.
func (f TenantFields) Applied() AppliedFields {
	applied := make(AppliedFields)
	if f.CategoryA != nil {
		applied["category_a"] = *f.CategoryA
	}
	if f.CategoryB != nil {
		applied["category_b"] = *f.CategoryB
	}
	if f.RoleRef != nil {
		applied["role_ref"] = *f.RoleRef
	}
	if f.ChannelRef != nil {
		applied["channel_ref"] = *f.ChannelRef
	}
	return applied
}

// ProfileFields names the updatable profile columns. A nil field is excluded
// from the update, never zeroed.
type ProfileFields struct {
	DisplayName *string
	Rating      *int64
	Banned      *bool
	Wins        *int64
	Losses      *int64
}

// Empty reports whether no field was supplied.
func (f ProfileFields) Empty() bool {
	return f.DisplayName == nil && f.Rating == nil && f.Banned == nil && f.Wins == nil && f.Losses == nil
}

// Applied returns the supplied fields as a column-keyed map.
func (f ProfileFields) Applied() AppliedFields {
	applied := make(AppliedFields)
	if f.DisplayName != nil {
		applied["display_name"] = *f.DisplayName
	}
	if f.Rating != nil {
		applied["rating"] = *f.Rating
	}
	if f.Banned != nil {
		applied["banned"] = *f.Banned
	}
	if f.Wins != nil {
		applied["wins"] = *f.Wins
	}
	if f.Losses != nil {
		applied["losses"] = *f.Losses
	}
	return applied
}

// AuditEvent records one operational event for the audit trail.
type AuditEvent struct {
	Timestamp time.Time
	EventName string
	Severity  string
	TenantID  uint64
	MemberID  uint64
	// Attributes carries event context; it is serialized to AttributesJSON
	// when the latter is empty.
	Attributes     map[string]string
	AttributesJSON []byte
}

// Statistics aggregates row counts across the ladder data set.
type Statistics struct {
	TenantCount      int64
	ProfileCount     int64
	MatchCount       int64
	ParticipantCount int64
}

// TenantStore persists tenant configuration rows.
type TenantStore interface {
	// InsertTenant persists an identifier-only row; remaining columns take
	// their schema defaults.
	InsertTenant(ctx context.Context, tenantID uint64) error
	// UpdateTenant applies exactly the supplied fields to one tenant row.
	UpdateTenant(ctx context.Context, tenantID uint64, fields TenantFields) error
	// ListTenants returns every tenant row.
	ListTenants(ctx context.Context) ([]TenantRecord, error)
}

// ProfileStore persists member profile rows.
type ProfileStore interface {
	// InsertProfile persists identifier and display name; remaining columns
	// take their schema defaults.
	InsertProfile(ctx context.Context, tenantID, memberID uint64, displayName string) error
	// UpdateProfile applies exactly the supplied fields to one profile row.
	UpdateProfile(ctx context.Context, tenantID, memberID uint64, fields ProfileFields) error
	// ListProfiles returns every profile row across all tenants.
	ListProfiles(ctx context.Context) ([]ProfileRecord, error)
}

// MatchStore reads match and participant rows. Matches have no write path;
// they enter the store outside this layer and are read during hydration.
type MatchStore interface {
	ListMatches(ctx context.Context) ([]MatchRecord, error)
	ListParticipants(ctx context.Context) ([]ParticipantRecord, error)
}

// AuditEventStore records operational audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
	// ListAuditEvents returns the most recent events, newest first.
	ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error)
}

// StatisticsStore centralizes aggregate count queries for operational
// observability.
type StatisticsStore interface {
	GetStatistics(ctx context.Context) (Statistics, error)
}

// Store is the full persistence surface the synchronization engine and the
// process wiring depend on.
type Store interface {
	TenantStore
	ProfileStore
	MatchStore
	AuditEventStore
	StatisticsStore

	// Open connects the store and applies schema migrations. It is a no-op
	// when the store is already open.
	Open() error
	// Close releases the handle. Closing a never-opened store fails with
	// ErrNotConnected.
	Close() error
}
