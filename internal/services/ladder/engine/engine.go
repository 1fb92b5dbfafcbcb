// Package engine coordinates the write-through ladder state.
//
// The engine owns two halves of one picture: the SQLite-backed store and the
// in-memory mirror. Every mutation commits to the store first and applies to
// the mirror only after the store confirms, so a storage failure leaves the
// mirror exactly as it was. Reads are answered from the mirror alone.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/ladder/internal/platform/errors"
	"github.com/louisbranch/ladder/internal/platform/timeouts"
	"github.com/louisbranch/ladder/internal/services/ladder/cache"
	"github.com/louisbranch/ladder/internal/services/ladder/observability/audit"
	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

// ErrNotHydrated indicates an engine operation before Hydrate succeeded.
var ErrNotHydrated = apperrors.New(apperrors.CodeNotHydrated, "cache is not hydrated")

// Engine serializes access to the mirror with a single RWMutex. Mutations
// hold the write lock across the store write and the mirror apply; reads
// hold the read lock. Lookups that can lazily create a tenant row count as
// mutations.
type Engine struct {
	mu    sync.RWMutex
	store storage.Store
	cache *cache.Cache
	audit *audit.Emitter

	hydrated bool
}

// New creates an engine over the given store. The emitter may be nil, which
// disables the audit trail.
func New(store storage.Store, emitter *audit.Emitter) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Engine{store: store, cache: cache.New(), audit: emitter}, nil
}

// storeFault classifies a storage failure. Coded errors pass through
// untouched; anything else counts as the backing engine being unavailable.
func storeFault(op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, op, err)
}

func appliedAttributes(applied storage.AppliedFields) map[string]string {
	attrs := make(map[string]string, len(applied))
	for column, value := range applied {
		attrs[column] = fmt.Sprint(value)
	}
	return attrs
}

// emit records an audit event on its own storage deadline. Audit failures
// are logged and never fail the operation that produced them.
func (e *Engine) emit(ctx context.Context, evt storage.AuditEvent) {
	auditCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	defer cancel()
	if err := e.audit.Emit(auditCtx, evt); err != nil {
		log.Printf("audit emit %s: %v", evt.EventName, err)
	}
}

// Hydrate rebuilds the whole mirror from the store. The four tables are
// listed in full and regrouped in memory; the rebuilt mirror replaces the
// previous one in a single swap under the write lock. Hydrate may be called
// again at any time to resynchronize.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e == nil {
		return fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	tenants, err := e.store.ListTenants(storeCtx)
	cancel()
	if err != nil {
		return storeFault("list tenants", err)
	}

	storeCtx, cancel = context.WithTimeout(ctx, timeouts.Storage)
	profiles, err := e.store.ListProfiles(storeCtx)
	cancel()
	if err != nil {
		return storeFault("list profiles", err)
	}

	storeCtx, cancel = context.WithTimeout(ctx, timeouts.Storage)
	matches, err := e.store.ListMatches(storeCtx)
	cancel()
	if err != nil {
		return storeFault("list matches", err)
	}

	storeCtx, cancel = context.WithTimeout(ctx, timeouts.Storage)
	participants, err := e.store.ListParticipants(storeCtx)
	cancel()
	if err != nil {
		return storeFault("list participants", err)
	}

	fresh := cache.New()
	for _, tenant := range tenants {
		fresh.PutTenant(tenant)
	}
	for _, profile := range profiles {
		if !fresh.PutProfile(profile) {
			log.Printf("hydrate: profile %d/%d has no tenant row, skipping", profile.TenantID, profile.MemberID)
		}
	}
	for _, match := range matches {
		if !fresh.PutMatch(match) {
			log.Printf("hydrate: match %d/%d has no tenant row, skipping", match.TenantID, match.MatchID)
		}
	}
	for _, participant := range participants {
		if !fresh.PutParticipant(participant) {
			log.Printf("hydrate: participant %d/%d/%d has no match row, skipping",
				participant.TenantID, participant.MatchID, participant.MemberID)
		}
	}

	e.cache = fresh
	e.hydrated = true

	tenantCount, profileCount, matchCount, participantCount := fresh.Counts()
	e.emit(ctx, storage.AuditEvent{
		EventName: audit.EventCacheHydrated,
		Attributes: map[string]string{
			"tenants":      strconv.Itoa(tenantCount),
			"profiles":     strconv.Itoa(profileCount),
			"matches":      strconv.Itoa(matchCount),
			"participants": strconv.Itoa(participantCount),
		},
	})
	return nil
}

// ensureTenantLocked guarantees a cached tenant row, inserting an id-only
// row when absent. Callers must hold the write lock.
func (e *Engine) ensureTenantLocked(ctx context.Context, tenantID uint64) (*cache.Tenant, Outcome, error) {
	if tenant, ok := e.cache.Tenant(tenantID); ok {
		return tenant, OutcomeAlreadyExists, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	err := e.store.InsertTenant(storeCtx, tenantID)
	cancel()
	if err != nil {
		return nil, "", storeFault("insert tenant", err)
	}

	tenant := e.cache.PutTenant(storage.TenantRecord{TenantID: tenantID})
	e.emit(ctx, storage.AuditEvent{EventName: audit.EventTenantCreated, TenantID: tenantID})
	return tenant, OutcomeCreated, nil
}

// GetTenant returns the cached tenant configuration. The second return
// reports whether the tenant is known.
func (e *Engine) GetTenant(ctx context.Context, tenantID uint64) (storage.TenantRecord, bool, error) {
	if e == nil {
		return storage.TenantRecord{}, false, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return storage.TenantRecord{}, false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hydrated {
		return storage.TenantRecord{}, false, ErrNotHydrated
	}

	tenant, ok := e.cache.Tenant(tenantID)
	if !ok {
		return storage.TenantRecord{}, false, nil
	}
	return tenant.TenantRecord, true, nil
}

// EnsureTenant creates the tenant when absent. A tenant that already exists
// reports OutcomeAlreadyExists without touching either side.
func (e *Engine) EnsureTenant(ctx context.Context, tenantID uint64) (TenantResult, error) {
	if e == nil {
		return TenantResult{}, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return TenantResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hydrated {
		return TenantResult{}, ErrNotHydrated
	}

	tenant, outcome, err := e.ensureTenantLocked(ctx, tenantID)
	if err != nil {
		return TenantResult{}, err
	}
	if outcome == OutcomeAlreadyExists {
		return TenantResult{Outcome: OutcomeAlreadyExists}, nil
	}
	return TenantResult{Outcome: OutcomeCreated, Tenant: tenant.TenantRecord}, nil
}

// UpdateTenant applies the supplied configuration fields. The tenant is
// ensured first, so updating an unknown tenant creates its row before the
// update lands. An empty field set reports OutcomeNotFound and writes
// nothing.
func (e *Engine) UpdateTenant(ctx context.Context, tenantID uint64, fields storage.TenantFields) (UpdateResult, error) {
	if e == nil {
		return UpdateResult{}, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hydrated {
		return UpdateResult{}, ErrNotHydrated
	}

	tenant, _, err := e.ensureTenantLocked(ctx, tenantID)
	if err != nil {
		return UpdateResult{}, err
	}
	if fields.Empty() {
		return UpdateResult{Outcome: OutcomeNotFound}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	err = e.store.UpdateTenant(storeCtx, tenantID, fields)
	cancel()
	if err != nil {
		return UpdateResult{}, storeFault("update tenant", err)
	}

	record := tenant.TenantRecord
	if fields.CategoryA != nil {
		record.CategoryA = *fields.CategoryA
	}
	if fields.CategoryB != nil {
		record.CategoryB = *fields.CategoryB
	}
	if fields.RoleRef != nil {
		record.RoleRef = *fields.RoleRef
	}
	if fields.ChannelRef != nil {
		record.ChannelRef = *fields.ChannelRef
	}
	e.cache.PutTenant(record)

	applied := fields.Applied()
	e.emit(ctx, storage.AuditEvent{
		EventName:  audit.EventTenantUpdated,
		TenantID:   tenantID,
		Attributes: appliedAttributes(applied),
	})
	return UpdateResult{Outcome: OutcomeUpdated, Applied: applied}, nil
}

// GetProfile returns the cached profile for the member. The tenant is
// lazily ensured, so this lookup can create a tenant row for a tenant seen
// for the first time.
func (e *Engine) GetProfile(ctx context.Context, tenantID, memberID uint64) (storage.ProfileRecord, bool, error) {
	if e == nil {
		return storage.ProfileRecord{}, false, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return storage.ProfileRecord{}, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hydrated {
		return storage.ProfileRecord{}, false, ErrNotHydrated
	}

	if _, _, err := e.ensureTenantLocked(ctx, tenantID); err != nil {
		return storage.ProfileRecord{}, false, err
	}

	profile, ok := e.cache.Profile(tenantID, memberID)
	if !ok {
		return storage.ProfileRecord{}, false, nil
	}
	return *profile, true, nil
}

// EnsureProfile creates the member's profile when absent. The display name
// must be non-blank; the remaining fields start at their zero defaults. An
// existing profile reports OutcomeAlreadyExists without touching either
// side.
func (e *Engine) EnsureProfile(ctx context.Context, tenantID, memberID uint64, displayName string) (ProfileResult, error) {
	if e == nil {
		return ProfileResult{}, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return ProfileResult{}, err
	}
	if strings.TrimSpace(displayName) == "" {
		return ProfileResult{}, apperrors.New(apperrors.CodeDisplayNameEmpty, "display name is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hydrated {
		return ProfileResult{}, ErrNotHydrated
	}

	if _, _, err := e.ensureTenantLocked(ctx, tenantID); err != nil {
		return ProfileResult{}, err
	}
	if _, ok := e.cache.Profile(tenantID, memberID); ok {
		return ProfileResult{Outcome: OutcomeAlreadyExists}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	err := e.store.InsertProfile(storeCtx, tenantID, memberID, displayName)
	cancel()
	if err != nil {
		return ProfileResult{}, storeFault("insert profile", err)
	}

	record := storage.ProfileRecord{TenantID: tenantID, MemberID: memberID, DisplayName: displayName}
	e.cache.PutProfile(record)
	e.emit(ctx, storage.AuditEvent{
		EventName:  audit.EventProfileCreated,
		TenantID:   tenantID,
		MemberID:   memberID,
		Attributes: map[string]string{"display_name": displayName},
	})
	return ProfileResult{Outcome: OutcomeCreated, Profile: record}, nil
}

// UpdateProfile applies the supplied fields to an existing profile. The
// tenant is lazily ensured, but a missing profile is never created: both a
// missing profile and an empty field set report OutcomeNotFound with zero
// writes.
func (e *Engine) UpdateProfile(ctx context.Context, tenantID, memberID uint64, fields storage.ProfileFields) (UpdateResult, error) {
	if e == nil {
		return UpdateResult{}, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hydrated {
		return UpdateResult{}, ErrNotHydrated
	}

	if _, _, err := e.ensureTenantLocked(ctx, tenantID); err != nil {
		return UpdateResult{}, err
	}
	current, ok := e.cache.Profile(tenantID, memberID)
	if !ok {
		return UpdateResult{Outcome: OutcomeNotFound}, nil
	}
	if fields.Empty() {
		return UpdateResult{Outcome: OutcomeNotFound}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	err := e.store.UpdateProfile(storeCtx, tenantID, memberID, fields)
	cancel()
	if err != nil {
		return UpdateResult{}, storeFault("update profile", err)
	}

	record := *current
	if fields.DisplayName != nil {
		record.DisplayName = *fields.DisplayName
	}
	if fields.Rating != nil {
		record.Rating = *fields.Rating
	}
	if fields.Banned != nil {
		record.Banned = *fields.Banned
	}
	if fields.Wins != nil {
		record.Wins = *fields.Wins
	}
	if fields.Losses != nil {
		record.Losses = *fields.Losses
	}
	e.cache.PutProfile(record)

	applied := fields.Applied()
	e.emit(ctx, storage.AuditEvent{
		EventName:  audit.EventProfileUpdated,
		TenantID:   tenantID,
		MemberID:   memberID,
		Attributes: appliedAttributes(applied),
	})
	return UpdateResult{Outcome: OutcomeUpdated, Applied: applied}, nil
}

// GetMatch returns a cached match and its participants, ordered by member
// id. Match history is hydrated from the store but never written through
// this engine.
func (e *Engine) GetMatch(ctx context.Context, tenantID, matchID uint64) (storage.MatchRecord, []storage.ParticipantRecord, bool, error) {
	if e == nil {
		return storage.MatchRecord{}, nil, false, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return storage.MatchRecord{}, nil, false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hydrated {
		return storage.MatchRecord{}, nil, false, ErrNotHydrated
	}

	match, ok := e.cache.Match(tenantID, matchID)
	if !ok {
		return storage.MatchRecord{}, nil, false, nil
	}

	participants := make([]storage.ParticipantRecord, 0, len(match.Participants))
	for _, participant := range match.Participants {
		participants = append(participants, *participant)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].MemberID < participants[j].MemberID
	})
	return match.MatchRecord, participants, true, nil
}
