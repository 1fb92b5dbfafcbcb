// Package cache holds the in-memory mirror of the ladder's relational state.
//
// The mirror is hierarchical: tenants own profiles and matches, matches own
// participants. Parent entries must exist before children are admitted, so a
// populated cache never contains orphaned rows.
//
// A Cache performs no locking of its own. The engine serializes every read
// and write, and copies data out of returned values before releasing its
// lock.
package cache

import (
	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

// Tenant is one tenant's cached slice: its configuration plus every profile
// and match recorded for it.
type Tenant struct {
	storage.TenantRecord

	Profiles map[uint64]*storage.ProfileRecord
	Matches  map[uint64]*Match
}

// Match is one cached match with its participant set.
type Match struct {
	storage.MatchRecord

	Participants map[uint64]*storage.ParticipantRecord
}

// Cache indexes tenants by identifier.
type Cache struct {
	tenants map[uint64]*Tenant
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{tenants: make(map[uint64]*Tenant)}
}

// Tenant returns the cached tenant for the given id.
func (c *Cache) Tenant(tenantID uint64) (*Tenant, bool) {
	if c == nil {
		return nil, false
	}
	tenant, ok := c.tenants[tenantID]
	return tenant, ok
}

// PutTenant stores the tenant configuration, creating the tenant entry when
// absent. An existing entry keeps its profiles and matches.
func (c *Cache) PutTenant(record storage.TenantRecord) *Tenant {
	if c == nil {
		return nil
	}
	if c.tenants == nil {
		c.tenants = make(map[uint64]*Tenant)
	}
	tenant, ok := c.tenants[record.TenantID]
	if !ok {
		tenant = &Tenant{
			Profiles: make(map[uint64]*storage.ProfileRecord),
			Matches:  make(map[uint64]*Match),
		}
		c.tenants[record.TenantID] = tenant
	}
	tenant.TenantRecord = record
	return tenant
}

// Profile returns the cached profile for the given tenant and member.
func (c *Cache) Profile(tenantID, memberID uint64) (*storage.ProfileRecord, bool) {
	tenant, ok := c.Tenant(tenantID)
	if !ok {
		return nil, false
	}
	profile, ok := tenant.Profiles[memberID]
	return profile, ok
}

// PutProfile stores a profile under its tenant. It reports false, without
// storing anything, when the tenant is not cached.
func (c *Cache) PutProfile(record storage.ProfileRecord) bool {
	tenant, ok := c.Tenant(record.TenantID)
	if !ok {
		return false
	}
	if tenant.Profiles == nil {
		tenant.Profiles = make(map[uint64]*storage.ProfileRecord)
	}
	stored := record
	tenant.Profiles[record.MemberID] = &stored
	return true
}

// Match returns the cached match for the given tenant and match id.
func (c *Cache) Match(tenantID, matchID uint64) (*Match, bool) {
	tenant, ok := c.Tenant(tenantID)
	if !ok {
		return nil, false
	}
	match, ok := tenant.Matches[matchID]
	return match, ok
}

// PutMatch stores a match under its tenant. It reports false, without
// storing anything, when the tenant is not cached. An existing match keeps
// its participants.
func (c *Cache) PutMatch(record storage.MatchRecord) bool {
	tenant, ok := c.Tenant(record.TenantID)
	if !ok {
		return false
	}
	if tenant.Matches == nil {
		tenant.Matches = make(map[uint64]*Match)
	}
	match, ok := tenant.Matches[record.MatchID]
	if !ok {
		match = &Match{Participants: make(map[uint64]*storage.ParticipantRecord)}
		tenant.Matches[record.MatchID] = match
	}
	match.MatchRecord = record
	return true
}

// PutParticipant stores a participant under its match. It reports false,
// without storing anything, when the tenant or match is not cached.
func (c *Cache) PutParticipant(record storage.ParticipantRecord) bool {
	match, ok := c.Match(record.TenantID, record.MatchID)
	if !ok {
		return false
	}
	if match.Participants == nil {
		match.Participants = make(map[uint64]*storage.ParticipantRecord)
	}
	stored := record
	match.Participants[record.MemberID] = &stored
	return true
}

// Counts returns the number of cached tenants, profiles, matches, and
// participants.
func (c *Cache) Counts() (tenants, profiles, matches, participants int) {
	if c == nil {
		return 0, 0, 0, 0
	}
	tenants = len(c.tenants)
	for _, tenant := range c.tenants {
		profiles += len(tenant.Profiles)
		matches += len(tenant.Matches)
		for _, match := range tenant.Matches {
			participants += len(match.Participants)
		}
	}
	return tenants, profiles, matches, participants
}
