package cache

import (
	"testing"

	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

func TestPutTenantKeepsChildrenOnOverwrite(t *testing.T) {
	t.Parallel()

	mirror := New()
	mirror.PutTenant(storage.TenantRecord{TenantID: 1})
	if !mirror.PutProfile(storage.ProfileRecord{TenantID: 1, MemberID: 2, DisplayName: "Ada"}) {
		t.Fatal("put profile under cached tenant failed")
	}

	mirror.PutTenant(storage.TenantRecord{TenantID: 1, CategoryA: 9, ChannelRef: 3})

	tenant, ok := mirror.Tenant(1)
	if !ok {
		t.Fatal("tenant missing after overwrite")
	}
	if tenant.CategoryA != 9 || tenant.ChannelRef != 3 {
		t.Fatalf("tenant config = %+v, want overwritten refs", tenant.TenantRecord)
	}
	profile, ok := mirror.Profile(1, 2)
	if !ok || profile.DisplayName != "Ada" {
		t.Fatalf("profile lost on tenant overwrite: %+v ok=%t", profile, ok)
	}
}

func TestPutProfileRefusesMissingTenant(t *testing.T) {
	t.Parallel()

	mirror := New()
	if mirror.PutProfile(storage.ProfileRecord{TenantID: 1, MemberID: 2}) {
		t.Fatal("expected profile put without tenant to report false")
	}
	if _, ok := mirror.Profile(1, 2); ok {
		t.Fatal("orphan profile was stored")
	}
}

func TestPutProfileStoresCopy(t *testing.T) {
	t.Parallel()

	mirror := New()
	mirror.PutTenant(storage.TenantRecord{TenantID: 1})
	record := storage.ProfileRecord{TenantID: 1, MemberID: 2, DisplayName: "Ada", Rating: 10}
	mirror.PutProfile(record)

	record.Rating = 999
	profile, _ := mirror.Profile(1, 2)
	if profile.Rating != 10 {
		t.Fatalf("cached rating = %d, want insulated copy 10", profile.Rating)
	}
}

func TestMatchHierarchy(t *testing.T) {
	t.Parallel()

	mirror := New()
	if mirror.PutMatch(storage.MatchRecord{TenantID: 1, MatchID: 5}) {
		t.Fatal("expected match put without tenant to report false")
	}
	if mirror.PutParticipant(storage.ParticipantRecord{TenantID: 1, MatchID: 5, MemberID: 2}) {
		t.Fatal("expected participant put without match to report false")
	}

	mirror.PutTenant(storage.TenantRecord{TenantID: 1})
	if !mirror.PutMatch(storage.MatchRecord{TenantID: 1, MatchID: 5}) {
		t.Fatal("put match under cached tenant failed")
	}
	if !mirror.PutParticipant(storage.ParticipantRecord{TenantID: 1, MatchID: 5, MemberID: 2}) {
		t.Fatal("put participant under cached match failed")
	}
	if !mirror.PutParticipant(storage.ParticipantRecord{TenantID: 1, MatchID: 5, MemberID: 3}) {
		t.Fatal("put second participant failed")
	}

	match, ok := mirror.Match(1, 5)
	if !ok {
		t.Fatal("match missing")
	}
	if len(match.Participants) != 2 {
		t.Fatalf("participant count = %d, want 2", len(match.Participants))
	}

	// Re-putting the match keeps its participant set.
	mirror.PutMatch(storage.MatchRecord{TenantID: 1, MatchID: 5})
	match, _ = mirror.Match(1, 5)
	if len(match.Participants) != 2 {
		t.Fatalf("participants lost on match overwrite: %d", len(match.Participants))
	}
}

func TestCounts(t *testing.T) {
	t.Parallel()

	mirror := New()
	mirror.PutTenant(storage.TenantRecord{TenantID: 1})
	mirror.PutTenant(storage.TenantRecord{TenantID: 2})
	mirror.PutProfile(storage.ProfileRecord{TenantID: 1, MemberID: 10, DisplayName: "Ada"})
	mirror.PutProfile(storage.ProfileRecord{TenantID: 2, MemberID: 11, DisplayName: "Grace"})
	mirror.PutMatch(storage.MatchRecord{TenantID: 1, MatchID: 5})
	mirror.PutParticipant(storage.ParticipantRecord{TenantID: 1, MatchID: 5, MemberID: 10})

	tenants, profiles, matches, participants := mirror.Counts()
	if tenants != 2 || profiles != 2 || matches != 1 || participants != 1 {
		t.Fatalf("counts = %d/%d/%d/%d, want 2/2/1/1", tenants, profiles, matches, participants)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	t.Parallel()

	var mirror *Cache
	if _, ok := mirror.Tenant(1); ok {
		t.Fatal("nil cache returned a tenant")
	}
	if mirror.PutTenant(storage.TenantRecord{TenantID: 1}) != nil {
		t.Fatal("nil cache created a tenant")
	}
	if mirror.PutProfile(storage.ProfileRecord{TenantID: 1, MemberID: 2}) {
		t.Fatal("nil cache stored a profile")
	}
	tenants, profiles, matches, participants := mirror.Counts()
	if tenants+profiles+matches+participants != 0 {
		t.Fatal("nil cache reported entries")
	}
}
