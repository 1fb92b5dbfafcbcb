package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/ladder/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/ladder/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/ladder/internal/services/ladder/storage"
	"github.com/louisbranch/ladder/internal/services/ladder/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for ladder state.
//
// A Store starts unconnected. Open connects the single database handle and
// applies bundled migrations; calling Open on an open store is a no-op. Every
// data method fails with storage.ErrNotConnected until Open succeeds.
type Store struct {
	path string

	mu    sync.Mutex
	sqlDB *sql.DB
}

// SQLite integers are signed; identifiers round-trip through int64 keeping
// all 64 bits.
func toDBID(value uint64) int64 {
	return int64(value)
}

func fromDBID(value int64) uint64 {
	return uint64(value)
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

// New constructs an unconnected store for the given database file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Open opens a ladder SQLite store at the provided path and applies bundled
// migrations.
func Open(path string) (*Store, error) {
	store := New(path)
	if err := store.Open(); err != nil {
		return nil, err
	}
	return store, nil
}

// Open connects the store and applies bundled migrations. It keeps startup
// and schema evolution in one place, instead of requiring callers to
// coordinate migrations independently. Open is idempotent; reopening an
// already-open store returns nil without touching the handle.
func (s *Store) Open() error {
	if s == nil {
		return fmt.Errorf("store is required")
	}
	if strings.TrimSpace(s.path) == "" {
		return fmt.Errorf("storage path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sqlDB != nil {
		return nil
	}

	cleanPath := filepath.Clean(s.path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return err
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	s.sqlDB = sqlDB
	return nil
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// Close releases the underlying SQLite database. Closing a store that was
// never opened fails with storage.ErrNotConnected.
func (s *Store) Close() error {
	if s == nil {
		return storage.ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sqlDB == nil {
		return storage.ErrNotConnected
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	if err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return nil
}

// handle returns the live database handle or storage.ErrNotConnected.
func (s *Store) handle() (*sql.DB, error) {
	if s == nil {
		return nil, storage.ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sqlDB == nil {
		return nil, storage.ErrNotConnected
	}
	return s.sqlDB, nil
}

// unavailable tags a driver failure so callers can separate backing engine
// faults from precondition errors.
func unavailable(op string, cause error) error {
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, op, cause)
}

// InsertTenant persists an identifier-only tenant row; the configuration
// columns take their schema defaults.
func (s *Store) InsertTenant(ctx context.Context, tenantID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return err
	}

	if _, err := sqlDB.ExecContext(ctx,
		"INSERT INTO tenants (tenant_id) VALUES (?)",
		toDBID(tenantID),
	); err != nil {
		return unavailable("insert tenant", err)
	}
	return nil
}

// UpdateTenant applies exactly the supplied fields to one tenant row. The
// generated statement names only those columns.
func (s *Store) UpdateTenant(ctx context.Context, tenantID uint64, fields storage.TenantFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return err
	}
	if fields.Empty() {
		return fmt.Errorf("at least one field is required")
	}

	var assignments []string
	var args []any
	if fields.CategoryA != nil {
		assignments = append(assignments, "category_a = ?")
		args = append(args, toDBID(*fields.CategoryA))
	}
	if fields.CategoryB != nil {
		assignments = append(assignments, "category_b = ?")
		args = append(args, toDBID(*fields.CategoryB))
	}
	if fields.RoleRef != nil {
		assignments = append(assignments, "role_ref = ?")
		args = append(args, toDBID(*fields.RoleRef))
	}
	if fields.ChannelRef != nil {
		assignments = append(assignments, "channel_ref = ?")
		args = append(args, toDBID(*fields.ChannelRef))
	}
	args = append(args, toDBID(tenantID))

	res, err := sqlDB.ExecContext(ctx,
		"UPDATE tenants SET "+strings.Join(assignments, ", ")+" WHERE tenant_id = ?",
		args...,
	)
	if err != nil {
		return unavailable("update tenant", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable("update tenant rows affected", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTenants returns every tenant row.
func (s *Store) ListTenants(ctx context.Context) ([]storage.TenantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.QueryContext(ctx,
		"SELECT tenant_id, category_a, category_b, role_ref, channel_ref FROM tenants",
	)
	if err != nil {
		return nil, unavailable("list tenants", err)
	}
	defer rows.Close()

	var records []storage.TenantRecord
	for rows.Next() {
		var tenantID, categoryA, categoryB, roleRef, channelRef int64
		if err := rows.Scan(&tenantID, &categoryA, &categoryB, &roleRef, &channelRef); err != nil {
			return nil, unavailable("scan tenant row", err)
		}
		records = append(records, storage.TenantRecord{
			TenantID:   fromDBID(tenantID),
			CategoryA:  fromDBID(categoryA),
			CategoryB:  fromDBID(categoryB),
			RoleRef:    fromDBID(roleRef),
			ChannelRef: fromDBID(channelRef),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate tenant rows", err)
	}
	return records, nil
}

// InsertProfile persists identifier and display name for a new profile row;
// the counter columns take their schema defaults.
func (s *Store) InsertProfile(ctx context.Context, tenantID, memberID uint64, displayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return err
	}
	if strings.TrimSpace(displayName) == "" {
		return apperrors.New(apperrors.CodeDisplayNameEmpty, "display name is required")
	}

	if _, err := sqlDB.ExecContext(ctx,
		"INSERT INTO users (tenant_id, member_id, display_name) VALUES (?, ?, ?)",
		toDBID(tenantID), toDBID(memberID), displayName,
	); err != nil {
		return unavailable("insert profile", err)
	}
	return nil
}

// UpdateProfile applies exactly the supplied fields to one profile row.
func (s *Store) UpdateProfile(ctx context.Context, tenantID, memberID uint64, fields storage.ProfileFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return err
	}
	if fields.Empty() {
		return fmt.Errorf("at least one field is required")
	}

	var assignments []string
	var args []any
	if fields.DisplayName != nil {
		assignments = append(assignments, "display_name = ?")
		args = append(args, *fields.DisplayName)
	}
	if fields.Rating != nil {
		assignments = append(assignments, "rating = ?")
		args = append(args, *fields.Rating)
	}
	if fields.Banned != nil {
		assignments = append(assignments, "banned = ?")
		args = append(args, boolToInt(*fields.Banned))
	}
	if fields.Wins != nil {
		assignments = append(assignments, "wins = ?")
		args = append(args, *fields.Wins)
	}
	if fields.Losses != nil {
		assignments = append(assignments, "losses = ?")
		args = append(args, *fields.Losses)
	}
	args = append(args, toDBID(tenantID), toDBID(memberID))

	res, err := sqlDB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(assignments, ", ")+" WHERE tenant_id = ? AND member_id = ?",
		args...,
	)
	if err != nil {
		return unavailable("update profile", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return unavailable("update profile rows affected", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListProfiles returns every profile row across all tenants.
func (s *Store) ListProfiles(ctx context.Context) ([]storage.ProfileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.QueryContext(ctx,
		"SELECT tenant_id, member_id, display_name, rating, banned, wins, losses FROM users",
	)
	if err != nil {
		return nil, unavailable("list profiles", err)
	}
	defer rows.Close()

	var records []storage.ProfileRecord
	for rows.Next() {
		var tenantID, memberID, rating, banned, wins, losses int64
		var displayName string
		if err := rows.Scan(&tenantID, &memberID, &displayName, &rating, &banned, &wins, &losses); err != nil {
			return nil, unavailable("scan profile row", err)
		}
		records = append(records, storage.ProfileRecord{
			TenantID:    fromDBID(tenantID),
			MemberID:    fromDBID(memberID),
			DisplayName: displayName,
			Rating:      rating,
			Banned:      banned != 0,
			Wins:        wins,
			Losses:      losses,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate profile rows", err)
	}
	return records, nil
}

// ListMatches returns every match row.
func (s *Store) ListMatches(ctx context.Context) ([]storage.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.QueryContext(ctx, "SELECT tenant_id, match_id FROM matches")
	if err != nil {
		return nil, unavailable("list matches", err)
	}
	defer rows.Close()

	var records []storage.MatchRecord
	for rows.Next() {
		var tenantID, matchID int64
		if err := rows.Scan(&tenantID, &matchID); err != nil {
			return nil, unavailable("scan match row", err)
		}
		records = append(records, storage.MatchRecord{
			TenantID: fromDBID(tenantID),
			MatchID:  fromDBID(matchID),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate match rows", err)
	}
	return records, nil
}

// ListParticipants returns every match participant row.
func (s *Store) ListParticipants(ctx context.Context) ([]storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.QueryContext(ctx,
		"SELECT tenant_id, match_id, member_id FROM match_participants",
	)
	if err != nil {
		return nil, unavailable("list participants", err)
	}
	defer rows.Close()

	var records []storage.ParticipantRecord
	for rows.Next() {
		var tenantID, matchID, memberID int64
		if err := rows.Scan(&tenantID, &matchID, &memberID); err != nil {
			return nil, unavailable("scan participant row", err)
		}
		records = append(records, storage.ParticipantRecord{
			TenantID: fromDBID(tenantID),
			MatchID:  fromDBID(matchID),
			MemberID: fromDBID(memberID),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate participant rows", err)
	}
	return records, nil
}

var _ storage.TenantStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)
var _ storage.MatchStore = (*Store)(nil)
var _ storage.AuditEventStore = (*Store)(nil)
var _ storage.StatisticsStore = (*Store)(nil)
var _ storage.Store = (*Store)(nil)
