package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

const defaultAuditEventLimit = 50

const statisticsQuery = `
SELECT
    (SELECT COUNT(*) FROM tenants),
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM matches),
    (SELECT COUNT(*) FROM match_participants)
`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// AppendAuditEvent records an operational audit event.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return err
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(evt.AttributesJSON) == 0 && len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal audit attributes: %w", err)
		}
		evt.AttributesJSON = payload
	}

	if _, err := sqlDB.ExecContext(ctx,
		"INSERT INTO audit_events (timestamp, event_name, severity, tenant_id, member_id, attributes_json) VALUES (?, ?, ?, ?, ?, ?)",
		toMillis(evt.Timestamp), evt.EventName, evt.Severity,
		toDBID(evt.TenantID), toDBID(evt.MemberID), evt.AttributesJSON,
	); err != nil {
		return unavailable("append audit event", err)
	}
	return nil
}

// ListAuditEvents returns the most recent audit events, newest first. A
// non-positive limit falls back to a small default page.
func (s *Store) ListAuditEvents(ctx context.Context, limit int) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditEventLimit
	}

	rows, err := sqlDB.QueryContext(ctx,
		"SELECT timestamp, event_name, severity, tenant_id, member_id, attributes_json FROM audit_events ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, unavailable("list audit events", err)
	}
	defer rows.Close()

	var events []storage.AuditEvent
	for rows.Next() {
		var timestamp, tenantID, memberID int64
		var eventName, severity string
		var attributesJSON []byte
		if err := rows.Scan(&timestamp, &eventName, &severity, &tenantID, &memberID, &attributesJSON); err != nil {
			return nil, unavailable("scan audit event row", err)
		}
		evt := storage.AuditEvent{
			Timestamp:      fromMillis(timestamp),
			EventName:      eventName,
			Severity:       severity,
			TenantID:       fromDBID(tenantID),
			MemberID:       fromDBID(memberID),
			AttributesJSON: attributesJSON,
		}
		// Malformed attribute payloads keep their raw bytes with a nil map.
		if len(attributesJSON) > 0 {
			attrs := map[string]string{}
			if err := json.Unmarshal(attributesJSON, &attrs); err == nil {
				evt.Attributes = attrs
			}
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate audit event rows", err)
	}
	return events, nil
}

// GetStatistics returns aggregate counts across the ladder data set.
func (s *Store) GetStatistics(ctx context.Context) (storage.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return storage.Statistics{}, err
	}
	sqlDB, err := s.handle()
	if err != nil {
		return storage.Statistics{}, err
	}

	var stats storage.Statistics
	if err := sqlDB.QueryRowContext(ctx, statisticsQuery).Scan(
		&stats.TenantCount, &stats.ProfileCount, &stats.MatchCount, &stats.ParticipantCount,
	); err != nil {
		return storage.Statistics{}, unavailable("get ladder statistics", err)
	}
	return stats, nil
}
