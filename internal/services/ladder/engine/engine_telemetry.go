package engine

import (
	"context"
	"fmt"

	"github.com/louisbranch/ladder/internal/platform/timeouts"
	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

// Statistics returns aggregate row counts straight from the store.
func (e *Engine) Statistics(ctx context.Context) (storage.Statistics, error) {
	if e == nil {
		return storage.Statistics{}, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return storage.Statistics{}, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	defer cancel()
	stats, err := e.store.GetStatistics(storeCtx)
	if err != nil {
		return storage.Statistics{}, storeFault("get statistics", err)
	}
	return stats, nil
}

// RecentAuditEvents returns the newest audit trail entries, newest first.
func (e *Engine) RecentAuditEvents(ctx context.Context, limit int) ([]storage.AuditEvent, error) {
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	defer cancel()
	events, err := e.store.ListAuditEvents(storeCtx, limit)
	if err != nil {
		return nil, storeFault("list audit events", err)
	}
	return events, nil
}
