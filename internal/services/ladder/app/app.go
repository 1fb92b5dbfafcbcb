// Package app wires the ladder runtime and storage lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/ladder/internal/platform/config"
	"github.com/louisbranch/ladder/internal/services/ladder/engine"
	"github.com/louisbranch/ladder/internal/services/ladder/observability/audit"
	laddersqlite "github.com/louisbranch/ladder/internal/services/ladder/storage/sqlite"
)

type appEnv struct {
	DBPath string `env:"LADDER_DB_PATH"`
}

func loadAppEnv() appEnv {
	var cfg appEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "ladder.db")
	}
	return cfg
}

// App hosts the ladder engine and its storage lifecycle.
type App struct {
	store  *laddersqlite.Store
	engine *engine.Engine
}

// New creates a ready ladder app: the store is opened and migrated, and the
// mirror hydrated, before New returns. An empty path falls back to the
// LADDER_DB_PATH environment value, then to data/ladder.db.
func New(ctx context.Context, dbPath string) (*App, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = loadAppEnv().DBPath
	}

	store, err := openLadderStore(dbPath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(store, audit.NewEmitter(store))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := eng.Hydrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("hydrate ladder mirror: %w", err)
	}

	return &App{store: store, engine: eng}, nil
}

// Engine exposes the hydrated engine to in-process callers.
func (a *App) Engine() *engine.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// Run creates an app and serves it until context cancellation.
func Run(ctx context.Context, dbPath string) error {
	app, err := New(ctx, dbPath)
	if err != nil {
		return err
	}
	return app.Serve(ctx)
}

// Serve logs the mirrored data set and blocks until context cancellation.
// The ladder exposes no command, query, or network surface of its own; the
// process exists so the data layer runs, migrates, and shuts down cleanly.
func (a *App) Serve(ctx context.Context) error {
	if a == nil {
		return errors.New("app is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.Close()

	stats, err := a.engine.Statistics(ctx)
	if err != nil {
		log.Printf("read ladder statistics: %v", err)
	} else {
		log.Printf("ladder ready: %d tenants, %d profiles, %d matches, %d participants",
			stats.TenantCount, stats.ProfileCount, stats.MatchCount, stats.ParticipantCount)
	}

	<-ctx.Done()
	return nil
}

// Close releases app resources.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("close ladder store: %v", err)
		}
	}
}

func openLadderStore(path string) (*laddersqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := laddersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ladder sqlite store: %w", err)
	}
	return store, nil
}
