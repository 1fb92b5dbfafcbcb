package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/ladder/internal/services/ladder/storage"
)

func TestAppLifecycleRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ladder.db")

	ladder, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- ladder.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for app shutdown")
		}
	})

	eng := ladder.Engine()
	if eng == nil {
		t.Fatal("engine not exposed")
	}
	if _, err := eng.EnsureProfile(context.Background(), 1, 2, "Alice"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	record, found, err := eng.GetProfile(context.Background(), 1, 2)
	if err != nil || !found {
		t.Fatalf("get profile: found=%t err=%v", found, err)
	}
	if record.DisplayName != "Alice" {
		t.Fatalf("display name = %q, want Alice", record.DisplayName)
	}
}

func TestRestartKeepsLadderState(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ladder.db")

	first, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := first.Engine().EnsureProfile(ctx, 1, 2, "Alice"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	rating := int64(99)
	if _, err := first.Engine().UpdateProfile(ctx, 1, 2, storage.ProfileFields{Rating: &rating}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	first.Close()

	second, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("new app after restart: %v", err)
	}
	defer second.Close()

	record, found, err := second.Engine().GetProfile(ctx, 1, 2)
	if err != nil || !found {
		t.Fatalf("profile after restart: found=%t err=%v", found, err)
	}
	if record.DisplayName != "Alice" || record.Rating != 99 {
		t.Fatalf("profile after restart = %+v", record)
	}
}

func TestNewUsesEnvPathWhenBlank(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env", "ladder.db")
	t.Setenv("LADDER_DB_PATH", dbPath)

	ladder, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ladder.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created at env path: %v", err)
	}
}

func TestNewFailsWhenPathIsDirectory(t *testing.T) {
	if _, err := New(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}
