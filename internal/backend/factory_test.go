package backend

import (
	"context"
	"path/filepath"
	"testing"

	"plazabi/internal/config"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	res, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer res.Cleanup()

	if res.SQLite != nil {
		t.Error("memory backend must not expose a SQLite repository")
	}
	if res.Publisher != nil {
		t.Error("memory backend must not have a publisher")
	}

	ctx := context.Background()
	if err := res.Blobs.PutBlob(ctx, "k", "v"); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if got, err := res.Blobs.GetBlob(ctx, "k"); err != nil || got != "v" {
		t.Fatalf("GetBlob = %q, %v", got, err)
	}
}

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	}
	res, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer res.Cleanup()

	if res.SQLite == nil {
		t.Fatal("sqlite backend must expose the repository")
	}
	if res.Publisher != nil {
		t.Error("publisher must be nil without AMQP_URL")
	}
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	cfg := &config.Config{DataBackend: "sheets"}
	if _, err := Open(cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend kind")
	}
}
