package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

func TestSnapshotTo_CreatesSnapshotFile(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "lumen.duckdb")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.InsertEntryBatch([]*model.Entry{
		{
			Time:    time.Now(),
			Seq:     1,
			Level:   model.LevelInfo,
			Message: "snapshot test",
			Source:  "stdin",
		},
	})
	if err != nil {
		t.Fatalf("InsertEntryBatch: %v", err)
	}

	snapshotPath := filepath.Join(t.TempDir(), "snapshots", "snapshot.duckdb")
	if err := store.SnapshotTo(snapshotPath); err != nil {
		t.Fatalf("SnapshotTo: %v", err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		t.Fatalf("stat snapshot: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("snapshot file is empty")
	}
}

func TestSnapshotTo_InMemoryStore(t *testing.T) {
	t.Parallel()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.SnapshotTo(filepath.Join(t.TempDir(), "snapshot.duckdb"))
	if err == nil {
		t.Fatal("expected error for in-memory store")
	}
	if err != ErrInMemoryStore {
		t.Fatalf("err = %v, want %v", err, ErrInMemoryStore)
	}
}
