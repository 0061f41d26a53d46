package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.ShouldAutoScroll {
		t.Error("default ShouldAutoScroll = false, want true")
	}
	if len(st.VisibleColumns) != 0 {
		t.Errorf("default VisibleColumns = %v, want empty", st.VisibleColumns)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := newTestStore(t)

	saved := State{
		ShouldAutoScroll: false,
		VisibleColumns: map[string]bool{
			"Time":     true,
			"Sequence": false,
			"Level":    true,
			"Category": false,
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ShouldAutoScroll {
		t.Error("ShouldAutoScroll = true, want false")
	}
	if len(got.VisibleColumns) != 4 {
		t.Fatalf("VisibleColumns has %d keys, want 4", len(got.VisibleColumns))
	}
	if !got.VisibleColumns["Time"] || got.VisibleColumns["Sequence"] {
		t.Errorf("VisibleColumns = %v, want Time=true Sequence=false", got.VisibleColumns)
	}
}

func TestLoad_AbsentKeyKeepsDefault(t *testing.T) {
	store := newTestStore(t)

	// A file written before the key existed must not flip the default.
	if err := os.WriteFile(store.Path(), []byte("visibleColumns:\n  Level: true\n"), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.ShouldAutoScroll {
		t.Error("ShouldAutoScroll = false, want default true when key absent")
	}
	if !st.VisibleColumns["Level"] {
		t.Error("VisibleColumns[Level] = false, want true")
	}
}

func TestLoad_MalformedFileYieldsDefaultsAndError(t *testing.T) {
	store := newTestStore(t)

	if err := os.WriteFile(store.Path(), []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	st, err := store.Load()
	if err == nil {
		t.Fatal("expected error for malformed state file")
	}
	if !st.ShouldAutoScroll {
		t.Error("malformed file should still yield default state")
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.yaml")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved state: %v", err)
	}
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}
