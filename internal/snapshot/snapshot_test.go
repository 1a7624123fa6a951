package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agrama/agrama/internal/store"
)

func TestOpenCreatesJournalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snapshot")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("journal file was not created")
	}
}

func TestSaveAndRestoreLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snapshot")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	s := store.New()
	if _, err := s.Save("alpha", []byte("one")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := j.Save(s); err != nil {
		t.Fatalf("journal Save failed: %v", err)
	}

	if _, err := s.Save("beta", []byte("two")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := j.Save(s); err != nil {
		t.Fatalf("journal Save failed: %v", err)
	}

	restored := store.New()
	found, err := j.RestoreLatest(restored)
	if err != nil {
		t.Fatalf("RestoreLatest failed: %v", err)
	}
	if !found {
		t.Fatal("expected a snapshot to be found")
	}

	v, err := restored.Get("alpha")
	if err != nil || string(v) != "one" {
		t.Errorf("alpha = %q, err=%v", v, err)
	}
	v, err = restored.Get("beta")
	if err != nil || string(v) != "two" {
		t.Errorf("beta = %q, err=%v", v, err)
	}
}

func TestRestoreLatestNoSnapshotsIsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snapshot")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	s := store.New()
	found, err := j.RestoreLatest(s)
	if err != nil {
		t.Fatalf("RestoreLatest failed: %v", err)
	}
	if found {
		t.Fatal("expected no snapshot to be found in an empty journal")
	}
}

func TestPruneKeepsOnlyMostRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snapshot")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	s := store.New()
	for i := 0; i < 5; i++ {
		if err := j.Save(s); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if err := j.Prune(2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	var count int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestTickerSavesOnInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.snapshot")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	s := store.New()
	if _, err := s.Save("k", []byte("v")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ticker := NewTicker(j, s, 10*time.Millisecond, 10)
	ticker.Start()
	time.Sleep(50 * time.Millisecond)
	ticker.Stop()

	var count int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one snapshot to have been written")
	}
}
