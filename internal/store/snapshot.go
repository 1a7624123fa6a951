package store

import (
	"bytes"
	"encoding/gob"
	"io"
	"time"
)

// snapshotRecord is the gob-serializable shape of one key's state, used by
// internal/snapshot to persist periodic checkpoints. This is an optional
// durability aid only: the live Store never reads it back except at
// process start.
type snapshotRecord struct {
	Key     string
	History []ChangeRecord
}

// Snapshot writes the entire store to w as a gob stream. Safe to call
// concurrently with Save/Get (takes a read lock for the duration of the
// copy, not the encode).
func (s *Store) Snapshot(w io.Writer) error {
	s.mu.RLock()
	records := make([]snapshotRecord, 0, len(s.history))
	for k, h := range s.history {
		cp := make([]ChangeRecord, len(h))
		copy(cp, h)
		records = append(records, snapshotRecord{Key: k, History: cp})
	}
	s.mu.RUnlock()

	return gob.NewEncoder(w).Encode(records)
}

// Restore replaces the store's contents with a previously-written
// Snapshot. Intended for use only at process start, before any concurrent
// access begins.
func (s *Store) Restore(r io.Reader) error {
	var records []snapshotRecord
	if err := gob.NewDecoder(r).Decode(&records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = make(map[string][]byte, len(records))
	s.history = make(map[string][]ChangeRecord, len(records))
	for _, rec := range records {
		s.history[rec.Key] = rec.History
		if n := len(rec.History); n > 0 {
			s.current[rec.Key] = rec.History[n-1].Content
		}
	}
	return nil
}

// SnapshotBytes is a convenience wrapper around Snapshot for callers that
// want an in-memory buffer (e.g. before writing it to a sqlite blob column).
func (s *Store) SnapshotBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Snapshot(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func init() {
	gob.Register(time.Time{})
}
