// Package store implements Agrama's temporal content store: a
// content-addressed, in-memory key-value map with an append-only per-key
// change history. It is the single owner of current values and history;
// nothing above it mutates either table directly.
//
// Uses a single guarded struct with RWMutex-protected reads and short
// critical sections, same locking discipline as a guarded database
// handle, but over an in-process map: this core carries no on-disk
// durability guarantee beyond the append-only history itself.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrama/agrama/internal/agerr"
)

// ChangeRecord is one immutable entry in a key's history. ID is a
// provenance handle distinct from the key+timestamp pair, letting callers
// reference one specific write (e.g. in a future audit log) even if two
// writes to the same key land in the same timestamp tick.
type ChangeRecord struct {
	ID        uuid.UUID
	Timestamp time.Time
	Content   []byte
}

// Store is the temporal key-value map. Zero value is not usable; use New.
type Store struct {
	mu sync.RWMutex

	current map[string][]byte
	history map[string][]ChangeRecord

	// MaxHistoryPerKey bounds the retained history per key; 0 means
	// unbounded, which is the default: retention stays unbounded unless
	// a retention policy is explicitly configured.
	maxHistoryPerKey int

	// clock is overridable for tests; defaults to time.Now.
	clock func() time.Time
}

// Option configures a Store at construction.
type Option func(*Store)

// WithMaxHistoryPerKey bounds retained history per key. n <= 0 means
// unbounded.
func WithMaxHistoryPerKey(n int) Option {
	return func(s *Store) { s.maxHistoryPerKey = n }
}

// WithClock overrides the wall clock used to stamp saves; for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		current: make(map[string][]byte),
		history: make(map[string][]ChangeRecord),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save appends a change record and updates the current value for key.
// Fails with agerr.EmptyKey if key has zero length. Saves on the same key
// are strictly ordered by the order Save is called, regardless of
// wall-clock resolution, because the critical section serializes them.
func (s *Store) Save(key string, value []byte) (time.Time, error) {
	if len(key) == 0 {
		return time.Time{}, agerr.EmptyKey()
	}

	v := append([]byte(nil), value...) // the store deep-copies; it owns this slice

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.current[key] = v
	s.history[key] = append(s.history[key], ChangeRecord{ID: uuid.New(), Timestamp: now, Content: v})

	if s.maxHistoryPerKey > 0 && len(s.history[key]) > s.maxHistoryPerKey {
		excess := len(s.history[key]) - s.maxHistoryPerKey
		s.history[key] = s.history[key][excess:]
	}

	return now, nil
}

// Get returns the latest value for key. Fails with agerr.NotFound if the
// key was never saved.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.current[key]
	if !ok {
		return nil, agerr.NotFound(key)
	}
	return append([]byte(nil), v...), nil
}

// Exists reports whether key has ever been saved and still has a current
// value.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.current[key]
	return ok
}

// History returns up to limit change records for key, most-recent first.
// Fails with agerr.NotFound only if the key never existed; limit <= 0
// means unbounded.
func (s *Store) History(key string, limit int) ([]ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.history[key]
	if !ok {
		return nil, agerr.NotFound(key)
	}

	out := make([]ChangeRecord, len(records))
	for i, r := range records {
		out[len(records)-1-i] = ChangeRecord{ID: r.ID, Timestamp: r.Timestamp, Content: append([]byte(nil), r.Content...)}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TimeRange returns change records for key whose timestamp falls within
// [start, end] (either bound may be zero to mean unbounded on that side),
// most-recent first. This backs the SEARCH primitive's `temporal` type
// with a direct scan over history, since no separate time index exists.
func (s *Store) TimeRange(key string, start, end time.Time) ([]ChangeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.history[key]
	if !ok {
		return nil, agerr.NotFound(key)
	}

	var out []ChangeRecord
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if !start.IsZero() && r.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && r.Timestamp.After(end) {
			continue
		}
		out = append(out, ChangeRecord{ID: r.ID, Timestamp: r.Timestamp, Content: append([]byte(nil), r.Content...)})
	}
	return out, nil
}

// Keys returns a snapshot of all currently-live keys matching an optional
// prefix filter ("" matches everything). Used by the graph index to
// enumerate link keys.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.current))
	for k := range s.current {
		if prefix == "" || hasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Len returns the number of live keys, for stats/monitoring.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}
