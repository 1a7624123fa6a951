// Package snapshot persists periodic gob-encoded snapshots of the
// temporal content store into a SQLite journal, so a process restart can
// restore from the most recent one instead of starting empty.
//
// Uses single-writer SQLite settings (WAL, one open connection) and a
// directory-creation-then-open-then-ping sequence, built around a single
// append-only blob table.
package snapshot

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agrama/agrama/internal/logging"
	"github.com/agrama/agrama/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

var log = logging.GetLogger("snapshot")

// schemaVersion identifies the journal table layout.
const schemaVersion = 1

// Journal persists store snapshots to a SQLite file on a tick, and can
// restore the most recent one at startup.
type Journal struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if necessary) the SQLite journal at path.
func Open(path string) (*Journal, error) {
	log.Info("opening snapshot journal", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping snapshot journal: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("snapshot journal ready", "path", path)
	return j, nil
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at   DATETIME NOT NULL,
			key_count  INTEGER NOT NULL,
			payload    BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}
	return nil
}

// Save encodes the store's current state and appends it to the journal.
func (j *Journal) Save(s *store.Store) error {
	payload, err := s.SnapshotBytes()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err = j.db.Exec(
		`INSERT INTO snapshots (taken_at, key_count, payload) VALUES (?, ?, ?)`,
		time.Now().UTC(), s.Len(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Debug("snapshot written", "keys", s.Len(), "bytes", len(payload))
	return nil
}

// RestoreLatest loads the most recent snapshot into s. It is a no-op,
// returning (false, nil), when the journal has never been written to.
func (j *Journal) RestoreLatest(s *store.Store) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var payload []byte
	err := j.db.QueryRow(
		`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	if err := s.Restore(bytes.NewReader(payload)); err != nil {
		return false, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	log.Info("restored store from latest snapshot", "keys", s.Len())
	return true, nil
}

// Prune deletes all but the most recent keep snapshots, to bound journal
// growth across a long-running process.
func (j *Journal) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshot journal: %w", err)
	}
	return nil
}

// Close closes the underlying SQLite connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Ticker runs Save on a fixed interval until Stop is called, keeping the
// journal trimmed to the most recent keepLast snapshots after each save.
type Ticker struct {
	journal  *Journal
	store    *store.Store
	interval time.Duration
	keepLast int
	stop     chan struct{}
	done     chan struct{}
}

// NewTicker builds a maintenance-tick snapshotter.
func NewTicker(j *Journal, s *store.Store, interval time.Duration, keepLast int) *Ticker {
	return &Ticker{
		journal:  j,
		store:    s,
		interval: interval,
		keepLast: keepLast,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop in a new goroutine. It returns immediately.
func (t *Ticker) Start() {
	go t.run()
}

func (t *Ticker) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if err := t.journal.Save(t.store); err != nil {
				log.Error("periodic snapshot failed", "error", err)
				continue
			}
			if err := t.journal.Prune(t.keepLast); err != nil {
				log.Error("snapshot prune failed", "error", err)
			}
		}
	}
}

// Stop signals the tick loop to exit and blocks until it has.
func (t *Ticker) Stop() {
	close(t.stop)
	<-t.done
}
