package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/adhvyk-ar/studio/internal/diag"
)

// Schema is the key-value table backing the adapter. One opaque string blob
// per key; the whole studio snapshot lives under a single key.
const Schema = `
CREATE TABLE IF NOT EXISTS keyval (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const dbFile = "studio.db"

// Adapter is the durable key-value storage tier for the studio. The primary
// medium is a sqlite database under the data directory, opened once per
// process; if the open fails, or an individual write fails, values are routed
// to a volatile in-process map and persistence degrades to session-only.
//
// By contract no operation surfaces an error to the caller: reads that fail
// report the value as absent, writes that fail land in the volatile tier.
// Degradations are logged and counted in diag so operators can see them.
type Adapter struct {
	dataDir string

	once    sync.Once
	db      *sql.DB
	openErr error

	mu     sync.RWMutex
	mem    map[string]string
	logger *diag.Logger
}

// NewAdapter creates an adapter rooted at dataDir. The database is opened
// lazily on first use.
func NewAdapter(dataDir string) *Adapter {
	return &Adapter{
		dataDir: dataDir,
		mem:     make(map[string]string),
		logger:  diag.NewLogger("storage"),
	}
}

// open memoizes the database handle so repeated opens are idempotent.
func (a *Adapter) open() (*sql.DB, error) {
	a.once.Do(func() {
		a.db, a.openErr = openDB(a.dataDir)
		if a.openErr != nil {
			a.logger.LogWarnf("open", "durable medium unavailable, using volatile fallback: %v", a.openErr)
			diag.RecordStorageDegradation()
		}
	})
	return a.db, a.openErr
}

func openDB(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open studio db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate studio db: %w", err)
	}

	return db, nil
}

// Get returns the value stored under key, or ok=false when it is absent.
// Read failures against the primary medium are treated as absent.
func (a *Adapter) Get(ctx context.Context, key string) (string, bool) {
	db, err := a.open()
	if err != nil {
		return a.memGet(key)
	}

	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM keyval WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		// A write may have been routed to the volatile tier earlier.
		return a.memGet(key)
	}
	if err != nil {
		a.logger.LogWarnf("get", "read failed for key=%s, treating as absent: %v", key, err)
		diag.RecordStorageDegradation()
		return a.memGet(key)
	}
	return value, true
}

// Set stores value under key. Write failures are routed to the volatile tier.
func (a *Adapter) Set(ctx context.Context, key, value string) {
	db, err := a.open()
	if err != nil {
		a.memSet(key, value)
		return
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO keyval (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		a.logger.LogWarnf("set", "write failed for key=%s, routing to volatile fallback: %v", key, err)
		diag.RecordStorageDegradation()
		a.memSet(key, value)
	}
}

// Delete removes the value stored under key, in whichever tier holds it.
func (a *Adapter) Delete(ctx context.Context, key string) {
	a.mu.Lock()
	delete(a.mem, key)
	a.mu.Unlock()

	db, err := a.open()
	if err != nil {
		return
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM keyval WHERE key = ?`, key); err != nil {
		a.logger.LogWarnf("delete", "delete failed for key=%s: %v", key, err)
		diag.RecordStorageDegradation()
	}
}

// Close closes the underlying database if it was opened.
func (a *Adapter) Close() error {
	if db, err := a.open(); err == nil {
		return db.Close()
	}
	return nil
}

// Degraded reports whether the primary medium failed to open and the adapter
// is serving everything from the volatile tier.
func (a *Adapter) Degraded() bool {
	_, err := a.open()
	return err != nil
}

func (a *Adapter) memGet(key string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.mem[key]
	return v, ok
}

func (a *Adapter) memSet(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mem[key] = value
}
