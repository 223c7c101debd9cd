package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-index/internal/logging"
	"media-index/internal/metrics"
)

// Default timeout for single store operations.
const defaultTimeout = 5 * time.Second

// Database is the durable media index store. All writers serialize through
// mu; readers take the shared lock and never block each other.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   IndexStats
	statsMu sync.RWMutex
}

// New opens (creating if necessary) the index store at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Index store path: %s", dbPath)

	// WAL keeps readers off the writers' backs; busy_timeout papers over the
	// brief lock contention between the sync engine and lifecycle updates.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to index store: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize index store schema: %w", err)
	}

	logging.Info("Index store initialized at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id INTEGER NOT NULL DEFAULT -1,
		path TEXT NOT NULL UNIQUE,
		parent_path TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		mime_type TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		bitrate INTEGER NOT NULL DEFAULT -1,
		year INTEGER NOT NULL DEFAULT -1,
		description TEXT,
		date_added INTEGER NOT NULL DEFAULT 0,
		date_modified INTEGER NOT NULL DEFAULT 0,
		date_taken INTEGER NOT NULL DEFAULT 0,
		date_expires INTEGER NOT NULL DEFAULT 0,
		extras INTEGER NOT NULL DEFAULT 0,
		timeline INTEGER NOT NULL DEFAULT 0,
		resolution INTEGER NOT NULL DEFAULT 0,
		location INTEGER NOT NULL DEFAULT 0,
		seen INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_media_external_id ON media(external_id);
	CREATE INDEX IF NOT EXISTS idx_media_date_modified ON media(date_modified);
	CREATE INDEX IF NOT EXISTS idx_media_parent_path ON media(parent_path);
	CREATE INDEX IF NOT EXISTS idx_media_date_expires ON media(date_expires);
	CREATE INDEX IF NOT EXISTS idx_media_seen ON media(seen);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the store.
func (d *Database) Close() error {
	return d.db.Close()
}

// Batch is an open write transaction for bulk operations.
type Batch struct {
	tx    *sql.Tx
	start time.Time
}

// BeginBatch starts a transaction for batch writes. The caller must finish
// it with EndBatch.
func (d *Database) BeginBatch() (*Batch, error) {
	d.mu.Lock()
	start := time.Now()

	// Transaction lifetime is managed by EndBatch, not a timeout context.
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return &Batch{tx: tx, start: start}, nil
}

// EndBatch commits the batch, or rolls it back when err is non-nil.
func (d *Database) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return b.tx.Commit()
}

// Count returns the number of index rows.
func (d *Database) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&n)
	return n, err
}

// MaxDateModified returns the sync watermark: the greatest date_modified in
// the store, or 0 when the store is empty.
func (d *Database) MaxDateModified(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("max_date_modified", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var watermark int64
	err = d.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(date_modified), 0) FROM media").Scan(&watermark)
	return watermark, err
}

// Vacuum optimizes the backing file.
func (d *Database) Vacuum() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// UpdateStats replaces the cached statistics.
func (d *Database) UpdateStats(stats IndexStats) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats = stats
}

// GetStats returns the cached statistics.
func (d *Database) GetStats() IndexStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// UpdateDBMetrics refreshes connection gauges.
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// recordQuery records store query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
