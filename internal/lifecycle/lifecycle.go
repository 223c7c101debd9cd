package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"media-index/internal/database"
	"media-index/internal/logging"
	"media-index/internal/metrics"
	"media-index/internal/workers"
)

// DefaultRetention is how long a trashed record survives before the expiry
// sweep removes it.
const DefaultRetention = 30 * 24 * time.Hour

// Deleter removes the backing file of a permanently deleted record. The
// index row is already gone when Remove is called.
type Deleter interface {
	Remove(path string) error
}

// OSDeleter deletes backing files from the local filesystem.
type OSDeleter struct{}

func (OSDeleter) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Manager drives lifecycle flag transitions and the periodic expiry sweep.
type Manager struct {
	db        *database.Database
	deleter   Deleter
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once

	// now is swapped out by tests.
	now func() time.Time
}

// New creates a Manager. sweepInterval is the cadence of the background
// expiry sweep started by Start.
func New(db *database.Database, deleter Deleter, retention, sweepInterval time.Duration) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		db:        db,
		deleter:   deleter,
		retention: retention,
		interval:  sweepInterval,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Retention returns the configured trash retention window.
func (m *Manager) Retention() time.Duration {
	return m.retention
}

// Start launches the periodic sweep.
func (m *Manager) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := m.SweepExpired(context.Background(), m.now()); err != nil {
					logging.Error("expiry sweep failed: %v", err)
				}
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop halts the periodic sweep.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Manager) record(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LifecycleOpsTotal.WithLabelValues(operation, status).Inc()
}

// Trash moves records into the trash and stamps their expiry deadline.
// Archived/private flags are cleared; liked is untouched.
func (m *Manager) Trash(ctx context.Context, ids []int64) error {
	expiresAt := m.now().Add(m.retention).UnixMilli()
	n, err := m.db.MarkTrashed(ctx, ids, expiresAt)
	m.record("trash", err)
	if err != nil {
		return fmt.Errorf("trash %d records: %w", len(ids), err)
	}
	logging.Debug("Trashed %d records (expires %d)", n, expiresAt)
	return nil
}

// Restore returns trashed records to their previous visibility and clears
// the expiry deadline.
func (m *Manager) Restore(ctx context.Context, ids []int64) error {
	n, err := m.db.ClearTrashed(ctx, ids)
	m.record("restore", err)
	if err != nil {
		return fmt.Errorf("restore %d records: %w", len(ids), err)
	}
	logging.Debug("Restored %d records", n)
	return nil
}

// Archive moves records into the archive, clearing trashed/private.
func (m *Manager) Archive(ctx context.Context, ids []int64) error {
	_, err := m.db.MarkArchived(ctx, ids)
	m.record("archive", err)
	if err != nil {
		return fmt.Errorf("archive %d records: %w", len(ids), err)
	}
	return nil
}

// Unarchive returns archived records to the timeline.
func (m *Manager) Unarchive(ctx context.Context, ids []int64) error {
	_, err := m.db.ClearArchived(ctx, ids)
	m.record("unarchive", err)
	if err != nil {
		return fmt.Errorf("unarchive %d records: %w", len(ids), err)
	}
	return nil
}

// MarkPrivate hides records in the private view, clearing trashed/archived.
func (m *Manager) MarkPrivate(ctx context.Context, ids []int64) error {
	_, err := m.db.MarkPrivate(ctx, ids)
	m.record("mark_private", err)
	if err != nil {
		return fmt.Errorf("mark %d records private: %w", len(ids), err)
	}
	return nil
}

// UnmarkPrivate returns private records to the timeline.
func (m *Manager) UnmarkPrivate(ctx context.Context, ids []int64) error {
	_, err := m.db.ClearPrivate(ctx, ids)
	m.record("unmark_private", err)
	if err != nil {
		return fmt.Errorf("unmark %d records private: %w", len(ids), err)
	}
	return nil
}

// ToggleLiked flips the liked bit of one record; independent of all other
// lifecycle state.
func (m *Manager) ToggleLiked(ctx context.Context, id int64) error {
	err := m.db.ToggleLiked(ctx, id)
	m.record("toggle_liked", err)
	if err != nil {
		return fmt.Errorf("toggle liked on %d: %w", id, err)
	}
	return nil
}

// SweepExpired removes every trashed record whose deadline passed and
// deletes the backing files. Safe to run concurrently with itself: the
// store's delete re-evaluates the expiry predicate, so a record restored
// mid-sweep survives and an already-removed record is simply absent.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	metrics.SweepRunsTotal.Inc()

	paths, err := m.db.SweepExpired(ctx, now.UnixMilli())
	if err != nil {
		metrics.SweepErrors.Inc()
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	if len(paths) == 0 {
		return 0, nil
	}

	metrics.SweepExpiredTotal.Add(float64(len(paths)))
	logging.Info("Expiry sweep removed %d records", len(paths))

	m.removeBackingFiles(paths)
	return len(paths), nil
}

// removeBackingFiles fans file deletion out over an I/O-sized worker pool.
// Failures are logged, not propagated: the index row is authoritative and
// already gone.
func (m *Manager) removeBackingFiles(paths []string) {
	numWorkers := workers.ForIO(8)
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := m.deleter.Remove(path); err != nil {
					logging.Warn("Failed to remove backing file %s: %v", path, err)
				}
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
}
