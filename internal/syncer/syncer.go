package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-index/internal/database"
	"media-index/internal/logging"
	"media-index/internal/metrics"
	"media-index/internal/packed"
	"media-index/internal/source"
)

const (
	// Rows per write transaction.
	batchSize = 500

	// Delay between batches so readers get a turn.
	batchDelay = 10 * time.Millisecond
)

// Syncer brings the index store into agreement with an external enumerator.
// At most one pass runs at a time; a request arriving while one is in flight
// coalesces into it, since the running pass already observes the latest
// watermark.
type Syncer struct {
	db       *database.Database
	src      source.Enumerator
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once

	mu                  sync.Mutex
	isSyncing           bool
	lastSyncTime        time.Time
	initialSyncComplete bool
	initialSyncError    error
}

// New creates a Syncer. interval is the periodic full-pass cadence.
func New(db *database.Database, src source.Enumerator, interval time.Duration) *Syncer {
	return &Syncer{
		db:       db,
		src:      src,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the initial pass and the periodic schedule in the
// background.
func (s *Syncer) Start() {
	go func() {
		logging.Info("Starting initial sync in background...")
		if err := s.Sync(context.Background()); err != nil {
			logging.Error("Initial sync error: %v", err)
			s.mu.Lock()
			s.initialSyncError = err
			s.mu.Unlock()
		}
	}()

	go s.periodicSync()
}

// Stop halts the periodic schedule. Safe to call more than once.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Syncer) periodicSync() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic sync triggered")
			if err := s.Sync(context.Background()); err != nil {
				logging.Error("periodic sync failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// TriggerSync requests an asynchronous pass.
func (s *Syncer) TriggerSync() {
	go func() {
		if err := s.Sync(context.Background()); err != nil {
			logging.Error("triggered sync failed: %v", err)
		}
	}()
}

// Sync runs one reconciliation pass. Partial progress committed row-by-row
// survives an error or cancellation; the watermark derives from the data
// itself, so the next pass resumes idempotently.
func (s *Syncer) Sync(ctx context.Context) error {
	if !s.tryStartSync() {
		logging.Info("Sync already in progress, coalescing request")
		metrics.SyncCoalescedTotal.Inc()
		return nil
	}
	defer s.finishSync()

	metrics.SyncIsRunning.Set(1)
	defer metrics.SyncIsRunning.Set(0)
	metrics.SyncRunsTotal.Inc()

	passID := uuid.NewString()
	startTime := time.Now()

	watermark, err := s.db.MaxDateModified(ctx)
	if err != nil {
		metrics.SyncErrors.Inc()
		return fmt.Errorf("read watermark: %w", err)
	}

	logging.Info("Sync pass %s starting (watermark=%d)", passID, watermark)

	items, err := s.src.ListModifiedSince(ctx, watermark)
	if err != nil {
		metrics.SyncErrors.Inc()
		return fmt.Errorf("enumerate modified items: %w", err)
	}

	if err := s.upsertBatched(ctx, items); err != nil {
		metrics.SyncErrors.Inc()
		return err
	}
	metrics.SyncItemsUpserted.Add(float64(len(items)))

	removed, err := s.reconcileDeletions(ctx, len(items))
	if err != nil {
		metrics.SyncErrors.Inc()
		return err
	}
	metrics.SyncItemsRemoved.Add(float64(removed))

	s.finalizeSync(ctx, startTime)

	duration := time.Since(startTime)
	metrics.SyncLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.SyncLastRunDuration.Set(duration.Seconds())

	logging.Info("Sync pass %s complete: %d upserted, %d removed in %v",
		passID, len(items), removed, duration)
	return nil
}

// upsertBatched writes the delta set in enumeration order, committing every
// batchSize rows so cancellation keeps already-written rows.
func (s *Syncer) upsertBatched(ctx context.Context, items []source.Item) error {
	generation := time.Now().UnixNano()

	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-s.stopChan:
			return context.Canceled
		default:
		}

		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		batch, err := s.db.BeginBatch()
		if err != nil {
			return fmt.Errorf("begin sync batch: %w", err)
		}

		for i := start; i < end; i++ {
			rec := recordFromItem(&items[i])
			if err := s.db.UpsertInBatch(batch, rec, generation); err != nil {
				logging.Warn("Error upserting %s: %v", rec.Path, err)
			}
		}

		if err := s.db.EndBatch(batch, nil); err != nil {
			return fmt.Errorf("commit sync batch: %w", err)
		}

		if end < len(items) {
			time.Sleep(batchDelay)
		}
	}

	return nil
}

// reconcileDeletions removes rows whose items vanished from the enumerator.
// When the delta was empty and the row counts agree, the full exclusion
// delete is skipped.
func (s *Syncer) reconcileDeletions(ctx context.Context, deltaLen int) (int64, error) {
	ids, err := s.src.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("enumerate full listing: %w", err)
	}

	if deltaLen == 0 {
		count, err := s.db.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("count rows: %w", err)
		}
		if count == int64(len(ids)) {
			logging.Debug("Sync: no delta and no shrinkage, skipping exclusion delete")
			return 0, nil
		}
	}

	removed, err := s.db.DeleteWhereExternalIDNotIn(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("reconcile deletions: %w", err)
	}
	return removed, nil
}

// recordFromItem maps an enumerator item onto a fresh record. Packed groups
// start at their unknown sentinels; the store's upsert keeps any existing
// bits for a row that already exists.
func recordFromItem(item *source.Item) *database.MediaRecord {
	kind := database.KindVideo
	if item.IsImage {
		kind = database.KindImage
	}

	parent := filepath.Dir(item.Path)
	if parent == "." {
		parent = ""
	}

	return &database.MediaRecord{
		ExternalID:   item.ExternalID,
		Path:         item.Path,
		ParentPath:   parent,
		Name:         item.Name,
		Kind:         kind,
		MimeType:     item.MimeType,
		SizeBytes:    item.SizeBytes,
		Bitrate:      database.Absent,
		Year:         database.Absent,
		DateAdded:    item.DateAdded,
		DateModified: item.DateModified,
		DateTaken:    item.DateTaken,
		Extras:       packed.PackFlags(false, false, false, false, packed.OrientationUnspecified),
		Timeline:     packed.UnknownTimeline(),
		Resolution:   packed.UnknownResolution(),
		Location:     packed.UnknownGeoPoint(),
	}
}

func (s *Syncer) tryStartSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSyncing {
		return false
	}
	s.isSyncing = true
	return true
}

func (s *Syncer) finishSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isSyncing = false
	s.initialSyncComplete = true
}

func (s *Syncer) finalizeSync(ctx context.Context, startTime time.Time) {
	s.mu.Lock()
	s.lastSyncTime = time.Now()
	s.mu.Unlock()

	stats, err := s.db.CalculateStats(ctx)
	if err != nil {
		logging.Warn("Failed to calculate stats after sync: %v", err)
		return
	}
	stats.LastSynced = s.lastSyncTime
	stats.SyncDuration = time.Since(startTime).String()
	s.db.UpdateStats(stats)
}

// IsSyncing reports whether a pass is in flight.
func (s *Syncer) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSyncing
}

// LastSyncTime returns the completion time of the last pass.
func (s *Syncer) LastSyncTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSyncTime
}

// IsReady reports whether the initial pass has finished.
func (s *Syncer) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialSyncComplete
}

// InitialSyncError returns the error of the initial pass, if any.
func (s *Syncer) InitialSyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialSyncError
}
