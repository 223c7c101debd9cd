package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"media-index/internal/database"
	"media-index/internal/metrics"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Cursor threads the grouping state between page fetches: where the next
// page starts, and the day bucket and intra-group ordinal of the previous
// page's last row. The zero Cursor starts a fresh listing.
type Cursor struct {
	Offset  int
	Bucket  string
	Ordinal int
}

// Encode serializes the cursor for round-tripping through a caller.
func (c Cursor) Encode() string {
	return fmt.Sprintf("%d|%s|%d", c.Offset, c.Bucket, c.Ordinal)
}

// DecodeCursor parses a cursor previously produced by Encode. An empty
// string is the start-of-listing cursor.
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}

	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("malformed cursor %q", s)
	}

	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return Cursor{}, fmt.Errorf("malformed cursor offset %q", parts[0])
	}
	ordinal, err := strconv.Atoi(parts[2])
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor ordinal %q", parts[2])
	}

	return Cursor{Offset: offset, Bucket: parts[1], Ordinal: ordinal}, nil
}

// Page is one window of a view's projection.
type Page struct {
	View database.View
	Rows []database.SnapshotRow
	// Next is nil when the listing is exhausted.
	Next *Cursor
}

// Engine computes snapshot pages over the index store.
type Engine struct {
	db *database.Database
}

// New creates a snapshot engine.
func New(db *database.Database) *Engine {
	return &Engine{db: db}
}

// Page fetches one page of the view and applies group headers. folder is
// only consulted for the folder view.
func (e *Engine) Page(ctx context.Context, view database.View, folder string, pageSize int, cursor Cursor) (*Page, error) {
	start := time.Now()
	defer func() {
		metrics.SnapshotPagesTotal.WithLabelValues(string(view)).Inc()
		metrics.SnapshotPageDuration.WithLabelValues(string(view)).Observe(time.Since(start).Seconds())
	}()

	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	rows, err := e.db.SnapshotPage(ctx, view, folder, pageSize, cursor.Offset)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page: %w", view, err)
	}

	next := applyGrouping(rows, &cursor)

	page := &Page{View: view, Rows: rows}
	if len(rows) == pageSize {
		page.Next = &next
	}
	return page, nil
}

// applyGrouping assigns headers and intra-group ordinals in one pass. A row
// is a group head exactly when its day bucket differs from the previous
// row's bucket in output order; the cursor supplies that previous bucket
// across the page boundary, so no bucket ever gets a duplicate or missing
// header. Returns the cursor for the following page.
func applyGrouping(rows []database.SnapshotRow, cursor *Cursor) Cursor {
	prevBucket := cursor.Bucket
	ordinal := cursor.Ordinal

	for i := range rows {
		bucket := dayBucket(rows[i].DateModified)
		if bucket != prevBucket {
			rows[i].Header = headerLabel(rows[i].DateModified)
			ordinal = 0
		} else {
			ordinal++
		}
		rows[i].Order = ordinal
		prevBucket = bucket
	}

	return Cursor{
		Offset:  cursor.Offset + len(rows),
		Bucket:  prevBucket,
		Ordinal: ordinal,
	}
}

// dayBucket reduces a timestamp to its local calendar day.
func dayBucket(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02")
}

// headerLabel is the human-facing form of a day bucket.
func headerLabel(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2 January 2006")
}

// Count returns the total size of the view's projection.
func (e *Engine) Count(ctx context.Context, view database.View, folder string) (int, error) {
	return e.db.CountView(ctx, view, folder)
}

// Folders returns the aggregated per-folder summaries for the folder view's
// top level.
func (e *Engine) Folders(ctx context.Context) ([]database.FolderSummary, error) {
	return e.db.FolderSummaries(ctx)
}
