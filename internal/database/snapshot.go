package database

import (
	"context"
	"fmt"
	"time"

	"media-index/internal/packed"
)

// View selects which lifecycle slice of the index a snapshot query covers.
type View string

const (
	ViewTimeline  View = "timeline"
	ViewFavorites View = "favorites"
	ViewArchive   View = "archive"
	ViewPrivate   View = "private"
	ViewTrash     View = "trash"
	ViewFolder    View = "folder"
)

// ParseView validates a view name from an untrusted caller.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewTimeline, ViewFavorites, ViewArchive, ViewPrivate, ViewTrash, ViewFolder:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// viewPredicate builds the WHERE clause for a view. Flag masks are bound as
// parameters so the SQL never hard-codes bit meanings the codec owns.
func viewPredicate(view View, folder string) (string, []interface{}, error) {
	switch view {
	case ViewTimeline:
		return "extras & ? = 0", []interface{}{int64(packed.FlagLifecycle)}, nil
	case ViewFavorites:
		// Liked survives archive and private, but never trash.
		return "extras & ? != 0 AND extras & ? = 0",
			[]interface{}{int64(packed.FlagLiked), int64(packed.FlagTrashed)}, nil
	case ViewArchive:
		return "extras & ? != 0", []interface{}{int64(packed.FlagArchived)}, nil
	case ViewPrivate:
		return "extras & ? != 0", []interface{}{int64(packed.FlagPrivate)}, nil
	case ViewTrash:
		return "extras & ? != 0", []interface{}{int64(packed.FlagTrashed)}, nil
	case ViewFolder:
		return "parent_path = ? AND extras & ? = 0",
			[]interface{}{folder, int64(packed.FlagLifecycle)}, nil
	}
	return "", nil, fmt.Errorf("unknown view %q", view)
}

// SnapshotPage returns one window of the view's projection, ordered by
// date_modified descending (id descending breaks timestamp ties so paging is
// deterministic). Group headers and ordinals are computed by the snapshot
// engine on top of this.
func (d *Database) SnapshotPage(ctx context.Context, view View, folder string, limit, offset int) ([]SnapshotRow, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("snapshot_page", start, err) }()

	where, args, err := viewPredicate(view, folder)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT id, path, kind, date_modified, extras, timeline, resolution
		FROM media
		WHERE ` + where + `
		ORDER BY date_modified DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot page query failed: %w", err)
	}
	defer rows.Close()

	var page []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		var kind Kind
		var extras, timeline, resolution int64

		if err = rows.Scan(&row.ID, &row.ThumbnailRef, &kind, &row.DateModified,
			&extras, &timeline, &resolution); err != nil {
			return nil, fmt.Errorf("snapshot page scan failed: %w", err)
		}

		row.Order = -1
		row.IsImage = kind == KindImage
		row.Extras = packed.ExtrasFromRaw(uint32(extras))
		row.Timeline = packed.TimelineFromRaw(uint64(timeline))
		row.Resolution = packed.ResolutionFromRaw(uint64(resolution))

		page = append(page, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot page rows error: %w", err)
	}

	return page, nil
}

// CountView returns the number of rows a view's full projection holds.
func (d *Database) CountView(ctx context.Context, view View, folder string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_view", start, err) }()

	where, args, err := viewPredicate(view, folder)
	if err != nil {
		return 0, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media WHERE "+where, args...).Scan(&n)
	return n, err
}

// FolderSummaries aggregates the timeline-visible rows per parent path,
// newest folder first. The cover is the most recently modified item.
func (d *Database) FolderSummaries(ctx context.Context) ([]FolderSummary, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folder_summaries", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT parent_path, COUNT(*), MAX(date_modified),
			(SELECT m2.path FROM media m2
			 WHERE m2.parent_path = media.parent_path AND m2.extras & ?1 = 0
			 ORDER BY m2.date_modified DESC, m2.id DESC LIMIT 1)
		FROM media
		WHERE extras & ?1 = 0
		GROUP BY parent_path
		ORDER BY MAX(date_modified) DESC`

	rows, err := d.db.QueryContext(ctx, query, int64(packed.FlagLifecycle))
	if err != nil {
		return nil, fmt.Errorf("folder summaries query failed: %w", err)
	}
	defer rows.Close()

	var summaries []FolderSummary
	for rows.Next() {
		var s FolderSummary
		if err = rows.Scan(&s.Path, &s.ItemCount, &s.LatestMedia, &s.CoverRef); err != nil {
			return nil, fmt.Errorf("folder summaries scan failed: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// CalculateStats computes current index statistics.
func (d *Database) CalculateStats(ctx context.Context) (IndexStats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats IndexStats

	queries := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{"SELECT COUNT(*) FROM media", nil, &stats.TotalItems},
		{"SELECT COUNT(*) FROM media WHERE kind = ?", []interface{}{KindImage}, &stats.TotalImages},
		{"SELECT COUNT(*) FROM media WHERE kind = ?", []interface{}{KindVideo}, &stats.TotalVideos},
		{"SELECT COUNT(*) FROM media WHERE extras & ? != 0", []interface{}{int64(packed.FlagLiked)}, &stats.TotalLiked},
		{"SELECT COUNT(*) FROM media WHERE extras & ? != 0", []interface{}{int64(packed.FlagTrashed)}, &stats.TotalTrashed},
		{"SELECT COUNT(*) FROM media WHERE extras & ? != 0", []interface{}{int64(packed.FlagArchived)}, &stats.TotalArchived},
		{"SELECT COUNT(*) FROM media WHERE extras & ? != 0", []interface{}{int64(packed.FlagPrivate)}, &stats.TotalPrivate},
	}

	for _, q := range queries {
		if err := d.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
