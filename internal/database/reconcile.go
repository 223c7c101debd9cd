package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"media-index/internal/packed"
)

// SQLite bound-parameter budget per statement. Chunking keeps the
// mark-and-sweep safe for keep sets in the tens of thousands.
const idChunkSize = 500

const mediaColumns = `id, external_id, path, parent_path, name, kind, mime_type, size, bitrate, year,
	description, date_added, date_modified, date_taken, date_expires, extras, timeline, resolution, location`

// upsertQuery inserts a new row or refreshes the scalar metadata of the row
// already holding the canonical path. Flag bits (extras) and date_expires are
// owned by the lifecycle manager and never touched on conflict; packed media
// attributes are only overwritten when the incoming value is real, so a
// metadata refresh cannot clobber a previously probed resolution or a
// user-set flag.
const upsertQuery = `
INSERT INTO media (external_id, path, parent_path, name, kind, mime_type, size, bitrate, year,
	description, date_added, date_modified, date_taken, date_expires, extras, timeline, resolution, location, seen)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	external_id = excluded.external_id,
	parent_path = excluded.parent_path,
	name = excluded.name,
	kind = excluded.kind,
	mime_type = excluded.mime_type,
	size = excluded.size,
	bitrate = excluded.bitrate,
	year = excluded.year,
	description = excluded.description,
	date_added = excluded.date_added,
	date_modified = excluded.date_modified,
	date_taken = excluded.date_taken,
	seen = excluded.seen,
	timeline = CASE WHEN excluded.timeline != ? THEN excluded.timeline ELSE media.timeline END,
	resolution = CASE WHEN excluded.resolution != ? THEN excluded.resolution ELSE media.resolution END,
	location = CASE WHEN excluded.location != ? THEN excluded.location ELSE media.location END
`

func upsertArgs(rec *MediaRecord, generation int64) []interface{} {
	return []interface{}{
		rec.ExternalID,
		rec.Path,
		rec.ParentPath,
		rec.Name,
		rec.Kind,
		rec.MimeType,
		rec.SizeBytes,
		rec.Bitrate,
		rec.Year,
		rec.Description,
		rec.DateAdded,
		rec.DateModified,
		rec.DateTaken,
		rec.DateExpires,
		int64(rec.Extras.Raw()),
		int64(rec.Timeline.Raw()),
		int64(rec.Resolution.Raw()),
		int64(rec.Location.Raw()),
		generation,
		int64(packed.UnknownTimeline().Raw()),
		int64(packed.UnknownResolution().Raw()),
		int64(packed.UnknownGeoPoint().Raw()),
	}
}

// UpsertInBatch writes one record inside an open batch, stamping it with the
// batch's sync generation.
func (d *Database) UpsertInBatch(b *Batch, rec *MediaRecord, generation int64) error {
	_, err := b.tx.ExecContext(context.Background(), upsertQuery, upsertArgs(rec, generation)...)
	return err
}

// Upsert inserts or updates a single record and returns the surrogate id of
// the row holding its canonical path. Atomic per call.
func (d *Database) Upsert(ctx context.Context, rec *MediaRecord) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = d.db.ExecContext(ctx, upsertQuery, upsertArgs(rec, time.Now().UnixNano())...); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", rec.Path, err)
	}

	var id int64
	if err = d.db.QueryRowContext(ctx, "SELECT id FROM media WHERE path = ?", rec.Path).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve id for %s: %w", rec.Path, err)
	}
	return id, nil
}

// GetByExternalID returns the record carrying the enumerator's id, or nil
// when no such row exists.
func (d *Database) GetByExternalID(ctx context.Context, externalID int64) (*MediaRecord, error) {
	return d.getOne(ctx, "get_by_external_id", "external_id = ?", externalID)
}

// GetByPath returns the record at the canonical path, or nil.
func (d *Database) GetByPath(ctx context.Context, path string) (*MediaRecord, error) {
	return d.getOne(ctx, "get_by_path", "path = ?", path)
}

// GetByID returns the record with the surrogate id, or nil.
func (d *Database) GetByID(ctx context.Context, id int64) (*MediaRecord, error) {
	return d.getOne(ctx, "get_by_id", "id = ?", id)
}

func (d *Database) getOne(ctx context.Context, operation, where string, arg interface{}) (*MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(operation, start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE "+where, arg)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		err = nil
		return nil, nil
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*MediaRecord, error) {
	var rec MediaRecord
	var mimeType, description sql.NullString
	var extras, timeline, resolution, location int64

	err := row.Scan(
		&rec.ID, &rec.ExternalID, &rec.Path, &rec.ParentPath, &rec.Name, &rec.Kind,
		&mimeType, &rec.SizeBytes, &rec.Bitrate, &rec.Year, &description,
		&rec.DateAdded, &rec.DateModified, &rec.DateTaken, &rec.DateExpires,
		&extras, &timeline, &resolution, &location,
	)
	if err != nil {
		return nil, err
	}

	if mimeType.Valid {
		rec.MimeType = mimeType.String
	}
	if description.Valid {
		rec.Description = description.String
	}
	rec.Extras = packed.ExtrasFromRaw(uint32(extras))
	rec.Timeline = packed.TimelineFromRaw(uint64(timeline))
	rec.Resolution = packed.ResolutionFromRaw(uint64(resolution))
	rec.Location = packed.GeoPointFromRaw(uint64(location))

	return &rec, nil
}

// DeleteWhereExternalIDNotIn removes every enumerator-owned row whose
// external id is absent from keep. Cache-only rows (external_id = -1) are
// never reconciled away. Implemented as mark-and-sweep inside one
// transaction: chunked IN updates stamp the survivors, one DELETE removes
// the rest, so no statement ever exceeds the bound-parameter budget and a
// failure leaves the store untouched.
func (d *Database) DeleteWhereExternalIDNotIn(ctx context.Context, keep []int64) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_not_in", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	generation := time.Now().UnixNano()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reconcile delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for len(keep) > 0 {
		chunk := keep
		if len(chunk) > idChunkSize {
			chunk = chunk[:idChunkSize]
		}
		keep = keep[len(chunk):]

		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, generation)
		for _, id := range chunk {
			args = append(args, id)
		}

		query := "UPDATE media SET seen = ? WHERE external_id IN (" + placeholders(len(chunk)) + ")"
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("mark kept rows: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM media WHERE seen != ? AND external_id != ?", generation, NoExternalID)
	if err != nil {
		return 0, fmt.Errorf("sweep unmarked rows: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reconcile delete: %w", err)
	}

	return deleted, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
