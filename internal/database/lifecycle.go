package database

import (
	"context"
	"fmt"
	"time"

	"media-index/internal/metrics"
	"media-index/internal/packed"
)

// expiresKeep tells updateFlags to leave date_expires alone.
const expiresKeep int64 = -1

// updateFlags applies one atomic flag transition to a set of rows:
// extras = (extras & ~clear) | set, optionally rewriting date_expires.
// Chunked so id lists of any size stay under the parameter budget; all
// chunks commit in one transaction so a failure leaves every row in its
// prior state.
func (d *Database) updateFlags(ctx context.Context, operation string, ids []int64, clear, set uint32, expires int64) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(operation, start, err) }()

	if len(ids) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", operation, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	assignment := "extras = (extras & ~?) | ?"
	if expires != expiresKeep {
		assignment += ", date_expires = ?"
	}

	var updated int64
	for len(ids) > 0 {
		chunk := ids
		if len(chunk) > idChunkSize {
			chunk = chunk[:idChunkSize]
		}
		ids = ids[len(chunk):]

		args := []interface{}{int64(clear), int64(set)}
		if expires != expiresKeep {
			args = append(args, expires)
		}
		for _, id := range chunk {
			args = append(args, id)
		}

		query := "UPDATE media SET " + assignment + " WHERE id IN (" + placeholders(len(chunk)) + ")"
		result, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			err = fmt.Errorf("%s: %w", operation, execErr)
			return 0, err
		}
		if n, raErr := result.RowsAffected(); raErr == nil {
			updated += n
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", operation, err)
	}

	return updated, nil
}

// MarkTrashed moves rows into the trash, clearing the other lifecycle flags
// and stamping the expiry deadline.
func (d *Database) MarkTrashed(ctx context.Context, ids []int64, expiresAt int64) (int64, error) {
	return d.updateFlags(ctx, "mark_trashed", ids, packed.FlagLifecycle, packed.FlagTrashed, expiresAt)
}

// ClearTrashed restores rows from the trash and clears the expiry deadline.
func (d *Database) ClearTrashed(ctx context.Context, ids []int64) (int64, error) {
	return d.updateFlags(ctx, "clear_trashed", ids, packed.FlagTrashed, 0, 0)
}

// MarkArchived moves rows into the archive. A trashed row loses its trashed
// state and pending expiry.
func (d *Database) MarkArchived(ctx context.Context, ids []int64) (int64, error) {
	return d.updateFlags(ctx, "mark_archived", ids, packed.FlagLifecycle, packed.FlagArchived, 0)
}

// ClearArchived returns archived rows to the default view.
func (d *Database) ClearArchived(ctx context.Context, ids []int64) (int64, error) {
	return d.updateFlags(ctx, "clear_archived", ids, packed.FlagArchived, 0, expiresKeep)
}

// MarkPrivate hides rows in the private view, clearing the other lifecycle
// flags.
func (d *Database) MarkPrivate(ctx context.Context, ids []int64) (int64, error) {
	return d.updateFlags(ctx, "mark_private", ids, packed.FlagLifecycle, packed.FlagPrivate, 0)
}

// ClearPrivate returns private rows to the default view.
func (d *Database) ClearPrivate(ctx context.Context, ids []int64) (int64, error) {
	return d.updateFlags(ctx, "clear_private", ids, packed.FlagPrivate, 0, expiresKeep)
}

// ToggleLiked flips the liked bit of one row, leaving every other bit alone.
// (a | b) - (a & b) is bitwise XOR, which SQLite lacks as an operator.
func (d *Database) ToggleLiked(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("toggle_liked", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE media SET extras = (extras | ?1) - (extras & ?1) WHERE id = ?2",
		int64(packed.FlagLiked), id)
	return err
}

// SweepExpired permanently removes every trashed row whose expiry deadline
// has passed, returning the canonical paths of the removed rows so the
// caller can delete the backing files. The DELETE re-evaluates the full
// predicate rather than consuming the previously selected id list, so a row
// restored between the read and the delete survives.
func (d *Database) SweepExpired(ctx context.Context, now int64) ([]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("sweep_expired", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sweep: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const predicate = "extras & ? != 0 AND date_expires > 0 AND date_expires <= ?"

	rows, err := tx.QueryContext(ctx,
		"SELECT path FROM media WHERE "+predicate, int64(packed.FlagTrashed), now)
	if err != nil {
		return nil, fmt.Errorf("sweep: select expired: %w", err)
	}

	var paths []string
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sweep: scan: %w", err)
		}
		paths = append(paths, p)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sweep: rows: %w", err)
	}
	rows.Close()

	result, err := tx.ExecContext(ctx,
		"DELETE FROM media WHERE "+predicate, int64(packed.FlagTrashed), now)
	if err != nil {
		return nil, fmt.Errorf("sweep: delete: %w", err)
	}
	if n, raErr := result.RowsAffected(); raErr == nil && n > 0 {
		metrics.DBRowsAffected.WithLabelValues("sweep_expired").Observe(float64(n))
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sweep: commit: %w", err)
	}

	return paths, nil
}
