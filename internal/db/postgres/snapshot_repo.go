package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/snapshots"
)

type postgresSnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new PostgreSQL snapshot log repository
func NewSnapshotRepository(db *sql.DB) snapshots.Repository {
	return &postgresSnapshotRepo{db: db}
}

// ListDirty returns active entries flagged for refresh with created_at at
// or before the given instant, oldest first. The time bound is what keeps
// a refresh run finite: entries appended during the run carry a later
// created_at and fall outside it.
func (r *postgresSnapshotRepo) ListDirty(ctx context.Context, before time.Time, limit int) ([]*snapshots.LogEntry, error) {
	query := `
		SELECT id, comment_id, post_id, parent_id,
			upvote_count, downvote_count, score,
			update_required, created_at, expires_at
		FROM comment_score_logs
		WHERE update_required = TRUE
			AND expires_at IS NULL
			AND created_at <= $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dirty snapshots: %w", err)
	}
	defer closeRows(rows)

	var entries []*snapshots.LogEntry
	for rows.Next() {
		var e snapshots.LogEntry
		err := rows.Scan(
			&e.ID, &e.CommentID, &e.PostID, &e.ParentID,
			&e.UpvoteCount, &e.DownvoteCount, &e.Score,
			&e.UpdateRequired, &e.CreatedAt, &e.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dirty snapshots: %w", err)
	}

	return entries, nil
}

// Refresh retires the entry and appends a fresh one carrying the comment's
// current counters, in one transaction. Retiring clears the dirty flag and
// stamps an expiry one grace period out, so in-flight pagination sessions
// anchored on the old snapshot keep resolving until the purge catches up.
// If the entry is no longer active (a concurrent run already retired it)
// the whole operation is a no-op.
func (r *postgresSnapshotRepo) Refresh(ctx context.Context, entry *snapshots.LogEntry, gracePeriod time.Duration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "snapshot refresh")

	result, err := tx.ExecContext(ctx, `
		UPDATE comment_score_logs
		SET update_required = FALSE,
			expires_at = NOW() + make_interval(secs => $1)
		WHERE id = $2 AND expires_at IS NULL
	`, gracePeriod.Seconds(), entry.ID)
	if err != nil {
		return fmt.Errorf("failed to retire snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check snapshot retirement: %w", err)
	}
	if affected == 0 {
		return nil
	}

	result, err = tx.ExecContext(ctx, `
		INSERT INTO comment_score_logs
			(id, comment_id, post_id, parent_id, upvote_count, downvote_count)
		SELECT $1, c.id, c.post_id, c.parent_id, c.upvote_count, c.downvote_count
		FROM comments c
		WHERE c.id = $2
	`, uuid.Must(uuid.NewV7()), entry.CommentID)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	appended, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check snapshot append: %w", err)
	}
	if appended == 0 {
		// Retiring without a successor would leave the comment with no
		// active entry; abort so the old entry stays active
		return fmt.Errorf("no comment row %s to snapshot", entry.CommentID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot refresh: %w", err)
	}

	return nil
}

// PurgeExpired removes retired entries whose grace period has elapsed
func (r *postgresSnapshotRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_score_logs
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired snapshots: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged snapshots: %w", err)
	}

	return purged, nil
}
