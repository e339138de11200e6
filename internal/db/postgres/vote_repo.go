package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

type postgresVoteRepo struct {
	db *sql.DB
}

// NewVoteRepository creates a new PostgreSQL vote repository
func NewVoteRepository(db *sql.DB) votes.Repository {
	return &postgresVoteRepo{db: db}
}

const voteColumns = `
	v.id, v.post_id, v.comment_id, v.user_id, v.vote_value,
	v.created_at, v.updated_at`

func scanVote(row interface{ Scan(...any) error }) (*votes.Vote, error) {
	var v votes.Vote
	err := row.Scan(
		&v.ID, &v.PostID, &v.CommentID, &v.UserID, &v.VoteValue,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByUserAndComment retrieves a user's vote on a specific comment
func (r *postgresVoteRepo) GetByUserAndComment(ctx context.Context, userID, commentID uuid.UUID) (*votes.Vote, error) {
	query := `SELECT` + voteColumns + `
		FROM comment_votes v
		WHERE v.user_id = $1 AND v.comment_id = $2
	`

	vote, err := scanVote(r.db.QueryRowContext(ctx, query, userID, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, votes.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}

// ApplyVote runs the full tally as one serializable transaction:
// read-or-create the vote record, write the new value, recompute the
// comment's counters from exact counts, and mark the comment's active
// snapshot log entry dirty. Serializable isolation means two concurrent
// votes on the same comment cannot lose an update; the loser's
// transaction aborts and the error surfaces to the caller.
func (r *postgresVoteRepo) ApplyVote(ctx context.Context, userID, postID, commentID uuid.UUID, value int) (*votes.Vote, votes.Counts, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "apply vote")

	if err := commentExists(ctx, tx, postID, commentID); err != nil {
		return nil, votes.Counts{}, err
	}

	// Read-or-create the vote, capturing the old value (0 if none existed)
	oldValue := votes.Neutral
	var voteID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT id, vote_value FROM comment_votes WHERE user_id = $1 AND comment_id = $2`,
		userID, commentID,
	).Scan(&voteID, &oldValue)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, votes.Counts{}, fmt.Errorf("failed to read existing vote: %w", err)
	}

	var vote *votes.Vote
	if voteID != uuid.Nil {
		vote, err = scanVote(tx.QueryRowContext(ctx, `
			UPDATE comment_votes v
			SET vote_value = $1, updated_at = NOW()
			WHERE v.id = $2
			RETURNING`+voteColumns+`
		`, value, voteID))
	} else {
		vote, err = scanVote(tx.QueryRowContext(ctx, `
			INSERT INTO comment_votes AS v (id, post_id, comment_id, user_id, vote_value)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING`+voteColumns+`
		`, uuid.Must(uuid.NewV7()), postID, commentID, userID, value))
	}
	if err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to write vote: %w", err)
	}

	counts, err := retally(ctx, tx, commentID, oldValue, value)
	if err != nil {
		return nil, votes.Counts{}, err
	}

	if err := markSnapshotDirty(ctx, tx, commentID); err != nil {
		return nil, votes.Counts{}, err
	}

	if err := tx.Commit(); err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to commit vote: %w", err)
	}

	return vote, counts, nil
}

// RemoveVote deletes the user's vote and retallies the comment in one
// serializable transaction. Returns ErrVoteNotFound if no vote exists,
// without touching the counters.
func (r *postgresVoteRepo) RemoveVote(ctx context.Context, userID, postID, commentID uuid.UUID) (*votes.Vote, votes.Counts, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "remove vote")

	if err := commentExists(ctx, tx, postID, commentID); err != nil {
		return nil, votes.Counts{}, err
	}

	deleted, err := scanVote(tx.QueryRowContext(ctx, `
		DELETE FROM comment_votes v
		WHERE v.user_id = $1 AND v.comment_id = $2 AND v.post_id = $3
		RETURNING`+voteColumns+`
	`, userID, commentID, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, votes.Counts{}, votes.ErrVoteNotFound
	}
	if err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to delete vote: %w", err)
	}

	counts, err := retally(ctx, tx, commentID, deleted.VoteValue, votes.Neutral)
	if err != nil {
		return nil, votes.Counts{}, err
	}

	if err := markSnapshotDirty(ctx, tx, commentID); err != nil {
		return nil, votes.Counts{}, err
	}

	if err := tx.Commit(); err != nil {
		return nil, votes.Counts{}, fmt.Errorf("failed to commit vote removal: %w", err)
	}

	return deleted, counts, nil
}

// GetCounts reads a comment's current aggregate counters
func (r *postgresVoteRepo) GetCounts(ctx context.Context, postID, commentID uuid.UUID) (votes.Counts, error) {
	var counts votes.Counts
	err := r.db.QueryRowContext(ctx,
		`SELECT upvote_count, downvote_count FROM comments WHERE id = $1 AND post_id = $2`,
		commentID, postID,
	).Scan(&counts.Upvotes, &counts.Downvotes)
	if errors.Is(err, sql.ErrNoRows) {
		return votes.Counts{}, votes.ErrCommentNotFound
	}
	if err != nil {
		return votes.Counts{}, fmt.Errorf("failed to read vote counts: %w", err)
	}

	return counts, nil
}

// GetUserVotes batch-fetches the user's votes on a page of comments.
// Implements the pagination engine's VoteStateSource.
func (r *postgresVoteRepo) GetUserVotes(ctx context.Context, userID, postID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	result := make(map[uuid.UUID]int)
	if len(commentIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT comment_id, vote_value
		FROM comment_votes
		WHERE user_id = $1 AND post_id = $2 AND comment_id = ANY($3::uuid[])
	`
	rows, err := r.db.QueryContext(ctx, query, userID, postID, pq.Array(uuidStrings(commentIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get user votes: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var commentID uuid.UUID
		var value int
		if err := rows.Scan(&commentID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user vote: %w", err)
		}
		result[commentID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user votes: %w", err)
	}

	return result, nil
}

func commentExists(ctx context.Context, tx *sql.Tx, postID, commentID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM comments WHERE id = $1 AND post_id = $2`,
		commentID, postID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return votes.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check comment: %w", err)
	}
	return nil
}

// retally recomputes the comment's counters after a vote transition.
// The signed sum of old and new value decides the cheap path: ±1 means
// only that side's counter moved and gets one exact recount; 0 is an
// ambiguous transition (a flip) and both counters are recomputed in a
// single aggregation.
func retally(ctx context.Context, tx *sql.Tx, commentID uuid.UUID, oldValue, newValue int) (votes.Counts, error) {
	refreshUp, refreshDown := votes.CountsToRefresh(oldValue, newValue)

	var counts votes.Counts
	var err error
	switch {
	case refreshUp && refreshDown:
		err = tx.QueryRowContext(ctx, `
			UPDATE comments SET
				upvote_count = sub.ups,
				downvote_count = sub.downs
			FROM (
				SELECT
					COUNT(*) FILTER (WHERE vote_value = 1) AS ups,
					COUNT(*) FILTER (WHERE vote_value = -1) AS downs
				FROM comment_votes WHERE comment_id = $1
			) sub
			WHERE comments.id = $1
			RETURNING comments.upvote_count, comments.downvote_count
		`, commentID).Scan(&counts.Upvotes, &counts.Downvotes)

	case refreshUp:
		err = tx.QueryRowContext(ctx, `
			UPDATE comments SET upvote_count = (
				SELECT COUNT(*) FROM comment_votes WHERE comment_id = $1 AND vote_value = 1
			)
			WHERE id = $1
			RETURNING upvote_count, downvote_count
		`, commentID).Scan(&counts.Upvotes, &counts.Downvotes)

	default:
		err = tx.QueryRowContext(ctx, `
			UPDATE comments SET downvote_count = (
				SELECT COUNT(*) FROM comment_votes WHERE comment_id = $1 AND vote_value = -1
			)
			WHERE id = $1
			RETURNING upvote_count, downvote_count
		`, commentID).Scan(&counts.Upvotes, &counts.Downvotes)
	}
	if err != nil {
		return votes.Counts{}, fmt.Errorf("failed to retally comment counters: %w", err)
	}

	return counts, nil
}

// markSnapshotDirty flags the comment's active snapshot log entry for the
// refresh scheduler. Exactly one active entry must exist; zero rows means
// the seed invariant was broken and the transaction must abort.
func markSnapshotDirty(ctx context.Context, tx *sql.Tx, commentID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE comment_score_logs
		SET update_required = TRUE
		WHERE comment_id = $1 AND expires_at IS NULL
	`, commentID)
	if err != nil {
		return fmt.Errorf("failed to mark snapshot dirty: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check snapshot update: %w", err)
	}
	if affected == 0 {
		return votes.ErrNoActiveSnapshot
	}

	return nil
}

func rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("Failed to rollback %s: %v", op, err)
	}
}
