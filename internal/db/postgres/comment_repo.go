package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/SushiIsYummy/blog-api/internal/core/comments"
)

type postgresCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &postgresCommentRepo{db: db}
}

const commentColumns = `
	c.id, c.post_id, c.parent_id, c.author_id, c.content,
	c.upvote_count, c.downvote_count, c.reply_count,
	c.created_at, c.edited_at`

func scanComment(row interface{ Scan(...any) error }) (*comments.Comment, error) {
	var c comments.Comment
	err := row.Scan(
		&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content,
		&c.UpvoteCount, &c.DownvoteCount, &c.ReplyCount,
		&c.CreatedAt, &c.EditedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the comment, seeds its first score snapshot log entry, and
// recomputes the parent's reply count, all in one transaction. The seed
// entry is what makes the comment visible to ranked pagination; without it
// the comment would never appear in the "top" feed.
func (r *postgresCommentRepo) Create(ctx context.Context, comment *comments.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx, "comment create")

	insertComment := `
		INSERT INTO comments (id, post_id, parent_id, author_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, insertComment,
		comment.ID, comment.PostID, comment.ParentID, comment.AuthorID, comment.Content,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	seedLog := `
		INSERT INTO comment_score_logs (id, comment_id, post_id, parent_id, upvote_count, downvote_count)
		VALUES ($1, $2, $3, $4, 0, 0)
	`
	if _, err := tx.ExecContext(ctx, seedLog,
		uuid.Must(uuid.NewV7()), comment.ID, comment.PostID, comment.ParentID,
	); err != nil {
		return fmt.Errorf("failed to seed snapshot log entry: %w", err)
	}

	if comment.ParentID != nil {
		recount := `
			UPDATE comments
			SET reply_count = (SELECT COUNT(*) FROM comments WHERE parent_id = $1)
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, recount, *comment.ParentID); err != nil {
			return fmt.Errorf("failed to update parent reply count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comment create: %w", err)
	}

	return nil
}

// GetByID retrieves a comment scoped to its post
func (r *postgresCommentRepo) GetByID(ctx context.Context, postID, commentID uuid.UUID) (*comments.Comment, error) {
	query := `SELECT` + commentColumns + `
		FROM comments c
		WHERE c.id = $1 AND c.post_id = $2
	`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, commentID, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comments.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// UpdateContent replaces the comment's content and stamps edited_at
func (r *postgresCommentRepo) UpdateContent(ctx context.Context, commentID uuid.UUID, content string) (*comments.Comment, error) {
	query := `
		UPDATE comments c
		SET content = $1, edited_at = NOW()
		WHERE c.id = $2
		RETURNING` + commentColumns + `
	`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, content, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, comments.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update comment content: %w", err)
	}

	return comment, nil
}

// ListNewest returns top-level comments ordered (created_at DESC, id DESC).
// The ceiling bounds created_at; cursor continuation additionally requires
// id < last id. UUIDv7 ids make the id comparison a creation-order
// comparison, so the pair never skips or duplicates across pages.
func (r *postgresCommentRepo) ListNewest(ctx context.Context, q comments.NewestQuery) ([]*comments.Comment, error) {
	query := `SELECT` + commentColumns + `
		FROM comments c
		WHERE c.post_id = $1
		  AND c.parent_id IS NULL
		  AND c.created_at <= $2
		  AND NOT (c.id = ANY($3::uuid[]))
	`
	args := []any{q.PostID, q.Ceiling, pq.Array(uuidStrings(q.ExcludedIDs))}

	if q.Cursor != nil {
		query += ` AND c.id < $4`
		args = append(args, q.Cursor.LastID)
	}

	query += fmt.Sprintf(` ORDER BY c.created_at DESC, c.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit)

	return r.queryComments(ctx, query, args...)
}

// ListTopBySnapshot returns top-level comments ranked by snapshot score.
//
// The inner DISTINCT ON keeps, per comment, only the most recent snapshot
// log entry created at or before the ceiling. Superseded entries are never
// candidates, which is what prevents a comment from reappearing under an
// older score after its snapshot was refreshed mid-traversal. Comments
// created after the ceiling have no in-window entry and are excluded
// entirely.
func (r *postgresCommentRepo) ListTopBySnapshot(ctx context.Context, q comments.TopQuery) ([]*comments.RankedComment, error) {
	query := `
		SELECT` + commentColumns + `, latest.score
		FROM (
			SELECT DISTINCT ON (l.comment_id) l.comment_id, l.score
			FROM comment_score_logs l
			WHERE l.post_id = $1
			  AND l.parent_id IS NULL
			  AND l.created_at <= $2
			  AND NOT (l.comment_id = ANY($3::uuid[]))
			ORDER BY l.comment_id, l.created_at DESC
		) latest
		JOIN comments c ON c.id = latest.comment_id
	`
	args := []any{q.PostID, q.Ceiling, pq.Array(uuidStrings(q.ExcludedIDs))}

	if q.Cursor != nil {
		// Strict descending tie-broken continuation: same score with a
		// smaller id, or a strictly smaller score
		query += ` WHERE ((latest.score = $4 AND latest.comment_id < $5) OR latest.score < $4)`
		args = append(args, q.Cursor.LastScore, q.Cursor.LastID)
	}

	query += fmt.Sprintf(` ORDER BY latest.score DESC, latest.comment_id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list top comments: %w", err)
	}
	defer closeRows(rows)

	var result []*comments.RankedComment
	for rows.Next() {
		var c comments.Comment
		var logScore int
		err := rows.Scan(
			&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content,
			&c.UpvoteCount, &c.DownvoteCount, &c.ReplyCount,
			&c.CreatedAt, &c.EditedAt,
			&logScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked comment: %w", err)
		}
		result = append(result, &comments.RankedComment{Comment: &c, LogScore: logScore})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranked comments: %w", err)
	}

	return result, nil
}

// ListReplies returns direct replies ordered (created_at ASC, id DESC)
func (r *postgresCommentRepo) ListReplies(ctx context.Context, q comments.RepliesQuery) ([]*comments.Comment, error) {
	query := `SELECT` + commentColumns + `
		FROM comments c
		WHERE c.post_id = $1
		  AND c.parent_id = $2
		  AND c.created_at <= $3
	`
	args := []any{q.PostID, q.ParentID, q.Ceiling}

	if q.Cursor != nil {
		query += ` AND (c.created_at > $4 OR (c.created_at = $4 AND c.id < $5))`
		args = append(args, q.Cursor.LastCreatedAt, q.Cursor.LastID)
	}

	query += fmt.Sprintf(` ORDER BY c.created_at ASC, c.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit)

	return r.queryComments(ctx, query, args...)
}

func (r *postgresCommentRepo) queryComments(ctx context.Context, query string, args ...any) ([]*comments.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer closeRows(rows)

	var result []*comments.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return result, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("Failed to close rows: %v", err)
	}
}
