package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/posts"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

func (r *postgresPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*posts.Post, error) {
	query := `
		SELECT id, blog_id, author_id, title, published, created_at
		FROM posts
		WHERE id = $1
	`

	var p posts.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.BlogID, &p.AuthorID, &p.Title, &p.Published, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &p, nil
}

func (r *postgresPostRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}

	return exists, nil
}
