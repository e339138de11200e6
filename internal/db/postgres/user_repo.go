package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/SushiIsYummy/blog-api/internal/core/users"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.Repository {
	return &postgresUserRepo{db: db}
}

const userColumns = `id, username, first_name, last_name, profile_photo, role, created_at`

func (r *postgresUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u users.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.ProfilePhoto, &u.Role, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// GetByIDs batch-fetches users for a page's worth of comment authors.
// Missing ids are absent from the map rather than an error.
func (r *postgresUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error) {
	result := make(map[uuid.UUID]*users.User)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get users: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var u users.User
		err := rows.Scan(
			&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.ProfilePhoto, &u.Role, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return result, nil
}
