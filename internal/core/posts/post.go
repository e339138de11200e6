// Package posts exposes the minimal post surface the comment subsystem
// depends on: existence checks and the owning-blog reference. Post CRUD
// itself lives outside this service.
package posts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPostNotFound = errors.New("post not found")

// Post is the parent entity comments hang off of
type Post struct {
	ID        uuid.UUID
	BlogID    uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Published bool
	CreatedAt time.Time
}

// Repository defines data access for posts
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)

	// Exists reports whether a post exists without loading it
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}
