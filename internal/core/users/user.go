// Package users provides the user domain consumed by the comment and vote
// services for author hydration and principal lookups.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the auth middleware and write paths
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

var ErrUserNotFound = errors.New("user not found")

// User is the account entity. Only the fields the comment feed projects
// onto responses are modeled here.
type User struct {
	ID           uuid.UUID
	Username     string
	FirstName    string
	LastName     string
	ProfilePhoto *string
	Role         string
	CreatedAt    time.Time
}

// Repository defines data access for users
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByIDs batch-fetches users for author hydration.
	// Returns a map keyed by user id; missing ids are simply absent.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}
