// Package snapshots owns the score snapshot log: append-only records of a
// comment's score consulted by ranked pagination in place of the live,
// mutable counters. Entries are seeded at comment creation, flagged dirty
// by the vote tally path, and refreshed/retired by the scheduler here.
package snapshots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Defaults matching the reference deployment
const (
	// DefaultRefreshInterval is how often dirty entries are rematerialized
	DefaultRefreshInterval = 4 * time.Hour

	// DefaultGracePeriod is how long a superseded snapshot stays queryable.
	// It must exceed the longest plausible pagination session: a client
	// whose scroll outlives it may miss comments whose only in-ceiling
	// snapshot has been purged.
	DefaultGracePeriod = 24 * time.Hour

	// DefaultBatchSize bounds how many dirty entries one loop iteration loads
	DefaultBatchSize = 500
)

var (
	// ErrRunInProgress indicates a refresh run was skipped because the
	// previous one hasn't finished. Overlapping runs could double-append
	// snapshots for the same comment.
	ErrRunInProgress = errors.New("snapshot refresh run already in progress")
)

// LogEntry is one record in the score snapshot log. Exactly one active
// entry (ExpiresAt nil) exists per comment at any instant; the rest are
// historical and purged after their expiry passes. Score changes never
// update an entry in place; only UpdateRequired and ExpiresAt are mutated
// administratively.
type LogEntry struct {
	ID             uuid.UUID
	CommentID      uuid.UUID
	PostID         uuid.UUID
	ParentID       *uuid.UUID
	UpvoteCount    int
	DownvoteCount  int
	Score          int
	UpdateRequired bool
	CreatedAt      time.Time
	ExpiresAt      *time.Time
}

// Repository defines the data access interface for the snapshot log
type Repository interface {
	// ListDirty returns active entries flagged update_required whose
	// created_at is at or before the given instant, oldest first
	ListDirty(ctx context.Context, before time.Time, limit int) ([]*LogEntry, error)

	// Refresh retires the entry (clears the dirty flag, schedules expiry
	// after the grace period) and appends a fresh active entry carrying the
	// comment's current counters, atomically. Refreshing an entry that is
	// no longer active is a no-op.
	Refresh(ctx context.Context, entry *LogEntry, gracePeriod time.Duration) error

	// PurgeExpired deletes entries whose expiry has passed, returning how
	// many rows were removed
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
