package comments

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewestQuery selects a page of top-level comments in reverse chronological
// order. Limit is the exact number of rows to fetch (callers pass limit+1 to
// detect a following page). Ceiling pins the traversal to comments created
// at or before that instant.
type NewestQuery struct {
	PostID      uuid.UUID
	Ceiling     time.Time
	Limit       int
	Cursor      *NewestCursor
	ExcludedIDs []uuid.UUID
}

// TopQuery selects a page of top-level comments ranked by snapshot score.
// Only snapshot log entries created at or before Ceiling participate; among
// multiple entries per comment the most recent one inside the ceiling wins.
type TopQuery struct {
	PostID      uuid.UUID
	Ceiling     time.Time
	Limit       int
	Cursor      *TopCursor
	ExcludedIDs []uuid.UUID
}

// RepliesQuery selects a page of direct replies in chronological order
type RepliesQuery struct {
	PostID   uuid.UUID
	ParentID uuid.UUID
	Ceiling  time.Time
	Limit    int
	Cursor   *ReplyCursor
}

// Repository defines the data access interface for comments
type Repository interface {
	// Create inserts the comment, seeds its first score snapshot log entry
	// in the same transaction, and recomputes the parent's reply count when
	// the comment is a reply.
	Create(ctx context.Context, comment *Comment) error

	// GetByID retrieves a comment scoped to its post
	GetByID(ctx context.Context, postID, commentID uuid.UUID) (*Comment, error)

	// UpdateContent replaces the comment's content and stamps edited_at
	UpdateContent(ctx context.Context, commentID uuid.UUID, content string) (*Comment, error)

	// ListNewest returns top-level comments ordered (created_at DESC, id DESC)
	ListNewest(ctx context.Context, q NewestQuery) ([]*Comment, error)

	// ListTopBySnapshot returns top-level comments ordered (score DESC, id DESC)
	// where score comes from the latest snapshot log entry within the ceiling,
	// never from the live counters.
	ListTopBySnapshot(ctx context.Context, q TopQuery) ([]*RankedComment, error)

	// ListReplies returns direct replies ordered (created_at ASC, id DESC)
	ListReplies(ctx context.Context, q RepliesQuery) ([]*Comment, error)
}

// VoteStateSource supplies the viewer's own votes for a page of comments in
// one batched lookup. Implemented by the vote repository.
type VoteStateSource interface {
	GetUserVotes(ctx context.Context, userID, postID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
