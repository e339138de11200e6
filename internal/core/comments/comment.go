// Package comments implements the comment feed: ranked cursor pagination
// over the score snapshot log, chronological pagination over the live
// table, comment creation with snapshot seeding, and reply counters.
package comments

import (
	"time"

	"github.com/google/uuid"
)

// Pagination categories for the top-level comment feed
const (
	CategoryNewest = "newest"
	CategoryTop    = "top"
)

// DefaultPageLimit is applied when the caller doesn't specify a limit
const DefaultPageLimit = 20

// MaxPageLimit bounds a single page fetch
const MaxPageLimit = 100

// Comment is a comment on a post. Top-level comments have a nil ParentID.
// The vote counters are owned by the vote tally path; ReplyCount is owned
// by the creation path. Nothing else mutates them.
type Comment struct {
	ID            uuid.UUID
	PostID        uuid.UUID
	ParentID      *uuid.UUID
	AuthorID      uuid.UUID
	Content       string
	UpvoteCount   int
	DownvoteCount int
	ReplyCount    int
	CreatedAt     time.Time
	EditedAt      *time.Time
}

// Score is the comment's live score (upvotes minus downvotes).
// Ranked pagination deliberately does not read this; it reads the
// snapshot log instead.
func (c *Comment) Score() int {
	return c.UpvoteCount - c.DownvoteCount
}

// RankedComment pairs a comment with the snapshot score it was ranked by.
// LogScore can lag Score() until the snapshot scheduler catches up; cursors
// for the top feed must be built from LogScore, never the live score.
type RankedComment struct {
	Comment  *Comment
	LogScore int
}

// Viewer identifies the authenticated principal a page is rendered for.
// A nil *Viewer means a guest: no user_vote augmentation is performed.
type Viewer struct {
	UserID uuid.UUID
}

// GetPageRequest defines the parameters for fetching a page of top-level comments
type GetPageRequest struct {
	PostID      uuid.UUID
	Category    string
	Limit       int
	Cursor      *string
	ExcludedIDs []uuid.UUID
	Viewer      *Viewer
}

// GetRepliesRequest defines the parameters for fetching a page of direct replies
type GetRepliesRequest struct {
	PostID    uuid.UUID
	CommentID uuid.UUID
	Limit     int
	Cursor    *string
	Viewer    *Viewer
}

// CreateCommentRequest contains parameters for creating a comment
type CreateCommentRequest struct {
	PostID   uuid.UUID
	ParentID *uuid.UUID
	AuthorID uuid.UUID
	Content  string
}

// UpdateCommentRequest contains parameters for editing a comment's content
type UpdateCommentRequest struct {
	PostID    uuid.UUID
	CommentID uuid.UUID
	ActorID   uuid.UUID
	Content   string
}

// AuthorView is the read-only author projection joined onto feed items
type AuthorView struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ProfilePhoto *string   `json:"profile_photo,omitempty"`
}

// CommentView is a comment as returned by the API
type CommentView struct {
	ID        uuid.UUID   `json:"id"`
	PostID    uuid.UUID   `json:"post_id"`
	ParentID  *uuid.UUID  `json:"parent_id,omitempty"`
	Author    *AuthorView `json:"author,omitempty"`
	Content   string      `json:"content"`
	Upvotes   int         `json:"upvotes"`
	Downvotes int         `json:"downvotes"`
	Score     int         `json:"score"`
	Replies   int         `json:"replies"`
	CreatedAt string      `json:"created_at"`
	EditedAt  *string     `json:"edited_at,omitempty"`

	// UserVote is the viewer's own vote on this comment (-1 or 1).
	// Omitted for guests and for comments the viewer hasn't voted on.
	UserVote *int `json:"user_vote,omitempty"`
}

// PageResponse is a page of comments plus the cursor for the next page.
// Cursor is nil when the traversal is exhausted.
type PageResponse struct {
	Comments []*CommentView `json:"comments"`
	Cursor   *string        `json:"cursor,omitempty"`
}
