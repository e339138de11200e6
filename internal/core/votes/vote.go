// Package votes implements vote tallying on comments. All mutation of a
// comment's vote counters and of its active snapshot log entry's dirty
// flag is funneled through this package's service; nothing else writes them.
package votes

import (
	"time"

	"github.com/google/uuid"
)

// Vote values accepted on the wire. Neutral only appears transiently
// during tally recomputation; a persisted vote is always ±1.
const (
	Upvote   = 1
	Neutral  = 0
	Downvote = -1
)

// Vote is one user's vote on one comment. At most one record exists per
// (comment, user) pair; it is mutated in place on re-vote and deleted on
// un-vote.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	CommentID uuid.UUID `json:"comment_id"`
	UserID    uuid.UUID `json:"user_id"`
	VoteValue int       `json:"vote_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counts holds a comment's aggregate vote counters after a tally
type Counts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// ApplyVoteRequest casts or changes a vote
type ApplyVoteRequest struct {
	UserID    uuid.UUID
	PostID    uuid.UUID
	CommentID uuid.UUID
	VoteValue int
}

// RemoveVoteRequest withdraws a vote entirely
type RemoveVoteRequest struct {
	UserID    uuid.UUID
	PostID    uuid.UUID
	CommentID uuid.UUID
}

// VoteResponse carries the resulting vote record and the comment's
// updated counters
type VoteResponse struct {
	Vote   *Vote  `json:"vote"`
	Counts Counts `json:"counts"`
}

// RemoveVoteResponse confirms a removal
type RemoveVoteResponse struct {
	DeletedVote *Vote  `json:"deleted_vote"`
	Counts      Counts `json:"counts"`
}

// CountsToRefresh reports which counters need an exact recount for a
// vote transition. The signed sum of old and new value disambiguates:
// ±1 means only that side's count moved; 0 means the transition is
// ambiguous (a flip) and both counters must be recomputed by aggregation.
func CountsToRefresh(oldValue, newValue int) (refreshUp, refreshDown bool) {
	switch oldValue + newValue {
	case 1:
		return true, false
	case -1:
		return false, true
	default:
		return true, true
	}
}
