package votes

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the data access interface for votes.
//
// ApplyVote and RemoveVote execute the entire tally as one transaction with
// serializable read-then-write semantics: vote upsert/delete, counter
// recompute on the comment, and marking the comment's active snapshot log
// entry dirty all commit or abort together.
type Repository interface {
	// GetByUserAndComment retrieves the user's vote on a comment, or
	// ErrVoteNotFound
	GetByUserAndComment(ctx context.Context, userID, commentID uuid.UUID) (*Vote, error)

	// ApplyVote upserts the user's vote to value and retallies the comment.
	// Returns the persisted vote and the updated counters.
	ApplyVote(ctx context.Context, userID, postID, commentID uuid.UUID, value int) (*Vote, Counts, error)

	// RemoveVote deletes the user's vote and retallies the comment.
	// Returns ErrVoteNotFound if no vote exists.
	RemoveVote(ctx context.Context, userID, postID, commentID uuid.UUID) (*Vote, Counts, error)

	// GetCounts reads a comment's current aggregate counters
	GetCounts(ctx context.Context, postID, commentID uuid.UUID) (Counts, error)

	// GetUserVotes batch-fetches the user's votes on a page of comments.
	// Returns map[commentID]voteValue; comments without a vote are absent.
	GetUserVotes(ctx context.Context, userID, postID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
