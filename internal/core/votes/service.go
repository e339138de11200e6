package votes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Service defines the business logic interface for vote operations
type Service interface {
	// ApplyVote casts or changes the user's vote on a comment
	ApplyVote(ctx context.Context, req ApplyVoteRequest) (*VoteResponse, error)

	// RemoveVote withdraws the user's vote from a comment
	RemoveVote(ctx context.Context, req RemoveVoteRequest) (*RemoveVoteResponse, error)

	// GetCounts reads a comment's current vote counters
	GetCounts(ctx context.Context, postID, commentID uuid.UUID) (Counts, error)

	// GetUserVote reads the user's vote on a comment, if any
	GetUserVote(ctx context.Context, userID, commentID uuid.UUID) (*Vote, error)
}

// voteService implements the Service interface
type voteService struct {
	repo   Repository
	logger *slog.Logger
}

// NewVoteService creates a new vote service instance
func NewVoteService(repo Repository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &voteService{repo: repo, logger: logger}
}

// ApplyVote casts or changes a vote.
// A vote identical to the existing one is a no-op and short-circuits before
// any transaction; otherwise the repository runs the four-step tally
// (vote write, counter recompute, snapshot dirty flag) atomically.
func (s *voteService) ApplyVote(ctx context.Context, req ApplyVoteRequest) (*VoteResponse, error) {
	if req.VoteValue != Upvote && req.VoteValue != Downvote {
		return nil, ErrInvalidVoteValue
	}

	existing, err := s.repo.GetByUserAndComment(ctx, req.UserID, req.CommentID)
	if err != nil && !errors.Is(err, ErrVoteNotFound) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	if existing != nil && existing.VoteValue == req.VoteValue {
		counts, err := s.repo.GetCounts(ctx, req.PostID, req.CommentID)
		if err != nil {
			return nil, fmt.Errorf("failed to read vote counts: %w", err)
		}
		return &VoteResponse{Vote: existing, Counts: counts}, nil
	}

	vote, counts, err := s.repo.ApplyVote(ctx, req.UserID, req.PostID, req.CommentID, req.VoteValue)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			return nil, err
		}
		s.logger.Error("vote transaction aborted",
			"error", err,
			"voter", req.UserID,
			"comment", req.CommentID,
			"value", req.VoteValue)
		return nil, fmt.Errorf("%w: %v", ErrVoteTransactionFailed, err)
	}

	s.logger.Info("vote applied",
		"voter", req.UserID,
		"comment", req.CommentID,
		"value", req.VoteValue,
		"upvotes", counts.Upvotes,
		"downvotes", counts.Downvotes)

	return &VoteResponse{Vote: vote, Counts: counts}, nil
}

// RemoveVote withdraws a vote
func (s *voteService) RemoveVote(ctx context.Context, req RemoveVoteRequest) (*RemoveVoteResponse, error) {
	deleted, counts, err := s.repo.RemoveVote(ctx, req.UserID, req.PostID, req.CommentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("vote removal transaction aborted",
			"error", err,
			"voter", req.UserID,
			"comment", req.CommentID)
		return nil, fmt.Errorf("%w: %v", ErrVoteTransactionFailed, err)
	}

	s.logger.Info("vote removed",
		"voter", req.UserID,
		"comment", req.CommentID,
		"upvotes", counts.Upvotes,
		"downvotes", counts.Downvotes)

	return &RemoveVoteResponse{DeletedVote: deleted, Counts: counts}, nil
}

// GetCounts reads a comment's current vote counters
func (s *voteService) GetCounts(ctx context.Context, postID, commentID uuid.UUID) (Counts, error) {
	return s.repo.GetCounts(ctx, postID, commentID)
}

// GetUserVote reads the user's vote on a comment.
// Returns ErrVoteNotFound if the user hasn't voted.
func (s *voteService) GetUserVote(ctx context.Context, userID, commentID uuid.UUID) (*Vote, error) {
	return s.repo.GetByUserAndComment(ctx, userID, commentID)
}
