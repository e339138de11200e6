package votes

import "errors"

var (
	// ErrVoteNotFound indicates the user has no vote on the comment
	ErrVoteNotFound = errors.New("vote not found")

	// ErrCommentNotFound indicates the comment being voted on doesn't exist
	ErrCommentNotFound = errors.New("comment not found")

	// ErrInvalidVoteValue indicates the vote value is outside {-1, +1}
	ErrInvalidVoteValue = errors.New("invalid vote value: must be -1 or 1")

	// ErrVoteTransactionFailed indicates the tally transaction aborted.
	// Transient: no partial state was committed and the caller may retry.
	ErrVoteTransactionFailed = errors.New("vote transaction failed")

	// ErrNoActiveSnapshot indicates the comment has no active snapshot log
	// entry to mark dirty, which breaks the one-active-entry invariant
	ErrNoActiveSnapshot = errors.New("no active snapshot log entry for comment")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVoteNotFound) || errors.Is(err, ErrCommentNotFound)
}

// IsTransient checks if an error is safe for the caller to retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrVoteTransactionFailed)
}
