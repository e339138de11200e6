package comments

import "errors"

var (
	// ErrCommentNotFound indicates the requested comment doesn't exist on the post
	ErrCommentNotFound = errors.New("comment not found")

	// ErrPostNotFound indicates the post being commented on or paginated doesn't exist
	ErrPostNotFound = errors.New("post not found")

	// ErrParentNotFound indicates the parent comment doesn't exist on the post
	ErrParentNotFound = errors.New("parent comment not found")

	// ErrContentEmpty indicates comment content is empty
	ErrContentEmpty = errors.New("comment content is required")

	// ErrContentUnchanged indicates an edit submitted identical content
	ErrContentUnchanged = errors.New("comment content is unchanged")

	// ErrInvalidCategory indicates the sort category is not "newest" or "top"
	ErrInvalidCategory = errors.New("invalid category: must be 'newest' or 'top'")

	// ErrMalformedCursor indicates the pagination token could not be decoded.
	// Malformed cursors are rejected, never treated as "no cursor".
	ErrMalformedCursor = errors.New("malformed pagination cursor")

	// ErrNotAuthorized indicates the actor doesn't own the comment
	ErrNotAuthorized = errors.New("not authorized")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrPostNotFound) ||
		errors.Is(err, ErrParentNotFound)
}

// IsValidationError checks if an error is a request validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrContentEmpty) ||
		errors.Is(err, ErrContentUnchanged) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrMalformedCursor)
}
