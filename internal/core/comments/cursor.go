package comments

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursors are versioned, base64url-encoded, pipe-delimited tokens. The
// version prefix lets the format evolve without guessing; unknown versions
// are rejected as malformed. Timestamps use RFC3339Nano so sub-second
// creation times round-trip exactly.
const (
	cursorVersion   = "v1"
	cursorDelimiter = "|"
	cursorTimeFmt   = time.RFC3339Nano

	// maxCursorLength guards against absurdly long tokens before decoding
	maxCursorLength = 512
)

// NewestCursor continues a reverse-chronological traversal.
// The next page contains comments with id < LastID and created_at <= LastCreatedAt.
type NewestCursor struct {
	LastID        uuid.UUID
	LastCreatedAt time.Time
}

// TopCursor continues a score-ranked traversal. Ceiling is fixed on the
// first page and carried verbatim through every subsequent cursor; it pins
// the set of snapshot log entries the whole traversal ranks over. LastScore
// is the snapshot score of the last returned comment, not its live score.
type TopCursor struct {
	LastID    uuid.UUID
	Ceiling   time.Time
	LastScore int
}

// ReplyCursor continues a chronological-ascending reply traversal.
// Like TopCursor it threads the first page's ceiling through every page.
type ReplyCursor struct {
	LastID        uuid.UUID
	LastCreatedAt time.Time
	Ceiling       time.Time
}

// Encode serializes the cursor into an opaque token
func (c NewestCursor) Encode() string {
	return encodeCursor(c.LastID.String(), c.LastCreatedAt.UTC().Format(cursorTimeFmt))
}

// Encode serializes the cursor into an opaque token
func (c TopCursor) Encode() string {
	return encodeCursor(
		c.LastID.String(),
		c.Ceiling.UTC().Format(cursorTimeFmt),
		strconv.Itoa(c.LastScore),
	)
}

// Encode serializes the cursor into an opaque token
func (c ReplyCursor) Encode() string {
	return encodeCursor(
		c.LastID.String(),
		c.LastCreatedAt.UTC().Format(cursorTimeFmt),
		c.Ceiling.UTC().Format(cursorTimeFmt),
	)
}

// DecodeNewestCursor parses a token produced by NewestCursor.Encode
func DecodeNewestCursor(token string) (NewestCursor, error) {
	fields, err := decodeCursorFields(token, 2)
	if err != nil {
		return NewestCursor{}, err
	}

	id, err := parseCursorID(fields[0])
	if err != nil {
		return NewestCursor{}, err
	}
	createdAt, err := parseCursorTime(fields[1])
	if err != nil {
		return NewestCursor{}, err
	}

	return NewestCursor{LastID: id, LastCreatedAt: createdAt}, nil
}

// DecodeTopCursor parses a token produced by TopCursor.Encode
func DecodeTopCursor(token string) (TopCursor, error) {
	fields, err := decodeCursorFields(token, 3)
	if err != nil {
		return TopCursor{}, err
	}

	id, err := parseCursorID(fields[0])
	if err != nil {
		return TopCursor{}, err
	}
	ceiling, err := parseCursorTime(fields[1])
	if err != nil {
		return TopCursor{}, err
	}
	score, err := strconv.Atoi(fields[2])
	if err != nil {
		return TopCursor{}, fmt.Errorf("%w: invalid score", ErrMalformedCursor)
	}

	return TopCursor{LastID: id, Ceiling: ceiling, LastScore: score}, nil
}

// DecodeReplyCursor parses a token produced by ReplyCursor.Encode
func DecodeReplyCursor(token string) (ReplyCursor, error) {
	fields, err := decodeCursorFields(token, 3)
	if err != nil {
		return ReplyCursor{}, err
	}

	id, err := parseCursorID(fields[0])
	if err != nil {
		return ReplyCursor{}, err
	}
	createdAt, err := parseCursorTime(fields[1])
	if err != nil {
		return ReplyCursor{}, err
	}
	ceiling, err := parseCursorTime(fields[2])
	if err != nil {
		return ReplyCursor{}, err
	}

	return ReplyCursor{LastID: id, LastCreatedAt: createdAt, Ceiling: ceiling}, nil
}

func encodeCursor(fields ...string) string {
	joined := cursorVersion + cursorDelimiter + strings.Join(fields, cursorDelimiter)
	return base64.URLEncoding.EncodeToString([]byte(joined))
}

// decodeCursorFields validates the envelope (length, base64, version, field
// count) and returns the payload fields
func decodeCursorFields(token string, want int) ([]string, error) {
	if len(token) > maxCursorLength {
		return nil, fmt.Errorf("%w: exceeds maximum length", ErrMalformedCursor)
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", ErrMalformedCursor)
	}

	parts := strings.Split(string(decoded), cursorDelimiter)
	if parts[0] != cursorVersion {
		return nil, fmt.Errorf("%w: unknown version", ErrMalformedCursor)
	}
	if len(parts)-1 != want {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedCursor, want, len(parts)-1)
	}

	return parts[1:], nil
}

func parseCursorID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid comment id", ErrMalformedCursor)
	}
	return id, nil
}

func parseCursorTime(s string) (time.Time, error) {
	t, err := time.Parse(cursorTimeFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp", ErrMalformedCursor)
	}
	return t, nil
}
