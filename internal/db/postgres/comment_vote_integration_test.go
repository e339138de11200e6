package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

func requireCounts(t *testing.T, db *sql.DB, commentID uuid.UUID, up, down int) {
	t.Helper()

	var gotUp, gotDown int
	err := db.QueryRow(
		`SELECT upvote_count, downvote_count FROM comments WHERE id = $1`,
		commentID,
	).Scan(&gotUp, &gotDown)
	require.NoError(t, err)
	assert.Equal(t, up, gotUp, "upvote_count mismatch")
	assert.Equal(t, down, gotDown, "downvote_count mismatch")
}

// Concurrent votes on the same comment contend under serializable
// isolation; losers abort with ErrVoteTransactionFailed and the caller
// retries. After every voter lands, the counters must reflect the exact
// vote set with nothing lost or double counted.
func TestConcurrentVotesTallyExactly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	commentRepo := NewCommentRepository(db)
	voteRepo := NewVoteRepository(db)
	author := createTestUser(t, db, "contended_author")
	postID := createTestPost(t, db, author)
	comment := createTestComment(t, commentRepo, postID, author, "contended comment")

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := votes.NewVoteService(voteRepo, quiet)

	const upvoters, downvoters = 5, 3
	voters := make([]uuid.UUID, 0, upvoters+downvoters)
	values := make([]int, 0, upvoters+downvoters)
	for i := 0; i < upvoters; i++ {
		voters = append(voters, createTestUser(t, db, fmt.Sprintf("upvoter_%d", i)))
		values = append(values, votes.Upvote)
	}
	for i := 0; i < downvoters; i++ {
		voters = append(voters, createTestUser(t, db, fmt.Sprintf("downvoter_%d", i)))
		values = append(values, votes.Downvote)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(voters))
	for i := range voters {
		wg.Add(1)
		go func(userID uuid.UUID, value int) {
			defer wg.Done()
			req := votes.ApplyVoteRequest{
				UserID:    userID,
				PostID:    postID,
				CommentID: comment.ID,
				VoteValue: value,
			}
			for attempt := 0; attempt < 25; attempt++ {
				_, err := svc.ApplyVote(ctx, req)
				if err == nil {
					return
				}
				if !votes.IsTransient(err) {
					errCh <- err
					return
				}
			}
			errCh <- errors.New("vote never landed after retries")
		}(voters[i], values[i])
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent vote failed: %v", err)
	}

	counts, err := voteRepo.GetCounts(ctx, postID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, upvoters, counts.Upvotes)
	assert.Equal(t, downvoters, counts.Downvotes)
	requireCounts(t, db, comment.ID, upvoters, downvoters)

	// The tally transaction flags the active snapshot entry for refresh
	var dirty bool
	err = db.QueryRow(
		`SELECT update_required FROM comment_score_logs WHERE comment_id = $1 AND expires_at IS NULL`,
		comment.ID,
	).Scan(&dirty)
	require.NoError(t, err)
	assert.True(t, dirty, "Active snapshot entry should be flagged dirty")
}

// A flip rewrites the existing vote row and recounts both counters; a
// removal deletes the row and recounts. Counters come from exact counts,
// never increments, so they stay correct through any sequence.
func TestVoteFlipAndRemovalRecountExactly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	commentRepo := NewCommentRepository(db)
	voteRepo := NewVoteRepository(db)
	author := createTestUser(t, db, "flip_author")
	postID := createTestPost(t, db, author)
	comment := createTestComment(t, commentRepo, postID, author, "flip comment")

	alice := createTestUser(t, db, "alice_flip")
	bob := createTestUser(t, db, "bob_flip")

	_, counts, err := voteRepo.ApplyVote(ctx, alice, postID, comment.ID, votes.Upvote)
	require.NoError(t, err)
	assert.Equal(t, votes.Counts{Upvotes: 1, Downvotes: 0}, counts)

	_, counts, err = voteRepo.ApplyVote(ctx, bob, postID, comment.ID, votes.Upvote)
	require.NoError(t, err)
	assert.Equal(t, votes.Counts{Upvotes: 2, Downvotes: 0}, counts)

	_, counts, err = voteRepo.ApplyVote(ctx, alice, postID, comment.ID, votes.Downvote)
	require.NoError(t, err)
	assert.Equal(t, votes.Counts{Upvotes: 1, Downvotes: 1}, counts)
	requireCounts(t, db, comment.ID, 1, 1)

	// Only one vote row per voter survives a flip
	var voteRows int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM comment_votes WHERE comment_id = $1`,
		comment.ID,
	).Scan(&voteRows)
	require.NoError(t, err)
	assert.Equal(t, 2, voteRows)

	deleted, counts, err := voteRepo.RemoveVote(ctx, alice, postID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, votes.Downvote, deleted.VoteValue)
	assert.Equal(t, votes.Counts{Upvotes: 1, Downvotes: 0}, counts)
	requireCounts(t, db, comment.ID, 1, 0)

	_, err = voteRepo.GetByUserAndComment(ctx, alice, comment.ID)
	assert.ErrorIs(t, err, votes.ErrVoteNotFound)

	// Removing again is not silently absorbed
	_, _, err = voteRepo.RemoveVote(ctx, alice, postID, comment.ID)
	assert.ErrorIs(t, err, votes.ErrVoteNotFound)
}
