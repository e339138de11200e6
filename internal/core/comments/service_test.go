package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SushiIsYummy/blog-api/internal/core/posts"
	"github.com/SushiIsYummy/blog-api/internal/core/users"
)

// fakeCommentRepo returns canned pages and records the queries it received
type fakeCommentRepo struct {
	comments  map[uuid.UUID]*Comment
	newest    []*Comment
	ranked    []*RankedComment
	replies   []*Comment
	lastQuery any
	createErr error
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *Comment) error {
	if f.createErr != nil {
		return f.createErr
	}
	comment.CreatedAt = time.Now().UTC()
	return nil
}

func (f *fakeCommentRepo) GetByID(ctx context.Context, postID, commentID uuid.UUID) (*Comment, error) {
	c, ok := f.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

func (f *fakeCommentRepo) UpdateContent(ctx context.Context, commentID uuid.UUID, content string) (*Comment, error) {
	c, ok := f.comments[commentID]
	if !ok {
		return nil, ErrCommentNotFound
	}
	updated := *c
	updated.Content = content
	now := time.Now().UTC()
	updated.EditedAt = &now
	return &updated, nil
}

func (f *fakeCommentRepo) ListNewest(ctx context.Context, q NewestQuery) ([]*Comment, error) {
	f.lastQuery = q
	return capComments(f.newest, q.Limit), nil
}

func (f *fakeCommentRepo) ListTopBySnapshot(ctx context.Context, q TopQuery) ([]*RankedComment, error) {
	f.lastQuery = q
	if len(f.ranked) > q.Limit {
		return f.ranked[:q.Limit], nil
	}
	return f.ranked, nil
}

func (f *fakeCommentRepo) ListReplies(ctx context.Context, q RepliesQuery) ([]*Comment, error) {
	f.lastQuery = q
	return capComments(f.replies, q.Limit), nil
}

func capComments(rows []*Comment, limit int) []*Comment {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

type fakePostRepo struct {
	existing map[uuid.UUID]bool
}

func (f *fakePostRepo) GetByID(ctx context.Context, id uuid.UUID) (*posts.Post, error) {
	if !f.existing[id] {
		return nil, posts.ErrPostNotFound
	}
	return &posts.Post{ID: id}, nil
}

func (f *fakePostRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.existing[id], nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*users.User
	err   error
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*users.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[uuid.UUID]*users.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

type fakeVoteState struct {
	votes map[uuid.UUID]int
	err   error
	calls int
}

func (f *fakeVoteState) GetUserVotes(ctx context.Context, userID, postID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.votes, nil
}

type serviceFixture struct {
	service  Service
	comments *fakeCommentRepo
	posts    *fakePostRepo
	users    *fakeUserRepo
	votes    *fakeVoteState
	postID   uuid.UUID
	author   *users.User
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	postID := uuid.Must(uuid.NewV7())
	author := &users.User{
		ID:        uuid.Must(uuid.NewV7()),
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Author",
	}

	commentRepo := &fakeCommentRepo{comments: make(map[uuid.UUID]*Comment)}
	postRepo := &fakePostRepo{existing: map[uuid.UUID]bool{postID: true}}
	userRepo := &fakeUserRepo{users: map[uuid.UUID]*users.User{author.ID: author}}
	voteState := &fakeVoteState{}

	return &serviceFixture{
		service:  NewCommentService(commentRepo, postRepo, userRepo, voteState, nil),
		comments: commentRepo,
		posts:    postRepo,
		users:    userRepo,
		votes:    voteState,
		postID:   postID,
		author:   author,
	}
}

func (fx *serviceFixture) addComment(score int, age time.Duration) *Comment {
	c := &Comment{
		ID:          uuid.Must(uuid.NewV7()),
		PostID:      fx.postID,
		AuthorID:    fx.author.ID,
		Content:     "hello",
		UpvoteCount: score,
		CreatedAt:   time.Now().UTC().Add(-age),
	}
	fx.comments.comments[c.ID] = c
	return c
}

func TestGetPageRejectsInvalidCategory(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: "hot",
	})

	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestGetPageUnknownPost(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   uuid.Must(uuid.NewV7()),
		Category: CategoryNewest,
	})

	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGetPageRejectsMalformedCursor(t *testing.T) {
	fx := newServiceFixture(t)
	bad := "garbage-cursor"

	for _, category := range []string{CategoryNewest, CategoryTop} {
		_, err := fx.service.GetPage(context.Background(), &GetPageRequest{
			PostID:   fx.postID,
			Category: category,
			Cursor:   &bad,
		})
		assert.ErrorIs(t, err, ErrMalformedCursor, "category %s", category)
	}
}

func TestGetNewestPagePagination(t *testing.T) {
	fx := newServiceFixture(t)
	c1 := fx.addComment(0, 1*time.Minute)
	c2 := fx.addComment(0, 2*time.Minute)
	c3 := fx.addComment(0, 3*time.Minute)
	fx.comments.newest = []*Comment{c1, c2, c3}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
		Limit:    2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Comments, 2)
	assert.Equal(t, c1.ID, resp.Comments[0].ID)
	assert.Equal(t, c2.ID, resp.Comments[1].ID)

	// A third row exists, so a cursor pointing at the last returned row
	// must be present
	require.NotNil(t, resp.Cursor)
	cursor, err := DecodeNewestCursor(*resp.Cursor)
	require.NoError(t, err)
	assert.Equal(t, c2.ID, cursor.LastID)
	assert.True(t, cursor.LastCreatedAt.Equal(c2.CreatedAt))
}

func TestGetNewestPageLastPageHasNoCursor(t *testing.T) {
	fx := newServiceFixture(t)
	c1 := fx.addComment(0, 1*time.Minute)
	fx.comments.newest = []*Comment{c1}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
		Limit:    2,
	})
	require.NoError(t, err)

	assert.Len(t, resp.Comments, 1)
	assert.Nil(t, resp.Cursor)
}

func TestGetNewestPageContinuationUsesCursorCeiling(t *testing.T) {
	fx := newServiceFixture(t)
	anchor := NewestCursor{
		LastID:        uuid.Must(uuid.NewV7()),
		LastCreatedAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	token := anchor.Encode()

	_, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
		Limit:    2,
		Cursor:   &token,
	})
	require.NoError(t, err)

	q, ok := fx.comments.lastQuery.(NewestQuery)
	require.True(t, ok)
	require.NotNil(t, q.Cursor)
	assert.Equal(t, anchor.LastID, q.Cursor.LastID)
	assert.True(t, q.Ceiling.Equal(anchor.LastCreatedAt),
		"continuation must anchor the ceiling to the cursor's timestamp")
}

func TestGetTopPagePagination(t *testing.T) {
	fx := newServiceFixture(t)
	// Snapshot scores rank the page even when live counters disagree
	cA := fx.addComment(9, 3*time.Minute)
	cB := fx.addComment(1, 2*time.Minute)
	cC := fx.addComment(5, 1*time.Minute)
	fx.comments.ranked = []*RankedComment{
		{Comment: cB, LogScore: 5},
		{Comment: cA, LogScore: 5},
		{Comment: cC, LogScore: 3},
	}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryTop,
		Limit:    2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Comments, 2)
	assert.Equal(t, cB.ID, resp.Comments[0].ID)
	assert.Equal(t, cA.ID, resp.Comments[1].ID)

	// The cursor carries the snapshot score of the last returned row, not
	// its live score
	require.NotNil(t, resp.Cursor)
	cursor, err := DecodeTopCursor(*resp.Cursor)
	require.NoError(t, err)
	assert.Equal(t, cA.ID, cursor.LastID)
	assert.Equal(t, 5, cursor.LastScore)
	assert.False(t, cursor.Ceiling.IsZero())
}

func TestGetTopPageThreadsCeilingThroughCursors(t *testing.T) {
	fx := newServiceFixture(t)
	ceiling := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	anchor := TopCursor{
		LastID:    uuid.Must(uuid.NewV7()),
		Ceiling:   ceiling,
		LastScore: 8,
	}
	token := anchor.Encode()

	cD := fx.addComment(2, time.Minute)
	cE := fx.addComment(2, 2*time.Minute)
	cF := fx.addComment(2, 3*time.Minute)
	fx.comments.ranked = []*RankedComment{
		{Comment: cD, LogScore: 7},
		{Comment: cE, LogScore: 6},
		{Comment: cF, LogScore: 6},
	}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryTop,
		Limit:    2,
		Cursor:   &token,
	})
	require.NoError(t, err)

	q, ok := fx.comments.lastQuery.(TopQuery)
	require.True(t, ok)
	assert.True(t, q.Ceiling.Equal(ceiling), "query must use the cursor's ceiling, not now")

	require.NotNil(t, resp.Cursor)
	next, err := DecodeTopCursor(*resp.Cursor)
	require.NoError(t, err)
	assert.True(t, next.Ceiling.Equal(ceiling), "next cursor must carry the original ceiling verbatim")
	assert.Equal(t, cE.ID, next.LastID)
	assert.Equal(t, 6, next.LastScore)
}

func TestGetPageAugmentsViewerVotes(t *testing.T) {
	fx := newServiceFixture(t)
	c1 := fx.addComment(3, time.Minute)
	c2 := fx.addComment(0, 2*time.Minute)
	fx.comments.newest = []*Comment{c1, c2}
	fx.votes.votes = map[uuid.UUID]int{c1.ID: 1}

	viewerID := uuid.Must(uuid.NewV7())
	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
		Viewer:   &Viewer{UserID: viewerID},
	})
	require.NoError(t, err)

	require.Len(t, resp.Comments, 2)
	require.NotNil(t, resp.Comments[0].UserVote)
	assert.Equal(t, 1, *resp.Comments[0].UserVote)
	assert.Nil(t, resp.Comments[1].UserVote)
	assert.Equal(t, 1, fx.votes.calls, "viewer votes must be fetched in one batch")
}

func TestGetPageGuestSkipsVoteLookup(t *testing.T) {
	fx := newServiceFixture(t)
	fx.comments.newest = []*Comment{fx.addComment(0, time.Minute)}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Comments[0].UserVote)
	assert.Equal(t, 0, fx.votes.calls)
}

func TestGetPageSurvivesVoteStateFailure(t *testing.T) {
	fx := newServiceFixture(t)
	fx.comments.newest = []*Comment{fx.addComment(0, time.Minute)}
	fx.votes.err = errors.New("vote store down")

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
		Viewer:   &Viewer{UserID: uuid.Must(uuid.NewV7())},
	})

	require.NoError(t, err, "vote state is an augmentation, not a dependency")
	assert.Len(t, resp.Comments, 1)
	assert.Nil(t, resp.Comments[0].UserVote)
}

func TestGetPageSurvivesAuthorHydrationFailure(t *testing.T) {
	fx := newServiceFixture(t)
	fx.comments.newest = []*Comment{fx.addComment(0, time.Minute)}
	fx.users.err = errors.New("user store down")

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
	})

	require.NoError(t, err)
	require.Len(t, resp.Comments, 1)
	assert.Nil(t, resp.Comments[0].Author)
}

func TestGetPageHydratesAuthors(t *testing.T) {
	fx := newServiceFixture(t)
	fx.comments.newest = []*Comment{fx.addComment(0, time.Minute)}

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Comments[0].Author)
	assert.Equal(t, "alice", resp.Comments[0].Author.Username)
}

func TestGetPageEmptyResultIsNotNil(t *testing.T) {
	fx := newServiceFixture(t)

	resp, err := fx.service.GetPage(context.Background(), &GetPageRequest{
		PostID:   fx.postID,
		Category: CategoryNewest,
	})
	require.NoError(t, err)

	assert.NotNil(t, resp.Comments)
	assert.Len(t, resp.Comments, 0)
	assert.Nil(t, resp.Cursor)
}

func TestGetRepliesUnknownParent(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.GetReplies(context.Background(), &GetRepliesRequest{
		PostID:    fx.postID,
		CommentID: uuid.Must(uuid.NewV7()),
	})

	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestGetRepliesPagination(t *testing.T) {
	fx := newServiceFixture(t)
	parent := fx.addComment(0, 10*time.Minute)
	r1 := fx.addComment(0, 5*time.Minute)
	r2 := fx.addComment(0, 4*time.Minute)
	r3 := fx.addComment(0, 3*time.Minute)
	fx.comments.replies = []*Comment{r1, r2, r3}

	resp, err := fx.service.GetReplies(context.Background(), &GetRepliesRequest{
		PostID:    fx.postID,
		CommentID: parent.ID,
		Limit:     2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Comments, 2)
	require.NotNil(t, resp.Cursor)

	cursor, err := DecodeReplyCursor(*resp.Cursor)
	require.NoError(t, err)
	assert.Equal(t, r2.ID, cursor.LastID)
	assert.True(t, cursor.LastCreatedAt.Equal(r2.CreatedAt))
	assert.False(t, cursor.Ceiling.IsZero())
}

func TestCreateComment(t *testing.T) {
	fx := newServiceFixture(t)

	view, err := fx.service.CreateComment(context.Background(), CreateCommentRequest{
		PostID:   fx.postID,
		AuthorID: fx.author.ID,
		Content:  "  first!  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "first!", view.Content, "content must be trimmed")
	assert.Equal(t, fx.postID, view.PostID)
	require.NotNil(t, view.Author)
	assert.Equal(t, fx.author.ID, view.Author.ID)
}

func TestCreateCommentValidation(t *testing.T) {
	fx := newServiceFixture(t)
	missingParent := uuid.Must(uuid.NewV7())

	tests := []struct {
		name    string
		req     CreateCommentRequest
		wantErr error
	}{
		{
			name:    "empty content",
			req:     CreateCommentRequest{PostID: fx.postID, AuthorID: fx.author.ID, Content: "   "},
			wantErr: ErrContentEmpty,
		},
		{
			name:    "unknown post",
			req:     CreateCommentRequest{PostID: uuid.Must(uuid.NewV7()), AuthorID: fx.author.ID, Content: "hi"},
			wantErr: ErrPostNotFound,
		},
		{
			name: "unknown parent",
			req: CreateCommentRequest{
				PostID: fx.postID, ParentID: &missingParent,
				AuthorID: fx.author.ID, Content: "hi",
			},
			wantErr: ErrParentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.CreateComment(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateComment(t *testing.T) {
	fx := newServiceFixture(t)
	c := fx.addComment(0, time.Minute)

	view, err := fx.service.UpdateComment(context.Background(), UpdateCommentRequest{
		PostID:    fx.postID,
		CommentID: c.ID,
		ActorID:   fx.author.ID,
		Content:   "edited",
	})
	require.NoError(t, err)

	assert.Equal(t, "edited", view.Content)
	assert.NotNil(t, view.EditedAt)
}

func TestUpdateCommentOnlyAuthorMayEdit(t *testing.T) {
	fx := newServiceFixture(t)
	c := fx.addComment(0, time.Minute)

	_, err := fx.service.UpdateComment(context.Background(), UpdateCommentRequest{
		PostID:    fx.postID,
		CommentID: c.ID,
		ActorID:   uuid.Must(uuid.NewV7()),
		Content:   "hijacked",
	})

	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestUpdateCommentUnchangedContent(t *testing.T) {
	fx := newServiceFixture(t)
	c := fx.addComment(0, time.Minute)

	_, err := fx.service.UpdateComment(context.Background(), UpdateCommentRequest{
		PostID:    fx.postID,
		CommentID: c.ID,
		ActorID:   fx.author.ID,
		Content:   c.Content,
	})

	assert.ErrorIs(t, err, ErrContentUnchanged)
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultPageLimit},
		{-5, DefaultPageLimit},
		{1, 1},
		{MaxPageLimit, MaxPageLimit},
		{MaxPageLimit + 50, MaxPageLimit},
	}

	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
