package comments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/posts"
	"github.com/SushiIsYummy/blog-api/internal/core/users"
)

// Service defines the business logic interface for the comment feed
type Service interface {
	// GetPage retrieves a page of top-level comments under the requested
	// category ("newest" or "top") plus the cursor for the next page
	GetPage(ctx context.Context, req *GetPageRequest) (*PageResponse, error)

	// GetReplies retrieves a page of direct replies in chronological order
	GetReplies(ctx context.Context, req *GetRepliesRequest) (*PageResponse, error)

	// GetComment retrieves a single comment with author hydration
	GetComment(ctx context.Context, postID, commentID uuid.UUID, viewer *Viewer) (*CommentView, error)

	// CreateComment creates a comment or reply, seeding its snapshot log
	// entry and maintaining the parent's reply counter
	CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentView, error)

	// UpdateComment edits a comment's content; author-only
	UpdateComment(ctx context.Context, req UpdateCommentRequest) (*CommentView, error)
}

// commentService coordinates the repositories and builds view models
type commentService struct {
	commentRepo Repository
	postRepo    posts.Repository
	userRepo    users.Repository
	voteState   VoteStateSource
	logger      *slog.Logger
}

// NewCommentService creates a new comment service instance
func NewCommentService(
	commentRepo Repository,
	postRepo posts.Repository,
	userRepo users.Repository,
	voteState VoteStateSource,
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &commentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		voteState:   voteState,
		logger:      logger,
	}
}

// GetPage retrieves comments for a post with ranked cursor pagination.
// Algorithm:
//  1. Validate category and bounds, default the limit
//  2. Check the post exists
//  3. Decode the cursor for the category; absent cursor means first page
//     with "now" as the ceiling
//  4. Fetch limit+1 rows to detect a following page without a count query
//  5. Hydrate authors, augment the viewer's own votes, build the next cursor
func (s *commentService) GetPage(ctx context.Context, req *GetPageRequest) (*PageResponse, error) {
	if req.Category != CategoryNewest && req.Category != CategoryTop {
		return nil, ErrInvalidCategory
	}
	limit := normalizeLimit(req.Limit)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	switch req.Category {
	case CategoryNewest:
		return s.getNewestPage(ctx, req, limit)
	default:
		return s.getTopPage(ctx, req, limit)
	}
}

func (s *commentService) getNewestPage(ctx context.Context, req *GetPageRequest, limit int) (*PageResponse, error) {
	q := NewestQuery{
		PostID:      req.PostID,
		Ceiling:     time.Now().UTC(),
		Limit:       limit + 1,
		ExcludedIDs: req.ExcludedIDs,
	}
	if req.Cursor != nil {
		cursor, err := DecodeNewestCursor(*req.Cursor)
		if err != nil {
			return nil, err
		}
		q.Cursor = &cursor
		q.Ceiling = cursor.LastCreatedAt
	}

	rows, err := s.commentRepo.ListNewest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list newest comments: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	views, err := s.buildViews(ctx, rows, req.PostID, req.Viewer)
	if err != nil {
		return nil, err
	}

	var next *string
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		token := NewestCursor{LastID: last.ID, LastCreatedAt: last.CreatedAt}.Encode()
		next = &token
	}

	return &PageResponse{Comments: views, Cursor: next}, nil
}

func (s *commentService) getTopPage(ctx context.Context, req *GetPageRequest, limit int) (*PageResponse, error) {
	// The ceiling fixed on the first page is threaded through every cursor
	// so later snapshots and comments can't shift the ranking mid-scroll.
	ceiling := time.Now().UTC()

	q := TopQuery{
		PostID:      req.PostID,
		Ceiling:     ceiling,
		Limit:       limit + 1,
		ExcludedIDs: req.ExcludedIDs,
	}
	if req.Cursor != nil {
		cursor, err := DecodeTopCursor(*req.Cursor)
		if err != nil {
			return nil, err
		}
		q.Cursor = &cursor
		q.Ceiling = cursor.Ceiling
		ceiling = cursor.Ceiling
	}

	ranked, err := s.commentRepo.ListTopBySnapshot(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list top comments: %w", err)
	}

	hasMore := len(ranked) > limit
	if hasMore {
		ranked = ranked[:limit]
	}

	rows := make([]*Comment, 0, len(ranked))
	for _, rc := range ranked {
		rows = append(rows, rc.Comment)
	}

	views, err := s.buildViews(ctx, rows, req.PostID, req.Viewer)
	if err != nil {
		return nil, err
	}

	var next *string
	if hasMore && len(ranked) > 0 {
		last := ranked[len(ranked)-1]
		token := TopCursor{
			LastID:    last.Comment.ID,
			Ceiling:   ceiling,
			LastScore: last.LogScore,
		}.Encode()
		next = &token
	}

	return &PageResponse{Comments: views, Cursor: next}, nil
}

// GetReplies retrieves direct replies to a comment in chronological order
func (s *commentService) GetReplies(ctx context.Context, req *GetRepliesRequest) (*PageResponse, error) {
	limit := normalizeLimit(req.Limit)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	if _, err := s.commentRepo.GetByID(ctx, req.PostID, req.CommentID); err != nil {
		return nil, err
	}

	ceiling := time.Now().UTC()
	q := RepliesQuery{
		PostID:   req.PostID,
		ParentID: req.CommentID,
		Ceiling:  ceiling,
		Limit:    limit + 1,
	}
	if req.Cursor != nil {
		cursor, err := DecodeReplyCursor(*req.Cursor)
		if err != nil {
			return nil, err
		}
		q.Cursor = &cursor
		q.Ceiling = cursor.Ceiling
		ceiling = cursor.Ceiling
	}

	rows, err := s.commentRepo.ListReplies(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	views, err := s.buildViews(ctx, rows, req.PostID, req.Viewer)
	if err != nil {
		return nil, err
	}

	var next *string
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		token := ReplyCursor{
			LastID:        last.ID,
			LastCreatedAt: last.CreatedAt,
			Ceiling:       ceiling,
		}.Encode()
		next = &token
	}

	return &PageResponse{Comments: views, Cursor: next}, nil
}

// GetComment retrieves a single comment with author hydration
func (s *commentService) GetComment(ctx context.Context, postID, commentID uuid.UUID, viewer *Viewer) (*CommentView, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	comment, err := s.commentRepo.GetByID(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	views, err := s.buildViews(ctx, []*Comment{comment}, postID, viewer)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// CreateComment creates a comment or reply
func (s *commentService) CreateComment(ctx context.Context, req CreateCommentRequest) (*CommentView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentEmpty
	}

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	if req.ParentID != nil {
		// Parent must exist on the same post
		if _, err := s.commentRepo.GetByID(ctx, req.PostID, *req.ParentID); err != nil {
			if IsNotFound(err) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to fetch parent comment: %w", err)
		}
	}

	comment := &Comment{
		ID:       uuid.Must(uuid.NewV7()),
		PostID:   req.PostID,
		ParentID: req.ParentID,
		AuthorID: req.AuthorID,
		Content:  content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("comment created",
		"comment", comment.ID,
		"post", comment.PostID,
		"author", comment.AuthorID,
		"is_reply", comment.ParentID != nil)

	views, err := s.buildViews(ctx, []*Comment{comment}, req.PostID, nil)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// UpdateComment edits a comment's content; only the author may edit
func (s *commentService) UpdateComment(ctx context.Context, req UpdateCommentRequest) (*CommentView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentEmpty
	}

	existing, err := s.commentRepo.GetByID(ctx, req.PostID, req.CommentID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != req.ActorID {
		return nil, ErrNotAuthorized
	}
	if existing.Content == content {
		return nil, ErrContentUnchanged
	}

	updated, err := s.commentRepo.UpdateContent(ctx, req.CommentID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	s.logger.Info("comment updated", "comment", updated.ID, "author", req.ActorID)

	views, err := s.buildViews(ctx, []*Comment{updated}, req.PostID, nil)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// buildViews converts comments to views with batched author hydration and,
// for authenticated viewers, a single batched lookup of their own votes
func (s *commentService) buildViews(ctx context.Context, rows []*Comment, postID uuid.UUID, viewer *Viewer) ([]*CommentView, error) {
	// Always a slice, never nil (important for JSON serialization)
	views := make([]*CommentView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	authorIDs := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]bool)
	commentIDs := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		commentIDs = append(commentIDs, c.ID)
		if !seen[c.AuthorID] {
			authorIDs = append(authorIDs, c.AuthorID)
			seen[c.AuthorID] = true
		}
	}

	authors, err := s.userRepo.GetByIDs(ctx, authorIDs)
	if err != nil {
		// Author data is a projection; serve the page without it
		s.logger.Warn("failed to batch fetch comment authors", "error", err)
		authors = make(map[uuid.UUID]*users.User)
	}

	var userVotes map[uuid.UUID]int
	if viewer != nil {
		userVotes, err = s.voteState.GetUserVotes(ctx, viewer.UserID, postID, commentIDs)
		if err != nil {
			// Vote state is optional; don't fail the page
			s.logger.Warn("failed to fetch viewer vote state", "error", err, "viewer", viewer.UserID)
		}
	}

	for _, c := range rows {
		view := &CommentView{
			ID:        c.ID,
			PostID:    c.PostID,
			ParentID:  c.ParentID,
			Content:   c.Content,
			Upvotes:   c.UpvoteCount,
			Downvotes: c.DownvoteCount,
			Score:     c.Score(),
			Replies:   c.ReplyCount,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if c.EditedAt != nil {
			edited := c.EditedAt.UTC().Format(time.RFC3339Nano)
			view.EditedAt = &edited
		}
		if author, ok := authors[c.AuthorID]; ok {
			view.Author = &AuthorView{
				ID:           author.ID,
				Username:     author.Username,
				FirstName:    author.FirstName,
				LastName:     author.LastName,
				ProfilePhoto: author.ProfilePhoto,
			}
		}
		if value, ok := userVotes[c.ID]; ok {
			v := value
			view.UserVote = &v
		}
		views = append(views, view)
	}

	return views, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
