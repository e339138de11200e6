package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/comments"
)

// GetRepliesHandler handles paginated reply retrieval under a parent comment
type GetRepliesHandler struct {
	service comments.Service
}

// NewGetRepliesHandler creates a new handler for fetching replies
func NewGetRepliesHandler(service comments.Service) *GetRepliesHandler {
	return &GetRepliesHandler{service: service}
}

// HandleGetReplies handles GET /posts/{postID}/comments/{commentID}/replies
// Replies are returned oldest first.
func (h *GetRepliesHandler) HandleGetReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "postID must be a valid UUID")
		return
	}
	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "commentID must be a valid UUID")
		return
	}

	query := r.URL.Query()

	limit, ok := parseLimit(w, query.Get("limit"))
	if !ok {
		return
	}

	var cursor *string
	if c := query.Get("cursor"); c != "" {
		cursor = &c
	}

	resp, err := h.service.GetReplies(r.Context(), &comments.GetRepliesRequest{
		PostID:    postID,
		CommentID: commentID,
		Limit:     limit,
		Cursor:    cursor,
		Viewer:    viewerFrom(r),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
