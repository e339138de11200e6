package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/comments"
)

// GetCommentHandler handles single-comment retrieval
type GetCommentHandler struct {
	service comments.Service
}

// NewGetCommentHandler creates a new handler for fetching one comment
func NewGetCommentHandler(service comments.Service) *GetCommentHandler {
	return &GetCommentHandler{service: service}
}

// HandleGetComment handles GET /posts/{postID}/comments/{commentID}
func (h *GetCommentHandler) HandleGetComment(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.service.GetComment(r.Context(), postID, commentID, viewerFrom(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
