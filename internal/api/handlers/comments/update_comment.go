package comments

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/core/comments"
)

// UpdateCommentHandler handles comment content edits
type UpdateCommentHandler struct {
	service comments.Service
}

// NewUpdateCommentHandler creates a new handler for editing comments
func NewUpdateCommentHandler(service comments.Service) *UpdateCommentHandler {
	return &UpdateCommentHandler{service: service}
}

type updateCommentBody struct {
	Content string `json:"content"`
}

// HandleUpdateComment handles PATCH /posts/{postID}/comments/{commentID}
// Only the comment's author may edit it.
func (h *UpdateCommentHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireWriter(w, r)
	if !ok {
		return
	}

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

	var body updateCommentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Request body must be valid JSON")
		return
	}

	view, err := h.service.UpdateComment(r.Context(), comments.UpdateCommentRequest{
		PostID:    postID,
		CommentID: commentID,
		ActorID:   principal.UserID,
		Content:   body.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
