package comments

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	"github.com/SushiIsYummy/blog-api/internal/core/comments"
	"github.com/SushiIsYummy/blog-api/internal/core/users"
)

// CreateCommentHandler handles comment creation
type CreateCommentHandler struct {
	service comments.Service
}

// NewCreateCommentHandler creates a new handler for posting comments
func NewCreateCommentHandler(service comments.Service) *CreateCommentHandler {
	return &CreateCommentHandler{service: service}
}

type createCommentBody struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// HandleCreateComment handles POST /posts/{postID}/comments
func (h *CreateCommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireWriter(w, r)
	if !ok {
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "postID must be a valid UUID")
		return
	}

	var body createCommentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Request body must be valid JSON")
		return
	}

	view, err := h.service.CreateComment(r.Context(), comments.CreateCommentRequest{
		PostID:   postID,
		ParentID: body.ParentID,
		AuthorID: principal.UserID,
		Content:  body.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// requireWriter enforces that the principal may mutate content. Guests can
// authenticate but hold a read-only role.
func requireWriter(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return nil, false
	}
	if principal.Role == users.RoleGuest {
		writeError(w, http.StatusForbidden, "Forbidden", "Guests cannot perform this action")
		return nil, false
	}
	return principal, true
}
