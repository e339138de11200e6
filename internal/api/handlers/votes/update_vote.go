// Package votes provides HTTP handlers for casting, reading, and removing
// votes on comments.
package votes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	"github.com/SushiIsYummy/blog-api/internal/core/users"
	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

// UpdateVoteHandler handles casting and changing votes
type UpdateVoteHandler struct {
	service votes.Service
}

// NewUpdateVoteHandler creates a new handler for casting votes
func NewUpdateVoteHandler(service votes.Service) *UpdateVoteHandler {
	return &UpdateVoteHandler{service: service}
}

type updateVoteBody struct {
	VoteValue int `json:"vote_value"`
}

// HandleUpdateVote handles PUT /posts/{postID}/comments/{commentID}/votes/me
// The endpoint is idempotent: re-sending the same vote value is a no-op.
func (h *UpdateVoteHandler) HandleUpdateVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireVoter(w, r)
	if !ok {
		return
	}

	postID, commentID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	var body updateVoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "Request body must be valid JSON")
		return
	}

	resp, err := h.service.ApplyVote(r.Context(), votes.ApplyVoteRequest{
		UserID:    principal.UserID,
		PostID:    postID,
		CommentID: commentID,
		VoteValue: body.VoteValue,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func parsePathIDs(w http.ResponseWriter, r *http.Request) (postID, commentID uuid.UUID, ok bool) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "postID must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}
	commentID, err = uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "commentID must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return postID, commentID, true
}

// requireVoter enforces that the principal may vote. Guests are read-only.
func requireVoter(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return nil, false
	}
	if principal.Role == users.RoleGuest {
		writeError(w, http.StatusForbidden, "Forbidden", "Guests cannot vote")
		return nil, false
	}
	return principal, true
}
