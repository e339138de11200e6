package votes

import (
	"net/http"

	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

// DeleteVoteHandler handles vote withdrawal
type DeleteVoteHandler struct {
	service votes.Service
}

// NewDeleteVoteHandler creates a new handler for removing votes
func NewDeleteVoteHandler(service votes.Service) *DeleteVoteHandler {
	return &DeleteVoteHandler{service: service}
}

// HandleDeleteVote handles DELETE /posts/{postID}/comments/{commentID}/votes/me
// Removing a vote that doesn't exist returns 404.
func (h *DeleteVoteHandler) HandleDeleteVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireVoter(w, r)
	if !ok {
		return
	}

	postID, commentID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	resp, err := h.service.RemoveVote(r.Context(), votes.RemoveVoteRequest{
		UserID:    principal.UserID,
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
