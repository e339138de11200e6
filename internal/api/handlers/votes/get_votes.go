package votes

import (
	"net/http"

	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

// GetVotesHandler handles reading a comment's vote counters
type GetVotesHandler struct {
	service votes.Service
}

// NewGetVotesHandler creates a new handler for reading vote counts
func NewGetVotesHandler(service votes.Service) *GetVotesHandler {
	return &GetVotesHandler{service: service}
}

type getVotesResponse struct {
	Counts   votes.Counts `json:"counts"`
	UserVote *int         `json:"user_vote,omitempty"`
}

// HandleGetVotes handles GET /posts/{postID}/comments/{commentID}/votes
// Returns the live counters plus, for authenticated viewers, their own vote.
func (h *GetVotesHandler) HandleGetVotes(w http.ResponseWriter, r *http.Request) {
	postID, commentID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	counts, err := h.service.GetCounts(r.Context(), postID, commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := getVotesResponse{Counts: counts}
	if principal := middleware.GetPrincipal(r); principal != nil {
		userVotes, err := h.service.GetUserVote(r.Context(), principal.UserID, commentID)
		if err == nil && userVotes != nil {
			resp.UserVote = &userVotes.VoteValue
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
