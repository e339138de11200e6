package routes

import (
	"github.com/go-chi/chi/v5"

	votesHandlers "github.com/SushiIsYummy/blog-api/internal/api/handlers/votes"
	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

// RegisterVoteRoutes registers the vote endpoints on the router.
// The viewer's own vote lives at a singleton "me" resource: PUT casts or
// changes it, DELETE withdraws it.
func RegisterVoteRoutes(r chi.Router, service votes.Service, authMiddleware *middleware.AuthMiddleware) {
	getVotesHandler := votesHandlers.NewGetVotesHandler(service)
	updateVoteHandler := votesHandlers.NewUpdateVoteHandler(service)
	deleteVoteHandler := votesHandlers.NewDeleteVoteHandler(service)

	r.With(authMiddleware.OptionalAuth).Get(
		"/posts/{postID}/comments/{commentID}/votes", getVotesHandler.HandleGetVotes)

	r.With(authMiddleware.RequireAuth).Put(
		"/posts/{postID}/comments/{commentID}/votes/me", updateVoteHandler.HandleUpdateVote)
	r.With(authMiddleware.RequireAuth).Delete(
		"/posts/{postID}/comments/{commentID}/votes/me", deleteVoteHandler.HandleDeleteVote)
}
