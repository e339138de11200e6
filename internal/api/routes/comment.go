package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/SushiIsYummy/blog-api/internal/api/handlers/comments"
	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	commentsCore "github.com/SushiIsYummy/blog-api/internal/core/comments"
)

// RegisterCommentRoutes registers the comment feed endpoints on the router.
// Reads are available to guests (with optional viewer augmentation when a
// token is present); writes require authentication.
func RegisterCommentRoutes(r chi.Router, service commentsCore.Service, authMiddleware *middleware.AuthMiddleware) {
	getCommentsHandler := comments.NewGetCommentsHandler(service)
	getRepliesHandler := comments.NewGetRepliesHandler(service)
	getCommentHandler := comments.NewGetCommentHandler(service)
	createHandler := comments.NewCreateCommentHandler(service)
	updateHandler := comments.NewUpdateCommentHandler(service)

	r.With(authMiddleware.OptionalAuth).Get(
		"/posts/{postID}/comments", getCommentsHandler.HandleGetComments)
	r.With(authMiddleware.OptionalAuth).Get(
		"/posts/{postID}/comments/{commentID}", getCommentHandler.HandleGetComment)
	r.With(authMiddleware.OptionalAuth).Get(
		"/posts/{postID}/comments/{commentID}/replies", getRepliesHandler.HandleGetReplies)

	r.With(authMiddleware.RequireAuth).Post(
		"/posts/{postID}/comments", createHandler.HandleCreateComment)
	r.With(authMiddleware.RequireAuth).Patch(
		"/posts/{postID}/comments/{commentID}", updateHandler.HandleUpdateComment)
}
