// Package comments provides HTTP handlers for the comment feed API.
// Handlers parse and validate the HTTP surface and delegate to the
// comments service layer.
package comments

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SushiIsYummy/blog-api/internal/api/middleware"
	"github.com/SushiIsYummy/blog-api/internal/core/comments"
	"github.com/SushiIsYummy/blog-api/internal/core/users"
)

// GetCommentsHandler handles paginated comment retrieval for posts
type GetCommentsHandler struct {
	service comments.Service
}

// NewGetCommentsHandler creates a new handler for fetching a comment page
func NewGetCommentsHandler(service comments.Service) *GetCommentsHandler {
	return &GetCommentsHandler{service: service}
}

// HandleGetComments handles GET /posts/{postID}/comments
// Query parameters: category (newest|top), limit, cursor, excluded_ids
func (h *GetCommentsHandler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "postID must be a valid UUID")
		return
	}

	query := r.URL.Query()

	category := query.Get("category")
	if category == "" {
		category = comments.CategoryNewest
	}
	if category != comments.CategoryNewest && category != comments.CategoryTop {
		writeError(w, http.StatusBadRequest, "InvalidRequest",
			"category must be one of: newest, top")
		return
	}

	limit, ok := parseLimit(w, query.Get("limit"))
	if !ok {
		return
	}

	var cursor *string
	if c := query.Get("cursor"); c != "" {
		cursor = &c
	}

	excludedIDs, ok := parseExcludedIDs(w, query.Get("excluded_ids"))
	if !ok {
		return
	}

	resp, err := h.service.GetPage(r.Context(), &comments.GetPageRequest{
		PostID:      postID,
		Category:    category,
		Limit:       limit,
		Cursor:      cursor,
		ExcludedIDs: excludedIDs,
		Viewer:      viewerFrom(r),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseLimit validates the limit query parameter, writing an error response
// and returning ok=false on failure. A missing limit parses to zero and the
// service applies its default.
func parseLimit(w http.ResponseWriter, limitStr string) (int, bool) {
	if limitStr == "" {
		return 0, true
	}

	parsed, err := strconv.Atoi(limitStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a valid integer")
		return 0, false
	}
	if parsed < 1 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "limit must be positive")
		return 0, false
	}
	if parsed > comments.MaxPageLimit {
		writeError(w, http.StatusBadRequest, "InvalidRequest",
			"limit cannot exceed "+strconv.Itoa(comments.MaxPageLimit))
		return 0, false
	}

	return parsed, true
}

// parseExcludedIDs parses the comma-separated excluded_ids parameter.
// Clients send ids of comments they already rendered out-of-band (e.g. one
// the viewer just posted) so the first page doesn't repeat them.
func parseExcludedIDs(w http.ResponseWriter, raw string) ([]uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest",
				"excluded_ids must be a comma-separated list of UUIDs")
			return nil, false
		}
		ids = append(ids, id)
	}

	return ids, true
}

// viewerFrom builds the service-layer viewer from the request's principal.
// Guests and unauthenticated requests get a nil viewer; a guest principal
// has no votes to surface, so the batch lookup is skipped entirely.
func viewerFrom(r *http.Request) *comments.Viewer {
	principal := middleware.GetPrincipal(r)
	if principal == nil || principal.Role == users.RoleGuest {
		return nil
	}
	return &comments.Viewer{UserID: principal.UserID}
}
