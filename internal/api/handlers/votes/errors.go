package votes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/SushiIsYummy/blog-api/internal/core/votes"
)

// errorResponse represents a standardized JSON error response
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code
func writeError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// handleServiceError maps service-layer errors to HTTP responses.
// A failed tally transaction maps to 500; the client may retry the
// request, the server never does.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case votes.IsNotFound(err):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())

	case errors.Is(err, votes.ErrInvalidVoteValue):
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case votes.IsTransient(err):
		log.Printf("Vote transaction failed: %v", err)
		writeError(w, http.StatusInternalServerError, "VoteTransactionFailed",
			"The vote could not be recorded; please retry")

	default:
		// Don't leak internal error details to clients
		log.Printf("Unexpected error in votes handler: %v", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
