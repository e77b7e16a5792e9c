package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tokstream/internal/manager"
	"tokstream/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// inferStatus maps a service error to a response status and, for 429s,
// the backpressure reason.
func inferStatus(err error) (int, string) {
	var he HTTPError
	switch {
	case manager.IsModelNotFound(err):
		return http.StatusNotFound, ""
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests, "queue"
	case manager.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable, ""
	case errors.As(err, &he):
		if he.StatusCode() == http.StatusTooManyRequests {
			return he.StatusCode(), "service"
		}
		return he.StatusCode(), ""
	default:
		return http.StatusInternalServerError, ""
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
