package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/fingerprint"
	"github.com/kozaktomas/image-compare/internal/search"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 1 << 20

// Comparer scores candidates against a reference image. *compare.Batch implements it.
type Comparer interface {
	Run(ctx context.Context, referenceURL string, candidates []compare.Candidate) []compare.Result
	RunWithProgress(ctx context.Context, referenceURL string, candidates []compare.Candidate, onProgress func(done, total int)) []compare.Result
}

// Fingerprinter computes the hashes of a remote image. *compare.Engine implements it.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, url string) (*fingerprint.Fingerprint, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var apiErr *search.APIError
	var compareErr *compare.Error
	switch {
	case errors.Is(err, search.ErrInvalidPages):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.As(err, &compareErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// queryParam returns the first non-empty query parameter among names.
func queryParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// parsePages reads the "pages" query parameter, defaulting to 1.
func parsePages(r *http.Request) (int, error) {
	s := queryParam(r, "pages")
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("'pages' must be an integer")
	}
	return n, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
