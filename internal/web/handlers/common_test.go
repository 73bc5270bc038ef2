package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/fetch"
	"github.com/kozaktomas/image-compare/internal/search"
)

func TestRespondJSON_SetsContentTypeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"BadRequest", http.StatusBadRequest},
		{"BadGateway", http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, map[string]string{"status": "ok"})

			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got '%s'", result["error"])
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid pages", fmt.Errorf("%w: out of range", search.ErrInvalidPages), http.StatusBadRequest},
		{"missing key", search.ErrMissingAPIKey, http.StatusServiceUnavailable},
		{"search API", &search.APIError{Status: 403, Body: "denied"}, http.StatusBadGateway},
		{"image fetch", &compare.Error{Stage: compare.StageFetch, Err: &fetch.HTTPError{Status: 404}}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Errorf("statusForError() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParsePages(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"pages=3", 3, false},
		{"pages=-1", -1, false},
		{"pages=abc", 0, true},
	}

	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/api/search?"+tc.query, nil)
		got, err := parsePages(req)
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: error = %v, wantErr %v", tc.query, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("%q: got %d, want %d", tc.query, got, tc.want)
		}
	}
}

func TestQueryParam_FirstNonEmpty(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/search?q=&query=mug", nil)
	if got := queryParam(req, "q", "query"); got != "mug" {
		t.Errorf("expected 'mug', got '%s'", got)
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("mug\r\nfake entry"); got != "mugfake entry" {
		t.Errorf("unexpected sanitized value %q", got)
	}
}
