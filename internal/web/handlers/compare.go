package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/search"
)

const sortBySimilarity = "similarity"

// CompareHandler handles image comparison endpoints
type CompareHandler struct {
	searcher search.Searcher
	comparer Comparer
	log      logrus.FieldLogger
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(searcher search.Searcher, comparer Comparer, log logrus.FieldLogger) *CompareHandler {
	return &CompareHandler{
		searcher: searcher,
		comparer: comparer,
		log:      log,
	}
}

// CompareResponse is the body of both compare endpoints.
type CompareResponse struct {
	Results []compare.Result `json:"results"`
	Summary compare.Summary  `json:"summary"`
}

// CompareRequest is the body of POST /api/v1/compare.
type CompareRequest struct {
	ImageURL   string              `json:"imageUrl"`
	Candidates []compare.Candidate `json:"candidates"`
	Sort       string              `json:"sort,omitempty"`
}

// SearchAndCompare searches for q and scores every result against imageUrl.
func (h *CompareHandler) SearchAndCompare(w http.ResponseWriter, r *http.Request) {
	query := queryParam(r, "q", "query")
	if query == "" {
		respondError(w, http.StatusBadRequest, `Missing query "q"`)
		return
	}
	imageURL := queryParam(r, "imageUrl")
	if imageURL == "" {
		respondError(w, http.StatusBadRequest, "Missing imageUrl")
		return
	}

	pages, err := parsePages(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.searcher.Search(r.Context(), query, pages)
	if err != nil {
		h.log.WithError(err).WithField("query", sanitizeForLog(query)).Error("Search failed")
		respondError(w, statusForError(err), err.Error())
		return
	}
	candidates = search.FilterByName(candidates, queryParam(r, "filter"))

	h.respondResults(w, h.comparer.Run(r.Context(), imageURL, candidates), queryParam(r, "sort"))
}

// CompareCandidates scores the candidates in the request body against its imageUrl.
func (h *CompareHandler) CompareCandidates(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "Missing imageUrl")
		return
	}

	h.respondResults(w, h.comparer.Run(r.Context(), req.ImageURL, req.Candidates), req.Sort)
}

func (h *CompareHandler) respondResults(w http.ResponseWriter, results []compare.Result, sort string) {
	if sort == sortBySimilarity {
		compare.SortBySimilarity(results)
	}
	if results == nil {
		results = []compare.Result{}
	}

	respondJSON(w, http.StatusOK, CompareResponse{
		Results: results,
		Summary: compare.Summarize(results),
	})
}
