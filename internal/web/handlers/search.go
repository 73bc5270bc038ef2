package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/search"
)

// SearchHandler handles product search endpoints
type SearchHandler struct {
	searcher search.Searcher
	log      logrus.FieldLogger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher search.Searcher, log logrus.FieldLogger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		log:      log,
	}
}

// Search returns the products found for q (or query), optionally
// filtered by name.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := queryParam(r, "q", "query")
	if query == "" {
		respondError(w, http.StatusBadRequest, `Missing query "q"`)
		return
	}

	pages, err := parsePages(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.searcher.Search(r.Context(), query, pages)
	if err != nil {
		h.log.WithError(err).WithField("query", sanitizeForLog(query)).Error("Search failed")
		respondError(w, statusForError(err), err.Error())
		return
	}

	results = search.FilterByName(results, queryParam(r, "filter"))
	if results == nil {
		results = []compare.Candidate{}
	}

	respondJSON(w, http.StatusOK, results)
}
