package handlers

import (
	"net/http"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/config"
	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse describes what the running service can do. Secrets are never included.
type ConfigResponse struct {
	SearchAvailable bool     `json:"searchAvailable"`
	SearchTLD       string   `json:"searchTld"`
	MaxPages        int      `json:"maxPages"`
	Concurrency     int      `json:"concurrency"`
	FetchTimeoutMs  int      `json:"fetchTimeoutMs"`
	BatchTimeoutMs  int      `json:"batchTimeoutMs"`
	Algorithms      []string `json:"algorithms"`
}

// Get returns the public configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	concurrency := h.config.Compare.Concurrency
	if concurrency <= 0 {
		concurrency = compare.DefaultConcurrency
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		SearchAvailable: h.config.Search.APIKey != "",
		SearchTLD:       h.config.Search.TLD,
		MaxPages:        h.config.Search.MaxPages,
		Concurrency:     concurrency,
		FetchTimeoutMs:  h.config.Compare.FetchTimeoutMs,
		BatchTimeoutMs:  h.config.Compare.BatchTimeoutMs,
		Algorithms: []string{
			string(fingerprint.AlgorithmAverage),
			string(fingerprint.AlgorithmDifference),
			string(fingerprint.AlgorithmPerceptual),
		},
	})
}
