package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// FingerprintHandler exposes the hashes of a single image
type FingerprintHandler struct {
	engine Fingerprinter
	log    logrus.FieldLogger
}

// NewFingerprintHandler creates a new fingerprint handler
func NewFingerprintHandler(engine Fingerprinter, log logrus.FieldLogger) *FingerprintHandler {
	return &FingerprintHandler{
		engine: engine,
		log:    log,
	}
}

// FingerprintResponse holds the three hashes of an image, as bit strings and hex.
type FingerprintResponse struct {
	URL string `json:"url"`
	fingerprint.Fingerprint
	Hex HexHashes `json:"hex"`
}

// HexHashes holds the 16-character hex form of each hash.
type HexHashes struct {
	AHash string `json:"ahash"`
	DHash string `json:"dhash"`
	PHash string `json:"phash"`
}

// Get fetches the image at ?url= and returns its hashes.
func (h *FingerprintHandler) Get(w http.ResponseWriter, r *http.Request) {
	url := queryParam(r, "url")
	if url == "" {
		respondError(w, http.StatusBadRequest, "Missing url")
		return
	}

	fp, err := h.engine.Fingerprint(r.Context(), url)
	if err != nil {
		h.log.WithError(err).WithField("url", sanitizeForLog(url)).Warn("Fingerprint failed")
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, FingerprintResponse{
		URL:         url,
		Fingerprint: *fp,
		Hex: HexHashes{
			AHash: fp.AHash.Hex(),
			DHash: fp.DHash.Hex(),
			PHash: fp.PHash.Hex(),
		},
	})
}
