package compare

import (
	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// Similarity holds per-algorithm similarity scores in [0, 1], each rounded
// to 4 decimal places. Average is the mean of the three rounded scores,
// rounded again.
type Similarity struct {
	A       float64 `json:"aSimilarity"`
	D       float64 `json:"dSimilarity"`
	P       float64 `json:"pSimilarity"`
	Average float64 `json:"averageSimilarity"`
}

func newSimilarity(a, d, p float64) Similarity {
	return Similarity{
		A:       a,
		D:       d,
		P:       p,
		Average: fingerprint.Round4((a + d + p) / 3),
	}
}

// CompareFingerprints scores two fingerprints hash by hash.
func CompareFingerprints(ref, cand *fingerprint.Fingerprint) (Similarity, error) {
	a, err := fingerprint.Similarity(ref.AHash, cand.AHash)
	if err != nil {
		return Similarity{}, err
	}
	d, err := fingerprint.Similarity(ref.DHash, cand.DHash)
	if err != nil {
		return Similarity{}, err
	}
	p, err := fingerprint.Similarity(ref.PHash, cand.PHash)
	if err != nil {
		return Similarity{}, err
	}
	return newSimilarity(a, d, p), nil
}
