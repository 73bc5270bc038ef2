package compare

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Candidate is one search result to be compared against the reference image.
type Candidate struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Price        string  `json:"price,omitempty"`
	Image        string  `json:"image,omitempty"`
	ASIN         string  `json:"asin,omitempty"`
	Stars        float64 `json:"stars,omitempty"`
	TotalReviews int     `json:"totalReviews,omitempty"`
}

// Outcome tells which of the three result states a Result is in.
type Outcome int

const (
	// OutcomeNoImage means the candidate had no image; nothing was fetched.
	OutcomeNoImage Outcome = iota
	// OutcomeCompared means a similarity was computed.
	OutcomeCompared
	// OutcomeFailed means a comparison was attempted and failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoImage:
		return "no_image"
	case OutcomeCompared:
		return "compared"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a candidate together with its comparison outcome. Build one
// with NoImage, Compared or Failed; exactly one outcome holds.
type Result struct {
	Candidate

	outcome    Outcome
	similarity Similarity
	err        string
}

// NoImage returns the result for a candidate without an image.
func NoImage(c Candidate) Result {
	return Result{Candidate: c, outcome: OutcomeNoImage}
}

// Compared returns a successful result.
func Compared(c Candidate, s Similarity) Result {
	return Result{Candidate: c, outcome: OutcomeCompared, similarity: s}
}

// Failed returns the result for a comparison that returned err.
func Failed(c Candidate, err error) Result {
	return Result{Candidate: c, outcome: OutcomeFailed, err: err.Error()}
}

// Outcome returns the result state.
func (r Result) Outcome() Outcome {
	return r.outcome
}

// Similarity returns the scores; ok is false unless the outcome is OutcomeCompared.
func (r Result) Similarity() (s Similarity, ok bool) {
	return r.similarity, r.outcome == OutcomeCompared
}

// Err returns the failure description, empty unless the outcome is OutcomeFailed.
func (r Result) Err() string {
	return r.err
}

// MarshalJSON flattens the candidate fields and adds "similarity"
// (object or null) and, for failures, "error".
func (r Result) MarshalJSON() ([]byte, error) {
	payload := struct {
		Candidate
		Similarity *Similarity `json:"similarity"`
		Error      string      `json:"error,omitempty"`
	}{Candidate: r.Candidate}

	switch r.outcome {
	case OutcomeCompared:
		s := r.similarity
		payload.Similarity = &s
	case OutcomeFailed:
		payload.Error = r.err
	}
	return json.Marshal(payload)
}

// SortBySimilarity orders results by descending average similarity.
// Compared results come first; the others keep their relative order.
func SortBySimilarity(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		sa, okA := a.Similarity()
		sb, okB := b.Similarity()
		switch {
		case okA && okB:
			return cmp.Compare(sb.Average, sa.Average)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

// Summary counts results per outcome.
type Summary struct {
	Compared int `json:"compared"`
	NoImage  int `json:"noImage"`
	Failed   int `json:"failed"`
}

// Summarize counts the outcomes in results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.outcome {
		case OutcomeCompared:
			s.Compared++
		case OutcomeNoImage:
			s.NoImage++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}
