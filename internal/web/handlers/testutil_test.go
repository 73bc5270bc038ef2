package handlers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// nullLogger returns a logger that discards everything
func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// fakeSearcher returns canned results and records the last call
type fakeSearcher struct {
	results []compare.Candidate
	err     error

	mu        sync.Mutex
	calls     int
	lastQuery string
	lastPages int
}

func (f *fakeSearcher) Search(_ context.Context, query string, pages int) ([]compare.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = query
	f.lastPages = pages
	return f.results, f.err
}

// fakeComparer scores candidates from a name -> average table.
// Candidates without an image resolve to NoImage, unknown names fail.
type fakeComparer struct {
	scores map[string]float64
	// block, when set, holds RunWithProgress until it is closed or ctx is done.
	block chan struct{}

	mu             sync.Mutex
	lastReference  string
	lastCandidates []compare.Candidate
}

func (f *fakeComparer) Run(ctx context.Context, referenceURL string, candidates []compare.Candidate) []compare.Result {
	return f.RunWithProgress(ctx, referenceURL, candidates, nil)
}

func (f *fakeComparer) RunWithProgress(ctx context.Context, referenceURL string, candidates []compare.Candidate, onProgress func(done, total int)) []compare.Result {
	f.mu.Lock()
	f.lastReference = referenceURL
	f.lastCandidates = candidates
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}

	results := make([]compare.Result, len(candidates))
	for i, c := range candidates {
		avg, ok := f.scores[c.Name]
		switch {
		case c.Image == "":
			results[i] = compare.NoImage(c)
		case !ok:
			results[i] = compare.Failed(c, &compare.Error{Role: compare.RoleCandidate, Stage: compare.StageFetch, Err: context.DeadlineExceeded})
		default:
			results[i] = compare.Compared(c, compare.Similarity{A: avg, D: avg, P: avg, Average: avg})
		}
		if onProgress != nil {
			onProgress(i+1, len(candidates))
		}
	}
	return results
}

// fakeFingerprinter returns a fixed fingerprint or error
type fakeFingerprinter struct {
	fp  *fingerprint.Fingerprint
	err error
}

func (f *fakeFingerprinter) Fingerprint(_ context.Context, _ string) (*fingerprint.Fingerprint, error) {
	return f.fp, f.err
}
