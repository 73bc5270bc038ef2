// Package compare scores candidate images against a reference image using
// the three perceptual hashes from the fingerprint package.
package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/image-compare/internal/fetch"
	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// Role says which side of a comparison an image is on.
type Role string

// Comparison roles.
const (
	RoleReference Role = "reference"
	RoleCandidate Role = "candidate"
)

// Stage names the step of a comparison that failed.
type Stage string

// Comparison stages.
const (
	StageFetch Stage = "fetch"
	StageHash  Stage = "hash"
	StageScore Stage = "score"
)

// Error is the single error returned for a failed comparison.
// It wraps the fetch, decode or scoring error that caused it.
type Error struct {
	Role  Role
	Stage Stage
	URL   string
	Err   error
}

func (e *Error) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s image %s failed: %v", e.Role, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// withRole tags a comparison error with the side it came from.
func withRole(err error, role Role) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Role = role
	}
	return err
}

// Engine compares image pairs. It is safe for concurrent use.
type Engine struct {
	fetcher fetch.Fetcher
	log     logrus.FieldLogger
}

// NewEngine creates an Engine that downloads images with fetcher.
func NewEngine(fetcher fetch.Fetcher, log logrus.FieldLogger) *Engine {
	return &Engine{
		fetcher: fetcher,
		log:     log,
	}
}

// Fingerprint downloads url and computes its three hashes.
func (e *Engine) Fingerprint(ctx context.Context, url string) (*fingerprint.Fingerprint, error) {
	data, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &Error{Stage: StageFetch, URL: url, Err: err}
	}

	start := time.Now()
	fp, err := fingerprint.Compute(data)
	if err != nil {
		return nil, &Error{Stage: StageHash, URL: url, Err: err}
	}
	e.log.WithFields(logrus.Fields{
		"url":      url,
		"bytes":    len(data),
		"duration": time.Since(start),
	}).Debug("Computed fingerprint")
	return fp, nil
}

// Compare fetches both images concurrently, hashes them and scores the pair.
// Either a complete Similarity or a single *Error is returned.
func (e *Engine) Compare(ctx context.Context, referenceURL, candidateURL string) (Similarity, error) {
	var ref, cand *fingerprint.Fingerprint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fp, err := e.Fingerprint(gctx, referenceURL)
		if err != nil {
			return withRole(err, RoleReference)
		}
		ref = fp
		return nil
	})
	g.Go(func() error {
		fp, err := e.Fingerprint(gctx, candidateURL)
		if err != nil {
			return withRole(err, RoleCandidate)
		}
		cand = fp
		return nil
	})
	if err := g.Wait(); err != nil {
		return Similarity{}, err
	}

	return score(ref, cand, candidateURL)
}

func score(ref, cand *fingerprint.Fingerprint, candidateURL string) (Similarity, error) {
	s, err := CompareFingerprints(ref, cand)
	if err != nil {
		return Similarity{}, &Error{Role: RoleCandidate, Stage: StageScore, URL: candidateURL, Err: err}
	}
	return s, nil
}
