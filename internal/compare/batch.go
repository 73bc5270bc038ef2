package compare

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

// DefaultConcurrency is the number of candidate comparisons run at once.
const DefaultConcurrency = 6

// BatchOptions configures a Batch.
type BatchOptions struct {
	// Concurrency bounds the comparisons in flight (default 6).
	Concurrency int
	// Timeout is an optional deadline for the whole batch; zero means none.
	// Candidates still running when it expires fail individually.
	Timeout time.Duration
	// OnProgress is called after each candidate is resolved. It may be
	// called from several goroutines at once.
	OnProgress func(done, total int)
}

// Batch compares many candidates against one reference image.
type Batch struct {
	engine *Engine
	opts   BatchOptions
	log    logrus.FieldLogger
}

// NewBatch creates a Batch running comparisons through engine.
func NewBatch(engine *Engine, opts BatchOptions, log logrus.FieldLogger) *Batch {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Batch{
		engine: engine,
		opts:   opts,
		log:    log,
	}
}

// Run returns one Result per candidate, in candidate order.
//
// The reference image is fingerprinted once and reused, and is not fetched
// at all when no candidate has an image. Candidates without an image
// resolve to NoImage and are never fetched. A failing candidate resolves to
// Failed and does not affect its siblings. If the reference itself fails,
// every candidate with an image fails together with that one error; the
// reference fetch is not repeated per candidate.
func (b *Batch) Run(ctx context.Context, referenceURL string, candidates []Candidate) []Result {
	return b.RunWithProgress(ctx, referenceURL, candidates, b.opts.OnProgress)
}

// RunWithProgress is Run with a per-call progress callback in place of
// BatchOptions.OnProgress.
func (b *Batch) RunWithProgress(ctx context.Context, referenceURL string, candidates []Candidate, onProgress func(done, total int)) []Result {
	results := make([]Result, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	log := b.log.WithFields(logrus.Fields{
		"batch_id":    uuid.New().String(),
		"candidates":  len(candidates),
		"concurrency": b.opts.Concurrency,
	})
	log.Info("Starting batch comparison")
	start := time.Now()

	var done atomic.Int64
	progress := func() {
		n := int(done.Add(1))
		if onProgress != nil {
			onProgress(n, len(candidates))
		}
	}

	var ref *fingerprint.Fingerprint
	var refErr error
	if slices.ContainsFunc(candidates, hasImage) {
		ref, refErr = b.engine.Fingerprint(ctx, referenceURL)
	}
	if refErr != nil {
		refErr = withRole(refErr, RoleReference)
		log.WithError(refErr).Warn("Reference image failed, candidates with images will be marked failed")
	}

	// Goroutines never return an error, so a failure cannot cancel its siblings.
	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)

	for i, c := range candidates {
		if c.Image == "" {
			results[i] = NoImage(c)
			progress()
			continue
		}
		if refErr != nil {
			results[i] = Failed(c, refErr)
			progress()
			continue
		}

		g.Go(func() error {
			results[i] = b.compareCandidate(ctx, log, ref, c)
			progress()
			return nil
		})
	}
	g.Wait()

	summary := Summarize(results)
	log.WithFields(logrus.Fields{
		"compared": summary.Compared,
		"no_image": summary.NoImage,
		"failed":   summary.Failed,
		"duration": time.Since(start),
	}).Info("Batch comparison finished")

	return results
}

func hasImage(c Candidate) bool {
	return c.Image != ""
}

func (b *Batch) compareCandidate(ctx context.Context, log logrus.FieldLogger, ref *fingerprint.Fingerprint, c Candidate) Result {
	fp, err := b.engine.Fingerprint(ctx, c.Image)
	if err != nil {
		err = withRole(err, RoleCandidate)
		log.WithError(err).WithField("candidate", c.Image).Debug("Candidate comparison failed")
		return Failed(c, err)
	}

	s, err := score(ref, fp, c.Image)
	if err != nil {
		return Failed(c, err)
	}
	return Compared(c, s)
}
