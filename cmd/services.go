package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/config"
	"github.com/kozaktomas/image-compare/internal/fetch"
	"github.com/kozaktomas/image-compare/internal/logger"
	"github.com/kozaktomas/image-compare/internal/search"
)

// services bundles the components every command is built from.
type services struct {
	cfg      *config.Config
	log      *logrus.Logger
	engine   *compare.Engine
	searcher *search.Client
}

// loadServices reads the configuration and builds the fetcher, engine and
// search client from it.
func loadServices(cmd *cobra.Command) *services {
	cfg := config.Load()
	if level := mustGetString(cmd, "log-level"); level != "" {
		cfg.Log.Level = level
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:      cfg.Compare.FetchTimeout(),
		MaxBodyBytes: cfg.Compare.FetchMaxBytes,
		UserAgent:    userAgent(),
		Retries:      cfg.Compare.FetchRetries,
	}, log)

	return &services{
		cfg:    cfg,
		log:    log,
		engine: compare.NewEngine(fetcher, log),
		searcher: search.NewClient(search.Options{
			APIKey:   cfg.Search.APIKey,
			Endpoint: cfg.Search.Endpoint,
			TLD:      cfg.Search.TLD,
			MaxPages: cfg.Search.MaxPages,
		}, log),
	}
}

// batch returns a batch comparator; concurrency 0 keeps the configured width.
func (s *services) batch(concurrency int, onProgress func(done, total int)) *compare.Batch {
	if concurrency <= 0 {
		concurrency = s.cfg.Compare.Concurrency
	}
	return compare.NewBatch(s.engine, compare.BatchOptions{
		Concurrency: concurrency,
		Timeout:     s.cfg.Compare.BatchTimeout(),
		OnProgress:  onProgress,
	}, s.log)
}

func userAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (compatible; image-compare/%s)", Version)
}
