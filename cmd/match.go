package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/search"
)

var matchCmd = &cobra.Command{
	Use:   "match <reference-url> <query>",
	Short: "Search products and rank them by similarity to a reference image",
	Long: `Search Amazon for <query> and compare every product image against the
reference image. Products without an image are listed without a score;
products whose image cannot be fetched or decoded are listed with the error.

Examples:
  # Rank the first page of results
  image-compare match https://example.com/mug.jpg "ceramic mug"

  # Three pages, best matches first, 10 images at a time
  image-compare match https://example.com/mug.jpg "ceramic mug" --pages 3 --sort --concurrency 10

  # Output as JSON
  image-compare match https://example.com/mug.jpg "ceramic mug" --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Int("pages", 1, "Number of result pages to fetch (-1 = all)")
	matchCmd.Flags().String("filter", "", "Keep only products whose name contains this text")
	matchCmd.Flags().Int("concurrency", 0, "Images compared at once (default IMAGE_FETCH_CONCURRENCY)")
	matchCmd.Flags().Int("limit", 0, "Show only the first N results (0 = no limit)")
	matchCmd.Flags().Bool("sort", false, "Sort by average similarity, best first")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// newCompareProgressBar creates a progress bar for candidate comparison, or nil if JSON output.
func newCompareProgressBar(count int, jsonOutput bool) *progressbar.ProgressBar {
	if jsonOutput || count == 0 {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Comparing images"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func runMatch(cmd *cobra.Command, args []string) error {
	referenceURL := args[0]
	query := strings.TrimSpace(strings.Join(args[1:], " "))
	if query == "" {
		return errors.New("query must not be empty")
	}
	pages := mustGetInt(cmd, "pages")
	filter := mustGetString(cmd, "filter")
	concurrency := mustGetInt(cmd, "concurrency")
	limit := mustGetInt(cmd, "limit")
	sortResults := mustGetBool(cmd, "sort")
	jsonOutput := mustGetBool(cmd, "json")

	svc := loadServices(cmd)

	candidates, err := svc.searcher.Search(cmd.Context(), query, pages)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	candidates = search.FilterByName(candidates, filter)

	if !jsonOutput {
		fmt.Printf("Comparing %d products for %q against %s\n", len(candidates), query, referenceURL)
	}

	bar := newCompareProgressBar(len(candidates), jsonOutput)
	var onProgress func(done, total int)
	if bar != nil {
		onProgress = func(done, total int) {
			_ = bar.Add(1)
		}
	}

	results := svc.batch(concurrency, onProgress).Run(cmd.Context(), referenceURL, candidates)
	if bar != nil {
		fmt.Println()
	}

	if sortResults {
		compare.SortBySimilarity(results)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if jsonOutput {
		return outputJSON(map[string]any{"results": results})
	}

	fmt.Println()
	printResults(os.Stdout, results)
	return nil
}
