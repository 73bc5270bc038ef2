package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-compare/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Amazon products",
	Long: `Search Amazon products through ScraperAPI and list the results.

Examples:
  # First page of results
  image-compare search "ceramic mug"

  # Every page, only products whose name contains "espresso"
  image-compare search "coffee cup" --pages -1 --filter espresso

  # Output as JSON
  image-compare search "ceramic mug" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("pages", 1, "Number of result pages to fetch (-1 = all)")
	searchCmd.Flags().String("filter", "", "Keep only products whose name contains this text")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("query must not be empty")
	}
	pages := mustGetInt(cmd, "pages")
	filter := mustGetString(cmd, "filter")
	jsonOutput := mustGetBool(cmd, "json")

	svc := loadServices(cmd)

	results, err := svc.searcher.Search(cmd.Context(), query, pages)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results = search.FilterByName(results, filter)

	if jsonOutput {
		return outputJSON(results)
	}

	fmt.Printf("Found %d products for %q\n\n", len(results), query)
	printCandidates(os.Stdout, results)
	return nil
}
