package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/image-compare/internal/compare"
)

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// printCandidates prints search results as a table.
func printCandidates(out io.Writer, candidates []compare.Candidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tPRICE\tSTARS\tIMAGE")
	fmt.Fprintln(w, "-\t----\t-----\t-----\t-----")

	for i, c := range candidates {
		image := "yes"
		if c.Image == "" {
			image = "-"
		}
		stars := "-"
		if c.Stars > 0 {
			stars = fmt.Sprintf("%.1f", c.Stars)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, truncate(c.Name, 60), c.Price, stars, image)
	}
	w.Flush()
}

// printResults prints comparison results as a table followed by a summary line.
func printResults(out io.Writer, results []compare.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tPRICE\tAVG\tA\tD\tP\tNOTE")
	fmt.Fprintln(w, "-\t----\t-----\t---\t-\t-\t-\t----")

	for i, r := range results {
		name := truncate(r.Name, 50)
		s, ok := r.Similarity()
		switch {
		case ok:
			fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t\n", i+1, name, r.Price, s.Average, s.A, s.D, s.P)
		case r.Outcome() == compare.OutcomeFailed:
			fmt.Fprintf(w, "%d\t%s\t%s\t-\t-\t-\t-\t%s\n", i+1, name, r.Price, truncate(r.Err(), 80))
		default:
			fmt.Fprintf(w, "%d\t%s\t%s\t-\t-\t-\t-\tno image\n", i+1, name, r.Price)
		}
	}
	w.Flush()

	summary := compare.Summarize(results)
	fmt.Fprintf(out, "\n%d compared, %d without image, %d failed\n", summary.Compared, summary.NoImage, summary.Failed)
}
