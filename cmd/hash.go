package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-compare/internal/compare"
	"github.com/kozaktomas/image-compare/internal/fingerprint"
)

var hashCmd = &cobra.Command{
	Use:   "hash <file-or-url>...",
	Short: "Print the perceptual hashes of images",
	Long: `Compute aHash, dHash and pHash for local image files or image URLs.

Examples:
  image-compare hash photo.jpg
  image-compare hash --hex https://example.com/a.jpg photo.png
  image-compare hash --json photo.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().Bool("json", false, "Output as JSON")
	hashCmd.Flags().Bool("hex", false, "Print hashes as hex instead of bit strings")
}

// HashOutput is the JSON form of one hashed image.
type HashOutput struct {
	Source string `json:"source"`
	fingerprint.Fingerprint
	Error string `json:"error,omitempty"`
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// hashSource fingerprints a URL through the engine or a local file directly.
func hashSource(ctx context.Context, engine *compare.Engine, source string) (*fingerprint.Fingerprint, error) {
	if isURL(source) {
		return engine.Fingerprint(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	fp, err := fingerprint.Compute(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return fp, nil
}

func runHash(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	hexOutput := mustGetBool(cmd, "hex")
	svc := loadServices(cmd)

	outputs := make([]HashOutput, 0, len(args))
	failed := 0
	for _, source := range args {
		out := HashOutput{Source: source}
		fp, err := hashSource(cmd.Context(), svc.engine, source)
		if err != nil {
			out.Error = err.Error()
			failed++
		} else {
			out.Fingerprint = *fp
		}
		outputs = append(outputs, out)
	}

	if jsonOutput {
		if err := outputJSON(outputs); err != nil {
			return err
		}
	} else {
		printHashes(outputs, hexOutput)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be hashed", failed, len(args))
	}
	return nil
}

func printHashes(outputs []HashOutput, hexOutput bool) {
	format := func(h fingerprint.Hash) string {
		if hexOutput {
			return h.Hex()
		}
		return h.String()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tAHASH\tDHASH\tPHASH")
	for _, o := range outputs {
		if o.Error != "" {
			fmt.Fprintf(w, "%s\terror: %s\t\t\n", o.Source, o.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Source, format(o.AHash), format(o.DHash), format(o.PHash))
	}
	w.Flush()
}
