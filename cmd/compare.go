package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <reference-url> <candidate-url>",
	Short: "Compare two images",
	Long: `Fetch two images and print their aHash, dHash and pHash similarity.

Examples:
  image-compare compare https://example.com/a.jpg https://example.com/b.jpg
  image-compare compare --json https://example.com/a.jpg https://example.com/b.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	svc := loadServices(cmd)

	s, err := svc.engine.Compare(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(s)
	}

	fmt.Printf("aHash similarity:   %.4f\n", s.A)
	fmt.Printf("dHash similarity:   %.4f\n", s.D)
	fmt.Printf("pHash similarity:   %.4f\n", s.P)
	fmt.Printf("Average similarity: %.4f\n", s.Average)
	return nil
}
