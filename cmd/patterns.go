package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/patternlab/patternlab/internal/registry"
)

var patternsFormat string

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the registered playground patterns",
	Long: `List every pattern the playground serves, with its category,
slug, and supported actions.

Examples:
  patternlab patterns
  patternlab patterns --format json`,
	RunE: runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.Flags().StringVarP(&patternsFormat, "format", "f", "table", "Output format (table, json)")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	reg := registry.NewPatternRegistry()
	patterns := reg.GetAll()

	if patternsFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(patterns)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSLUG\tTITLE\tACTIONS")
	for _, p := range patterns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.Category, p.Slug, p.Title, len(p.Actions))
	}
	return w.Flush()
}
