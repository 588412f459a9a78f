package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/patternlab/patternlab/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"version": version.Version,
			"commit":  version.Commit,
			"date":    version.Date,
			"go":      runtime.Version(),
			"platform": fmt.Sprintf("%s/%s",
				runtime.GOOS, runtime.GOARCH),
		})
	}

	fmt.Printf("patternlab %s (commit %s, built %s, %s %s/%s)\n",
		version.Version, version.Commit, version.Date,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
