package cmd

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Build-time variables, set via -ldflags
//
//nolint:gochecknoglobals // Build-time variables for version info
var (
	// Release is the current release version
	Release = "dev"
	// GitCommit is the git commit hash
	GitCommit = "none"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and runtime version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", Release)
	fmt.Fprintf(w, "Commit:\t%s\n", GitCommit)
	fmt.Fprintf(w, "Go:\t%s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)

	return w.Flush()
}

func init() {
	// Also served by the root command's --version flag
	rootCmd.Version = fmt.Sprintf("%s (%s)", Release, GitCommit)
	rootCmd.AddCommand(versionCmd)
}
