package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary. The linker fills in Version,
// GitCommit and BuildDate; the rest comes from the runtime.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// VersionOptions holds options for the version command.
type VersionOptions struct {
	Short  bool
	Format string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	opts := &VersionOptions{}
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	if info.Platform == "" {
		info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the kudusql version, the commit and date it was built from, and the Go toolchain.`,
		Example: `  kudusql version
  kudusql version --short
  kudusql version --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch {
			case opts.Short:
				_, err := fmt.Fprintln(w, info.Version)
				return err
			case opts.Format == "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case opts.Format == "" || opts.Format == "text":
				_, err := fmt.Fprintf(w, "kudusql v%s\nKudu/Impala schema tooling\n  commit: %s\n  built:  %s\n  go:     %s %s\n",
					info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
				return err
			default:
				return fmt.Errorf("unknown format %q (use text or json)", opts.Format)
			}
		},
	}

	cmd.Flags().BoolVar(&opts.Short, "short", false, "Print the version number only")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	return cmd
}
