package builtin

import (
	"fmt"
	"io"
	"runtime"

	"github.com/cliwizard/cliwizard/pkg/output"
	"github.com/spf13/cobra"
)

// VersionInfo contains build information about cliwizard.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// VersionOptions configures the version command behavior.
type VersionOptions struct {
	Version   string
	BuildDate string
	Output    io.Writer
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(opts *VersionOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:   opts.Version,
				BuildDate: opts.BuildDate,
				GoVersion: runtime.Version(),
				Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			}
			if format == "text" {
				return formatVersionText(info, opts.Output)
			}
			return output.Write(opts.Output, info, output.DefaultStyle().WithFormat(format))
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text|json|yaml)")

	return cmd
}

// formatVersionText formats version info as human-readable text.
func formatVersionText(info VersionInfo, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "cliwizard %s\n", info.Version)
	if info.BuildDate != "" {
		_, _ = fmt.Fprintf(w, "Built: %s\n", info.BuildDate)
	}
	_, _ = fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
	_, err := fmt.Fprintf(w, "Platform: %s\n", info.Platform)
	return err
}
