package builtin

import (
	"fmt"
	"io"
	"time"

	"github.com/cliwizard/cliwizard/pkg/cache"
	"github.com/cliwizard/cliwizard/pkg/output"
	"github.com/spf13/cobra"
)

// CacheOptions configures the cache command behavior.
type CacheOptions struct {
	// Cache opens the remote spec cache
	Cache  func() (*cache.SpecCache, error)
	Output io.Writer
}

// CacheInfo is printed by cache stats.
type CacheInfo struct {
	Directory string `json:"directory"`
	Entries   int    `json:"entries"`
	Size      string `json:"size"`
	Oldest    string `json:"oldest,omitempty"`
	Newest    string `json:"newest,omitempty"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(opts *CacheOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the remote spec cache",
		Long: `Manage the cache of OpenAPI specifications fetched over HTTP.

Cached specs are revalidated with ETags and used as a fallback when the
server cannot be reached.`,
	}

	cmd.AddCommand(newCacheStatsCommand(opts))
	cmd.AddCommand(newCacheClearCommand(opts))
	cmd.AddCommand(newCachePruneCommand(opts))

	return cmd
}

func newCacheStatsCommand(opts *CacheOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.Cache()
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(opts.Output, newCacheInfo(stats), output.DefaultStyle().WithFormat(format))
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json|yaml)")

	return cmd
}

func newCacheClearCommand(opts *CacheOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.Cache()
			if err != nil {
				return err
			}
			n, err := c.Clear(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(opts.Output, "✓ Removed %d cached spec(s)\n", n)
			return err
		},
	}
}

func newCachePruneCommand(opts *CacheOptions) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cached specs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.Cache()
			if err != nil {
				return err
			}
			n, err := c.Prune(cmd.Context(), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(opts.Output, "✓ Pruned %d expired spec(s)\n", n)
			return err
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Maximum age of kept entries (default: cache TTL)")

	return cmd
}

func newCacheInfo(stats *cache.Stats) CacheInfo {
	info := CacheInfo{
		Directory: stats.Dir,
		Entries:   stats.TotalEntries,
		Size:      formatSize(stats.TotalSize),
	}
	if stats.TotalEntries > 0 {
		info.Oldest = stats.Oldest.Format(time.RFC3339)
		info.Newest = stats.Newest.Format(time.RFC3339)
	}
	return info
}

// formatSize formats a byte size in a human-readable way.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
