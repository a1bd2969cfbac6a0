package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cliwizard/cliwizard/internal/logger"
	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/generate"
	"github.com/cliwizard/cliwizard/pkg/settings"
	"github.com/davecgh/go-spew/spew"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		project   projectFlags
		outputDir string
		format    string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile the configuration and spec into a generation context",
		Long: `Compile the project configuration and its OpenAPI document into the
generation context and write it to the output directory.

This command:
  1. Resolves ${VAR} and #[Key] references in the configuration
  2. Validates every option, reporting all violations at once
  3. Loads the OpenAPI 3 document from a file or URL
  4. Compiles the operations into command groups and commands
  5. Writes context.json (or context.yaml) to the output directory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.Settings()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = s.String(settings.KeyContextFormat)
			}
			if format != generate.FormatJSON && format != generate.FormatYAML {
				return fmt.Errorf("unsupported format %q (json|yaml)", format)
			}
			if outputDir == "" {
				outputDir = config.ResolvePath(project.workDir, s.String(settings.KeyOutputDir))
			}
			debug, _ := cmd.Flags().GetBool("debug")

			in, err := a.inputs(&project)
			if err != nil {
				return err
			}
			run := func(ctx context.Context) (*generate.Context, error) {
				return a.generate(ctx, in, outputDir, format, debug)
			}

			_, err = run(cmd.Context())
			if !watch {
				return err
			}
			if err != nil {
				printError(a.stderr, err)
			}
			return a.watch(cmd.Context(), in, run)
		},
	}

	project.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "outdir", "d", "", "Output directory (default: output_dir setting)")
	cmd.Flags().StringVar(&format, "format", generate.FormatJSON, "Context format (json|yaml)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Regenerate when the configuration or spec changes")

	return cmd
}

// generate runs the pipeline once and writes the context file.
func (a *app) generate(ctx context.Context, in generate.Inputs, outputDir, format string, debug bool) (*generate.Context, error) {
	genCtx, err := a.pipeline().Run(ctx, in)
	if err != nil {
		return nil, err
	}
	genCtx.Config = genCtx.Config.ResolvePaths(in.BaseDirectory())
	if debug {
		spew.Fdump(a.stderr, genCtx.Config)
	}

	for _, w := range genCtx.Warnings {
		pterm.Warning.WithWriter(a.stderr).Println(w)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, generate.Filename(format))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := genCtx.Encode(f, format); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	pterm.Success.WithWriter(a.stdout).Printf("Wrote %s (%d groups, %d commands)\n",
		path, genCtx.Stats.Groups, genCtx.Stats.Commands)
	return genCtx, nil
}

// watch re-runs generation whenever the configuration or a local spec
// changes, until interrupted.
//
// The watched files come from the configuration, not from the last
// successful run, so a spec that failed to load is still watched.
func (a *app) watch(ctx context.Context, in generate.Inputs, run func(context.Context) (*generate.Context, error)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := a.pipeline()
	files := func() []string { return p.WatchFiles(in) }

	pterm.Info.WithWriter(a.stdout).Println("Watching for changes (Ctrl+C to stop)...")
	w := generate.NewWatcher(logger.ForComponent("watch"), files()...)
	w.Refresh = files
	return w.Run(ctx, func(changed string) error {
		pterm.Info.WithWriter(a.stdout).Printf("%s changed, regenerating...\n", filepath.Base(changed))
		_, err := run(ctx)
		if err != nil {
			printError(a.stderr, err)
		}
		return nil
	})
}
