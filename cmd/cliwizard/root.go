package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cliwizard/cliwizard/internal/logger"
	"github.com/cliwizard/cliwizard/pkg/cache"
	"github.com/cliwizard/cliwizard/pkg/cli/builtin"
	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/generate"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/cliwizard/cliwizard/pkg/progress"
	"github.com/cliwizard/cliwizard/pkg/resolve"
	"github.com/cliwizard/cliwizard/pkg/settings"
	"github.com/spf13/cobra"
)

const appName = "cliwizard"

// app holds the state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer
	// env is what configuration references resolve against
	env resolve.Environment

	settingsPath string
	settingsOnce sync.Once
	settings     *settings.Settings
	settingsErr  error

	cacheDir string
	spinner  bool
}

func newApp() *app {
	return &app{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		env:          resolve.EnvironFromOS(),
		settingsPath: settings.Path(appName),
		cacheDir:     cache.Dir(appName),
		spinner:      true,
	}
}

// Settings loads the tool settings on first use.
func (a *app) Settings() (*settings.Settings, error) {
	a.settingsOnce.Do(func() {
		a.settings, a.settingsErr = settings.Load(a.settingsPath)
	})
	return a.settings, a.settingsErr
}

// Cache opens the remote spec cache.
func (a *app) Cache() (*cache.SpecCache, error) {
	c, err := cache.NewSpecCacheAt(a.cacheDir)
	if err != nil {
		return nil, err
	}
	if s, err := a.Settings(); err == nil {
		if ttl := s.Duration(settings.KeyCacheTTL); ttl > 0 {
			c.DefaultTTL = ttl
		}
	}
	return c, nil
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "cliwizard - Compile OpenAPI specs into CLI command trees",
		Long: `cliwizard reads a project configuration and an OpenAPI 3 document and
compiles them into the generation context of a command-line client:
the validated configuration plus a tree of command groups, commands,
arguments and options.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogging(cmd)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	cmd.PersistentFlags().String("log-format", "", "Log format (text|json)")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newPreviewCmd(a))
	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(builtin.NewConfigCommand(&builtin.ConfigOptions{
		Settings: a.Settings,
		Output:   a.stdout,
	}))
	cmd.AddCommand(builtin.NewCacheCommand(&builtin.CacheOptions{
		Cache:  a.Cache,
		Output: a.stdout,
	}))
	cmd.AddCommand(builtin.NewVersionCommand(&builtin.VersionOptions{
		Version:   version,
		BuildDate: buildDate,
		Output:    a.stdout,
	}))

	return cmd
}

// initLogging installs the default logger from the settings, the
// CLIWIZARD_ environment and the global flags.
func (a *app) initLogging(cmd *cobra.Command) error {
	s, err := a.Settings()
	if err != nil {
		return err
	}
	if err := s.BindFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	level, err := logger.ParseLevel(s.String(settings.KeyLogLevel))
	if err != nil {
		return fmt.Errorf("%s: %w", settings.KeyLogLevel, err)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose && level > slog.LevelInfo:
		level = slog.LevelInfo
	}

	logger.Init(logger.Config{
		Level:     level,
		Format:    s.String(settings.KeyLogFormat),
		Output:    a.stderr,
		AddSource: debug,
	})
	return nil
}

// projectFlags locate the configuration and spec of a project.
type projectFlags struct {
	workDir    string
	configPath string
	spec       string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.workDir, "workdir", "w", "", "Project directory (default: directory of the config file)")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to the project configuration (default: config_file setting)")
	cmd.Flags().StringVarP(&f.spec, "openapi", "o", "", "OpenAPI spec path or URL, overriding OpenapiSpec")
}

// inputs builds pipeline inputs from f, falling back to the settings.
func (a *app) inputs(f *projectFlags) (generate.Inputs, error) {
	s, err := a.Settings()
	if err != nil {
		return generate.Inputs{}, err
	}

	configPath := f.configPath
	if configPath == "" {
		configPath = s.String(settings.KeyConfigFile)
	}
	if f.workDir != "" {
		configPath = config.ResolvePath(f.workDir, configPath)
	}
	spec := f.spec
	if spec != "" && !config.IsURL(spec) {
		// -o is taken relative to the working directory
		if abs, err := filepath.Abs(spec); err == nil {
			spec = abs
		}
	}
	if spec == "" {
		spec = s.String(settings.KeyOpenapiFile)
	}

	return generate.Inputs{
		ConfigPath: configPath,
		BaseDir:    f.workDir,
		Env:        a.env,
		Spec:       spec,
	}, nil
}

// pipeline creates a pipeline whose loader caches remote specs and shows a
// spinner while fetching them.
func (a *app) pipeline() *generate.Pipeline {
	log := logger.ForComponent("pipeline")

	var specCache openapi.SpecCache
	if c, err := a.Cache(); err != nil {
		log.Warn("spec cache unavailable", "error", err)
	} else {
		specCache = c
	}
	loader := openapi.NewLoader(specCache)

	p := generate.NewPipeline(&fetchFeedback{
		loader: loader,
		progress: progress.New(&progress.Config{
			Enabled: a.spinner,
			Writer:  a.stderr,
		}),
	}, log)

	if s, err := a.Settings(); err == nil {
		p.Discover = s.Bool(settings.KeyDiscover)
		if ttl := s.Duration(settings.KeyCacheTTL); ttl > 0 {
			loader.CacheTTL = ttl
		}
	}
	return p
}

// fetchFeedback shows progress around remote spec loads.
type fetchFeedback struct {
	loader   generate.SpecLoader
	progress progress.Progress
}

func (f *fetchFeedback) Load(ctx context.Context, location, baseDir string) (*openapi.Catalog, error) {
	if !config.IsURL(location) {
		return f.loader.Load(ctx, location, baseDir)
	}

	_ = f.progress.Start("Fetching " + location)
	catalog, err := f.loader.Load(ctx, location, baseDir)
	if err != nil {
		_ = f.progress.Failure("Failed to fetch " + location)
		return nil, err
	}
	_ = f.progress.Success(fmt.Sprintf("Fetched %s (%d operations)", location, len(catalog.Operations)))
	return catalog, nil
}
