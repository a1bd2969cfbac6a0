package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cliwizard/cliwizard/internal/builder"
	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/openapi"
	"github.com/cliwizard/cliwizard/pkg/resolve"
)

// SpecLoader loads an operation catalog from a file path (relative to
// baseDir) or an http(s) URL. *openapi.Loader implements it.
type SpecLoader interface {
	Load(ctx context.Context, location, baseDir string) (*openapi.Catalog, error)
}

// Inputs are the explicit inputs of one pipeline run.
type Inputs struct {
	// Config is the raw configuration document. When nil it is read from
	// ConfigPath.
	Config     []byte
	ConfigPath string
	// BaseDir anchors relative paths. Defaults to the directory of
	// ConfigPath, then to the working directory.
	BaseDir string
	// Env is the environment references are resolved against.
	Env resolve.Environment
	// Spec overrides the OpenapiSpec option when set.
	Spec string
}

// Pipeline runs configuration resolution, validation, spec loading,
// compilation and assembly in order. Every stage fails fast except
// validation, which reports all violations at once.
type Pipeline struct {
	Loader SpecLoader
	Logger *slog.Logger
	// Discover searches BaseDir for an OpenAPI document when the configured
	// spec file does not exist.
	Discover bool
}

// NewPipeline creates a pipeline. loader defaults to an uncached
// openapi.Loader.
func NewPipeline(loader SpecLoader, logger *slog.Logger) *Pipeline {
	if loader == nil {
		loader = openapi.NewLoader(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Loader: loader, Logger: logger}
}

// Run executes every stage and returns the generation context. On error no
// partial context is returned; the error can be matched with errors.As
// against the typed errors of each stage.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Context, error) {
	cfg, _, err := p.Config(in)
	if err != nil {
		return nil, err
	}
	tree, err := p.Tree(ctx, cfg, in.BaseDirectory())
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, tree)
}

// Config resolves and validates the configuration of in. The resolved
// document is returned alongside validation errors so callers can show
// what the validator saw.
func (p *Pipeline) Config(in Inputs) (*config.Config, *config.Resolved, error) {
	raw, err := in.raw()
	if err != nil {
		return nil, nil, err
	}
	if in.Spec != "" {
		raw = raw.With("OpenapiSpec", in.Spec)
	}

	cfg, resolved, err := config.Load(raw, in.Env)
	if err != nil {
		return nil, resolved, err
	}
	p.Logger.Debug("configuration loaded",
		"package", cfg.PackageName, "keys", resolved.Config.Len())
	return cfg, resolved, nil
}

// Catalog loads the OpenAPI document configured in cfg. It returns nil
// when OpenapiSpec is null.
func (p *Pipeline) Catalog(ctx context.Context, cfg *config.Config, baseDir string) (*openapi.Catalog, error) {
	if cfg.OpenapiSpec == nil {
		p.Logger.Debug("API generation not requested")
		return nil, nil
	}

	location := *cfg.OpenapiSpec
	if p.Discover && !config.IsURL(location) {
		path := config.ResolvePath(baseDir, location)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			found, derr := DiscoverSpec(baseDir)
			if derr != nil {
				return nil, fmt.Errorf("spec %s not found: %w", location, derr)
			}
			p.Logger.Info("using discovered spec", "configured", location, "found", found)
			location = found
		}
	}

	catalog, err := p.Loader.Load(ctx, location, baseDir)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("spec loaded",
		"title", catalog.Title, "version", catalog.OpenAPIVersion,
		"operations", len(catalog.Operations))
	return catalog, nil
}

// Tree loads the configured spec and compiles it. When OpenapiSpec is null
// the tree is empty.
func (p *Pipeline) Tree(ctx context.Context, cfg *config.Config, baseDir string) (*builder.Tree, error) {
	catalog, err := p.Catalog(ctx, cfg, baseDir)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return &builder.Tree{Groups: []*builder.Group{}}, nil
	}
	return builder.Compile(catalog, cfg.API(), builder.WithLogger(p.Logger))
}

// WatchFiles returns the local files a run of in reads: the configuration
// file and, when the configuration is valid, the local spec file. The spec
// is not loaded, so a broken spec is still reported.
func (p *Pipeline) WatchFiles(in Inputs) []string {
	var files []string
	if in.Config == nil && in.ConfigPath != "" {
		files = append(files, in.ConfigPath)
	}
	cfg, _, err := p.Config(in)
	if err != nil {
		return files
	}
	if spec, ok := cfg.SpecLocation(in.BaseDirectory()); ok && !config.IsURL(spec) {
		files = append(files, spec)
	}
	return files
}

func (in Inputs) raw() (*config.RawConfig, error) {
	if in.Config != nil {
		return config.ParseRaw(in.Config)
	}
	if in.ConfigPath == "" {
		return nil, fmt.Errorf("no configuration given")
	}
	return config.LoadRawFile(in.ConfigPath)
}

// BaseDirectory returns the directory relative paths of in are anchored to.
func (in Inputs) BaseDirectory() string {
	if in.BaseDir != "" {
		return in.BaseDir
	}
	if in.ConfigPath != "" {
		return filepath.Dir(in.ConfigPath)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
