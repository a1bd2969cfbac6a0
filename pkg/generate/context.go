// Package generate assembles the generation context handed to the template
// renderer and chains the configuration, spec and command-tree stages into a
// single pipeline run.
package generate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cliwizard/cliwizard/internal/builder"
	"github.com/cliwizard/cliwizard/pkg/config"
	"gopkg.in/yaml.v3"
)

// KindEmptyCommandTree is the Kind of *EmptyCommandTree.
const KindEmptyCommandTree = "EmptyCommandTree"

// Output formats supported by Context.Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EmptyCommandTree is returned when API generation was requested but no
// operation survived tag filtering.
type EmptyCommandTree struct {
	Spec        string
	ExcludeTags []string
	IncludeTags []string
}

func (e *EmptyCommandTree) Kind() string { return KindEmptyCommandTree }

func (e *EmptyCommandTree) Error() string {
	msg := fmt.Sprintf("no commands generated from %s", e.Spec)
	var filters []string
	if len(e.ExcludeTags) > 0 {
		filters = append(filters, "ExcludeTags="+strings.Join(e.ExcludeTags, ","))
	}
	if len(e.IncludeTags) > 0 {
		filters = append(filters, "IncludeTags="+strings.Join(e.IncludeTags, ","))
	}
	if len(filters) > 0 {
		msg += " (check " + strings.Join(filters, " ") + ")"
	}
	return msg
}

// Stats counts what a context contains.
type Stats struct {
	Groups     int `json:"groups" yaml:"groups"`
	Commands   int `json:"commands" yaml:"commands"`
	Operations int `json:"operations" yaml:"operations"`
}

// Context is the generation context: the typed configuration and the
// command tree, plus the warnings raised while building them.
type Context struct {
	Config   *config.Config `json:"config" yaml:"config"`
	Tree     *builder.Tree  `json:"commandTree" yaml:"commandTree"`
	Warnings []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats    Stats          `json:"stats" yaml:"stats"`
}

// Assemble merges cfg and tree. A nil tree is treated as empty.
func Assemble(cfg *config.Config, tree *builder.Tree) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("assemble: config is required")
	}
	if tree == nil {
		tree = &builder.Tree{Groups: []*builder.Group{}}
	}

	api := cfg.API()
	if api.Requested && tree.Empty() {
		return nil, &EmptyCommandTree{
			Spec:        *cfg.OpenapiSpec,
			ExcludeTags: api.ExcludeTags,
			IncludeTags: api.IncludeTags,
		}
	}

	ctx := &Context{
		Config: cfg,
		Tree:   tree,
		Stats:  statsOf(tree),
	}
	for _, w := range tree.Warnings {
		ctx.Warnings = append(ctx.Warnings, w.Error())
	}
	return ctx, nil
}

func statsOf(tree *builder.Tree) Stats {
	ops := make(map[string]bool)
	for _, g := range tree.Groups {
		for _, c := range g.Commands {
			ops[c.OperationID] = true
		}
	}
	return Stats{
		Groups:     len(tree.Groups),
		Commands:   tree.CommandCount(),
		Operations: len(ops),
	}
}

// Encode writes the context in format (json or yaml).
func (c *Context) Encode(w io.Writer, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Filename returns the name of the context file written for format.
func Filename(format string) string {
	if format == FormatYAML {
		return "context.yaml"
	}
	return "context.json"
}
