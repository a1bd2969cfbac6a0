// Package builder compiles an operation catalog into a command tree.
//
// Each operation is filtered by its tags (ExcludeTags first, then
// IncludeTags), then placed once in the group of every surviving tag. Group
// and command names come from TagMapping and CommandMapping, or are derived
// in kebab-case from the tag and operation identifier. An x-cli-command
// extension on the operation ranks between CommandMapping and the derived
// name. Groups appear in the order their tags are first seen in the catalog
// and commands in catalog order, so the same inputs always compile to the
// same tree.
package builder

import (
	"log/slog"
	"sort"

	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/naming"
	"github.com/cliwizard/cliwizard/pkg/openapi"
)

// Builder compiles catalogs with a fixed API configuration.
type Builder struct {
	api    config.APIConfig
	logger *slog.Logger

	exclude map[string]bool
	include map[string]bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder for the API section of a configuration.
func NewBuilder(api config.APIConfig, opts ...BuilderOption) *Builder {
	b := &Builder{
		api:     api,
		logger:  slog.Default(),
		exclude: toSet(api.ExcludeTags),
		include: toSet(api.IncludeTags),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile compiles catalog with api.
func Compile(catalog *openapi.Catalog, api config.APIConfig, opts ...BuilderOption) (*Tree, error) {
	return NewBuilder(api, opts...).Build(catalog)
}

// Build compiles catalog into a tree. The only error is *NamingConflict.
func (b *Builder) Build(catalog *openapi.Catalog) (*Tree, error) {
	tree := &Tree{Groups: []*Group{}}
	for _, w := range b.unknownReferences(catalog) {
		b.logger.Warn("ignoring unknown reference",
			"setting", w.Setting, "reference", w.Reference)
		tree.Warnings = append(tree.Warnings, w)
	}

	groups := make(map[string]*Group)
	for _, op := range catalog.Operations {
		tags := b.expand(op)
		if len(tags) == 0 {
			b.logger.Debug("operation filtered out", "operation", op.ID, "tags", op.Tags)
			continue
		}

		cmd := b.buildCommand(op)
		for _, tag := range tags {
			name := b.groupName(tag)
			group, ok := groups[name]
			if !ok {
				group = &Group{
					Name:        name,
					ModuleName:  naming.Snake(name),
					Description: catalog.TagDescription(tag),
				}
				groups[name] = group
				tree.Groups = append(tree.Groups, group)
			}
			if !contains(group.Tags, tag) {
				group.Tags = append(group.Tags, tag)
			}
			if group.hasOperation(op.ID) {
				continue
			}
			if existing, taken := group.Command(cmd.Name); taken {
				return nil, &NamingConflict{
					Group:      group.Name,
					Command:    cmd.Name,
					Operations: []string{existing.OperationID, op.ID},
				}
			}
			placed := *cmd
			group.Commands = append(group.Commands, &placed)
		}
	}
	return tree, nil
}

// expand returns the tags op is placed under: its tags minus ExcludeTags,
// restricted to IncludeTags when that is non-empty.
func (b *Builder) expand(op *openapi.Operation) []string {
	var out []string
	for _, tag := range op.Tags {
		if b.exclude[tag] {
			continue
		}
		if len(b.include) > 0 && !b.include[tag] {
			continue
		}
		if !contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func (b *Builder) groupName(tag string) string {
	if name, ok := b.api.TagMapping[tag]; ok {
		return name
	}
	return toCommandName(tag)
}

// commandName prefers CommandMapping, then the x-cli-command extension,
// then the kebab-case operation identifier.
func (b *Builder) commandName(op *openapi.Operation) string {
	if name, ok := b.api.CommandMapping[op.ID]; ok {
		return name
	}
	if op.CLI.Command != "" {
		return op.CLI.Command
	}
	return toCommandName(op.ID)
}

func (b *Builder) buildCommand(op *openapi.Operation) *Command {
	cmd := &Command{
		Name:        b.commandName(op),
		FuncName:    naming.Snake(op.ID),
		OperationID: op.ID,
		Method:      op.Method,
		Path:        op.Path,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Aliases:     op.CLI.Aliases,
		Hidden:      op.CLI.Hidden,
	}
	cmd.Arguments = buildArguments(op)
	cmd.Options = buildOptions(op, cmd.Arguments)
	if op.RequestBody != nil {
		cmd.BodyContentType = op.RequestBody.ContentType
	}
	return cmd
}

// unknownReferences lists filter and mapping entries that match nothing in
// catalog, in setting order and then list or sorted key order.
func (b *Builder) unknownReferences(catalog *openapi.Catalog) []*UnknownTagReference {
	var out []*UnknownTagReference
	checkTags := func(setting string, tags []string) {
		for _, tag := range tags {
			if !catalog.HasTag(tag) {
				out = append(out, &UnknownTagReference{Setting: setting, Reference: tag})
			}
		}
	}
	checkTags("ExcludeTags", b.api.ExcludeTags)
	checkTags("IncludeTags", b.api.IncludeTags)
	checkTags("TagMapping", sortedKeys(b.api.TagMapping))

	for _, id := range sortedKeys(b.api.CommandMapping) {
		if _, ok := catalog.Operation(id); !ok {
			out = append(out, &UnknownTagReference{Setting: "CommandMapping", Reference: id})
		}
	}
	return out
}

// toCommandName converts a tag or identifier to a kebab-case command name.
func toCommandName(s string) string {
	if name := naming.Kebab(s); name != "" {
		return name
	}
	return s
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
