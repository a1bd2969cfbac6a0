package builder

import (
	"fmt"
	"strings"
)

// Error kinds reported by the compiler.
const (
	KindNamingConflict      = "NamingConflict"
	KindUnknownTagReference = "UnknownTagReference"
)

// Tree is the compiled command tree.
type Tree struct {
	Groups []*Group `json:"groups" yaml:"groups"`
	// Warnings lists mapping and filter entries that matched nothing.
	Warnings []*UnknownTagReference `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Group is a named bucket of commands built from one or more tags.
type Group struct {
	Name       string `json:"name" yaml:"name"`
	ModuleName string `json:"moduleName" yaml:"moduleName"`
	// Tags are the source tags that map to this group, in first-seen order.
	Tags        []string   `json:"tags" yaml:"tags"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Commands    []*Command `json:"commands" yaml:"commands"`
}

// Command is one CLI command built from one operation.
type Command struct {
	Name        string `json:"name" yaml:"name"`
	FuncName    string `json:"funcName" yaml:"funcName"`
	OperationID string `json:"operationId" yaml:"operationId"`
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	// Aliases and Hidden come from the x-cli-aliases and x-cli-hidden
	// extensions.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Hidden  bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`

	// Arguments are the path parameters, in path order.
	Arguments []Argument `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	// Options are query, header and cookie parameters followed by request
	// body properties.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	// BodyContentType is empty when the operation has no request body.
	BodyContentType string `json:"bodyContentType,omitempty" yaml:"bodyContentType,omitempty"`
}

// Argument is a positional command argument.
type Argument struct {
	Name        string `json:"name" yaml:"name"`
	VarName     string `json:"varName" yaml:"varName"`
	Param       string `json:"param" yaml:"param"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Source is where an option's value is sent.
type Source string

const (
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
	SourceBody   Source = "body"
)

// Option is a command flag.
type Option struct {
	// Name is the kebab-case flag name, without dashes.
	Name    string `json:"name" yaml:"name"`
	VarName string `json:"varName" yaml:"varName"`
	// Param is the parameter or property name in the API.
	Param       string `json:"param" yaml:"param"`
	Source      Source `json:"source" yaml:"source"`
	Type        string `json:"type" yaml:"type"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// Group returns the group named name.
func (t *Tree) Group(name string) (*Group, bool) {
	for _, g := range t.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Empty reports whether the tree has no groups.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Groups) == 0
}

// CommandCount returns the number of commands over all groups.
func (t *Tree) CommandCount() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g.Commands)
	}
	return n
}

// Command returns the command named name.
func (g *Group) Command(name string) (*Command, bool) {
	for _, c := range g.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (g *Group) hasOperation(id string) bool {
	for _, c := range g.Commands {
		if c.OperationID == id {
			return true
		}
	}
	return false
}

// NamingConflict is returned when two operations get the same command name
// in one group.
type NamingConflict struct {
	Group      string
	Command    string
	Operations []string
}

// Kind returns KindNamingConflict.
func (e *NamingConflict) Kind() string { return KindNamingConflict }

func (e *NamingConflict) Error() string {
	return fmt.Sprintf("naming conflict: operations %s map to command %q in group %q",
		strings.Join(e.Operations, ", "), e.Command, e.Group)
}

// UnknownTagReference records a filter or mapping entry naming a tag or
// operation the catalog does not have. It is a warning, never returned as
// an error by Compile.
type UnknownTagReference struct {
	// Setting is the option holding the reference, e.g. "TagMapping".
	Setting   string `json:"setting" yaml:"setting"`
	Reference string `json:"reference" yaml:"reference"`
}

// Kind returns KindUnknownTagReference.
func (e *UnknownTagReference) Kind() string { return KindUnknownTagReference }

func (e *UnknownTagReference) Error() string {
	what := "tag"
	if e.Setting == "CommandMapping" {
		what = "operation"
	}
	return fmt.Sprintf("%s references unknown %s %q", e.Setting, what, e.Reference)
}
