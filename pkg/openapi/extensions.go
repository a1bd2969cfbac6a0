package openapi

import (
	"fmt"
	"strings"
)

// Operation extensions that shape the generated command.
const (
	// ExtCommand overrides the derived command name.
	ExtCommand = "x-cli-command"
	// ExtAliases lists extra names for the command.
	ExtAliases = "x-cli-aliases"
	// ExtHidden keeps the command out of help output.
	ExtHidden = "x-cli-hidden"
)

// CLIExtensions are the x-cli-* settings of one operation.
type CLIExtensions struct {
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Hidden  bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// IsZero reports whether no extension is set.
func (e CLIExtensions) IsZero() bool {
	return e.Command == "" && len(e.Aliases) == 0 && !e.Hidden
}

// parseCLIExtensions reads the x-cli-* extensions of an operation. A value
// of the wrong type is an error naming the extension; unknown x-cli-*
// keys are ignored.
func parseCLIExtensions(ext map[string]any) (CLIExtensions, error) {
	var out CLIExtensions

	if v, ok := ext[ExtCommand]; ok {
		name, isString := v.(string)
		if !isString || strings.TrimSpace(name) == "" {
			return out, fmt.Errorf("%s must be a non-empty string", ExtCommand)
		}
		out.Command = name
	}

	if v, ok := ext[ExtAliases]; ok {
		items, isList := v.([]any)
		if !isList {
			return out, fmt.Errorf("%s must be a list of strings", ExtAliases)
		}
		for _, item := range items {
			alias, isString := item.(string)
			if !isString || alias == "" {
				return out, fmt.Errorf("%s must be a list of strings", ExtAliases)
			}
			out.Aliases = append(out.Aliases, alias)
		}
	}

	if v, ok := ext[ExtHidden]; ok {
		hidden, isBool := v.(bool)
		if !isBool {
			return out, fmt.Errorf("%s must be a boolean", ExtHidden)
		}
		out.Hidden = hidden
	}
	return out, nil
}
