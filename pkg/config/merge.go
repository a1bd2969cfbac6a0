package config

import (
	"fmt"

	"github.com/cliwizard/cliwizard/pkg/resolve"
)

// WithTemplatedDefaults returns raw with every absent option whose default
// contains references (such as MainDir = "${HOME:-~}/.#[PackageName]") filled
// in with that default, so the references get resolved together with the
// rest of the document. Plain defaults are left to the validator.
//
// A templated default is only filled when every key it references is
// available; otherwise the missing key is reported by validation rather
// than as an unresolved reference inside a default the user never wrote.
func (s *Schema) WithTemplatedDefaults(raw *RawConfig) *RawConfig {
	entries := raw.Entries()
	available := make(map[string]bool, len(entries))
	for _, e := range entries {
		available[e.Key] = true
	}

	for _, opt := range s.options {
		if opt.Required || available[opt.Name] || !resolve.HasTokens(opt.Default) {
			continue
		}
		satisfied := true
		for _, ref := range resolve.ParameterRefs(opt.Default) {
			if !available[ref] {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}
		entries = append(entries, Entry{Key: opt.Name, Value: opt.Default})
		available[opt.Name] = true
	}
	return NewRawConfig(entries...)
}

// Resolved is the output of Resolve: the resolved document plus the
// resolver's provenance data.
type Resolved struct {
	Config *RawConfig
	Result *resolve.Result
}

// Resolve fills templated defaults and resolves every reference in raw.
// The returned document has the same keys as raw plus the filled defaults,
// in the same order, with no reference left.
func Resolve(raw *RawConfig, env resolve.Environment) (*Resolved, error) {
	return DefaultSchema().Resolve(raw, env)
}

// Resolve is like the package-level Resolve for schema s.
func (s *Schema) Resolve(raw *RawConfig, env resolve.Environment) (*Resolved, error) {
	filled := s.WithTemplatedDefaults(raw)

	result, err := resolve.Resolve(filled, env)
	if err != nil {
		return nil, err
	}

	resolved, err := filled.Map(func(key string, _ any) (any, error) {
		return result.Value(key), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply resolved values: %w", err)
	}

	return &Resolved{Config: resolved, Result: result}, nil
}

// Load resolves and validates raw against the default schema.
func Load(raw *RawConfig, env resolve.Environment) (*Config, *Resolved, error) {
	resolved, err := Resolve(raw, env)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Validate(resolved.Config)
	if err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}
