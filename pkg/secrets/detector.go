// Package secrets masks sensitive values in resolved configurations before
// they are printed.
//
// A value is secret when its option name matches a field pattern, when it
// was substituted from an environment variable whose name matches one, or
// when the value itself matches a known secret format.
package secrets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/naming"
)

// Options configures a Masker.
type Options struct {
	// FieldPatterns are globs over snake_case names
	FieldPatterns []string
	ValuePatterns []ValuePattern
	Strategy      MaskStrategy
}

// DefaultOptions returns the default patterns with partial masking.
func DefaultOptions() Options {
	return Options{
		FieldPatterns: DefaultFieldPatterns(),
		ValuePatterns: DefaultValuePatterns(),
		Strategy:      CreateMaskStrategy(StylePartial),
	}
}

// Masker detects and masks secrets.
type Masker struct {
	globs    []string
	values   []namedRegexp
	strategy MaskStrategy
}

type namedRegexp struct {
	name string
	re   *regexp.Regexp
}

// NewMasker validates and compiles opts.
func NewMasker(opts Options) (*Masker, error) {
	m := &Masker{strategy: opts.Strategy}
	if m.strategy == nil {
		m.strategy = CreateMaskStrategy(StylePartial)
	}

	for _, glob := range opts.FieldPatterns {
		glob = strings.ToLower(glob)
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid field pattern %q", glob)
		}
		m.globs = append(m.globs, glob)
	}
	for _, vp := range opts.ValuePatterns {
		re, err := regexp.Compile(vp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid value pattern %s: %w", vp.Name, err)
		}
		m.values = append(m.values, namedRegexp{name: vp.Name, re: re})
	}
	return m, nil
}

// IsSecretKey reports whether an option or environment variable name
// matches a field pattern. ApiToken and API_TOKEN both become api_token.
func (m *Masker) IsSecretKey(name string) bool {
	name = naming.Snake(name)
	for _, glob := range m.globs {
		if ok, _ := doublestar.Match(glob, name); ok {
			return true
		}
	}
	return false
}

// IsSecretValue reports whether value matches a value pattern, and which.
func (m *Masker) IsSecretValue(value string) (bool, string) {
	for _, v := range m.values {
		if v.re.MatchString(value) {
			return true, v.name
		}
	}
	return false, ""
}

// MaskString masks every value-pattern match inside text.
func (m *Masker) MaskString(text string) string {
	for _, v := range m.values {
		text = v.re.ReplaceAllStringFunc(text, m.strategy.Mask)
	}
	return text
}

// MaskConfig returns a copy of resolved with secrets masked. envVars
// reports the environment variables substituted into an option, as
// resolve.Result.EnvVars does; it may be nil.
func (m *Masker) MaskConfig(resolved *config.RawConfig, envVars func(key string) []string) (*config.RawConfig, error) {
	return resolved.Map(func(key string, value any) (any, error) {
		return m.mask(value, m.fromSecretSource(key, envVars)), nil
	})
}

func (m *Masker) fromSecretSource(key string, envVars func(string) []string) bool {
	if m.IsSecretKey(key) {
		return true
	}
	if envVars == nil {
		return false
	}
	for _, env := range envVars(key) {
		if m.IsSecretKey(env) {
			return true
		}
	}
	return false
}

// mask walks value. Map keys that look secret mark their whole subtree.
func (m *Masker) mask(value any, secret bool) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if !secret {
			return m.MaskString(v)
		}
		return m.strategy.Mask(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = m.mask(item, secret || m.IsSecretKey(k))
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, m.mask(item, secret))
		}
		return out
	}
	if secret {
		return m.strategy.Mask(fmt.Sprint(value))
	}
	return value
}
