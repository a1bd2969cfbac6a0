// Package config loads, resolves and validates cliwizard configuration
// documents.
//
// A document is a YAML mapping of PascalCase option names. Values may embed
// ${VAR} and #[Key] references, which are resolved by package resolve before
// the document is checked against the recognized option schema and coerced
// into a typed Config.
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
)

// Config is a validated configuration. Every recognized option has a value,
// either explicit or defaulted. Nullable options are pointers.
type Config struct {
	PackageName    string `yaml:"PackageName" json:"PackageName"`
	DefaultBaseUrl string `yaml:"DefaultBaseUrl" json:"DefaultBaseUrl"`
	ProjectName    string `yaml:"ProjectName" json:"ProjectName"`
	CommandName    string `yaml:"CommandName" json:"CommandName"`
	Description    string `yaml:"Description" json:"Description"`
	Version        string `yaml:"Version" json:"Version"`

	AuthorName    string `yaml:"AuthorName" json:"AuthorName"`
	AuthorEmail   string `yaml:"AuthorEmail" json:"AuthorEmail"`
	GithubUser    string `yaml:"GithubUser" json:"GithubUser"`
	PythonVersion string `yaml:"PythonVersion" json:"PythonVersion"`

	OutputDir   string `yaml:"OutputDir" json:"OutputDir"`
	MainDir     string `yaml:"MainDir" json:"MainDir"`
	ProfileFile string `yaml:"ProfileFile" json:"ProfileFile"`

	OpenapiSpec    *string           `yaml:"OpenapiSpec" json:"OpenapiSpec"`
	ExcludeTags    []string          `yaml:"ExcludeTags" json:"ExcludeTags"`
	IncludeTags    []string          `yaml:"IncludeTags" json:"IncludeTags"`
	TagMapping     map[string]string `yaml:"TagMapping" json:"TagMapping"`
	CommandMapping map[string]string `yaml:"CommandMapping" json:"CommandMapping"`

	OutputFormat string `yaml:"OutputFormat" json:"OutputFormat"`
	OutputColors bool   `yaml:"OutputColors" json:"OutputColors"`
	JsonIndent   int    `yaml:"JsonIndent" json:"JsonIndent"`
	TableStyle   string `yaml:"TableStyle" json:"TableStyle"`

	SplashFile  *string `yaml:"SplashFile" json:"SplashFile"`
	SplashColor string  `yaml:"SplashColor" json:"SplashColor"`

	LogLevel               string  `yaml:"LogLevel" json:"LogLevel"`
	LogFormat              string  `yaml:"LogFormat" json:"LogFormat"`
	LogTimestampFormat     string  `yaml:"LogTimestampFormat" json:"LogTimestampFormat"`
	LogTimezone            string  `yaml:"LogTimezone" json:"LogTimezone"`
	LogColorStyle          string  `yaml:"LogColorStyle" json:"LogColorStyle"`
	LogColorDebug          string  `yaml:"LogColorDebug" json:"LogColorDebug"`
	LogColorInfo           string  `yaml:"LogColorInfo" json:"LogColorInfo"`
	LogColorWarning        string  `yaml:"LogColorWarning" json:"LogColorWarning"`
	LogColorError          string  `yaml:"LogColorError" json:"LogColorError"`
	LogFile                *string `yaml:"LogFile" json:"LogFile"`
	LogRotationType        string  `yaml:"LogRotationType" json:"LogRotationType"`
	LogRotationSize        int     `yaml:"LogRotationSize" json:"LogRotationSize"`
	LogRotationDays        int     `yaml:"LogRotationDays" json:"LogRotationDays"`
	LogRotationBackupCount int     `yaml:"LogRotationBackupCount" json:"LogRotationBackupCount"`

	Timeout            int     `yaml:"Timeout" json:"Timeout"`
	CaFile             *string `yaml:"CaFile" json:"CaFile"`
	RetryMaxAttempts   int     `yaml:"RetryMaxAttempts" json:"RetryMaxAttempts"`
	RetryBackoffFactor float64 `yaml:"RetryBackoffFactor" json:"RetryBackoffFactor"`
}

// APIConfig is the part of a Config that drives command-tree compilation.
type APIConfig struct {
	// Requested is false when OpenapiSpec is explicitly null.
	Requested      bool
	ExcludeTags    []string
	IncludeTags    []string
	TagMapping     map[string]string
	CommandMapping map[string]string
}

// API returns the API section.
func (c *Config) API() APIConfig {
	return APIConfig{
		Requested:      c.OpenapiSpec != nil,
		ExcludeTags:    c.ExcludeTags,
		IncludeTags:    c.IncludeTags,
		TagMapping:     c.TagMapping,
		CommandMapping: c.CommandMapping,
	}
}

// SpecLocation returns where to load the OpenAPI spec from. Relative paths
// are joined to baseDir; URLs are returned unchanged.
func (c *Config) SpecLocation(baseDir string) (string, bool) {
	if c.OpenapiSpec == nil {
		return "", false
	}
	return ResolvePath(baseDir, *c.OpenapiSpec), true
}

// ResolvePaths returns a copy of c with OpenapiSpec, SplashFile, CaFile and
// LogFile resolved against baseDir.
func (c *Config) ResolvePaths(baseDir string) *Config {
	out := *c
	for _, p := range []**string{&out.OpenapiSpec, &out.SplashFile, &out.CaFile, &out.LogFile} {
		if *p != nil {
			resolved := ResolvePath(baseDir, **p)
			*p = &resolved
		}
	}
	return &out
}

// ResolvePath joins a relative path to baseDir. Absolute paths and http(s)
// URLs are returned unchanged.
func ResolvePath(baseDir, p string) string {
	if p == "" || IsURL(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// fromValues builds a Config from validated, coerced values keyed by
// option name: string, int, float64, bool, []string, map[string]string or
// nil for a null nullable option.
func fromValues(values map[string]any) (*Config, error) {
	var cfg Config
	rv := reflect.ValueOf(&cfg).Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("yaml")
		v, ok := values[name]
		if !ok || v == nil {
			continue
		}
		field := rv.Field(i)
		if field.Kind() == reflect.Ptr {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected string, got %T", name, v)
			}
			field.Set(reflect.ValueOf(&s))
			continue
		}
		val := reflect.ValueOf(v)
		if !val.Type().AssignableTo(field.Type()) {
			return nil, fmt.Errorf("%s: cannot assign %T to %s", name, v, field.Type())
		}
		field.Set(val)
	}
	return &cfg, nil
}
