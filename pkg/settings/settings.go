// Package settings stores the defaults of the cliwizard tool itself, such
// as the configuration file name or the log format.
//
// Values are layered: changed flags bound with BindFlags, then the
// environment (CLIWIZARD_<KEY>), then the settings file, then built-in
// defaults. Only the file layer is edited
// by Set, Unset and Reset.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "CLIWIZARD"

// Setting keys.
const (
	KeyConfigFile    = "config_file"
	KeyOpenapiFile   = "openapi_file"
	KeyOutputDir     = "output_dir"
	KeyContextFormat = "context_format"
	KeyOutputFormat  = "output_format"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyCacheTTL      = "cache_ttl"
	KeyDiscover      = "discover"
	KeyMaskSecrets   = "mask_secrets"
	KeyMaskStyle     = "mask_style"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindDuration
)

type definition struct {
	def     any
	kind    kind
	allowed []string
}

var definitions = map[string]definition{
	KeyConfigFile:    {def: "cli-wizard.yaml"},
	KeyOpenapiFile:   {def: ""},
	KeyOutputDir:     {def: "cli"},
	KeyContextFormat: {def: "json", allowed: []string{"json", "yaml"}},
	KeyOutputFormat:  {def: "table", allowed: []string{"table", "json", "yaml"}},
	KeyLogLevel:      {def: "warn", allowed: []string{"debug", "info", "warn", "error"}},
	KeyLogFormat:     {def: "text", allowed: []string{"text", "json"}},
	KeyCacheTTL:      {def: "5m", kind: kindDuration},
	KeyDiscover:      {def: true, kind: kindBool},
	KeyMaskSecrets:   {def: true, kind: kindBool},
	KeyMaskStyle:     {def: "partial", allowed: []string{"partial", "full", "hash"}},
}

// ErrUnknownKey is returned for keys that are not settings.
var ErrUnknownKey = errors.New("unknown setting")

// Keys returns every setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for k := range definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the settings file of appName in the XDG config home.
func Path(appName string) string {
	return filepath.Join(xdg.ConfigHome, appName, "settings.yaml")
}

// Settings is a loaded settings file with its override layers.
type Settings struct {
	path  string
	file  map[string]any
	flags map[string]*pflag.Flag
	v     *viper.Viper
}

// Load reads the settings file at path. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	s := &Settings{
		path:  path,
		file:  make(map[string]any),
		flags: make(map[string]*pflag.Flag),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s.file); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
		if s.file == nil {
			s.file = make(map[string]any)
		}
	}

	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) rebuild() error {
	v := viper.New()
	for key, d := range definitions {
		v.SetDefault(key, d.def)
	}
	if err := v.MergeConfigMap(s.file); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, f := range s.flags {
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	}
	s.v = v
	return nil
}

// BindFlags binds flags whose names match a setting key, with dashes in
// place of underscores (log-format binds log_format).
func (s *Settings) BindFlags(flags *pflag.FlagSet) error {
	for key := range definitions {
		f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			continue
		}
		if err := s.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
		s.flags[key] = f
	}
	return nil
}

// Path returns the settings file path.
func (s *Settings) Path() string {
	return s.path
}

// Get returns the effective value of key.
func (s *Settings) Get(key string) (any, error) {
	if _, ok := definitions[key]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return s.v.Get(key), nil
}

// String returns the effective value of key as a string.
func (s *Settings) String(key string) string {
	return s.v.GetString(key)
}

// Bool returns the effective value of key as a bool.
func (s *Settings) Bool(key string) bool {
	return s.v.GetBool(key)
}

// Duration returns the effective value of key as a duration.
func (s *Settings) Duration(key string) time.Duration {
	return s.v.GetDuration(key)
}

// All returns the effective value of every setting.
func (s *Settings) All() map[string]any {
	out := make(map[string]any, len(definitions))
	for key := range definitions {
		out[key] = s.v.Get(key)
	}
	return out
}

// Set stores value for key in the settings file and returns the previous
// effective value.
func (s *Settings) Set(key, value string) (any, error) {
	d, ok := definitions[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	parsed, err := d.parse(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	old := s.v.Get(key)
	s.file[key] = parsed
	if err := s.save(); err != nil {
		return nil, err
	}
	return old, nil
}

// Unset removes key from the settings file, restoring its default, and
// returns the previous effective value.
func (s *Settings) Unset(key string) (any, error) {
	if _, ok := definitions[key]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	old := s.v.Get(key)
	delete(s.file, key)
	if err := s.save(); err != nil {
		return nil, err
	}
	return old, nil
}

// Reset deletes the settings file.
func (s *Settings) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove settings: %w", err)
	}
	s.file = make(map[string]any)
	return s.rebuild()
}

func (s *Settings) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(s.file)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return s.rebuild()
}

func (d definition) parse(value string) (any, error) {
	switch d.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", value)
		}
		return b, nil
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("expected a duration, got %q", value)
		}
		return value, nil
	}
	if len(d.allowed) > 0 {
		for _, a := range d.allowed {
			if value == a {
				return value, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s, got %q", strings.Join(d.allowed, ", "), value)
	}
	return value, nil
}
