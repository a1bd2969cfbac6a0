package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// KindSchemaViolation is the error kind of SchemaViolation and
// ValidationErrors.
const KindSchemaViolation = "SchemaViolation"

// ViolationKind classifies a schema violation.
type ViolationKind string

const (
	ViolationUnknownKey ViolationKind = "unknown_key"
	ViolationRequired   ViolationKind = "required"
	ViolationType       ViolationKind = "type"
	ViolationEnum       ViolationKind = "enum"
	ViolationRange      ViolationKind = "range"
	ViolationFormat     ViolationKind = "format"
)

// SchemaViolation describes one offending key.
type SchemaViolation struct {
	Violation ViolationKind
	Key       string
	Message   string
	// Value is the offending value, nil for missing keys.
	Value any
}

// Kind returns KindSchemaViolation.
func (e *SchemaViolation) Kind() string { return KindSchemaViolation }

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidationErrors is the ordered list of every violation found in one run.
type ValidationErrors []SchemaViolation

// Kind returns KindSchemaViolation.
func (e ValidationErrors) Kind() string { return KindSchemaViolation }

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Keys returns the offending keys in report order.
func (e ValidationErrors) Keys() []string {
	keys := make([]string, len(e))
	for i, v := range e {
		keys[i] = v.Key
	}
	return keys
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validator checks resolved documents against a Schema.
type Validator struct {
	schema *Schema
	errors ValidationErrors
}

// NewValidator creates a validator for the default schema.
func NewValidator() *Validator {
	return NewValidatorFor(DefaultSchema())
}

// NewValidatorFor creates a validator for schema.
func NewValidatorFor(schema *Schema) *Validator {
	return &Validator{
		schema: schema,
		errors: make(ValidationErrors, 0),
	}
}

// Validate checks every key of resolved and returns the typed config, or
// ValidationErrors listing every violation. Violations are reported for
// present keys in document order, then for missing required keys in schema
// order.
func (v *Validator) Validate(resolved *RawConfig) (*Config, error) {
	v.errors = make(ValidationErrors, 0)
	values := make(map[string]any, len(v.schema.options))

	for _, entry := range resolved.Entries() {
		opt, ok := v.schema.Lookup(entry.Key)
		if !ok {
			v.addError(ViolationUnknownKey, entry.Key, "unknown option (extra inputs are not permitted)", entry.Value)
			continue
		}
		if coerced, ok := v.validateOption(opt, entry.Value); ok {
			values[opt.Name] = coerced
		}
	}

	for _, opt := range v.schema.options {
		if resolved.Has(opt.Name) {
			continue
		}
		if opt.Required {
			v.addError(ViolationRequired, opt.Name, "required option is missing", nil)
			continue
		}
		values[opt.Name] = v.defaultValue(opt)
	}

	if len(v.errors) > 0 {
		return nil, v.errors
	}

	return fromValues(values)
}

// Validate checks resolved against the default schema.
func Validate(resolved *RawConfig) (*Config, error) {
	return NewValidator().Validate(resolved)
}

// validateOption type-checks and coerces one value, recording at most one
// violation for the key.
func (v *Validator) validateOption(opt Option, value any) (any, bool) {
	if value == nil {
		if opt.Nullable {
			return nil, true
		}
		v.addError(ViolationType, opt.Name, fmt.Sprintf("must be a %s, not null", opt.Type), nil)
		return nil, false
	}

	var coerced any
	var ok bool
	switch opt.Type {
	case TypeString:
		coerced, ok = value.(string)
	case TypeInt:
		coerced, ok = toInt(value)
	case TypeFloat:
		coerced, ok = toFloat(value)
	case TypeBool:
		coerced, ok = toBool(value)
	case TypeStringList:
		coerced, ok = toStringList(value)
	case TypeStringMap:
		coerced, ok = toStringMap(value)
	}
	if !ok {
		v.addError(ViolationType, opt.Name, fmt.Sprintf("must be a %s, got %s", opt.Type, describe(value)), value)
		return nil, false
	}

	if len(opt.Enum) > 0 {
		s, _ := coerced.(string)
		if !contains(opt.Enum, s) {
			v.addError(ViolationEnum, opt.Name,
				fmt.Sprintf("must be one of %s, got %q", strings.Join(opt.Enum, ", "), s), value)
			return nil, false
		}
	}

	if opt.Min != nil {
		var n float64
		switch t := coerced.(type) {
		case int:
			n = float64(t)
		case float64:
			n = t
		}
		if n < *opt.Min {
			v.addError(ViolationRange, opt.Name,
				fmt.Sprintf("must be greater than or equal to %s", strconv.FormatFloat(*opt.Min, 'f', -1, 64)), value)
			return nil, false
		}
	}

	if m, isMap := coerced.(map[string]string); isMap && opt.Format == FormatNonEmpty {
		for _, k := range sortedMapKeys(m) {
			if strings.TrimSpace(m[k]) == "" {
				v.addError(ViolationFormat, opt.Name, fmt.Sprintf("mapping for %q must not be empty", k), value)
				return nil, false
			}
		}
	}

	if s, isString := coerced.(string); isString {
		switch opt.Format {
		case FormatNonEmpty:
			if strings.TrimSpace(s) == "" {
				v.addError(ViolationFormat, opt.Name, "must not be empty", value)
				return nil, false
			}
		case FormatURL:
			if !isValidURL(s) {
				v.addError(ViolationFormat, opt.Name, "must be a valid http(s) URL", value)
				return nil, false
			}
		case FormatHexColor:
			if !hexColorPattern.MatchString(s) {
				v.addError(ViolationFormat, opt.Name,
					fmt.Sprintf("Invalid hex color code: %s. Must be in format #RRGGBB", s), value)
				return nil, false
			}
			coerced = strings.ToUpper(s)
		}
	}

	return coerced, true
}

func (v *Validator) defaultValue(opt Option) any {
	switch d := opt.Default.(type) {
	case []any:
		out := make([]string, 0, len(d))
		for _, item := range d {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(d))
		for k, item := range d {
			out[k] = fmt.Sprint(item)
		}
		return out
	default:
		return d
	}
}

func (v *Validator) addError(kind ViolationKind, key, message string, value any) {
	v.errors = append(v.errors, SchemaViolation{
		Violation: kind,
		Key:       key,
		Message:   message,
		Value:     value,
	})
}

func toInt(value any) (int, bool) {
	switch t := value.(type) {
	case int:
		return t, true
	case float64:
		// integral and within int range; NaN fails every comparison
		if t == math.Trunc(t) && t >= float64(math.MinInt) && t < float64(math.MaxInt) {
			return int(t), true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// toFloat accepts finite numbers only.
func toFloat(value any) (float64, bool) {
	var f float64
	switch t := value.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(value any) (bool, bool) {
	switch t := value.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err == nil {
			return b, true
		}
	}
	return false, false
}

func toStringList(value any) ([]string, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func toStringMap(value any) (map[string]string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}

func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case int, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// isValidURL checks for an absolute http(s) URL with a host.
func isValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
