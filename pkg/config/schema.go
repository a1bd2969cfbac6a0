package config

// OptionType is the declared type of a recognized option.
type OptionType int

const (
	TypeString OptionType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeStringList
	TypeStringMap
)

func (t OptionType) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeStringList:
		return "list of strings"
	case TypeStringMap:
		return "mapping of strings"
	default:
		return "string"
	}
}

// Format is an extra constraint on string options.
type Format int

const (
	FormatNone Format = iota
	FormatNonEmpty
	FormatHexColor
	FormatURL
)

// Option describes one recognized configuration key.
type Option struct {
	Name        string
	Type        OptionType
	Description string
	// Default applies when the key is absent. Ignored for required options.
	Default  any
	Required bool
	// Nullable options accept an explicit null.
	Nullable bool
	Enum     []string
	// Min is an inclusive lower bound for numeric options.
	Min    *float64
	Format Format
}

// Schema is the ordered set of recognized options.
type Schema struct {
	options []Option
	index   map[string]int
}

// NewSchema builds a schema from options in order.
func NewSchema(options ...Option) *Schema {
	s := &Schema{
		options: options,
		index:   make(map[string]int, len(options)),
	}
	for i, o := range options {
		s.index[o.Name] = i
	}
	return s
}

// Options returns the options in declaration order.
func (s *Schema) Options() []Option {
	out := make([]Option, len(s.options))
	copy(out, s.options)
	return out
}

// Lookup returns the option named name.
func (s *Schema) Lookup(name string) (Option, bool) {
	i, ok := s.index[name]
	if !ok {
		return Option{}, false
	}
	return s.options[i], true
}

func minimum(v float64) *float64 { return &v }

var defaultSchema = NewSchema(
	// Project identification
	Option{Name: "PackageName", Type: TypeString, Required: true, Format: FormatNonEmpty,
		Description: "Package name of the generated project"},
	Option{Name: "DefaultBaseUrl", Type: TypeString, Required: true, Format: FormatURL,
		Description: "Default API base URL"},
	Option{Name: "ProjectName", Type: TypeString, Default: "My Project",
		Description: "Human-readable project name"},
	Option{Name: "CommandName", Type: TypeString, Default: "#[PackageName]",
		Description: "CLI command name (kebab-case)"},
	Option{Name: "Description", Type: TypeString, Default: "A CLI application",
		Description: "Project description"},
	Option{Name: "Version", Type: TypeString, Default: "1.0.0",
		Description: "Project version"},

	// Author information
	Option{Name: "AuthorName", Type: TypeString, Default: "Your Name",
		Description: "Author name"},
	Option{Name: "AuthorEmail", Type: TypeString, Default: "your.email@example.com",
		Description: "Author email"},
	Option{Name: "GithubUser", Type: TypeString, Default: "username",
		Description: "GitHub username"},
	Option{Name: "PythonVersion", Type: TypeString, Default: "3.12",
		Description: "Minimum Python version of the generated project"},

	// Output locations
	Option{Name: "OutputDir", Type: TypeString, Default: "#[PackageName]",
		Description: "Directory the generated project is written to"},
	Option{Name: "MainDir", Type: TypeString, Default: "${HOME:-~}/.#[PackageName]",
		Description: "Main directory for CLI data (config, cache, logging, etc.)"},
	Option{Name: "ProfileFile", Type: TypeString, Default: "#[MainDir]/profiles.yaml",
		Description: "Path to profiles YAML file"},

	// OpenAPI
	Option{Name: "OpenapiSpec", Type: TypeString, Nullable: true, Default: "openapi.json",
		Description: "Path or URL of the OpenAPI spec; null disables API command generation"},
	Option{Name: "ExcludeTags", Type: TypeStringList, Default: []any{},
		Description: "Tags to exclude from generation"},
	Option{Name: "IncludeTags", Type: TypeStringList, Default: []any{},
		Description: "Tags to include (if empty, all non-excluded tags are included)"},
	Option{Name: "TagMapping", Type: TypeStringMap, Format: FormatNonEmpty, Default: map[string]any{},
		Description: "Map OpenAPI tags to CLI command group names"},
	Option{Name: "CommandMapping", Type: TypeStringMap, Format: FormatNonEmpty, Default: map[string]any{},
		Description: "Customize command names (operationId -> command name)"},

	// Output formatting
	Option{Name: "OutputFormat", Type: TypeString, Default: "json", Enum: []string{"json", "table", "yaml"},
		Description: "Default output format"},
	Option{Name: "OutputColors", Type: TypeBool, Default: true,
		Description: "Enable colored output"},
	Option{Name: "JsonIndent", Type: TypeInt, Default: 2, Min: minimum(0),
		Description: "JSON indentation"},
	Option{Name: "TableStyle", Type: TypeString, Default: "rounded", Enum: []string{"ascii", "rounded", "minimal", "markdown"},
		Description: "Table style"},

	// Splash screen
	Option{Name: "SplashFile", Type: TypeString, Nullable: true,
		Description: "Path to splash text file (relative to config or absolute)"},
	Option{Name: "SplashColor", Type: TypeString, Default: "#FFFFFF", Format: FormatHexColor,
		Description: "Color for splash text (hex code)"},

	// Logging
	Option{Name: "LogLevel", Type: TypeString, Default: "INFO", Enum: []string{"DEBUG", "INFO", "WARNING", "ERROR"},
		Description: "Default log level"},
	Option{Name: "LogFormat", Type: TypeString, Default: "%(asctime)s [%(levelname)s] %(message)s",
		Description: "Log message format"},
	Option{Name: "LogTimestampFormat", Type: TypeString, Default: "%Y-%m-%dT%H:%M:%S",
		Description: "Timestamp format for log messages (strftime format)"},
	Option{Name: "LogTimezone", Type: TypeString, Default: "UTC", Enum: []string{"UTC", "Local"},
		Description: "Timezone for log timestamps"},
	Option{Name: "LogColorStyle", Type: TypeString, Default: "level", Enum: []string{"full", "level"},
		Description: "'full' colors the entire line, 'level' colors only the level prefix"},
	Option{Name: "LogColorDebug", Type: TypeString, Default: "#808080", Format: FormatHexColor,
		Description: "Color for DEBUG log level (hex code)"},
	Option{Name: "LogColorInfo", Type: TypeString, Default: "#00FF00", Format: FormatHexColor,
		Description: "Color for INFO log level (hex code)"},
	Option{Name: "LogColorWarning", Type: TypeString, Default: "#FFFF00", Format: FormatHexColor,
		Description: "Color for WARNING log level (hex code)"},
	Option{Name: "LogColorError", Type: TypeString, Default: "#FF0000", Format: FormatHexColor,
		Description: "Color for ERROR log level (hex code)"},
	Option{Name: "LogFile", Type: TypeString, Nullable: true,
		Description: "Path to log file (null means no file logging)"},
	Option{Name: "LogRotationType", Type: TypeString, Default: "days", Enum: []string{"size", "days"},
		Description: "Log rotation type: 'size' for file size, 'days' for time-based"},
	Option{Name: "LogRotationSize", Type: TypeInt, Default: 10, Min: minimum(1),
		Description: "Log rotation size in MB"},
	Option{Name: "LogRotationDays", Type: TypeInt, Default: 30, Min: minimum(1),
		Description: "Log rotation interval in days"},
	Option{Name: "LogRotationBackupCount", Type: TypeInt, Default: 5, Min: minimum(0),
		Description: "Number of backup log files to keep"},

	// API client
	Option{Name: "Timeout", Type: TypeInt, Default: 30, Min: minimum(1),
		Description: "Request timeout in seconds"},
	Option{Name: "CaFile", Type: TypeString, Nullable: true,
		Description: "CA certificate file for SSL verification"},
	Option{Name: "RetryMaxAttempts", Type: TypeInt, Default: 3, Min: minimum(0),
		Description: "Retry max attempts"},
	Option{Name: "RetryBackoffFactor", Type: TypeFloat, Default: 0.5, Min: minimum(0),
		Description: "Retry backoff factor"},
)

// DefaultSchema returns the recognized option set.
func DefaultSchema() *Schema {
	return defaultSchema
}
