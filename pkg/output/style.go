// Package output renders results as JSON, YAML or tables.
//
// A Style carries the same choices a project configuration makes for its
// generated CLI (OutputFormat, OutputColors, JsonIndent, TableStyle), so
// cliwizard can show data the way the generated client would.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cliwizard/cliwizard/pkg/config"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Table styles.
const (
	TableASCII    = "ascii"
	TableRounded  = "rounded"
	TableMinimal  = "minimal"
	TableMarkdown = "markdown"
)

// Column selects a field of the rows rendered as a table.
type Column struct {
	// Field is the struct field name, its json tag, or a map key
	Field  string
	Header string
	// Width truncates longer cells when positive
	Width int
}

// Style describes how data is rendered.
type Style struct {
	Format     string
	Colors     bool
	JSONIndent int
	TableStyle string
	// Columns restricts and orders table columns; detected when empty
	Columns []Column
}

// DefaultStyle returns the defaults of a project configuration.
func DefaultStyle() Style {
	return Style{
		Format:     FormatJSON,
		Colors:     true,
		JSONIndent: 2,
		TableStyle: TableRounded,
	}
}

// StyleOf returns the output style configured for a generated CLI.
func StyleOf(cfg *config.Config) Style {
	if cfg == nil {
		return DefaultStyle()
	}
	return Style{
		Format:     cfg.OutputFormat,
		Colors:     cfg.OutputColors,
		JSONIndent: cfg.JsonIndent,
		TableStyle: cfg.TableStyle,
	}
}

// WithFormat returns a copy of s rendering in format. An empty format
// keeps the current one.
func (s Style) WithFormat(format string) Style {
	if format != "" {
		s.Format = strings.ToLower(format)
	}
	return s
}

// WithColumns returns a copy of s with fixed table columns.
func (s Style) WithColumns(columns ...Column) Style {
	s.Columns = columns
	return s
}

// renderer writes data in one format.
type renderer func(w io.Writer, data any, style Style) error

var renderers = map[string]renderer{
	FormatJSON:  renderJSON,
	FormatYAML:  renderYAML,
	FormatTable: renderTable,
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write renders data to w in style.
func Write(w io.Writer, data any, style Style) error {
	format := style.Format
	if format == "" {
		format = FormatJSON
	}
	render, ok := renderers[format]
	if !ok {
		return fmt.Errorf("unknown output format %q (supported: %s)",
			style.Format, strings.Join(Formats(), ", "))
	}
	return render(w, data, style)
}
