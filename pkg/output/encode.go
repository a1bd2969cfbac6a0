package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// renderJSON indents by JSONIndent spaces; zero gives compact output.
func renderJSON(w io.Writer, data any, style Style) error {
	enc := json.NewEncoder(w)
	if style.JSONIndent > 0 {
		enc.SetIndent("", strings.Repeat(" ", style.JSONIndent))
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, data any, _ Style) error {
	if data == nil {
		_, err := io.WriteString(w, "null\n")
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
