package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// renderTable renders slices as one row per element, and maps and structs
// as two-column tables.
func renderTable(w io.Writer, data any, style Style) error {
	rows, err := tableRows(data, style.Columns)
	if err != nil {
		return err
	}

	if style.TableStyle == TableMarkdown {
		_, err := io.WriteString(w, markdownTable(rows))
		return err
	}

	table := pterm.DefaultTable.WithHasHeader(true)
	switch style.TableStyle {
	case TableASCII:
		table = table.WithSeparator(" | ").WithHeaderRowSeparator("-")
	case TableMinimal:
		table = table.WithSeparator("  ")
	default:
		table = table.WithBoxed(true).WithHeaderRowSeparator("─")
	}
	if style.Colors {
		table = table.WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold))
	} else {
		pterm.DisableColor()
		defer pterm.EnableColor()
	}

	rendered, err := table.WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = io.WriteString(w, rendered+"\n")
	return err
}

func markdownTable(rows [][]string) string {
	var sb strings.Builder
	line := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" " + strings.ReplaceAll(c, "|", `\|`) + " |")
		}
		sb.WriteString("\n")
	}

	line(rows[0])
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	line(sep)
	for _, r := range rows[1:] {
		line(r)
	}
	return sb.String()
}
