package main

import (
	"fmt"
	"strings"

	"github.com/cliwizard/cliwizard/pkg/output"
	"github.com/cliwizard/cliwizard/pkg/settings"
	"github.com/spf13/cobra"
)

// commandRow is one line of the inspect table.
type commandRow struct {
	Group     string   `json:"group" yaml:"group"`
	Command   string   `json:"command" yaml:"command"`
	Operation string   `json:"operation" yaml:"operation"`
	Method    string   `json:"method" yaml:"method"`
	Path      string   `json:"path" yaml:"path"`
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Options   []string `json:"options,omitempty" yaml:"options,omitempty"`
}

var inspectColumns = []output.Column{
	{Field: "group"},
	{Field: "command"},
	{Field: "method"},
	{Field: "path"},
	{Field: "arguments", Header: "ARGS"},
	{Field: "options"},
	{Field: "operation", Header: "OPERATION ID"},
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		project projectFlags
		format  string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the compiled command tree",
		Long: `Print the command tree compiled from the configuration and spec.

The table format lists one row per command. The json and yaml formats
print the full tree, including arguments, options and warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.Settings()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = s.String(settings.KeyOutputFormat)
			}
			in, err := a.inputs(&project)
			if err != nil {
				return err
			}
			genCtx, err := a.pipeline().Run(cmd.Context(), in)
			if err != nil {
				return err
			}

			style := output.StyleOf(genCtx.Config).WithFormat(format)
			if style.Format != output.FormatTable {
				return output.Write(a.stdout, genCtx.Tree, style)
			}

			var rows []commandRow
			for _, g := range genCtx.Tree.Groups {
				for _, c := range g.Commands {
					row := commandRow{
						Group:     g.Name,
						Command:   c.Name,
						Operation: c.OperationID,
						Method:    strings.ToUpper(c.Method),
						Path:      c.Path,
					}
					for _, arg := range c.Arguments {
						row.Arguments = append(row.Arguments, "<"+arg.Name+">")
					}
					for _, opt := range c.Options {
						row.Options = append(row.Options, "--"+opt.Name)
					}
					rows = append(rows, row)
				}
			}
			if len(rows) == 0 {
				_, err = fmt.Fprintln(a.stdout, "No commands (OpenapiSpec is null)")
				return err
			}
			if err := output.Write(a.stdout, rows, style.WithColumns(inspectColumns...)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "\n%d groups, %d commands, %d operations\n",
				genCtx.Stats.Groups, genCtx.Stats.Commands, genCtx.Stats.Operations)
			return err
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json|yaml)")

	return cmd
}
