package main

import (
	"github.com/cliwizard/cliwizard/internal/builder"
	"github.com/spf13/cobra"
)

func newPreviewCmd(a *app) *cobra.Command {
	var project projectFlags

	cmd := &cobra.Command{
		Use:   "preview [flags] -- <args>",
		Short: "Browse the CLI that would be generated",
		Long: `Build the command tree and run it as a CLI named after CommandName.

Help output can be browsed as usual. Running a command prints the HTTP
request it would send; nothing is executed.

Examples:
  cliwizard preview -- --help
  cliwizard preview -- users get-user 42`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.inputs(&project)
			if err != nil {
				return err
			}
			genCtx, err := a.pipeline().Run(cmd.Context(), in)
			if err != nil {
				return err
			}

			cfg := genCtx.Config
			name := cfg.CommandName
			if name == "" {
				name = cfg.PackageName
			}
			root, err := builder.Preview(genCtx.Tree, name, cfg.Description)
			if err != nil {
				return err
			}
			root.SetArgs(args)
			root.SetOut(a.stdout)
			root.SetErr(a.stderr)
			return root.ExecuteContext(cmd.Context())
		},
	}

	project.register(cmd)

	return cmd
}
