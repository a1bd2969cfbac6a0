package main

import (
	"errors"
	"fmt"

	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/generate"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var project projectFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the project configuration and OpenAPI spec",
		Long: `Validate your project configuration and OpenAPI specification.

This command checks:
  - Reference resolution (${VAR} and #[Key], including cycles)
  - Every option against the configuration schema
  - OpenAPI spec format and version
  - Command names produced by the tag and command mappings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			in, err := a.inputs(&project)
			if err != nil {
				return err
			}
			p := a.pipeline()
			out := a.stdout

			pterm.Info.WithWriter(out).Printf("Validating %s...\n", in.ConfigPath)
			cfg, _, err := p.Config(in)
			if err != nil {
				return reportViolations(a, err)
			}
			pterm.Success.WithWriter(out).Println("Configuration is valid")
			if verbose {
				pterm.Info.WithWriter(out).Printf("Package %s, version %s\n", cfg.PackageName, cfg.Version)
			}

			if cfg.OpenapiSpec == nil {
				pterm.Info.WithWriter(out).Println("OpenapiSpec is null, no API commands requested")
				return nil
			}

			tree, err := p.Tree(cmd.Context(), cfg, in.BaseDirectory())
			if err != nil {
				return reportError(a, "OpenAPI validation failed", err)
			}
			genCtx, err := generate.Assemble(cfg, tree)
			if err != nil {
				return reportError(a, "OpenAPI validation failed", err)
			}
			for _, w := range genCtx.Warnings {
				pterm.Warning.WithWriter(out).Println(w)
			}
			pterm.Success.WithWriter(out).Printf("OpenAPI specification is valid (%d groups, %d commands)\n",
				genCtx.Stats.Groups, genCtx.Stats.Commands)
			return nil
		},
	}

	project.register(cmd)

	return cmd
}

// reportViolations prints every schema violation, or the single error that
// stopped resolution.
func reportViolations(a *app, err error) error {
	var violations config.ValidationErrors
	if !errors.As(err, &violations) {
		return reportError(a, "Configuration validation failed", err)
	}

	pterm.Error.WithWriter(a.stderr).Printf("Configuration has %d violation(s):\n", len(violations))
	for _, v := range violations {
		_, _ = fmt.Fprintf(a.stderr, "  - %s [%s]\n", v.Error(), v.Violation)
	}
	return &exitError{err: err}
}

func reportError(a *app, msg string, err error) error {
	pterm.Error.WithWriter(a.stderr).Printf("%s: %v\n", msg, err)
	return &exitError{err: err}
}
