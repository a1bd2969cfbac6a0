package main

import (
	"errors"

	"github.com/cliwizard/cliwizard/pkg/config"
	"github.com/cliwizard/cliwizard/pkg/output"
	"github.com/cliwizard/cliwizard/pkg/secrets"
	"github.com/cliwizard/cliwizard/pkg/settings"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		project projectFlags
		format  string
		reveal  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved configuration",
		Long: `Resolve every ${VAR} and #[Key] reference in the configuration, fill
templated defaults, and print the result in document order.

Values that look like secrets, or that were read from environment
variables with secret-looking names, are masked unless --reveal is set
or the mask_secrets setting is false. The mask_style setting selects
partial, full or hash masking.
The document is printed even when it fails validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.Settings()
			if err != nil {
				return err
			}
			masking := secrets.Config{
				Enabled: !reveal && s.Bool(settings.KeyMaskSecrets),
				Style:   s.String(settings.KeyMaskStyle),
			}
			masker, err := masking.Masker()
			if err != nil {
				return err
			}
			if masker == nil && !reveal {
				pterm.Warning.WithWriter(a.stderr).Println("Secret masking is disabled (mask_secrets=false)")
			}

			in, err := a.inputs(&project)
			if err != nil {
				return err
			}
			_, resolved, err := a.pipeline().Config(in)
			var violations config.ValidationErrors
			if err != nil && !errors.As(err, &violations) {
				return err
			}

			doc := resolved.Config
			if masker != nil {
				var merr error
				if doc, merr = masker.MaskConfig(doc, resolved.Result.EnvVars); merr != nil {
					return merr
				}
			}

			if ferr := output.Write(a.stdout, doc, output.DefaultStyle().WithFormat(format)); ferr != nil {
				return ferr
			}
			if err != nil {
				return reportViolations(a, err)
			}
			return nil
		},
	}

	project.register(cmd)
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (json|yaml)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets unmasked")

	return cmd
}
