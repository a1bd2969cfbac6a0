package builtin

import (
	"fmt"
	"io"

	"github.com/cliwizard/cliwizard/pkg/output"
	"github.com/cliwizard/cliwizard/pkg/settings"
	"github.com/spf13/cobra"
)

// ConfigOptions configures the config command behavior.
type ConfigOptions struct {
	// Settings returns the tool settings, loading them on first use
	Settings func() (*settings.Settings, error)
	Output   io.Writer
}

// change is printed by set and unset.
type change struct {
	Key      string `json:"key" yaml:"key"`
	Value    any    `json:"value" yaml:"value"`
	OldValue any    `json:"oldValue" yaml:"oldValue"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(opts *ConfigOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cliwizard settings",
		Long: `Manage the settings of cliwizard itself.

Settings are stored in the XDG-compliant config directory and can be
overridden with CLIWIZARD_<KEY> environment variables.`,
	}

	cc := &configCommand{opts: opts}
	cmd.PersistentFlags().StringVar(&cc.format, "format", output.FormatJSON,
		"Output format (json, yaml, table)")

	keyed := []*cobra.Command{
		cc.sub("set <key> <value>", "Set a configuration value", cobra.ExactArgs(2), cc.set),
		cc.sub("get <key>", "Get a configuration value", cobra.ExactArgs(1), cc.get),
		cc.sub("unset <key>", "Restore the default of a configuration value", cobra.ExactArgs(1), cc.unset),
	}
	for _, sub := range keyed {
		sub.ValidArgsFunction = completeKeys
	}
	cmd.AddCommand(keyed...)
	cmd.AddCommand(
		cc.sub("show", "Show all configuration values", cobra.NoArgs, cc.show),
		cc.sub("reset", "Print the current values and delete the settings file", cobra.NoArgs, cc.reset),
		cc.sub("path", "Show the settings file path", cobra.NoArgs, cc.path),
	)
	return cmd
}

type configCommand struct {
	opts   *ConfigOptions
	format string
}

func (cc *configCommand) sub(use, short string, args cobra.PositionalArgs,
	run func(s *settings.Settings, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cc.opts.Settings()
			if err != nil {
				return err
			}
			return run(s, args)
		},
	}
}

func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return settings.Keys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func (cc *configCommand) print(v any) error {
	return output.Write(cc.opts.Output, v, output.DefaultStyle().WithFormat(cc.format))
}

func (cc *configCommand) set(s *settings.Settings, args []string) error {
	old, err := s.Set(args[0], args[1])
	if err != nil {
		return err
	}
	value, _ := s.Get(args[0])
	return cc.print(change{Key: args[0], Value: value, OldValue: old})
}

func (cc *configCommand) get(s *settings.Settings, args []string) error {
	value, err := s.Get(args[0])
	if err != nil {
		return err
	}
	return cc.print(map[string]any{"key": args[0], "value": value})
}

func (cc *configCommand) unset(s *settings.Settings, args []string) error {
	old, err := s.Unset(args[0])
	if err != nil {
		return err
	}
	value, _ := s.Get(args[0])
	return cc.print(change{Key: args[0], Value: value, OldValue: old})
}

func (cc *configCommand) show(s *settings.Settings, _ []string) error {
	return cc.print(s.All())
}

// reset prints the values being discarded before removing the file.
func (cc *configCommand) reset(s *settings.Settings, _ []string) error {
	if err := cc.print(s.All()); err != nil {
		return err
	}
	return s.Reset()
}

func (cc *configCommand) path(s *settings.Settings, _ []string) error {
	_, err := fmt.Fprintln(cc.opts.Output, s.Path())
	return err
}
