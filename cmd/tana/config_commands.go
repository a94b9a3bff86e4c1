package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and check the library settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			settings, err := cfg.Library.Settings.Normalize()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration valid")
			if cfg.File != "" {
				fmt.Fprintf(out, "  file:         %s\n", cfg.File)
			}
			fmt.Fprintf(out, "  source:       %s\n", settings.SourceDir)
			for _, dest := range settings.Destinations {
				fmt.Fprintf(out, "  destination:  %s\n", dest)
			}
			fmt.Fprintf(out, "  template:     %s\n", settings.Template)
			fmt.Fprintf(out, "  rules:        %d\n", len(settings.TemplateRules))
			return nil
		},
	}
}
