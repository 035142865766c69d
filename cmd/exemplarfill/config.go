package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"exemplarfill/pkg/config"
)

// ConfigCommand groups configuration file helpers
func ConfigCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "config",
		Short: "Manage exemplarfill configuration files.",
	}
	command.AddCommand(configInitCommand())
	return command
}

func configInitCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file holding the default values.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "exemplarfill.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return errors.Wrapf(err, "could not create config file '%v'", path)
			}
			log.Info().Str("path", path).Msg("Default configuration written")
			return nil
		},
	}
	return command
}
