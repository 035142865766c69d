package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("exemplarfill failed")
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var root = &cobra.Command{
		Use:           "exemplarfill",
		Short:         "Fill image regions with patches copied from the rest of the image.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(FillCommand(), ConfigCommand())
	return root
}
