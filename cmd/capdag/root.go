// Package main implements the capdag CLI, a thin Cobra front-end over the
// planner package for exploring conversion paths and compiling plans
// against a directory of local cap definitions.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "capdag",
	Short: "Explore and compile capability conversion plans.",
	Long: `capdag finds conversion paths between media specs across a set of
capability definitions, analyzes their input/output cardinality, and
compiles them into validated, topologically-ordered execution plans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("caps-dir", ".", "directory of JSON cap definitions to load")
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}

func main() {
	os.Exit(Execute())
}
