// Package cli implements the guardctl command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	cfgPath string
	envFile string
	debug   bool
}

// NewRootCmd builds the guardctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "guardctl",
		Short:         "Drive an async guard from the command line",
		Long:          `guardctl runs a simulated flaky action through the timeout race, retry policy and guard state machine, printing every state change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.cfgPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded when present")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

// Execute runs guardctl and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
