package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "groundwork",
		Short:         "groundwork reconciles a host against a declarative catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Probe only and report what would change")

	cmd.AddCommand(newProvisionCmd(flags))
	cmd.AddCommand(newTeardownCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newFactsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
