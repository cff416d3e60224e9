package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avigneault/groundwork/internal/model"
)

func newProvisionCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{Mode: model.ModeProvision}

	cmd := &cobra.Command{
		Use:   "provision <catalog-file>",
		Short: "Bring the host to the catalog's desired state",
		Long: `Provision walks the catalog's provision list in declaration order. Each
item is probed first; items already in their desired state are left alone,
drifted items are applied and then probed again to confirm. With --dry-run
nothing is changed and drifted items are reported as would_apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.CatalogPath = args[0]
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.NonInteractive = opts.NonInteractive || !term.IsTerminal(int(os.Stdout.Fd()))

			if err := validateCatalogPath(opts.CatalogPath); err != nil {
				return err
			}

			return runCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Env file overriding the catalog's settings.env_file")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Override a catalog variable (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.NonInteractive, "no-tui", false, "Disable the live view even on a terminal")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record this run in the history store")

	return cmd
}
