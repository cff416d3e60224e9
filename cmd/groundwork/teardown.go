package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avigneault/groundwork/internal/model"
)

func newTeardownCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{Mode: model.ModeTeardown}

	cmd := &cobra.Command{
		Use:   "teardown <catalog-file>",
		Short: "Remove what the catalog's teardown list declares",
		Long: `Teardown walks the catalog's teardown list in declaration order. The
list is its own program: it is never derived by reversing the provision
list. Items whose desired absence already holds are left alone.`,
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
