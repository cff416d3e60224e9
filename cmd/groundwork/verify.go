package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avigneault/groundwork/internal/action"
	"github.com/avigneault/groundwork/internal/catalog"
	"github.com/avigneault/groundwork/internal/engine"
	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/logger"
	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/probe"
	"github.com/avigneault/groundwork/internal/report"
)

type verifyOptions struct {
	CatalogPath string
	Verbose     bool
	JSON        bool
	Vars        []string
	EnvFile     string
}

var verifyCmdRunner = runVerify

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <catalog-file>",
		Short: "Check host state against the catalog without changing anything",
		Long: `Verify probes every provision item and reports drift without applying.
Exit code 0 means the host matches the catalog, 1 means changes are
needed or a probe failed, 2 means the catalog itself is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.CatalogPath = args[0]
			opts.Verbose = root.verbose

			if err := validateCatalogPath(opts.CatalogPath); err != nil {
				return err
			}

			return verifyCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output the report as JSON")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Env file overriding the catalog's settings.env_file")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "Override a catalog variable (key=value, repeatable)")

	return cmd
}

func runVerify(opts verifyOptions) error {
	doc, err := catalog.ParseFile(opts.CatalogPath)
	if err != nil {
		return err
	}

	if opts.EnvFile != "" {
		doc.Settings.EnvFile = opts.EnvFile
	}
	env, err := catalog.RunEnv(doc, opts.CatalogPath)
	if err != nil {
		return err
	}
	overrides, err := parseVarFlags(opts.Vars)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Verbose: opts.Verbose, HumanReadable: !opts.JSON})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(3)
	}

	hostFacts := facts.Gather()
	plan, err := catalog.Compile(doc, catalog.CompileOptions{
		Mode:         model.ModeVerify,
		Facts:        hostFacts.Map(),
		Env:          env,
		VarOverrides: overrides,
		Probes:       probe.Builtins(),
		Actions:      action.Builtins(),
	})
	if err != nil {
		return err
	}

	session := probe.NewSession(hostFacts, plan.Vars, execx.New(log))
	rec := engine.New(plan, session, engine.Options{
		DefaultTimeout: time.Duration(doc.Settings.TimeoutSeconds) * time.Second,
		Logger:         log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, runErr := rec.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("verification aborted: %w", runErr)
	}

	if opts.JSON {
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			return err
		}
	} else {
		report.Render(os.Stdout, rep, opts.Verbose)
	}

	if code := report.ExitCode(rep); code != 0 {
		os.Exit(code)
	}
	return nil
}
