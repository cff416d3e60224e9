package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avigneault/groundwork/internal/action"
	"github.com/avigneault/groundwork/internal/catalog"
	"github.com/avigneault/groundwork/internal/engine"
	"github.com/avigneault/groundwork/internal/execx"
	"github.com/avigneault/groundwork/internal/facts"
	"github.com/avigneault/groundwork/internal/history"
	"github.com/avigneault/groundwork/internal/logger"
	"github.com/avigneault/groundwork/internal/model"
	"github.com/avigneault/groundwork/internal/probe"
	"github.com/avigneault/groundwork/internal/report"
	"github.com/avigneault/groundwork/internal/tui"
)

type runOptions struct {
	CatalogPath    string
	Mode           model.RunMode
	DryRun         bool
	Verbose        bool
	NonInteractive bool
	NoHistory      bool
	EnvFile        string
	Vars           []string
}

var runCmdRunner = runCatalog

// runCatalog is the shared provision/teardown pipeline: parse, validate,
// compile, reconcile with a live view, then report and record history.
func runCatalog(opts runOptions) error {
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

	log, err := logger.New(logger.Options{Verbose: opts.Verbose, HumanReadable: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(3)
	}

	hostFacts := facts.Gather()
	plan, err := catalog.Compile(doc, catalog.CompileOptions{
		Mode:         opts.Mode,
		Facts:        hostFacts.Map(),
		Env:          env,
		VarOverrides: overrides,
		Probes:       probe.Builtins(),
		Actions:      action.Builtins(),
	})
	if err != nil {
		return err
	}

	var notices []string
	if opts.Mode == model.ModeProvision {
		notices = catalog.LintTeardownCoverage(doc)
	}

	// SIGINT/SIGTERM cancel the run; the engine finishes the in-flight
	// item before stopping.
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	runner := execx.New(log)
	if doc.Settings.GraceSeconds > 0 {
		runner = execx.NewWithGrace(log, time.Duration(doc.Settings.GraceSeconds)*time.Second)
	}
	session := probe.NewSession(hostFacts, plan.Vars, runner)

	modelState := tui.NewModel(plan, opts.NonInteractive)
	interactive := !opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			// Quitting the view (ctrl-c) stops the run between items.
			cancel()
			close(done)
		}()
	}

	for _, notice := range notices {
		dispatchTuiMessage(interactive, program, &modelState, tui.NoticeMsg{Message: notice})
	}

	rec := engine.New(plan, session, engine.Options{
		DryRun:         opts.DryRun,
		DefaultTimeout: time.Duration(doc.Settings.TimeoutSeconds) * time.Second,
		Logger:         log,
		Events:         &tuiEvents{interactive: interactive, program: program, state: &modelState},
	})

	rep, runErr := rec.Run(ctx)

	if interactive {
		if program != nil {
			program.Send(tea.QuitMsg{})
		}
		<-done
		if programErr != nil {
			fmt.Fprintf(os.Stderr, "Error rendering run view: %v\n", programErr)
			os.Exit(3)
		}
	} else {
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}

	fmt.Fprintln(os.Stdout)
	report.Render(os.Stdout, rep, opts.Verbose)

	if !opts.DryRun && !opts.NoHistory {
		// The run context dies with the view; the history write gets its own.
		if err := saveRunHistory(context.Background(), rep); err != nil {
			log.Warn(fmt.Sprintf("could not record run history: %v", err))
		}
	}

	if code := report.ExitCode(rep); code != 0 {
		os.Exit(code)
	}
	return nil
}

func saveRunHistory(ctx context.Context, rep *model.RunReport) error {
	store, err := history.Open(ctx, history.DefaultPath())
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	return store.SaveRun(ctx, rep)
}

// tuiEvents forwards engine progress into the run view.
type tuiEvents struct {
	interactive bool
	program     *tea.Program
	state       *tui.Model
}

func (e *tuiEvents) ItemStarted(item catalog.CompiledItem) {
	dispatchTuiMessage(e.interactive, e.program, e.state, tui.ItemStartMsg{ID: item.ID, Time: time.Now()})
}

func (e *tuiEvents) ItemFinished(res model.ItemResult) {
	dispatchTuiMessage(e.interactive, e.program, e.state, tui.ItemResultMsg{Result: res})
}

func dispatchTuiMessage(interactive bool, program *tea.Program, state *tui.Model, msg tea.Msg) {
	if interactive {
		if program != nil {
			program.Send(msg)
		}
		return
	}

	updated, _ := state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*state = m
	}
}
