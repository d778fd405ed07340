// Command swe-bench runs the bug-fixing agent over SWE-bench instances and
// writes a predictions file for the evaluation harness.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/casualjim/swekit/benchmark"
	"github.com/casualjim/swekit/config"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/durable"
	"github.com/casualjim/swekit/internal/logging"
	"github.com/casualjim/swekit/judge"
	"github.com/casualjim/swekit/pkg/natsx"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/pkg/tprl"
	"github.com/casualjim/swekit/store"
	"github.com/casualjim/swekit/store/postgres"
	"github.com/casualjim/swekit/swe"
	"github.com/casualjim/swekit/workspace"
	"github.com/spf13/pflag"
)

type options struct {
	split        string
	instanceIDs  []string
	runID        string
	dataset      string
	numInstances int
	workers      int
	output       string
	dryRun       bool
	temporal     bool
	includeHints bool
	image        string
}

func parseFlags(args []string) (options, error) {
	var o options
	var ids string
	fs := pflag.NewFlagSet("swe-bench", pflag.ContinueOnError)
	fs.StringVar(&o.split, "test-split", benchmark.DefaultSplit, "Test split ratio (e.g. 1:2, 1:300). Maximum 500 tests per project.")
	fs.StringVar(&ids, "test-instance-ids", "", "Test instance ids (comma-separated)")
	fs.StringVar(&o.runID, "run-id", benchmark.DefaultRunID, "Run id")
	fs.StringVar(&o.dataset, "dataset", "swe-bench-lite.jsonl", "SWE-bench dataset file (JSON or JSON lines)")
	fs.IntVar(&o.numInstances, "num-instances", benchmark.DefaultNumInstances, "Workspaces, and so attempts, per instance")
	fs.IntVar(&o.workers, "workers", benchmark.DefaultWorkers, "Attempts running at the same time")
	fs.StringVar(&o.output, "output", benchmark.DefaultOutputDir, "Directory for run results")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Create the workspaces but skip the agents")
	fs.BoolVar(&o.temporal, "temporal", false, "Run attempts as Temporal activities")
	fs.BoolVar(&o.includeHints, "include-hints", false, "Append the instance hints to the issue")
	fs.StringVar(&o.image, "image", "", "Workspace image, empty for the service default")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.instanceIDs = benchmark.ParseInstanceIDs(ids)
	if _, err := benchmark.ResolveSplit(o.split, o.instanceIDs); err != nil {
		return options{}, err
	}
	if o.numInstances < 1 || o.workers < 1 {
		return options{}, errors.New("--num-instances and --workers must be at least 1")
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mainE(ctx, o); err != nil {
		slog.Error("benchmark failed", slogx.Error(err))
		os.Exit(1)
	}
}

func mainE(ctx context.Context, o options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.Setup(os.Stderr, cfg.LogLevel); err != nil {
		slog.Warn("using info log level", slogx.Error(err))
	}
	slog.Info("running benchmark", slog.String("provider", cfg.String()), slogx.RunID(o.runID))

	ws, err := workspace.New(cfg.WorkspaceURL, workspace.WithAPIKey(cfg.WorkspaceAPIKey))
	if err != nil {
		return err
	}

	hook := events.Log(nil)
	if cfg.NATSURL != "" {
		nc, err := natsx.NewClient(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer nc.Drain()
		hook = events.Multi(hook, events.NATS(nc, "swekit.runs."+o.runID))
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	j := judge.New(cfg.Judge())
	attempt := &swe.Attempt{
		Model:     cfg.AgentModel(),
		Judge:     j,
		Workspace: ws,
		Hook:      hook,
	}
	runner := benchmark.NewRunner(attempt, j, benchmark.WithWorkers(o.workers))

	var bencher benchmark.Bencher = runner
	if o.temporal {
		tc, err := tprl.NewClient(cfg.TemporalAddress)
		if err != nil {
			return err
		}
		defer tc.Close()

		w := durable.New(attempt, runner, nil).NewWorker(tc, o.workers)
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start temporal worker: %w", err)
		}
		defer w.Stop()
		bencher = durable.NewClient(tc)
	}

	rep, err := benchmark.Evaluate(ctx, benchmark.Options{
		Dataset:      o.dataset,
		Split:        o.split,
		InstanceIDs:  o.instanceIDs,
		RunID:        o.runID,
		NumInstances: o.numInstances,
		OutputDir:    o.output,
		DryRun:       o.dryRun,
		IncludeHints: o.includeHints,
		Image:        o.image,
		ModelName:    cfg.Model,
		Workspaces:   ws,
		Bencher:      bencher,
		Store:        st,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d instances, %d patched, %d failed\npredictions: %s\n", rep.Instances, rep.Patched, rep.Failed, rep.Predictions)
	return nil
}

// openStore connects to Postgres when DATABASE_URL is set. A nil store lets
// Evaluate write JSON lines next to the predictions.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return postgres.New(db), nil
}
