package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/store"
	"github.com/casualjim/swekit/workspace"
	"github.com/goccy/go-json"
)

const (
	DefaultRunID        = "temp"
	DefaultOutputDir    = "runs"
	DefaultNumInstances = 3
	PredictionsFile     = "predictions.jsonl"
)

// Prediction is one line of the predictions file read by the SWE-bench harness.
type Prediction struct {
	InstanceID      string `json:"instance_id"`
	ModelNameOrPath string `json:"model_name_or_path"`
	ModelPatch      string `json:"model_patch"`
}

// Options configures Evaluate.
type Options struct {
	// Dataset is a JSON or JSON lines file of SWE-bench instances.
	Dataset     string
	Split       string
	InstanceIDs []string
	RunID       string
	// NumInstances is the number of workspaces, and so attempts, per instance.
	NumInstances int
	OutputDir    string
	DryRun       bool
	IncludeHints bool
	// Image is the workspace image, empty for the service default.
	Image     string
	ModelName string

	Workspaces workspace.Service
	Bencher    Bencher
	// Store defaults to JSON lines next to the predictions.
	Store store.Store
}

func (o *Options) defaults() {
	if o.RunID == "" {
		o.RunID = DefaultRunID
	}
	if o.NumInstances <= 0 {
		o.NumInstances = DefaultNumInstances
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.ModelName == "" {
		o.ModelName = "swekit"
	}
}

func (o *Options) validate() error {
	var err error
	if o.Dataset == "" {
		err = errors.Join(err, errors.New("dataset is required"))
	}
	if o.Workspaces == nil {
		err = errors.Join(err, errors.New("workspace service is required"))
	}
	if o.Bencher == nil && !o.DryRun {
		err = errors.Join(err, errors.New("bencher is required"))
	}
	return err
}

// Report summarizes an evaluation.
type Report struct {
	RunID       string
	Predictions string
	Instances   int
	Patched     int
	Failed      int
}

// Evaluate runs the benchmark over the selected instances, one after the
// other, and writes a prediction for each. An instance whose workspaces
// can't be created gets an empty prediction.
func Evaluate(ctx context.Context, o Options) (Report, error) {
	o.defaults()
	if err := o.validate(); err != nil {
		return Report{}, err
	}
	split, err := ResolveSplit(o.Split, o.InstanceIDs)
	if err != nil {
		return Report{}, err
	}
	insts, err := LoadDataset(o.Dataset)
	if err != nil {
		return Report{}, err
	}
	selected := SelectInstances(insts, split, o.InstanceIDs)

	runDir := filepath.Join(o.OutputDir, o.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create run directory: %w", err)
	}
	st := o.Store
	if st == nil {
		if st, err = store.JSONL(runDir); err != nil {
			return Report{}, err
		}
		defer st.Close()
	}

	predPath := filepath.Join(runDir, PredictionsFile)
	f, err := os.Create(predPath)
	if err != nil {
		return Report{}, fmt.Errorf("create predictions: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)

	lg := slog.Default().With(slogx.LoggerName("swekit.evaluate"), slogx.RunID(o.RunID))
	lg.InfoContext(ctx, "starting evaluation",
		slog.String("split", split.String()),
		slog.Int("instances", len(selected)),
		slog.Int("workspaces_per_instance", o.NumInstances),
		slog.Bool("dry_run", o.DryRun),
	)

	rep := Report{RunID: o.RunID, Predictions: predPath}
	start := time.Now()
	for _, inst := range selected {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		patch, err := evaluateInstance(ctx, o, st, inst)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			lg.ErrorContext(ctx, "instance failed", slogx.InstanceID(inst.InstanceID), slogx.Error(err))
			rep.Failed++
		}
		if patch != "" {
			rep.Patched++
		}
		rep.Instances++
		if err := enc.Encode(Prediction{
			InstanceID:      inst.InstanceID,
			ModelNameOrPath: o.ModelName,
			ModelPatch:      patch,
		}); err != nil {
			return rep, fmt.Errorf("write prediction: %w", err)
		}
	}

	lg.InfoContext(ctx, "evaluation finished",
		slog.Int("instances", rep.Instances),
		slog.Int("patched", rep.Patched),
		slog.Int("failed", rep.Failed),
		slogx.Elapsed(start),
	)
	return rep, nil
}

func evaluateInstance(ctx context.Context, o Options, st store.Store, inst Instance) (string, error) {
	issue := inst.Issue(o.IncludeHints)
	lg := slog.Default().With(slogx.LoggerName("swekit.evaluate"), slogx.InstanceID(inst.InstanceID))

	ids, err := createWorkspaces(ctx, o, inst)
	defer closeWorkspaces(ctx, lg, o.Workspaces, ids)
	if err != nil {
		return "", err
	}

	var out Outcome
	if o.DryRun {
		lg.InfoContext(ctx, "dry run, skipping agents", slog.Any("workspaces", ids))
	} else if out, err = o.Bencher.Run(ctx, ids, issue); err != nil {
		return "", err
	}

	for _, a := range out.Attempts {
		if err := st.SaveAttempt(ctx, store.Attempt{
			RunID:       o.RunID,
			InstanceID:  inst.InstanceID,
			WorkspaceID: a.WorkspaceID,
			Status:      a.Status.String(),
			Patch:       a.Patch,
			Error:       a.Error,
			Duration:    a.Duration,
		}); err != nil {
			lg.WarnContext(ctx, "record attempt", slogx.Error(err))
		}
	}
	if err := st.SaveSelection(ctx, store.Selection{
		RunID:       o.RunID,
		InstanceID:  inst.InstanceID,
		Patch:       out.Selection.Patch,
		ChosenIndex: out.Selection.Chosen,
		Fallback:    out.Selection.Fallback,
	}); err != nil {
		lg.WarnContext(ctx, "record selection", slogx.Error(err))
	}
	return out.Selection.Patch, nil
}

func createWorkspaces(ctx context.Context, o Options, inst Instance) ([]string, error) {
	req := workspace.CreateRequest{
		Image:      o.Image,
		Repo:       inst.Repo,
		BaseCommit: inst.BaseCommit,
	}
	ids := make([]string, 0, o.NumInstances)
	for range o.NumInstances {
		id, err := o.Workspaces.Create(ctx, req)
		if err != nil {
			return ids, fmt.Errorf("create workspace: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func closeWorkspaces(ctx context.Context, lg *slog.Logger, svc workspace.Service, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := svc.Close(ctx, id); err != nil {
			lg.WarnContext(ctx, "close workspace", slogx.WorkspaceID(id), slogx.Error(err))
		}
	}
}
