// Package durable runs benchmark attempts as Temporal activities so a bench
// survives worker restarts. One workflow covers one issue: it fans out an
// attempt activity per workspace and finishes with the selection activity.
package durable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casualjim/swekit/benchmark"
	"github.com/casualjim/swekit/pkg/uuidx"
	"github.com/casualjim/swekit/provider"
	"github.com/casualjim/swekit/swe"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

const (
	TaskQueue        = "swekit-bench"
	WorkflowName     = "SWEBench"
	AttemptActivity  = "SWEAttempt"
	SelectActivity   = "SWESelect"
	attemptTimeout   = 2 * time.Hour
	selectionTimeout = 10 * time.Minute
)

// DefaultRetryPolicy retries activities after 1s, 2s, 4s and 8s.
func DefaultRetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:        time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        time.Minute,
		MaximumAttempts:        5,
		NonRetryableErrorTypes: []string{invalidIssueError},
	}
}

const (
	invalidIssueError  = "InvalidIssue"
	attemptFailedError = "AttemptFailed"
)

type Input struct {
	WorkspaceIDs []string  `json:"workspace_ids"`
	Issue        swe.Issue `json:"issue"`
}

type AttemptInput struct {
	WorkspaceID string    `json:"workspace_id"`
	Issue       swe.Issue `json:"issue"`
}

type SelectInput struct {
	Issue    swe.Issue                  `json:"issue"`
	Attempts []benchmark.AttemptOutcome `json:"attempts"`
}

// Bench holds the workflow and the activities around a runner.
type Bench struct {
	runner    *benchmark.Runner
	attempter benchmark.Attempter
	retry     *temporal.RetryPolicy
}

// New creates the workflow host. A nil retry policy uses DefaultRetryPolicy.
func New(attempter benchmark.Attempter, runner *benchmark.Runner, retry *temporal.RetryPolicy) *Bench {
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	return &Bench{runner: runner, attempter: attempter, retry: retry}
}

type registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds the workflow and activities to a worker or a test environment.
func (b *Bench) Register(r registry) {
	r.RegisterWorkflowWithOptions(b.Workflow, workflow.RegisterOptions{Name: WorkflowName})
	r.RegisterActivityWithOptions(b.Attempt, activity.RegisterOptions{Name: AttemptActivity})
	r.RegisterActivityWithOptions(b.Select, activity.RegisterOptions{Name: SelectActivity})
}

// NewWorker creates a worker on TaskQueue that runs at most workers attempts at once.
func (b *Bench) NewWorker(c client.Client, workers int) worker.Worker {
	w := worker.New(c, TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: max(workers, 1),
	})
	b.Register(w)
	return w
}

// Workflow runs every attempt and then the selection. Attempts that still
// fail after their retries are recorded with their error and take no part in
// the selection.
func (b *Bench) Workflow(ctx workflow.Context, in Input) (benchmark.Outcome, error) {
	lg := workflow.GetLogger(ctx)
	lg.Info("starting bench", "instance_id", in.Issue.InstanceID, "workspaces", len(in.WorkspaceIDs))

	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: attemptTimeout,
		RetryPolicy:         b.retry,
	})
	futures := make([]workflow.Future, len(in.WorkspaceIDs))
	for i, id := range in.WorkspaceIDs {
		futures[i] = workflow.ExecuteActivity(actx, AttemptActivity, AttemptInput{WorkspaceID: id, Issue: in.Issue})
	}

	attempts := make([]benchmark.AttemptOutcome, len(futures))
	for i, f := range futures {
		var out benchmark.AttemptOutcome
		if err := f.Get(ctx, &out); err != nil {
			lg.Error("attempt failed", "workspace_id", in.WorkspaceIDs[i], "error", err)
			out = benchmark.AttemptOutcome{WorkspaceID: in.WorkspaceIDs[i], Status: swe.Fail, Error: rootCause(err).Error()}
		}
		attempts[i] = out
	}

	sctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: selectionTimeout,
		RetryPolicy:         b.retry,
	})
	var sel benchmark.Selection
	if err := workflow.ExecuteActivity(sctx, SelectActivity, SelectInput{Issue: in.Issue, Attempts: attempts}).Get(ctx, &sel); err != nil {
		return benchmark.Outcome{Attempts: attempts}, fmt.Errorf("select patch: %w", err)
	}
	return benchmark.Outcome{Attempts: attempts, Selection: sel}, nil
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Attempt runs the agent in one workspace. Only throttled attempts are
// retried; any other failure leaves edits behind in the workspace, so it is
// final.
func (b *Bench) Attempt(ctx context.Context, in AttemptInput) (benchmark.AttemptOutcome, error) {
	if err := in.Issue.Validate(); err != nil {
		return benchmark.AttemptOutcome{}, temporal.NewNonRetryableApplicationError(err.Error(), invalidIssueError, err)
	}
	res, err := b.attempter.Run(ctx, in.WorkspaceID, in.Issue)
	if err != nil {
		if provider.IsThrottled(err) {
			return benchmark.AttemptOutcome{}, err
		}
		return benchmark.AttemptOutcome{}, temporal.NewNonRetryableApplicationError(err.Error(), attemptFailedError, err)
	}
	return benchmark.AttemptOutcome{
		WorkspaceID: in.WorkspaceID,
		Patch:       res.Patch,
		Status:      res.Status,
		Steps:       res.Steps,
		Duration:    res.Duration,
	}, nil
}

func (b *Bench) Select(ctx context.Context, in SelectInput) (benchmark.Selection, error) {
	return b.runner.Select(ctx, in.Issue, in.Attempts), nil
}

// Client starts bench workflows. It implements benchmark.Bencher.
type Client struct {
	client client.Client
}

func NewClient(c client.Client) *Client {
	return &Client{client: c}
}

func (c *Client) Run(ctx context.Context, workspaceIDs []string, issue swe.Issue) (benchmark.Outcome, error) {
	if err := issue.Validate(); err != nil {
		return benchmark.Outcome{}, err
	}
	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    uuidx.Prefixed("swe-bench-" + issue.InstanceID),
		TaskQueue:             TaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, WorkflowName, Input{WorkspaceIDs: workspaceIDs, Issue: issue})
	if err != nil {
		return benchmark.Outcome{}, fmt.Errorf("start bench workflow: %w", err)
	}

	var out benchmark.Outcome
	if err := run.Get(ctx, &out); err != nil {
		return benchmark.Outcome{}, fmt.Errorf("bench workflow %s: %w", run.GetID(), err)
	}
	return out, nil
}
