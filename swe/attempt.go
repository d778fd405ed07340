package swe

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/casualjim/swekit"
	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/judge"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/prompts"
	"github.com/casualjim/swekit/workspace"
)

// TestStatus is the verdict on the tests run during an attempt.
type TestStatus string

const (
	NotRun TestStatus = "NOT RUN"
	Pass   TestStatus = "PASS"
	Fail   TestStatus = "FAIL"
)

func (s TestStatus) String() string {
	return string(s)
}

// Passed reports whether the status counts as passing tests.
func (s TestStatus) Passed() bool {
	return strings.Contains(string(s), string(Pass))
}

const testVerdictSystem = "You are expert at reading test responses."

// Result is the outcome of one attempt in one workspace.
type Result struct {
	WorkspaceID string
	Patch       string
	Status      TestStatus
	Steps       int
	Duration    time.Duration
}

// Attempt runs the agent graph on an issue in a prepared workspace.
type Attempt struct {
	Model          api.Model
	Judge          *judge.Judge
	Workspace      workspace.Executor
	Hook           events.Hook
	RecursionLimit int
}

// Run works the issue in workspace workspaceID and collects the patch.
//
// Graph failures, including running out of steps, are logged and the patch
// is still collected. When the engineer never ran the tests the status is
// NotRun. Otherwise the judge reads the test output.
func (a *Attempt) Run(ctx context.Context, workspaceID string, issue Issue) (res Result, err error) {
	if err := issue.Validate(); err != nil {
		return Result{}, err
	}
	if a.Model == nil {
		return Result{}, errors.New("attempt has no model")
	}
	start := time.Now()
	short := issue.RepoShortName()
	lg := slog.Default().With(
		slogx.LoggerName("swekit.attempt"),
		slogx.InstanceID(issue.InstanceID),
		slogx.WorkspaceID(workspaceID),
	)
	res = Result{WorkspaceID: workspaceID, Status: Fail}
	defer func() { res.Duration = time.Since(start) }()

	treeResp, err := workspace.GitRepoTree(ctx, a.Workspace, workspaceID)
	if err != nil {
		return res, err
	}
	tree := treeResp.String()
	lg.DebugContext(ctx, "git tree", slog.Bool("successful", treeResp.Successful))

	if _, err := workspace.Exec(ctx, a.Workspace, workspaceID, "cd ~/"+short); err != nil {
		return res, err
	}

	graph, rec := NewGraph(a.Model, a.Workspace, workspaceID, short, issue.TestCommand)
	prompt, err := prompts.Issue(issue.Description, issue.RepoName, tree)
	if err != nil {
		return res, err
	}

	hook := a.Hook
	if hook == nil {
		hook = events.Log(lg)
	}
	limit := a.RecursionLimit
	if limit <= 0 {
		limit = swekit.DefaultRecursionLimit
	}
	out, err := graph.Invoke(ctx, prompt, swekit.WithHook(hook), swekit.WithRecursionLimit(limit))
	res.Steps = out.Steps
	switch {
	case errors.Is(err, swekit.ErrRecursionLimit):
		lg.WarnContext(ctx, "graph hit the recursion limit", slog.Int("steps", out.Steps))
	case err != nil:
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		lg.ErrorContext(ctx, "graph invocation failed", slogx.Error(err))
	default:
		lg.InfoContext(ctx, "graph finished", slog.String("node", out.Node), slog.Int("steps", out.Steps))
	}

	if _, err := workspace.ChangeDir(ctx, a.Workspace, workspaceID, "/home/user/"+short); err != nil {
		lg.WarnContext(ctx, "change directory failed", slogx.Error(err))
	}
	patch, err := workspace.GitPatch(ctx, a.Workspace, workspaceID)
	if err != nil {
		lg.WarnContext(ctx, "no patch", slogx.Error(err))
		return res, nil
	}
	res.Patch = patch

	output, ran := rec.Output()
	if !ran {
		lg.InfoContext(ctx, "tests were not run")
		res.Status = NotRun
		return res, nil
	}

	res.Status = a.verdict(ctx, lg, output)
	return res, nil
}

func (a *Attempt) verdict(ctx context.Context, lg *slog.Logger, output string) TestStatus {
	if a.Judge == nil {
		lg.WarnContext(ctx, "no judge to read the test output")
		return Fail
	}
	prompt, err := prompts.TestVerdict(output)
	if err != nil {
		lg.ErrorContext(ctx, "render test verdict prompt", slogx.Error(err))
		return Fail
	}
	answer, err := a.Judge.Ask(ctx, testVerdictSystem, prompt)
	if err != nil {
		lg.ErrorContext(ctx, "judge could not read the test output", slogx.Error(err))
		return Fail
	}
	if strings.Contains(answer, string(Pass)) {
		return Pass
	}
	return Fail
}
