package swe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/swekit/agent"
	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/executor"
	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/prompts"
	"github.com/casualjim/swekit/workspace"
)

// DefaultBaselineTurns bounds the model calls of a baseline run.
const DefaultBaselineTurns = 70

// Baseline is the single agent variant: one engineer with search, git and
// file editing tools that works the issue end to end.
type Baseline struct {
	Agent       api.Agent
	Workspace   workspace.Executor
	WorkspaceID string
	RepoName    string
	MaxTurns    int
	Executor    executor.Executor
}

func NewBaseline(model api.Model, ws workspace.Executor, workspaceID, repoName string) *Baseline {
	data := prompts.AgentData{RepoName: repoName}
	return &Baseline{
		Agent: agent.New(
			agent.Name(SoftwareEngineer),
			agent.Model(model),
			agent.Instructions(prompts.MustRender(prompts.BaselineInstructions, data)),
			agent.Tools(workspace.Tools(ws, workspaceID, workspace.Navigation|workspace.Editing|workspace.Shell)...),
			agent.ParallelToolCalls(false),
		),
		Workspace:   ws,
		WorkspaceID: workspaceID,
		RepoName:    repoName,
		MaxTurns:    DefaultBaselineTurns,
		Executor:    executor.NewLocal(),
	}
}

// Run hands the issue to the agent and returns the patch of the workspace
// afterwards. Running out of turns is logged; the patch is still collected.
func (b *Baseline) Run(ctx context.Context, issue Issue, hook events.Hook) (string, error) {
	if err := issue.Validate(); err != nil {
		return "", err
	}
	if hook == nil {
		hook = events.Log(nil)
	}
	lg := slog.Default().With(
		slogx.LoggerName("swekit.baseline"),
		slogx.InstanceID(issue.InstanceID),
		slogx.WorkspaceID(b.WorkspaceID),
	)

	task, err := prompts.Render(prompts.BaselineDescription, prompts.AgentData{
		RepoName: b.RepoName,
		Issue:    issue.Description,
	})
	if err != nil {
		return "", err
	}
	expected, err := prompts.Render(prompts.BaselineExpectedOutput, nil)
	if err != nil {
		return "", err
	}
	prompt := task + "\n\nExpected output: " + expected

	thread := shorttermmemory.New()
	msg := messages.New().WithSender("user").UserPrompt(prompt)
	thread.AddUserPrompt(msg)
	hook.OnUserPrompt(ctx, msg)

	cmd, err := executor.NewRunCommand(b.Agent, thread, hook)
	if err != nil {
		return "", err
	}
	maxTurns := b.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultBaselineTurns
	}
	exec := b.Executor
	if exec == nil {
		exec = executor.NewLocal()
	}

	res, err := exec.Run(ctx, cmd.WithMaxTurns(maxTurns))
	switch {
	case errors.Is(err, executor.ErrMaxTurns):
		lg.WarnContext(ctx, "baseline agent ran out of turns", slog.Int("max_turns", maxTurns))
	case err != nil:
		return "", fmt.Errorf("baseline agent: %w", err)
	default:
		lg.InfoContext(ctx, "baseline agent finished", slog.Int("turns", res.Turns))
	}

	return workspace.GitPatch(ctx, b.Workspace, b.WorkspaceID)
}
