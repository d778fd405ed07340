package swe

import (
	"context"
	"errors"
	"testing"

	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/provider"
	"github.com/casualjim/swekit/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttempt_Run_TestsPass(t *testing.T) {
	ws := newFakeWorkspace()
	ws.replies[workspace.ActionExecCommand] = `{"successful":true,"data":{"stdout":"== 12 passed in 0.3s =="}}`
	j, judgeProv := testJudge(text("PASS"))
	a := &Attempt{
		Model:     script(callTool(RunTestsTool, "{}"), text("fixed. "+PatchCompleted)),
		Judge:     j,
		Workspace: ws,
	}

	res, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.NoError(t, err)
	assert.Equal(t, Pass, res.Status)
	assert.Equal(t, "diff --git a/astropy/io.py b/astropy/io.py\n", res.Patch)
	assert.Equal(t, "ws-1", res.WorkspaceID)
	assert.Positive(t, res.Steps)

	assert.Equal(t, []string{
		"cd ~/astropy",
		"cd ~/astropy && pytest astropy/modeling/tests/test_separable.py",
	}, ws.commands())

	actions := ws.actions()
	assert.Equal(t, workspace.ActionGitRepoTree, actions[0])
	assert.Equal(t, workspace.ActionChangeWorkDir, actions[len(actions)-2])
	assert.Equal(t, workspace.ActionGitPatch, actions[len(actions)-1])

	require.Len(t, judgeProv.calls, 1)
	assert.Equal(t, "You are expert at reading test responses.", judgeProv.calls[0].Instructions)
}

func TestAttempt_Run_FirstPrompt(t *testing.T) {
	model := script(text(PatchCompleted))
	a := &Attempt{Model: model, Workspace: newFakeWorkspace()}

	_, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.NoError(t, err)

	var prompt messages.UserMessage
	for msg := range model.prov.calls[0].Thread.MessagesIter() {
		if um, ok := msg.Payload.(messages.UserMessage); ok {
			prompt = um
			break
		}
	}
	assert.Contains(t, prompt.Content, astropyIssue.Description+" in the repo: astropy/astropy. Output to git tree command ")
	assert.Contains(t, prompt.Content, "git_repo_tree.txt")
}

func TestAttempt_Run_TestsFail(t *testing.T) {
	j, _ := testJudge(text("FAIL: 2 tests failed"))
	a := &Attempt{
		Model:     script(callTool(RunTestsTool, "{}"), text(PatchCompleted)),
		Judge:     j,
		Workspace: newFakeWorkspace(),
	}

	res, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.NoError(t, err)
	assert.Equal(t, Fail, res.Status)
	assert.NotEmpty(t, res.Patch)
}

func TestAttempt_Run_NotRun(t *testing.T) {
	j, judgeProv := testJudge(text("PASS"))
	a := &Attempt{Model: script(text(PatchCompleted)), Judge: j, Workspace: newFakeWorkspace()}

	res, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.NoError(t, err)
	assert.Equal(t, NotRun, res.Status)
	assert.NotEmpty(t, res.Patch)
	assert.Empty(t, judgeProv.calls)
}

func TestAttempt_Run_PatchFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "unsuccessful", reply: `{"successful":false,"error":"not a git repository"}`},
		{name: "no data", reply: `{"successful":true}`},
		{name: "empty patch", reply: `{"successful":true,"data":{"patch":""}}`},
		{name: "transport", err: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newFakeWorkspace()
			ws.replies[workspace.ActionGitPatch] = tt.reply
			if tt.err != nil {
				ws.errs[workspace.ActionGitPatch] = tt.err
			}
			j, _ := testJudge(text("PASS"))
			a := &Attempt{Model: script(callTool(RunTestsTool, "{}"), text(PatchCompleted)), Judge: j, Workspace: ws}

			res, err := a.Run(context.Background(), "ws-1", astropyIssue)
			require.NoError(t, err)
			assert.Empty(t, res.Patch)
			assert.Equal(t, Fail, res.Status)
		})
	}
}

func TestAttempt_Run_GraphErrorsAreNotFatal(t *testing.T) {
	t.Run("recursion limit", func(t *testing.T) {
		a := &Attempt{
			Model:          script(text("still looking")),
			Workspace:      newFakeWorkspace(),
			RecursionLimit: 4,
		}
		res, err := a.Run(context.Background(), "ws-1", astropyIssue)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Patch)
		assert.Equal(t, NotRun, res.Status)
		assert.LessOrEqual(t, res.Steps, 4)
	})

	t.Run("provider error", func(t *testing.T) {
		model := script()
		model.prov.err = errors.New("invalid request")
		a := &Attempt{Model: model, Workspace: newFakeWorkspace()}

		res, err := a.Run(context.Background(), "ws-1", astropyIssue)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Patch)
	})
}

func TestAttempt_Run_NoModel(t *testing.T) {
	ws := newFakeWorkspace()
	_, err := (&Attempt{Workspace: ws}).Run(context.Background(), "ws-1", astropyIssue)
	require.EqualError(t, err, "attempt has no model")
	assert.Empty(t, ws.calls)
}

func TestAttempt_Run_JudgeFailure(t *testing.T) {
	j, judgeProv := testJudge()
	judgeProv.err = provider.ErrThrottled
	a := &Attempt{
		Model:     script(callTool(RunTestsTool, "{}"), text(PatchCompleted)),
		Judge:     j,
		Workspace: newFakeWorkspace(),
	}

	res, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.NoError(t, err)
	assert.Equal(t, Fail, res.Status)
	assert.NotEmpty(t, res.Patch)
	assert.Len(t, judgeProv.calls, 5)
}

func TestAttempt_Run_WorkspaceErrors(t *testing.T) {
	ws := newFakeWorkspace()
	ws.errs[workspace.ActionGitRepoTree] = errors.New("workspace gone")
	a := &Attempt{Model: script(text(PatchCompleted)), Workspace: ws}

	_, err := a.Run(context.Background(), "ws-1", astropyIssue)
	require.EqualError(t, err, "workspace gone")

	_, err = a.Run(context.Background(), "ws-1", Issue{RepoName: "astropy/astropy"})
	require.Error(t, err)
}

func TestTestStatus(t *testing.T) {
	assert.True(t, Pass.Passed())
	assert.False(t, Fail.Passed())
	assert.False(t, NotRun.Passed())
	assert.Equal(t, "NOT RUN", NotRun.String())
}
