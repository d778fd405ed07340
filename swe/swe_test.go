package swe

import (
	"context"
	"sync"

	"github.com/casualjim/swekit/judge"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/provider"
	"github.com/casualjim/swekit/workspace"
	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

// scriptedProvider plays back responses in order and repeats the last one.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []messages.Response
	err       error
	calls     []provider.CompletionParams
}

func (p *scriptedProvider) ChatCompletion(_ context.Context, params provider.CompletionParams) (provider.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, params)
	if p.err != nil {
		return provider.Completion{}, p.err
	}
	idx := min(len(p.calls)-1, len(p.responses)-1)
	return provider.Completion{RunID: params.RunID, Response: p.responses[idx]}, nil
}

func (p *scriptedProvider) toolNames(call int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, d := range p.calls[call].Tools {
		names = append(names, d.Name)
	}
	return names
}

type scriptedModel struct {
	prov *scriptedProvider
}

func (m *scriptedModel) Name() string                { return "scripted" }
func (m *scriptedModel) Provider() provider.Provider { return m.prov }

func script(responses ...messages.Response) *scriptedModel {
	return &scriptedModel{prov: &scriptedProvider{responses: responses}}
}

func text(s string) messages.Response {
	return messages.AssistantMessage{Content: s}
}

func callTool(name, args string) messages.Response {
	return messages.ToolCallMessage{ToolCalls: []messages.ToolCallData{{ID: "call-" + name, Name: name, Arguments: args}}}
}

type wsCall struct {
	ID     string
	Action workspace.Action
	Params map[string]any
}

// fakeWorkspace answers actions from a table of JSON replies.
type fakeWorkspace struct {
	mu      sync.Mutex
	replies map[workspace.Action]string
	errs    map[workspace.Action]error
	calls   []wsCall
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		replies: map[workspace.Action]string{
			workspace.ActionGitRepoTree:   `{"successful":true,"data":{"success":"git repo tree written to git_repo_tree.txt"}}`,
			workspace.ActionExecCommand:   `{"successful":true,"data":{"stdout":"","stderr":""}}`,
			workspace.ActionChangeWorkDir: `{"successful":true,"data":{}}`,
			workspace.ActionGitPatch:      `{"successful":true,"data":{"patch":"diff --git a/astropy/io.py b/astropy/io.py\n"}}`,
		},
		errs: map[workspace.Action]error{},
	}
}

func (f *fakeWorkspace) Execute(_ context.Context, id string, action workspace.Action, params map[string]any) (workspace.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, wsCall{ID: id, Action: action, Params: params})
	if err := f.errs[action]; err != nil {
		return workspace.Response{}, err
	}
	reply, ok := f.replies[action]
	if !ok {
		reply = `{"successful":true,"data":{}}`
	}
	res := gjson.Parse(reply)
	return workspace.Response{
		Successful: res.Get("successful").Bool(),
		Data:       res.Get("data"),
		Error:      res.Get("error").String(),
	}, nil
}

func (f *fakeWorkspace) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cmds []string
	for _, c := range f.calls {
		if c.Action == workspace.ActionExecCommand {
			cmds = append(cmds, c.Params["cmd"].(string))
		}
	}
	return cmds
}

func (f *fakeWorkspace) actions() []workspace.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []workspace.Action
	for _, c := range f.calls {
		out = append(out, c.Action)
	}
	return out
}

func testJudge(answers ...messages.Response) (*judge.Judge, *scriptedProvider) {
	m := script(answers...)
	return judge.New(m, judge.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })), m.prov
}

var astropyIssue = Issue{
	InstanceID:  "astropy__astropy-12907",
	RepoName:    "astropy/astropy",
	Description: "separability_matrix does not compute separability correctly for nested CompoundModels",
	TestCommand: "pytest astropy/modeling/tests/test_separable.py",
}
