package swe

import (
	"context"
	"strings"
	"sync"

	"github.com/casualjim/swekit"
	"github.com/casualjim/swekit/agent"
	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/prompts"
	"github.com/casualjim/swekit/tool"
	"github.com/casualjim/swekit/workspace"
)

// Node names of the bug-fixing graph.
const (
	SoftwareEngineer = "software_engineer"
	CodeAnalyzer     = "code_analyzer"
	Editor           = "editor"
)

// Routing phrases the agents are instructed to answer with.
const (
	AnalyzeCode      = "ANALYZE CODE"
	EditFile         = "EDIT FILE"
	PatchCompleted   = "PATCH COMPLETED"
	AnalysisComplete = "ANALYSIS COMPLETE"
	EditingCompleted = "EDITING COMPLETED"
)

// RunTestsTool is the engineer's tool for running the project's tests.
const RunTestsTool = "RUN_TESTS"

// TestRecorder keeps the output of the last test run of an attempt.
type TestRecorder struct {
	mu     sync.Mutex
	output string
	ran    bool
}

func (r *TestRecorder) Record(output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = output
	r.ran = true
}

// Output returns the recorded output and whether the tests ran at all.
func (r *TestRecorder) Output() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output, r.ran
}

func (r *TestRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output = ""
	r.ran = false
}

// testOutput prefers the command's streams over the raw response.
func testOutput(resp workspace.Response) string {
	var parts []string
	for _, key := range []string{"stdout", "stderr"} {
		if s := resp.Data.Get(key).String(); s != "" {
			parts = append(parts, s)
		}
	}
	if resp.Error != "" {
		parts = append(parts, resp.Error)
	}
	if len(parts) == 0 {
		return resp.String()
	}
	return strings.Join(parts, "\n")
}

func runTestsTool(ws workspace.Executor, workspaceID, repoDir, testCommand string, rec *TestRecorder) tool.Definition {
	return tool.Must(
		func(ctx context.Context) (string, error) {
			resp, err := workspace.Exec(ctx, ws, workspaceID, "cd "+repoDir+" && "+testCommand)
			if err != nil {
				return "", err
			}
			out := testOutput(resp)
			rec.Record(out)
			return out, nil
		},
		tool.Name(RunTestsTool),
		tool.Description("Run the tests of the repository and return their output."),
	)
}

// NewGraph builds the engineer, analyzer and editor agents for the repository
// checked out in workspace workspaceID. The engineer gets the RUN_TESTS tool
// when testCommand is set; its output lands in the returned recorder.
func NewGraph(model api.Model, ws workspace.Executor, workspaceID, repoName, testCommand string) (*swekit.Graph, *TestRecorder) {
	data := prompts.AgentData{RepoName: repoName, TestCommand: testCommand}
	rec := &TestRecorder{}

	engineerTools := workspace.Tools(ws, workspaceID, workspace.Navigation)
	if testCommand != "" {
		repoDir := "~/" + Issue{RepoName: repoName}.RepoShortName()
		engineerTools = append(engineerTools, runTestsTool(ws, workspaceID, repoDir, testCommand, rec))
	}

	engineer := agent.New(
		agent.Name(SoftwareEngineer),
		agent.Model(model),
		agent.Instructions(prompts.MustRender(prompts.SoftwareEngineer, data)),
		agent.Tools(engineerTools...),
	)
	analyzer := agent.New(
		agent.Name(CodeAnalyzer),
		agent.Model(model),
		agent.Instructions(prompts.MustRender(prompts.CodeAnalyzer, data)),
		agent.Tools(workspace.Tools(ws, workspaceID, workspace.Analysis)...),
	)
	editor := agent.New(
		agent.Name(Editor),
		agent.Model(model),
		agent.Instructions(prompts.MustRender(prompts.Editor, data)),
		agent.Tools(workspace.Tools(ws, workspaceID, workspace.Editing)...),
		agent.ParallelToolCalls(false),
	)

	g := swekit.New(
		swekit.Name("swe"),
		swekit.Nodes(engineer, analyzer, editor),
		swekit.Entry(SoftwareEngineer),
		swekit.Routes(
			swekit.When(AnalyzeCode, CodeAnalyzer).OnlyFrom(SoftwareEngineer),
			swekit.When(EditFile, Editor).OnlyFrom(SoftwareEngineer),
			swekit.When(PatchCompleted, swekit.End).OnlyFrom(SoftwareEngineer),
			swekit.When(AnalysisComplete, SoftwareEngineer).OnlyFrom(CodeAnalyzer),
			swekit.When(EditingCompleted, SoftwareEngineer).OnlyFrom(Editor),
		),
	)
	return g, rec
}
