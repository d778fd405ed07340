// Package prompts renders the instructions of the bug-fixing agents and the
// messages sent to the judge model.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Template names accepted by Render.
const (
	SoftwareEngineer       = "software_engineer.tmpl"
	CodeAnalyzer           = "code_analyzer.tmpl"
	Editor                 = "editor.tmpl"
	BaselineInstructions   = "baseline_instructions"
	BaselineRole           = "baseline_role"
	BaselineGoal           = "baseline_goal"
	BaselineBackstory      = "baseline_backstory"
	BaselineDescription    = "baseline_description"
	BaselineExpectedOutput = "baseline_expected_output"
	ComparisonPrompt       = "comparison.tmpl"
	TestVerdictPrompt      = "test_verdict.tmpl"
	IssuePrompt            = "issue.tmpl"
)

var separator = strings.Repeat("=", 50)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templates = template.Must(
	template.New("prompts").Option("missingkey=error").ParseFS(templateFiles, "templates/*.tmpl"),
)

// AgentData feeds the agent instruction templates.
type AgentData struct {
	RepoName    string
	Issue       string
	TestCommand string
}

// Render executes the named template with data.
func Render(name string, data any) (string, error) {
	if name == "" {
		return "", errors.New("prompt name is empty")
	}
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// MustRender is Render for prompts whose data is known to be complete.
func MustRender(name string, data any) string {
	s, err := Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Candidate is one patch shown to the judge.
type Candidate struct {
	Patch      string
	TestStatus string
}

// Patches lists the candidates the way the judge expects them: every patch
// is preceded by a separator line, its 1-based number and its test status.
func Patches(candidates []Candidate) string {
	parts := make([]string, 0, len(candidates)+1)
	for i, c := range candidates {
		parts = append(parts, separator+"\nPatch "+strconv.Itoa(i+1)+":\nTESTS STATUS: "+c.TestStatus+"\n\n"+c.Patch)
	}
	parts = append(parts, separator)
	return strings.Join(parts, "\n")
}

// Comparison asks the judge to pick the patch that fixes issue in repoName.
func Comparison(repoName, issue string, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", errors.New("comparison needs at least one patch")
	}
	return Render(ComparisonPrompt, map[string]any{
		"RepoName": repoName,
		"Issue":    issue,
		"Patches":  Patches(candidates),
	})
}

// TestVerdict asks the judge whether a test run succeeded.
func TestVerdict(output string) (string, error) {
	return Render(TestVerdictPrompt, map[string]any{"Output": output})
}

// Issue is the first user message of a graph run.
func Issue(description, repo, tree string) (string, error) {
	return Render(IssuePrompt, map[string]any{
		"Description": description,
		"Repo":        repo,
		"Tree":        tree,
	})
}
