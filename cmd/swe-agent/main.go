// Command swe-agent works a single issue in a workspace and prints the
// transcript and the resulting patch.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/casualjim/swekit/config"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/logging"
	"github.com/casualjim/swekit/internal/msgfmt"
	"github.com/casualjim/swekit/judge"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/swe"
	"github.com/casualjim/swekit/workspace"
	"github.com/spf13/pflag"
)

type options struct {
	repo           string
	issue          string
	issueFile      string
	workspaceID    string
	baseCommit     string
	testCommand    string
	graph          bool
	markdown       bool
	recursionLimit int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("swe-agent", pflag.ContinueOnError)
	fs.StringVar(&o.repo, "repo", "", "Repository as owner/name")
	fs.StringVar(&o.issue, "issue", "", "Issue description")
	fs.StringVar(&o.issueFile, "issue-file", "", "File holding the issue description")
	fs.StringVar(&o.workspaceID, "workspace", "", "Existing workspace id, a new one is created when empty")
	fs.StringVar(&o.baseCommit, "base-commit", "", "Commit to check out in a new workspace")
	fs.StringVar(&o.testCommand, "test-command", "", "Command that runs the repository tests")
	fs.BoolVar(&o.graph, "graph", false, "Use the engineer, analyzer and editor graph instead of the single agent")
	fs.BoolVar(&o.markdown, "markdown", true, "Render assistant messages as markdown")
	fs.IntVar(&o.recursionLimit, "recursion-limit", 0, "Graph step limit, 0 for the default")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.repo == "" {
		return options{}, errors.New("--repo is required")
	}
	if (o.issue == "") == (o.issueFile == "") {
		return options{}, errors.New("exactly one of --issue and --issue-file is required")
	}
	return o, nil
}

func (o options) readIssue() (swe.Issue, error) {
	desc := o.issue
	if o.issueFile != "" {
		b, err := os.ReadFile(o.issueFile)
		if err != nil {
			return swe.Issue{}, err
		}
		desc = string(b)
	}
	issue := swe.Issue{
		RepoName:    o.repo,
		Description: strings.TrimSpace(desc),
		TestCommand: o.testCommand,
		BaseCommit:  o.baseCommit,
	}
	return issue, issue.Validate()
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
		slog.Error("agent failed", slogx.Error(err))
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

	issue, err := o.readIssue()
	if err != nil {
		return err
	}

	ws, err := workspace.New(cfg.WorkspaceURL, workspace.WithAPIKey(cfg.WorkspaceAPIKey))
	if err != nil {
		return err
	}
	id := o.workspaceID
	if id == "" {
		id, err = ws.Create(ctx, workspace.CreateRequest{Repo: issue.RepoName, BaseCommit: issue.BaseCommit})
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
		defer func() {
			if err := ws.Close(context.WithoutCancel(ctx), id); err != nil {
				slog.Warn("failed to close workspace", slogx.WorkspaceID(id), slogx.Error(err))
			}
		}()
	}
	slog.Info("working issue", slog.String("provider", cfg.String()), slogx.WorkspaceID(id))

	console, err := msgfmt.NewConsole(os.Stdout, o.markdown)
	if err != nil {
		return err
	}
	hook := events.Multi(console, events.Log(nil))

	var patch string
	if o.graph {
		attempt := &swe.Attempt{
			Model:          cfg.AgentModel(),
			Judge:          judge.New(cfg.Judge()),
			Workspace:      ws,
			Hook:           hook,
			RecursionLimit: o.recursionLimit,
		}
		res, err := attempt.Run(ctx, id, issue)
		if err != nil {
			return err
		}
		fmt.Printf("tests: %s, steps: %d, took %s\n", res.Status, res.Steps, res.Duration)
		patch = res.Patch
	} else {
		patch, err = swe.NewBaseline(cfg.AgentModel(), ws, id, issue.RepoName).Run(ctx, issue, hook)
		if err != nil {
			return err
		}
	}
	console.Patch(patch)
	return nil
}
