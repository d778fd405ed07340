package benchmark

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/casualjim/swekit/judge"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/prompts"
	"github.com/casualjim/swekit/swe"
	"github.com/fogfish/opts"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the attempts that run at the same time.
const DefaultWorkers = 3

const comparisonSystem = "You are a software engineer expert at solving bugs."

var patchNumber = regexp.MustCompile(`(?i)patch.*?(\d+)`)

// Attempter works an issue in one workspace. *swe.Attempt implements it.
type Attempter interface {
	Run(ctx context.Context, workspaceID string, issue swe.Issue) (swe.Result, error)
}

// AttemptOutcome is the result of one attempt. Error is set when the attempt
// failed and is then excluded from the selection.
type AttemptOutcome struct {
	WorkspaceID string         `json:"workspace_id"`
	Patch       string         `json:"patch"`
	Status      swe.TestStatus `json:"status"`
	Steps       int            `json:"steps"`
	Duration    time.Duration  `json:"duration"`
	Error       string         `json:"error,omitempty"`
}

func (a AttemptOutcome) Failed() bool {
	return a.Error != ""
}

// Selection is the patch picked among the candidates.
type Selection struct {
	Patch string `json:"patch"`
	// Chosen is the 1-based position of the patch in the comparison prompt, 0 without candidates.
	Chosen     int  `json:"chosen"`
	Candidates int  `json:"candidates"`
	Fallback   bool `json:"fallback"`
}

// Outcome is everything a bench run produced for one issue.
type Outcome struct {
	Attempts  []AttemptOutcome `json:"attempts"`
	Selection Selection        `json:"selection"`
}

// Bencher produces an outcome for an issue from a set of prepared workspaces.
type Bencher interface {
	Run(ctx context.Context, workspaceIDs []string, issue swe.Issue) (Outcome, error)
}

// Runner fans attempts out over a bounded pool and asks the judge to pick a patch.
type Runner struct {
	attempter Attempter
	judge     *judge.Judge
	workers   int

	mu  sync.Mutex
	rng *rand.Rand
}

var WithWorkers = opts.ForName[Runner, int]("workers")

// WithRand makes the fallback choice reproducible.
func WithRand(rng *rand.Rand) opts.Option[Runner] {
	return opts.Type[Runner](func(r *Runner) error {
		if rng == nil {
			return errors.New("rand source can't be nil")
		}
		r.rng = rng
		return nil
	})
}

// NewRunner creates a runner. A nil judge always falls back to a random pick.
// It panics when an option fails.
func NewRunner(attempter Attempter, j *judge.Judge, options ...opts.Option[Runner]) *Runner {
	r := &Runner{
		attempter: attempter,
		judge:     j,
		workers:   DefaultWorkers,
	}
	if err := opts.Apply(r, options); err != nil {
		panic(err)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.rng == nil {
		seed := uint64(time.Now().UnixNano())
		r.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return r
}

// Bench runs one attempt per workspace and returns the selected patch, or ""
// when no attempt produced one.
func (r *Runner) Bench(ctx context.Context, workspaceIDs []string, issue swe.Issue) (string, error) {
	out, err := r.Run(ctx, workspaceIDs, issue)
	if err != nil {
		return "", err
	}
	return out.Selection.Patch, nil
}

// Run is Bench with the details of every attempt. Attempts are independent;
// a failing attempt is logged and recorded but never cancels the others.
func (r *Runner) Run(ctx context.Context, workspaceIDs []string, issue swe.Issue) (Outcome, error) {
	if err := issue.Validate(); err != nil {
		return Outcome{}, err
	}

	attempts := make([]AttemptOutcome, len(workspaceIDs))
	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, id := range workspaceIDs {
		g.Go(func() error {
			attempts[i] = r.Attempt(ctx, id, issue)
			return nil
		})
	}
	_ = g.Wait()

	// A canceled run returns the attempts it has but never asks the judge.
	if err := ctx.Err(); err != nil {
		return Outcome{Attempts: attempts}, err
	}
	return Outcome{
		Attempts:  attempts,
		Selection: r.Select(ctx, issue, attempts),
	}, nil
}

// Attempt runs a single attempt and turns its error into the outcome.
func (r *Runner) Attempt(ctx context.Context, workspaceID string, issue swe.Issue) AttemptOutcome {
	res, err := r.attempter.Run(ctx, workspaceID, issue)
	out := AttemptOutcome{
		WorkspaceID: workspaceID,
		Patch:       res.Patch,
		Status:      res.Status,
		Steps:       res.Steps,
		Duration:    res.Duration,
	}
	if err != nil {
		slog.ErrorContext(ctx, "attempt failed",
			slogx.LoggerName("swekit.benchmark"),
			slogx.InstanceID(issue.InstanceID),
			slogx.WorkspaceID(workspaceID),
			slogx.Error(err),
		)
		out.Error = err.Error()
		if out.Status == "" {
			out.Status = swe.Fail
		}
	}
	return out
}

// Candidates keeps the successful attempts with a non blank patch, passing
// ones last so they get the highest patch numbers. The order among equals is
// the order of attempts.
func Candidates(attempts []AttemptOutcome) []prompts.Candidate {
	var cands []prompts.Candidate
	for _, a := range attempts {
		if a.Failed() || strings.TrimSpace(a.Patch) == "" {
			continue
		}
		cands = append(cands, prompts.Candidate{Patch: a.Patch, TestStatus: a.Status.String()})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return !swe.TestStatus(cands[i].TestStatus).Passed() && swe.TestStatus(cands[j].TestStatus).Passed()
	})
	return cands
}

// ParseChoice extracts the patch number from a judge answer. It reports false
// when the answer names no patch in 1..n.
func ParseChoice(answer string, n int) (int, bool) {
	m := patchNumber.FindStringSubmatch(answer)
	if m == nil {
		return 0, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil || num < 1 || num > n {
		return 0, false
	}
	return num, true
}

// Select asks the judge to compare the candidates. Whenever the judge can't
// give a usable answer one candidate is picked at random.
func (r *Runner) Select(ctx context.Context, issue swe.Issue, attempts []AttemptOutcome) Selection {
	lg := slog.Default().With(slogx.LoggerName("swekit.benchmark"), slogx.InstanceID(issue.InstanceID))

	cands := Candidates(attempts)
	if len(cands) == 0 {
		lg.WarnContext(ctx, "no attempt produced a patch", slog.Int("attempts", len(attempts)))
		return Selection{}
	}

	answer, err := r.compare(ctx, issue, cands)
	if err != nil {
		lg.ErrorContext(ctx, "judge failed, picking a random patch", slogx.Error(err))
	} else if num, ok := ParseChoice(answer, len(cands)); ok {
		lg.InfoContext(ctx, "judge picked a patch", slog.Int("patch", num), slog.Int("candidates", len(cands)))
		return Selection{Patch: cands[num-1].Patch, Chosen: num, Candidates: len(cands)}
	} else {
		lg.WarnContext(ctx, "judge answer names no patch, picking a random one", slog.String("answer", answer))
	}

	num := r.randomPick(len(cands)) + 1
	return Selection{Patch: cands[num-1].Patch, Chosen: num, Candidates: len(cands), Fallback: true}
}

func (r *Runner) compare(ctx context.Context, issue swe.Issue, cands []prompts.Candidate) (string, error) {
	if r.judge == nil {
		return "", errors.New("no judge configured")
	}
	prompt, err := prompts.Comparison(issue.RepoShortName(), issue.Description, cands)
	if err != nil {
		return "", err
	}
	return r.judge.Ask(ctx, comparisonSystem, prompt)
}

func (r *Runner) randomPick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
