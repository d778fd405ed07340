// Package judge asks a model one-shot questions, like whether a test run
// passed or which patch fixes an issue. Calls that fail because the backend
// is throttling are retried with exponential backoff.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/pkg/uuidx"
	"github.com/casualjim/swekit/provider"
	"github.com/cenkalti/backoff/v4"
	"github.com/fogfish/opts"
)

const (
	// DefaultAttempts is the number of calls made before giving up on a throttled backend.
	DefaultAttempts = 5
	// BaseDelay is the pause after the first throttled call. It doubles after every retry.
	BaseDelay = time.Second
)

// ExponentialBackOff waits 1s, 2s, 4s, ... between calls, without jitter.
func ExponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

type Judge struct {
	model      api.Model
	attempts   int
	newBackOff func() backoff.BackOff
	temp       float64
}

var (
	WithAttempts = opts.ForName[Judge, int]("attempts")
	// WithBackOff replaces the delay policy, tests use backoff.ZeroBackOff.
	WithBackOff     = opts.ForName[Judge, func() backoff.BackOff]("newBackOff")
	WithTemperature = opts.ForName[Judge, float64]("temp")
)

// New creates a judge on model. It panics when an option fails.
func New(model api.Model, options ...opts.Option[Judge]) *Judge {
	j := &Judge{
		model:      model,
		attempts:   DefaultAttempts,
		newBackOff: ExponentialBackOff,
	}
	if err := opts.Apply(j, options); err != nil {
		panic(err)
	}
	if j.attempts < 1 {
		j.attempts = 1
	}
	return j
}

func (j *Judge) Model() api.Model {
	return j.model
}

// Ask sends system and prompt to the model and returns its answer. Throttled
// calls are retried up to the configured number of attempts; any other error
// is returned at once.
func (j *Judge) Ask(ctx context.Context, system, prompt string) (string, error) {
	if j.model == nil {
		return "", errors.New("judge has no model")
	}
	prov := j.model.Provider()
	if prov == nil {
		return "", fmt.Errorf("model %s has no provider", j.model.Name())
	}

	lg := slog.Default().With(slogx.LoggerName("swekit.judge"), slog.String("model", j.model.Name()))
	runID := uuidx.New()
	temperature := j.temp

	var answer string
	var attempt int
	op := func() error {
		attempt++
		thread := shorttermmemory.New()
		thread.AddUserPrompt(messages.New().WithSender("user").UserPrompt(prompt))

		compl, err := prov.ChatCompletion(ctx, provider.CompletionParams{
			RunID:        runID,
			Instructions: system,
			Thread:       thread,
			Model:        j.model,
			Temperature:  &temperature,
		})
		if err != nil {
			if provider.IsThrottled(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		answer = compl.Content()
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(j.newBackOff(), uint64(j.attempts-1)), ctx)
	err := backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		lg.WarnContext(ctx, "judge throttled, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slogx.Error(err),
		)
	})
	if err != nil {
		return "", fmt.Errorf("judge failed after %d attempt(s): %w", attempt, err)
	}
	return answer, nil
}
