package judge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/provider"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProvider fails the first failures calls with err, then answers.
type flakyProvider struct {
	mu       sync.Mutex
	failures int
	err      error
	answer   string
	calls    []provider.CompletionParams
}

func (p *flakyProvider) ChatCompletion(_ context.Context, params provider.CompletionParams) (provider.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, params)
	if len(p.calls) <= p.failures {
		return provider.Completion{}, p.err
	}
	return provider.Completion{Response: messages.AssistantMessage{Content: p.answer}}, nil
}

type stubModel struct {
	prov provider.Provider
}

func (m *stubModel) Name() string                { return "judge-model" }
func (m *stubModel) Provider() provider.Provider { return m.prov }

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

var errThrottled = fmt.Errorf("bedrock: %w", provider.ErrThrottled)

func TestExponentialBackOff(t *testing.T) {
	b := ExponentialBackOff()
	var got []time.Duration
	for range 5 {
		got = append(got, b.NextBackOff())
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}, got)
}

func TestAsk(t *testing.T) {
	prov := &flakyProvider{answer: "PASS"}
	j := New(&stubModel{prov: prov}, WithBackOff(zeroBackOff))

	got, err := j.Ask(context.Background(), "You are expert at reading test responses.", "== 1 passed ==")
	require.NoError(t, err)
	assert.Equal(t, "PASS", got)

	require.Len(t, prov.calls, 1)
	call := prov.calls[0]
	assert.Equal(t, "You are expert at reading test responses.", call.Instructions)
	assert.Equal(t, 1, call.Thread.Len())
	require.NotNil(t, call.Temperature)
	assert.Equal(t, 0.0, *call.Temperature)
	assert.Empty(t, call.Tools)
}

func TestAsk_RetriesThrottling(t *testing.T) {
	prov := &flakyProvider{failures: 4, err: errThrottled, answer: `{"patch": "2"}`}
	j := New(&stubModel{prov: prov}, WithBackOff(zeroBackOff))

	got, err := j.Ask(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"patch": "2"}`, got)
	assert.Len(t, prov.calls, 5)
}

func TestAsk_GivesUpAfterAttempts(t *testing.T) {
	prov := &flakyProvider{failures: 10, err: errThrottled}
	j := New(&stubModel{prov: prov}, WithBackOff(zeroBackOff))

	_, err := j.Ask(context.Background(), "system", "prompt")
	require.ErrorIs(t, err, provider.ErrThrottled)
	assert.Contains(t, err.Error(), "after 5 attempt(s)")
	assert.Len(t, prov.calls, DefaultAttempts)

	prov = &flakyProvider{failures: 10, err: errThrottled}
	j = New(&stubModel{prov: prov}, WithBackOff(zeroBackOff), WithAttempts(2))
	_, err = j.Ask(context.Background(), "system", "prompt")
	require.Error(t, err)
	assert.Len(t, prov.calls, 2)
}

func TestAsk_DoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("invalid request")
	prov := &flakyProvider{failures: 10, err: boom}
	j := New(&stubModel{prov: prov}, WithBackOff(zeroBackOff))

	_, err := j.Ask(context.Background(), "system", "prompt")
	require.ErrorIs(t, err, boom)
	assert.Len(t, prov.calls, 1)
}

func TestAsk_Canceled(t *testing.T) {
	prov := &flakyProvider{failures: 10, err: errThrottled}
	j := New(&stubModel{prov: prov})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.Ask(ctx, "system", "prompt")
	require.Error(t, err)
	assert.LessOrEqual(t, len(prov.calls), 1)
}

func TestAsk_NoModel(t *testing.T) {
	_, err := New(nil).Ask(context.Background(), "system", "prompt")
	require.Error(t, err)

	_, err = New(&stubModel{}).Ask(context.Background(), "system", "prompt")
	require.ErrorContains(t, err, "has no provider")
}
