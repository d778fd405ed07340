package executor

import (
	"context"
	"sync"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/provider"
)

// scriptedProvider returns its responses in order, one per call.
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
	idx := len(p.calls) - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return provider.Completion{
		RunID:    params.RunID,
		TurnID:   params.Thread.ID(),
		Response: p.responses[idx],
	}, nil
}

type testModel struct {
	prov provider.Provider
}

func (m *testModel) Name() string                { return "test-model" }
func (m *testModel) Provider() provider.Provider { return m.prov }

var _ api.Model = (*testModel)(nil)

func assistant(content string) messages.Response {
	return messages.AssistantMessage{Content: content}
}

func toolCalls(calls ...messages.ToolCallData) messages.Response {
	return messages.ToolCallMessage{ToolCalls: calls}
}

func call(id, name, args string) messages.ToolCallData {
	return messages.ToolCallData{ID: id, Name: name, Arguments: args}
}

type recordingHook struct {
	mu            sync.Mutex
	toolCalls     []string
	toolResponses []string
	assistant     []string
	errors        []error
}

func (h *recordingHook) OnUserPrompt(context.Context, messages.Message[messages.UserMessage]) {}

func (h *recordingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assistant = append(h.assistant, msg.Sender+":"+msg.Payload.Content)
}

func (h *recordingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range msg.Payload.ToolCalls {
		h.toolCalls = append(h.toolCalls, c.Name)
	}
}

func (h *recordingHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toolResponses = append(h.toolResponses, msg.Payload.Content)
}

func (h *recordingHook) OnError(_ context.Context, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, err)
}
