package events

import (
	"context"
	"log/slog"

	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/goccy/go-json"
)

// Hook receives the events of an agent run.
type Hook interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])
	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])
	OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])
	OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])
	OnError(context.Context, error)
}

// Log returns a hook that writes the transcript to logger. A nil logger uses slog.Default.
func Log(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &logHook{logger: logger}
}

type logHook struct {
	logger *slog.Logger
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (h *logHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	h.logger.DebugContext(ctx, "user prompt", slog.String("sender", msg.Sender), slog.String("message", mustJSON(msg)))
}

func (h *logHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	h.logger.InfoContext(ctx, "assistant message", slog.String("sender", msg.Sender), slog.String("content", msg.Payload.Content))
}

func (h *logHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, call := range msg.Payload.ToolCalls {
		h.logger.InfoContext(ctx, "tool call",
			slog.String("sender", msg.Sender),
			slog.String("tool", call.Name),
			slog.String("arguments", call.Arguments),
		)
	}
}

func (h *logHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	h.logger.DebugContext(ctx, "tool response",
		slog.String("sender", msg.Sender),
		slog.String("tool", msg.Payload.ToolName),
		slog.Int("size", len(msg.Payload.Content)),
	)
}

func (h *logHook) OnError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "agent run failed", slogx.Error(err))
}

// Multi fans every event out to hooks, in order.
func Multi(hooks ...Hook) Hook {
	return multiHook(hooks)
}

type multiHook []Hook

func (m multiHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	for _, h := range m {
		h.OnUserPrompt(ctx, msg)
	}
}

func (m multiHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range m {
		h.OnAssistantMessage(ctx, msg)
	}
}

func (m multiHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range m {
		h.OnToolCallMessage(ctx, msg)
	}
}

func (m multiHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	for _, h := range m {
		h.OnToolCallResponse(ctx, msg)
	}
}

func (m multiHook) OnError(ctx context.Context, err error) {
	for _, h := range m {
		h.OnError(ctx, err)
	}
}
