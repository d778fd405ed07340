package events

import (
	"context"
	"log/slog"

	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/goccy/go-json"
	"github.com/tidwall/sjson"
)

// Publisher is the part of *nats.Conn the NATS hook needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS returns a hook that publishes every event as JSON on subject.
// Publish failures are logged and never interrupt the run.
//
// Each event is the message JSON with an "event" field naming the hook
// method, for example:
//
//	{"event":"tool_call","type":"tool_call","run_id":"...","sender":"editor","tool_calls":[...]}
func NATS(conn Publisher, subject string) Hook {
	return &natsHook{
		conn:    conn,
		subject: subject,
		logger:  slog.Default().With(slogx.LoggerName("swekit.events.nats")),
	}
}

type natsHook struct {
	conn    Publisher
	subject string
	logger  *slog.Logger
}

func publishMessage[T messages.ModelMessage](ctx context.Context, h *natsHook, event string, msg messages.Message[T]) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event", slog.String("event", event), slogx.Error(err))
		return
	}
	h.publish(ctx, event, data)
}

func (h *natsHook) publish(ctx context.Context, event string, data []byte) {
	data, err := sjson.SetBytes(data, "event", event)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event", slog.String("event", event), slogx.Error(err))
		return
	}
	if err := h.conn.Publish(h.subject, data); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event", event),
			slog.String("subject", h.subject),
			slogx.Error(err),
		)
	}
}

func (h *natsHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	publishMessage(ctx, h, "user_prompt", msg)
}

func (h *natsHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	publishMessage(ctx, h, "assistant_message", msg)
}

func (h *natsHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	publishMessage(ctx, h, "tool_call", msg)
}

func (h *natsHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	publishMessage(ctx, h, "tool_response", msg)
}

func (h *natsHook) OnError(ctx context.Context, err error) {
	ee, ok := err.(Error) //nolint:errorlint
	if !ok {
		ee = Error{Err: err}
	}
	data, merr := ee.MarshalJSON()
	if merr != nil {
		h.logger.ErrorContext(ctx, "failed to encode event", slog.String("event", "error"), slogx.Error(merr))
		return
	}
	h.publish(ctx, "error", data)
}
