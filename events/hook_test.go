package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/swekit/messages"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type recordingHook struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

func (r *recordingHook) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingHook) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	r.record("user:" + msg.Payload.Content)
}

func (r *recordingHook) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	r.record("assistant:" + msg.Payload.Content)
}

func (r *recordingHook) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	r.record("tool_call:" + msg.Payload.ToolCalls[0].Name)
}

func (r *recordingHook) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	r.record("tool_response:" + msg.Payload.ToolName)
}

func (r *recordingHook) OnError(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func emitAll(ctx context.Context, h Hook) error {
	err := fmt.Errorf("workspace unreachable")
	h.OnUserPrompt(ctx, messages.New().UserPrompt("issue"))
	h.OnToolCallMessage(ctx, messages.New().WithSender("engineer").ToolCall(messages.ToolCallData{ID: "1", Name: "FILETOOL_GIT_REPO_TREE", Arguments: "{}"}))
	h.OnToolCallResponse(ctx, messages.New().WithSender("engineer").ToolResponse("1", "FILETOOL_GIT_REPO_TREE", "tree"))
	h.OnAssistantMessage(ctx, messages.New().WithSender("engineer").AssistantMessage("ANALYZE CODE"))
	h.OnError(ctx, err)
	return err
}

func TestMulti(t *testing.T) {
	r1 := &recordingHook{}
	r2 := &recordingHook{}

	err := emitAll(context.Background(), Multi(r1, r2))

	want := []string{"user:issue", "tool_call:FILETOOL_GIT_REPO_TREE", "tool_response:FILETOOL_GIT_REPO_TREE", "assistant:ANALYZE CODE"}
	for _, r := range []*recordingHook{r1, r2} {
		assert.Equal(t, want, r.events)
		assert.Equal(t, []error{err}, r.errs)
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	emitAll(context.Background(), Log(logger))

	out := buf.String()
	assert.Contains(t, out, `"msg":"user prompt"`)
	assert.Contains(t, out, `"tool":"FILETOOL_GIT_REPO_TREE"`)
	assert.Contains(t, out, `"content":"ANALYZE CODE"`)
	assert.Contains(t, out, `"error":"workspace unreachable"`)

	assert.NotPanics(t, func() { Log(nil) })
}

func TestMustJSON(t *testing.T) {
	assert.Equal(t, `{"key":"value"}`, mustJSON(map[string]string{"key": "value"}))
	assert.Panics(t, func() { mustJSON(make(chan int)) })
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	e := Error{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Sender:    "editor",
		Err:       cause,
		Timestamp: strfmt.DateTime(time.Now()),
	}

	assert.Equal(t, "editor: boom", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "boom", Error{Err: cause}.Error())
	assert.Equal(t, "unknown error", Error{}.Error())

	data, err := e.MarshalJSON()
	require.NoError(t, err)
	res := gjson.ParseBytes(data)
	assert.Equal(t, "error", res.Get("type").String())
	assert.Equal(t, e.RunID.String(), res.Get("run_id").String())
	assert.Equal(t, "editor: boom", res.Get("error").String())
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []gjson.Result
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, gjson.ParseBytes(data))
	return f.err
}

func TestNATS_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	emitAll(context.Background(), NATS(pub, "swekit.runs.temp"))

	require.Len(t, pub.payloads, 5)
	for _, s := range pub.subjects {
		assert.Equal(t, "swekit.runs.temp", s)
	}

	var kinds []string
	for _, p := range pub.payloads {
		kinds = append(kinds, p.Get("event").String())
	}
	assert.Equal(t, []string{"user_prompt", "tool_call", "tool_response", "assistant_message", "error"}, kinds)

	assert.Equal(t, "FILETOOL_GIT_REPO_TREE", pub.payloads[1].Get("tool_calls.0.name").String())
	assert.Equal(t, "engineer", pub.payloads[3].Get("sender").String())
	assert.Equal(t, "workspace unreachable", pub.payloads[4].Get("error").String())
}

func TestNATS_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: nats.ErrConnectionClosed}
	assert.NotPanics(t, func() {
		emitAll(context.Background(), NATS(pub, "swekit.runs.temp"))
	})
	assert.Len(t, pub.payloads, 5)
}

func TestNATS_Server(t *testing.T) {
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(500*time.Millisecond))
	if err != nil {
		t.Skipf("no NATS server at %s: %v", nats.DefaultURL, err)
	}
	t.Cleanup(nc.Close)

	subject := "swekit.test." + uuid.NewString()
	received := make(chan *nats.Msg, 8)
	sub, err := nc.ChanSubscribe(subject, received)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	NATS(nc, subject).OnAssistantMessage(context.Background(), messages.New().WithSender("engineer").AssistantMessage("PATCH COMPLETED"))
	require.NoError(t, nc.Flush())

	select {
	case msg := <-received:
		res := gjson.ParseBytes(msg.Data)
		assert.Equal(t, "assistant_message", res.Get("event").String())
		assert.Equal(t, "PATCH COMPLETED", res.Get("content").String())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
