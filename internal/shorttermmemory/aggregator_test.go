package shorttermmemory

import (
	"slices"
	"testing"
	"time"

	"github.com/casualjim/swekit/messages"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(msgs AggregatedMessages) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch p := m.Payload.(type) {
		case messages.UserMessage:
			out = append(out, p.Content)
		case messages.AssistantMessage:
			out = append(out, p.Content)
		case messages.ToolResponse:
			out = append(out, p.Content)
		case messages.ToolCallMessage:
			out = append(out, p.ToolCalls[0].Name)
		}
	}
	return out
}

func TestAggregator(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		agg := New()
		assert.NotEqual(t, uuid.Nil, agg.ID())
		assert.Equal(t, 0, agg.Len())
		assert.Equal(t, Usage{}, agg.Usage())
		assert.Equal(t, 0, agg.TurnLen())
	})

	t.Run("Messages returns a copy", func(t *testing.T) {
		agg := New()
		agg.AddUserPrompt(messages.New().UserPrompt("issue"))

		msgs := agg.Messages()
		msgs = append(msgs, messages.Erase(messages.New().UserPrompt("extra")))
		assert.Equal(t, 1, agg.Len())
		assert.Len(t, msgs, 2)
	})

	t.Run("typed adders keep order", func(t *testing.T) {
		agg := New()
		agg.AddUserPrompt(messages.New().UserPrompt("issue"))
		agg.AddToolCall(messages.New().ToolCall(messages.ToolCallData{ID: "1", Name: "FILETOOL_GIT_REPO_TREE"}))
		agg.AddToolResponse(messages.New().ToolResponse("1", "FILETOOL_GIT_REPO_TREE", "tree"))
		agg.AddAssistantMessage(messages.New().AssistantMessage("ANALYZE CODE"))
		AddMessage(agg, messages.New().UserPrompt("again"))

		assert.Equal(t, []string{"issue", "FILETOOL_GIT_REPO_TREE", "tree", "ANALYZE CODE", "again"}, contents(agg.Messages()))
		assert.Equal(t, []string{"issue", "FILETOOL_GIT_REPO_TREE", "tree", "ANALYZE CODE", "again"}, contents(slices.Collect(agg.MessagesIter())))

		last, ok := agg.Messages().Last()
		require.True(t, ok)
		assert.Equal(t, messages.UserMessage{Content: "again"}, last.Payload)
	})

	t.Run("Last on empty thread", func(t *testing.T) {
		_, ok := AggregatedMessages{}.Last()
		assert.False(t, ok)
	})
}

func TestAggregator_ForkJoin(t *testing.T) {
	original := New()
	original.AddUserPrompt(messages.New().UserPrompt("1"))
	original.AddUserPrompt(messages.New().UserPrompt("2"))

	forked := original.Fork()
	assert.NotEqual(t, original.ID(), forked.ID())
	assert.Equal(t, 2, forked.Len())
	assert.Equal(t, 0, forked.TurnLen())

	original.AddUserPrompt(messages.New().UserPrompt("3"))
	forked.AddAssistantMessage(messages.New().AssistantMessage("4"))
	forked.AddUsage(&Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	assert.Equal(t, 1, forked.TurnLen())

	original.Join(forked)
	assert.Equal(t, []string{"1", "2", "3", "4"}, contents(original.Messages()))
	assert.Equal(t, Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, original.Usage())
}

func TestUsage_AddUsage(t *testing.T) {
	u := Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
	u.AddUsage(&Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	u.AddUsage(nil)
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33}, u)
}

func TestCheckpoint(t *testing.T) {
	agg := New()
	agg.AddUserPrompt(messages.New().UserPrompt("issue"))
	fork := agg.Fork()
	fork.AddAssistantMessage(messages.New().AssistantMessage("EDIT FILE"))
	fork.AddUsage(&Usage{TotalTokens: 7})

	cp := fork.Checkpoint()
	fork.AddAssistantMessage(messages.New().AssistantMessage("after"))

	t.Run("snapshot is isolated", func(t *testing.T) {
		assert.Equal(t, fork.ID(), cp.ID())
		assert.Equal(t, []string{"issue", "EDIT FILE"}, contents(cp.Messages()))
		assert.Equal(t, int64(7), cp.Usage().TotalTokens)
	})

	t.Run("MergeInto appends only new messages", func(t *testing.T) {
		target := New()
		target.AddUserPrompt(messages.New().UserPrompt("issue"))
		cp.MergeInto(target)
		assert.Equal(t, []string{"issue", "EDIT FILE"}, contents(target.Messages()))
		assert.Equal(t, int64(7), target.Usage().TotalTokens)
	})

	t.Run("MergeInto adopts id of empty target", func(t *testing.T) {
		target := &Aggregator{}
		cp.MergeInto(target)
		assert.Equal(t, cp.ID(), target.ID())
	})

	t.Run("Restore", func(t *testing.T) {
		restored := cp.Restore()
		assert.Equal(t, cp.ID(), restored.ID())
		assert.Equal(t, []string{"issue", "EDIT FILE"}, contents(restored.Messages()))
		assert.Equal(t, restored.Len(), restored.TurnLen())
	})
}

func TestCheckpoint_JSON(t *testing.T) {
	now := strfmt.DateTime(time.Now().UTC().Truncate(time.Second))
	agg := New()
	agg.AddUserPrompt(messages.New().WithTimestamp(now).UserPrompt("issue"))
	agg.AddToolCall(messages.New().WithTimestamp(now).ToolCall(messages.ToolCallData{ID: "1", Name: "FILETOOL_GIT_PATCH", Arguments: "{}"}))
	agg.AddUsage(&Usage{PromptTokens: 3})

	data, err := json.Marshal(agg.Checkpoint())
	require.NoError(t, err)

	var cp Checkpoint
	require.NoError(t, json.Unmarshal(data, &cp))
	assert.Equal(t, agg.ID(), cp.ID())
	assert.Equal(t, int64(3), cp.Usage().PromptTokens)
	assert.Equal(t, []string{"issue", "FILETOOL_GIT_PATCH"}, contents(cp.Messages()))

	t.Run("invalid id", func(t *testing.T) {
		var bad Checkpoint
		assert.Error(t, json.Unmarshal([]byte(`{"id":"nope","messages":[]}`), &bad))
	})
}
