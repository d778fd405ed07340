package provider

import (
	"context"

	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/tool"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Provider talks to an LLM backend.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (Completion, error)
}

// CompletionParams is everything a provider needs for one model call.
type CompletionParams struct {
	// RunID identifies the agent run the call belongs to.
	RunID uuid.UUID

	// Instructions is the rendered system prompt.
	Instructions string

	// Thread holds the conversation so far.
	Thread *shorttermmemory.Aggregator

	Model interface {
		Name() string
		Provider() Provider
	}

	Tools []tool.Definition

	// ParallelToolCalls lets the model request several tools at once.
	ParallelToolCalls bool

	// Temperature overrides the provider default when set.
	Temperature *float64

	_ struct{}
}

// Completion is the outcome of one model call. Response is either a
// messages.AssistantMessage or a messages.ToolCallMessage.
type Completion struct {
	RunID     uuid.UUID
	TurnID    uuid.UUID
	Response  messages.Response
	Usage     shorttermmemory.Usage
	Timestamp strfmt.DateTime
}

// Content returns the assistant text of the completion, or "" for tool calls.
func (c Completion) Content() string {
	if am, ok := c.Response.(messages.AssistantMessage); ok {
		return am.Content
	}
	return ""
}
