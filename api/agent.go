// Package api declares the interfaces shared by agents, models and the executor.
package api

import (
	"github.com/casualjim/swekit/tool"
	"github.com/casualjim/swekit/types"
)

// Agent is an LLM persona with instructions and tools.
type Agent interface {
	// Name identifies the agent in transcripts and graph routing.
	Name() string

	// Model returns the model the agent talks to.
	Model() Model

	// Tools returns the functions the agent may call.
	Tools() []tool.Definition

	// ParallelToolCalls reports whether the model may request several tools in one response.
	ParallelToolCalls() bool

	// RenderInstructions renders the system prompt against the run's context variables.
	// Missing variables are an error.
	RenderInstructions(types.ContextVars) (string, error)
}
