package executor

import (
	"context"
	"errors"
	"maps"
	"math"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/pkg/uuidx"
	"github.com/casualjim/swekit/types"
	"github.com/google/uuid"
)

// ErrMaxTurns is returned when a run needs more model calls than allowed.
var ErrMaxTurns = errors.New("max turns exceeded")

// NewRunCommand validates the collaborators of a run.
func NewRunCommand(agent api.Agent, thread *shorttermmemory.Aggregator, hook events.Hook) (RunCommand, error) {
	cmd := RunCommand{
		id:       uuidx.New(),
		Agent:    agent,
		Thread:   thread,
		Hook:     hook,
		MaxTurns: math.MaxInt,
	}
	if err := cmd.Validate(); err != nil {
		return RunCommand{}, err
	}
	return cmd, nil
}

// RunCommand describes one agent run.
type RunCommand struct {
	id               uuid.UUID
	Agent            api.Agent
	Thread           *shorttermmemory.Aggregator
	Hook             events.Hook
	MaxTurns         int
	ContextVariables types.ContextVars
	Temperature      *float64
}

func (r *RunCommand) Validate() error {
	var err error
	if r.Agent == nil {
		err = errors.Join(err, errors.New("agent is required"))
	}
	if r.Thread == nil {
		err = errors.Join(err, errors.New("thread is required"))
	}
	if r.Hook == nil {
		err = errors.Join(err, errors.New("hook is required"))
	}
	return err
}

func (r *RunCommand) ID() uuid.UUID {
	if r.id == uuid.Nil {
		r.id = uuidx.New()
	}
	return r.id
}

func (r *RunCommand) initializeContextVars() types.ContextVars {
	if r.ContextVariables != nil {
		return maps.Clone(r.ContextVariables)
	}
	return make(types.ContextVars)
}

func (r RunCommand) WithMaxTurns(maxTurns int) RunCommand {
	r.MaxTurns = maxTurns
	return r
}

func (r RunCommand) WithContextVariables(contextVariables types.ContextVars) RunCommand {
	r.ContextVariables = contextVariables
	return r
}

func (r RunCommand) WithTemperature(temperature float64) RunCommand {
	r.Temperature = &temperature
	return r
}

// Result is the outcome of a completed run.
type Result struct {
	// Agent produced the final answer. It differs from the command's agent after a handoff.
	Agent api.Agent
	// Content is the final assistant message.
	Content string
	// Turns counts the model calls of the run.
	Turns int
	// ContextVariables holds the variables after the tools updated them.
	ContextVariables types.ContextVars
}

// Executor runs agents.
type Executor interface {
	Run(context.Context, RunCommand) (Result, error)
}
