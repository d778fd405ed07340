package executor

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"strconv"
	"time"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/reflectx"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/provider"
	"github.com/casualjim/swekit/tool"
	"github.com/casualjim/swekit/types"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var _ Executor = &Local{}

// Local runs agents in the calling goroutine.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func wrapErr(runID, turnID uuid.UUID, sender string, err error) events.Error {
	var pErr events.Error
	if errors.As(err, &pErr) {
		return pErr
	}
	return events.Error{
		RunID:     runID,
		TurnID:    turnID,
		Sender:    sender,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

type reactorParams struct {
	command     *RunCommand
	thread      *shorttermmemory.Aggregator
	activeAgent api.Agent
	contextVars types.ContextVars
}

// Run executes the command until the active agent answers with an assistant message.
func (l *Local) Run(ctx context.Context, command RunCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	params := &reactorParams{
		command:     &command,
		thread:      command.Thread.Fork(),
		activeAgent: command.Agent,
		contextVars: command.initializeContextVars(),
	}
	defer command.Thread.Join(params.thread)

	for turn := 1; turn <= command.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		compl, err := l.complete(ctx, params)
		if err != nil {
			l.publishError(ctx, params, err)
			return Result{}, err
		}
		params.thread.AddUsage(&compl.Usage)

		switch resp := compl.Response.(type) {
		case messages.AssistantMessage:
			msg := messages.Message[messages.AssistantMessage]{
				RunID:     compl.RunID,
				TurnID:    params.thread.ID(),
				Payload:   resp,
				Sender:    params.activeAgent.Name(),
				Timestamp: compl.Timestamp,
			}
			params.thread.AddAssistantMessage(msg)
			command.Hook.OnAssistantMessage(ctx, msg)
			return Result{
				Agent:            params.activeAgent,
				Content:          resp.Content,
				Turns:            turn,
				ContextVariables: params.contextVars,
			}, nil
		case messages.ToolCallMessage:
			msg := messages.Message[messages.ToolCallMessage]{
				RunID:     compl.RunID,
				TurnID:    params.thread.ID(),
				Payload:   resp,
				Sender:    params.activeAgent.Name(),
				Timestamp: compl.Timestamp,
			}
			params.thread.AddToolCall(msg)
			command.Hook.OnToolCallMessage(ctx, msg)

			if next := l.handleToolCalls(ctx, params, resp); next != nil {
				slog.DebugContext(ctx, "agent handoff",
					slog.String("from", params.activeAgent.Name()),
					slog.String("to", next.Name()),
				)
				params.activeAgent = next
			}
		default:
			err := fmt.Errorf("unexpected completion response %T", compl.Response)
			l.publishError(ctx, params, err)
			return Result{}, err
		}
	}
	return Result{}, ErrMaxTurns
}

func (l *Local) complete(ctx context.Context, params *reactorParams) (provider.Completion, error) {
	model := params.activeAgent.Model()
	if model == nil {
		return provider.Completion{}, fmt.Errorf("agent %s has no model", params.activeAgent.Name())
	}
	prov := model.Provider()
	if prov == nil {
		return provider.Completion{}, fmt.Errorf("model %s has no provider", model.Name())
	}

	instructions, err := params.activeAgent.RenderInstructions(params.contextVars)
	if err != nil {
		return provider.Completion{}, fmt.Errorf("failed to render instructions: %w", err)
	}

	compl, err := prov.ChatCompletion(ctx, provider.CompletionParams{
		RunID:             params.command.ID(),
		Instructions:      instructions,
		Thread:            params.thread,
		Model:             model,
		Tools:             params.activeAgent.Tools(),
		ParallelToolCalls: params.activeAgent.ParallelToolCalls(),
		Temperature:       params.command.Temperature,
	})
	if err != nil {
		return provider.Completion{}, fmt.Errorf("failed to get chat completion: %w", err)
	}
	return compl, nil
}

func (l *Local) publishError(ctx context.Context, params *reactorParams, err error) {
	params.command.Hook.OnError(ctx, wrapErr(params.command.ID(), params.thread.ID(), params.activeAgent.Name(), err))
}

// handleToolCalls answers every call in order and returns the first agent a tool handed off to.
func (l *Local) handleToolCalls(ctx context.Context, params *reactorParams, calls messages.ToolCallMessage) api.Agent {
	agentTools := make(map[string]tool.Definition, len(params.activeAgent.Tools()))
	for _, def := range params.activeAgent.Tools() {
		agentTools[def.Name] = def
	}

	var nextAgent api.Agent
	for _, call := range calls.ToolCalls {
		var content string
		def, exists := agentTools[call.Name]
		if !exists {
			content = fmt.Sprintf("Error: unknown tool %s", call.Name)
		} else {
			result, err := invokeTool(ctx, def, call.Arguments, params.contextVars)
			switch {
			case err != nil:
				slog.WarnContext(ctx, "tool call failed",
					slog.String("agent", params.activeAgent.Name()),
					slog.String("tool", call.Name),
					slogx.Error(err),
				)
				content = "Error: " + err.Error()
			default:
				content = result.Value
				if result.Agent != nil && nextAgent == nil {
					nextAgent = result.Agent
				}
				if result.ContextVariables != nil {
					maps.Copy(params.contextVars, result.ContextVariables)
				}
			}
		}

		msg := messages.New().WithSender(params.activeAgent.Name()).ToolResponse(call.ID, call.Name, content)
		msg.RunID = params.command.ID()
		msg.TurnID = params.thread.ID()
		params.thread.AddToolResponse(msg)
		params.command.Hook.OnToolCallResponse(ctx, msg)
	}
	return nextAgent
}

type toolResult struct {
	Value            string
	Agent            api.Agent
	ContextVariables types.ContextVars
}

func invokeTool(ctx context.Context, def tool.Definition, arguments string, contextVars types.ContextVars) (res toolResult, err error) {
	args, err := buildArgList(ctx, def, arguments, contextVars)
	if err != nil {
		return toolResult{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", def.Name, r)
		}
	}()
	return callFunction(def.Function, args)
}

func buildArgList(ctx context.Context, def tool.Definition, arguments string, contextVars types.ContextVars) ([]reflect.Value, error) {
	fnType := reflect.TypeOf(def.Function)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("tool %s is not a function", def.Name)
	}
	if arguments == "" {
		arguments = "{}"
	}
	if !gjson.Valid(arguments) {
		return nil, fmt.Errorf("invalid arguments for %s: %s", def.Name, arguments)
	}
	args := gjson.Parse(arguments)
	names := def.ArgumentNames()

	callArgs := make([]reflect.Value, fnType.NumIn())
	var argIdx int
	for i := range callArgs {
		paramType := fnType.In(i)
		switch {
		case reflectx.IsContext(paramType):
			callArgs[i] = reflect.ValueOf(ctx)
		case reflectx.IsRefinedType[types.ContextVars](paramType):
			callArgs[i] = reflect.ValueOf(maps.Clone(contextVars))
		default:
			name := names[argIdx]
			argIdx++
			v, err := decodeArg(args.Get(name), paramType)
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", name, err)
			}
			callArgs[i] = v
		}
	}
	return callArgs, nil
}

func decodeArg(raw gjson.Result, paramType reflect.Type) (reflect.Value, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return reflect.Zero(paramType), nil
	}
	if paramType.Kind() == reflect.String && raw.Type != gjson.String {
		return reflect.ValueOf(raw.String()).Convert(paramType), nil
	}

	ptr := reflect.New(paramType)
	if err := json.Unmarshal([]byte(raw.Raw), ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

var errorType = reflect.TypeFor[error]()

func callFunction(fn any, args []reflect.Value) (toolResult, error) {
	fnVal := reflect.ValueOf(fn)
	var results []reflect.Value
	if fnVal.Type().IsVariadic() {
		results = fnVal.CallSlice(args)
	} else {
		results = fnVal.Call(args)
	}
	if len(results) == 0 {
		return toolResult{}, nil
	}

	last := results[len(results)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			return toolResult{}, last.Interface().(error)
		}
		results = results[:len(results)-1]
		if len(results) == 0 {
			return toolResult{}, nil
		}
	}

	res := results[0]
	if (res.Kind() == reflect.Interface || res.Kind() == reflect.Pointer || res.Kind() == reflect.Map) && res.IsNil() {
		return toolResult{}, nil
	}

	rv := reflect.ValueOf(res.Interface())
	switch val := rv.Interface().(type) {
	case api.Agent:
		return toolResult{Value: fmt.Sprintf(`{"assistant":%q}`, val.Name()), Agent: val}, nil
	case types.ContextVars:
		return toolResult{Value: val.String(), ContextVariables: val}, nil
	case string:
		return toolResult{Value: val}, nil
	case time.Time:
		return toolResult{Value: val.Format(time.RFC3339)}, nil
	case bool:
		return toolResult{Value: strconv.FormatBool(val)}, nil
	case int, int8, int16, int32, int64:
		return toolResult{Value: strconv.FormatInt(rv.Int(), 10)}, nil
	case uint, uint8, uint16, uint32, uint64:
		return toolResult{Value: strconv.FormatUint(rv.Uint(), 10)}, nil
	case float32, float64:
		return toolResult{Value: strconv.FormatFloat(rv.Float(), 'f', -1, 64)}, nil
	case encoding.TextMarshaler:
		b, err := val.MarshalText()
		if err != nil {
			return toolResult{}, err
		}
		return toolResult{Value: string(b)}, nil
	case fmt.Stringer:
		return toolResult{Value: val.String()}, nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return toolResult{}, err
		}
		return toolResult{Value: string(b)}, nil
	}
}
