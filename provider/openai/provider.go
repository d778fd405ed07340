package openai

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/jsonx"
	"github.com/casualjim/swekit/provider"
	"github.com/go-openapi/strfmt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultTemperature = 0.1

var _ provider.Provider = (*Provider)(nil)

// Provider serves chat completions from any endpoint that speaks the OpenAI
// chat completions protocol.
type Provider struct {
	client *openai.Client
}

func New(options ...option.RequestOption) *Provider {
	return &Provider{
		client: openai.NewClient(options...),
	}
}

func (p *Provider) buildRequest(params *provider.CompletionParams) (openai.ChatCompletionNewParams, error) {
	if params.Model == nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if params.Thread == nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("thread is required")
	}

	tools := make([]openai.ChatCompletionToolParam, len(params.Tools))
	for i, tool := range params.Tools {
		if tool.Function == nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("tool %s has nil function", tool.Name)
		}

		name, parameters := tool.ToNameAndSchema()
		jv, err := jsonx.FunctionParameters(parameters)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert tool %s to schema: %w", name, err)
		}

		def := openai.FunctionDefinitionParam{
			Name:       openai.String(name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(tool.Description) != "" {
			def.Description = openai.String(tool.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}

	temperature := defaultTemperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}

	oaiParams := openai.ChatCompletionNewParams{
		Messages:    openai.F(messagesToOpenAI(params.Instructions, params.Thread.MessagesIter())),
		Model:       openai.F(params.Model.Name()),
		N:           openai.Int(1),
		Temperature: openai.Float(temperature),
	}
	if len(tools) > 0 {
		oaiParams.Tools = openai.F(tools)
		oaiParams.ParallelToolCalls = openai.Bool(params.ParallelToolCalls)
	}
	return oaiParams, nil
}

// ChatCompletion sends the thread to the model and returns its answer.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (provider.Completion, error) {
	chatParams, err := p.buildRequest(&params)
	if err != nil {
		return provider.Completion{}, fmt.Errorf("failed to build request: %w", err)
	}

	chat, err := p.client.Chat.Completions.New(ctx, chatParams)
	if err != nil {
		return provider.Completion{}, err
	}
	return completionFromOpenAI(chat, &params)
}

func messagesToOpenAI(instructions string, msgs iter.Seq[messages.Message[messages.ModelMessage]]) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(instructions) != "" {
		result = append(result, openai.SystemMessage(instructions))
	}

	for message := range msgs {
		switch msg := message.Payload.(type) {
		case messages.UserMessage:
			result = append(result, openai.UserMessage(msg.Content))
		case messages.ToolResponse:
			result = append(result, openai.ToolMessage(msg.ToolCallID, msg.Content))
		case messages.ToolCallMessage:
			tcd := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tcd[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   openai.String(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.String(tc.Name),
						Arguments: openai.String(tc.Arguments),
					}),
				}
			}
			result = append(result, openai.ChatCompletionAssistantMessageParam{
				Role:      openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
				ToolCalls: openai.F(tcd),
			})
		case messages.AssistantMessage:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			if msg.Content != "" {
				am.Content = openai.F([]openai.ChatCompletionAssistantMessageParamContentUnion{
					openai.TextPart(msg.Content),
				})
			}
			if msg.Refusal != "" {
				am.Refusal = openai.String(msg.Refusal)
			}
			result = append(result, am)
		}
	}
	return result
}

func completionFromOpenAI(chat *openai.ChatCompletion, params *provider.CompletionParams) (provider.Completion, error) {
	if chat == nil || len(chat.Choices) == 0 {
		return provider.Completion{}, fmt.Errorf("model %s returned no choices", params.Model.Name())
	}

	compl := provider.Completion{
		RunID:  params.RunID,
		TurnID: params.Thread.ID(),
		Usage: shorttermmemory.Usage{
			PromptTokens:     chat.Usage.PromptTokens,
			CompletionTokens: chat.Usage.CompletionTokens,
			TotalTokens:      chat.Usage.TotalTokens,
		},
		Timestamp: strfmt.DateTime(time.Now()),
	}

	choice := chat.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			tcd[i] = messages.ToolCallData{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
		compl.Response = messages.ToolCallMessage{ToolCalls: tcd}
		return compl, nil
	}

	compl.Response = messages.AssistantMessage{
		Content: choice.Content,
		Refusal: choice.Refusal,
	}
	return compl, nil
}
