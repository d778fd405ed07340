package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/tidwall/gjson"
)

type messageBuilder struct {
	sender    string
	timestamp strfmt.DateTime
	metadata  gjson.Result
}

// New starts a message stamped with the current time.
func New() messageBuilder {
	return messageBuilder{
		timestamp: strfmt.DateTime(time.Now()),
	}
}

func (b messageBuilder) WithSender(sender string) messageBuilder {
	b.sender = sender
	return b
}

func (b messageBuilder) WithTimestamp(timestamp strfmt.DateTime) messageBuilder {
	b.timestamp = timestamp
	return b
}

func (b messageBuilder) WithMetadata(metadata gjson.Result) messageBuilder {
	b.metadata = metadata
	return b
}

func (b messageBuilder) UserPrompt(content string) Message[UserMessage] {
	return build(b, UserMessage{Content: content})
}

func (b messageBuilder) AssistantMessage(content string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Content: content})
}

func (b messageBuilder) AssistantRefusal(refusal string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Refusal: refusal})
}

func (b messageBuilder) ToolCall(calls ...ToolCallData) Message[ToolCallMessage] {
	return build(b, ToolCallMessage{ToolCalls: calls})
}

func (b messageBuilder) ToolResponse(toolCallID, toolName, content string) Message[ToolResponse] {
	return build(b, ToolResponse{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Content:    content,
	})
}

func build[T ModelMessage](b messageBuilder, payload T) Message[T] {
	return Message[T]{
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}
