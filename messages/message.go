package messages

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ModelMessage is implemented by every payload that can be part of a conversation.
type ModelMessage interface {
	message()
	kind() string
}

// Request is a payload sent to a model.
type Request interface {
	ModelMessage
	request()
}

// Response is a payload produced by a model.
type Response interface {
	ModelMessage
	response()
}

const (
	typeUser         = "user"
	typeAssistant    = "assistant"
	typeToolCall     = "tool_call"
	typeToolResponse = "tool_response"
)

// UserMessage is a prompt for an agent.
type UserMessage struct {
	Content string
	_       struct{}
}

func (UserMessage) message()     {}
func (UserMessage) request()     {}
func (UserMessage) kind() string { return typeUser }

// AssistantMessage is the text a model produced at the end of a turn.
type AssistantMessage struct {
	Content string
	Refusal string
	_       struct{}
}

func (AssistantMessage) message()     {}
func (AssistantMessage) response()    {}
func (AssistantMessage) kind() string { return typeAssistant }

// ToolCallData describes a single tool invocation requested by a model.
// Arguments holds the raw JSON object the model produced.
type ToolCallData struct {
	ID        string
	Name      string
	Arguments string
	_         struct{}
}

// ToolCallMessage groups the tool invocations of one model response.
type ToolCallMessage struct {
	ToolCalls []ToolCallData
	_         struct{}
}

func (ToolCallMessage) message()     {}
func (ToolCallMessage) response()    {}
func (ToolCallMessage) kind() string { return typeToolCall }

// ToolResponse carries the output of one tool invocation back to the model.
type ToolResponse struct {
	ToolCallID string
	ToolName   string
	Content    string
	_          struct{}
}

func (ToolResponse) message()     {}
func (ToolResponse) request()     {}
func (ToolResponse) kind() string { return typeToolResponse }

// Message is the envelope around a payload.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID
	TurnID    uuid.UUID
	Payload   T
	Sender    string
	Timestamp strfmt.DateTime
	Meta      gjson.Result
}

// Erase converts a typed message into a message holding the ModelMessage interface.
func Erase[T ModelMessage](m Message[T]) Message[ModelMessage] {
	return Message[ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

func (m Message[T]) MarshalJSON() ([]byte, error) {
	var payload ModelMessage = m.Payload
	if payload == nil {
		return nil, errors.New("message has no payload")
	}

	data, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	if m.RunID != uuid.Nil {
		if data, err = sjson.SetBytes(data, "run_id", m.RunID.String()); err != nil {
			return nil, err
		}
	}
	if m.TurnID != uuid.Nil {
		if data, err = sjson.SetBytes(data, "turn_id", m.TurnID.String()); err != nil {
			return nil, err
		}
	}
	if m.Sender != "" {
		if data, err = sjson.SetBytes(data, "sender", m.Sender); err != nil {
			return nil, err
		}
	}
	if data, err = sjson.SetBytes(data, "timestamp", m.Timestamp.String()); err != nil {
		return nil, err
	}
	if m.Meta.Exists() && m.Meta.Raw != "" {
		if data, err = sjson.SetRawBytes(data, "meta", []byte(m.Meta.Raw)); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func encodePayload(payload ModelMessage) ([]byte, error) {
	data, err := sjson.SetBytes([]byte(`{}`), "type", payload.kind())
	if err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case UserMessage:
		return sjson.SetBytes(data, "content", p.Content)
	case AssistantMessage:
		if p.Content != "" {
			if data, err = sjson.SetBytes(data, "content", p.Content); err != nil {
				return nil, err
			}
		}
		if p.Refusal != "" {
			return sjson.SetBytes(data, "refusal", p.Refusal)
		}
		return data, nil
	case ToolCallMessage:
		if data, err = sjson.SetRawBytes(data, "tool_calls", []byte(`[]`)); err != nil {
			return nil, err
		}
		for i, call := range p.ToolCalls {
			prefix := fmt.Sprintf("tool_calls.%d.", i)
			if data, err = sjson.SetBytes(data, prefix+"id", call.ID); err != nil {
				return nil, err
			}
			if data, err = sjson.SetBytes(data, prefix+"name", call.Name); err != nil {
				return nil, err
			}
			if data, err = sjson.SetBytes(data, prefix+"arguments", call.Arguments); err != nil {
				return nil, err
			}
		}
		return data, nil
	case ToolResponse:
		if data, err = sjson.SetBytes(data, "tool_call_id", p.ToolCallID); err != nil {
			return nil, err
		}
		if data, err = sjson.SetBytes(data, "tool_name", p.ToolName); err != nil {
			return nil, err
		}
		return sjson.SetBytes(data, "content", p.Content)
	default:
		return nil, fmt.Errorf("unknown message payload %T", payload)
	}
}

func (m *Message[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid message json")
	}
	res := gjson.ParseBytes(data)

	payload, err := decodePayload(res)
	if err != nil {
		return err
	}
	typed, ok := payload.(T)
	if !ok {
		return fmt.Errorf("message of type %q can't be decoded into %T", res.Get("type").String(), m.Payload)
	}

	var msg Message[T]
	msg.Payload = typed
	msg.Sender = res.Get("sender").String()
	if v := res.Get("run_id"); v.Exists() {
		if msg.RunID, err = uuid.Parse(v.String()); err != nil {
			return fmt.Errorf("invalid run_id: %w", err)
		}
	}
	if v := res.Get("turn_id"); v.Exists() {
		if msg.TurnID, err = uuid.Parse(v.String()); err != nil {
			return fmt.Errorf("invalid turn_id: %w", err)
		}
	}
	if v := res.Get("timestamp"); v.Exists() {
		if msg.Timestamp, err = strfmt.ParseDateTime(v.String()); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	if v := res.Get("meta"); v.Exists() {
		msg.Meta = v
	}

	*m = msg
	return nil
}

func decodePayload(res gjson.Result) (ModelMessage, error) {
	switch tpe := res.Get("type").String(); tpe {
	case typeUser:
		return UserMessage{Content: res.Get("content").String()}, nil
	case typeAssistant:
		return AssistantMessage{
			Content: res.Get("content").String(),
			Refusal: res.Get("refusal").String(),
		}, nil
	case typeToolCall:
		var calls []ToolCallData
		for _, call := range res.Get("tool_calls").Array() {
			calls = append(calls, ToolCallData{
				ID:        call.Get("id").String(),
				Name:      call.Get("name").String(),
				Arguments: call.Get("arguments").String(),
			})
		}
		return ToolCallMessage{ToolCalls: calls}, nil
	case typeToolResponse:
		return ToolResponse{
			ToolCallID: res.Get("tool_call_id").String(),
			ToolName:   res.Get("tool_name").String(),
			Content:    res.Get("content").String(),
		}, nil
	case "":
		return nil, errors.New("message type is missing")
	default:
		return nil, fmt.Errorf("unknown message type %q", tpe)
	}
}
