// Package messages defines the conversation entries exchanged between agents, tools and
// model providers.
//
// Every entry is wrapped in a Message envelope that carries the run it belongs to, the
// turn (thread) that produced it, the sender and a timestamp. The payload is one of:
//   - UserMessage: a prompt handed to an agent
//   - AssistantMessage: the final text answer of a model turn
//   - ToolCallMessage: the tool invocations a model asked for
//   - ToolResponse: the result of one tool invocation
//
// Messages are built with the fluent builder:
//
//	msg := messages.New().WithSender("engineer").UserPrompt("fix the failing test")
//
// The JSON form is flat, with a "type" discriminator next to the envelope fields:
//
//	{"type":"user","content":"fix the failing test","sender":"engineer","timestamp":"..."}
package messages
