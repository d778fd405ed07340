/*
Package openai implements provider.Provider on top of github.com/openai/openai-go.

The same client serves OpenAI, Azure OpenAI and Anthropic's OpenAI compatible endpoint;
the differences are carried by request options (base URL, headers, query parameters):

	model := openai.Model("claude-3-5-sonnet-20240620",
		option.WithAPIKey(key),
		option.WithBaseURL("https://api.anthropic.com/v1/"),
	)
	compl, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		Instructions: "You are expert at reading test responses.",
		Thread:       thread,
		Model:        model,
	})

Models are cached by name in a process wide registry and create their provider lazily.

# Message mapping

  - UserMessage becomes a user message
  - AssistantMessage becomes an assistant message with text content
  - ToolCallMessage becomes an assistant message carrying tool calls
  - ToolResponse becomes a tool message keyed by the tool call id

A response with tool calls is returned as a messages.ToolCallMessage, anything else as a
messages.AssistantMessage. API errors are returned unwrapped so provider.IsThrottled can
inspect the status code.
*/
package openai
