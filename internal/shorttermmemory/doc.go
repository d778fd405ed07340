// Package shorttermmemory holds the conversation thread of an agent run.
//
// An attempt starts with one Aggregator holding the issue prompt. Each agent run forks
// it, appends tool calls, tool responses and the final assistant message to the fork and
// joins the fork back when the run ends. The graph router reads the last assistant
// message of the joined thread to pick the next node.
//
//	thread := shorttermmemory.New()
//	thread.AddUserPrompt(messages.New().UserPrompt(issue))
//	fork := thread.Fork()
//	// ... the executor appends to fork
//	thread.Join(fork)
//
// Token usage reported by the provider is accumulated alongside the messages and
// survives Fork, Join and Checkpoint.
package shorttermmemory
