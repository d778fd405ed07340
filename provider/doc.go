// Package provider is the abstraction over LLM backends.
//
// A Provider turns a conversation thread, a system prompt and a tool list into a single
// Completion: either a final assistant message or a batch of tool calls. Providers are
// synchronous; the agents in this module never need partial output.
//
// Rate limiting is surfaced uniformly through IsThrottled so callers can retry with
// backoff without knowing which backend produced the error.
package provider
