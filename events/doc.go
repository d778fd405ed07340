// Package events reports what happens inside an agent run.
//
// The executor calls a Hook for every user prompt, tool call, tool response, final
// assistant message and error. Hooks are how a run becomes visible: Log writes the
// transcript through slog, NATS publishes it as JSON so a dashboard or another process
// can follow a benchmark, and Multi fans out to several hooks.
//
//	hook := events.Multi(
//	    events.Log(slog.Default()),
//	    events.NATS(conn, "swekit.runs.temp"),
//	)
//
// Hooks must not block; they run on the executor's goroutine.
package events
