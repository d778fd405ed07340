/*
Package tool turns plain Go functions into tools an agent can call.

A Definition pairs a function with the name, description and argument names the model
sees. The JSON schema of the arguments is derived from the function signature through
reflection, so a tool is just a function:

	openFile := tool.Must(
		func(ctx context.Context, path string, line int) (string, error) {
			return ws.OpenFile(ctx, id, path, line)
		},
		tool.Name("FILETOOL_OPEN_FILE"),
		tool.Description("Open a file and show the window around a line"),
		tool.Parameters("file_path", "line_number"),
	)

Parameters of type context.Context and types.ContextVars are injected by the executor
and never appear in the schema. A function returning an api.Agent hands control to that
agent; returning types.ContextVars merges values into the run; an error result is
reported back to the model.
*/
package tool
