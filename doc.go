/*
Package swekit routes a conversation between LLM agents that work on a bug
inside a remote workspace.

A Graph has named agent nodes and an entry node. Every node runs with the
local executor until its agent answers with a plain assistant message. The
message is matched against the graph's routes, and the first route whose
phrase appears in it picks the next node. A message without a matching route
goes back to the entry node, and routing to End finishes the invocation.

	g := swekit.New(
		swekit.Name("swe"),
		swekit.Nodes(engineer, analyzer, editor),
		swekit.Entry(engineer.Name()),
		swekit.Routes(
			swekit.When("ANALYZE CODE", analyzer.Name()).OnlyFrom(engineer.Name()),
			swekit.When("EDIT FILE", editor.Name()).OnlyFrom(engineer.Name()),
			swekit.When("PATCH COMPLETED", swekit.End).OnlyFrom(engineer.Name()),
			swekit.When("ANALYSIS COMPLETE", engineer.Name()),
			swekit.When("EDITING COMPLETED", engineer.Name()),
		),
	)

	res, err := g.Invoke(ctx, prompt, swekit.WithRecursionLimit(70))
	if errors.Is(err, swekit.ErrRecursionLimit) {
		// the workspace still holds whatever the agents changed
	}

All nodes share one thread. Node visits and model turns count against the
recursion limit, so a node stuck in a tool loop ends the invocation too.

The bug-fixing agents built on top of the graph live in package swe, and the
benchmark driver that runs several attempts per issue lives in package
benchmark.
*/
package swekit
