package swekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/internal/executor"
	"github.com/casualjim/swekit/internal/registry"
	"github.com/casualjim/swekit/internal/shorttermmemory"
	"github.com/casualjim/swekit/messages"
	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/types"
	"github.com/fogfish/opts"
)

// End is the route target that finishes an invocation.
const End = "__end__"

// DefaultRecursionLimit bounds the steps of one invocation.
const DefaultRecursionLimit = 70

// ErrRecursionLimit is returned when an invocation runs out of steps before
// a node routes to End.
var ErrRecursionLimit = errors.New("graph recursion limit reached")

// Route sends control to To when the final message of node From contains Phrase.
// An empty From matches every node.
type Route struct {
	From   string
	Phrase string
	To     string
}

// When creates a route that applies to every node.
func When(phrase, to string) Route {
	return Route{Phrase: phrase, To: to}
}

// OnlyFrom restricts the route to messages of the given node.
func (r Route) OnlyFrom(node string) Route {
	r.From = node
	return r
}

// Graph routes one shared conversation between agents. Every node runs until
// its agent answers with an assistant message; the first matching route then
// decides the next node. Messages without a matching route go back to the
// entry node.
type Graph struct {
	name   string
	entry  string
	nodes  registry.Registry[api.Agent]
	routes []Route
}

func Nodes(agent api.Agent, extraAgents ...api.Agent) opts.Option[Graph] {
	return opts.Type[Graph](func(g *Graph) error {
		for _, a := range append([]api.Agent{agent}, extraAgents...) {
			if a == nil {
				return errors.New("graph node can't be nil")
			}
			g.nodes.Add(a.Name(), a)
		}
		return nil
	})
}

func Routes(route Route, extraRoutes ...Route) opts.Option[Graph] {
	return opts.Type[Graph](func(g *Graph) error {
		g.routes = append(g.routes, route)
		g.routes = append(g.routes, extraRoutes...)
		return nil
	})
}

var (
	Name  = opts.ForName[Graph, string]("name")
	Entry = opts.ForName[Graph, string]("entry")
)

// New builds a graph. It panics when an option fails or when the entry node
// or a route target is not registered.
func New(options ...opts.Option[Graph]) *Graph {
	g := &Graph{
		name:  "graph",
		nodes: registry.New[api.Agent]("node"),
	}
	if err := opts.Apply(g, options); err != nil {
		panic(err)
	}
	if err := g.validate(); err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) validate() error {
	var err error
	if g.entry == "" {
		err = errors.Join(err, errors.New("graph entry node is required"))
	} else if _, e := g.nodes.Lookup(g.entry); e != nil {
		err = errors.Join(err, fmt.Errorf("entry: %w", e))
	}
	for _, r := range g.routes {
		if r.Phrase == "" {
			err = errors.Join(err, fmt.Errorf("route to %s has no phrase", r.To))
		}
		if r.To == End {
			continue
		}
		if _, e := g.nodes.Lookup(r.To); e != nil {
			err = errors.Join(err, fmt.Errorf("route %q: %w", r.Phrase, e))
		}
	}
	return err
}

func (g *Graph) Name() string {
	return g.name
}

// Nodes returns the names of the registered agents.
func (g *Graph) Nodes() []string {
	return g.nodes.Names()
}

// Next returns the node that handles a final message of node from.
func (g *Graph) Next(from, content string) string {
	for _, r := range g.routes {
		if r.From != "" && r.From != from {
			continue
		}
		if strings.Contains(content, r.Phrase) {
			return r.To
		}
	}
	return g.entry
}

// InvokeOptions configures one Invoke call.
type InvokeOptions struct {
	executor       executor.Executor
	hook           events.Hook
	thread         *shorttermmemory.Aggregator
	contextVars    types.ContextVars
	recursionLimit int
	temperature    *float64
}

var (
	WithHook           = opts.ForName[InvokeOptions, events.Hook]("hook")
	WithThread         = opts.ForName[InvokeOptions, *shorttermmemory.Aggregator]("thread")
	WithContextVars    = opts.ForName[InvokeOptions, types.ContextVars]("contextVars")
	WithRecursionLimit = opts.ForName[InvokeOptions, int]("recursionLimit")
	WithExecutor       = opts.ForName[InvokeOptions, executor.Executor]("executor")
)

func WithTemperature(temperature float64) opts.Option[InvokeOptions] {
	return opts.Type[InvokeOptions](func(i *InvokeOptions) error {
		i.temperature = &temperature
		return nil
	})
}

// InvokeResult describes a finished invocation.
type InvokeResult struct {
	// Content is the final assistant message.
	Content string
	// Node produced the final message.
	Node string
	// Steps counts node visits plus the model turns they used.
	Steps int
	// Thread holds the whole conversation.
	Thread *shorttermmemory.Aggregator
}

// Invoke starts the graph at the entry node with prompt as the user message.
//
// Each node visit and each model turn inside it counts against the recursion
// limit. When the limit is reached the partial result is returned together
// with ErrRecursionLimit, so callers can still inspect the thread.
func (g *Graph) Invoke(ctx context.Context, prompt string, options ...opts.Option[InvokeOptions]) (InvokeResult, error) {
	inv := InvokeOptions{
		executor:       executor.NewLocal(),
		hook:           events.Log(nil),
		recursionLimit: DefaultRecursionLimit,
	}
	if err := opts.Apply(&inv, options); err != nil {
		return InvokeResult{}, err
	}
	if inv.thread == nil {
		inv.thread = shorttermmemory.New()
	}
	if inv.recursionLimit <= 0 {
		return InvokeResult{}, fmt.Errorf("invalid recursion limit %d", inv.recursionLimit)
	}

	lg := slog.Default().With(slogx.LoggerName("swekit.graph"), slog.String("graph", g.name))

	userMsg := messages.New().WithSender("user").UserPrompt(prompt)
	inv.thread.AddUserPrompt(userMsg)
	inv.hook.OnUserPrompt(ctx, userMsg)

	res := InvokeResult{Node: g.entry, Thread: inv.thread}
	contextVars := inv.contextVars
	for node := g.entry; node != End; {
		remaining := inv.recursionLimit - res.Steps - 1
		if remaining <= 0 {
			return res, ErrRecursionLimit
		}
		res.Steps++

		agent, err := g.nodes.Lookup(node)
		if err != nil {
			return res, err
		}
		cmd, err := executor.NewRunCommand(agent, inv.thread, inv.hook)
		if err != nil {
			return res, err
		}
		cmd = cmd.WithMaxTurns(remaining).WithContextVariables(contextVars)
		if inv.temperature != nil {
			cmd = cmd.WithTemperature(*inv.temperature)
		}

		out, err := inv.executor.Run(ctx, cmd)
		if errors.Is(err, executor.ErrMaxTurns) {
			res.Steps = inv.recursionLimit
			return res, ErrRecursionLimit
		}
		if err != nil {
			return res, fmt.Errorf("node %s: %w", node, err)
		}

		res.Steps += out.Turns
		res.Content = out.Content
		res.Node = out.Agent.Name()
		contextVars = out.ContextVariables

		node = g.Next(res.Node, out.Content)
		lg.DebugContext(ctx, "graph step",
			slog.String("from", res.Node),
			slog.String("to", node),
			slog.Int("steps", res.Steps),
		)
	}
	return res, nil
}
