// Package agent builds api.Agent values from functional options.
package agent

import (
	"errors"
	"strings"
	"text/template"

	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/tool"
	"github.com/casualjim/swekit/types"
	"github.com/fogfish/opts"
)

var _ api.Agent = (*defaultAgent)(nil)

type defaultAgent struct {
	name              string
	model             api.Model
	instructions      string
	tools             []tool.Definition
	parallelToolCalls bool
}

func (a *defaultAgent) Name() string {
	return a.name
}

func (a *defaultAgent) Model() api.Model {
	return a.model
}

func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

func (a *defaultAgent) Instructions() string {
	return a.instructions
}

func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

// RenderInstructions executes the instructions as a text/template. Plain text
// is returned as is.
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate(a.name, a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	Name              = opts.ForName[defaultAgent, string]("name")
	Model             = opts.ForName[defaultAgent, api.Model]("model")
	Instructions      = opts.ForName[defaultAgent, string]("instructions")
	ParallelToolCalls = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

// Tools appends tool definitions to the agent.
func Tools(defs ...tool.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, defs...)
		return nil
	})
}

// New creates an agent. Graph nodes are looked up by name and there is no
// default model, so both are required. It panics when an option fails to
// apply or either is missing.
func New(options ...opts.Option[defaultAgent]) api.Agent {
	agent := &defaultAgent{
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	if err := agent.validate(); err != nil {
		panic(err)
	}
	return agent
}

func (a *defaultAgent) validate() error {
	var err error
	if strings.TrimSpace(a.name) == "" {
		err = errors.Join(err, errors.New("agent name is required"))
	}
	if a.model == nil {
		err = errors.Join(err, errors.New("agent model is required"))
	}
	return err
}
