package openai

import (
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/swekit/api"
	"github.com/casualjim/swekit/provider"
	"github.com/openai/openai-go/option"
)

var modelRegistry = haxmap.New[string, api.Model]()

// Model returns the registered model for name, creating it with opts on first use.
// Later calls with the same name return the cached model and ignore opts.
func Model(name string, opts ...option.RequestOption) api.Model {
	m, _ := modelRegistry.GetOrCompute(name, func() api.Model {
		return NewModel(name, opts...)
	})
	return m
}

// NewModel creates an unregistered model. Use it when the same model name is
// served by several endpoints, like the agent and judge models of a benchmark run.
func NewModel(name string, opts ...option.RequestOption) api.Model {
	return &model{
		name: name,
		opts: opts,
	}
}

// Forget removes a model from the registry.
func Forget(name string) {
	modelRegistry.Del(name)
}

var _ api.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
