package api

import "github.com/casualjim/swekit/provider"

// Model is an LLM reachable through a provider. The agents and the judge may
// run on different models of the same provider.
type Model interface {
	// Name is the model id sent with each request. For Azure it is the deployment.
	Name() string
	Provider() provider.Provider
}
