// Package types provides core type definitions shared by the agent runtime.
package types

import "github.com/goccy/go-json"

// ContextVars represents a key-value store of context variables used for template rendering
// and for passing state between tool calls.
//
// Agent instructions are text/template strings rendered against the variables:
//
//	agent.New(
//	    agent.Instructions(`You are working in the {{.repo_name}} repository.`),
//	)
//
// Tools may declare a ContextVars parameter to receive a copy of the variables, and may return
// ContextVars to merge new values into the run.
//
// ContextVars is not safe for concurrent modification.
type ContextVars map[string]any

// String returns a JSON string representation of the ContextVars.
// If marshaling fails, it returns an empty string.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

// GetString returns the value at key when it is a string.
func (cv ContextVars) GetString(key string) (string, bool) {
	v, ok := cv[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
