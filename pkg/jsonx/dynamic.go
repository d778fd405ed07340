package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON converts any Go value to a dynamic JSON object represented as a map[string]any.
// It round trips the value through JSON, so only exported, serializable fields survive.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FunctionParameters converts a tool's argument schema to the object sent as
// function parameters. Schema metadata keys are dropped and a schema without
// arguments still declares an empty object.
func FunctionParameters(schema any) (map[string]any, error) {
	params, err := ToDynamicJSON(schema)
	if err != nil {
		return nil, err
	}
	delete(params, "$schema")
	delete(params, "$id")
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	if _, ok := params["properties"].(map[string]any); !ok {
		params["properties"] = map[string]any{}
	}
	return params, nil
}
