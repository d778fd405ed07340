// Package swe builds the bug-fixing agents and runs one attempt at an issue
// inside a workspace.
//
// NewGraph wires a software engineer, a code analyzer and an editor into a
// swekit.Graph. The engineer coordinates, the analyzer reads code through the
// code analysis actions, and the editor changes files. NewBaseline is the
// single-agent variant.
//
// Attempt.Run drives one graph run end to end and returns the patch left in
// the workspace together with the status of the project's tests.
package swe
