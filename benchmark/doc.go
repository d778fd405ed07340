// Package benchmark runs several attempts of the bug-fixing agent on one
// issue and lets a judge model pick the best patch. Evaluate drives it over a
// SWE-bench dataset and writes a predictions file.
package benchmark
