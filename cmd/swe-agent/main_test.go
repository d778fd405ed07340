package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	_, err := parseFlags(nil)
	require.ErrorContains(t, err, "--repo")

	_, err = parseFlags([]string{"--repo", "astropy/astropy"})
	require.ErrorContains(t, err, "--issue")

	_, err = parseFlags([]string{"--repo", "astropy/astropy", "--issue", "x", "--issue-file", "y"})
	require.Error(t, err)

	o, err := parseFlags([]string{"--repo", "astropy/astropy", "--issue", "separability_matrix is wrong", "--graph", "--test-command", "pytest"})
	require.NoError(t, err)
	assert.True(t, o.graph)
	assert.True(t, o.markdown)
	assert.Equal(t, "pytest", o.testCommand)
}

func TestReadIssue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issue.md")
	require.NoError(t, os.WriteFile(path, []byte("\nModeling's separability_matrix does not compute correctly\n"), 0o600))

	o, err := parseFlags([]string{"--repo", "astropy/astropy", "--issue-file", path, "--base-commit", "d16bfe05"})
	require.NoError(t, err)

	issue, err := o.readIssue()
	require.NoError(t, err)
	assert.Equal(t, "Modeling's separability_matrix does not compute correctly", issue.Description)
	assert.Equal(t, "astropy", issue.RepoShortName())
	assert.Equal(t, "d16bfe05", issue.BaseCommit)

	o.issueFile = filepath.Join(t.TempDir(), "missing.md")
	_, err = o.readIssue()
	require.Error(t, err)

	o = options{repo: "astropy/astropy", issue: "   "}
	_, err = o.readIssue()
	require.Error(t, err)
}
