package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, options{
		split:        "1:2",
		runID:        "temp",
		dataset:      "swe-bench-lite.jsonl",
		numInstances: 3,
		workers:      3,
		output:       "runs",
	}, o)

	o, err = parseFlags([]string{
		"--test-split", "1:300",
		"--test-instance-ids", "astropy__astropy-12907, django__django-11099",
		"--run-id", "nightly",
		"--workers", "5",
		"--dry-run",
		"--temporal",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"astropy__astropy-12907", "django__django-11099"}, o.instanceIDs)
	assert.Equal(t, "nightly", o.runID)
	assert.Equal(t, 5, o.workers)
	assert.True(t, o.dryRun)
	assert.True(t, o.temporal)

	_, err = parseFlags([]string{"--test-split", "3:1"})
	require.Error(t, err)

	_, err = parseFlags([]string{"--workers", "0"})
	require.Error(t, err)

	_, err = parseFlags([]string{"--unknown"})
	require.Error(t, err)
}
