package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := New[int]("node")
	assert.Equal(t, 0, reg.Len())

	reg.Add("software_engineer", 1)
	reg.Add("code_analyzer", 2)

	v, ok := reg.Get("software_engineer")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, err := reg.Lookup("code_analyzer")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = reg.Lookup("editor")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `node "editor": not registered`, err.Error())

	v, loaded := reg.GetOrAdd("editor", func() int { return 3 })
	assert.False(t, loaded)
	assert.Equal(t, 3, v)
	v, loaded = reg.GetOrAdd("editor", func() int { return 4 })
	assert.True(t, loaded)
	assert.Equal(t, 3, v)

	assert.Equal(t, []string{"code_analyzer", "editor", "software_engineer"}, reg.Names())

	reg.Del("editor")
	assert.Equal(t, 2, reg.Len())
	_, ok = reg.Get("editor")
	assert.False(t, ok)
}
