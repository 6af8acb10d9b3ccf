package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

func TestLRU_PutGet(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](2)

	_, existed := c.Put("a", 1)
	assert.False(t, existed)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	old, existed := c.Put("a", 2)
	assert.True(t, existed)
	assert.Equal(t, 1, old)
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](2)

	var evicted []string
	c.OnEvict(func(key string, _ int) {
		evicted = append(evicted, key)
	})

	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRU_RemoveAndClear(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Remove("a")
	assert.False(t, ok)

	cleared := 0
	c.OnEvict(func(string, int) { cleared++ })
	c.Clear()
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, c.Len())
}

func TestNewLRU_PanicsOnInvalidCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLRU[string, int](0) })
}
