package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache[string](2)
	c.put("a", "1")
	c.put("b", "2")

	_, ok := c.get("a") // a is now most recent
	assert.True(t, ok)

	c.put("c", "3")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[int](2)
	c.put("a", 1)
	c.put("a", 2)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_SingleEntry(t *testing.T) {
	c := newLRUCache[int](1)
	c.put("a", 1)
	c.put("b", 2)

	_, ok := c.get("a")
	assert.False(t, ok)
	v, _ := c.get("b")
	assert.Equal(t, 2, v)
}
