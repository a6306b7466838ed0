// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcache(t *testing.T) {
	c := newOpcache(7)
	require.Len(t, c.table, 7)
	_, ok := c.lookup(1, 2)
	assert.False(t, ok, "empty cache")

	c.store(1, 2, 5)
	res, ok := c.lookup(1, 2)
	assert.True(t, ok)
	assert.Equal(t, Node(5), res)
	_, ok = c.lookup(2, 1)
	assert.False(t, ok, "operands are ordered")
	assert.Equal(t, 1, c.hit)
	assert.Equal(t, 2, c.miss)

	// a pair sharing the slot of (1, 2) replaces it
	var a, b Node
	for k := Node(3); ; k++ {
		if c.slot(k, 2) == c.slot(1, 2) {
			a, b = k, 2
			break
		}
	}
	c.store(a, b, 6)
	_, ok = c.lookup(1, 2)
	assert.False(t, ok, "entry (1, 2) overwritten by (%d, %d)", a, b)
	res, ok = c.lookup(a, b)
	assert.True(t, ok)
	assert.Equal(t, Node(6), res)

	// unary operators use False as second operand
	c.store(4, False, 3)
	res, ok = c.lookup(4, False)
	assert.True(t, ok)
	assert.Equal(t, Node(3), res)

	c.clear()
	for _, p := range [][2]Node{{1, 2}, {a, b}, {4, False}} {
		_, ok = c.lookup(p[0], p[1])
		assert.False(t, ok, "lookup(%d, %d) after clear", p[0], p[1])
	}
}
