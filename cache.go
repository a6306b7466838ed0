// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import "github.com/nddlab/ndd/internal/hashing"

// opcache is a direct-mapped table memoizing the results of one operator.
// A slot holds a single entry and a store overwrites whatever was there; a
// lookup only succeeds on an exact match of the operands.
type opcache struct {
	table []cacheData
	hit   int
	miss  int
}

type cacheData struct {
	a, b Node
	res  Node
}

func newOpcache(size int) *opcache {
	c := &opcache{table: make([]cacheData, hashing.PrimeGte(size))}
	c.clear()
	return c
}

func (c *opcache) slot(a, b Node) int {
	return hashing.Pair(int(a), int(b), len(c.table))
}

// lookup returns the result stored for (a, b). Unary operators use False as
// second operand.
func (c *opcache) lookup(a, b Node) (Node, bool) {
	entry := c.table[c.slot(a, b)]
	if entry.a == a && entry.b == b {
		c.hit++
		return entry.res, true
	}
	c.miss++
	return nddnil, false
}

func (c *opcache) store(a, b, res Node) {
	c.table[c.slot(a, b)] = cacheData{a: a, b: b, res: res}
}

func (c *opcache) clear() {
	for k := range c.table {
		c.table[k].a = nddnil
	}
}
