// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"fmt"

	"github.com/nddlab/ndd/internal/hashing"
)

// cache is a direct-mapped table used for memoizing the result of operations.
type cache struct {
	table []cacheData
}

// cacheData is a unit of information stored in the Apply and ITE caches.
type cacheData struct {
	res int
	a   int
	b   int
	c   int
}

// applycache is used for the results of Not and Apply; the current operator
// is part of the key.
type applycache struct {
	cache
	op Operator
}

// cacheStat stores status information about the unique table and the
// operator caches.
type cacheStat struct {
	uniqueAccess int // accesses to the unique node table
	uniqueHit    int // entries found in the unique node table
	uniqueMiss   int // entries not found in the unique node table
	opHit        int // entries found in the operator caches
	opMiss       int // entries not found in the operator caches
}

func (c cacheStat) String() string {
	res := fmt.Sprintf("Unique Access:  %d\n", c.uniqueAccess)
	res += fmt.Sprintf("Unique Hit:     %d\n", c.uniqueHit)
	res += fmt.Sprintf("Unique Miss:    %d\n", c.uniqueMiss)
	res += fmt.Sprintf("Operator Hits:  %d\n", c.opHit)
	res += fmt.Sprintf("Operator Miss:  %d", c.opMiss)
	return res
}

// ************************************************************

func (bc *cache) cacheinit(size int) {
	bc.table = make([]cacheData, hashing.PrimeGte(size))
	bc.cachereset()
}

func (bc *cache) cachereset() {
	for k := range bc.table {
		bc.table[k].a = -1
	}
}

func (b *BDD) cacheinit() {
	size := b.cachesize
	if size <= 0 {
		size = len(b.nodes)/5 + 1
	}
	b.applycache = &applycache{}
	b.applycache.cacheinit(size)
	b.itecache = &cache{}
	b.itecache.cacheinit(size)
}

func (b *BDD) cachereset() {
	b.applycache.cachereset()
	b.itecache.cachereset()
}

// cacheresize is called after a resize of the node table. Caches only grow
// when a cache ratio has been configured.
func (b *BDD) cacheresize() {
	if b.cacheratio <= 0 {
		b.cachereset()
		return
	}
	size := (len(b.nodes) * b.cacheratio) / 100
	if size <= len(b.applycache.table) {
		b.cachereset()
		return
	}
	b.applycache.cacheinit(size)
	b.itecache.cacheinit(size)
}

// ************************************************************

// The hash function for operation Not(n) is simply n.

func (b *BDD) matchnot(n int) int {
	entry := b.applycache.table[n%len(b.applycache.table)]
	if entry.a == n && entry.c == int(opNot) {
		b.opHit++
		return entry.res
	}
	b.opMiss++
	return -1
}

func (b *BDD) setnot(n int, res int) int {
	b.applycache.table[n%len(b.applycache.table)] = cacheData{
		a:   n,
		c:   int(opNot),
		res: res,
	}
	return res
}

// The hash function for Apply is #(left, right, applycache.op).

func (b *BDD) matchapply(left, right int) int {
	entry := b.applycache.table[hashing.Triple(left, right, int(b.applycache.op), len(b.applycache.table))]
	if entry.a == left && entry.b == right && entry.c == int(b.applycache.op) {
		b.opHit++
		return entry.res
	}
	b.opMiss++
	return -1
}

func (b *BDD) setapply(left, right, res int) int {
	b.applycache.table[hashing.Triple(left, right, int(b.applycache.op), len(b.applycache.table))] = cacheData{
		a:   left,
		b:   right,
		c:   int(b.applycache.op),
		res: res,
	}
	return res
}

// The hash function for ITE is #(f,g,h).

func (b *BDD) matchite(f, g, h int) int {
	entry := b.itecache.table[hashing.Triple(f, g, h, len(b.itecache.table))]
	if entry.a == f && entry.b == g && entry.c == h {
		b.opHit++
		return entry.res
	}
	b.opMiss++
	return -1
}

func (b *BDD) setite(f, g, h, res int) int {
	b.itecache.table[hashing.Triple(f, g, h, len(b.itecache.table))] = cacheData{
		a:   f,
		b:   g,
		c:   h,
		res: res,
	}
	return res
}
