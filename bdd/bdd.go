// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Node is a reference to a vertex of the BDD. Nodes are integer indices in the
// node table, with the convention that 0 is the constant False and 1 is the
// constant True. A negative value is the result of a failed operation.
type Node int

const bddnil Node = -1

// _MAXVAR is the maximal number of levels in the BDD. We use the bit 0x200000
// of the level field to mark nodes during garbage collection.
const _MAXVAR int32 = 0x1FFFFF

// _MAXREFCOUNT is the sentinel reference count of pinned nodes (the constants
// and the variables). Counts never go above it and pinned nodes are never
// released.
const _MAXREFCOUNT int32 = math.MaxInt32

// BDD is a table of shared, reduced and ordered binary decision diagrams over
// a growable set of Boolean variables. Variables are identified by their level,
// an index in the interval [0..Varnum). A BDD is not safe for concurrent use.
type BDD struct {
	varnum   int32    // number of BDD variables
	varset   [][2]int // positive and negative node of each variable
	refstack []int    // nodes under construction, protected from GC
	error             // sticky error status
	configs           // configurable parameters
	log      logrus.FieldLogger
	nodes    []bddNode       // constants are always kept at index 0 and 1
	unique   map[nodeKey]int // unicity table, associates each triplet to a single node
	freenum  int             // number of free nodes
	freepos  int             // first free node, 0 if none
	produced int             // total number of new nodes ever produced
	gcstat                   // information about garbage collections
	cacheStat
	applycache *applycache
	itecache   *cache
}

type bddNode struct {
	level  int32 // order of the variable, with a mark bit used during GC
	low    int   // false branch, or -1 when the slot is free
	high   int   // true branch, or the next free slot
	refcou int32 // number of external references
}

type nodeKey struct {
	level     int32
	low, high int
}

// New returns a new BDD with varnum variables (possibly zero, see AddVars).
// Options are used to configure the size of the node table and caches.
func New(varnum int, options ...Option) (*BDD, error) {
	b := &BDD{}
	c := makeconfigs(varnum)
	for _, f := range options {
		f(c)
	}
	b.configs = *c
	b.log = c.logger
	if (varnum < 0) || (varnum > int(_MAXVAR)) {
		b.seterror(ErrNode, "bad number of variable (%d)", varnum)
		return nil, b.error
	}
	if b.nodesize < 2 {
		b.nodesize = 2
	}
	b.nodes = make([]bddNode, b.nodesize)
	for k := range b.nodes {
		b.nodes[k] = bddNode{low: -1, high: k + 1}
	}
	b.nodes[b.nodesize-1].high = 0
	b.nodes[0] = bddNode{low: 0, high: 0, refcou: _MAXREFCOUNT}
	b.nodes[1] = bddNode{low: 1, high: 1, refcou: _MAXREFCOUNT}
	b.freepos = 0
	b.freenum = b.nodesize - 2
	if b.nodesize > 2 {
		b.freepos = 2
	}
	b.unique = make(map[nodeKey]int, b.nodesize)
	b.refstack = make([]int, 0, 2*varnum+4)
	b.cacheinit()
	if err := b.AddVars(varnum); err != nil {
		return nil, err
	}
	return b, nil
}

// AddVars appends num new variables at the bottom of the variable order. The
// levels of existing variables are unchanged.
func (b *BDD) AddVars(num int) error {
	if num < 0 || int(b.varnum)+num > int(_MAXVAR) {
		b.seterror(ErrNode, "bad number of new variables (%d) in AddVars", num)
		return b.error
	}
	if b.error != nil {
		return b.error
	}
	old := b.varnum
	b.varnum += int32(num)
	// constants are always at the deepest level
	b.nodes[0].level = b.varnum
	b.nodes[1].level = b.varnum
	b.initref()
	for k := old; k < b.varnum; k++ {
		v0, err := b.makenode(k, 0, 1)
		if err != nil {
			b.seterror(err, "cannot allocate new variable %d in AddVars", k)
			return b.error
		}
		b.nodes[v0].refcou = _MAXREFCOUNT
		b.pushref(v0)
		v1, err := b.makenode(k, 1, 0)
		if err != nil {
			b.seterror(err, "cannot allocate new variable %d in AddVars", k)
			return b.error
		}
		b.nodes[v1].refcou = _MAXREFCOUNT
		b.popref(1)
		b.varset = append(b.varset, [2]int{v0, v1})
	}
	return nil
}

// Varnum returns the number of declared variables.
func (b *BDD) Varnum() int {
	return int(b.varnum)
}

// True returns the constant true BDD.
func (b *BDD) True() Node {
	return 1
}

// False returns the constant false BDD.
func (b *BDD) False() Node {
	return 0
}

// Ithvar returns the BDD of the i'th variable, that is the function x_i. The
// result is pinned and never needs to be referenced.
func (b *BDD) Ithvar(i int) Node {
	if (i < 0) || (int32(i) >= b.varnum) {
		return b.seterror(ErrNode, "unknown variable used (%d) in call to Ithvar", i)
	}
	return Node(b.varset[i][0])
}

// NIthvar returns the BDD of the negation of the i'th variable.
func (b *BDD) NIthvar(i int) Node {
	if (i < 0) || (int32(i) >= b.varnum) {
		return b.seterror(ErrNode, "unknown variable used (%d) in call to NIthvar", i)
	}
	return Node(b.varset[i][1])
}

// IsConst returns true if n is one of the constants True or False.
func (b *BDD) IsConst(n Node) bool {
	return n == 0 || n == 1
}

// Label returns the level of the variable tested by node n. It returns Varnum
// for the constants and -1 if n is not valid.
func (b *BDD) Label(n Node) int {
	if b.checkptr(n) != nil {
		b.seterror(ErrNode, "illegal access to node %d in call to Label", n)
		return -1
	}
	return int(b.level(int(n)))
}

// Low returns the false branch of node n.
func (b *BDD) Low(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror(ErrNode, "illegal access to node %d in call to Low", n)
	}
	return Node(b.nodes[n].low)
}

// High returns the true branch of node n.
func (b *BDD) High(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror(ErrNode, "illegal access to node %d in call to High", n)
	}
	return Node(b.nodes[n].high)
}

// checkptr returns an error if n is not a live node of b.
func (b *BDD) checkptr(n Node) error {
	switch {
	case n < 0:
		return ErrNode
	case n < 2:
		return nil
	case int(n) >= len(b.nodes):
		return ErrNode
	case b.nodes[n].low == -1:
		return ErrNode
	}
	return nil
}

func (b *BDD) level(n int) int32 {
	return b.nodes[n].level & _MAXVAR
}

func (b *BDD) low(n int) int {
	return b.nodes[n].low
}

func (b *BDD) high(n int) int {
	return b.nodes[n].high
}
