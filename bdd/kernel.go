// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"math"

	"github.com/sirupsen/logrus"
)

// gcstat stores status information about garbage collections. We use a slice
// of objects to record the sequence of GC during a computation.
type gcstat struct {
	reclaimed int       // total number of nodes freed by GC
	history   []gcpoint // snapshot of GC stats at each occurrence
}

type gcpoint struct {
	nodes     int // total number of allocated nodes in the node table
	freenodes int // number of free nodes after the collection
}

// When a slot is unused in b.nodes, we have low set to -1 and high set to the
// next free position. The value of b.freepos gives the index of the lowest
// unused slot, except when freenum is 0, in which case it is also 0.

func (b *BDD) makenode(level int32, low int, high int) (int, error) {
	b.uniqueAccess++
	// we skip the node when both children are equal
	if low == high {
		return low, nil
	}
	key := nodeKey{level, low, high}
	if res, ok := b.unique[key]; ok {
		b.uniqueHit++
		return res, nil
	}
	b.uniqueMiss++
	// If there is no available spot, we try garbage collection and, as a last
	// resort, resizing the node table.
	if b.freepos == 0 {
		b.gbc()
		if (b.freenum*100)/len(b.nodes) <= b.minfreenodes {
			if err := b.noderesize(); err != nil && b.freepos == 0 {
				return -1, err
			}
		}
		if b.freepos == 0 {
			return -1, ErrMemory
		}
	}
	b.produced++
	res := b.freepos
	b.freepos = b.nodes[res].high
	b.freenum--
	b.nodes[res] = bddNode{level: level, low: low, high: high}
	b.unique[key] = res
	return res, nil
}

// gbc is the garbage collector called for reclaiming memory, inside a call to
// makenode, when there are no free positions available. Allocated nodes that
// are not reclaimed do not move.
func (b *BDD) gbc() {
	// nodes on the refstack are being built and must survive
	for _, r := range b.refstack {
		b.markrec(r)
	}
	// we also keep nodes with a positive refcount, including pinned ones
	for k := range b.nodes {
		if b.nodes[k].low != -1 && b.nodes[k].refcou > 0 {
			b.markrec(k)
		}
	}
	b.freepos = 0
	b.freenum = 0
	freed := 0
	for n := len(b.nodes) - 1; n > 1; n-- {
		if b.nodes[n].low != -1 && b.ismarked(n) {
			b.unmarknode(n)
			continue
		}
		if b.nodes[n].low != -1 {
			delete(b.unique, nodeKey{b.level(n), b.nodes[n].low, b.nodes[n].high})
			freed++
		}
		b.nodes[n] = bddNode{low: -1, high: b.freepos}
		b.freepos = n
		b.freenum++
	}
	b.reclaimed += freed
	b.history = append(b.history, gcpoint{nodes: len(b.nodes), freenodes: b.freenum})
	b.cachereset()
	b.log.WithFields(logrus.Fields{
		"nodes":     len(b.nodes),
		"free":      b.freenum,
		"reclaimed": freed,
	}).Debug("bdd garbage collection")
}

func (b *BDD) noderesize() error {
	oldsize := len(b.nodes)
	nodesize := oldsize
	if (oldsize >= b.maxnodesize) && (b.maxnodesize > 0) {
		return ErrMemory
	}
	if oldsize > (math.MaxInt32 >> 1) {
		nodesize = math.MaxInt32 - 1
	} else {
		nodesize = nodesize << 1
	}
	if b.maxnodeincrease > 0 && nodesize > (oldsize+b.maxnodeincrease) {
		nodesize = oldsize + b.maxnodeincrease
	}
	if (nodesize > b.maxnodesize) && (b.maxnodesize > 0) {
		nodesize = b.maxnodesize
	}
	if nodesize <= oldsize {
		return ErrMemory
	}
	tmp := b.nodes
	b.nodes = make([]bddNode, nodesize)
	copy(b.nodes, tmp)
	for n := oldsize; n < nodesize; n++ {
		b.nodes[n] = bddNode{low: -1, high: n + 1}
	}
	b.nodes[nodesize-1].high = b.freepos
	b.freepos = oldsize
	b.freenum += nodesize - oldsize
	b.cacheresize()
	b.log.WithFields(logrus.Fields{
		"from": oldsize,
		"to":   nodesize,
	}).Debug("bdd resize")
	return nil
}

// ************************************************************

func (b *BDD) ismarked(n int) bool {
	return (b.nodes[n].level & 0x200000) != 0
}

func (b *BDD) marknode(n int) {
	b.nodes[n].level |= 0x200000
}

func (b *BDD) unmarknode(n int) {
	b.nodes[n].level &= _MAXVAR
}

func (b *BDD) markrec(n int) {
	if n < 2 || b.ismarked(n) || (b.nodes[n].low == -1) {
		return
	}
	b.marknode(n)
	b.markrec(b.nodes[n].low)
	b.markrec(b.nodes[n].high)
}

// markcount marks the nodes reachable from n and returns how many were not
// already marked.
func (b *BDD) markcount(n int) int {
	if n < 2 || b.ismarked(n) || (b.nodes[n].low == -1) {
		return 0
	}
	b.marknode(n)
	return 1 + b.markcount(b.nodes[n].low) + b.markcount(b.nodes[n].high)
}

func (b *BDD) unmarkall() {
	for k := range b.nodes {
		if k > 1 && b.nodes[k].low != -1 {
			b.unmarknode(k)
		}
	}
}

// ************************************************************

// AddRef increases the reference count on node n and returns n so that calls
// can be chained together. Results of operations are not referenced: a node
// kept across calls to the BDD must be referenced, otherwise it may be
// reclaimed during garbage collection. AddRef on a constant, a variable or a
// node that is not live has no effect.
func (b *BDD) AddRef(n Node) Node {
	if n < 2 || int(n) >= len(b.nodes) || b.nodes[n].low == -1 {
		return n
	}
	if b.nodes[n].refcou < _MAXREFCOUNT {
		b.nodes[n].refcou++
	}
	return n
}

// DelRef decreases the reference count on node n and returns n. Releasing a
// node with no outstanding reference sets the error status of the BDD.
func (b *BDD) DelRef(n Node) Node {
	if n < 2 || int(n) >= len(b.nodes) || b.nodes[n].low == -1 {
		return n
	}
	switch c := b.nodes[n].refcou; {
	case c == _MAXREFCOUNT:
	case c <= 0:
		b.seterror(ErrRef, "node %d released with no outstanding reference", n)
	default:
		b.nodes[n].refcou--
	}
	return n
}

// ************************************************************
// private functions to manipulate the refstack; used to prevent nodes that are
// currently being built (e.g. transient nodes built during an apply) to be
// reclaimed during GC.

func (b *BDD) initref() {
	b.refstack = b.refstack[:0]
}

func (b *BDD) pushref(n int) int {
	b.refstack = append(b.refstack, n)
	return n
}

func (b *BDD) popref(a int) {
	b.refstack = b.refstack[:len(b.refstack)-a]
}
