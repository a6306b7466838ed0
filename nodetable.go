// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/nddlab/ndd/bdd"
	"github.com/sirupsen/logrus"
)

// _PINNED is the sentinel reference count of nodes that are never reclaimed,
// such as the field variables.
const _PINNED int32 = math.MaxInt32

// edge is an outgoing edge of a node: the flat predicate label, over the bits
// of the field of the node, leads to the descendant next.
type edge struct {
	next  Node
	label bdd.Node
}

type nddNode struct {
	field  int32  // field decided by the node, freeField for an unused slot
	refcou int32  // parent edges plus external protections
	edges  []edge // sorted by descendant
}

// table is the store of all the nodes, with one hash-consing map per field.
// The maps are keyed by the encoding of the edge list, so that two nodes of
// the same field with the same edges are always the same node.
type table struct {
	nodes    []nddNode
	unique   []map[string]Node
	free     []Node // unused slots
	size     int    // number of live non-terminal nodes
	capacity int    // size above which we try to reclaim nodes
	produced int    // total number of nodes ever produced
	refstack []Node // nodes protected during the current operation
	kbuf     []byte
	gcstat
	uniqueHit  int
	uniqueMiss int
}

// gcstat stores status information about reclamations.
type gcstat struct {
	reclaimed int       // total number of nodes freed
	history   []gcpoint // snapshot at each reclamation
}

type gcpoint struct {
	live     int // live nodes after the reclamation
	freed    int // nodes freed by the reclamation
	capacity int // capacity after the reclamation
}

func (e *Engine) tableinit(capacity int) {
	e.nodes = make([]nddNode, 2, capacity+2)
	e.nodes[False] = nddNode{field: terminalField, refcou: _PINNED}
	e.nodes[True] = nddNode{field: terminalField, refcou: _PINNED}
	e.capacity = capacity
}

// key returns the encoding of a sorted edge list. The result is only valid
// until the next call to key.
func (e *Engine) key(edges []edge) []byte {
	e.kbuf = e.kbuf[:0]
	for _, ed := range edges {
		e.kbuf = binary.LittleEndian.AppendUint32(e.kbuf, uint32(ed.next))
		e.kbuf = binary.LittleEndian.AppendUint32(e.kbuf, uint32(ed.label))
	}
	return e.kbuf
}

// mk returns the unique node of the given field with the given edges. The
// labels of edges are consumed: their references are either transferred to
// the new node or released. Edges must not lead to False, have False labels
// or share descendants.
func (e *Engine) mk(field int32, edges []edge) Node {
	switch len(edges) {
	case 0:
		return False
	case 1:
		if edges[0].label == flatTrue {
			return edges[0].next
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].next < edges[j].next })
	if res, ok := e.unique[field][string(e.key(edges))]; ok {
		e.uniqueHit++
		for _, ed := range edges {
			e.flat.DelRef(ed.label)
		}
		return res
	}
	e.uniqueMiss++
	for _, ed := range edges {
		e.incref(ed.next)
	}
	if e.size >= e.capacity {
		e.reclaim()
	}
	var res Node
	if k := len(e.free); k > 0 {
		res = e.free[k-1]
		e.free = e.free[:k-1]
	} else {
		res = Node(len(e.nodes))
		e.nodes = append(e.nodes, nddNode{})
	}
	e.nodes[res] = nddNode{field: field, edges: edges}
	e.unique[field][string(e.key(edges))] = res
	e.size++
	e.produced++
	return res
}

func (e *Engine) incref(n Node) {
	if n > 1 && e.nodes[n].refcou != _PINNED {
		e.nodes[n].refcou++
	}
}

// decref decrements the count of n and returns true if it drops to zero.
func (e *Engine) decref(n Node) bool {
	if n < 2 || e.nodes[n].refcou == _PINNED {
		return false
	}
	e.nodes[n].refcou--
	return e.nodes[n].refcou == 0
}

func (e *Engine) pin(n Node) {
	if n > 1 {
		e.nodes[n].refcou = _PINNED
	}
}

// reclaim frees all the nodes that are not reachable from a protected node, a
// pinned node or a node of the refstack. We first collect the nodes with a
// zero count, then sweep bottom-up: freeing a node decrements its
// descendants, which may in turn be freed. All operation caches are cleared
// since they may refer to freed slots.
func (e *Engine) reclaim() {
	for _, n := range e.refstack {
		e.incref(n)
	}
	var queue []Node
	for k := 2; k < len(e.nodes); k++ {
		if e.nodes[k].field != freeField && e.nodes[k].refcou == 0 {
			queue = append(queue, Node(k))
		}
	}
	freed := 0
	for len(queue) > 0 {
		n := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		nd := e.nodes[n]
		for _, ed := range nd.edges {
			if e.decref(ed.next) {
				queue = append(queue, ed.next)
			}
			e.flat.DelRef(ed.label)
		}
		delete(e.unique[nd.field], string(e.key(nd.edges)))
		e.nodes[n] = nddNode{field: freeField}
		e.free = append(e.free, n)
		e.size--
		freed++
	}
	for _, n := range e.refstack {
		e.decref(n)
	}
	if e.capacity-e.size <= e.capacity/10 {
		e.capacity *= 2
	}
	e.andcache.clear()
	e.orcache.clear()
	e.notcache.clear()
	e.reclaimed += freed
	e.history = append(e.history, gcpoint{live: e.size, freed: freed, capacity: e.capacity})
	e.log.WithFields(logrus.Fields{
		"nodes":     e.size,
		"reclaimed": freed,
		"capacity":  e.capacity,
	}).Debug("ndd reclamation")
}

// ************************************************************

// Protect adds an external reference to n, which will not be reclaimed until
// a matching call to Unprotect. It returns n so that calls can be chained.
// Protecting a terminal or a field variable has no effect.
func (e *Engine) Protect(n Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Protect", n) {
		return nddnil
	}
	e.incref(n)
	return n
}

// Unprotect releases an external reference to n. It is an error to release a
// node that has no outstanding reference.
func (e *Engine) Unprotect(n Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Unprotect", n) {
		return e.error
	}
	return e.unprotect(n)
}

func (e *Engine) unprotect(n Node) error {
	if n < 2 || e.nodes[n].refcou == _PINNED {
		return nil
	}
	if e.nodes[n].refcou <= 0 {
		e.seterror(ErrUnprotect, "node %d", n)
		return e.error
	}
	e.nodes[n].refcou--
	return nil
}

// Reclaim frees all the nodes that are not reachable from a protected node or
// a field variable, and returns the number of nodes freed.
func (e *Engine) Reclaim() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initref()
	before := e.reclaimed
	e.reclaim()
	return e.reclaimed - before
}

// NodeCount returns the number of live non-terminal nodes, over all fields.
func (e *Engine) NodeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := 0
	for _, m := range e.unique {
		res += len(m)
	}
	return res
}

// ************************************************************
// private functions to manipulate the refstack; used to prevent nodes that
// are built during an operation to be reclaimed before it ends. The stack is
// cleared at the start of each exported operation.

func (e *Engine) initref() {
	e.refstack = e.refstack[:0]
}

func (e *Engine) pushref(n Node) Node {
	if n > 1 {
		e.refstack = append(e.refstack, n)
	}
	return n
}
