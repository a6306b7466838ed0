// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/nddlab/ndd/bdd"
)

// Stats is a snapshot of the state of an engine.
type Stats struct {
	Fields     int // number of declared fields
	Bits       int // total number of bits
	Nodes      int // live non-terminal nodes
	Capacity   int // current capacity of the node table
	Produced   int // total number of nodes ever produced
	Reclaims   int // number of reclamations
	Reclaimed  int // total number of nodes freed by reclamations
	UniqueHit  int // lookups that found an existing node
	UniqueMiss int // lookups that created a node
	CacheHit   int // entries found in the operation caches
	CacheMiss  int // entries not found in the operation caches
	Flat       bdd.Stats
}

// Stats returns information about the engine and its flat engine.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{
		Fields:     len(e.fields),
		Bits:       e.flat.Varnum(),
		Nodes:      e.size,
		Capacity:   e.capacity,
		Produced:   e.produced,
		Reclaims:   len(e.history),
		Reclaimed:  e.reclaimed,
		UniqueHit:  e.uniqueHit,
		UniqueMiss: e.uniqueMiss,
		Flat:       e.flat.Stats(),
	}
	for _, c := range []*opcache{e.andcache, e.orcache, e.notcache} {
		s.CacheHit += c.hit
		s.CacheMiss += c.miss
	}
	return s
}

func (s Stats) String() string {
	res := fmt.Sprintf("Fields:     %d (%d bits)\n", s.Fields, s.Bits)
	res += fmt.Sprintf("Nodes:      %d\n", s.Nodes)
	res += fmt.Sprintf("Capacity:   %d\n", s.Capacity)
	res += fmt.Sprintf("Produced:   %d\n", s.Produced)
	res += "==============\n"
	res += fmt.Sprintf("# of GC:    %d\n", s.Reclaims)
	res += fmt.Sprintf("Reclaimed:  %d\n", s.Reclaimed)
	res += "==============\n"
	res += fmt.Sprintf("Unique Hit:     %d\n", s.UniqueHit)
	res += fmt.Sprintf("Unique Miss:    %d\n", s.UniqueMiss)
	res += fmt.Sprintf("Operator Hits:  %d\n", s.CacheHit)
	res += fmt.Sprintf("Operator Miss:  %d\n", s.CacheMiss)
	res += "==============\n"
	res += s.Flat.String()
	return res
}

// Print writes a textual representation of the nodes reachable from n, one
// line per edge, with the field of the node, the descendant and the number of
// flat nodes of the label.
func (e *Engine) Print(w io.Writer, n Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Print", n) {
		return e.error
	}
	if n < 2 {
		_, err := fmt.Fprintln(w, n == True)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, k := range e.reachable(n) {
		for _, ed := range e.nodes[k].edges {
			fmt.Fprintf(tw, "[%d\t] field %d\t-> %d\t: label %d\t(%d nodes)\n",
				k, e.nodes[k].field, ed.next, ed.label, e.flat.Nodecount(ed.label))
		}
	}
	return tw.Flush()
}

// PrintDot writes a graph-like description of the diagram with root n using
// the DOT format. Arcs are labelled with the flat node of their label, which
// can be displayed with the PrintDot method of the flat engine.
func (e *Engine) PrintDot(w io.Writer, n Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("PrintDot", n) {
		return e.error
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph G {")
	if n == False {
		fmt.Fprintln(bw, `0 [shape=box, label="0", style=filled, height=0.3, width=0.3];`)
	} else {
		fmt.Fprintln(bw, `1 [shape=box, label="1", style=filled, height=0.3, width=0.3];`)
	}
	for _, k := range e.reachable(n) {
		fmt.Fprintf(bw, "%d [label=\"f%d\"];\n", k, e.nodes[k].field)
		for _, ed := range e.nodes[k].edges {
			fmt.Fprintf(bw, "%d -> %d [label=\"%d\"];\n", k, ed.next, ed.label)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// reachable returns the sorted list of the non-terminal nodes reachable from n.
func (e *Engine) reachable(n Node) []Node {
	reached := map[Node]bool{}
	var visit func(Node)
	visit = func(k Node) {
		if k < 2 || reached[k] {
			return
		}
		reached[k] = true
		for _, ed := range e.nodes[k].edges {
			visit(ed.next)
		}
	}
	visit(n)
	nodes := make([]Node, 0, len(reached))
	for k := range reached {
		nodes = append(nodes, k)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}
