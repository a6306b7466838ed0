// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Stats is a snapshot of the state of the node table and caches of a BDD.
type Stats struct {
	Varnum    int // number of declared variables
	Allocated int // number of slots in the node table
	Produced  int // total number of nodes ever produced
	Free      int // number of free slots
	GCRuns    int // number of garbage collections
	Reclaimed int // total number of nodes freed by garbage collection
	OpHit     int // entries found in the operator caches
	OpMiss    int // entries not found in the operator caches
}

// Stats returns information about the BDD.
func (b *BDD) Stats() Stats {
	return Stats{
		Varnum:    int(b.varnum),
		Allocated: len(b.nodes),
		Produced:  b.produced,
		Free:      b.freenum,
		GCRuns:    len(b.history),
		Reclaimed: b.reclaimed,
		OpHit:     b.opHit,
		OpMiss:    b.opMiss,
	}
}

func (s Stats) String() string {
	res := fmt.Sprintf("Varnum:     %d\n", s.Varnum)
	res += fmt.Sprintf("Allocated:  %d\n", s.Allocated)
	res += fmt.Sprintf("Produced:   %d\n", s.Produced)
	r := 0.0
	if s.Allocated > 0 {
		r = (float64(s.Free) / float64(s.Allocated)) * 100
	}
	res += fmt.Sprintf("Free:       %d  (%.3g %%)\n", s.Free, r)
	res += fmt.Sprintf("Used:       %d  (%.3g %%)\n", s.Allocated-s.Free, (100.0 - r))
	res += "==============\n"
	res += fmt.Sprintf("# of GC:    %d\n", s.GCRuns)
	res += fmt.Sprintf("Reclaimed:  %d\n", s.Reclaimed)
	res += fmt.Sprintf("Op. hits:   %d\n", s.OpHit)
	res += fmt.Sprintf("Op. miss:   %d", s.OpMiss)
	return res
}

// Print writes a textual representation of the nodes reachable from n, one
// node per line, with its level and the index of its low and high branches.
func (b *BDD) Print(w io.Writer, n Node) error {
	if err := b.checkprint("Print", n); err != nil {
		return err
	}
	if n < 2 {
		_, err := fmt.Fprintln(w, n == 1)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, k := range b.reachable(int(n)) {
		fmt.Fprintf(tw, "[%d\t] %d\t: %d\t %d\n", k, b.level(k), b.low(k), b.high(k))
	}
	return tw.Flush()
}

// PrintDot writes a graph-like description of the BDD with root n using the
// DOT format. We do not draw arcs that go to the constant false.
func (b *BDD) PrintDot(w io.Writer, n Node) error {
	if err := b.checkprint("PrintDot", n); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph G {")
	if n == 0 {
		fmt.Fprintln(bw, `0 [shape=box, label="0", style=filled, height=0.3, width=0.3];`)
	} else {
		fmt.Fprintln(bw, `1 [shape=box, label="1", style=filled, height=0.3, width=0.3];`)
	}
	for _, k := range b.reachable(int(n)) {
		fmt.Fprintf(bw, "%d %s\n", k, dotlabel(k, int(b.level(k))))
		if low := b.low(k); low != 0 {
			fmt.Fprintf(bw, "%d -> %d [style=dotted];\n", k, low)
		}
		if high := b.high(k); high != 0 {
			fmt.Fprintf(bw, "%d -> %d [style=filled];\n", k, high)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func dotlabel(k int, level int) string {
	return fmt.Sprintf(`[label=<
	<FONT POINT-SIZE="20">%d</FONT>
	<FONT POINT-SIZE="10">[%d]</FONT>
>];`, level, k)
}

func (b *BDD) checkprint(op string, n Node) error {
	if b.error != nil {
		return b.error
	}
	if b.checkptr(n) != nil {
		return errors.Wrapf(ErrNode, "wrong node in call to %s (%d)", op, n)
	}
	return nil
}

// reachable returns the sorted list of the non-constant nodes reachable from
// n. Marks are cleared on return.
func (b *BDD) reachable(n int) []int {
	b.markrec(n)
	nodes := []int{}
	for k := range b.nodes {
		if k > 1 && b.nodes[k].low != -1 && b.ismarked(k) {
			b.unmarknode(k)
			nodes = append(nodes, k)
		}
	}
	sort.Ints(nodes)
	return nodes
}
