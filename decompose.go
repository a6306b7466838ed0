// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import "github.com/nddlab/ndd/bdd"

// FromFlat returns the diagram of the function denoted by the flat BDD f,
// which may be any function over the declared bits.
//
// We first look for the boundary points of f: the root and every node reached
// by crossing from one field into a later one. For each boundary point, a
// depth-first search inside its field gives its successors, the boundary
// points (or True) met at the first crossing. The label of the edge from a
// point to a successor is obtained by a Shannon expansion of the point over
// the bits of its field, with True at the successor and False at every other
// crossing. Points are then converted bottom-up, from the last field to the
// first, so that successors are always converted before their predecessors.
func (e *Engine) FromFlat(f bdd.Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error != nil {
		return nddnil
	}
	if f < 0 || (!e.flat.IsConst(f) && e.flat.Label(f) < 0) {
		return e.seterror(ErrNode, "wrong flat operand (%d) in call to FromFlat", f)
	}
	e.initref()
	return e.decompose(f)
}

// decomposer holds the state of one call to FromFlat.
type decomposer struct {
	*Engine
	points [][]bdd.Node            // boundary points of each field
	succ   map[bdd.Node][]bdd.Node // successors of each boundary point
	conv   map[bdd.Node]Node       // converted boundary points
}

func (e *Engine) decompose(f bdd.Node) Node {
	switch f {
	case flatFalse:
		return False
	case flatTrue:
		return True
	}
	e.flat.AddRef(f)
	defer e.flat.DelRef(f)
	d := &decomposer{
		Engine: e,
		points: make([][]bdd.Node, len(e.fields)),
		succ:   make(map[bdd.Node][]bdd.Node),
		conv:   map[bdd.Node]Node{flatTrue: True},
	}
	start := e.flatField(f)
	d.points[start] = []bdd.Node{f}
	seen := map[bdd.Node]bool{f: true}
	// points of a field are all found before we scan it, since crossings
	// always lead to a later field
	for fld := start; fld < len(e.fields); fld++ {
		for _, p := range d.points[fld] {
			d.boundary(p, p, fld, make(map[bdd.Node]bool), seen)
		}
	}
	last := len(e.fields) - 1
	for fld := last; fld >= start; fld-- {
		for _, p := range d.points[fld] {
			var edges []edge
			if fld == last {
				// the only successor of a point of the last field is True
				edges = []edge{{next: True, label: e.flat.AddRef(p)}}
			} else {
				for _, to := range d.succ[p] {
					edges = e.addEdge(edges, d.conv[to], d.label(p, to, fld))
				}
			}
			if e.flat.Errored() {
				e.release(edges)
				return e.flaterror("FromFlat")
			}
			d.conv[p] = e.pushref(e.mk(int32(fld), edges))
		}
	}
	return d.conv[f]
}

// boundary records the successors of the boundary point from, by a depth-first
// search of the nodes of field fld reachable from cur.
func (d *decomposer) boundary(from, cur bdd.Node, fld int, visited, seen map[bdd.Node]bool) {
	if cur == flatFalse || visited[cur] {
		return
	}
	visited[cur] = true
	if nf := d.flatField(cur); nf != fld {
		d.succ[from] = append(d.succ[from], cur)
		if cur != flatTrue && !seen[cur] {
			seen[cur] = true
			d.points[nf] = append(d.points[nf], cur)
		}
		return
	}
	d.boundary(from, d.flat.High(cur), fld, visited, seen)
	d.boundary(from, d.flat.Low(cur), fld, visited, seen)
}

// label returns the referenced flat predicate, over the bits of field fld,
// of the assignments leading from the boundary point from to the successor to.
func (d *decomposer) label(from, to bdd.Node, fld int) bdd.Node {
	memo := make(map[bdd.Node]bdd.Node)
	res := d.flat.AddRef(d.restrict(to, from, fld, memo))
	for _, v := range memo {
		d.flat.DelRef(v)
	}
	return res
}

func (d *decomposer) restrict(to, cur bdd.Node, fld int, memo map[bdd.Node]bdd.Node) bdd.Node {
	if d.flatField(cur) != fld {
		if cur == to {
			return flatTrue
		}
		return flatFalse
	}
	if res, ok := memo[cur]; ok {
		return res
	}
	high := d.flat.AddRef(d.restrict(to, d.flat.High(cur), fld, memo))
	low := d.flat.AddRef(d.restrict(to, d.flat.Low(cur), fld, memo))
	res := d.flat.AddRef(d.flat.Ite(d.flat.Ithvar(d.flat.Label(cur)), high, low))
	d.flat.DelRef(high)
	d.flat.DelRef(low)
	memo[cur] = res
	return res
}
