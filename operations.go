// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import "github.com/nddlab/ndd/bdd"

// And returns the conjunction of a and b.
func (e *Engine) And(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("And", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	return e.and(a, b)
}

// Or returns the disjunction of a and b.
func (e *Engine) Or(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Or", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	return e.or(a, b)
}

// Not returns the negation of a.
func (e *Engine) Not(a Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Not", a) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	return e.not(a)
}

// Diff returns the conjunction of a and the negation of b.
func (e *Engine) Diff(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Diff", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	nb := e.not(b)
	if nb < 0 {
		return nb
	}
	return e.and(a, nb)
}

// Imp returns the implication a => b, that is the disjunction of the negation
// of a and b.
func (e *Engine) Imp(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Imp", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	na := e.not(a)
	if na < 0 {
		return na
	}
	return e.or(na, b)
}

// Exist returns the existential quantification of a over all the bits of
// field f.
func (e *Engine) Exist(a Node, f int) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Exist", a) {
		return nddnil
	}
	if f < 0 || f >= len(e.fields) {
		return e.seterror(ErrField, "unknown field (%d) in call to Exist", f)
	}
	e.initref()
	e.pushref(a)
	return e.exist(a, int32(f), make(map[Node]Node))
}

// AndTo returns the conjunction of a and b. The result is protected and one
// protection of a is released, which is convenient for accumulating a
// conjunction in a loop. The node a must be protected.
func (e *Engine) AndTo(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("AndTo", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	return e.accumulate(a, e.and(a, b))
}

// OrTo is the same as AndTo but for the disjunction.
func (e *Engine) OrTo(a, b Node) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("OrTo", a, b) {
		return nddnil
	}
	e.initref()
	e.pushref(a)
	e.pushref(b)
	return e.accumulate(a, e.or(a, b))
}

func (e *Engine) accumulate(a, res Node) Node {
	if res < 0 {
		return res
	}
	e.incref(res)
	if err := e.unprotect(a); err != nil {
		return nddnil
	}
	return res
}

// ************************************************************

// addEdge adds the edge (next, label) to edges, merging labels with a
// disjunction when next is already a descendant. The reference on label is
// consumed; edges to False and False labels are dropped.
func (e *Engine) addEdge(edges []edge, next Node, label bdd.Node) []edge {
	if next == False || label == flatFalse {
		e.flat.DelRef(label)
		return edges
	}
	for k := range edges {
		if edges[k].next == next {
			merged := e.flat.AddRef(e.flat.Apply(edges[k].label, label, bdd.OPor))
			e.flat.DelRef(edges[k].label)
			e.flat.DelRef(label)
			edges[k].label = merged
			return edges
		}
	}
	return append(edges, edge{next: next, label: label})
}

// subtract returns the referenced label r and not l, releasing r.
func (e *Engine) subtract(r, l bdd.Node) bdd.Node {
	res := e.flat.AddRef(e.flat.Apply(r, l, bdd.OPdiff))
	e.flat.DelRef(r)
	return res
}

// intersect returns the referenced conjunction of two labels.
func (e *Engine) intersect(l1, l2 bdd.Node) bdd.Node {
	return e.flat.AddRef(e.flat.Apply(l1, l2, bdd.OPand))
}

// release drops the references held by a partial list of edges.
func (e *Engine) release(edges []edge) {
	for _, ed := range edges {
		e.flat.DelRef(ed.label)
	}
}

// build finishes a recursive operation: it checks the flat engine, makes the
// node, protects it until the end of the operation and caches it.
func (e *Engine) build(op string, field int32, edges []edge, c *opcache, a, b Node) Node {
	if e.flat.Errored() {
		e.release(edges)
		return e.flaterror(op)
	}
	res := e.pushref(e.mk(field, edges))
	c.store(a, b, res)
	return res
}

// ************************************************************

func (e *Engine) and(a, b Node) Node {
	switch {
	case a == False || b == True:
		return a
	case a == True || b == False || a == b:
		return b
	}
	if a > b {
		a, b = b, a
	}
	if res, ok := e.andcache.lookup(a, b); ok {
		return e.pushref(res)
	}
	x, y := a, b
	if e.nodes[x].field > e.nodes[y].field {
		x, y = y, x
	}
	fx := e.nodes[x].field
	var edges []edge
	if fx == e.nodes[y].field {
		for _, ex := range e.nodes[x].edges {
			for _, ey := range e.nodes[y].edges {
				label := e.intersect(ex.label, ey.label)
				if label == flatFalse {
					continue
				}
				sub := e.and(ex.next, ey.next)
				if sub < 0 {
					e.flat.DelRef(label)
					e.release(edges)
					return sub
				}
				edges = e.addEdge(edges, sub, label)
			}
		}
	} else {
		// y is below x: it is a descendant on every path of x
		for _, ex := range e.nodes[x].edges {
			sub := e.and(ex.next, y)
			if sub < 0 {
				e.release(edges)
				return sub
			}
			edges = e.addEdge(edges, sub, e.flat.AddRef(ex.label))
		}
	}
	return e.build("and", fx, edges, e.andcache, a, b)
}

func (e *Engine) or(a, b Node) Node {
	switch {
	case a == True || b == False:
		return a
	case a == False || b == True || a == b:
		return b
	}
	if a > b {
		a, b = b, a
	}
	if res, ok := e.orcache.lookup(a, b); ok {
		return e.pushref(res)
	}
	x, y := a, b
	if e.nodes[x].field > e.nodes[y].field {
		x, y = y, x
	}
	fx := e.nodes[x].field
	var edges []edge
	if fx == e.nodes[y].field {
		ex, ey := e.nodes[x].edges, e.nodes[y].edges
		// residuals are the parts of each label not covered by an intersection
		rx := make([]bdd.Node, len(ex))
		for i := range ex {
			rx[i] = e.flat.AddRef(ex[i].label)
		}
		ry := make([]bdd.Node, len(ey))
		for j := range ey {
			ry[j] = e.flat.AddRef(ey[j].label)
		}
		for i := range ex {
			for j := range ey {
				label := e.intersect(ex[i].label, ey[j].label)
				if label == flatFalse {
					continue
				}
				rx[i] = e.subtract(rx[i], label)
				ry[j] = e.subtract(ry[j], label)
				sub := e.or(ex[i].next, ey[j].next)
				if sub < 0 {
					e.flat.DelRef(label)
					e.release(edges)
					return sub
				}
				edges = e.addEdge(edges, sub, label)
			}
		}
		for i := range ex {
			edges = e.addEdge(edges, ex[i].next, rx[i])
		}
		for j := range ey {
			edges = e.addEdge(edges, ey[j].next, ry[j])
		}
	} else {
		residual := flatTrue
		for _, ex := range e.nodes[x].edges {
			residual = e.subtract(residual, ex.label)
			sub := e.or(ex.next, y)
			if sub < 0 {
				e.release(edges)
				return sub
			}
			edges = e.addEdge(edges, sub, e.flat.AddRef(ex.label))
		}
		edges = e.addEdge(edges, y, residual)
	}
	return e.build("or", fx, edges, e.orcache, a, b)
}

func (e *Engine) not(a Node) Node {
	switch a {
	case False:
		return True
	case True:
		return False
	}
	if res, ok := e.notcache.lookup(a, False); ok {
		return e.pushref(res)
	}
	var edges []edge
	residual := flatTrue
	for _, ea := range e.nodes[a].edges {
		residual = e.subtract(residual, ea.label)
		sub := e.not(ea.next)
		if sub < 0 {
			e.release(edges)
			return sub
		}
		edges = e.addEdge(edges, sub, e.flat.AddRef(ea.label))
	}
	edges = e.addEdge(edges, True, residual)
	return e.build("not", e.nodes[a].field, edges, e.notcache, a, False)
}

// exist removes field f from a. Results are memoized for the duration of one
// call only.
func (e *Engine) exist(a Node, f int32, memo map[Node]Node) Node {
	if a < 2 || e.nodes[a].field > f {
		return a
	}
	if res, ok := memo[a]; ok {
		return res
	}
	fa := e.nodes[a].field
	var res Node
	if fa == f {
		res = False
		for _, ea := range e.nodes[a].edges {
			if res = e.or(res, ea.next); res < 0 {
				return res
			}
		}
	} else {
		var edges []edge
		for _, ea := range e.nodes[a].edges {
			sub := e.exist(ea.next, f, memo)
			if sub < 0 {
				e.release(edges)
				return sub
			}
			edges = e.addEdge(edges, sub, e.flat.AddRef(ea.label))
		}
		if e.flat.Errored() {
			e.release(edges)
			return e.flaterror("exist")
		}
		res = e.mk(fa, edges)
	}
	memo[a] = e.pushref(res)
	return res
}
