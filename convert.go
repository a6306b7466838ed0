// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"math/big"

	"github.com/nddlab/ndd/bdd"
	"github.com/pkg/errors"
)

// FieldPredicate is a flat predicate over the bits of one field.
type FieldPredicate struct {
	Field int
	Label bdd.Node
}

// ToFlat returns the flat BDD of the function denoted by n, over all the
// declared bits. Like the results of the flat engine, the result is not
// referenced. It is a negative node if there is an error.
func (e *Engine) ToFlat(n Node) bdd.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("ToFlat", n) {
		return -1
	}
	return e.flat.DelRef(e.toflat(n))
}

// toflat returns the referenced flat BDD of n. Results of sub-diagrams are
// shared during the call but never across calls.
func (e *Engine) toflat(n Node) bdd.Node {
	memo := make(map[Node]bdd.Node)
	res := e.flat.AddRef(e.toflatrec(n, memo))
	for _, v := range memo {
		e.flat.DelRef(v)
	}
	if e.flat.Errored() {
		e.flaterror("toflat")
		return -1
	}
	return res
}

func (e *Engine) toflatrec(n Node, memo map[Node]bdd.Node) bdd.Node {
	switch n {
	case False:
		return flatFalse
	case True:
		return flatTrue
	}
	if res, ok := memo[n]; ok {
		return res
	}
	res := flatFalse
	for _, ed := range e.nodes[n].edges {
		child := e.toflatrec(ed.next, memo)
		conj := e.flat.AddRef(e.flat.Apply(child, ed.label, bdd.OPand))
		tmp := e.flat.AddRef(e.flat.Apply(res, conj, bdd.OPor))
		e.flat.DelRef(res)
		e.flat.DelRef(conj)
		res = tmp
	}
	memo[n] = res
	return res
}

// SatCount returns the number of assignments of all the declared bits that
// satisfy n. It is computed on the flat BDD of n.
func (e *Engine) SatCount(n Node) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("SatCount", n) {
		return big.NewInt(0)
	}
	f := e.toflat(n)
	if f < 0 {
		return big.NewInt(0)
	}
	defer e.flat.DelRef(f)
	return e.flat.Satcount(f)
}

// SatCountFields returns the same value as SatCount but computes it directly
// on the diagram: the count of a node is the sum, over its edges, of the
// number of solutions of the label in its field times the count of the
// descendant, scaled by the number of bits of the skipped fields.
func (e *Engine) SatCountFields(n Node) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("SatCountFields", n) {
		return big.NewInt(0)
	}
	res := e.satcount(n, make(map[Node]*big.Int))
	return res.Lsh(res, uint(e.offset(e.fieldIndex(n))))
}

// fieldIndex returns the field of n, with terminals after the last field.
func (e *Engine) fieldIndex(n Node) int {
	if n < 2 {
		return len(e.fields)
	}
	return int(e.nodes[n].field)
}

// satcount returns the number of assignments of the bits of the fields from
// the field of n to the last one that satisfy n.
func (e *Engine) satcount(n Node, memo map[Node]*big.Int) *big.Int {
	switch n {
	case False:
		return big.NewInt(0)
	case True:
		return big.NewInt(1)
	}
	if res, ok := memo[n]; ok {
		return new(big.Int).Set(res)
	}
	f := int(e.nodes[n].field)
	// labels only depend on the bits of field f
	others := uint(e.flat.Varnum() - e.fields[f].bits)
	res := big.NewInt(0)
	for _, ed := range e.nodes[n].edges {
		c := e.flat.Satcount(ed.label)
		c.Rsh(c, others)
		c.Mul(c, e.satcount(ed.next, memo))
		c.Lsh(c, uint(e.offset(e.fieldIndex(ed.next))-e.offset(f+1)))
		res.Add(res, c)
	}
	memo[n] = res
	return new(big.Int).Set(res)
}

// ************************************************************

// Encode returns the single field diagram where label, a flat predicate over
// the bits of field f, leads to True.
func (e *Engine) Encode(label bdd.Node, f int) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error != nil {
		return nddnil
	}
	if err := e.checklabel(label, f); err != nil {
		return e.seterror(err, "wrong predicate in call to Encode")
	}
	e.initref()
	if label == flatFalse {
		return False
	}
	return e.mk(int32(f), []edge{{next: True, label: e.flat.AddRef(label)}})
}

// EncodePrefix returns the diagram of the function "the leading bits of field
// f are equal to prefix", where each element of prefix is 0 or 1. An empty
// prefix gives True.
func (e *Engine) EncodePrefix(prefix []int, f int) Node {
	return e.EncodePrefixes([][]int{prefix}, f)
}

// EncodePrefixes returns the disjunction of the prefixes encoded as in
// EncodePrefix, all over the same field.
func (e *Engine) EncodePrefixes(prefixes [][]int, f int) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error != nil {
		return nddnil
	}
	if f < 0 || f >= len(e.fields) {
		return e.seterror(ErrField, "unknown field (%d) in call to EncodePrefix", f)
	}
	label := flatFalse
	for _, prefix := range prefixes {
		if len(prefix) > e.fields[f].bits {
			e.flat.DelRef(label)
			return e.seterror(ErrField, "prefix of length %d in field %d of %d bits", len(prefix), f, e.fields[f].bits)
		}
		cube := flatTrue
		for k := len(prefix) - 1; k >= 0; k-- {
			var lit bdd.Node
			switch prefix[k] {
			case 0:
				lit = e.flat.NIthvar(e.fields[f].first + k)
			case 1:
				lit = e.flat.Ithvar(e.fields[f].first + k)
			default:
				e.flat.DelRef(cube)
				e.flat.DelRef(label)
				return e.seterror(ErrField, "bad bit value (%d) in prefix", prefix[k])
			}
			tmp := e.flat.AddRef(e.flat.Apply(cube, lit, bdd.OPand))
			e.flat.DelRef(cube)
			cube = tmp
		}
		tmp := e.flat.AddRef(e.flat.Apply(label, cube, bdd.OPor))
		e.flat.DelRef(label)
		e.flat.DelRef(cube)
		label = tmp
	}
	if e.flat.Errored() {
		return e.flaterror("EncodePrefix")
	}
	e.initref()
	if label == flatFalse {
		return False
	}
	return e.mk(int32(f), []edge{{next: True, label: label}})
}

// EncodeACL returns the conjunction of a list of predicates over distinct
// fields, given in ascending order of fields, as a chain of single edge
// nodes. True predicates are skipped.
func (e *Engine) EncodeACL(preds []FieldPredicate) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error != nil {
		return nddnil
	}
	for k, p := range preds {
		if err := e.checklabel(p.Label, p.Field); err != nil {
			return e.seterror(err, "wrong predicate %d in call to EncodeACL", k)
		}
		if k > 0 && p.Field <= preds[k-1].Field {
			return e.seterror(ErrField, "fields not in ascending order in call to EncodeACL (%d after %d)", p.Field, preds[k-1].Field)
		}
		if p.Label == flatFalse {
			return False
		}
	}
	e.initref()
	res := True
	for k := len(preds) - 1; k >= 0; k-- {
		if preds[k].Label == flatTrue {
			continue
		}
		res = e.pushref(e.mk(int32(preds[k].Field), []edge{{next: res, label: e.flat.AddRef(preds[k].Label)}}))
	}
	return res
}

// checklabel returns an error if label is not a flat predicate over the bits
// of field f.
func (e *Engine) checklabel(label bdd.Node, f int) error {
	if f < 0 || f >= len(e.fields) {
		return errors.Wrapf(ErrField, "unknown field (%d)", f)
	}
	lo, hi := e.fields[f].first, e.fields[f].first+e.fields[f].bits
	visited := make(map[bdd.Node]bool)
	var walk func(n bdd.Node) error
	walk = func(n bdd.Node) error {
		if n == flatFalse || n == flatTrue || visited[n] {
			return nil
		}
		visited[n] = true
		level := e.flat.Label(n)
		if level < 0 {
			return errors.Wrapf(ErrNode, "flat node %d", n)
		}
		if level < lo || level >= hi {
			return errors.Wrapf(ErrField, "variable %d outside of field %d", level, f)
		}
		if err := walk(e.flat.Low(n)); err != nil {
			return err
		}
		return walk(e.flat.High(n))
	}
	return walk(label)
}

// ************************************************************

// Paths iterates through the paths from n to True and calls f on each of
// them. We pass a slice with one label per field: the label of the edge taken
// in this field, or the flat True for the fields skipped by the path. We stop
// and return an error if f returns an error at some point.
func (e *Engine) Paths(n Node, f func(labels []bdd.Node) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Paths", n) {
		return e.error
	}
	labels := make([]bdd.Node, len(e.fields))
	for k := range labels {
		labels[k] = flatTrue
	}
	return e.paths(n, labels, f)
}

func (e *Engine) paths(n Node, labels []bdd.Node, f func([]bdd.Node) error) error {
	switch n {
	case False:
		return nil
	case True:
		return f(labels)
	}
	fn := e.nodes[n].field
	for _, ed := range e.nodes[n].edges {
		labels[fn] = ed.label
		if err := e.paths(ed.next, labels, f); err != nil {
			return err
		}
	}
	labels[fn] = flatTrue
	return nil
}

// Eval returns the value of n on an assignment of all the declared bits,
// where assignment[i] is the value of the flat variable at level i.
func (e *Engine) Eval(n Node, assignment []bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.check("Eval", n) {
		return false
	}
	for n > 1 {
		next := False
		for _, ed := range e.nodes[n].edges {
			if e.flat.Eval(ed.label, assignment) {
				next = ed.next
				break
			}
		}
		n = next
	}
	return n == True
}
