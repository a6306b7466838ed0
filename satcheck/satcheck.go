// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package satcheck cross-checks decision diagrams with a SAT solver. A flat
// BDD is translated into an and-inverter circuit, with one multiplexer per
// node, which is then given to the gini solver in conjunctive normal form.
// This provides an answer that does not depend on the engines of package bdd
// and ndd, which is useful for testing and for the --verify flag of the
// command line tools.
package satcheck

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/nddlab/ndd"
	"github.com/nddlab/ndd/bdd"
	"github.com/pkg/errors"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// ErrMismatch is the cause of the errors returned when the solver and a
// diagram disagree.
var ErrMismatch = errors.New("solver and diagram disagree")

// circuit is the translation of flat BDD nodes into literals of a circuit.
type circuit struct {
	b    *bdd.BDD
	c    *logic.C
	vars []z.Lit // one input per variable of b
	memo map[bdd.Node]z.Lit
}

func newCircuit(b *bdd.BDD) *circuit {
	c := &circuit{
		b:    b,
		c:    logic.NewCCap(2*b.Varnum() + 2),
		vars: make([]z.Lit, b.Varnum()),
		memo: make(map[bdd.Node]z.Lit),
	}
	for k := range c.vars {
		c.vars[k] = c.c.Lit()
	}
	return c
}

// lit returns the literal of the circuit equivalent to flat node n.
func (c *circuit) lit(n bdd.Node) (z.Lit, error) {
	switch n {
	case c.b.False():
		return c.c.F, nil
	case c.b.True():
		return c.c.T, nil
	}
	if m, ok := c.memo[n]; ok {
		return m, nil
	}
	level := c.b.Label(n)
	if level < 0 || level >= len(c.vars) {
		return z.LitNull, errors.Wrapf(bdd.ErrNode, "flat node %d", n)
	}
	high, err := c.lit(c.b.High(n))
	if err != nil {
		return z.LitNull, err
	}
	low, err := c.lit(c.b.Low(n))
	if err != nil {
		return z.LitNull, err
	}
	m := c.c.Choice(c.vars[level], high, low)
	c.memo[n] = m
	return m, nil
}

// solve adds the circuit and the constraint that root holds to a new solver
// and runs it.
func (c *circuit) solve(root z.Lit) (*gini.Gini, int) {
	g := gini.New()
	c.c.ToCnf(g)
	g.Add(root)
	g.Add(0)
	return g, g.Solve()
}

// model returns the value of every variable in the last model found by g.
// Variables unknown to the solver are set to false.
func (c *circuit) model(g *gini.Gini) []bool {
	res := make([]bool, len(c.vars))
	top := g.MaxVar()
	for k, m := range c.vars {
		if m.Var() <= top {
			res[k] = g.Value(m)
		}
	}
	return res
}

// Witness returns an assignment of the variables of b that satisfies f, and
// false if f is unsatisfiable. The node f must be referenced if b is used
// concurrently.
func Witness(b *bdd.BDD, f bdd.Node) ([]bool, bool, error) {
	c := newCircuit(b)
	root, err := c.lit(f)
	if err != nil {
		return nil, false, err
	}
	g, res := c.solve(root)
	switch res {
	case satisfiable:
		return c.model(g), true, nil
	case unsatisfiable:
		return nil, false, nil
	}
	return nil, false, errors.Errorf("solver returned %d", res)
}

// Equivalent returns true if the flat nodes f and h of b denote the same
// function, that is if f xor h is unsatisfiable.
func Equivalent(b *bdd.BDD, f, h bdd.Node) (bool, error) {
	c := newCircuit(b)
	lf, err := c.lit(f)
	if err != nil {
		return false, err
	}
	lh, err := c.lit(h)
	if err != nil {
		return false, err
	}
	_, res := c.solve(c.c.Xor(lf, lh))
	switch res {
	case satisfiable:
		return false, nil
	case unsatisfiable:
		return true, nil
	}
	return false, errors.Errorf("solver returned %d", res)
}

// Verify checks diagram n of engine e against the solver: n is False exactly
// when its flat translation is unsatisfiable, and the model returned by the
// solver is accepted by the diagram.
func Verify(e *ndd.Engine, n ndd.Node) error {
	b := e.Flat()
	f := b.AddRef(e.ToFlat(n))
	if err := e.Err(); err != nil {
		return errors.Wrap(err, "converting diagram")
	}
	defer b.DelRef(f)
	model, sat, err := Witness(b, f)
	if err != nil {
		return err
	}
	switch {
	case sat && n == ndd.False:
		return errors.Wrap(ErrMismatch, "solver found a model of False")
	case !sat && n != ndd.False:
		return errors.Wrapf(ErrMismatch, "solver found no model of node %d", n)
	case sat && !e.Eval(n, model):
		return errors.Wrapf(ErrMismatch, "model %v rejected by node %d", model, n)
	}
	return nil
}
