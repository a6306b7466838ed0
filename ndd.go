// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"math"
	"sort"
	"sync"

	"github.com/nddlab/ndd/bdd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Node is a reference to a vertex of a nested decision diagram. Nodes are
// indices in the node table of an Engine; False and True are the two terminal
// nodes. A negative value is the result of a failed operation.
type Node int

const (
	// False is the terminal node of the constant function false.
	False Node = 0
	// True is the terminal node of the constant function true.
	True Node = 1

	nddnil Node = -1
)

const (
	flatFalse bdd.Node = 0
	flatTrue  bdd.Node = 1
)

// Sentinel values of the field of a slot. Terminals are ordered after every
// declared field.
const (
	terminalField int32 = math.MaxInt32
	freeField     int32 = -1
)

// field describes a group of consecutive flat variables decided by one level
// of the diagrams.
type field struct {
	bits  int        // number of bits of the field
	first int        // level of the first flat variable of the field
	vars  []Node     // pinned nodes testing each bit of the field
	nvars []Node     // pinned nodes testing the negation of each bit
	lits  []bdd.Node // flat variable of each bit
}

// Engine is a store of nested decision diagrams over a list of fields. It owns
// a flat engine used for the labels of edges. Exported methods are safe for
// concurrent use, but all operations are serialized. This does not extend to
// the flat engine returned by Flat, which must not be used while another
// goroutine calls methods of the Engine.
//
// Nodes returned by operations are not protected: a node kept across
// operations must be protected with Protect (or built with AndTo and OrTo),
// otherwise it may be reclaimed.
type Engine struct {
	mu     sync.Mutex
	flat   *bdd.BDD
	fields []field
	table
	error
	configs
	log      logrus.FieldLogger
	andcache *opcache
	orcache  *opcache
	notcache *opcache
}

// New returns an engine without any field. Options are used to configure the
// size of the node table, the caches and the flat engine.
func New(options ...Option) (*Engine, error) {
	c := makeconfigs()
	for _, f := range options {
		f(c)
	}
	flat, err := bdd.New(0, append([]bdd.Option{bdd.Logger(c.logger)}, c.flat...)...)
	if err != nil {
		return nil, errors.Wrap(err, "creating flat engine")
	}
	e := &Engine{
		flat:     flat,
		configs:  *c,
		log:      c.logger,
		andcache: newOpcache(c.cachesize),
		orcache:  newOpcache(c.cachesize),
		notcache: newOpcache(c.cachesize),
	}
	e.tableinit(c.nodesize)
	return e, nil
}

// DeclareField appends a new field of the given number of bits and returns its
// index. Fields are ordered by declaration, and the flat variables of a field
// come after those of the fields declared before it.
func (e *Engine) DeclareField(bits int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.error != nil {
		return -1, e.error
	}
	if bits <= 0 {
		return -1, errors.Wrapf(ErrField, "bad number of bits (%d) in DeclareField", bits)
	}
	first := e.flat.Varnum()
	if err := e.flat.AddVars(bits); err != nil {
		e.seterror(ErrFlat, "DeclareField: %s", err)
		return -1, e.error
	}
	idx := len(e.fields)
	f := field{bits: bits, first: first}
	e.fields = append(e.fields, f)
	e.unique = append(e.unique, make(map[string]Node))
	e.initref()
	for k := 0; k < bits; k++ {
		lit := e.flat.Ithvar(first + k)
		v := e.mk(int32(idx), []edge{{next: True, label: lit}})
		e.pin(v)
		nv := e.mk(int32(idx), []edge{{next: True, label: e.flat.NIthvar(first + k)}})
		e.pin(nv)
		f.lits = append(f.lits, lit)
		f.vars = append(f.vars, v)
		f.nvars = append(f.nvars, nv)
	}
	e.fields[idx] = f
	if e.error != nil {
		return -1, e.error
	}
	return idx, nil
}

// Fields returns the number of declared fields.
func (e *Engine) Fields() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.fields)
}

// Bits returns the number of bits of field f, or 0 if f is not declared.
func (e *Engine) Bits(f int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f < 0 || f >= len(e.fields) {
		return 0
	}
	return e.fields[f].bits
}

// Var returns the diagram of the function "bit b of field f is true". The
// result is pinned and never reclaimed.
func (e *Engine) Var(f, b int) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.checkbit(f, b) {
		return e.seterror(ErrField, "unknown variable (field %d, bit %d) in call to Var", f, b)
	}
	return e.fields[f].vars[b]
}

// NotVar returns the diagram of the function "bit b of field f is false".
func (e *Engine) NotVar(f, b int) Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.checkbit(f, b) {
		return e.seterror(ErrField, "unknown variable (field %d, bit %d) in call to NotVar", f, b)
	}
	return e.fields[f].nvars[b]
}

// FlatVar returns the flat variable of bit b of field f, or a negative node if
// the bit is not declared.
func (e *Engine) FlatVar(f, b int) bdd.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.checkbit(f, b) {
		e.seterror(ErrField, "unknown variable (field %d, bit %d) in call to FlatVar", f, b)
		return -1
	}
	return e.fields[f].lits[b]
}

// Flat returns the flat engine used for labels. Calls to the flat engine are
// not serialized with those of the Engine.
func (e *Engine) Flat() *bdd.BDD {
	return e.flat
}

// Field returns the field decided by node n, or -1 for the terminals and
// invalid nodes.
func (e *Engine) Field(n Node) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 2 || e.checknode(n) != nil {
		return -1
	}
	return int(e.nodes[n].field)
}

func (e *Engine) checkbit(f, b int) bool {
	return f >= 0 && f < len(e.fields) && b >= 0 && b < e.fields[f].bits
}

// checknode returns an error if n is not a live node of e.
func (e *Engine) checknode(n Node) error {
	switch {
	case n < 0, int(n) >= len(e.nodes):
		return ErrNode
	case e.nodes[n].field == freeField:
		return ErrNode
	}
	return nil
}

// check validates the operands of an exported operation; it returns false,
// after setting the error status, when the engine is errored or an operand is
// not valid.
func (e *Engine) check(op string, n ...Node) bool {
	if e.error != nil {
		return false
	}
	for _, v := range n {
		if e.checknode(v) != nil {
			e.seterror(ErrNode, "wrong operand (%d) in call to %s", v, op)
			return false
		}
	}
	return true
}

// fieldOf returns the field of the flat variable at the given level, or the
// number of fields for the constants.
func (e *Engine) fieldOf(level int) int {
	return sort.Search(len(e.fields), func(i int) bool {
		return e.fields[i].first > level
	}) - 1
}

// flatField returns the field of the variable tested by flat node f, or the
// number of fields when f is a constant.
func (e *Engine) flatField(f bdd.Node) int {
	if e.flat.IsConst(f) {
		return len(e.fields)
	}
	return e.fieldOf(e.flat.Label(f))
}

// offset returns the level of the first flat variable of field f, with
// offset(len(fields)) the total number of bits.
func (e *Engine) offset(f int) int {
	if f >= len(e.fields) {
		return e.flat.Varnum()
	}
	return e.fields[f].first
}
