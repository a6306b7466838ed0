// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"math/big"

	"github.com/pkg/errors"
)

// Not returns the negation of the expression corresponding to node n. It
// negates a BDD by exchanging all references to the zero-terminal with
// references to the one-terminal and vice versa.
func (b *BDD) Not(n Node) Node {
	if b.checkptr(n) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Not (%d)", n)
	}
	b.initref()
	b.pushref(int(n))
	res := b.not(int(n))
	b.popref(1)
	return Node(res)
}

func (b *BDD) not(n int) int {
	switch {
	case n < 0:
		return -1
	case n < 2:
		return 1 - n
	}
	if res := b.matchnot(n); res >= 0 {
		return res
	}
	low := b.pushref(b.not(b.low(n)))
	high := b.not(b.high(n))
	b.popref(1)
	res := b.join(b.level(n), low, high, "not(%d)", n)
	if res < 0 {
		return -1
	}
	return b.setnot(n, res)
}

// join returns the node (level, low, high) built from the results of two
// recursive calls, pushed on the refstack while the node is made. The format
// describes the operation in case of error.
func (b *BDD) join(level int32, low, high int, format string, a ...interface{}) int {
	if low < 0 || high < 0 {
		return -1
	}
	b.pushref(low)
	b.pushref(high)
	res, err := b.makenode(level, low, high)
	b.popref(2)
	if err != nil {
		b.seterror(err, "problem in call to "+format, a...)
		return -1
	}
	return res
}

// cofactors returns the branches of n with respect to the variable at the
// given level, that is n itself twice when n does not test this variable.
func (b *BDD) cofactors(n int, level int32) (int, int) {
	if n < 2 || b.level(n) != level {
		return n, n
	}
	return b.low(n), b.high(n)
}

// Apply performs the basic binary operations, such as AND, OR etc. Left and
// right are the operands and op is one of the following:
//
//	Identifier    Description             Truth table
//
//	OPand         logical and             [0,0,0,1]
//	OPxor         logical xor             [0,1,1,0]
//	OPor          logical or              [0,1,1,1]
//	OPimp         implication             [1,1,0,1]
//	OPbiimp       equivalence             [1,0,0,1]
//	OPdiff        set difference          [0,0,1,0]
func (b *BDD) Apply(left Node, right Node, op Operator) Node {
	if b.checkptr(left) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Apply %s(left: %d, right: ...)", op, left)
	}
	if b.checkptr(right) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Apply %s(left: ..., right: %d)", op, right)
	}
	if op < OPand || op > OPdiff {
		return b.seterror(ErrNode, "unknown operator (%d) in call to Apply", op)
	}
	b.applycache.op = op
	b.initref()
	b.pushref(int(left))
	b.pushref(int(right))
	res := b.apply(int(left), int(right))
	b.popref(2)
	return Node(res)
}

func (b *BDD) apply(left int, right int) int {
	if left < 0 || right < 0 {
		return -1
	}
	switch b.applycache.op {
	case OPand:
		switch {
		case left == right, right == 1:
			return left
		case left == 0 || right == 0:
			return 0
		case left == 1:
			return right
		}
	case OPor:
		switch {
		case left == right, right == 0:
			return left
		case left == 1 || right == 1:
			return 1
		case left == 0:
			return right
		}
	case OPxor:
		switch {
		case left == right:
			return 0
		case left == 0:
			return right
		case right == 0:
			return left
		}
	case OPimp:
		switch {
		case left == 0 || right == 1 || left == right:
			return 1
		case left == 1:
			return right
		}
	case OPbiimp:
		switch {
		case left == right:
			return 1
		case left == 1:
			return right
		case right == 1:
			return left
		}
	case OPdiff:
		switch {
		case left == right || left == 0 || right == 1:
			return 0
		case right == 0:
			return left
		}
	}
	if left < 2 && right < 2 {
		return opres[b.applycache.op][left][right]
	}
	if res := b.matchapply(left, right); res >= 0 {
		return res
	}
	level := b.level(left)
	if rl := b.level(right); rl < level {
		level = rl
	}
	l0, l1 := b.cofactors(left, level)
	r0, r1 := b.cofactors(right, level)
	low := b.pushref(b.apply(l0, r0))
	high := b.apply(l1, r1)
	b.popref(1)
	res := b.join(level, low, high, "apply(%d,%d,%s)", left, right, b.applycache.op)
	if res < 0 {
		return -1
	}
	return b.setapply(left, right, res)
}

// And returns the logical 'and' of a sequence of nodes, True for the empty
// sequence.
func (b *BDD) And(n ...Node) Node {
	return b.fold(OPand, 1, n)
}

// Or returns the logical 'or' of a sequence of nodes, False for the empty
// sequence.
func (b *BDD) Or(n ...Node) Node {
	return b.fold(OPor, 0, n)
}

// Imp returns the logical 'implication' between two BDDs.
func (b *BDD) Imp(n1, n2 Node) Node {
	return b.Apply(n1, n2, OPimp)
}

// Diff returns the conjunction of n1 and the negation of n2.
func (b *BDD) Diff(n1, n2 Node) Node {
	return b.Apply(n1, n2, OPdiff)
}

// Equiv returns the logical 'bi-implication' between two BDDs.
func (b *BDD) Equiv(n1, n2 Node) Node {
	return b.Apply(n1, n2, OPbiimp)
}

// fold applies op over the sequence n. Intermediate results are referenced so
// that they survive the garbage collections triggered by the next operation.
func (b *BDD) fold(op Operator, unit Node, n []Node) Node {
	switch len(n) {
	case 0:
		return unit
	case 1:
		return n[0]
	}
	res := b.AddRef(b.Apply(n[0], n[1], op))
	for _, v := range n[2:] {
		tmp := b.AddRef(b.Apply(res, v, op))
		b.DelRef(res)
		res = tmp
	}
	return b.DelRef(res)
}

// Ite, short for if-then-else operator, computes the BDD for the expression
// [(f /\ g) \/ (not f /\ h)] more efficiently than doing the three operations
// separately.
func (b *BDD) Ite(f, g, h Node) Node {
	if b.checkptr(f) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Ite (f: %d)", f)
	}
	if b.checkptr(g) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Ite (g: %d)", g)
	}
	if b.checkptr(h) != nil {
		return b.seterror(ErrNode, "wrong operand in call to Ite (h: %d)", h)
	}
	b.initref()
	b.pushref(int(f))
	b.pushref(int(g))
	b.pushref(int(h))
	res := b.ite(int(f), int(g), int(h))
	b.popref(3)
	return Node(res)
}

// min3 returns the smallest value between p, q and r.
func min3(p, q, r int32) int32 {
	if p <= q {
		if p <= r {
			return p
		}
		return r
	}
	if q <= r {
		return q
	}
	return r
}

func (b *BDD) ite(f, g, h int) int {
	switch {
	case f < 0 || g < 0 || h < 0:
		return -1
	case f == 1:
		return g
	case f == 0:
		return h
	case g == h:
		return g
	case (g == 1) && (h == 0):
		return f
	case (g == 0) && (h == 1):
		return b.not(f)
	}
	if res := b.matchite(f, g, h); res >= 0 {
		return res
	}
	level := min3(b.level(f), b.level(g), b.level(h))
	f0, f1 := b.cofactors(f, level)
	g0, g1 := b.cofactors(g, level)
	h0, h1 := b.cofactors(h, level)
	low := b.pushref(b.ite(f0, g0, h0))
	high := b.ite(f1, g1, h1)
	b.popref(1)
	res := b.join(level, low, high, "ite(%d,%d,%d)", f, g, h)
	if res < 0 {
		return -1
	}
	return b.setite(f, g, h, res)
}

// ************************************************************

// Satcount computes the number of satisfying variable assignments for the
// function denoted by n, over all the Varnum variables. We return a result
// using arbitrary-precision arithmetic to avoid possible overflows. The result
// is zero (and we set the error flag of b) if there is an error.
func (b *BDD) Satcount(n Node) *big.Int {
	res := big.NewInt(0)
	if b.checkptr(n) != nil {
		b.seterror(ErrNode, "wrong operand in call to Satcount (%d)", n)
		return res
	}
	if n == 0 {
		return res
	}
	// variables above the root are free: 2^level
	res.SetBit(res, int(b.level(int(n))), 1)
	satc := make(map[int]*big.Int)
	return res.Mul(res, b.satcount(int(n), satc))
}

// satcount returns the number of assignments of the variables from the level
// of n to the last one.
func (b *BDD) satcount(n int, satc map[int]*big.Int) *big.Int {
	if n < 2 {
		return big.NewInt(int64(n))
	}
	if res, ok := satc[n]; ok {
		return res
	}
	level := b.level(n)
	res := big.NewInt(0)
	for _, child := range [2]int{b.low(n), b.high(n)} {
		if child == 0 {
			continue
		}
		c := new(big.Int).Lsh(b.satcount(child, satc), uint(b.level(child)-level-1))
		res.Add(res, c)
	}
	satc[n] = res
	return res
}

// Nodecount returns the number of nodes reachable from n, constants excluded.
func (b *BDD) Nodecount(n Node) int {
	if b.checkptr(n) != nil {
		b.seterror(ErrNode, "wrong operand in call to Nodecount (%d)", n)
		return 0
	}
	res := b.markcount(int(n))
	b.unmarkall()
	return res
}

// Eval returns the value of the function n on the given assignment, where
// assignment[i] is the value of the variable at level i. Missing variables are
// considered false.
func (b *BDD) Eval(n Node, assignment []bool) bool {
	if b.checkptr(n) != nil {
		b.seterror(ErrNode, "wrong operand in call to Eval (%d)", n)
		return false
	}
	k := int(n)
	for k > 1 {
		level := int(b.level(k))
		if level < len(assignment) && assignment[level] {
			k = b.high(k)
		} else {
			k = b.low(k)
		}
	}
	return k == 1
}

// Allsat iterates through all legal variable assignments for n and calls the
// function f on each of them. We pass an int slice of length varnum to f where
// each entry is either 0 if the variable is false, 1 if it is true, and -1 if
// it is a don't care. We stop and return an error if f returns an error at
// some point.
func (b *BDD) Allsat(n Node, f func([]int) error) error {
	if b.checkptr(n) != nil {
		return errors.Wrapf(ErrNode, "wrong node in call to Allsat (%d)", n)
	}
	prof := make([]int, b.varnum)
	for k := range prof {
		prof[k] = -1
	}
	// no node is created, so the table cannot be resized during the walk
	return b.allsat(int(n), prof, f)
}

func (b *BDD) allsat(n int, prof []int, f func([]int) error) error {
	switch n {
	case 0:
		return nil
	case 1:
		return f(prof)
	}
	level := b.level(n)
	for value, child := range [2]int{b.low(n), b.high(n)} {
		if child == 0 {
			continue
		}
		prof[level] = value
		for v := b.level(child) - 1; v > level; v-- {
			prof[v] = -1
		}
		if err := b.allsat(child, prof, f); err != nil {
			return err
		}
	}
	return nil
}
