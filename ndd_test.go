// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package ndd

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/nddlab/ndd/bdd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newEngine(t *testing.T, bits []int, options ...Option) *Engine {
	t.Helper()
	e, err := New(options...)
	require.NoError(t, err)
	for k, b := range bits {
		f, err := e.DeclareField(b)
		require.NoError(t, err)
		require.Equal(t, k, f)
	}
	return e
}

// checkInvariants checks the structure of every live node of e.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	parents := make(map[Node]int32)
	live := 0
	for k := 2; k < len(e.nodes); k++ {
		nd := e.nodes[k]
		if nd.field == freeField {
			continue
		}
		live++
		require.NotEmpty(t, nd.edges, "node %d without edges", k)
		if len(nd.edges) == 1 {
			assert.NotEqual(t, flatTrue, nd.edges[0].label, "node %d has a single True edge", k)
		}
		for i, ed := range nd.edges {
			assert.NotEqual(t, False, ed.next, "node %d has an edge to False", k)
			assert.NotEqual(t, flatFalse, ed.label, "node %d has a False label", k)
			if i > 0 {
				assert.Less(t, int(nd.edges[i-1].next), int(ed.next), "node %d: edges not sorted or duplicated", k)
			}
			assert.Greater(t, e.nodes[ed.next].field, nd.field, "node %d: descendant %d not below", k, ed.next)
			assert.NoError(t, e.checklabel(ed.label, int(nd.field)), "node %d: label outside its field", k)
			parents[ed.next]++
		}
		assert.Equal(t, Node(k), e.unique[nd.field][string(e.key(nd.edges))], "node %d not in its unique table", k)
	}
	assert.Equal(t, live, e.size)
	for n, c := range parents {
		if n > 1 && e.nodes[n].refcou != _PINNED {
			assert.GreaterOrEqual(t, e.nodes[n].refcou, c, "node %d: count lower than its number of parents", n)
		}
	}
}

// literals returns all the field variables of e and their negations.
func literals(e *Engine) []Node {
	var res []Node
	for f := 0; f < e.Fields(); f++ {
		for b := 0; b < e.Bits(f); b++ {
			res = append(res, e.Var(f, b), e.NotVar(f, b))
		}
	}
	return res
}

// randomDiagrams returns n protected diagrams built from the variables of e
// with random operations.
func randomDiagrams(t *testing.T, e *Engine, r *rand.Rand, n int) []Node {
	t.Helper()
	pool := literals(e)
	var res []Node
	for len(res) < n {
		a := pool[r.Intn(len(pool))]
		b := pool[r.Intn(len(pool))]
		var c Node
		switch r.Intn(5) {
		case 0:
			c = e.And(a, b)
		case 1:
			c = e.Or(a, b)
		case 2:
			c = e.Not(a)
		case 3:
			c = e.Diff(a, b)
		default:
			c = e.Imp(a, b)
		}
		require.GreaterOrEqual(t, int(c), 0, e.Error())
		e.Protect(c)
		pool = append(pool, c)
		res = append(res, c)
	}
	return res
}

// assignments returns all the assignments of nbits bits.
func assignments(nbits int) [][]bool {
	res := make([][]bool, 1<<nbits)
	for k := range res {
		res[k] = make([]bool, nbits)
		for b := 0; b < nbits; b++ {
			res[k][b] = (k>>b)&1 == 1
		}
	}
	return res
}

// ************************************************************

func TestDeclareField(t *testing.T) {
	e := newEngine(t, []int{2, 3})
	assert.Equal(t, 2, e.Fields())
	assert.Equal(t, 3, e.Bits(1))
	assert.Equal(t, 5, e.Flat().Varnum())
	assert.Equal(t, 2, e.Flat().Label(e.FlatVar(1, 0)))
	_, err := e.DeclareField(0)
	assert.Equal(t, ErrField, errors.Cause(err))
	// four pinned nodes per bit of field 0 and 1
	assert.Equal(t, 10, e.NodeCount())
	for _, v := range literals(e) {
		assert.Equal(t, _PINNED, e.nodes[v].refcou)
	}
	assert.Equal(t, 0, e.Field(e.Var(0, 1)))
	assert.Equal(t, 1, e.Field(e.NotVar(1, 2)))
	assert.Equal(t, -1, e.Field(True))
	require.False(t, e.Errored(), e.Error())
}

func TestVarErrors(t *testing.T) {
	e := newEngine(t, []int{2})
	assert.Less(t, int(e.Var(0, 2)), 0)
	assert.Equal(t, ErrField, errors.Cause(e.Err()))
	// errors are sticky
	assert.Less(t, int(e.And(True, True)), 0)
	_, err := e.DeclareField(1)
	assert.Error(t, err)
}

func TestReduction(t *testing.T) {
	e := newEngine(t, []int{2, 2})
	e.initref()
	assert.Equal(t, True, e.mk(0, []edge{{next: True, label: flatTrue}}))
	assert.Equal(t, Node(7), e.mk(0, []edge{{next: Node(7), label: flatTrue}}))
	assert.Equal(t, False, e.mk(1, nil))
	// a predicate true on every assignment of the field is reduced
	x := e.Flat().Ithvar(0)
	assert.Equal(t, True, e.Encode(e.Flat().Or(x, e.Flat().Not(x)), 0))
	assert.Equal(t, True, e.Or(e.Var(0, 0), e.NotVar(0, 0)))
}

func TestCanonicity(t *testing.T) {
	e := newEngine(t, []int{2, 2})
	e.initref()
	label := e.Flat().AddRef(e.Flat().And(e.FlatVar(0, 0), e.FlatVar(0, 1)))
	n1 := e.mk(0, []edge{{next: e.Var(1, 0), label: label}})
	e.flat.AddRef(label)
	n2 := e.mk(0, []edge{{next: e.Var(1, 0), label: label}})
	assert.Equal(t, n1, n2)

	x, y, z := e.Var(0, 0), e.Var(1, 0), e.Var(1, 1)
	left := e.Protect(e.Or(e.And(x, y), e.And(x, z)))
	right := e.Protect(e.And(x, e.Or(y, z)))
	assert.Equal(t, left, right)
	// edge order does not matter
	e.initref()
	l1 := e.flat.AddRef(e.FlatVar(0, 0))
	l2 := e.flat.AddRef(e.flat.Not(e.FlatVar(0, 0)))
	a := e.mk(0, []edge{{next: y, label: l1}, {next: z, label: l2}})
	e.flat.AddRef(l1)
	e.flat.AddRef(l2)
	b := e.mk(0, []edge{{next: z, label: l2}, {next: y, label: l1}})
	assert.Equal(t, a, b)
	checkInvariants(t, e)
}

// TestSemantics checks the result of every operation against the truth table
// of its operands, on all the assignments of the bits.
func TestSemantics(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2}, Nodesize(64), Cachesize(31))
	r := rand.New(rand.NewSource(42))
	pool := randomDiagrams(t, e, r, 40)
	all := assignments(7)
	eval := func(n Node) []bool {
		res := make([]bool, len(all))
		for k, a := range all {
			res[k] = e.Eval(n, a)
		}
		return res
	}
	for k := 0; k < 60; k++ {
		a := pool[r.Intn(len(pool))]
		b := pool[r.Intn(len(pool))]
		va, vb := eval(a), eval(b)
		and := e.Protect(e.And(a, b))
		or := e.Protect(e.Or(a, b))
		not := e.Protect(e.Not(a))
		diff := e.Protect(e.Diff(a, b))
		imp := e.Protect(e.Imp(a, b))
		require.False(t, e.Errored(), e.Error())
		vand, vor, vnot, vdiff, vimp := eval(and), eval(or), eval(not), eval(diff), eval(imp)
		for i := range all {
			require.Equal(t, va[i] && vb[i], vand[i], "and")
			require.Equal(t, va[i] || vb[i], vor[i], "or")
			require.Equal(t, !va[i], vnot[i], "not")
			require.Equal(t, va[i] && !vb[i], vdiff[i], "diff")
			require.Equal(t, !va[i] || vb[i], vimp[i], "imp")
		}
		for _, n := range []Node{and, or, not, diff, imp} {
			require.NoError(t, e.Unprotect(n))
		}
	}
	checkInvariants(t, e)
}

func TestAlgebraLaws(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2}, Nodesize(32))
	r := rand.New(rand.NewSource(7))
	pool := randomDiagrams(t, e, r, 30)
	for k := 0; k < 50; k++ {
		a := pool[r.Intn(len(pool))]
		b := pool[r.Intn(len(pool))]
		c := pool[r.Intn(len(pool))]
		ab := e.Protect(e.And(a, b))
		assert.Equal(t, ab, e.And(b, a), "AND(a,b) == AND(b,a)")
		bc := e.Protect(e.Or(b, c))
		left := e.Protect(e.Or(a, bc))
		aob := e.Protect(e.Or(a, b))
		assert.Equal(t, left, e.Or(aob, c), "OR(a,OR(b,c)) == OR(OR(a,b),c)")
		na := e.Protect(e.Not(a))
		assert.Equal(t, a, e.Not(na), "NOT(NOT(a)) == a")
		assert.Equal(t, False, e.And(a, na), "AND(a,NOT(a)) == FALSE")
		assert.Equal(t, True, e.Or(a, na), "OR(a,NOT(a)) == TRUE")
		nab := e.Protect(e.Not(ab))
		nb := e.Protect(e.Not(b))
		assert.Equal(t, nab, e.Or(na, nb), "NOT(AND(a,b)) == OR(NOT(a),NOT(b))")
		for _, n := range []Node{ab, bc, left, aob, na, nab, nb} {
			require.NoError(t, e.Unprotect(n))
		}
	}
	require.False(t, e.Errored(), e.Error())
	assert.Greater(t, e.Stats().Reclaims, 0)
	checkInvariants(t, e)
}

func TestRoundTrip(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2})
	r := rand.New(rand.NewSource(1))
	pool := randomDiagrams(t, e, r, 50)
	pool = append(pool, True, False)
	pool = append(pool, literals(e)...)
	for _, a := range pool {
		assert.Equal(t, a, e.FromFlat(e.ToFlat(a)), "fromFlat(toFlat(%d))", a)
	}
	require.False(t, e.Errored(), e.Error())
	checkInvariants(t, e)
}

func TestFromFlat(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2})
	b := e.Flat()
	// x0 <=> x6 relates the first and last fields
	f := b.AddRef(b.Equiv(b.Ithvar(0), b.Ithvar(6)))
	n := e.Protect(e.FromFlat(f))
	assert.Equal(t, 0, e.Field(n))
	assert.Equal(t, e.Or(e.And(e.Var(0, 0), e.Var(2, 1)), e.And(e.NotVar(0, 0), e.NotVar(2, 1))), n)
	assert.Equal(t, big.NewInt(64), e.SatCount(n))
	assert.Equal(t, f, e.ToFlat(n))
	// a function that skips the first field
	g := b.AddRef(b.And(b.Ithvar(3), b.NIthvar(5)))
	m := e.FromFlat(g)
	assert.Equal(t, 1, e.Field(m))
	assert.Equal(t, e.And(e.Var(1, 1), e.NotVar(2, 0)), m)
	assert.Equal(t, True, e.FromFlat(b.True()))
	assert.Equal(t, False, e.FromFlat(b.False()))
	require.False(t, e.Errored(), e.Error())
}

func TestReclamationSafety(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2}, Nodesize(16))
	r := rand.New(rand.NewSource(3))
	pool := randomDiagrams(t, e, r, 60)
	counts := make(map[Node]*big.Int)
	var kept []Node
	for k, n := range pool {
		if k%3 == 0 {
			kept = append(kept, n)
			counts[n] = e.SatCount(n)
			continue
		}
		require.NoError(t, e.Unprotect(n))
	}
	e.Reclaim()
	reached := make(map[Node]bool)
	var visit func(Node)
	visit = func(n Node) {
		if n < 2 || reached[n] {
			return
		}
		reached[n] = true
		for _, ed := range e.nodes[n].edges {
			visit(ed.next)
		}
	}
	for _, n := range kept {
		visit(n)
	}
	for _, n := range literals(e) {
		visit(n)
	}
	assert.Equal(t, len(reached), e.NodeCount())
	for _, n := range kept {
		assert.Equal(t, counts[n], e.SatCount(n), "protected node %d changed", n)
	}
	checkInvariants(t, e)
}

func TestSatCount(t *testing.T) {
	for n := 1; n <= 6; n++ {
		bits := make([]int, n)
		for k := range bits {
			bits[k] = 1
		}
		e := newEngine(t, bits)
		and, or := True, False
		for f := 0; f < n; f++ {
			and = e.Protect(e.And(and, e.Var(f, 0)))
			or = e.Protect(e.Or(or, e.Var(f, 0)))
		}
		assert.Equal(t, big.NewInt(1), e.SatCount(and), "AND of %d variables", n)
		assert.Equal(t, big.NewInt(int64(1)<<n-1), e.SatCount(or), "OR of %d variables", n)
		assert.Equal(t, e.SatCount(or), e.SatCountFields(or))
	}
}

func TestSatCountFields(t *testing.T) {
	e := newEngine(t, []int{2, 3, 2})
	r := rand.New(rand.NewSource(5))
	for _, n := range append(randomDiagrams(t, e, r, 50), True, False) {
		assert.Equal(t, e.SatCount(n), e.SatCountFields(n), "node %d", n)
	}
}

// TestScenario declares two fields of one bit each and checks the diagram of
// their conjunction.
func TestScenario(t *testing.T) {
	e := newEngine(t, []int{1, 1})
	a := e.Protect(e.And(e.Var(0, 0), e.Var(1, 0)))
	assert.Equal(t, big.NewInt(1), e.SatCount(a))
	var models [][]bool
	for _, asg := range assignments(2) {
		if e.Eval(a, asg) {
			models = append(models, asg)
		}
	}
	assert.Equal(t, [][]bool{{true, true}}, models)
	assert.Equal(t, a, e.Not(e.Not(a)))
	e.Reclaim()
	// the root and Var(1, 0) form the chain, on top of the four pinned nodes
	assert.Equal(t, 5, e.NodeCount())
	assert.Equal(t, []edge{{next: e.Var(1, 0), label: e.FlatVar(0, 0)}}, e.nodes[a].edges)
	require.NoError(t, e.Unprotect(a))
	e.Reclaim()
	assert.Equal(t, 4, e.NodeCount())
}

func TestExist(t *testing.T) {
	e := newEngine(t, []int{2, 2, 2})
	x, y, z := e.Var(0, 0), e.Var(1, 1), e.NotVar(2, 0)
	xyz := e.Protect(e.And(x, e.And(y, z)))
	yz := e.Protect(e.And(y, z))
	assert.Equal(t, yz, e.Exist(xyz, 0))
	assert.Equal(t, e.And(x, z), e.Exist(xyz, 1))
	assert.Equal(t, x, e.Exist(x, 2))
	assert.Equal(t, True, e.Exist(x, 0))
	xory := e.Protect(e.Or(x, y))
	assert.Equal(t, True, e.Exist(xory, 1))
	assert.Less(t, int(e.Exist(x, 3)), 0)
}

func TestAccumulate(t *testing.T) {
	e := newEngine(t, []int{2, 2}, Nodesize(4))
	acc := e.Protect(True)
	for f := 0; f < 2; f++ {
		for b := 0; b < 2; b++ {
			acc = e.AndTo(acc, e.Var(f, b))
		}
	}
	assert.Equal(t, big.NewInt(1), e.SatCount(acc))
	acc2 := e.Protect(False)
	for f := 0; f < 2; f++ {
		acc2 = e.OrTo(acc2, e.NotVar(f, 0))
	}
	assert.Equal(t, big.NewInt(12), e.SatCount(acc2))
	require.NoError(t, e.Unprotect(acc))
	require.NoError(t, e.Unprotect(acc2))
	e.Reclaim()
	assert.Equal(t, 8, e.NodeCount())
}

func TestEncode(t *testing.T) {
	e := newEngine(t, []int{3, 2})
	p := e.EncodePrefix([]int{1, 0}, 0)
	assert.Equal(t, e.And(e.Var(0, 0), e.NotVar(0, 1)), p)
	assert.Equal(t, big.NewInt(8), e.SatCount(p))
	assert.Equal(t, True, e.EncodePrefix(nil, 1))
	ps := e.EncodePrefixes([][]int{{1, 1}, {0}}, 0)
	assert.Equal(t, big.NewInt(24), e.SatCount(ps))
	assert.Equal(t, False, e.EncodePrefixes(nil, 0))

	b := e.Flat()
	l0 := b.AddRef(b.Or(e.FlatVar(0, 0), e.FlatVar(0, 2)))
	l1 := b.AddRef(e.FlatVar(1, 1))
	acl := e.EncodeACL([]FieldPredicate{{0, l0}, {1, l1}})
	assert.Equal(t, e.And(e.Encode(l0, 0), e.Encode(l1, 1)), acl)
	assert.Equal(t, e.Encode(l1, 1), e.EncodeACL([]FieldPredicate{{0, b.True()}, {1, l1}}))
	assert.Equal(t, False, e.EncodeACL([]FieldPredicate{{0, l0}, {1, b.False()}}))
	require.False(t, e.Errored(), e.Error())

	assert.Less(t, int(e.Encode(l1, 0)), 0)
	assert.Equal(t, ErrField, errors.Cause(e.Err()))
}

func TestEncodeErrors(t *testing.T) {
	var encodeTests = []struct {
		name string
		run  func(e *Engine) Node
	}{
		{"long prefix", func(e *Engine) Node { return e.EncodePrefix([]int{1, 1, 1}, 1) }},
		{"bad bit", func(e *Engine) Node { return e.EncodePrefix([]int{2}, 0) }},
		{"unknown field", func(e *Engine) Node { return e.EncodePrefix([]int{1}, 2) }},
		{"order", func(e *Engine) Node {
			return e.EncodeACL([]FieldPredicate{{1, e.FlatVar(1, 0)}, {0, e.FlatVar(0, 0)}})
		}},
	}
	for _, tt := range encodeTests {
		e := newEngine(t, []int{3, 2})
		assert.Less(t, int(tt.run(e)), 0, tt.name)
		assert.Equal(t, ErrField, errors.Cause(e.Err()), tt.name)
	}
}

func TestPaths(t *testing.T) {
	e := newEngine(t, []int{1, 1, 1})
	x0 := e.FlatVar(0, 0)
	nx2 := e.Flat().Not(e.FlatVar(2, 0))
	a := e.Protect(e.And(e.Var(0, 0), e.NotVar(2, 0)))
	var paths [][]bdd.Node
	err := e.Paths(a, func(labels []bdd.Node) error {
		paths = append(paths, append([]bdd.Node{}, labels...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]bdd.Node{{x0, e.Flat().True(), nx2}}, paths)

	b := e.Protect(e.Or(e.Var(0, 0), e.Var(1, 0)))
	count := 0
	err = e.Paths(b, func(labels []bdd.Node) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	stop := errors.New("stop")
	err = e.Paths(b, func(labels []bdd.Node) error { return stop })
	assert.Equal(t, stop, err)
}

func TestUnprotect(t *testing.T) {
	e := newEngine(t, []int{2})
	a := e.And(e.Var(0, 0), e.Var(0, 1))
	assert.Equal(t, ErrUnprotect, errors.Cause(e.Unprotect(a)))
	assert.True(t, e.Errored())

	e = newEngine(t, []int{2})
	assert.NoError(t, e.Unprotect(e.Var(0, 0)))
	assert.NoError(t, e.Unprotect(True))
	assert.Less(t, int(e.Protect(Node(1000))), 0)
	assert.Equal(t, ErrNode, errors.Cause(e.Err()))
}

func TestGrowth(t *testing.T) {
	// two fields of two bits give 8 pinned nodes
	var growthTests = []struct {
		nodesize int
		expected int
	}{
		{8, 16},
		{9, 9},
		{16, 16},
	}
	for _, tt := range growthTests {
		e := newEngine(t, []int{2, 2}, Nodesize(tt.nodesize))
		require.Equal(t, tt.nodesize, e.Stats().Capacity)
		assert.Equal(t, 0, e.Reclaim())
		assert.Equal(t, tt.expected, e.Stats().Capacity, "Nodesize(%d)", tt.nodesize)
		// the table is now at most 90% full
		e.Reclaim()
		assert.Equal(t, tt.expected, e.Stats().Capacity, "Nodesize(%d), second reclamation", tt.nodesize)
		assert.Equal(t, 2, e.Stats().Reclaims)
	}
}

func TestConcurrentUse(t *testing.T) {
	// a small table forces reclamations while other goroutines hold nodes
	e := newEngine(t, []int{4, 4}, Nodesize(20))
	var g errgroup.Group
	for k := 0; k < 8; k++ {
		f := k % 2
		g.Go(func() error {
			for round := 0; round < 20; round++ {
				acc := False
				for b := 0; b < 4; b++ {
					acc = e.OrTo(acc, e.Var(f, b))
				}
				if c := e.SatCount(acc); c.Cmp(big.NewInt(240)) != 0 {
					return errors.Errorf("field %d: expected 240 assignments, actual %s", f, c)
				}
				e.Stats()
				if err := e.Unprotect(acc); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, e.Err())
	e.Reclaim()
	assert.Equal(t, 16, e.NodeCount())
}
