// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package satcheck

import (
	"testing"

	"github.com/nddlab/ndd"
	"github.com/nddlab/ndd/bdd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWitness(t *testing.T) {
	b, err := bdd.New(4)
	require.NoError(t, err)
	// x0 & !x2 & (x1 | x3)
	f := b.AddRef(b.And(b.Ithvar(0), b.NIthvar(2), b.Or(b.Ithvar(1), b.Ithvar(3))))
	model, sat, err := Witness(b, f)
	require.NoError(t, err)
	require.True(t, sat)
	require.Len(t, model, 4)
	assert.True(t, b.Eval(f, model))

	_, sat, err = Witness(b, b.And(b.Ithvar(1), b.NIthvar(1)))
	require.NoError(t, err)
	assert.False(t, sat)

	model, sat, err = Witness(b, b.True())
	require.NoError(t, err)
	assert.True(t, sat)
	assert.Len(t, model, 4)

	_, _, err = Witness(b, bdd.Node(1000))
	assert.Error(t, err)
}

func TestEquivalent(t *testing.T) {
	b, err := bdd.New(3)
	require.NoError(t, err)
	x, y, z := b.Ithvar(0), b.Ithvar(1), b.Ithvar(2)
	f := b.AddRef(b.Or(b.And(x, y), b.And(x, z)))
	h := b.AddRef(b.And(x, b.Or(y, z)))
	ok, err := Equivalent(b, f, h)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = Equivalent(b, f, x)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify(t *testing.T) {
	e, err := ndd.New()
	require.NoError(t, err)
	for _, bits := range []int{2, 3, 2} {
		_, err := e.DeclareField(bits)
		require.NoError(t, err)
	}
	a := e.Protect(e.And(e.Var(0, 1), e.Or(e.NotVar(1, 0), e.Var(2, 1))))
	c := e.Protect(e.Diff(a, e.Var(2, 1)))
	for _, n := range []ndd.Node{ndd.True, ndd.False, a, c, e.And(a, e.Not(a))} {
		assert.NoError(t, Verify(e, n), "node %d", n)
	}
	// the flat translation agrees with the decomposition
	f := e.Flat().AddRef(e.ToFlat(c))
	ok, err := Equivalent(e.Flat(), f, e.ToFlat(e.FromFlat(f)))
	require.NoError(t, err)
	assert.True(t, ok)
}
