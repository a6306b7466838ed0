// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package queens builds the constraint of the N-queens problem with nested
// decision diagrams. There is one field per row of the board, with one bit per
// column, so a solution is exactly a satisfying assignment.
package queens

import (
	"github.com/nddlab/ndd"
	"github.com/pkg/errors"
)

// Build declares n fields of n bits in e, which must not have any field yet,
// and returns the diagram of all the placements of n queens that do not
// attack each other. Bit j of field i is set when there is a queen in row i,
// column j. The result is protected.
func Build(e *ndd.Engine, n int) (ndd.Node, error) {
	if n <= 0 {
		return ndd.False, errors.Errorf("bad board size (%d)", n)
	}
	if e.Fields() != 0 {
		return ndd.False, errors.New("engine already has fields")
	}
	for i := 0; i < n; i++ {
		if _, err := e.DeclareField(n); err != nil {
			return ndd.False, err
		}
	}
	// at least one queen on each row
	rows := make([]ndd.Node, n)
	for i := range rows {
		rows[i] = ndd.False
		for j := 0; j < n; j++ {
			rows[i] = e.OrTo(rows[i], e.Var(i, j))
		}
	}
	cells := make([][]ndd.Node, n)
	for i := range cells {
		cells[i] = make([]ndd.Node, n)
		for j := range cells[i] {
			cells[i][j] = cell(e, n, i, j)
		}
	}
	queen := ndd.True
	for i := range rows {
		queen = e.AndTo(queen, rows[i])
		if err := e.Unprotect(rows[i]); err != nil {
			return ndd.False, errors.Wrapf(err, "releasing row %d", i)
		}
	}
	for i := range cells {
		for j := range cells[i] {
			queen = e.AndTo(queen, cells[i][j])
			if err := e.Unprotect(cells[i][j]); err != nil {
				return ndd.False, errors.Wrapf(err, "releasing cell (%d, %d)", i, j)
			}
		}
	}
	if err := e.Err(); err != nil {
		return ndd.False, err
	}
	return queen, nil
}

// cell returns the protected diagram stating that a queen on row i and column
// j does not attack any other queen.
func cell(e *ndd.Engine, n, i, j int) ndd.Node {
	res := ndd.True
	q := e.Var(i, j)
	attack := func(k, l int) {
		res = e.AndTo(res, e.Imp(q, e.NotVar(k, l)))
	}
	for l := 0; l < n; l++ {
		if l != j {
			attack(i, l)
		}
	}
	for k := 0; k < n; k++ {
		if k == i {
			continue
		}
		attack(k, j)
		if l := k - i + j; l >= 0 && l < n {
			attack(k, l)
		}
		if l := i + j - k; l >= 0 && l < n {
			attack(k, l)
		}
	}
	return res
}
