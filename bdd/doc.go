// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package bdd defines a concrete type for Binary Decision Diagrams (BDD), a data
structure used to efficiently represent Boolean functions over a set of
variables or, equivalently, sets of Boolean vectors with a fixed size.

# Basics

Each variable is represented by an (integer) index, called a level. The set of
variables can grow during a computation with AddVars: new variables are always
added at the bottom of the order, so that existing nodes stay valid.

Most operations return a Node, that is the index of a vertex in the node table,
with the convention that 1 (respectively 0) is the index of the constant
function True (respectively False). A failed operation returns a negative node
and sets the (sticky) error status of the BDD, available with Error and Err.

# Memory management

Data structures and algorithms are an adaptation of those found in the
C-library BuDDy. Nodes are reclaimed by a mark-and-sweep garbage collector
triggered when the node table is full; the table is resized when too few nodes
are freed. Like in BuDDy, results of operations are not referenced: a caller
that keeps a node across operations must protect it with AddRef and release it
with DelRef. Variables and constants are pinned.
*/
package bdd
