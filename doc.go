// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package ndd implements Nested Decision Diagrams (NDD), a canonical and shared
representation of Boolean functions over a vector of bits partitioned into
fields. Each level of a diagram decides all the bits of one field at once:
the edges of a node are labelled with flat BDD predicates over the bits of its
field, provided by package bdd.

# Basics

An Engine is created with New, then fields are declared, in order, with
DeclareField. Diagrams are built from the field variables (Var and NotVar),
from flat predicates (Encode, EncodePrefix, EncodeACL and FromFlat), and
combined with And, Or, Not, Diff, Imp and Exist. Like for BDDs, two diagrams
denote the same function if and only if they are the same Node.

Diagrams are reduced: edges never lead to False, the labels of two edges
never lead to the same descendant, and a node with a single edge labelled
True is replaced by its descendant, so that a node can skip fields.

# Memory management

Nodes are hash-consed in one table per field and reference counted. A node
returned by an operation is only protected until the start of the next
operation: callers keep it with Protect (released with Unprotect), or use
AndTo and OrTo for accumulations. When the node table reaches its capacity,
unprotected nodes are reclaimed, the operation caches are cleared, and the
capacity is doubled if less than 10% of it is free.
*/
package ndd
