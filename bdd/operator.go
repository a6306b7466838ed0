// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

// Operator describes the binary operations available on an Apply.
type Operator int

const (
	OPand   Operator = iota // Boolean conjunction
	OPxor                   // Exclusive or
	OPor                    // Disjunction
	OPimp                   // Implication
	OPbiimp                 // Equivalence
	OPdiff                  // Difference, left and not right
	opNot                   // Negation, only used as a cache key
)

var opnames = [...]string{
	OPand:   "and",
	OPxor:   "xor",
	OPor:    "or",
	OPimp:   "imp",
	OPbiimp: "biimp",
	OPdiff:  "diff",
	opNot:   "not",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(opnames) {
		return "unknown"
	}
	return opnames[op]
}

// opres gives the truth table of each operator on constant operands.
var opres = [...][2][2]int{
	//                     00    01               10    11
	OPand:   {0: [2]int{0: 0, 1: 0}, 1: [2]int{0: 0, 1: 1}}, // 0001
	OPxor:   {0: [2]int{0: 0, 1: 1}, 1: [2]int{0: 1, 1: 0}}, // 0110
	OPor:    {0: [2]int{0: 0, 1: 1}, 1: [2]int{0: 1, 1: 1}}, // 0111
	OPimp:   {0: [2]int{0: 1, 1: 1}, 1: [2]int{0: 0, 1: 1}}, // 1101
	OPbiimp: {0: [2]int{0: 1, 1: 0}, 1: [2]int{0: 0, 1: 1}}, // 1001
	OPdiff:  {0: [2]int{0: 0, 1: 0}, 1: [2]int{0: 1, 1: 0}}, // 0010
}
