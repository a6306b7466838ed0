// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Command nddqueens counts the solutions of the N-queens problem with nested
// decision diagrams.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
