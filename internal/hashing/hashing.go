// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package hashing provides the pairing functions and prime sizes used by the
// direct-mapped operation caches of packages bdd and ndd.
package hashing

import "math/big"

// Pair maps the pair (a, b) to a slot in a table of size len. Before the
// modulo, the Cantor pairing function is a bijection, so distinct small pairs
// never collide.
func Pair(a, b, len int) int {
	return int((((uint64(a+b) * uint64(a+b+1)) / 2) + uint64(a)) % uint64(len))
}

// Triple maps (a, b, c) to a slot in a table of size len by pairing c with
// the pair (a, b).
func Triple(a, b, c, len int) int {
	return int(pair64(uint64(c), uint64(Pair(a, b, len)), uint64(len)))
}

func pair64(a, b, len uint64) uint64 {
	return (((((a + b) % len) * ((a + b + 1) % len)) / 2) + a) % len
}

// ************************************************************

func hasFactor(src int, n int) bool {
	return (src != n) && (src%n == 0)
}

func hasEasyFactors(src int) bool {
	return hasFactor(src, 3) || hasFactor(src, 5) || hasFactor(src, 7) || hasFactor(src, 11) || hasFactor(src, 13)
}

// PrimeGte returns the smallest prime number greater than or equal to src. We
// use prime table sizes to spread the keys of the caches.
func PrimeGte(src int) int {
	if src <= 2 {
		return 3
	}
	if src%2 == 0 {
		src++
	}
	for {
		if hasEasyFactors(src) {
			src += 2
			continue
		}
		// ProbablyPrime is exact for inputs less than 2⁶⁴.
		if big.NewInt(int64(src)).ProbablyPrime(0) {
			return src
		}
		src += 2
	}
}
