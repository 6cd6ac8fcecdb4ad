// elMix: likelihood ratios for forensic DNA mixtures.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elmix/blob/master/LICENSE.txt>.

package likelihood

import "github.com/exascience/elmix/profile"

// A Permutation assigns a genotype to each unknown contributor.
//
// Factor is the number of raw assignments that are permutations of
// this one, N!/(k1!*k2!*...), where N is the number of unknowns and
// the ki are the multiplicities of the distinct genotypes.
type Permutation struct {
	Genotypes []*profile.Locus
	Factor    float64
}

/*
A PermutationIterator enumerates the assignments of genotypes to
unknown contributors, generating each multiset of genotypes exactly
once by keeping the genotype indices in non-decreasing order.

The first index is restricted to the half-open range [start, end), so
that the enumeration space can be split over several iterators with
no overlap and no coordination between them.

With zero unknowns, the iterator yields exactly one empty permutation
with factor 1.
*/
type PermutationIterator struct {
	genotypes []*profile.Locus
	indices   []int
	buffer    []*profile.Locus
	start     int
	end       int
	factorial float64
	done      bool
}

// NewPermutationIterator returns an iterator over the assignments of
// the given genotypes to the given number of unknowns, with the first
// genotype index in [start, end).
func NewPermutationIterator(unknowns int, genotypes []*profile.Locus, start, end int) *PermutationIterator {
	if end > len(genotypes) {
		end = len(genotypes)
	}
	it := &PermutationIterator{
		genotypes: genotypes,
		indices:   make([]int, unknowns),
		buffer:    make([]*profile.Locus, unknowns),
		start:     start,
		end:       end,
		factorial: factorial(unknowns),
	}
	if unknowns > 0 {
		for i := range it.indices {
			it.indices[i] = start
		}
		it.done = start >= end
	}
	return it
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

// HasNext checks whether Next can be called.
func (it *PermutationIterator) HasNext() bool {
	return !it.done
}

// Next returns the current permutation and advances the iterator.
// The Genotypes slice of the result is reused by the next call.
func (it *PermutationIterator) Next() Permutation {
	n := len(it.indices)
	if n == 0 {
		it.done = true
		return Permutation{Factor: 1}
	}
	divisor, run := 1.0, 1
	for i, index := range it.indices {
		it.buffer[i] = it.genotypes[index]
		if i > 0 && index == it.indices[i-1] {
			run++
			divisor *= float64(run)
		} else {
			run = 1
		}
	}
	result := Permutation{Genotypes: it.buffer, Factor: it.factorial / divisor}
	it.advance()
	return result
}

func (it *PermutationIterator) advance() {
	k := len(it.genotypes)
	p := len(it.indices) - 1
	for ; p > 0; p-- {
		if it.indices[p]+1 < k {
			break
		}
	}
	it.indices[p]++
	for q := p + 1; q < len(it.indices); q++ {
		it.indices[q] = it.indices[p]
	}
	if it.indices[0] >= it.end {
		it.done = true
	}
}

// Size returns the total number of permutations this iterator
// enumerates.
func (it *PermutationIterator) Size() int {
	n := len(it.indices)
	if n == 0 {
		return 1
	}
	size := 0
	for first := it.start; first < it.end; first++ {
		size += CombinationCount(n-1, len(it.genotypes)-first)
	}
	return size
}

// CombinationCount returns the number of non-decreasing index
// sequences of the given depth over the given number of values, which
// is the number of combinations with repetition C(size+depth-1, depth).
func CombinationCount(depth, size int) int {
	switch {
	case depth == 0:
		return 1
	case depth == 1:
		return size
	}
	count := 0
	for first := 0; first < size; first++ {
		count += CombinationCount(depth-1, size-first)
	}
	return count
}
