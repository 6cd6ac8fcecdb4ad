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

package utils

import (
	"sync"
	"sync/atomic"

	psync "github.com/exascience/pargo/sync"

	"github.com/exascience/elmix/internal"
)

type symbolName string

func (s symbolName) Hash() uint64 {
	return internal.StringHash(string(s))
}

type symbolEntry struct {
	once sync.Once
	id   int
}

// A symbolSpace hands out dense IDs, starting at 0, for the strings
// interned in it.
type symbolSpace struct {
	table *psync.Map
	count int64
}

func newSymbolSpace() symbolSpace {
	return symbolSpace{table: psync.NewMap(0)}
}

func (space *symbolSpace) intern(s string) int {
	entry, _ := space.table.LoadOrStore(symbolName(s), &symbolEntry{})
	e := entry.(*symbolEntry)
	e.once.Do(func() {
		e.id = int(atomic.AddInt64(&space.count, 1) - 1)
	})
	return e.id
}

func (space *symbolSpace) lookup(s string) (int, bool) {
	entry, ok := space.table.Load(symbolName(s))
	if !ok {
		return -1, false
	}
	e := entry.(*symbolEntry)
	e.once.Do(func() {
		e.id = int(atomic.AddInt64(&space.count, 1) - 1)
	})
	return e.id, true
}

func (space *symbolSpace) size() int {
	return int(atomic.LoadInt64(&space.count))
}

/*
A Registry assigns each distinct allele value and each distinct locus
name a stable integer ID, so that hot loops can index arrays instead of
hashing strings.

IDs are assigned on first sight and never reused or freed. Allele
values and locus names live in separate ID spaces, each dense and
starting at 0.

It is safe for multiple goroutines to use a Registry concurrently.
*/
type Registry struct {
	alleles symbolSpace
	loci    symbolSpace
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		alleles: newSymbolSpace(),
		loci:    newSymbolSpace(),
	}
}

// AlleleID returns the ID for the given allele value, assigning a
// fresh one if the value has not been seen before.
func (r *Registry) AlleleID(value string) int {
	return r.alleles.intern(value)
}

// LookupAllele returns the ID for the given allele value, without
// assigning one if the value is unknown.
func (r *Registry) LookupAllele(value string) (int, bool) {
	return r.alleles.lookup(value)
}

// LocusID returns the ID for the given locus name, assigning a fresh
// one if the name has not been seen before.
func (r *Registry) LocusID(name string) int {
	return r.loci.intern(name)
}

// AlleleCount is an upper bound for all allele IDs handed out so far.
func (r *Registry) AlleleCount() int {
	return r.alleles.size()
}

// LocusCount is an upper bound for all locus IDs handed out so far.
func (r *Registry) LocusCount() int {
	return r.loci.size()
}
