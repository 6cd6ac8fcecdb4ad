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
	"strconv"
	"sync"
	"testing"
)

func TestRegistryDenseIDs(t *testing.T) {
	r := NewRegistry()
	if id := r.AlleleID("12"); id != 0 {
		t.Errorf("first allele id %v, expected 0", id)
	}
	if id := r.AlleleID("9.3"); id != 1 {
		t.Errorf("second allele id %v, expected 1", id)
	}
	if id := r.AlleleID("12"); id != 0 {
		t.Errorf("repeated allele id %v, expected 0", id)
	}
	if id := r.LocusID("FGA"); id != 0 {
		t.Errorf("first locus id %v, expected 0", id)
	}
	if r.AlleleCount() != 2 || r.LocusCount() != 1 {
		t.Errorf("unexpected counts %v, %v", r.AlleleCount(), r.LocusCount())
	}
	if _, ok := r.LookupAllele("13"); ok {
		t.Error("lookup of unknown allele succeeded")
	}
	if id, ok := r.LookupAllele("9.3"); !ok || id != 1 {
		t.Errorf("lookup of 9.3 returned %v, %v", id, ok)
	}
	if r.AlleleCount() != 2 {
		t.Error("lookup assigned an id")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	const goroutines, values = 8, 500
	r := NewRegistry()
	ids := make([][]int, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids[g] = make([]int, values)
			for i := 0; i < values; i++ {
				ids[g][i] = r.AlleleID(strconv.Itoa(i))
			}
		}(g)
	}
	wg.Wait()
	if r.AlleleCount() != values {
		t.Fatalf("%v allele ids handed out, expected %v", r.AlleleCount(), values)
	}
	seen := make([]bool, values)
	for i := 0; i < values; i++ {
		id := ids[0][i]
		if id < 0 || id >= values {
			t.Fatalf("id %v out of range", id)
		}
		if seen[id] {
			t.Fatalf("id %v handed out twice", id)
		}
		seen[id] = true
		for g := 1; g < goroutines; g++ {
			if ids[g][i] != id {
				t.Fatalf("goroutine %v got id %v for %v, expected %v", g, ids[g][i], i, id)
			}
		}
	}
}
