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

package dropout

import (
	"context"

	"github.com/bits-and-blooms/bitset"
)

// A simulation holds the read-only inputs shared by all iterations of
// an estimation.
type simulation struct {
	loci     []string
	unknowns int
	dropIn   float64
	tables   []alleleTable
	known    []mixtureProfile
	observed int
	bound    uint
}

// A worker holds the working memory of the goroutine that runs a range
// of iterations.
type worker struct {
	*simulation
	mixture   []mixtureProfile
	surviving []*bitset.BitSet
}

func (s *simulation) newWorker() *worker {
	w := &worker{
		simulation: s,
		mixture:    make([]mixtureProfile, 0, s.unknowns+len(s.known)),
		surviving:  make([]*bitset.BitSet, len(s.loci)),
	}
	for i := range w.surviving {
		w.surviving[i] = bitset.New(s.bound)
	}
	return w
}

func (w *worker) randomProfile(r Rand) mixtureProfile {
	result := make(mixtureProfile, len(w.loci))
	for i, table := range w.tables {
		first, second := table.draw(r), table.draw(r)
		if first >= 0 {
			result[i] = []int{first, second}
		}
	}
	return result
}

// iterate runs one iteration: it builds a random mixture and, for each
// dropout probability step, counts the alleles that survive. The
// dropout probabilities that reproduce the observed allele count are
// appended to successes. It returns false if ctx was cancelled.
func (w *worker) iterate(ctx context.Context, r Rand, successes []float64) ([]float64, bool) {
	w.mixture = w.mixture[:0]
	for u := 0; u < w.unknowns; u++ {
		w.mixture = append(w.mixture, w.randomProfile(r))
	}
	w.mixture = append(w.mixture, w.known...)
	done := ctx.Done()
	for step := 0; step < HistogramSize; step++ {
		dropout := float64(step) / HistogramSize
		for i, surviving := range w.surviving {
			surviving.ClearAll()
			for _, contributor := range w.mixture {
				for _, id := range contributor[i] {
					select {
					case <-done:
						return successes, false
					default:
					}
					if r.Float64() > dropout && !surviving.Test(uint(id)) {
						surviving.Set(uint(id))
					}
				}
			}
		}
		if w.dropIn > 0 {
			for i, surviving := range w.surviving {
				if r.Float64() < w.dropIn {
					if id := w.tables[i].draw(r); id >= 0 {
						surviving.Set(uint(id))
					}
				}
			}
		}
		count := 0
		for _, surviving := range w.surviving {
			count += int(surviving.Count())
		}
		if count == w.observed {
			successes = append(successes, dropout)
		}
	}
	return successes, true
}
