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

// Package dropout estimates plausible dropout probabilities for a
// hypothesis by simulating random mixtures and checking which dropout
// probabilities reproduce the number of alleles observed in the
// crime-scene replicates.
package dropout

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elmix/internal"
	"github.com/exascience/elmix/metrics"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// Default estimation parameters.
const (
	DefaultIterations        = 10000
	DefaultMinimumPercentile = 0.05
	DefaultMaximumPercentile = 0.95
)

// Rand is the source of uniform random numbers in [0, 1) used by a
// simulation.
type Rand interface {
	Float64() float64
}

// A RandomSource returns the random numbers for one iteration.
type RandomSource func(iteration int) Rand

// An IterationDone callback is called after each finished iteration.
// It is called concurrently from several goroutines.
type IterationDone func()

// An Estimator runs dropout estimations.
type Estimator struct {
	registry *utils.Registry

	Iterations        int
	MinimumPercentile float64
	MaximumPercentile float64

	// Seed seeds the default random source. Zero means a seed
	// derived from the current time.
	Seed int64

	// RandomSource, if not nil, replaces the default random source.
	RandomSource RandomSource

	IterationDone IterationDone
}

// NewEstimator returns an Estimator with default parameters.
func NewEstimator(registry *utils.Registry) *Estimator {
	return &Estimator{
		registry:          registry,
		Iterations:        DefaultIterations,
		MinimumPercentile: DefaultMinimumPercentile,
		MaximumPercentile: DefaultMaximumPercentile,
	}
}

func (e *Estimator) randomSource() RandomSource {
	if e.RandomSource != nil {
		return e.RandomSource
	}
	seed := e.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return func(iteration int) Rand {
		return internal.NewRand(seed + int64(iteration))
	}
}

// An alleleTable supports drawing alleles at a locus according to
// their population frequencies.
type alleleTable struct {
	alleles    []int
	cumulative []float64
}

func newAlleleTable(registry *utils.Registry, stats *profile.PopulationStatistics, locus string) alleleTable {
	var t alleleTable
	sum := 0.0
	for _, allele := range stats.Alleles(locus) {
		sum += stats.Frequency(locus, allele)
		t.alleles = append(t.alleles, registry.AlleleID(allele))
		t.cumulative = append(t.cumulative, sum)
	}
	return t
}

// draw returns an allele ID, or -1 if the table is empty.
func (t alleleTable) draw(r Rand) int {
	if len(t.alleles) == 0 {
		return -1
	}
	x := r.Float64()
	for i, c := range t.cumulative {
		if x < c {
			return t.alleles[i]
		}
	}
	return t.alleles[len(t.alleles)-1]
}

// observedAlleleCount returns the number of distinct alleles over the
// enabled loci, averaged over the replicates and rounded.
func observedAlleleCount(loci []string, replicates []*profile.Sample) int {
	if len(replicates) == 0 {
		return 0
	}
	total := 0
	for _, replicate := range replicates {
		for _, name := range loci {
			locus := replicate.Locus(name)
			if locus == nil {
				continue
			}
			var seen []int
			for _, allele := range locus.Alleles() {
				if !containsID(seen, allele.ID()) {
					seen = append(seen, allele.ID())
				}
			}
			total += len(seen)
		}
	}
	return int(math.Round(float64(total) / float64(len(replicates))))
}

func containsID(ids []int, id int) bool {
	for _, other := range ids {
		if other == id {
			return true
		}
	}
	return false
}

// A mixtureProfile holds the allele IDs of one contributor, per enabled
// locus.
type mixtureProfile [][]int

func knownProfile(sample *profile.Sample, loci []string) mixtureProfile {
	result := make(mixtureProfile, len(loci))
	for i, name := range loci {
		if locus := sample.Locus(name); locus != nil {
			for _, allele := range locus.Alleles() {
				result[i] = append(result[i], allele.ID())
			}
		}
	}
	return result
}

// Estimate simulates random mixtures under the hypothesis and returns
// the range of dropout probabilities that reproduce the observed
// allele count of the replicates.
func (e *Estimator) Estimate(ctx context.Context, h *profile.Hypothesis, enabledLoci []string, replicates []*profile.Sample) (*Estimation, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if e.Iterations < 1 {
		return nil, fmt.Errorf("invalid number of iterations %v", e.Iterations)
	}
	if e.MinimumPercentile < 0 || e.MinimumPercentile > e.MaximumPercentile || e.MaximumPercentile > 1 {
		return nil, fmt.Errorf("invalid percentiles %v-%v", e.MinimumPercentile, e.MaximumPercentile)
	}
	var loci []string
	for _, name := range enabledLoci {
		if name == "" {
			return nil, profile.ErrMissingLocusName
		}
		if !containsName(loci, name) {
			loci = append(loci, name)
		}
	}
	s := &simulation{
		loci:     loci,
		unknowns: h.UnknownCount,
		dropIn:   h.DropInProbability,
		tables:   make([]alleleTable, len(loci)),
		observed: observedAlleleCount(loci, replicates),
	}
	for i, name := range loci {
		s.tables[i] = newAlleleTable(e.registry, h.Statistics, name)
	}
	for _, contributor := range h.AllContributors() {
		s.known = append(s.known, knownProfile(contributor.Sample, loci))
	}
	s.bound = uint(e.registry.AlleleCount())

	source := e.randomSource()
	values := parallel.RangeReduce(0, e.Iterations, runtime.NumCPU(), func(low, high int) interface{} {
		w := s.newWorker()
		var successes []float64
		for i := low; i < high; i++ {
			var ok bool
			if successes, ok = w.iterate(ctx, source(i), successes); !ok {
				break
			}
			metrics.DropoutIterations.Inc()
			if e.IterationDone != nil {
				e.IterationDone()
			}
		}
		return successes
	}, func(x, y interface{}) interface{} {
		return append(x.([]float64), y.([]float64)...)
	}).([]float64)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newEstimation(values, e.Iterations, s.observed, e.MinimumPercentile, e.MaximumPercentile)
}

func containsName(names []string, name string) bool {
	for _, other := range names {
		if other == name {
			return true
		}
	}
	return false
}
