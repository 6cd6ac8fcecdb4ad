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

import (
	"context"

	"github.com/exascience/elmix/metrics"
	"github.com/exascience/elmix/profile"
)

// A LocusProbability accumulates the probability of the replicate data
// at one locus. It is only modified by the job or collector that owns
// it.
type LocusProbability struct {
	Locus string
	Value float64
}

// Add adds a contribution to the probability.
func (p *LocusProbability) Add(value float64) {
	p.Value += value
}

// Set overwrites the probability.
func (p *LocusProbability) Set(value float64) {
	p.Value = value
}

// An alleleEntry is one allele carried by one contributor. Homozygous
// contributors have a single entry for both copies.
type alleleEntry struct {
	id         int
	homozygote bool
	dropout    float64
}

// dropoutFactor is the probability that all copies of the entry drop
// out.
func (entry alleleEntry) dropoutFactor() float64 {
	if entry.homozygote {
		return entry.dropout * entry.dropout
	}
	return entry.dropout
}

func appendEntries(entries []alleleEntry, locus *profile.Locus, dropout float64) []alleleEntry {
	for _, allele := range locus.Alleles() {
		entries = append(entries, alleleEntry{id: allele.ID(), homozygote: allele.IsHomozygote(), dropout: dropout})
		if allele.IsHomozygote() {
			break
		}
	}
	return entries
}

type replicateAlleles struct {
	ids         []int
	frequencies []float64
}

// A locusEvaluator computes the probability of the replicate data at
// one locus for a fixed hypothesis. It is prepared once per locus and
// then shared read-only by all jobs for that locus.
type locusEvaluator struct {
	locus       string
	unknowns    int
	unknownDrop float64
	dropIn      float64
	stats       *profile.PopulationStatistics
	space       *genotypeSpace
	known       []alleleEntry
	replicates  []replicateAlleles
	priors      genotypeProbability
	denominator float64
	bound       int
}

func newLocusEvaluator(h *profile.Hypothesis, locusName string, replicates []*profile.Sample, space *genotypeSpace) *locusEvaluator {
	e := &locusEvaluator{
		locus:       locusName,
		unknowns:    h.UnknownCount,
		unknownDrop: h.UnknownDropoutProbability,
		dropIn:      h.DropInProbability,
		stats:       h.Statistics,
		space:       space,
		priors:      genotypeProbability{theta: h.Theta},
	}
	for _, contributor := range h.AllContributors() {
		if locus := contributor.Sample.Locus(locusName); locus != nil {
			e.known = appendEntries(e.known, locus, contributor.DropoutProbability)
		}
	}
	for _, replicate := range replicates {
		locus := replicate.Locus(locusName)
		if locus == nil {
			continue
		}
		var r replicateAlleles
		for _, allele := range locus.Alleles() {
			if containsID(r.ids, allele.ID()) {
				continue
			}
			r.ids = append(r.ids, allele.ID())
			r.frequencies = append(r.frequencies, h.Statistics.Frequency(locusName, allele.Value()))
		}
		e.replicates = append(e.replicates, r)
	}
	e.bound = e.idBound()
	e.priors.counts = make([]int, e.bound)
	for _, sample := range h.ConditioningSamples() {
		if locus := sample.Locus(locusName); locus != nil {
			for _, allele := range locus.Alleles() {
				if allele.ID() >= len(e.priors.counts) {
					counts := make([]int, allele.ID()+1)
					copy(counts, e.priors.counts)
					e.priors.counts = counts
				}
				e.priors.counts[allele.ID()]++
				e.priors.total++
			}
		}
	}
	e.denominator = thetaDenominator(e.priors.total, e.unknowns, h.Theta)
	return e
}

func containsID(ids []int, id int) bool {
	for _, other := range ids {
		if other == id {
			return true
		}
	}
	return false
}

func (e *locusEvaluator) idBound() int {
	bound := 0
	update := func(id int) {
		if id >= bound {
			bound = id + 1
		}
	}
	for _, entry := range e.known {
		update(entry.id)
	}
	for _, r := range e.replicates {
		for _, id := range r.ids {
			update(id)
		}
	}
	if e.space != nil {
		for id := range e.space.frequencies {
			update(id)
		}
	}
	return bound
}

// A scratch holds the per-job working memory of an evaluation.
type scratch struct {
	entries  []alleleEntry
	combined []float64
	visited  []bool
	observed []bool
}

func (e *locusEvaluator) newScratch() *scratch {
	return &scratch{
		entries:  make([]alleleEntry, 0, len(e.known)+2*e.unknowns),
		combined: make([]float64, e.bound),
		visited:  make([]bool, e.bound),
		observed: make([]bool, e.bound),
	}
}

// prior returns the genotype probability of an assignment of genotypes
// to the unknowns. Each unknown is conditioned on the base profiles
// only.
func (e *locusEvaluator) prior(genotypes []*profile.Locus) float64 {
	if len(genotypes) == 0 {
		return 1
	}
	result := 1.0
	for _, genotype := range genotypes {
		alleles := genotype.Alleles()
		first, second := alleles[0], alleles[1]
		result *= e.priors.genotype(
			first.ID(), e.space.frequency(e.stats, e.locus, first),
			second.ID(), e.space.frequency(e.stats, e.locus, second),
		)
	}
	return result / e.denominator
}

// replicateProbability returns the probability of the replicate
// alleles given the allele entries of all contributors, known and
// unknown.
func (e *locusEvaluator) replicateProbability(s *scratch, r replicateAlleles) float64 {
	for _, id := range r.ids {
		s.observed[id] = true
	}
	result := 1.0
	// dropped out
	for _, entry := range s.entries {
		if !s.observed[entry.id] {
			result *= entry.dropoutFactor()
		}
	}
	// present and explained
	for _, entry := range s.entries {
		if s.observed[entry.id] && !s.visited[entry.id] {
			s.visited[entry.id] = true
			result *= 1 - s.combined[entry.id]
		}
	}
	// dropped in
	dropIns := 0
	for i, id := range r.ids {
		if !s.visited[id] {
			dropIns++
			result *= e.dropIn * r.frequencies[i]
		}
	}
	if dropIns == 0 {
		result *= 1 - e.dropIn
	}
	for _, entry := range s.entries {
		s.visited[entry.id] = false
	}
	for _, id := range r.ids {
		s.observed[id] = false
	}
	return result
}

// evaluatePermutation returns the probability of all replicates for one
// assignment of genotypes to the unknowns, without prior or factor.
func (e *locusEvaluator) evaluatePermutation(s *scratch, genotypes []*profile.Locus) float64 {
	s.entries = append(s.entries[:0], e.known...)
	for _, genotype := range genotypes {
		s.entries = appendEntries(s.entries, genotype, e.unknownDrop)
	}
	for _, entry := range s.entries {
		s.combined[entry.id] = 1
	}
	for _, entry := range s.entries {
		s.combined[entry.id] *= entry.dropoutFactor()
	}
	result := 1.0
	for _, r := range e.replicates {
		result *= e.replicateProbability(s, r)
	}
	return result
}

// evaluate sums the probability over all permutations of the iterator.
// When the context is cancelled, it returns the partial sum together
// with the context's error; the partial sum is not a valid probability.
func (e *locusEvaluator) evaluate(ctx context.Context, it *PermutationIterator) (*LocusProbability, error) {
	result := &LocusProbability{Locus: e.locus}
	s := e.newScratch()
	count := 0
	defer func() {
		metrics.PermutationsEvaluated.Add(float64(count))
	}()
	done := ctx.Done()
	for it.HasNext() {
		select {
		case <-done:
			return result, ctx.Err()
		default:
		}
		permutation := it.Next()
		result.Add(e.prior(permutation.Genotypes) * e.evaluatePermutation(s, permutation.Genotypes) * permutation.Factor)
		count++
	}
	return result, nil
}
