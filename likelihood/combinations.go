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
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// A genotypeSpace holds all genotypes an unknown contributor can have
// at a locus, together with the frequencies of the alleles involved.
type genotypeSpace struct {
	genotypes   []*profile.Locus
	frequencies map[int]float64
}

func (space *genotypeSpace) frequency(stats *profile.PopulationStatistics, locus string, allele *profile.Allele) float64 {
	if f, ok := space.frequencies[allele.ID()]; ok {
		return f
	}
	return stats.Frequency(locus, allele.Value())
}

// candidateAlleles returns the allele values considered possible for
// unknown contributors at a locus: the alleles seen in the replicates,
// and, unless Q-designation is shut down, the known contributors'
// alleles that are not rare. The order is the order of first
// appearance.
func candidateAlleles(h *profile.Hypothesis, locusName string, replicates []*profile.Sample) []string {
	var values []string
	seen := make(map[string]bool)
	add := func(locus *profile.Locus) {
		if locus == nil {
			return
		}
		for _, allele := range locus.Alleles() {
			if value := allele.Value(); !seen[value] {
				seen[value] = true
				values = append(values, value)
			}
		}
	}
	for _, replicate := range replicates {
		add(replicate.Locus(locusName))
	}
	if !h.QDesignationShutdown {
		for _, contributor := range h.Contributors {
			locus := contributor.Sample.Locus(locusName)
			if locus == nil {
				continue
			}
			for _, allele := range locus.Alleles() {
				value := allele.Value()
				if !seen[value] && !h.Statistics.IsRare(locusName, value) {
					seen[value] = true
					values = append(values, value)
				}
			}
		}
	}
	return values
}

// enumerateGenotypes builds all unordered pairs (i <= j) of the given
// allele values, plus a synthetic allele that carries the frequency mass
// of all other alleles.
func enumerateGenotypes(registry *utils.Registry, stats *profile.PopulationStatistics, locusName string, values []string) *genotypeSpace {
	space := &genotypeSpace{frequencies: make(map[int]float64, len(values)+1)}
	for _, value := range values {
		space.frequencies[registry.AlleleID(value)] = stats.Frequency(locusName, value)
	}
	if other := stats.OtherFrequency(locusName, values); other > 0 {
		value := locusName + profile.OtherSuffix
		space.frequencies[registry.AlleleID(value)] = other
		values = append(values[:len(values):len(values)], value)
	}
	n := len(values)
	space.genotypes = make([]*profile.Locus, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			space.genotypes = append(space.genotypes, profile.NewLocus(registry, locusName, values[i], values[j]))
		}
	}
	return space
}

// genotypes returns the cached genotype space for a locus, computing
// it on first use. Only the goroutine that owns the Calculator may call
// this.
func (c *Calculator) genotypes(h *profile.Hypothesis, locusName string, replicates []*profile.Sample) *genotypeSpace {
	if space, ok := c.genotypeSpaces[locusName]; ok {
		return space
	}
	space := enumerateGenotypes(c.registry, h.Statistics, locusName, candidateAlleles(h, locusName, replicates))
	c.genotypeSpaces[locusName] = space
	return space
}
