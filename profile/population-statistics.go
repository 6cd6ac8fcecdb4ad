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

package profile

import "sort"

// DefaultRareAlleleFrequency is the frequency used for alleles that are
// not listed in a population statistics table.
const DefaultRareAlleleFrequency = 0.001

// OtherSuffix is appended to a locus name to form the value of the
// synthetic allele that stands for all alleles not enumerated.
const OtherSuffix = "-other"

// PopulationStatistics is a per-locus allele frequency table.
// It is read-only once populated, and can then be shared between
// goroutines.
type PopulationStatistics struct {
	Name                string
	RareAlleleFrequency float64
	frequencies         map[string]map[string]float64
}

// NewPopulationStatistics returns an empty table.
func NewPopulationStatistics(name string) *PopulationStatistics {
	return &PopulationStatistics{
		Name:                name,
		RareAlleleFrequency: DefaultRareAlleleFrequency,
		frequencies:         make(map[string]map[string]float64),
	}
}

// AddFrequency sets the frequency of an allele at a locus.
func (s *PopulationStatistics) AddFrequency(locus, allele string, frequency float64) {
	alleles := s.frequencies[locus]
	if alleles == nil {
		alleles = make(map[string]float64)
		s.frequencies[locus] = alleles
	}
	alleles[allele] = frequency
}

// Frequency returns the frequency of the allele at the locus. Unlisted
// alleles get the rare allele frequency.
func (s *PopulationStatistics) Frequency(locus, allele string) float64 {
	if f, ok := s.frequencies[locus][allele]; ok {
		return f
	}
	return s.RareAlleleFrequency
}

// IsRare checks whether the allele is unlisted, or listed with a
// frequency no larger than the rare allele frequency.
func (s *PopulationStatistics) IsRare(locus, allele string) bool {
	f, ok := s.frequencies[locus][allele]
	return !ok || f <= s.RareAlleleFrequency
}

// OtherFrequency returns the frequency mass that is not covered by the
// given alleles at the locus, but never less than zero.
func (s *PopulationStatistics) OtherFrequency(locus string, alleles []string) float64 {
	residual := 1.0
	for _, allele := range alleles {
		residual -= s.Frequency(locus, allele)
	}
	if residual < 0 {
		return 0
	}
	return residual
}

// Alleles returns the listed alleles of a locus, sorted by value.
func (s *PopulationStatistics) Alleles(locus string) []string {
	result := make([]string, 0, len(s.frequencies[locus]))
	for allele := range s.frequencies[locus] {
		result = append(result, allele)
	}
	sort.Strings(result)
	return result
}

// Loci returns the names of all loci in the table, sorted.
func (s *PopulationStatistics) Loci() []string {
	result := make([]string, 0, len(s.frequencies))
	for locus := range s.frequencies {
		result = append(result, locus)
	}
	sort.Strings(result)
	return result
}
