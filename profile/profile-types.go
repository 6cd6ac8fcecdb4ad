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

import (
	"errors"
	"fmt"
	"strings"

	"github.com/exascience/elmix/utils"
)

var (
	// ErrMalformedLocus is returned when a reference or candidate locus
	// does not have exactly two alleles.
	ErrMalformedLocus = errors.New("locus does not have exactly two alleles")

	// ErrMissingLocusName is returned for loci without a name.
	ErrMissingLocusName = errors.New("locus without a name")
)

// An Allele is an allele value registered in a Registry.
type Allele struct {
	value      string
	id         int
	homozygote bool
}

// Value returns the allele value as it was typed, for example "10"
// or "9.3".
func (a *Allele) Value() string {
	return a.value
}

// ID returns the registry ID of the allele value. Alleles with equal
// values have equal IDs.
func (a *Allele) ID() int {
	return a.id
}

// IsHomozygote is true if the locus that holds this allele holds it
// twice.
func (a *Allele) IsHomozygote() bool {
	return a.homozygote
}

func (a *Allele) String() string {
	return a.value
}

// A Locus is a named genetic marker with the alleles observed or
// assumed for it.
//
// Loci of reference profiles and candidates hold exactly two alleles,
// which may be equal. Loci of crime-scene replicates may hold any
// number of distinct alleles. Synthetic loci, which represent
// genotypes assigned to unknown contributors, have no Sample.
type Locus struct {
	name    string
	id      int
	alleles []*Allele
	sample  *Sample
}

// NewLocus returns a Locus with the given name and allele values.
// Equal values are flagged as homozygote.
func NewLocus(registry *utils.Registry, name string, values ...string) *Locus {
	locus := &Locus{
		name:    name,
		id:      registry.LocusID(name),
		alleles: make([]*Allele, 0, len(values)),
	}
	for _, value := range values {
		allele := &Allele{value: value, id: registry.AlleleID(value)}
		for _, other := range locus.alleles {
			if other.id == allele.id {
				other.homozygote = true
				allele.homozygote = true
			}
		}
		locus.alleles = append(locus.alleles, allele)
	}
	return locus
}

// NewReferenceLocus returns a Locus for a reference profile. A single
// allele value is duplicated, so that the locus becomes homozygous.
func NewReferenceLocus(registry *utils.Registry, name string, values ...string) (*Locus, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingLocusName
	}
	switch len(values) {
	case 1:
		return NewLocus(registry, name, values[0], values[0]), nil
	case 2:
		return NewLocus(registry, name, values...), nil
	default:
		return nil, fmt.Errorf("%w: %v has %v alleles", ErrMalformedLocus, name, len(values))
	}
}

// Name returns the locus name.
func (l *Locus) Name() string {
	return l.name
}

// ID returns the registry ID of the locus name.
func (l *Locus) ID() int {
	return l.id
}

// Alleles returns the alleles of the locus. The result must not be
// modified.
func (l *Locus) Alleles() []*Allele {
	return l.alleles
}

// Size returns the number of alleles of the locus.
func (l *Locus) Size() int {
	return len(l.alleles)
}

// Sample returns the sample this locus belongs to, or nil for
// synthetic loci.
func (l *Locus) Sample() *Sample {
	return l.sample
}

// HasAllele checks whether the locus holds an allele with the given
// registry ID.
func (l *Locus) HasAllele(id int) bool {
	for _, allele := range l.alleles {
		if allele.id == id {
			return true
		}
	}
	return false
}

// IsHomozygote checks whether the locus holds the same allele twice.
func (l *Locus) IsHomozygote() bool {
	return len(l.alleles) == 2 && l.alleles[0].id == l.alleles[1].id
}

// Genotype returns the two allele IDs of the locus in ascending order.
func (l *Locus) Genotype() (first, second int, err error) {
	if len(l.alleles) != 2 {
		return -1, -1, fmt.Errorf("%w: %v has %v alleles", ErrMalformedLocus, l.name, len(l.alleles))
	}
	first, second = l.alleles[0].id, l.alleles[1].id
	if first > second {
		first, second = second, first
	}
	return first, second, nil
}

func (l *Locus) String() string {
	values := make([]string, len(l.alleles))
	for i, allele := range l.alleles {
		values[i] = allele.value
	}
	return l.name + "[" + strings.Join(values, ",") + "]"
}

// A Sample is a named profile: a crime-scene replicate, a known
// reference, or a candidate.
type Sample struct {
	name  string
	loci  map[string]*Locus
	order []string
}

// NewSample returns an empty Sample.
func NewSample(name string) *Sample {
	return &Sample{name: name, loci: make(map[string]*Locus)}
}

// Name returns the sample name.
func (s *Sample) Name() string {
	return s.name
}

// AddLocus adds a locus to the sample, replacing any locus with the
// same name. The locus is owned by the sample afterwards.
func (s *Sample) AddLocus(locus *Locus) {
	if _, found := s.loci[locus.name]; !found {
		s.order = append(s.order, locus.name)
	}
	locus.sample = s
	s.loci[locus.name] = locus
}

// Locus returns the locus with the given name, or nil.
func (s *Sample) Locus(name string) *Locus {
	return s.loci[name]
}

// Loci returns all loci in the order they were added.
func (s *Sample) Loci() []*Locus {
	result := make([]*Locus, len(s.order))
	for i, name := range s.order {
		result[i] = s.loci[name]
	}
	return result
}

func (s *Sample) String() string {
	return s.name
}
