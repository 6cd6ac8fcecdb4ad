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
)

// Kind discriminates prosecution from defense hypotheses.
type Kind int

const (
	// Prosecution hypotheses (Hp) include the candidate as a contributor.
	Prosecution Kind = iota
	// Defense hypotheses (Hd) explain the evidence without the candidate.
	Defense
)

func (k Kind) String() string {
	switch k {
	case Prosecution:
		return "Hp"
	case Defense:
		return "Hd"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Contributor is a known profile assumed to contribute to the
// mixture, with its own dropout probability.
type Contributor struct {
	Sample             *Sample
	DropoutProbability float64
}

// A Hypothesis describes who contributed to a mixture.
type Hypothesis struct {
	Kind                      Kind
	Contributors              []Contributor
	UnknownCount              int
	UnknownDropoutProbability float64
	DropInProbability         float64
	Theta                     float64
	Statistics                *PopulationStatistics

	// QDesignationShutdown stops known contributor alleles from being
	// added to the alleles enumerated for unknown contributors.
	QDesignationShutdown bool

	// CandidateDropoutProbability is used for the candidate when a
	// prosecution hypothesis is bound to it.
	CandidateDropoutProbability float64

	candidate *Sample
}

// Bind returns a copy of the hypothesis that is evaluated for the
// given candidate. Under a prosecution hypothesis the candidate is an
// additional contributor; under a defense hypothesis it is not. In
// both cases the candidate's alleles condition the genotype
// probabilities of the unknowns.
func (h *Hypothesis) Bind(candidate *Sample) *Hypothesis {
	bound := *h
	bound.candidate = candidate
	return &bound
}

// Candidate returns the bound candidate, or nil.
func (h *Hypothesis) Candidate() *Sample {
	return h.candidate
}

// AllContributors returns the known contributors, including a bound
// candidate under a prosecution hypothesis.
func (h *Hypothesis) AllContributors() []Contributor {
	if h.candidate == nil || h.Kind != Prosecution {
		return h.Contributors
	}
	result := make([]Contributor, 0, len(h.Contributors)+1)
	result = append(result, h.Contributors...)
	return append(result, Contributor{Sample: h.candidate, DropoutProbability: h.CandidateDropoutProbability})
}

// ConditioningSamples returns the profiles whose alleles are counted
// when computing genotype probabilities for unknowns: all known
// contributors plus the bound candidate.
func (h *Hypothesis) ConditioningSamples() []*Sample {
	result := make([]*Sample, 0, len(h.Contributors)+1)
	for _, contributor := range h.Contributors {
		result = append(result, contributor.Sample)
	}
	if h.candidate != nil {
		result = append(result, h.candidate)
	}
	return result
}

func checkProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%v %v is not a probability", name, p)
	}
	return nil
}

// Validate checks that the hypothesis can be evaluated.
func (h *Hypothesis) Validate() error {
	if h.Statistics == nil {
		return errors.New("hypothesis without population statistics")
	}
	if h.UnknownCount < 0 {
		return fmt.Errorf("negative number of unknown contributors %v", h.UnknownCount)
	}
	if h.Theta < 0 || h.Theta >= 1 {
		return fmt.Errorf("theta %v out of range [0, 1)", h.Theta)
	}
	if err := checkProbability("unknown dropout", h.UnknownDropoutProbability); err != nil {
		return err
	}
	if err := checkProbability("drop-in", h.DropInProbability); err != nil {
		return err
	}
	if err := checkProbability("candidate dropout", h.CandidateDropoutProbability); err != nil {
		return err
	}
	for _, contributor := range h.Contributors {
		if contributor.Sample == nil {
			return errors.New("contributor without sample")
		}
		if err := checkProbability("dropout of "+contributor.Sample.Name(), contributor.DropoutProbability); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hypothesis) String() string {
	return fmt.Sprintf("%v(contributors=%v, unknowns=%v, theta=%v, dropin=%v)",
		h.Kind, len(h.AllContributors()), h.UnknownCount, h.Theta, h.DropInProbability)
}
