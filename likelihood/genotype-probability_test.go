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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThetaDenominator(t *testing.T) {
	for total := 0; total < 6; total++ {
		for unknowns := 0; unknowns < 4; unknowns++ {
			assert.Equal(t, 1.0, thetaDenominator(total, unknowns, 0))
		}
	}
	for total := 2; total < 6; total++ {
		previous := thetaDenominator(total, 0, 0.03)
		assert.Equal(t, 1.0, previous)
		for unknowns := 1; unknowns < 4; unknowns++ {
			d := thetaDenominator(total, unknowns, 0.03)
			assert.Greater(t, d, previous, "total=%v unknowns=%v", total, unknowns)
			previous = d
		}
	}
	// (1 + 1*0.1) * (1 + 2*0.1)
	assert.InDelta(t, 1.1*1.2, thetaDenominator(2, 1, 0.1), 1e-12)
}

func TestGenotypeProbabilityHardyWeinberg(t *testing.T) {
	g := genotypeProbability{}
	assert.InDelta(t, 2*0.1*0.2, g.genotype(0, 0.1, 1, 0.2), 1e-15)
	assert.InDelta(t, 0.1*0.1, g.genotype(0, 0.1, 0, 0.1), 1e-15)
}

func TestGenotypeProbabilityTheta(t *testing.T) {
	const theta = 0.05
	// allele 0 seen twice, allele 1 once
	g := genotypeProbability{theta: theta, counts: []int{2, 1}, total: 3}
	p0, p1 := 0.1, 0.2
	het := 2 * (2*theta + (1-theta)*p0) * (1*theta + (1-theta)*p1)
	hom := (2*theta + (1-theta)*p0) * (3*theta + (1-theta)*p0)
	assert.InDelta(t, het, g.genotype(0, p0, 1, p1), 1e-15)
	assert.InDelta(t, hom, g.genotype(0, p0, 0, p0), 1e-15)
	// unseen allele beyond the count table
	unseen := 2 * (theta*0 + (1-theta)*0.3) * (1*theta + (1-theta)*p1)
	assert.InDelta(t, unseen, g.genotype(7, 0.3, 1, p1), 1e-15)
}
