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

// A genotypeProbability computes Hardy-Weinberg genotype probabilities
// for unknown contributors with a coancestry (theta) correction, given
// the alleles counted in the conditioning profiles.
type genotypeProbability struct {
	theta  float64
	counts []int
	total  int
}

func (g *genotypeProbability) count(allele int) int {
	if allele < len(g.counts) {
		return g.counts[allele]
	}
	return 0
}

// draw is the numerator of the probability to sample an allele with
// frequency p after it was already seen m times.
func (g *genotypeProbability) draw(m int, p float64) float64 {
	return float64(m)*g.theta + (1-g.theta)*p
}

// genotype returns the numerator of the probability of genotype
// (first, second). The denominator is shared by all unknowns and is
// computed by thetaDenominator.
func (g *genotypeProbability) genotype(first int, p1 float64, second int, p2 float64) float64 {
	m1 := g.count(first)
	if first == second {
		return g.draw(m1, p1) * g.draw(m1+1, p1)
	}
	return 2 * g.draw(m1, p1) * g.draw(g.count(second), p2)
}

// thetaDenominator returns the product of (1 + (i-1)*theta) for i
// ranging over [total, total+2*unknowns).
func thetaDenominator(total, unknowns int, theta float64) float64 {
	if theta == 0 {
		return 1
	}
	result := 1.0
	for i := total; i < total+2*unknowns; i++ {
		result *= 1 + float64(i-1)*theta
	}
	return result
}
