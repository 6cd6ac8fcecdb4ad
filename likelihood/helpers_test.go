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
	"strings"
	"testing"

	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// makeSample builds a sample from alternating locus names and
// comma-separated allele lists.
func makeSample(registry *utils.Registry, name string, loci ...string) *profile.Sample {
	sample := profile.NewSample(name)
	for i := 0; i+1 < len(loci); i += 2 {
		var values []string
		if loci[i+1] != "" {
			values = strings.Split(loci[i+1], ",")
		}
		sample.AddLocus(profile.NewLocus(registry, loci[i], values...))
	}
	return sample
}

func makeStatistics() *profile.PopulationStatistics {
	stats := profile.NewPopulationStatistics("test")
	stats.AddFrequency("FGA", "20", 0.1)
	stats.AddFrequency("FGA", "21", 0.2)
	stats.AddFrequency("FGA", "22", 0.3)
	stats.AddFrequency("FGA", "23", 0.15)
	stats.AddFrequency("TH01", "6", 0.25)
	stats.AddFrequency("TH01", "7", 0.25)
	stats.AddFrequency("TH01", "9.3", 0.4)
	return stats
}

func makeGenotypes(registry *utils.Registry, k int) []*profile.Locus {
	result := make([]*profile.Locus, k)
	for i := range result {
		result[i] = profile.NewLocus(registry, "L", strings.Repeat("x", i+1), strings.Repeat("y", i+1))
	}
	return result
}

func newTestPool(t *testing.T) *Pool {
	pool := NewPool(4)
	t.Cleanup(pool.Close)
	return pool
}
