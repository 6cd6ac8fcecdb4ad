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
	"errors"
	"math"
	"sort"

	psort "github.com/exascience/pargo/sort"
	"gonum.org/v1/gonum/stat"
)

// HistogramSize is the number of dropout probability steps simulated,
// 0.00 to 0.99 in steps of 0.01.
const HistogramSize = 100

// ErrNoMatchingAttempts is returned when no simulated dropout
// probability reproduced the observed allele count.
var ErrNoMatchingAttempts = errors.New("no simulated dropout probability reproduced the observed allele count; check the realism of the number of contributors")

// An Estimation is the result of a dropout estimation run.
type Estimation struct {
	// Minimum and Maximum are the configured percentiles of the
	// successful dropout probabilities.
	Minimum, Maximum float64

	// Values are the successful dropout probabilities, sorted.
	Values []float64

	// Histogram counts the successes per dropout probability step.
	Histogram [HistogramSize]int

	ObservedAlleleCount int
	Iterations          int
}

type float64Sorter []float64

func (s float64Sorter) SequentialSort(i, j int) {
	sort.Float64s(s[i:j])
}

func (s float64Sorter) NewTemp() psort.StableSorter {
	return float64Sorter(make([]float64, len(s)))
}

func (s float64Sorter) Len() int {
	return len(s)
}

func (s float64Sorter) Less(i, j int) bool {
	return s[i] < s[j]
}

func (s float64Sorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(float64Sorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

func bucket(value float64) int {
	b := int(math.Round(value * HistogramSize))
	if b < 0 {
		return 0
	}
	if b >= HistogramSize {
		return HistogramSize - 1
	}
	return b
}

func percentile(sorted []float64, p float64) float64 {
	return sorted[int(p*float64(len(sorted)-1))]
}

func newEstimation(values []float64, iterations, observed int, minimumPercentile, maximumPercentile float64) (*Estimation, error) {
	if len(values) == 0 {
		return nil, ErrNoMatchingAttempts
	}
	psort.StableSort(float64Sorter(values))
	e := &Estimation{
		Values:              values,
		Minimum:             percentile(values, minimumPercentile),
		Maximum:             percentile(values, maximumPercentile),
		ObservedAlleleCount: observed,
		Iterations:          iterations,
	}
	for _, value := range values {
		e.Histogram[bucket(value)]++
	}
	return e, nil
}

// Mean returns the average successful dropout probability.
func (e *Estimation) Mean() float64 {
	return stat.Mean(e.Values, nil)
}
