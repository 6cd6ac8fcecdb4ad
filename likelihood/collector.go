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
	"errors"
	"fmt"
	"math"
)

// A ProgressFunc receives the percentage of completed jobs.
type ProgressFunc func(percent int)

// A JobError reports the failure of a locus probability job.
type JobError struct {
	Locus string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("evaluation of locus %v failed: %v", e.Locus, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// LocusLikelihoods maps locus names to probabilities, in the order in
// which the loci were evaluated.
type LocusLikelihoods struct {
	order  []string
	values map[string]float64
}

func newLocusLikelihoods() *LocusLikelihoods {
	return &LocusLikelihoods{values: make(map[string]float64)}
}

func (l *LocusLikelihoods) add(locus string, value float64) {
	if _, ok := l.values[locus]; !ok {
		l.order = append(l.order, locus)
	}
	l.values[locus] += value
}

// Get returns the probability for a locus.
func (l *LocusLikelihoods) Get(locus string) (float64, bool) {
	value, ok := l.values[locus]
	return value, ok
}

// Loci returns the evaluated loci in evaluation order.
func (l *LocusLikelihoods) Loci() []string {
	return append([]string(nil), l.order...)
}

// Len returns the number of evaluated loci.
func (l *LocusLikelihoods) Len() int {
	return len(l.order)
}

// Product returns the overall likelihood, the product of the
// probabilities of all loci.
func (l *LocusLikelihoods) Product() float64 {
	result := 1.0
	for _, locus := range l.order {
		result *= l.values[locus]
	}
	return result
}

// Ratio returns the likelihood ratio of the loci evaluated under both
// hypotheses.
func Ratio(hp, hd *LocusLikelihoods) float64 {
	ratios := LocusRatios(hp, hd)
	result := 1.0
	for _, locus := range hp.order {
		if ratio, ok := ratios[locus]; ok {
			result *= ratio
		}
	}
	return result
}

// LocusRatios returns the per-locus likelihood ratios of the loci
// evaluated under both hypotheses. A locus with zero probability under
// the defense hypothesis gets an infinite ratio.
func LocusRatios(hp, hd *LocusLikelihoods) map[string]float64 {
	result := make(map[string]float64, len(hp.order))
	for _, locus := range hp.order {
		d, ok := hd.values[locus]
		if !ok {
			continue
		}
		p := hp.values[locus]
		switch {
		case d != 0:
			result[locus] = p / d
		case p == 0:
			result[locus] = math.NaN()
		default:
			result[locus] = math.Inf(1)
		}
	}
	return result
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func cancelAll(futures []*Future) {
	for _, f := range futures {
		f.Cancel()
	}
}

// collect waits for the futures in submission order and sums their
// contributions per locus. Cancelled futures contribute nothing; any
// other failure cancels the remaining futures and aborts.
func collect(ctx context.Context, futures []*Future, loci []string, progress ProgressFunc) (*LocusLikelihoods, error) {
	likelihoods := newLocusLikelihoods()
	for i, f := range futures {
		select {
		case <-ctx.Done():
			cancelAll(futures[i:])
			return nil, ctx.Err()
		default:
		}
		result, err := f.Get(ctx)
		switch {
		case err == nil:
			likelihoods.add(result.Locus, result.Value)
		case isCancellation(err):
			if ctx.Err() != nil {
				cancelAll(futures[i:])
				return nil, ctx.Err()
			}
		default:
			cancelAll(futures[i+1:])
			return nil, &JobError{Locus: loci[i], Err: err}
		}
		if progress != nil {
			progress(100 * (i + 1) / len(futures))
		}
	}
	return likelihoods, nil
}
