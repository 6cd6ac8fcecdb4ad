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
	"time"

	"github.com/exascience/elmix/metrics"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

/*
A Calculator evaluates the likelihood of the replicate data under a
hypothesis.

A Calculator caches the genotype spaces of the loci it has seen, and the
per-locus results for the candidate genotypes it has evaluated. Both
caches are only valid for a single hypothesis and a fixed set of
replicates, so a search uses one Calculator per hypothesis, and calls
Reset before it starts over with different data.

A Calculator must not be used by more than one goroutine at a time. The
jobs it generates run on its Pool.
*/
type Calculator struct {
	registry       *utils.Registry
	pool           *Pool
	genotypeSpaces map[string]*genotypeSpace
	results        *resultCache

	// Progress, if not nil, is called with the percentage of
	// completed jobs after each job has been collected.
	Progress ProgressFunc
}

// NewCalculator returns a Calculator that interns alleles in the given
// registry and runs its jobs on the given pool. A nil pool means
// DefaultPool().
func NewCalculator(registry *utils.Registry, pool *Pool) *Calculator {
	if pool == nil {
		pool = DefaultPool()
	}
	return &Calculator{
		registry:       registry,
		pool:           pool,
		genotypeSpaces: make(map[string]*genotypeSpace),
		results:        newResultCache(CandidateCacheSize),
	}
}

// Reset invalidates the genotype space cache and the candidate cache.
func (c *Calculator) Reset() {
	c.genotypeSpaces = make(map[string]*genotypeSpace)
	c.results.reset()
}

type collectResult struct {
	likelihoods *LocusLikelihoods
	err         error
}

// CalculateLikelihood returns the per-locus probabilities of the
// replicates under the hypothesis, for the enabled loci that the
// replicates (and the candidate, if not nil) have data for.
//
// When ctx is cancelled, CalculateLikelihood returns ctx.Err() and no
// likelihoods.
func (c *Calculator) CalculateLikelihood(ctx context.Context, h *profile.Hypothesis, enabledLoci []string, replicates []*profile.Sample, candidate *profile.Sample) (*LocusLikelihoods, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	if candidate != nil {
		h = h.Bind(candidate)
	}
	jobs, err := c.generateJobs(h, enabledLoci, replicates, candidate)
	if err != nil {
		return nil, err
	}
	futures := make([]*Future, len(jobs))
	loci := make([]string, len(jobs))
	for i, job := range jobs {
		futures[i] = job.submit(ctx, c.pool)
		loci[i] = job.locus
	}
	done := make(chan collectResult, 1)
	go func() {
		likelihoods, err := collect(ctx, futures, loci, c.Progress)
		done <- collectResult{likelihoods, err}
	}()
	result := <-done
	if result.err != nil {
		return nil, result.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if candidate != nil {
		for _, job := range jobs {
			if job.key == nil || job.fixed != nil {
				continue
			}
			if value, ok := result.likelihoods.Get(job.locus); ok {
				c.results.put(*job.key, value)
			}
		}
	}
	metrics.LikelihoodDuration.WithLabelValues(h.Kind.String()).Observe(time.Since(start).Seconds())
	return result.likelihoods, nil
}
