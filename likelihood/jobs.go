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
	"fmt"

	"github.com/exascience/elmix/metrics"
	"github.com/exascience/elmix/profile"
)

// A locusJob evaluates one locus, or one batch of the permutations of
// a locus when there are unknown contributors. A job with a fixed
// result was resolved from the candidate cache.
type locusJob struct {
	locus      string
	key        *cacheKey
	fixed      *LocusProbability
	evaluator  *locusEvaluator
	start, end int
}

func (j *locusJob) task() Task {
	return func(ctx context.Context) (*LocusProbability, error) {
		var genotypes []*profile.Locus
		if j.evaluator.space != nil {
			genotypes = j.evaluator.space.genotypes
		}
		return j.evaluator.evaluate(ctx, NewPermutationIterator(j.evaluator.unknowns, genotypes, j.start, j.end))
	}
}

func (j *locusJob) submit(ctx context.Context, pool *Pool) *Future {
	if j.fixed != nil {
		return ResolvedFuture(j.fixed)
	}
	metrics.LocusJobs.Inc()
	return pool.Submit(ctx, j.task())
}

func hasLocus(samples []*profile.Sample, name string) bool {
	for _, sample := range samples {
		if sample.Locus(name) != nil {
			return true
		}
	}
	return false
}

/*
generateJobs splits the evaluation of a hypothesis into jobs.

For each enabled locus that is present in the replicates, and in the
candidate if there is one, it generates a single job when there are no
unknown contributors, and otherwise one job per genotype that the first
unknown can take. The number of jobs is thus driven by the size of the
genotype space rather than by the number of CPUs.

Loci for which the candidate cache already holds a result get a fixed
job instead.
*/
func (c *Calculator) generateJobs(h *profile.Hypothesis, enabledLoci []string, replicates []*profile.Sample, candidate *profile.Sample) ([]*locusJob, error) {
	var jobs []*locusJob
	generated := make(map[string]bool, len(enabledLoci))
	for _, name := range enabledLoci {
		if name == "" {
			return nil, profile.ErrMissingLocusName
		}
		if generated[name] || !hasLocus(replicates, name) {
			continue
		}
		var key *cacheKey
		if candidate != nil {
			locus := candidate.Locus(name)
			if locus == nil {
				continue
			}
			first, second, err := locus.Genotype()
			if err != nil {
				return nil, fmt.Errorf("candidate %v: %w", candidate.Name(), err)
			}
			key = &cacheKey{locus: locus.ID(), first: first, second: second}
			if value, ok := c.results.get(*key); ok {
				metrics.CandidateCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
				jobs = append(jobs, &locusJob{locus: name, key: key, fixed: &LocusProbability{Locus: name, Value: value}})
				generated[name] = true
				continue
			}
			metrics.CandidateCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		}
		generated[name] = true
		if h.UnknownCount == 0 {
			jobs = append(jobs, &locusJob{locus: name, key: key, evaluator: newLocusEvaluator(h, name, replicates, nil)})
			continue
		}
		space := c.genotypes(h, name, replicates)
		if len(space.genotypes) == 0 {
			jobs = append(jobs, &locusJob{locus: name, key: key, fixed: &LocusProbability{Locus: name}})
			continue
		}
		evaluator := newLocusEvaluator(h, name, replicates, space)
		for first := range space.genotypes {
			jobs = append(jobs, &locusJob{locus: name, key: key, evaluator: evaluator, start: first, end: first + 1})
		}
	}
	return jobs, nil
}
