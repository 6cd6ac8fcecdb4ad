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

// Package metrics holds the Prometheus counters that elmix maintains
// while evaluating likelihoods and estimating dropout probabilities.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LocusJobs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elmix_locus_jobs_total",
			Help: "Total number of locus probability jobs submitted",
		},
	)

	CandidateCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elmix_candidate_cache_lookups_total",
			Help: "Candidate locus cache lookups, by outcome",
		},
		[]string{"outcome"},
	)

	PermutationsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elmix_permutations_evaluated_total",
			Help: "Total number of unknown-contributor genotype permutations evaluated",
		},
	)

	LikelihoodDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elmix_likelihood_duration_seconds",
			Help:    "Time taken to calculate the likelihood of a hypothesis",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hypothesis"},
	)

	DropoutIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elmix_dropout_iterations_total",
			Help: "Total number of dropout estimation iterations simulated",
		},
	)
)

// CacheHit and CacheMiss label CandidateCacheLookups.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)
