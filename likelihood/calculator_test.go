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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elmix/metrics"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

var enabledLoci = []string{"FGA", "TH01"}

func makeHypotheses(stats *profile.PopulationStatistics) (hp, hd *profile.Hypothesis) {
	hp = &profile.Hypothesis{Kind: profile.Prosecution, CandidateDropoutProbability: 0.1, Statistics: stats}
	hd = &profile.Hypothesis{Kind: profile.Defense, UnknownCount: 1, UnknownDropoutProbability: 0.1, Statistics: stats}
	return
}

func TestLikelihoodRatio(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	pool := newTestPool(t)
	replicate := makeSample(registry, "r", "FGA", "20,21", "TH01", "6,7")
	candidate := makeSample(registry, "suspect", "FGA", "20,21", "TH01", "6,7")
	hp, hd := makeHypotheses(stats)

	lhp, err := NewCalculator(registry, pool).CalculateLikelihood(context.Background(), hp, enabledLoci, []*profile.Sample{replicate}, candidate)
	require.NoError(t, err)
	lhd, err := NewCalculator(registry, pool).CalculateLikelihood(context.Background(), hd, enabledLoci, []*profile.Sample{replicate}, candidate)
	require.NoError(t, err)

	assert.Equal(t, enabledLoci, lhp.Loci())
	assert.Equal(t, enabledLoci, lhd.Loci())
	fga, _ := lhp.Get("FGA")
	assert.InDelta(t, 0.81, fga, 1e-12)
	fga, _ = lhd.Get("FGA")
	assert.InDelta(t, 2*0.1*0.2*0.81, fga, 1e-12)
	ratios := LocusRatios(lhp, lhd)
	assert.InDelta(t, 25, ratios["FGA"], 1e-9)
	assert.InDelta(t, 8, ratios["TH01"], 1e-9)
	assert.InDelta(t, 200, Ratio(lhp, lhd), 1e-7)
	assert.InDelta(t, lhp.Product()/lhd.Product(), Ratio(lhp, lhd), 1e-7)
}

func TestLikelihoodZeroUnknownsOneJobPerLocus(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21", "TH01", "6,7")
	candidate := makeSample(registry, "suspect", "FGA", "20,21", "TH01", "6,7")
	hp, hd := makeHypotheses(stats)
	c := NewCalculator(registry, newTestPool(t))

	jobs, err := c.generateJobs(hp.Bind(candidate), enabledLoci, []*profile.Sample{replicate}, candidate)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	// two alleles plus other at each locus
	jobs, err = c.generateJobs(hd.Bind(candidate), enabledLoci, []*profile.Sample{replicate}, candidate)
	require.NoError(t, err)
	assert.Len(t, jobs, 6+6)
}

func TestLikelihoodBatchesMatchSingleEvaluation(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	victim := makeSample(registry, "victim", "FGA", "22,23")
	replicate1 := makeSample(registry, "r1", "FGA", "20,21,22")
	replicate2 := makeSample(registry, "r2", "FGA", "20,22,23")
	candidate := makeSample(registry, "suspect", "FGA", "20,20")
	h := &profile.Hypothesis{
		Kind:                      profile.Defense,
		Contributors:              []profile.Contributor{{Sample: victim, DropoutProbability: 0.05}},
		UnknownCount:              2,
		UnknownDropoutProbability: 0.2,
		DropInProbability:         0.05,
		Theta:                     0.02,
		Statistics:                stats,
	}
	replicates := []*profile.Sample{replicate1, replicate2}
	c := NewCalculator(registry, newTestPool(t))
	likelihoods, err := c.CalculateLikelihood(context.Background(), h, []string{"FGA"}, replicates, candidate)
	require.NoError(t, err)
	batched, ok := likelihoods.Get("FGA")
	require.True(t, ok)

	bound := h.Bind(candidate)
	space := enumerateGenotypes(registry, stats, "FGA", candidateAlleles(bound, "FGA", replicates))
	e := newLocusEvaluator(bound, "FGA", replicates, space)
	single, err := e.evaluate(context.Background(), NewPermutationIterator(2, space.genotypes, 0, len(space.genotypes)))
	require.NoError(t, err)
	assert.Greater(t, single.Value, 0.0)
	assert.InDelta(t, single.Value, batched, 1e-15)
}

func TestCandidateCache(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21,22", "TH01", "6,7")
	first := makeSample(registry, "first", "FGA", "20,21", "TH01", "6,7")
	second := makeSample(registry, "second", "FGA", "21,20", "TH01", "6,7")
	third := makeSample(registry, "third", "FGA", "20,21", "TH01", "7,9.3")
	_, hd := makeHypotheses(stats)
	hd.UnknownCount = 2
	c := NewCalculator(registry, newTestPool(t))
	replicates := []*profile.Sample{replicate}

	hits := func() float64 {
		return testutil.ToFloat64(metrics.CandidateCacheLookups.WithLabelValues(metrics.CacheHit))
	}
	start := hits()
	l1, err := c.CalculateLikelihood(context.Background(), hd, enabledLoci, replicates, first)
	require.NoError(t, err)
	assert.Equal(t, start, hits())
	assert.Equal(t, 2, c.results.len())

	l2, err := c.CalculateLikelihood(context.Background(), hd, enabledLoci, replicates, second)
	require.NoError(t, err)
	assert.Equal(t, start+2, hits())
	for _, locus := range enabledLoci {
		v1, _ := l1.Get(locus)
		v2, _ := l2.Get(locus)
		assert.Equal(t, v1, v2, locus)
	}

	_, err = c.CalculateLikelihood(context.Background(), hd, enabledLoci, replicates, third)
	require.NoError(t, err)
	assert.Equal(t, start+3, hits())
	assert.Equal(t, 3, c.results.len())

	c.Reset()
	assert.Equal(t, 0, c.results.len())
	assert.Empty(t, c.genotypeSpaces)
}

func TestMalformedInput(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21")
	malformed := makeSample(registry, "malformed", "FGA", "20,21,22")
	hp, _ := makeHypotheses(stats)
	c := NewCalculator(registry, newTestPool(t))

	_, err := c.CalculateLikelihood(context.Background(), hp, []string{"FGA"}, []*profile.Sample{replicate}, malformed)
	assert.True(t, errors.Is(err, profile.ErrMalformedLocus))

	_, err = c.CalculateLikelihood(context.Background(), hp, []string{""}, []*profile.Sample{replicate}, nil)
	assert.True(t, errors.Is(err, profile.ErrMissingLocusName))

	_, err = c.CalculateLikelihood(context.Background(), &profile.Hypothesis{}, []string{"FGA"}, []*profile.Sample{replicate}, nil)
	assert.Error(t, err)
}

func TestLociWithoutData(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21", "TH01", "6,7")
	candidate := makeSample(registry, "suspect", "FGA", "20,21")
	hp, _ := makeHypotheses(stats)
	c := NewCalculator(registry, newTestPool(t))
	likelihoods, err := c.CalculateLikelihood(context.Background(), hp, []string{"FGA", "TH01", "vWA", "FGA"}, []*profile.Sample{replicate}, candidate)
	require.NoError(t, err)
	assert.Equal(t, []string{"FGA"}, likelihoods.Loci())
}

func TestLikelihoodCancellation(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21,22,23")
	h := &profile.Hypothesis{Kind: profile.Defense, UnknownCount: 3, UnknownDropoutProbability: 0.2, DropInProbability: 0.05, Statistics: stats}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewCalculator(registry, newTestPool(t))
	c.Progress = func(int) { cancel() }

	done := make(chan error, 1)
	go func() {
		_, err := c.CalculateLikelihood(ctx, h, []string{"FGA"}, []*profile.Sample{replicate}, nil)
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("cancelled likelihood calculation did not return")
	}
}
