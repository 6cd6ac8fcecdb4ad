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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

func evaluateKnown(t *testing.T, h *profile.Hypothesis, replicates ...*profile.Sample) float64 {
	t.Helper()
	e := newLocusEvaluator(h, "FGA", replicates, nil)
	result, err := e.evaluate(context.Background(), NewPermutationIterator(0, nil, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "FGA", result.Locus)
	return result.Value
}

func TestEvaluatorHomozygoteDropout(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	const p = 0.3
	hom := makeSample(registry, "hom", "FGA", "21,21")
	het := makeSample(registry, "het", "FGA", "21,22")
	empty := makeSample(registry, "r0", "FGA", "")
	only21 := makeSample(registry, "r1", "FGA", "21")

	hHom := &profile.Hypothesis{Contributors: []profile.Contributor{{Sample: hom, DropoutProbability: p}}, Statistics: stats}
	hHet := &profile.Hypothesis{Contributors: []profile.Contributor{{Sample: het, DropoutProbability: p}}, Statistics: stats}

	assert.InDelta(t, p*p, evaluateKnown(t, hHom, empty), 1e-15)
	assert.InDelta(t, 1-p*p, evaluateKnown(t, hHom, only21), 1e-15)
	assert.InDelta(t, p*(1-p), evaluateKnown(t, hHet, only21), 1e-15)
	assert.InDelta(t, p*p, evaluateKnown(t, hHet, empty), 1e-15)
}

func TestEvaluatorSharedAllele(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	c1 := makeSample(registry, "c1", "FGA", "21,22")
	c2 := makeSample(registry, "c2", "FGA", "21,23")
	replicate := makeSample(registry, "r", "FGA", "21")
	h := &profile.Hypothesis{
		Contributors: []profile.Contributor{{Sample: c1, DropoutProbability: 0.3}, {Sample: c2, DropoutProbability: 0.4}},
		Statistics:   stats,
	}
	assert.InDelta(t, 0.3*0.4*(1-0.3*0.4), evaluateKnown(t, h, replicate), 1e-15)
}

func TestEvaluatorDropIn(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	const p, dropIn = 0.1, 0.05
	c := makeSample(registry, "c", "FGA", "21,22")
	h := &profile.Hypothesis{Contributors: []profile.Contributor{{Sample: c, DropoutProbability: p}}, DropInProbability: dropIn, Statistics: stats}

	explained := makeSample(registry, "r1", "FGA", "21,22")
	assert.InDelta(t, (1-p)*(1-p)*(1-dropIn), evaluateKnown(t, h, explained), 1e-15)

	extra := makeSample(registry, "r2", "FGA", "21,22,23")
	assert.InDelta(t, (1-p)*(1-p)*dropIn*0.15, evaluateKnown(t, h, extra), 1e-15)

	// replicates multiply
	assert.InDelta(t, (1-p)*(1-p)*(1-dropIn)*(1-p)*(1-p)*dropIn*0.15, evaluateKnown(t, h, explained, extra), 1e-15)
}

func TestEvaluatorOneUnknown(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	const d = 0.1
	replicate := makeSample(registry, "r", "FGA", "20,21")
	h := &profile.Hypothesis{Kind: profile.Defense, UnknownCount: 1, UnknownDropoutProbability: d, Statistics: stats}
	replicates := []*profile.Sample{replicate}
	space := enumerateGenotypes(registry, stats, "FGA", candidateAlleles(h, "FGA", replicates))
	// 20, 21, other
	require.Len(t, space.genotypes, 6)
	e := newLocusEvaluator(h, "FGA", replicates, space)
	result, err := e.evaluate(context.Background(), NewPermutationIterator(1, space.genotypes, 0, len(space.genotypes)))
	require.NoError(t, err)
	assert.InDelta(t, 2*0.1*0.2*(1-d)*(1-d), result.Value, 1e-15)
}

func TestCandidateAllelesQDesignation(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	victim := makeSample(registry, "victim", "FGA", "22,99")
	replicate := makeSample(registry, "r", "FGA", "20,21")
	h := &profile.Hypothesis{Contributors: []profile.Contributor{{Sample: victim}}, Statistics: stats}
	replicates := []*profile.Sample{replicate}
	assert.Equal(t, []string{"20", "21", "22"}, candidateAlleles(h, "FGA", replicates))
	h.QDesignationShutdown = true
	assert.Equal(t, []string{"20", "21"}, candidateAlleles(h, "FGA", replicates))

	space := enumerateGenotypes(registry, stats, "FGA", []string{"20", "21"})
	other, ok := registry.LookupAllele("FGA" + profile.OtherSuffix)
	require.True(t, ok)
	assert.InDelta(t, 0.7, space.frequencies[other], 1e-15)
}

func TestEvaluatorCancelled(t *testing.T) {
	registry := utils.NewRegistry()
	stats := makeStatistics()
	replicate := makeSample(registry, "r", "FGA", "20,21,22")
	h := &profile.Hypothesis{Kind: profile.Defense, UnknownCount: 3, UnknownDropoutProbability: 0.1, Statistics: stats}
	replicates := []*profile.Sample{replicate}
	space := enumerateGenotypes(registry, stats, "FGA", candidateAlleles(h, "FGA", replicates))
	e := newLocusEvaluator(h, "FGA", replicates, space)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := e.evaluate(ctx, NewPermutationIterator(3, space.genotypes, 0, len(space.genotypes)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, result.Value)
}
