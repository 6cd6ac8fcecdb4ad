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

// Package casefile reads elmix case descriptions: the replicates of a
// crime-scene trace, the reference profiles, the candidate, and the
// prosecution and defense hypotheses.
package casefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/exascience/elmix/dropout"
	"github.com/exascience/elmix/internal"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// ErrUnknownSample is returned when a hypothesis refers to a sample
// that the case file does not define.
var ErrUnknownSample = errors.New("unknown sample")

// SampleConfig describes a profile as a map from locus names to
// allele values.
type SampleConfig struct {
	Name    string              `yaml:"name"`
	Dropout float64             `yaml:"dropout"`
	Loci    map[string][]string `yaml:"loci"`
}

// ContributorConfig refers to a reference profile by name.
type ContributorConfig struct {
	Sample  string  `yaml:"sample"`
	Dropout float64 `yaml:"dropout"`
}

// HypothesisConfig describes one of the two hypotheses.
type HypothesisConfig struct {
	Contributors         []ContributorConfig `yaml:"contributors"`
	Unknowns             int                 `yaml:"unknowns"`
	UnknownDropout       float64             `yaml:"unknown-dropout"`
	QDesignationShutdown bool                `yaml:"q-designation-shutdown"`
}

// EstimationConfig holds the parameters of a dropout estimation.
type EstimationConfig struct {
	Iterations        int     `yaml:"iterations"`
	MinimumPercentile float64 `yaml:"minimum-percentile"`
	MaximumPercentile float64 `yaml:"maximum-percentile"`
	Seed              int64   `yaml:"seed"`
}

// Config is the YAML representation of a case.
type Config struct {
	Frequencies         string           `yaml:"frequencies"`
	RareAlleleFrequency float64          `yaml:"rare-allele-frequency"`
	Theta               float64          `yaml:"theta"`
	DropIn              float64          `yaml:"drop-in"`
	EnabledLoci         []string         `yaml:"enabled-loci"`
	Replicates          []SampleConfig   `yaml:"replicates"`
	References          []SampleConfig   `yaml:"references"`
	Candidate           *SampleConfig    `yaml:"candidate"`
	Prosecution         HypothesisConfig `yaml:"prosecution"`
	Defense             HypothesisConfig `yaml:"defense"`
	Estimation          EstimationConfig `yaml:"dropout-estimation"`
}

func (cfg *Config) applyDefaults() {
	if cfg.RareAlleleFrequency <= 0 {
		cfg.RareAlleleFrequency = profile.DefaultRareAlleleFrequency
	}
	if cfg.Estimation.Iterations <= 0 {
		cfg.Estimation.Iterations = dropout.DefaultIterations
	}
	if cfg.Estimation.MinimumPercentile == 0 && cfg.Estimation.MaximumPercentile == 0 {
		cfg.Estimation.MinimumPercentile = dropout.DefaultMinimumPercentile
		cfg.Estimation.MaximumPercentile = dropout.DefaultMaximumPercentile
	}
}

// LoadConfig parses YAML bytes into a Config and applies defaults.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// FromCaseFile reads a case file. A relative frequency file name in
// the case file is resolved against the directory of the case file.
func FromCaseFile(filename string) (*Config, error) {
	data, err := internal.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid case file %v: %w", filename, err)
	}
	if cfg.Frequencies != "" && !filepath.IsAbs(cfg.Frequencies) {
		cfg.Frequencies = filepath.Join(filepath.Dir(filename), cfg.Frequencies)
	}
	return cfg, nil
}

// A Case holds the domain objects described by a case file.
type Case struct {
	Replicates  []*profile.Sample
	References  map[string]*profile.Sample
	Candidate   *profile.Sample
	Prosecution *profile.Hypothesis
	Defense     *profile.Hypothesis
	EnabledLoci []string
}

func sortedLocusNames(loci map[string][]string) []string {
	names := make([]string, 0, len(loci))
	for name := range loci {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func replicateSample(registry *utils.Registry, cfg SampleConfig) *profile.Sample {
	sample := profile.NewSample(cfg.Name)
	for _, name := range sortedLocusNames(cfg.Loci) {
		sample.AddLocus(profile.NewLocus(registry, name, cfg.Loci[name]...))
	}
	return sample
}

func referenceSample(registry *utils.Registry, cfg SampleConfig) (*profile.Sample, error) {
	sample := profile.NewSample(cfg.Name)
	for _, name := range sortedLocusNames(cfg.Loci) {
		locus, err := profile.NewReferenceLocus(registry, name, cfg.Loci[name]...)
		if err != nil {
			return nil, fmt.Errorf("sample %v: %w", cfg.Name, err)
		}
		sample.AddLocus(locus)
	}
	return sample, nil
}

func (c *Case) hypothesis(kind profile.Kind, cfg HypothesisConfig, stats *profile.PopulationStatistics, theta, dropIn, candidateDropout float64) (*profile.Hypothesis, error) {
	h := &profile.Hypothesis{
		Kind:                        kind,
		UnknownCount:                cfg.Unknowns,
		UnknownDropoutProbability:   cfg.UnknownDropout,
		DropInProbability:           dropIn,
		Theta:                       theta,
		Statistics:                  stats,
		QDesignationShutdown:        cfg.QDesignationShutdown,
		CandidateDropoutProbability: candidateDropout,
	}
	for _, contributor := range cfg.Contributors {
		sample, ok := c.References[contributor.Sample]
		if !ok {
			return nil, fmt.Errorf("%v hypothesis: %w %v", kind, ErrUnknownSample, contributor.Sample)
		}
		h.Contributors = append(h.Contributors, profile.Contributor{Sample: sample, DropoutProbability: contributor.Dropout})
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%v hypothesis: %w", kind, err)
	}
	return h, nil
}

// Build turns the configuration into domain objects. Allele values
// are interned in the registry. The rare allele frequency of the case
// overrides the one of stats.
func (cfg *Config) Build(registry *utils.Registry, stats *profile.PopulationStatistics) (*Case, error) {
	if len(cfg.Replicates) == 0 {
		return nil, errors.New("case without replicates")
	}
	stats.RareAlleleFrequency = cfg.RareAlleleFrequency
	c := &Case{References: make(map[string]*profile.Sample)}
	for _, replicate := range cfg.Replicates {
		c.Replicates = append(c.Replicates, replicateSample(registry, replicate))
	}
	for _, reference := range cfg.References {
		if _, ok := c.References[reference.Name]; ok {
			return nil, fmt.Errorf("duplicate reference sample %v", reference.Name)
		}
		sample, err := referenceSample(registry, reference)
		if err != nil {
			return nil, err
		}
		c.References[reference.Name] = sample
	}
	candidateDropout := 0.0
	if cfg.Candidate != nil {
		sample, err := referenceSample(registry, *cfg.Candidate)
		if err != nil {
			return nil, err
		}
		c.Candidate = sample
		candidateDropout = cfg.Candidate.Dropout
	}
	var err error
	if c.Prosecution, err = c.hypothesis(profile.Prosecution, cfg.Prosecution, stats, cfg.Theta, cfg.DropIn, candidateDropout); err != nil {
		return nil, err
	}
	if c.Defense, err = c.hypothesis(profile.Defense, cfg.Defense, stats, cfg.Theta, cfg.DropIn, candidateDropout); err != nil {
		return nil, err
	}
	c.EnabledLoci = cfg.EnabledLoci
	if len(c.EnabledLoci) == 0 {
		seen := make(map[string]bool)
		for _, replicate := range c.Replicates {
			for _, locus := range replicate.Loci() {
				if !seen[locus.Name()] {
					seen[locus.Name()] = true
					c.EnabledLoci = append(c.EnabledLoci, locus.Name())
				}
			}
		}
	}
	return c, nil
}
