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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/exascience/elmix/dropout"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// DropoutHelp is the help string for this command.
const DropoutHelp = "\ndropout parameters:\n" +
	"elmix dropout case-file\n" +
	"[--frequencies file]\n" +
	"[--hypothesis [hp | hd]]\n" +
	"[--iterations n]\n" +
	"[--seed n]\n" +
	"[--min-percentile p]\n" +
	"[--max-percentile p]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n" +
	"[--metrics-file file]\n"

// Dropout implements the elmix dropout command.
func Dropout() error {
	var (
		frequencies, hypothesis, prof, logPath, metricsFile string
		iterations                                          int
		seed                                                int64
		minPercentile, maxPercentile                        float64
		timed                                               bool
	)

	var flags flag.FlagSet

	flags.StringVar(&frequencies, "frequencies", "", "allele frequency file, overrides the one named in the case file")
	flags.StringVar(&hypothesis, "hypothesis", "hd", "hypothesis to simulate")
	flags.IntVar(&iterations, "iterations", 0, "number of simulated mixtures, overrides the case file")
	flags.Int64Var(&seed, "seed", 0, "random seed, overrides the case file")
	flags.Float64Var(&minPercentile, "min-percentile", -1, "percentile reported as minimum dropout, overrides the case file")
	flags.Float64Var(&maxPercentile, "max-percentile", -1, "percentile reported as maximum dropout, overrides the case file")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&prof, "profile", "", "write a runtime profile to the specified file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&metricsFile, "metrics-file", "", "write metrics in Prometheus text format to the specified file")

	parseFlags(&flags, 3, DropoutHelp)

	caseFile := getFilename(os.Args[2], DropoutHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", caseFile) {
		sanityChecksFailed = true
	}
	if frequencies != "" && !checkExist("--frequencies", frequencies) {
		sanityChecksFailed = true
	}
	if prof != "" && !checkCreate("--profile", prof) {
		sanityChecksFailed = true
	}
	if metricsFile != "" && !checkCreate("--metrics-file", metricsFile) {
		sanityChecksFailed = true
	}
	if hypothesis != "hp" && hypothesis != "hd" {
		sanityChecksFailed = true
		log.Printf("Error: Invalid hypothesis %v.\n", hypothesis)
	}
	if iterations < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid iterations: ", iterations)
	}
	if minPercentile != -1 && !checkProbability("--min-percentile", minPercentile) {
		sanityChecksFailed = true
	}
	if maxPercentile != -1 && !checkProbability("--max-percentile", maxPercentile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, DropoutHelp)
		os.Exit(1)
	}

	registry := utils.NewRegistry()
	cfg, c, err := loadCase(registry, caseFile, frequencies)
	if err != nil {
		return err
	}

	estimator := dropout.NewEstimator(registry)
	estimator.Iterations = cfg.Estimation.Iterations
	estimator.MinimumPercentile = cfg.Estimation.MinimumPercentile
	estimator.MaximumPercentile = cfg.Estimation.MaximumPercentile
	estimator.Seed = cfg.Estimation.Seed
	if iterations > 0 {
		estimator.Iterations = iterations
	}
	if seed != 0 {
		estimator.Seed = seed
	}
	if minPercentile != -1 {
		estimator.MinimumPercentile = minPercentile
	}
	if maxPercentile != -1 {
		estimator.MaximumPercentile = maxPercentile
	}
	var done int64
	step := int64(estimator.Iterations / 10)
	if step == 0 {
		step = 1
	}
	estimator.IterationDone = func() {
		if n := atomic.AddInt64(&done, 1); n%step == 0 {
			log.Printf("%v of %v iterations done.\n", n, estimator.Iterations)
		}
	}

	var h *profile.Hypothesis
	if hypothesis == "hp" {
		h = c.Prosecution.Bind(c.Candidate)
	} else {
		h = c.Defense.Bind(c.Candidate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var estimation *dropout.Estimation
	err = timedRun(timed, prof, "Estimating dropout probability.", func() (err error) {
		estimation, err = estimator.Estimate(ctx, h, c.EnabledLoci, c.Replicates)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("hypothesis\t%v\n", h)
	fmt.Printf("observed alleles\t%v\n", estimation.ObservedAlleleCount)
	fmt.Printf("successful attempts\t%v\n", len(estimation.Values))
	fmt.Printf("minimum dropout\t%.2f\n", estimation.Minimum)
	fmt.Printf("maximum dropout\t%.2f\n", estimation.Maximum)
	fmt.Printf("mean dropout\t%.4f\n", estimation.Mean())
	for i, count := range estimation.Histogram {
		if count > 0 {
			fmt.Printf("%.2f\t%v\n", float64(i)/dropout.HistogramSize, count)
		}
	}

	return writeMetrics(metricsFile)
}
