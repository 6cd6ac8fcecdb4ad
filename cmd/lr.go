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
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/exascience/elmix/likelihood"
	"github.com/exascience/elmix/utils"
)

// LRHelp is the help string for this command.
const LRHelp = "\nlr parameters:\n" +
	"elmix lr case-file\n" +
	"[--frequencies file]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n" +
	"[--metrics-file file]\n"

func progressLogger(name string) likelihood.ProgressFunc {
	last := -10
	return func(percent int) {
		if percent/10 != last/10 {
			last = percent
			log.Printf("%v: %v%% of locus jobs done.\n", name, percent)
		}
	}
}

// LR implements the elmix lr command.
func LR() error {
	var (
		frequencies, profile, logPath, metricsFile string
		nrOfThreads                                int
		timed                                      bool
	)

	var flags flag.FlagSet

	flags.StringVar(&frequencies, "frequencies", "", "allele frequency file, overrides the one named in the case file")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.StringVar(&metricsFile, "metrics-file", "", "write metrics in Prometheus text format to the specified file")

	parseFlags(&flags, 3, LRHelp)

	caseFile := getFilename(os.Args[2], LRHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", caseFile) {
		sanityChecksFailed = true
	}
	if frequencies != "" && !checkExist("--frequencies", frequencies) {
		sanityChecksFailed = true
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}
	if metricsFile != "" && !checkCreate("--metrics-file", metricsFile) {
		sanityChecksFailed = true
	}
	if nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, LRHelp)
		os.Exit(1)
	}

	registry := utils.NewRegistry()
	_, c, err := loadCase(registry, caseFile, frequencies)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := likelihood.NewPool(nrOfThreads)
	defer pool.Close()

	var hp, hd *likelihood.LocusLikelihoods
	err = timedRun(timed, profile, "Calculating likelihood ratio.", func() (err error) {
		prosecution := likelihood.NewCalculator(registry, pool)
		prosecution.Progress = progressLogger(c.Prosecution.Kind.String())
		if hp, err = prosecution.CalculateLikelihood(ctx, c.Prosecution, c.EnabledLoci, c.Replicates, c.Candidate); err != nil {
			return err
		}
		defense := likelihood.NewCalculator(registry, pool)
		defense.Progress = progressLogger(c.Defense.Kind.String())
		hd, err = defense.CalculateLikelihood(ctx, c.Defense, c.EnabledLoci, c.Replicates, c.Candidate)
		return err
	})
	if err != nil {
		return err
	}

	ratios := likelihood.LocusRatios(hp, hd)
	fmt.Println("locus\tHp\tHd\tLR")
	for _, locus := range hp.Loci() {
		p, _ := hp.Get(locus)
		d, _ := hd.Get(locus)
		fmt.Printf("%v\t%g\t%g\t%g\n", locus, p, d, ratios[locus])
	}
	lr := likelihood.Ratio(hp, hd)
	fmt.Printf("total\t%g\t%g\t%g\n", hp.Product(), hd.Product(), lr)
	if lr > 0 && !math.IsInf(lr, 0) {
		log.Printf("log10(LR) = %.4f\n", math.Log10(lr))
	}

	return writeMetrics(metricsFile)
}
