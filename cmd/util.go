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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/exascience/elmix/casefile"
	"github.com/exascience/elmix/internal"
	"github.com/exascience/elmix/profile"
	"github.com/exascience/elmix/utils"
)

// ProgramMessage is the first line printed when the elmix binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(), " ", internal.PedanticMessage,
		"- see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed to show the --help flag
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

func getFilename(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(0)
	default:
		if strings.HasPrefix(s, "-") {
			log.Println("Filename in command line missing.")
			fmt.Fprint(os.Stderr, help)
			os.Exit(1)
		}
	}
	return s
}

func parseFlags(flags *flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		// Assume that the file has been written by previous elmix runs, and can be overwritten.
		return true
	}
	f, err := internal.CreateFile(filename)
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(parameter, "Error: No permission to create file %v", filename)
		} else {
			logCheckFile(parameter, "Error %v when trying to create file %v", err, filename)
		}
		return false
	}
	_ = f.Close()
	_ = os.Remove(filename)
	return true
}

func checkProbability(parameter string, p float64) bool {
	if p < 0 || p > 1 {
		log.Printf("Error: Invalid probability %v for command line parameter %v.\n", p, parameter)
		return false
	}
	return true
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/elmix/elmix-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

// setLogOutput duplicates stderr into a fresh log file and prefixes
// all log lines with a run ID, which it returns.
func setLogOutput(path string) string {
	runID := uuid.NewString()
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	f, err := internal.CreateFile(fullPath)
	if err != nil {
		log.Panic(err)
	}
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		log.Panic(err)
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		log.Panic(err)
	}

	multi := io.MultiWriter(f, ferr)

	log.SetOutput(multi)
	log.SetPrefix("[" + runID[:8] + "] ")
	log.Println("Created log file at", fullPath)
	log.Println("Run ID:", runID)
	log.Println("Command line:", os.Args)
	return runID
}

func timedRun(timed bool, profile, msg string, f func() error) (err error) {
	if profile != "" {
		file, ferr := internal.CreateFile(profile)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if nerr := file.Close(); err == nil {
				err = nerr
			}
		}()
		if perr := pprof.StartCPUProfile(file); perr != nil {
			return perr
		}
		defer pprof.StopCPUProfile()
	}
	if timed {
		log.Println(msg)
		start := time.Now()
		defer func() {
			log.Println("Elapsed time: ", time.Since(start))
		}()
	}
	return f()
}

// writeMetrics dumps the metrics of this run in the Prometheus text
// format.
func writeMetrics(filename string) error {
	if filename == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %v: %w", filename, err)
	}
	log.Println("Metrics written to", filename)
	return nil
}

// loadCase reads the case file and the allele frequency file. A
// non-empty frequencies parameter overrides the frequency file named
// in the case file.
func loadCase(registry *utils.Registry, caseFile, frequencies string) (*casefile.Config, *casefile.Case, error) {
	cfg, err := casefile.FromCaseFile(caseFile)
	if err != nil {
		return nil, nil, err
	}
	if frequencies == "" {
		frequencies = cfg.Frequencies
	}
	if frequencies == "" {
		return nil, nil, fmt.Errorf("no allele frequency file given for case %v", caseFile)
	}
	stats, err := profile.FromFrequencyFile(frequencies)
	if err != nil {
		return nil, nil, err
	}
	c, err := cfg.Build(registry, stats)
	if err != nil {
		return nil, nil, fmt.Errorf("case %v: %w", caseFile, err)
	}
	log.Printf("Loaded case %v with %v replicates, %v reference samples, and %v enabled loci.\n",
		caseFile, len(c.Replicates), len(c.References), len(c.EnabledLoci))
	return cfg, c, nil
}
