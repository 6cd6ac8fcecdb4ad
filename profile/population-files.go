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

package profile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"
)

// FrequenciesHeader is the header line that every allele frequency
// file starts with.
const FrequenciesHeader = "# elmix allele frequencies version 1.0\n"

type frequencyEntry struct {
	locus, allele string
	frequency     float64
}

func parseFrequencyLine(line string) (entry frequencyEntry, ok bool, err error) {
	if line == "" || line[0] == '#' {
		return entry, false, nil
	}
	fields := strings.Split(line, "\t")
	if len(fields) != 3 || fields[0] == "" || fields[1] == "" {
		return entry, false, fmt.Errorf("invalid allele frequency line %v", line)
	}
	entry.locus, entry.allele = fields[0], fields[1]
	entry.frequency, err = strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return entry, false, err
	}
	if entry.frequency < 0 || entry.frequency > 1 {
		return entry, false, fmt.Errorf("allele frequency %v out of range in line %v", entry.frequency, line)
	}
	return entry, true, nil
}

// FromFrequencyFile reads population statistics from an elmix allele
// frequency file.
func FromFrequencyFile(filename string) (stats *PopulationStatistics, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	input := bufio.NewReader(in)
	header, err := input.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if header != FrequenciesHeader {
		return nil, fmt.Errorf("%v is not an allele frequency file - invalid header", filename)
	}
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		entries := make([]frequencyEntry, 0, len(strs))
		for _, str := range strs {
			entry, ok, err := parseFrequencyLine(str)
			if err != nil {
				p.SetErr(err)
				return entries
			}
			if ok {
				entries = append(entries, entry)
			}
		}
		return entries
	})))
	stats = NewPopulationStatistics(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, entry := range data.([]frequencyEntry) {
			stats.AddFrequency(entry.locus, entry.allele, entry.frequency)
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// ToFrequencyFile stores population statistics in an elmix allele
// frequency file. Loci and alleles are written in sorted order.
func ToFrequencyFile(stats *PopulationStatistics, filename string) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	output, err := os.Create(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	out := bufio.NewWriter(output)
	if _, err = out.WriteString(FrequenciesHeader); err != nil {
		return err
	}
	for _, locus := range stats.Loci() {
		for _, allele := range stats.Alleles(locus) {
			var buf []byte
			buf = append(buf, locus...)
			buf = append(buf, '\t')
			buf = append(buf, allele...)
			buf = append(buf, '\t')
			buf = strconv.AppendFloat(buf, stats.Frequency(locus, allele), 'g', -1, 64)
			buf = append(buf, '\n')
			if _, err = out.Write(buf); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}
