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

// elMix computes likelihood ratios for forensic DNA mixtures: the
// probability of the replicate data of a crime-scene trace under a
// prosecution hypothesis versus a defense hypothesis, accounting for
// allele drop-out, drop-in, unknown contributors, and coancestry.
//
// Please see https://github.com/exascience/elmix for a documentation
// of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elmix/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: lr, dropout")
	fmt.Fprint(os.Stderr, "\n", cmd.LRHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.DropoutHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "lr":
		err = cmd.LR()
	case "dropout":
		err = cmd.Dropout()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Printf("Unknown command %v.\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
