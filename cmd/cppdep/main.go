// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command cppdep performs physical dependency analysis of a C/C++
// codebase following the Lakos model: components, packages, and package
// groups are derived from a configuration file, their dependency graphs
// are built and checked for cycles, and cumulative dependency metrics are
// reported.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-cppdep/cppdep/internal/analysis"
	"github.com/go-cppdep/cppdep/internal/pperr"
)

const version = "cppdep 0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cppdep", flag.ContinueOnError)
	fs.SetOutput(stderr)

	showVersion := fs.Bool("version", false, "print version information and exit")
	var configPath string
	fs.StringVar(&configPath, "c", "cppdep.xml", "path to the configuration file")
	fs.StringVar(&configPath, "config", "cppdep.xml", "path to the configuration file")
	cachePath := fs.String("cache", "", "path to an advisory external-header resolution cache")
	noCache := fs.Bool("no-cache", false, "disable the external-header resolution cache")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "Invalid Argument Error: unexpected argument %q\n", fs.Arg(0))
		return 1
	}

	opts := analysis.Options{ConfigPath: configPath, DotDir: "."}
	if !*noCache && *cachePath != "" {
		opts.CachePath = *cachePath
	}

	result, err := analysis.Run(opts, stdout)
	if result != nil {
		for _, w := range result.Warnings {
			fmt.Fprintf(stderr, "warning: %s\n", w)
		}
	}
	if err == nil {
		return 0
	}

	var configErr *pperr.ConfigError
	var xmlErr *pperr.XMLError
	var ioErr *pperr.IOError
	switch {
	case errors.As(err, &configErr):
		fmt.Fprintf(stderr, "Invalid Argument Error:\n%v\n", configErr)
	case errors.As(err, &xmlErr):
		fmt.Fprintf(stderr, "Configuration XML Error:\n%v\n", xmlErr)
	case errors.As(err, &ioErr):
		fmt.Fprintf(stderr, "IO Error:\n%v\n", ioErr)
	default:
		fmt.Fprintf(stderr, "IO Error:\n%v\n", err)
	}
	return 1
}
