/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
TGraph is a typed in-memory graph store with optimistic transactions.

The process holds a single graph which is configured through a JSON config
file. Commits can be followed through a websocket feed and can trigger ECAL
scripts.

Usage:

	tgraph [--config <file>] [--log-level <level>] [--version]
*/
package main

import (
	"fmt"
	"os"

	"devt.de/krotik/common/logutil"
	"devt.de/krotik/tgraph/config"
	"devt.de/krotik/tgraph/server"
	flag "github.com/spf13/pflag"
)

func main() {
	configFile := flag.String("config", config.DefaultConfigFile,
		"Config file to use (created with default values if it does not exist)")
	logLevel := flag.String("log-level", "",
		"Log level which overrides the config file (Debug, Info, Warning, Error)")
	showVersion := flag.Bool("version", false, "Print the version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("TGraph %v\n", config.ProductVersion)
		return
	}

	if err := config.LoadConfigFile(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "Could not load config file:", err)
		os.Exit(1)
	}

	level := config.Str(config.LogLevel)
	if *logLevel != "" {
		level = *logLevel
	}

	logutil.GetLogger("").AddLogSink(logutil.StringToLoglevel(level),
		logutil.ConsoleFormatter(), os.Stderr)

	server.StartServer()
}
