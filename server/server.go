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
Package server contains the code for a TGraph process.

The process holds one graph which is configured via config.Config. Commits
can be observed through a websocket feed and can trigger ECAL rules.
*/
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/tgraph/config"
	"devt.de/krotik/tgraph/ecal"
	"devt.de/krotik/tgraph/graph"
)

var logger = logutil.GetLogger("tgraph.server")

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(func(v ...interface{}) { logger.Info(v...) })

/*
activeFeed is the feed server which handles requests to the feed endpoint.
*/
var activeFeed atomic.Pointer[FeedServer]

var feedRegistration sync.Once

/*
feedHTTPServer is the HTTP server of the commit feed (used by unit tests)
*/
var feedHTTPServer *httputil.HTTPServer

/*
StartServer runs a TGraph process. The process uses config.Config for all its
configuration parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs a TGraph process. If the singleOperation function is
not nil then the process executes the function and exits if the function returns true.
*/
func StartServerWithSingleOp(singleOperation func(*graph.Graph) bool) {
	var err error

	print(fmt.Sprintf("TGraph %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	// Create the graph

	g := graph.NewGraphWithExpansionFactor(config.Str(config.GraphName),
		int(config.Int(config.InitialVertexCapacity)), int(config.Int(config.InitialEdgeCapacity)),
		config.Float(config.CapacityExpansionFactor))

	print("Created ", g)

	// Start ECAL scripting

	if config.Bool(config.EnableECALBridge) {
		scriptFolder := config.Str(config.ECALScriptFolder)

		print("Loading ECAL scripts in ", scriptFolder)

		ensurePath(scriptFolder)

		if err = ecal.NewScriptingInterpreter(scriptFolder, g).Run(); err != nil {
			fatal("Failed to start ECAL scripting interpreter:", err)
			return
		}
	}

	if singleOperation != nil && singleOperation(g) {
		return
	}

	if !config.Bool(config.EnableCommitFeed) {
		waitForSignal()
		return
	}

	// Start commit feed

	fs := NewFeedServer()
	g.AddCommitListener(fs)

	activeFeed.Store(fs)
	feedRegistration.Do(func() {
		http.HandleFunc(FeedEndpoint, func(w http.ResponseWriter, r *http.Request) {
			activeFeed.Load().ServeHTTP(w, r)
		})
	})

	hs := &httputil.HTTPServer{}
	feedHTTPServer = hs

	var wg sync.WaitGroup
	wg.Add(1)

	addr := fmt.Sprintf("%v:%v", config.Str(config.CommitFeedHost), config.Str(config.CommitFeedPort))

	print("Starting commit feed on: ", addr)

	go hs.RunHTTPServer(addr, &wg)

	// Wait until the server has started

	wg.Wait()

	if hs.LastError != nil {
		fatal(hs.LastError)
		return
	}

	// Add to the wait group so we can wait for the shutdown

	wg.Add(1)

	print("Waiting for shutdown")
	wg.Wait()

	print("Shutting down")

	g.RemoveCommitListener(fs.Name())
	fs.Shutdown()
}

/*
waitForSignal blocks until the process is interrupted.
*/
func waitForSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	print("Waiting for shutdown")

	<-sigs

	print("Shutting down")
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}
