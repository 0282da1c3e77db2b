/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/ecal/cli/tool"
	ecalconfig "devt.de/krotik/ecal/config"
	"devt.de/krotik/ecal/stdlib"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/tgraph/config"
	"devt.de/krotik/tgraph/ecal/dbfunc"
	"devt.de/krotik/tgraph/graph"
)

/*
ScriptingInterpreter models a ECAL script interpreter instance.
*/
type ScriptingInterpreter struct {
	G           *graph.Graph         // Graph for the interpreter
	Interpreter *tool.CLIInterpreter // ECAL Interpreter object

	Dir       string // Root dir for interpreter
	EntryFile string // Entry file for the program
	LogLevel  string // Log level string (Debug, Info, Error)
	LogFile   string // Logfile (blank for stdout)
}

/*
NewScriptingInterpreter returns a new ECAL scripting interpreter.
*/
func NewScriptingInterpreter(scriptFolder string, g *graph.Graph) *ScriptingInterpreter {
	return &ScriptingInterpreter{
		G:         g,
		Dir:       scriptFolder,
		EntryFile: filepath.Join(scriptFolder, config.Str(config.ECALEntryScript)),
		LogLevel:  config.Str(config.ECALLogLevel),
		LogFile:   config.Str(config.ECALLogFile),
	}
}

/*
dummyEntryFile is a small valid ECAL which does not do anything. It is used
as the default entry file if no entry file exists.
*/
const dummyEntryFile = `0 # Write your ECAL code here
`

/*
Run runs the ECAL scripting interpreter.

After this function completes:
- EntryScript in config and all related scripts in the interpreter root dir have been executed
- ECAL Interpreter object is fully initialized
- ECAL's event processor has been started
- Commit events of the graph are being forwarded to ECAL
*/
func (si *ScriptingInterpreter) Run() error {
	var err error

	// Ensure we have a dummy entry point

	if ok, _ := fileutil.PathExists(si.EntryFile); !ok {
		err = os.WriteFile(si.EntryFile, []byte(dummyEntryFile), 0600)
	}

	if err == nil {
		i := tool.NewCLIInterpreter()
		si.Interpreter = i

		// Set worker count in ecal config

		ecalconfig.Config[ecalconfig.WorkerCount] = config.Config[config.ECALWorkerCount]

		i.Dir = &si.Dir
		i.LogFile = &si.LogFile
		i.LogLevel = &si.LogLevel

		i.EntryFile = si.EntryFile
		i.LoadPlugins = true

		i.CreateRuntimeProvider("tgraph-runtime")

		AddTGraphStdlibFunctions(si.G)

		logger.Info(fmt.Sprintf("Running ECAL entry script %v", si.EntryFile))

		if err = i.Interpret(false); err == nil {

			// Commits are now forwarded to ECAL via the eventbridge.

			si.G.AddCommitListener(&EventBridge{
				Processor: i.RuntimeProvider.Processor,
				Logger:    i.RuntimeProvider.Logger,
			})
		}
	}

	// Include a traceback if possible

	if ss, ok := err.(util.TraceableRuntimeError); ok {
		err = fmt.Errorf("%v\n  %v", err.Error(), strings.Join(ss.GetTraceString(), "\n  "))
	}

	return err
}

/*
AddTGraphStdlibFunctions adds graph related ECAL stdlib functions.
*/
func AddTGraphStdlibFunctions(g *graph.Graph) {
	stdlib.AddStdlibPkg("graph", "TGraph related functions")

	stdlib.AddStdlibFunc("graph", "begin", &dbfunc.BeginFunc{G: g})
	stdlib.AddStdlibFunc("graph", "commit", &dbfunc.CommitFunc{})
	stdlib.AddStdlibFunc("graph", "abort", &dbfunc.AbortFunc{})
	stdlib.AddStdlibFunc("graph", "version", &dbfunc.VersionFunc{G: g})
	stdlib.AddStdlibFunc("graph", "createVertex", &dbfunc.CreateVertexFunc{G: g})
	stdlib.AddStdlibFunc("graph", "deleteVertex", &dbfunc.DeleteVertexFunc{G: g})
	stdlib.AddStdlibFunc("graph", "vertices", &dbfunc.VerticesFunc{G: g})
	stdlib.AddStdlibFunc("graph", "count", &dbfunc.CountFunc{G: g})
	stdlib.AddStdlibFunc("graph", "createEdge", &dbfunc.CreateEdgeFunc{G: g})
	stdlib.AddStdlibFunc("graph", "deleteEdge", &dbfunc.DeleteEdgeFunc{G: g})
	stdlib.AddStdlibFunc("graph", "incidences", &dbfunc.IncidencesFunc{G: g})
	stdlib.AddStdlibFunc("graph", "setAttribute", &dbfunc.SetAttributeFunc{G: g})
	stdlib.AddStdlibFunc("graph", "attributes", &dbfunc.AttributesFunc{G: g})
}
