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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/tgraph/config"
	"devt.de/krotik/tgraph/graph"
)

const testScriptDir = "testscripts"

func TestMain(m *testing.M) {
	flag.Parse()

	defer func() {
		if res, _ := fileutil.PathExists(testScriptDir); res {
			if err := os.RemoveAll(testScriptDir); err != nil {
				fmt.Print("Could not remove test directory:", err.Error())
			}
		}
	}()

	if res, _ := fileutil.PathExists(testScriptDir); res {
		if err := os.RemoveAll(testScriptDir); err != nil {
			fmt.Print("Could not remove test directory:", err.Error())
		}
	}

	ensurePath(testScriptDir)

	config.LoadDefaultConfig()

	config.Config[config.EnableECALBridge] = true
	config.Config[config.ECALScriptFolder] = testScriptDir
	config.Config[config.ECALLogFile] = filepath.Join(testScriptDir, "interpreter.log")

	// Run the tests

	m.Run()
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fmt.Print("Could not create directory:", err.Error())
			return
		}
	}
}

func writeScript(content string) {
	filename := filepath.Join(testScriptDir, config.Str(config.ECALEntryScript))
	err := os.WriteFile(
		filename,
		[]byte(content), 0600)
	errorutil.AssertOk(err)
	os.Remove(config.Str(config.ECALLogFile))
}

func checkLog(expected string) error {
	var err error

	content, err := os.ReadFile(config.Str(config.ECALLogFile))
	errorutil.AssertOk(err)

	logtext := string(content)

	if logtext != expected {
		err = fmt.Errorf("Unexpected log text:\n%v", logtext)
	}

	return err
}

func TestInterpreter(t *testing.T) {
	g := graph.NewGraph("test", 10, 10)

	ds := NewScriptingInterpreter(testScriptDir, g)

	// The dummy entry file is created if no entry file exists

	os.Remove(filepath.Join(testScriptDir, config.Str(config.ECALEntryScript)))

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	// Test normal log output

	writeScript(`
log("test insert")
`)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if err := checkLog(`test insert
`); err != nil {
		t.Error(err)
	}

	// Test stack trace

	writeScript(`
raise("some error")
`)

	if err := ds.Run(); err == nil || !strings.Contains(err.Error(), "some error") {
		t.Error("Unexpected result:", err)
		return
	}

	// Test graph functions

	writeScript(`
tx := graph.begin()

a := graph.createVertex(tx, "Town")
b := graph.createVertex(tx, "Town")
graph.createEdge(tx, "Road", a, b)
graph.setAttribute(tx, "vertex", a, "name", "Koblenz")

graph.commit(tx)

log("version: ", graph.version())
`)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if err := checkLog(`version: 1
`); err != nil {
		t.Error(err)
	}

	tx := g.Begin(true)
	defer tx.Commit()

	if res := fmt.Sprint(g.VCount(tx), g.ECount(tx)); res != "2 1" {
		t.Error("Unexpected result:", res)
		return
	}

	if res, err := g.Vertex(tx, 1).GetAttribute(tx, "name"); res != "Koblenz" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}
}

func TestEvents(t *testing.T) {
	g := graph.NewGraph("test", 10, 10)

	ds := NewScriptingInterpreter(testScriptDir, g)

	writeScript(`
sink mysink
  kindmatch [ "graph.commit" ],
{
  log("Got commit: ", event.state.version, " on ", event.state.name)
  if event.state.version == 2 {
    raise("Oh no")
  }
}
`)

	if err := ds.Run(); err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	if res := fmt.Sprint(g.CommitListeners()); res != "[ecal.eventbridge]" {
		t.Error("Unexpected result:", res)
		return
	}

	tx := g.Begin(false)
	g.CreateVertex(tx, "Town")

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	if err := checkLog(`Got commit: 1 on test
`); err != nil {
		t.Error(err)
	}

	// Errors from sinks do not undo the commit

	tx = g.Begin(false)
	g.CreateVertex(tx, "Town")

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	if res := g.PersistentVersion(); res != 2 {
		t.Error("Unexpected result:", res)
		return
	}

	eb := &EventBridge{Processor: ds.Interpreter.RuntimeProvider.Processor}

	err := eb.Committed(g, &graph.CommitEvent{GraphUID: g.UID(), Version: 2})

	if err == nil || !strings.Contains(err.Error(), "Oh no") {
		t.Error("Unexpected result:", err)
		return
	}

	// Read-only commits are not published

	ro := g.Begin(true)
	ro.Commit()

	if res := g.PersistentVersion(); res != 2 {
		t.Error("Unexpected result:", res)
		return
	}
}
