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
Package ecal connects a graph to the event condition action language (ECAL).

Scripts can read and modify the graph through the graph stdlib package and can
react to commits with sinks matching the graph.commit event kind.
*/
package ecal

import (
	"encoding/json"
	"fmt"
	"strings"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/tgraph/graph"
)

var logger = logutil.GetLogger("tgraph.ecal")

/*
CommitEventKind is the ECAL event kind of commit events.
*/
const CommitEventKind = "graph.commit"

/*
EventBridge is a commit listener which forwards commit events to ECAL.
*/
type EventBridge struct {
	Processor engine.Processor
	Logger    util.Logger
}

/*
Name returns the name of the listener.
*/
func (eb *EventBridge) Name() string {
	return "ecal.eventbridge"
}

/*
Committed injects a commit event into the ECAL processor. Errors raised by
sinks are returned as a composite error.
*/
func (eb *EventBridge) Committed(g *graph.Graph, ce *graph.CommitEvent) error {
	eventName := fmt.Sprintf("TGraph: %v", CommitEventKind)
	eventKind := strings.Split(CommitEventKind, ".")

	// Construct an event which can be used to check if any rule will trigger.
	// The state conversion below is skipped for events which would not
	// trigger any rules.

	if !eb.Processor.IsTriggering(engine.NewEvent(eventName, eventKind, nil)) {
		return nil
	}

	// Build up state from the JSON representation of the commit event

	var data map[string]interface{}

	jsonData, err := json.Marshal(ce)
	if err == nil {
		err = json.Unmarshal(jsonData, &data)
	}

	if err != nil {
		return err
	}

	data["name"] = g.Name()

	state := scope.ConvertJSONToECALObject(data).(map[interface{}]interface{})

	// Try to inject the event

	var m engine.Monitor
	m, err = eb.Processor.AddEventAndWait(engine.NewEvent(eventName, eventKind, state), nil)

	if err == nil {

		// If there was no direct error adding the event then check if an error was
		// raised in a sink

		if errs := m.(*engine.RootMonitor).AllErrors(); len(errs) > 0 {
			cerr := errorutil.NewCompositeError()

			for _, e := range errs {
				cerr.Add(e)
			}

			err = cerr
		}
	}

	if err != nil {
		msg := fmt.Sprintf("Commit of version %v was handled by ECAL and returned: %v", ce.Version, err)

		if eb.Logger != nil {
			eb.Logger.LogDebug(msg)
		}

		logger.Debug(msg)
	}

	return err
}
