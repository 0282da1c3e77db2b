/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"fmt"
	"sort"
)

/*
CommitEvent describes a successful read-write commit.
*/
type CommitEvent struct {
	GraphUID          string `json:"graph"`             // Unique id of the graph
	TransactionID     uint64 `json:"transaction"`       // Id of the committed transaction
	Version           uint64 `json:"version"`           // New persistent version
	AddedVertices     []int  `json:"addedVertices"`     // Ids of added vertices
	DeletedVertices   []int  `json:"deletedVertices"`   // Ids of deleted vertices
	AddedEdges        []int  `json:"addedEdges"`        // Ids of added edges
	DeletedEdges      []int  `json:"deletedEdges"`      // Ids of deleted edges
	ChangedAttributes int    `json:"changedAttributes"` // Number of written attribute cells
}

/*
String returns a string representation of the event.
*/
func (ce *CommitEvent) String() string {
	return fmt.Sprintf("CommitEvent version:%v transaction:%v vertices:+%v-%v edges:+%v-%v attributes:%v",
		ce.Version, ce.TransactionID, ce.AddedVertices, ce.DeletedVertices,
		ce.AddedEdges, ce.DeletedEdges, ce.ChangedAttributes)
}

/*
CommitListener models a listener for commit events.
*/
type CommitListener interface {

	/*
	   Name returns the name of the listener.
	*/
	Name() string

	/*
	   Committed is called after a read-write transaction was committed. Events
	   arrive in version order. The listener may commit on the same graph; the
	   event of such a nested commit is delivered after all listeners have
	   seen the current event.
	*/
	Committed(g *Graph, event *CommitEvent) error
}

/*
AddCommitListener adds a listener for commit events. An existing listener with
the same name is replaced.
*/
func (g *Graph) AddCommitListener(l CommitListener) {
	g.listenerLock.Lock()
	defer g.listenerLock.Unlock()

	for i, existing := range g.listeners {
		if existing.Name() == l.Name() {
			g.listeners[i] = l
			return
		}
	}

	g.listeners = append(g.listeners, l)
}

/*
RemoveCommitListener removes a listener.
*/
func (g *Graph) RemoveCommitListener(name string) {
	g.listenerLock.Lock()
	defer g.listenerLock.Unlock()

	for i, existing := range g.listeners {
		if existing.Name() == name {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

/*
CommitListeners returns the names of all listeners.
*/
func (g *Graph) CommitListeners() []string {
	g.listenerLock.RLock()
	defer g.listenerLock.RUnlock()

	ret := make([]string, 0, len(g.listeners))

	for _, l := range g.listeners {
		ret = append(ret, l.Name())
	}

	sort.StringSlice(ret).Sort()

	return ret
}

/*
queueEvent adds an event to the queue of events which still need publishing.
*/
func (g *Graph) queueEvent(event *CommitEvent) {
	g.publishLock.Lock()
	defer g.publishLock.Unlock()

	g.pendingEvents = append(g.pendingEvents, event)
}

/*
publishPending publishes all queued events in version order. If another
commit is already publishing (for example an outer commit whose listener
committed) then the events are left to that commit.
*/
func (g *Graph) publishPending() {
	g.publishLock.Lock()

	if g.publishing {
		g.publishLock.Unlock()
		return
	}

	g.publishing = true

	for len(g.pendingEvents) > 0 {
		event := g.pendingEvents[0]
		g.pendingEvents[0] = nil
		g.pendingEvents = g.pendingEvents[1:]

		g.publishLock.Unlock()
		g.publish(event)
		g.publishLock.Lock()
	}

	g.publishing = false

	g.publishLock.Unlock()
}

/*
publish sends an event to all listeners. Listener errors are logged since the
commit cannot be undone anymore.
*/
func (g *Graph) publish(event *CommitEvent) {
	g.listenerLock.RLock()
	listeners := append([]CommitListener(nil), g.listeners...)
	g.listenerLock.RUnlock()

	for _, l := range listeners {
		if err := notifyListener(g, l, event); err != nil {
			logger.Warning(fmt.Sprintf("Commit listener %v failed on %v: %v", l.Name(), event, err))
		}
	}
}

/*
notifyListener calls a single listener. A panicking listener is reported as
an error.
*/
func notifyListener(g *Graph, l CommitListener, event *CommitEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()

	return l.Committed(g, event)
}
