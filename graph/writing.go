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

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/tgraph/graph/util"
)

/*
writeSession holds the state of one write of a transaction.
*/
type writeSession struct {
	version     uint64                  // New persistent version
	stagedCells map[cellHandle]struct{} // Cells with a value for the new version
}

/*
staged records that a cell received a value for the new version.
*/
func (ws *writeSession) staged(c cellHandle) {
	ws.stagedCells[c] = struct{}{}
}

/*
writingComponent writes the changes of a validated transaction as a new
persistent version. The caller must hold the exclusive writing lock.
*/
type writingComponent struct {
	tx      *Transaction
	ws      *writeSession
	a       *access
	vDelta  int
	eDelta  int
	failure func(op structuralOp) // Hook which is called before each replayed operation
}

/*
newWritingComponent creates a new writing component for a transaction.
*/
func newWritingComponent(tx *Transaction) *writingComponent {
	return &writingComponent{tx: tx, failure: tx.graph.writeHook}
}

/*
write writes all changes as the given persistent version. Returns the written
version. Any failure is reported as an ErrInternalWrite error; all values which
were staged for the new version are removed in this case.
*/
func (wc *writingComponent) write(version uint64) (ret uint64, err error) {
	wc.ws = &writeSession{version, make(map[cellHandle]struct{})}
	wc.a = &access{writer: wc.ws}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}

		if err != nil {
			logger.LogStackTrace(logutil.Error, fmt.Sprintf("Writing %v as version %v failed: %v",
				wc.tx, version, err))

			for c := range wc.ws.stagedCells {
				c.unstage(version)
			}

			ret = 0
			err = &util.GraphError{Type: util.ErrInternalWrite, Detail: err.Error()}
		}
	}()

	// Promote changed attributes

	for _, cells := range wc.tx.changes.changedAttributes {
		for c := range cells {
			if c.promote(wc.tx, version) {
				wc.ws.staged(c)
			}
		}
	}

	// Replay structural changes onto the newest persistent state

	for _, op := range wc.tx.changes.log {
		if wc.failure != nil {
			wc.failure(op)
		}

		if err = wc.replay(op); err != nil {
			return 0, err
		}
	}

	g := wc.tx.graph

	if wc.vDelta != 0 {
		vc, _ := g.vCount.Latest()
		setValue(wc.a, g.vCount, vc+wc.vDelta)
	}

	if wc.eDelta != 0 {
		ec, _ := g.eCount.Latest()
		setValue(wc.a, g.eCount, ec+wc.eDelta)
	}

	g.trackCells(wc.ws.stagedCells)

	return version, nil
}

/*
replay applies a single structural operation.
*/
func (wc *writingComponent) replay(op structuralOp) error {
	var err error

	g := wc.tx.graph

	switch op.kind {

	case opAddVertex:
		v := op.moved.(*Vertex)
		setValue(wc.a, g.vertices.slot(v.id), v)
		err = g.vertexList().append(wc.a, v)
		wc.vDelta++

	case opAddEdge:
		e := op.moved.(*Edge)
		setValue(wc.a, g.edges.slot(e.id), e)
		if err = g.edgeList().append(wc.a, e); err == nil {
			if err = e.alpha.vertex.incidenceList().append(wc.a, e.alpha); err == nil {
				err = e.omega.vertex.incidenceList().append(wc.a, e.omega)
			}
		}
		wc.stampIncidences(e.alpha.vertex)
		wc.stampIncidences(e.omega.vertex)
		wc.eDelta++

	case opDeleteVertex:
		v := op.moved.(*Vertex)
		errorutil.AssertTrue(wc.isEmpty(v),
			fmt.Sprintf("Deleted %v still has incidences", v))
		err = g.vertexList().unlink(wc.a, v)
		setValue(wc.a, g.vertices.slot(v.id), (*Vertex)(nil))
		wc.vDelta--

	case opDeleteEdge:
		e := op.moved.(*Edge)
		if err = e.alpha.vertex.incidenceList().unlink(wc.a, e.alpha); err == nil {
			if err = e.omega.vertex.incidenceList().unlink(wc.a, e.omega); err == nil {
				err = g.edgeList().unlink(wc.a, e)
			}
		}
		setValue(wc.a, g.edges.slot(e.id), (*Edge)(nil))
		wc.stampIncidences(e.alpha.vertex)
		wc.stampIncidences(e.omega.vertex)
		wc.eDelta--

	case opMoveVertex:
		moved, target := op.moved.(*Vertex), op.target.(*Vertex)
		err = move(wc.a, g.vertexList(), target, moved, op.before)
		setValue(wc.a, moved.seqStamp, wc.ws.version)

	case opMoveEdge:
		moved, target := op.moved.(*Edge), op.target.(*Edge)
		err = move(wc.a, g.edgeList(), target, moved, op.before)
		setValue(wc.a, moved.seqStamp, wc.ws.version)

	case opMoveIncidence:
		moved, target := op.moved.(*Incidence), op.target.(*Incidence)
		err = move(wc.a, moved.vertex.incidenceList(), target, moved, op.before)
		setValue(wc.a, moved.seqStamp, wc.ws.version)
		wc.stampIncidences(moved.vertex)

	default:
		err = fmt.Errorf("Unknown structural operation: %v", op.kind)
	}

	return err
}

func (wc *writingComponent) isEmpty(v *Vertex) bool {
	return v.incidenceList().isEmpty(wc.a)
}

func (wc *writingComponent) stampIncidences(v *Vertex) {
	setValue(wc.a, v.incidenceStamp, wc.ws.version)
}

/*
move puts an element before or after a target element.
*/
func move[E comparable](a *access, l *linkedList[E], target E, moved E, before bool) error {
	if before {
		return l.putBefore(a, target, moved)
	}
	return l.putAfter(a, target, moved)
}
