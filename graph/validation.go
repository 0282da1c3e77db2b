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
)

/*
validationComponent checks a transaction against all transactions which
committed after it began. The first committer wins: the validated transaction
conflicts if a later persistent version touched anything it depends on.
*/
type validationComponent struct {
	tx      *Transaction
	bot     uint64
	cs      *changeSet
	checked map[Element]bool
	errs    *errorutil.CompositeError
}

/*
newValidationComponent creates a new validation component for a transaction.
*/
func newValidationComponent(tx *Transaction) *validationComponent {
	return &validationComponent{tx, tx.persistentVersionAtBot, tx.changes,
		make(map[Element]bool), errorutil.NewCompositeError()}
}

/*
validate returns an error which lists all found conflicts or nil.
*/
func (vc *validationComponent) validate() error {

	// Everything the transaction changed must still exist

	for owner := range vc.cs.changedAttributes {
		vc.checkExists(owner, "attribute of")
	}

	for e := range vc.cs.changedSequencePositions {
		vc.checkExists(e, "sequence position of")
	}

	for _, e := range vc.cs.addedEdges {
		vc.checkExists(e.alpha.vertex, "alpha vertex of new edge")
		vc.checkExists(e.omega.vertex, "omega vertex of new edge")
	}

	for _, op := range vc.cs.log {
		switch op.kind {
		case opMoveVertex, opMoveEdge, opMoveIncidence:
			vc.checkExists(op.moved, "moved")
			vc.checkExists(op.target, "move target")
		case opDeleteVertex, opDeleteEdge:
			vc.checkExists(op.moved, "deleted")
		}
	}

	// Deleted elements must not have been changed by others

	for _, v := range vc.cs.deletedVertices {
		if !vc.cs.isAdded(v) {
			vc.checkUntouched(v)

			if v.incidenceStamp.LatestVersion() > vc.bot {
				vc.conflict("incidences of deleted %v were changed", v)
			}
		}
	}

	for _, e := range vc.cs.deletedEdges {
		if !vc.cs.isAdded(e) {
			vc.checkUntouched(e)
		}
	}

	// Positions must not have been changed differently by others

	for e, pos := range vc.cs.changedSequencePositions {
		vc.checkPosition(e, pos)
	}

	// Attributes must not have been written by others

	for owner, cells := range vc.cs.changedAttributes {
		for c := range cells {
			if c.LatestVersion() > vc.bot {
				vc.conflict("%v of %v was changed", c.Name(), owner)
			}
		}
	}

	if vc.errs.HasErrors() {
		return vc.errs
	}

	return nil
}

/*
checkExists checks that an element which was not added by the transaction is
still part of the newest persistent version.
*/
func (vc *validationComponent) checkExists(e Element, what string) {
	if i, ok := e.(*Incidence); ok {
		e = i.edge
	}

	if vc.cs.isAdded(e) {
		return
	}

	if exists, ok := vc.checked[e]; ok {
		if !exists {
			vc.conflict("%v %v was deleted", what, e)
		}
		return
	}

	exists := false

	switch el := e.(type) {
	case *Vertex:
		exists = el.graph.vertices.latest(el.id) == el
	case *Edge:
		exists = el.graph.edges.latest(el.id) == el
	}

	vc.checked[e] = exists

	if !exists {
		vc.conflict("%v %v was deleted", what, e)
	}
}

/*
checkUntouched checks that no cell of a deleted element and no position of it
was changed by others.
*/
func (vc *validationComponent) checkUntouched(e GraphElement) {
	for _, c := range e.stateCells() {
		if c.LatestVersion() > vc.bot {
			vc.conflict("%v of deleted %v was changed", c.Name(), e)
			return
		}
	}

	if e.seqStampCell().LatestVersion() > vc.bot {
		vc.conflict("deleted %v was moved", e)
	}
}

/*
checkPosition checks that others did not move an element to a different
position than the transaction.
*/
func (vc *validationComponent) checkPosition(e Element, pos SequencePosition) {
	var stamp *VersionedCell[uint64]
	var next, prev cellHandle

	switch el := e.(type) {
	case *Vertex:
		stamp, next, prev = el.seqStamp, el.next, el.prev
	case *Edge:
		stamp, next, prev = el.seqStamp, el.next, el.prev
	case *Incidence:
		stamp, next, prev = el.seqStamp, el.next, el.prev
	}

	if stamp == nil || stamp.LatestVersion() <= vc.bot {
		return
	}

	if (pos&PositionNext != 0 && !next.temporaryMatchesLatest(vc.tx)) ||
		(pos&PositionPrev != 0 && !prev.temporaryMatchesLatest(vc.tx)) {

		vc.conflict("position of %v was changed", e)
	}
}

func (vc *validationComponent) conflict(format string, args ...interface{}) {
	vc.errs.Add(fmt.Errorf(format, args...))
}
