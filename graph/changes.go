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

/*
structuralOpKind is the kind of a structural operation.
*/
type structuralOpKind int

/*
Known structural operations
*/
const (
	opAddVertex structuralOpKind = iota
	opAddEdge
	opDeleteVertex
	opDeleteEdge
	opMoveVertex
	opMoveEdge
	opMoveIncidence
)

/*
structuralOp is a recorded structural change. The writing component replays
all recorded operations in order onto the newest persistent state.
*/
type structuralOp struct {
	kind   structuralOpKind
	moved  Element // Added, deleted or moved element
	target Element // Target of a move
	before bool    // Flag if the element was moved before the target
}

/*
changeSet holds all changes of a transaction.
*/
type changeSet struct {
	addedVertices            []*Vertex
	addedEdges               []*Edge
	deletedVertices          []*Vertex
	deletedEdges             []*Edge
	added                    map[Element]struct{}
	deleted                  map[Element]struct{}
	changedSequencePositions map[Element]SequencePosition
	changedAttributes        map[Element]map[cellHandle]struct{}
	log                      []structuralOp
}

/*
newChangeSet creates a new empty change set.
*/
func newChangeSet() *changeSet {
	return &changeSet{
		added:                    make(map[Element]struct{}),
		deleted:                  make(map[Element]struct{}),
		changedSequencePositions: make(map[Element]SequencePosition),
		changedAttributes:        make(map[Element]map[cellHandle]struct{}),
	}
}

/*
copy returns a deep copy of the change set. Elements and cells are shared.
*/
func (cs *changeSet) copy() *changeSet {
	ret := &changeSet{
		addedVertices:            append([]*Vertex(nil), cs.addedVertices...),
		addedEdges:               append([]*Edge(nil), cs.addedEdges...),
		deletedVertices:          append([]*Vertex(nil), cs.deletedVertices...),
		deletedEdges:             append([]*Edge(nil), cs.deletedEdges...),
		added:                    make(map[Element]struct{}, len(cs.added)),
		deleted:                  make(map[Element]struct{}, len(cs.deleted)),
		changedSequencePositions: make(map[Element]SequencePosition, len(cs.changedSequencePositions)),
		changedAttributes:        make(map[Element]map[cellHandle]struct{}, len(cs.changedAttributes)),
		log:                      append([]structuralOp(nil), cs.log...),
	}

	for k := range cs.added {
		ret.added[k] = struct{}{}
	}

	for k := range cs.deleted {
		ret.deleted[k] = struct{}{}
	}

	for k, v := range cs.changedSequencePositions {
		ret.changedSequencePositions[k] = v
	}

	for owner, cells := range cs.changedAttributes {
		c := make(map[cellHandle]struct{}, len(cells))
		for k := range cells {
			c[k] = struct{}{}
		}
		ret.changedAttributes[owner] = c
	}

	return ret
}

func (cs *changeSet) addVertex(v *Vertex) {
	cs.addedVertices = append(cs.addedVertices, v)
	cs.added[v] = struct{}{}
	cs.log = append(cs.log, structuralOp{kind: opAddVertex, moved: v})
}

func (cs *changeSet) addEdge(e *Edge) {
	cs.addedEdges = append(cs.addedEdges, e)
	cs.added[e] = struct{}{}
	cs.log = append(cs.log, structuralOp{kind: opAddEdge, moved: e})
}

func (cs *changeSet) deleteVertex(v *Vertex) {
	cs.deletedVertices = append(cs.deletedVertices, v)
	cs.deleted[v] = struct{}{}
	cs.log = append(cs.log, structuralOp{kind: opDeleteVertex, moved: v})
}

func (cs *changeSet) deleteEdge(e *Edge) {
	cs.deletedEdges = append(cs.deletedEdges, e)
	cs.deleted[e] = struct{}{}
	cs.log = append(cs.log, structuralOp{kind: opDeleteEdge, moved: e})
}

func (cs *changeSet) move(kind structuralOpKind, target Element, moved Element, before bool) {
	cs.log = append(cs.log, structuralOp{kind: kind, moved: moved, target: target, before: before})
}

/*
markSequence records a changed pointer of an element.
*/
func (cs *changeSet) markSequence(e Element, pos SequencePosition) {
	cs.changedSequencePositions[e] |= pos
}

/*
markAttribute records a changed attribute cell of an element.
*/
func (cs *changeSet) markAttribute(owner Element, c cellHandle) {
	cells, ok := cs.changedAttributes[owner]
	if !ok {
		cells = make(map[cellHandle]struct{})
		cs.changedAttributes[owner] = cells
	}
	cells[c] = struct{}{}
}

/*
isAdded checks if an element was created in this change set.
*/
func (cs *changeSet) isAdded(e Element) bool {
	_, ok := cs.added[e]
	return ok
}

/*
isDeleted checks if an element was deleted in this change set.
*/
func (cs *changeSet) isDeleted(e Element) bool {
	_, ok := cs.deleted[e]
	return ok
}
