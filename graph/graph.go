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
	"sync"
	"sync/atomic"

	"devt.de/krotik/tgraph/graph/util"
	"github.com/google/uuid"
)

/*
Graph is a transactional in-memory graph.
*/
type Graph struct {
	uid  string // Unique id of this graph
	name string // Name of this graph

	vertices    *elementTable[*Vertex]  // Vertex slots
	edges       *elementTable[*Edge]    // Edge slots
	firstVertex *VersionedCell[*Vertex] // Head of Vseq
	lastVertex  *VersionedCell[*Vertex] // Tail of Vseq
	firstEdge   *VersionedCell[*Edge]   // Head of Eseq
	lastEdge    *VersionedCell[*Edge]   // Tail of Eseq
	vCount      *VersionedCell[int]     // Number of vertices
	eCount      *VersionedCell[int]     // Number of edges

	persistentVersion  atomic.Uint64 // Newest persistent version
	transactionCounter uint64        // Counter for transaction ids

	commitLock           sync.Mutex   // Serializes validation and writing of commits
	commitValidatingLock sync.RWMutex // Blocks conflict probes while a commit is written
	botWritingLock       sync.RWMutex // Blocks begin of transactions while a commit is written

	manager *TransactionManager // Registry of open transactions

	gcLock  sync.Mutex              // Lock for gcCells
	gcCells map[cellHandle]struct{} // Cells which hold more than one persistent version

	listenerLock sync.RWMutex     // Lock for listeners
	listeners    []CommitListener // Listeners for commit events

	publishLock   sync.Mutex     // Lock for pendingEvents and publishing
	pendingEvents []*CommitEvent // Commit events in version order which still need publishing
	publishing    bool           // Flag if a commit is currently publishing events

	writeHook func(op structuralOp) // Called before each replayed operation (testing only)
}

/*
NewGraph creates a new empty graph with the given initial capacities.
*/
func NewGraph(name string, vertexCapacity int, edgeCapacity int) *Graph {
	return NewGraphWithExpansionFactor(name, vertexCapacity, edgeCapacity, DefaultExpansionFactor)
}

/*
NewGraphWithExpansionFactor creates a new empty graph. The element tables grow
by the given factor if no free id is left.
*/
func NewGraphWithExpansionFactor(name string, vertexCapacity int, edgeCapacity int,
	expansionFactor float64) *Graph {

	g := &Graph{
		uid:      uuid.New().String(),
		name:     name,
		vertices: newElementTable[*Vertex]("vertex", vertexCapacity, expansionFactor),
		edges:    newElementTable[*Edge]("edge", edgeCapacity, expansionFactor),
		gcCells:  make(map[cellHandle]struct{}),
	}

	g.firstVertex = newVersionedCell[*Vertex](nil, cellFirstVertex, false)
	g.lastVertex = newVersionedCell[*Vertex](nil, cellLastVertex, false)
	g.firstEdge = newVersionedCell[*Edge](nil, cellFirstEdge, false)
	g.lastEdge = newVersionedCell[*Edge](nil, cellLastEdge, false)
	g.vCount = newVersionedCell[int](nil, cellVertexCount, false)
	g.eCount = newVersionedCell[int](nil, cellEdgeCount, false)

	g.manager = newTransactionManager(g)

	return g
}

/*
UID returns the unique id of the graph.
*/
func (g *Graph) UID() string {
	return g.uid
}

/*
Name returns the name of the graph.
*/
func (g *Graph) Name() string {
	return g.name
}

/*
PersistentVersion returns the newest persistent version of the graph.
*/
func (g *Graph) PersistentVersion() uint64 {
	return g.persistentVersion.Load()
}

/*
TransactionManager returns the registry of open transactions of the graph.
*/
func (g *Graph) TransactionManager() *TransactionManager {
	return g.manager
}

/*
String returns a string representation of the graph.
*/
func (g *Graph) String() string {
	return fmt.Sprintf("Graph %v (%v) version:%v %v %v", g.name, g.uid,
		g.PersistentVersion(), g.vertices, g.edges)
}

// Read API
// ========

/*
Vertex returns the vertex with the given id or nil.
*/
func (g *Graph) Vertex(tx *Transaction, id int) *Vertex {
	return g.vertices.read(tx, id)
}

/*
Edge returns the edge with the given id or nil.
*/
func (g *Graph) Edge(tx *Transaction, id int) *Edge {
	return g.edges.read(tx, id)
}

/*
FirstVertex returns the first vertex of Vseq.
*/
func (g *Graph) FirstVertex(tx *Transaction) *Vertex {
	v, _ := g.firstVertex.Read(tx)
	return v
}

/*
LastVertex returns the last vertex of Vseq.
*/
func (g *Graph) LastVertex(tx *Transaction) *Vertex {
	v, _ := g.lastVertex.Read(tx)
	return v
}

/*
FirstEdge returns the first edge of Eseq.
*/
func (g *Graph) FirstEdge(tx *Transaction) *Edge {
	e, _ := g.firstEdge.Read(tx)
	return e
}

/*
LastEdge returns the last edge of Eseq.
*/
func (g *Graph) LastEdge(tx *Transaction) *Edge {
	e, _ := g.lastEdge.Read(tx)
	return e
}

/*
VCount returns the number of vertices.
*/
func (g *Graph) VCount(tx *Transaction) int {
	c, _ := g.vCount.Read(tx)
	return c
}

/*
ECount returns the number of edges.
*/
func (g *Graph) ECount(tx *Transaction) int {
	c, _ := g.eCount.Read(tx)
	return c
}

/*
VertexIterator returns an iterator over Vseq.
*/
func (g *Graph) VertexIterator(tx *Transaction) *VertexIterator {
	return &VertexIterator{tx: tx, next: g.FirstVertex(tx)}
}

/*
EdgeIterator returns an iterator over Eseq.
*/
func (g *Graph) EdgeIterator(tx *Transaction) *EdgeIterator {
	return &EdgeIterator{tx: tx, next: g.FirstEdge(tx)}
}

// Write API
// =========

/*
CreateVertex creates a new vertex at the end of Vseq.
*/
func (g *Graph) CreateVertex(tx *Transaction, typeName string) (*Vertex, error) {
	if err := g.checkTransaction(tx); err != nil {
		return nil, err
	}

	id, err := g.vertices.allocate()
	if err != nil {
		return nil, err
	}

	v := newVertex(g, id, typeName)
	a := &access{tx: tx}

	if err = setValue(a, g.vertices.slot(id), v); err == nil {
		if err = g.vertexList().append(a, v); err == nil {
			err = g.vCount.Write(tx, g.VCount(tx)+1)
		}
	}

	if err != nil {
		g.vertices.release(id)
		return nil, err
	}

	tx.changes.addVertex(v)

	return v, nil
}

/*
CreateEdge creates a new edge from alpha to omega at the end of Eseq.
*/
func (g *Graph) CreateEdge(tx *Transaction, typeName string, alpha *Vertex, omega *Vertex) (*Edge, error) {
	return g.CreateEdgeWithAggregation(tx, typeName, alpha, omega, AggregationNone, AggregationNone)
}

/*
CreateEdgeWithAggregation creates a new edge from alpha to omega with the
given aggregation kinds for the alpha and the omega incidence.
*/
func (g *Graph) CreateEdgeWithAggregation(tx *Transaction, typeName string, alpha *Vertex, omega *Vertex,
	alphaAggregation AggregationKind, omegaAggregation AggregationKind) (*Edge, error) {

	if err := g.checkTransaction(tx); err != nil {
		return nil, err
	}

	for _, v := range []*Vertex{alpha, omega} {
		if v == nil || v.graph != g || !v.IsValid(tx) {
			return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: fmt.Sprintf("invalid end vertex %v", v)}
		}
	}

	id, err := g.edges.allocate()
	if err != nil {
		return nil, err
	}

	e := newEdge(g, id, typeName, alpha, omega, alphaAggregation, omegaAggregation)
	a := &access{tx: tx}

	if err = setValue(a, g.edges.slot(id), e); err == nil {
		if err = g.edgeList().append(a, e); err == nil {
			if err = alpha.incidenceList().append(a, e.alpha); err == nil {
				if err = omega.incidenceList().append(a, e.omega); err == nil {
					err = g.eCount.Write(tx, g.ECount(tx)+1)
				}
			}
		}
	}

	if err != nil {
		g.edges.release(id)
		return nil, err
	}

	tx.changes.addEdge(e)

	return e, nil
}

/*
DeleteVertex deletes a vertex together with all its incident edges. Vertices
which are parts of the deleted vertex (the deleted vertex holds a composite
incidence of the connecting edge) are deleted as well.
*/
func (g *Graph) DeleteVertex(tx *Transaction, v *Vertex) error {
	if err := g.checkElement(tx, v); err != nil {
		return err
	}

	var parts []*Vertex

	for i := v.FirstIncidence(tx, DirectionBoth); i != nil; i = v.FirstIncidence(tx, DirectionBoth) {
		if i.aggregation == AggregationComposite {
			parts = append(parts, i.ThatVertex())
		}

		if err := g.DeleteEdge(tx, i.edge); err != nil {
			return err
		}
	}

	a := &access{tx: tx}

	if err := g.vertexList().unlink(a, v); err != nil {
		return err
	}

	if err := setValue(a, g.vertices.slot(v.id), nil); err != nil {
		return err
	}

	if err := g.vCount.Write(tx, g.VCount(tx)-1); err != nil {
		return err
	}

	tx.changes.deleteVertex(v)

	for _, part := range parts {
		if part.IsValid(tx) {
			if err := g.DeleteVertex(tx, part); err != nil {
				return err
			}
		}
	}

	return nil
}

/*
DeleteEdge deletes an edge.
*/
func (g *Graph) DeleteEdge(tx *Transaction, e *Edge) error {
	if err := g.checkElement(tx, e); err != nil {
		return err
	}

	a := &access{tx: tx}

	err := e.alpha.vertex.incidenceList().unlink(a, e.alpha)

	if err == nil {
		if err = e.omega.vertex.incidenceList().unlink(a, e.omega); err == nil {
			if err = g.edgeList().unlink(a, e); err == nil {
				if err = setValue(a, g.edges.slot(e.id), nil); err == nil {
					err = g.eCount.Write(tx, g.ECount(tx)-1)
				}
			}
		}
	}

	if err == nil {
		tx.changes.deleteEdge(e)
	}

	return err
}

/*
PutVertexBefore moves a vertex directly before a target vertex in Vseq.
*/
func (g *Graph) PutVertexBefore(tx *Transaction, target *Vertex, moved *Vertex) error {
	return g.moveVertex(tx, target, moved, true)
}

/*
PutVertexAfter moves a vertex directly after a target vertex in Vseq.
*/
func (g *Graph) PutVertexAfter(tx *Transaction, target *Vertex, moved *Vertex) error {
	return g.moveVertex(tx, target, moved, false)
}

/*
PutEdgeBefore moves an edge directly before a target edge in Eseq.
*/
func (g *Graph) PutEdgeBefore(tx *Transaction, target *Edge, moved *Edge) error {
	return g.moveEdge(tx, target, moved, true)
}

/*
PutEdgeAfter moves an edge directly after a target edge in Eseq.
*/
func (g *Graph) PutEdgeAfter(tx *Transaction, target *Edge, moved *Edge) error {
	return g.moveEdge(tx, target, moved, false)
}

/*
PutIncidenceBefore moves an incidence directly before a target incidence of
the same vertex.
*/
func (g *Graph) PutIncidenceBefore(tx *Transaction, target *Incidence, moved *Incidence) error {
	return g.moveIncidence(tx, target, moved, true)
}

/*
PutIncidenceAfter moves an incidence directly after a target incidence of the
same vertex.
*/
func (g *Graph) PutIncidenceAfter(tx *Transaction, target *Incidence, moved *Incidence) error {
	return g.moveIncidence(tx, target, moved, false)
}

func (g *Graph) moveVertex(tx *Transaction, target *Vertex, moved *Vertex, before bool) error {
	if err := g.checkElement(tx, target); err != nil {
		return err
	} else if err := g.checkElement(tx, moved); err != nil {
		return err
	}

	if err := move(&access{tx: tx}, g.vertexList(), target, moved, before); err != nil {
		return err
	}

	// Moves which are a no-op in this snapshot still pin the position of the
	// moved element

	tx.changes.markSequence(moved, PositionNext|PositionPrev)
	tx.changes.move(opMoveVertex, target, moved, before)

	return nil
}

func (g *Graph) moveEdge(tx *Transaction, target *Edge, moved *Edge, before bool) error {
	if err := g.checkElement(tx, target); err != nil {
		return err
	} else if err := g.checkElement(tx, moved); err != nil {
		return err
	}

	if err := move(&access{tx: tx}, g.edgeList(), target, moved, before); err != nil {
		return err
	}

	// Moves which are a no-op in this snapshot still pin the position of the
	// moved element

	tx.changes.markSequence(moved, PositionNext|PositionPrev)
	tx.changes.move(opMoveEdge, target, moved, before)

	return nil
}

func (g *Graph) moveIncidence(tx *Transaction, target *Incidence, moved *Incidence, before bool) error {
	if target == nil || moved == nil {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "missing incidence"}
	} else if err := g.checkElement(tx, target.edge); err != nil {
		return err
	} else if err := g.checkElement(tx, moved.edge); err != nil {
		return err
	} else if target.vertex != moved.vertex {
		return &util.GraphError{Type: util.ErrInvalidData,
			Detail: fmt.Sprintf("%v and %v belong to different vertices", target, moved)}
	}

	if err := move(&access{tx: tx}, moved.vertex.incidenceList(), target, moved, before); err != nil {
		return err
	}

	// Moves which are a no-op in this snapshot still pin the position of the
	// moved element

	tx.changes.markSequence(moved, PositionNext|PositionPrev)
	tx.changes.move(opMoveIncidence, target, moved, before)

	return nil
}

// Maintenance
// ===========

/*
Defragment trims unused capacity of the element tables and removes all
persistent versions except the newest one of each cell. This is only possible
if no transaction is open.
*/
func (g *Graph) Defragment(minVertexCapacity int, minEdgeCapacity int) error {
	g.commitLock.Lock()
	defer g.commitLock.Unlock()

	g.botWritingLock.Lock()
	defer g.botWritingLock.Unlock()

	if c := g.manager.Count(); c > 0 {
		return &util.GraphError{Type: util.ErrIllegalState,
			Detail: fmt.Sprintf("cannot defragment with %v open transactions", c)}
	}

	if err := g.vertices.shrink(minVertexCapacity); err != nil {
		return err
	}

	if err := g.edges.shrink(minEdgeCapacity); err != nil {
		return err
	}

	floor := g.PersistentVersion()

	for _, c := range g.vertices.cells() {
		c.gc(floor)
	}

	for _, c := range g.edges.cells() {
		c.gc(floor)
	}

	g.gcLock.Lock()
	for c := range g.gcCells {
		c.gc(floor)
		delete(g.gcCells, c)
	}
	g.gcLock.Unlock()

	logger.Info("Defragmented ", g)

	return nil
}

/*
VertexCapacity returns the current capacity of the vertex table.
*/
func (g *Graph) VertexCapacity() int {
	g.vertices.lock.RLock()
	defer g.vertices.lock.RUnlock()

	return g.vertices.ids.Capacity()
}

/*
EdgeCapacity returns the current capacity of the edge table.
*/
func (g *Graph) EdgeCapacity() int {
	g.edges.lock.RLock()
	defer g.edges.lock.RUnlock()

	return g.edges.ids.Capacity()
}

// Helper functions
// ================

func (g *Graph) vertexList() *linkedList[*Vertex] {
	return &linkedList[*Vertex]{
		name:  "Vseq",
		first: g.firstVertex,
		last:  g.lastVertex,
		next:  func(v *Vertex) *VersionedCell[*Vertex] { return v.next },
		prev:  func(v *Vertex) *VersionedCell[*Vertex] { return v.prev },
	}
}

func (g *Graph) edgeList() *linkedList[*Edge] {
	return &linkedList[*Edge]{
		name:  "Eseq",
		first: g.firstEdge,
		last:  g.lastEdge,
		next:  func(e *Edge) *VersionedCell[*Edge] { return e.next },
		prev:  func(e *Edge) *VersionedCell[*Edge] { return e.prev },
	}
}

/*
checkTransaction checks that a transaction can write to this graph.
*/
func (g *Graph) checkTransaction(tx *Transaction) error {
	if tx == nil || tx.graph != g {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "transaction does not belong to graph " + g.name}
	}
	return tx.checkWritable()
}

/*
checkElement checks that an element is visible to a transaction which can
write to this graph.
*/
func (g *Graph) checkElement(tx *Transaction, e GraphElement) error {
	if err := g.checkTransaction(tx); err != nil {
		return err
	}

	switch el := e.(type) {
	case *Vertex:
		if el == nil || el.graph != g {
			return &util.GraphError{Type: util.ErrInvalidData, Detail: "vertex does not belong to graph " + g.name}
		}
	case *Edge:
		if el == nil || el.graph != g {
			return &util.GraphError{Type: util.ErrInvalidData, Detail: "edge does not belong to graph " + g.name}
		}
	}

	if !e.IsValid(tx) {
		return noSuchElement(e)
	}

	return nil
}

/*
trackCells registers cells for garbage collection.
*/
func (g *Graph) trackCells(cells map[cellHandle]struct{}) {
	g.gcLock.Lock()
	defer g.gcLock.Unlock()

	for c := range cells {
		g.gcCells[c] = struct{}{}
	}
}

/*
collect frees pending ids and removes persistent versions which no open
transaction can see anymore.
*/
func (g *Graph) collect() {
	g.botWritingLock.RLock()
	floor := g.PersistentVersion()
	if oldest, ok := g.manager.OldestBot(); ok && oldest < floor {
		floor = oldest
	}
	live := g.manager.Transactions()
	g.botWritingLock.RUnlock()

	g.vertices.retryPending(live)
	g.edges.retryPending(live)

	g.gcLock.Lock()
	defer g.gcLock.Unlock()

	for c := range g.gcCells {
		if c.gc(floor) <= 1 {
			delete(g.gcCells, c)
		}
	}
}
