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
	"strings"
	"sync"

	"devt.de/krotik/tgraph/graph/util"
)

/*
Element is a part of the graph which can be positioned in a sequence.
*/
type Element interface {

	/*
	   ID returns the id of the element. Incidences use the id of their edge
	   (negative for omega incidences).
	*/
	ID() int

	/*
	   Graph returns the graph of the element.
	*/
	Graph() *Graph

	/*
	   String returns a string representation of the element.
	*/
	String() string
}

/*
GraphElement is a vertex or an edge.
*/
type GraphElement interface {
	Element

	/*
	   TypeName returns the type name of the element.
	*/
	TypeName() string

	/*
	   IsValid returns if the element exists in the given transaction.
	*/
	IsValid(tx *Transaction) bool

	/*
	   Kappa returns the kappa level of the element.
	*/
	Kappa(tx *Transaction) (int, error)

	/*
	   SetKappa sets the kappa level of the element.
	*/
	SetKappa(tx *Transaction, kappa int) error

	/*
	   GetAttribute returns the value of an attribute (nil if not set).
	*/
	GetAttribute(tx *Transaction, name string) (interface{}, error)

	/*
	   SetAttribute sets the value of an attribute.
	*/
	SetAttribute(tx *Transaction, name string, value interface{}) error

	/*
	   AttributeNames returns the names of all set attributes.
	*/
	AttributeNames(tx *Transaction) ([]string, error)

	/*
	   stateCells returns all cells which hold attribute values of the element.
	*/
	stateCells() []cellHandle

	/*
	   seqStampCell returns the cell which records explicit moves of the element.
	*/
	seqStampCell() *VersionedCell[uint64]
}

/*
attributes holds the attribute cells of a vertex or an edge. Cells are created
on first use.
*/
type attributes struct {
	lock  sync.Mutex
	cells map[string]*VersionedCell[interface{}]
}

/*
cell returns an attribute cell.
*/
func (a *attributes) cell(owner Element, name string, create bool) *VersionedCell[interface{}] {
	a.lock.Lock()
	defer a.lock.Unlock()

	c, ok := a.cells[name]

	if !ok && create {
		if a.cells == nil {
			a.cells = make(map[string]*VersionedCell[interface{}])
		}

		c = newVersionedCell[interface{}](owner, attributeCellPrefix+name, true)
		a.cells[name] = c
	}

	return c
}

/*
handles returns all attribute cells.
*/
func (a *attributes) handles() []cellHandle {
	a.lock.Lock()
	defer a.lock.Unlock()

	ret := make([]cellHandle, 0, len(a.cells))

	for _, c := range a.cells {
		ret = append(ret, c)
	}

	return ret
}

/*
names returns the names of all attributes which are set in a transaction.
*/
func (a *attributes) names(tx *Transaction) []string {
	a.lock.Lock()

	cells := make(map[string]*VersionedCell[interface{}], len(a.cells))
	for k, v := range a.cells {
		cells[k] = v
	}

	a.lock.Unlock()

	var ret []string

	for name, c := range cells {
		if v, ok := c.Read(tx); ok && v != nil {
			ret = append(ret, name)
		}
	}

	sort.Strings(ret)

	return ret
}

/*
element contains the data which is common to vertices and edges.
*/
type element struct {
	id       int
	typeName string
	graph    *Graph
	kappa    *VersionedCell[int]
	seqStamp *VersionedCell[uint64]
	attrs    attributes
}

/*
ID returns the id of the element.
*/
func (e *element) ID() int {
	return e.id
}

/*
TypeName returns the type name of the element.
*/
func (e *element) TypeName() string {
	return e.typeName
}

/*
Graph returns the graph of the element.
*/
func (e *element) Graph() *Graph {
	return e.graph
}

func (e *element) seqStampCell() *VersionedCell[uint64] {
	return e.seqStamp
}

func (e *element) stateCells() []cellHandle {
	return append(e.attrs.handles(), e.kappa)
}

/*
Vertex models a vertex of the graph.
*/
type Vertex struct {
	element
	next           *VersionedCell[*Vertex]    // Next vertex in Vseq
	prev           *VersionedCell[*Vertex]    // Previous vertex in Vseq
	firstIncidence *VersionedCell[*Incidence] // First incidence of the Lambda-seq
	lastIncidence  *VersionedCell[*Incidence] // Last incidence of the Lambda-seq
	incidenceStamp *VersionedCell[uint64]     // Version of the last incidence change
}

/*
newVertex creates a new vertex object.
*/
func newVertex(g *Graph, id int, typeName string) *Vertex {
	v := &Vertex{element: element{id: id, typeName: typeName, graph: g}}

	v.kappa = newVersionedCell[int](v, CellKappa, true)
	v.seqStamp = newVersionedCell[uint64](v, cellSeqStamp, false)
	v.next = newVersionedCell[*Vertex](v, cellNext, false)
	v.prev = newVersionedCell[*Vertex](v, cellPrev, false)
	v.firstIncidence = newVersionedCell[*Incidence](v, cellFirstIncidence, false)
	v.lastIncidence = newVersionedCell[*Incidence](v, cellLastIncidence, false)
	v.incidenceStamp = newVersionedCell[uint64](v, cellIncidenceStamp, false)

	return v
}

/*
String returns a string representation of the vertex.
*/
func (v *Vertex) String() string {
	return fmt.Sprintf("Vertex %v (%v)", v.id, v.typeName)
}

/*
IsValid returns if the vertex exists in the given transaction.
*/
func (v *Vertex) IsValid(tx *Transaction) bool {
	return v.graph.vertices.read(tx, v.id) == v
}

/*
NextVertex returns the next vertex in Vseq.
*/
func (v *Vertex) NextVertex(tx *Transaction) *Vertex {
	n, _ := v.next.Read(tx)
	return n
}

/*
PrevVertex returns the previous vertex in Vseq.
*/
func (v *Vertex) PrevVertex(tx *Transaction) *Vertex {
	p, _ := v.prev.Read(tx)
	return p
}

/*
FirstIncidence returns the first incidence of the vertex with the given
direction (DirectionBoth for any direction).
*/
func (v *Vertex) FirstIncidence(tx *Transaction, dir Direction) *Incidence {
	i, _ := v.firstIncidence.Read(tx)

	for i != nil && !i.matches(dir) {
		i, _ = i.next.Read(tx)
	}

	return i
}

/*
LastIncidence returns the last incidence of the vertex with the given
direction (DirectionBoth for any direction).
*/
func (v *Vertex) LastIncidence(tx *Transaction, dir Direction) *Incidence {
	i, _ := v.lastIncidence.Read(tx)

	for i != nil && !i.matches(dir) {
		i, _ = i.prev.Read(tx)
	}

	return i
}

/*
Degree returns the number of incidences of the vertex with the given
direction (DirectionBoth for any direction).
*/
func (v *Vertex) Degree(tx *Transaction, dir Direction) int {
	count := 0

	for i := v.FirstIncidence(tx, dir); i != nil; i = i.NextIncidence(tx, dir) {
		count++
	}

	return count
}

/*
IncidenceIterator returns an iterator over the incidences of the vertex.
*/
func (v *Vertex) IncidenceIterator(tx *Transaction, dir Direction) *IncidenceIterator {
	return &IncidenceIterator{tx: tx, dir: dir, next: v.FirstIncidence(tx, dir)}
}

/*
Kappa returns the kappa level of the vertex.
*/
func (v *Vertex) Kappa(tx *Transaction) (int, error) {
	return readKappa(tx, v, v.kappa)
}

/*
SetKappa sets the kappa level of the vertex.
*/
func (v *Vertex) SetKappa(tx *Transaction, kappa int) error {
	return writeKappa(tx, v, v.kappa, kappa)
}

/*
GetAttribute returns the value of an attribute (nil if not set).
*/
func (v *Vertex) GetAttribute(tx *Transaction, name string) (interface{}, error) {
	return readAttribute(tx, v, &v.attrs, name)
}

/*
SetAttribute sets the value of an attribute.
*/
func (v *Vertex) SetAttribute(tx *Transaction, name string, value interface{}) error {
	return writeAttribute(tx, v, &v.attrs, name, value)
}

/*
AttributeNames returns the names of all set attributes.
*/
func (v *Vertex) AttributeNames(tx *Transaction) ([]string, error) {
	if !v.IsValid(tx) {
		return nil, noSuchElement(v)
	}
	return v.attrs.names(tx), nil
}

/*
incidenceList returns the incidence sequence of the vertex.
*/
func (v *Vertex) incidenceList() *linkedList[*Incidence] {
	return &linkedList[*Incidence]{
		name:  "Lambda-seq of " + v.String(),
		first: v.firstIncidence,
		last:  v.lastIncidence,
		next:  func(i *Incidence) *VersionedCell[*Incidence] { return i.next },
		prev:  func(i *Incidence) *VersionedCell[*Incidence] { return i.prev },
	}
}

/*
Edge models an edge of the graph.
*/
type Edge struct {
	element
	next  *VersionedCell[*Edge] // Next edge in Eseq
	prev  *VersionedCell[*Edge] // Previous edge in Eseq
	alpha *Incidence            // Incidence at the start vertex
	omega *Incidence            // Incidence at the end vertex
}

/*
newEdge creates a new edge object.
*/
func newEdge(g *Graph, id int, typeName string, alpha *Vertex, omega *Vertex,
	alphaAggregation AggregationKind, omegaAggregation AggregationKind) *Edge {

	e := &Edge{element: element{id: id, typeName: typeName, graph: g}}

	e.kappa = newVersionedCell[int](e, CellKappa, true)
	e.seqStamp = newVersionedCell[uint64](e, cellSeqStamp, false)
	e.next = newVersionedCell[*Edge](e, cellNext, false)
	e.prev = newVersionedCell[*Edge](e, cellPrev, false)
	e.alpha = newIncidence(e, alpha, DirectionOut, alphaAggregation)
	e.omega = newIncidence(e, omega, DirectionIn, omegaAggregation)

	return e
}

/*
String returns a string representation of the edge.
*/
func (e *Edge) String() string {
	return fmt.Sprintf("Edge %v (%v) %v -> %v", e.id, e.typeName, e.alpha.vertex.id, e.omega.vertex.id)
}

/*
IsValid returns if the edge exists in the given transaction.
*/
func (e *Edge) IsValid(tx *Transaction) bool {
	return e.graph.edges.read(tx, e.id) == e
}

/*
Alpha returns the start vertex of the edge.
*/
func (e *Edge) Alpha() *Vertex {
	return e.alpha.vertex
}

/*
Omega returns the end vertex of the edge.
*/
func (e *Edge) Omega() *Vertex {
	return e.omega.vertex
}

/*
AlphaIncidence returns the incidence of the edge at its start vertex.
*/
func (e *Edge) AlphaIncidence() *Incidence {
	return e.alpha
}

/*
OmegaIncidence returns the incidence of the edge at its end vertex.
*/
func (e *Edge) OmegaIncidence() *Incidence {
	return e.omega
}

/*
NextEdge returns the next edge in Eseq.
*/
func (e *Edge) NextEdge(tx *Transaction) *Edge {
	n, _ := e.next.Read(tx)
	return n
}

/*
PrevEdge returns the previous edge in Eseq.
*/
func (e *Edge) PrevEdge(tx *Transaction) *Edge {
	p, _ := e.prev.Read(tx)
	return p
}

/*
Kappa returns the kappa level of the edge.
*/
func (e *Edge) Kappa(tx *Transaction) (int, error) {
	return readKappa(tx, e, e.kappa)
}

/*
SetKappa sets the kappa level of the edge.
*/
func (e *Edge) SetKappa(tx *Transaction, kappa int) error {
	return writeKappa(tx, e, e.kappa, kappa)
}

/*
GetAttribute returns the value of an attribute (nil if not set).
*/
func (e *Edge) GetAttribute(tx *Transaction, name string) (interface{}, error) {
	return readAttribute(tx, e, &e.attrs, name)
}

/*
SetAttribute sets the value of an attribute.
*/
func (e *Edge) SetAttribute(tx *Transaction, name string, value interface{}) error {
	return writeAttribute(tx, e, &e.attrs, name, value)
}

/*
AttributeNames returns the names of all set attributes.
*/
func (e *Edge) AttributeNames(tx *Transaction) ([]string, error) {
	if !e.IsValid(tx) {
		return nil, noSuchElement(e)
	}
	return e.attrs.names(tx), nil
}

/*
Incidence connects an edge with one of its vertices.
*/
type Incidence struct {
	edge        *Edge
	vertex      *Vertex
	direction   Direction
	aggregation AggregationKind
	next        *VersionedCell[*Incidence] // Next incidence in the Lambda-seq
	prev        *VersionedCell[*Incidence] // Previous incidence in the Lambda-seq
	seqStamp    *VersionedCell[uint64]     // Version of the last explicit move
}

/*
newIncidence creates a new incidence object.
*/
func newIncidence(e *Edge, v *Vertex, dir Direction, aggregation AggregationKind) *Incidence {
	i := &Incidence{edge: e, vertex: v, direction: dir, aggregation: aggregation}

	i.next = newVersionedCell[*Incidence](i, cellNext, false)
	i.prev = newVersionedCell[*Incidence](i, cellPrev, false)
	i.seqStamp = newVersionedCell[uint64](i, cellSeqStamp, false)

	return i
}

/*
ID returns the id of the edge of this incidence; negative for omega incidences.
*/
func (i *Incidence) ID() int {
	if i.direction == DirectionIn {
		return -i.edge.id
	}
	return i.edge.id
}

/*
Graph returns the graph of the incidence.
*/
func (i *Incidence) Graph() *Graph {
	return i.edge.graph
}

/*
String returns a string representation of the incidence.
*/
func (i *Incidence) String() string {
	return fmt.Sprintf("Incidence %v (%v) at vertex %v", i.ID(), strings.ToLower(i.direction.String()), i.vertex.id)
}

/*
Edge returns the edge of the incidence.
*/
func (i *Incidence) Edge() *Edge {
	return i.edge
}

/*
Vertex returns the vertex of the incidence.
*/
func (i *Incidence) Vertex() *Vertex {
	return i.vertex
}

/*
ThatVertex returns the vertex at the other end of the edge.
*/
func (i *Incidence) ThatVertex() *Vertex {
	if i.direction == DirectionOut {
		return i.edge.omega.vertex
	}
	return i.edge.alpha.vertex
}

/*
Direction returns the direction of the incidence.
*/
func (i *Incidence) Direction() Direction {
	return i.direction
}

/*
Aggregation returns the aggregation kind of the incidence.
*/
func (i *Incidence) Aggregation() AggregationKind {
	return i.aggregation
}

/*
NextIncidence returns the next incidence of the same vertex with the given
direction (DirectionBoth for any direction).
*/
func (i *Incidence) NextIncidence(tx *Transaction, dir Direction) *Incidence {
	n, _ := i.next.Read(tx)

	for n != nil && !n.matches(dir) {
		n, _ = n.next.Read(tx)
	}

	return n
}

/*
PrevIncidence returns the previous incidence of the same vertex with the given
direction (DirectionBoth for any direction).
*/
func (i *Incidence) PrevIncidence(tx *Transaction, dir Direction) *Incidence {
	p, _ := i.prev.Read(tx)

	for p != nil && !p.matches(dir) {
		p, _ = p.prev.Read(tx)
	}

	return p
}

func (i *Incidence) matches(dir Direction) bool {
	return dir == DirectionBoth || dir == i.direction
}

// Helper functions
// ================

func noSuchElement(e Element) error {
	return &util.GraphError{Type: util.ErrNoSuchElement, Detail: e.String()}
}

func readKappa(tx *Transaction, e GraphElement, c *VersionedCell[int]) (int, error) {
	if !e.IsValid(tx) {
		return 0, noSuchElement(e)
	}

	k, _ := c.Read(tx)

	return k, nil
}

func writeKappa(tx *Transaction, e GraphElement, c *VersionedCell[int], kappa int) error {
	if err := tx.checkWritable(); err != nil {
		return err
	} else if !e.IsValid(tx) {
		return noSuchElement(e)
	}

	return c.Write(tx, kappa)
}

func readAttribute(tx *Transaction, e GraphElement, attrs *attributes, name string) (interface{}, error) {
	if !e.IsValid(tx) {
		return nil, noSuchElement(e)
	}

	if c := attrs.cell(e, name, false); c != nil {
		v, _ := c.Read(tx)
		return v, nil
	}

	return nil, nil
}

func writeAttribute(tx *Transaction, e GraphElement, attrs *attributes, name string, value interface{}) error {
	if err := tx.checkWritable(); err != nil {
		return err
	} else if !e.IsValid(tx) {
		return noSuchElement(e)
	} else if name == "" {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "attribute name must not be empty"}
	}

	return attrs.cell(e, name, true).Write(tx, value)
}
