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
Package graph contains the main API to the transactional graph store.

Graph API

The main API is provided by a Graph object which can be created with the
NewGraph() constructor function. A graph stores vertices and edges. All
vertices of a graph form the vertex sequence (Vseq), all edges form the edge
sequence (Eseq). Each edge connects two vertices through two incidences
(alpha and omega). All incidences of a vertex form its incidence sequence
(Lambda-seq). Vertices and edges carry attributes and a kappa level.

Transactions

Every read and every write requires a Transaction which can be created with
Graph.Begin(). Transactions are optimistic: they never block each other while
they run. Each mutable piece of graph state is stored in a VersionedCell which
keeps a history of committed values and one temporary value for each open
transaction which wrote to it. A transaction sees the committed state of the
graph at the time it began plus its own changes (snapshot isolation).

Commit validates the transaction against all transactions which committed
after it began. If a conflict is found the commit fails with an
ErrCommitFailed error and the transaction stays open; it can be aborted or the
conflicting work can be done again. Otherwise the changes of the transaction
are written as a new persistent graph version.

Savepoints

A read-write transaction can define savepoints and restore them later on to
roll back part of its work without aborting.

Commit listeners

CommitListeners receive a CommitEvent after each successful read-write commit.
*/
package graph

import (
	"io"

	"devt.de/krotik/common/logutil"
)

/*
VERSION of the graph store
*/
const VERSION = 1

/*
DefaultExpansionFactor is the factor by which element tables grow if no free
id is left.
*/
const DefaultExpansionFactor = 2.0

/*
logger is the logger of this package
*/
var logger = logutil.GetLogger("tgraph.graph")

/*
Embedding applications without log sinks get a root sink which discards all
messages. Sinks added by the application for the root scope still receive
their messages next to it.
*/
func init() {
	logutil.GetLogger("").AddLogSink(logutil.Debug, logutil.SimpleFormatter(), io.Discard)
}

/*
Direction of an incidence seen from its vertex.
*/
type Direction int

/*
Known directions
*/
const (
	DirectionBoth Direction = iota // Used for traversal only
	DirectionOut                   // Alpha incidence of an edge
	DirectionIn                    // Omega incidence of an edge
)

/*
String returns a string representation of a direction.
*/
func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "OUT"
	case DirectionIn:
		return "IN"
	}
	return "BOTH"
}

/*
AggregationKind models the aggregation semantics of an incidence. If the
incidence at a vertex is Composite then the vertex is the whole and the vertex
at the other end of the edge is a part. Parts are deleted together with their
whole.
*/
type AggregationKind int

/*
Known aggregation kinds
*/
const (
	AggregationNone AggregationKind = iota
	AggregationShared
	AggregationComposite
)

/*
String returns a string representation of an aggregation kind.
*/
func (a AggregationKind) String() string {
	switch a {
	case AggregationShared:
		return "SHARED"
	case AggregationComposite:
		return "COMPOSITE"
	}
	return "NONE"
}

/*
SequencePosition flags which pointers of an element in a sequence were
changed.
*/
type SequencePosition int

/*
Known sequence positions
*/
const (
	PositionNext SequencePosition = 1 << iota
	PositionPrev
)

/*
String returns a string representation of a sequence position mask.
*/
func (p SequencePosition) String() string {
	switch p {
	case PositionNext:
		return "NEXT"
	case PositionPrev:
		return "PREV"
	case PositionNext | PositionPrev:
		return "NEXT|PREV"
	}
	return "NONE"
}

/*
Names of internal cells
*/
const (
	CellKappa           = "kappa"
	cellSlot            = "slot"
	cellNext            = "next"
	cellPrev            = "prev"
	cellFirstIncidence  = "firstIncidence"
	cellLastIncidence   = "lastIncidence"
	cellSeqStamp        = "seqStamp"
	cellIncidenceStamp  = "incidenceStamp"
	cellFirstVertex     = "firstVertex"
	cellLastVertex      = "lastVertex"
	cellFirstEdge       = "firstEdge"
	cellLastEdge        = "lastEdge"
	cellVertexCount     = "vCount"
	cellEdgeCount       = "eCount"
	attributeCellPrefix = "attr:"
)
