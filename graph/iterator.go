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
	"devt.de/krotik/tgraph/graph/util"
)

/*
VertexIterator can be used to iterate over Vseq as seen by a transaction.
*/
type VertexIterator struct {
	tx        *Transaction // Transaction of the iterator
	next      *Vertex      // Next vertex
	LastError error        // Last encountered error
}

/*
Next returns the next vertex. Sets the LastError attribute if the transaction
is no longer usable.
*/
func (it *VertexIterator) Next() *Vertex {
	if it.LastError = checkIteratorTransaction(it.tx); it.LastError != nil {
		return nil
	}

	v := it.next
	if v != nil {
		it.next = v.NextVertex(it.tx)
	}

	return v
}

/*
HasNext returns if there is a next vertex.
*/
func (it *VertexIterator) HasNext() bool {
	return it.next != nil && it.LastError == nil
}

/*
Error returns the last encountered error.
*/
func (it *VertexIterator) Error() error {
	return it.LastError
}

/*
EdgeIterator can be used to iterate over Eseq as seen by a transaction.
*/
type EdgeIterator struct {
	tx        *Transaction // Transaction of the iterator
	next      *Edge        // Next edge
	LastError error        // Last encountered error
}

/*
Next returns the next edge. Sets the LastError attribute if the transaction
is no longer usable.
*/
func (it *EdgeIterator) Next() *Edge {
	if it.LastError = checkIteratorTransaction(it.tx); it.LastError != nil {
		return nil
	}

	e := it.next
	if e != nil {
		it.next = e.NextEdge(it.tx)
	}

	return e
}

/*
HasNext returns if there is a next edge.
*/
func (it *EdgeIterator) HasNext() bool {
	return it.next != nil && it.LastError == nil
}

/*
Error returns the last encountered error.
*/
func (it *EdgeIterator) Error() error {
	return it.LastError
}

/*
IncidenceIterator can be used to iterate over the incidences of a vertex as
seen by a transaction.
*/
type IncidenceIterator struct {
	tx        *Transaction // Transaction of the iterator
	dir       Direction    // Direction of returned incidences
	next      *Incidence   // Next incidence
	LastError error        // Last encountered error
}

/*
Next returns the next incidence. Sets the LastError attribute if the
transaction is no longer usable.
*/
func (it *IncidenceIterator) Next() *Incidence {
	if it.LastError = checkIteratorTransaction(it.tx); it.LastError != nil {
		return nil
	}

	i := it.next
	if i != nil {
		it.next = i.NextIncidence(it.tx, it.dir)
	}

	return i
}

/*
HasNext returns if there is a next incidence.
*/
func (it *IncidenceIterator) HasNext() bool {
	return it.next != nil && it.LastError == nil
}

/*
Error returns the last encountered error.
*/
func (it *IncidenceIterator) Error() error {
	return it.LastError
}

/*
checkIteratorTransaction checks that a transaction can still be used to read.
*/
func checkIteratorTransaction(tx *Transaction) error {
	switch tx.State() {
	case StateCommitted, StateAborted, StateNotRunning:
		return &util.GraphError{Type: util.ErrIllegalState, Detail: tx.String()}
	}
	return nil
}
