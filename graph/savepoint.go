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

	"devt.de/krotik/tgraph/graph/util"
)

/*
Savepoint is a point inside a transaction to which the transaction can be
rolled back.
*/
type Savepoint struct {
	id          int          // Number of the savepoint inside its transaction
	tx          *Transaction // Transaction which owns the savepoint
	tempVersion int          // Temporary version at definition time
	changes     *changeSet   // Copy of the changes at definition time
}

/*
ID returns the number of the savepoint inside its transaction.
*/
func (sp *Savepoint) ID() int {
	return sp.id
}

/*
Transaction returns the transaction of the savepoint.
*/
func (sp *Savepoint) Transaction() *Transaction {
	return sp.tx
}

/*
IsValid returns if the savepoint can still be restored.
*/
func (sp *Savepoint) IsValid() bool {
	return sp.tx.savepointIndex(sp) != -1
}

/*
String returns a string representation of the savepoint.
*/
func (sp *Savepoint) String() string {
	return fmt.Sprintf("Savepoint %v of transaction %v (temp version:%v)", sp.id, sp.tx.id, sp.tempVersion)
}

/*
DefineSavepoint defines a new savepoint for the current state of the
transaction.
*/
func (tx *Transaction) DefineSavepoint() (*Savepoint, error) {
	if err := tx.checkWritable(); err != nil {
		return nil, err
	}

	if !tx.versioned {

		// All single temporary values become addressable by version

		for c := range tx.writtenCells {
			c.toVersioned(tx, tx.temporaryVersionCounter)
		}

		tx.versioned = true
	}

	id := 1
	if l := len(tx.savepoints); l > 0 {
		id = tx.savepoints[l-1].id + 1
	}

	sp := &Savepoint{id, tx, tx.temporaryVersionCounter, tx.changes.copy()}

	tx.temporaryVersionCounter++
	tx.savepoints = append(tx.savepoints, sp)

	return sp, nil
}

/*
RestoreSavepoint rolls the transaction back to a savepoint. All savepoints
which were defined after the given savepoint become invalid.
*/
func (tx *Transaction) RestoreSavepoint(sp *Savepoint) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	idx := tx.savepointIndex(sp)

	if idx == -1 {
		return &util.GraphError{Type: util.ErrInvalidSavepoint, Detail: fmt.Sprint(sp)}
	}

	g := tx.graph

	for _, v := range tx.changes.addedVertices {
		if !sp.changes.isAdded(v) {
			g.vertices.release(v.id)
		}
	}

	for _, e := range tx.changes.addedEdges {
		if !sp.changes.isAdded(e) {
			g.edges.release(e.id)
		}
	}

	for c := range tx.writtenCells {
		if c.discardAfter(tx, sp.tempVersion) {
			delete(tx.writtenCells, c)
		}
	}

	tx.temporaryVersionCounter = sp.tempVersion + 1
	tx.changes = sp.changes.copy()
	tx.savepoints = tx.savepoints[:idx+1]

	logger.Debug("Restored ", sp)

	return nil
}

/*
savepointIndex returns the position of a valid savepoint or -1.
*/
func (tx *Transaction) savepointIndex(sp *Savepoint) int {
	if sp == nil || sp.tx != tx {
		return -1
	}

	for i, s := range tx.savepoints {
		if s == sp {
			return i
		}
	}

	return -1
}
