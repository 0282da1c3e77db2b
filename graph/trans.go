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
	"sync/atomic"

	"devt.de/krotik/tgraph/graph/util"
)

/*
TransactionState models the state of a transaction.
*/
type TransactionState int32

/*
Known transaction states
*/
const (
	StateNotRunning TransactionState = iota
	StateRunning
	StateValidating
	StateWriting
	StateCommitting
	StateCommitted
	StateAborting
	StateAborted
)

/*
String returns a string representation of a transaction state.
*/
func (s TransactionState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateValidating:
		return "VALIDATING"
	case StateWriting:
		return "WRITING"
	case StateCommitting:
		return "COMMITTING"
	case StateCommitted:
		return "COMMITTED"
	case StateAborting:
		return "ABORTING"
	case StateAborted:
		return "ABORTED"
	}
	return "NOTRUNNING"
}

/*
Transaction groups reads and writes on a graph. A transaction must only be
used by one goroutine at a time.
*/
type Transaction struct {
	id                        uint64                  // Unique transaction id
	graph                     *Graph                  // Graph of this transaction
	state                     int32                   // Current state (atomic)
	readOnly                  bool                    // Flag if this transaction is read-only
	persistentVersionAtBot    uint64                  // Persistent version at begin of transaction
	persistentVersionAtCommit uint64                  // Persistent version when writing started
	temporaryVersionCounter   int                     // Current temporary version
	versioned                 bool                    // Flag if temporary values are versioned
	savepoints                []*Savepoint            // Valid savepoints
	changes                   *changeSet              // Changes of this transaction
	writtenCells              map[cellHandle]struct{} // All cells with temporary values
}

/*
NewTransaction creates a new transaction which has not begun yet.
*/
func (g *Graph) NewTransaction(readOnly bool) *Transaction {
	return &Transaction{
		id:           atomic.AddUint64(&g.transactionCounter, 1),
		graph:        g,
		state:        int32(StateNotRunning),
		readOnly:     readOnly,
		changes:      newChangeSet(),
		writtenCells: make(map[cellHandle]struct{}),
	}
}

/*
Begin creates and begins a new transaction.
*/
func (g *Graph) Begin(readOnly bool) *Transaction {
	tx := g.NewTransaction(readOnly)
	tx.Begin()
	return tx
}

/*
Begin starts the transaction. The transaction sees the newest persistent
version of the graph. Calling Begin on a started transaction has no effect.
*/
func (tx *Transaction) Begin() {
	if !atomic.CompareAndSwapInt32(&tx.state, int32(StateNotRunning), int32(StateRunning)) {
		return
	}

	g := tx.graph

	g.botWritingLock.RLock()
	tx.persistentVersionAtBot = g.PersistentVersion()
	g.manager.register(tx)
	g.botWritingLock.RUnlock()

	logger.Debug("Begin ", tx)
}

/*
ID returns the id of the transaction.
*/
func (tx *Transaction) ID() uint64 {
	return tx.id
}

/*
Graph returns the graph of the transaction.
*/
func (tx *Transaction) Graph() *Graph {
	return tx.graph
}

/*
State returns the current state of the transaction.
*/
func (tx *Transaction) State() TransactionState {
	return TransactionState(atomic.LoadInt32(&tx.state))
}

/*
IsReadOnly returns if the transaction is read-only.
*/
func (tx *Transaction) IsReadOnly() bool {
	return tx.readOnly
}

/*
PersistentVersionAtBot returns the persistent version which the transaction
sees.
*/
func (tx *Transaction) PersistentVersionAtBot() uint64 {
	return tx.persistentVersionAtBot
}

/*
PersistentVersionAtCommit returns the persistent version which was current
when the changes of the transaction were written.
*/
func (tx *Transaction) PersistentVersionAtCommit() uint64 {
	return tx.persistentVersionAtCommit
}

/*
Savepoints returns all valid savepoints of the transaction.
*/
func (tx *Transaction) Savepoints() []*Savepoint {
	return append([]*Savepoint(nil), tx.savepoints...)
}

/*
Counts returns the number of added vertices, added edges, deleted vertices and
deleted edges of the transaction.
*/
func (tx *Transaction) Counts() (int, int, int, int) {
	cs := tx.changes
	return len(cs.addedVertices), len(cs.addedEdges), len(cs.deletedVertices), len(cs.deletedEdges)
}

/*
String returns a string representation of the transaction.
*/
func (tx *Transaction) String() string {
	mode := "rw"
	if tx.readOnly {
		mode = "ro"
	}

	return fmt.Sprintf("Transaction %v (%v %v bot:%v)", tx.id, mode, tx.State(), tx.persistentVersionAtBot)
}

/*
Commit writes all changes of the transaction as a new persistent version of
the graph. If the transaction conflicts with a transaction which committed
after this transaction began then an ErrCommitFailed error is returned and
the transaction stays open.
*/
func (tx *Transaction) Commit() error {
	if s := tx.State(); s != StateRunning {
		return &util.GraphError{Type: util.ErrIllegalState, Detail: fmt.Sprintf("cannot commit in state %v", s)}
	}

	if tx.readOnly {
		tx.setState(StateCommitting)
		tx.finish(StateCommitted)

		logger.Debug("Commit ", tx)

		return nil
	}

	if err := tx.commitChanges(); err != nil {
		return err
	}

	// Listeners are called outside of the commit lock so they can commit
	// themselves

	tx.graph.publishPending()

	return nil
}

/*
commitChanges validates and writes the changes of a read-write transaction.
The resulting commit event is queued for publishing.
*/
func (tx *Transaction) commitChanges() error {
	g := tx.graph

	g.commitLock.Lock()
	defer g.commitLock.Unlock()

	tx.setState(StateValidating)

	if err := newValidationComponent(tx).validate(); err != nil {
		tx.setState(StateRunning)

		logger.Info(fmt.Sprintf("Commit of %v failed: %v", tx, err))

		return &util.GraphError{Type: util.ErrCommitFailed, Detail: err.Error()}
	}

	tx.setState(StateCommitting)

	g.commitValidatingLock.Lock()
	g.botWritingLock.Lock()

	tx.persistentVersionAtCommit = g.PersistentVersion()

	tx.setState(StateWriting)

	version, err := newWritingComponent(tx).write(tx.persistentVersionAtCommit + 1)

	if err == nil {
		g.persistentVersion.Store(version)
		tx.setState(StateCommitting)
	}

	g.botWritingLock.Unlock()
	g.commitValidatingLock.Unlock()

	if err != nil {
		tx.setState(StateRunning)
		return err
	}

	tx.releaseDeletedIds()

	event := tx.commitEvent(version)

	tx.finish(StateCommitted)

	logger.Debug("Commit ", tx, " as version ", version)

	// Queued while the commit lock is held so events stay in version order

	g.queueEvent(event)

	return nil
}

/*
Abort discards all changes of the transaction.
*/
func (tx *Transaction) Abort() error {
	s := tx.State()

	if s == StateNotRunning {
		tx.setState(StateAborted)
		return nil
	} else if s != StateRunning {
		return &util.GraphError{Type: util.ErrIllegalState, Detail: fmt.Sprintf("cannot abort in state %v", s)}
	}

	tx.setState(StateAborting)

	for _, v := range tx.changes.addedVertices {
		tx.graph.vertices.release(v.id)
	}

	for _, e := range tx.changes.addedEdges {
		tx.graph.edges.release(e.id)
	}

	tx.finish(StateAborted)

	logger.Debug("Abort ", tx)

	return nil
}

/*
IsInConflict checks if a commit of the transaction would currently fail.
*/
func (tx *Transaction) IsInConflict() bool {
	if tx.readOnly || tx.State() != StateRunning {
		return false
	}

	g := tx.graph

	g.commitValidatingLock.RLock()
	defer g.commitValidatingLock.RUnlock()

	tx.setState(StateValidating)
	defer tx.setState(StateRunning)

	return newValidationComponent(tx).validate() != nil
}

// Internal functions
// ==================

func (tx *Transaction) setState(s TransactionState) {
	atomic.StoreInt32(&tx.state, int32(s))
}

/*
checkWritable checks if the transaction may write.
*/
func (tx *Transaction) checkWritable() error {
	if tx.readOnly {
		return &util.GraphError{Type: util.ErrReadOnly, Detail: tx.String()}
	} else if s := tx.State(); s != StateRunning {
		return &util.GraphError{Type: util.ErrIllegalState, Detail: fmt.Sprintf("cannot write in state %v", s)}
	}
	return nil
}

/*
hasSavepoints returns if temporary values of this transaction are versioned.
*/
func (tx *Transaction) hasSavepoints() bool {
	return tx.versioned
}

/*
registerCell records that the transaction wrote a cell.
*/
func (tx *Transaction) registerCell(c cellHandle, isAttribute bool) {
	tx.writtenCells[c] = struct{}{}

	if isAttribute {
		tx.changes.markAttribute(c.Owner(), c)
	}
}

/*
releaseDeletedIds hands back the ids of all elements which were deleted by
this transaction. Must be called after the changes were written and before
the transaction is deregistered.
*/
func (tx *Transaction) releaseDeletedIds() {
	g := tx.graph
	cs := tx.changes
	live := g.manager.others(tx)

	for _, v := range cs.deletedVertices {
		if cs.isAdded(v) {
			g.vertices.release(v.id)
		} else {
			g.vertices.free(v.id, live)
		}
	}

	for _, e := range cs.deletedEdges {
		if cs.isAdded(e) {
			g.edges.release(e.id)
		} else {
			g.edges.free(e.id, live)
		}
	}
}

/*
finish ends the transaction. All temporary values are discarded.
*/
func (tx *Transaction) finish(state TransactionState) {
	for c := range tx.writtenCells {
		c.discard(tx)
	}

	tx.writtenCells = make(map[cellHandle]struct{})
	tx.changes = newChangeSet()
	tx.savepoints = nil

	tx.graph.manager.deregister(tx)

	tx.setState(state)

	tx.graph.collect()
}

/*
commitEvent creates the event which is published after a successful commit.
*/
func (tx *Transaction) commitEvent(version uint64) *CommitEvent {
	cs := tx.changes

	event := &CommitEvent{
		GraphUID:      tx.graph.UID(),
		TransactionID: tx.id,
		Version:       version,
	}

	for _, v := range cs.addedVertices {
		if !cs.isDeleted(v) {
			event.AddedVertices = append(event.AddedVertices, v.id)
		}
	}

	for _, v := range cs.deletedVertices {
		if !cs.isAdded(v) {
			event.DeletedVertices = append(event.DeletedVertices, v.id)
		}
	}

	for _, e := range cs.addedEdges {
		if !cs.isDeleted(e) {
			event.AddedEdges = append(event.AddedEdges, e.id)
		}
	}

	for _, e := range cs.deletedEdges {
		if !cs.isAdded(e) {
			event.DeletedEdges = append(event.DeletedEdges, e.id)
		}
	}

	for _, cells := range cs.changedAttributes {
		event.ChangedAttributes += len(cells)
	}

	return event
}
