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
	"reflect"
	"sync"

	"github.com/tidwall/btree"
)

/*
cellHandle is the type independent view on a VersionedCell which is used by
transactions, the validation component and the writing component.
*/
type cellHandle interface {

	/*
	   Owner returns the element which owns the cell (may be nil).
	*/
	Owner() Element

	/*
	   Name returns the name of the cell.
	*/
	Name() string

	/*
	   LatestVersion returns the version of the newest persistent value
	   (0 if the cell has no persistent value).
	*/
	LatestVersion() uint64

	/*
	   temporaryMatchesLatest checks if the temporary value of a transaction is
	   equal to the newest persistent value.
	*/
	temporaryMatchesLatest(tx *Transaction) bool

	/*
	   promote copies the current temporary value of a transaction into a
	   new persistent version.
	*/
	promote(tx *Transaction, version uint64) bool

	/*
	   unstage removes a persistent version.
	*/
	unstage(version uint64)

	/*
	   toVersioned moves the single temporary value of a transaction into the
	   history of temporary versions.
	*/
	toVersioned(tx *Transaction, tempVersion int)

	/*
	   discardAfter removes all temporary versions of a transaction which are
	   newer than a given temporary version. Returns true if no temporary value
	   is left.
	*/
	discardAfter(tx *Transaction, tempVersion int) bool

	/*
	   discard removes all temporary values of a transaction.
	*/
	discard(tx *Transaction)

	/*
	   gc removes persistent versions which cannot be seen by any transaction.
	   Returns the number of remaining persistent versions.
	*/
	gc(floor uint64) int
}

/*
VersionedCell is a single mutable memory location of the graph. A cell holds a
history of committed values (keyed by the persistent graph version which
made them visible) and one temporary value per open transaction which wrote
to it. Once a transaction has defined savepoints its temporary values are kept
as a history keyed by temporary version numbers.
*/
type VersionedCell[T any] struct {
	lock              sync.RWMutex
	owner             Element                       // Element which owns this cell
	name              string                        // Name of this cell
	attribute         bool                          // Flag if this cell is an attribute
	persistent        btree.Map[uint64, T]          // Committed values
	temporary         map[uint64]T                  // Single temporary values
	temporaryVersions map[uint64]*btree.Map[int, T] // Temporary values after a savepoint
}

/*
newVersionedCell creates a new empty versioned cell. Attribute cells are
registered as changed attributes of their owner once they are written.
*/
func newVersionedCell[T any](owner Element, name string, attribute bool) *VersionedCell[T] {
	return &VersionedCell[T]{
		owner:             owner,
		name:              name,
		attribute:         attribute,
		temporary:         make(map[uint64]T),
		temporaryVersions: make(map[uint64]*btree.Map[int, T]),
	}
}

/*
Owner returns the element which owns the cell (may be nil).
*/
func (vc *VersionedCell[T]) Owner() Element {
	return vc.owner
}

/*
Name returns the name of the cell.
*/
func (vc *VersionedCell[T]) Name() string {
	return vc.name
}

/*
Read returns the value of this cell as seen by the given transaction. This is
the temporary value of the transaction if it wrote to the cell; otherwise the
newest persistent value which was visible when the transaction began. During
validation the newest persistent value is returned so validation only ever
sees committed state. The second return value is false if no value is set.
*/
func (vc *VersionedCell[T]) Read(tx *Transaction) (T, bool) {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	if tx.State() == StateValidating {
		return vc.latest()
	}

	if !tx.readOnly {
		if v, ok := vc.currentTemporary(tx); ok {
			return v, true
		}
	}

	return vc.persistentAt(tx.persistentVersionAtBot)
}

/*
Write sets a temporary value for the given transaction.
*/
func (vc *VersionedCell[T]) Write(tx *Transaction, value T) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}

	vc.lock.Lock()

	if tx.hasSavepoints() {
		versions, ok := vc.temporaryVersions[tx.id]

		if !ok {
			versions = &btree.Map[int, T]{}
			vc.temporaryVersions[tx.id] = versions
		}

		versions.Set(tx.temporaryVersionCounter, value)

	} else {

		vc.temporary[tx.id] = value
	}

	vc.lock.Unlock()

	tx.registerCell(vc, vc.attribute)

	return nil
}

/*
Latest returns the newest persistent value of this cell.
*/
func (vc *VersionedCell[T]) Latest() (T, bool) {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	return vc.latest()
}

/*
LatestVersion returns the version of the newest persistent value
(0 if the cell has no persistent value).
*/
func (vc *VersionedCell[T]) LatestVersion() uint64 {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	k, _, ok := vc.persistent.Max()
	if !ok {
		return 0
	}

	return k
}

/*
PersistentAt returns the persistent value which is visible at a given graph
version.
*/
func (vc *VersionedCell[T]) PersistentAt(version uint64) (T, bool) {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	return vc.persistentAt(version)
}

/*
PersistentCount returns the number of persistent versions held by this cell.
*/
func (vc *VersionedCell[T]) PersistentCount() int {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	return vc.persistent.Len()
}

/*
HasTemporary returns if the given transaction holds a temporary value in
this cell.
*/
func (vc *VersionedCell[T]) HasTemporary(tx *Transaction) bool {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	_, ok := vc.currentTemporary(tx)

	return ok
}

/*
String returns a string representation of this cell.
*/
func (vc *VersionedCell[T]) String() string {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	return fmt.Sprintf("VersionedCell %v (persistent:%v temporary:%v)", vc.name,
		vc.persistent.Len(), len(vc.temporary)+len(vc.temporaryVersions))
}

// Internal functions used by transactions
// =======================================

/*
latest returns the newest persistent value. The caller must hold the lock.
*/
func (vc *VersionedCell[T]) latest() (T, bool) {
	_, v, ok := vc.persistent.Max()
	return v, ok
}

/*
persistentAt returns the newest persistent value with a version less or
equal than the given version. The caller must hold the lock.
*/
func (vc *VersionedCell[T]) persistentAt(version uint64) (T, bool) {
	var ret T

	found := false

	vc.persistent.Descend(version, func(_ uint64, v T) bool {
		ret = v
		found = true
		return false
	})

	return ret, found
}

/*
currentTemporary returns the temporary value which is current for the given
transaction. The caller must hold the lock.
*/
func (vc *VersionedCell[T]) currentTemporary(tx *Transaction) (T, bool) {
	var ret T

	if versions, ok := vc.temporaryVersions[tx.id]; ok {
		found := false

		versions.Descend(tx.temporaryVersionCounter, func(_ int, v T) bool {
			ret = v
			found = true
			return false
		})

		return ret, found
	}

	ret, ok := vc.temporary[tx.id]

	return ret, ok
}

/*
temporaryMatchesLatest checks if the temporary value of a transaction is equal
to the newest persistent value.
*/
func (vc *VersionedCell[T]) temporaryMatchesLatest(tx *Transaction) bool {
	vc.lock.RLock()
	defer vc.lock.RUnlock()

	tv, ok := vc.currentTemporary(tx)
	lv, lok := vc.latest()

	return ok == lok && reflect.DeepEqual(tv, lv)
}

/*
stage sets a persistent value directly. Only the writing component should
call this while it holds the writing lock.
*/
func (vc *VersionedCell[T]) stage(version uint64, value T) {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	vc.persistent.Set(version, value)
}

/*
promote copies the current temporary value of a transaction into a new
persistent version.
*/
func (vc *VersionedCell[T]) promote(tx *Transaction, version uint64) bool {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	v, ok := vc.currentTemporary(tx)
	if ok {
		vc.persistent.Set(version, v)
	}

	return ok
}

/*
unstage removes a persistent version.
*/
func (vc *VersionedCell[T]) unstage(version uint64) {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	vc.persistent.Delete(version)
}

/*
toVersioned moves the single temporary value of a transaction into the history
of temporary versions.
*/
func (vc *VersionedCell[T]) toVersioned(tx *Transaction, tempVersion int) {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	if v, ok := vc.temporary[tx.id]; ok {
		versions := &btree.Map[int, T]{}
		versions.Set(tempVersion, v)

		vc.temporaryVersions[tx.id] = versions
		delete(vc.temporary, tx.id)
	}
}

/*
discardAfter removes all temporary versions of a transaction which are newer
than a given temporary version. Returns true if no temporary value is left.
*/
func (vc *VersionedCell[T]) discardAfter(tx *Transaction, tempVersion int) bool {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	versions, ok := vc.temporaryVersions[tx.id]
	if !ok {
		_, ok = vc.temporary[tx.id]
		return !ok
	}

	var newer []int

	versions.Ascend(tempVersion+1, func(k int, _ T) bool {
		newer = append(newer, k)
		return true
	})

	for _, k := range newer {
		versions.Delete(k)
	}

	if versions.Len() == 0 {
		delete(vc.temporaryVersions, tx.id)
		return true
	}

	return false
}

/*
discard removes all temporary values of a transaction.
*/
func (vc *VersionedCell[T]) discard(tx *Transaction) {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	delete(vc.temporary, tx.id)
	delete(vc.temporaryVersions, tx.id)
}

/*
GC removes all persistent versions which are older than the newest version
which is visible at the given floor version. The floor should be the oldest
begin version of all open transactions. Returns the number of remaining
persistent versions.
*/
func (vc *VersionedCell[T]) GC(floor uint64) int {
	return vc.gc(floor)
}

/*
gc implements GC.
*/
func (vc *VersionedCell[T]) gc(floor uint64) int {
	vc.lock.Lock()
	defer vc.lock.Unlock()

	var keep uint64

	found := false

	vc.persistent.Descend(floor, func(k uint64, _ T) bool {
		keep = k
		found = true
		return false
	})

	if found && keep > 0 {
		var obsolete []uint64

		vc.persistent.Ascend(0, func(k uint64, _ T) bool {
			if k >= keep {
				return false
			}
			obsolete = append(obsolete, k)
			return true
		})

		for _, k := range obsolete {
			vc.persistent.Delete(k)
		}
	}

	return vc.persistent.Len()
}
