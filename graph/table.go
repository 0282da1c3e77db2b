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
	"errors"
	"fmt"
	"sync"

	"devt.de/krotik/tgraph/graph/util"
)

/*
elementTable stores the versioned slots of all vertices or all edges of a
graph. Each id owns one slot cell. Slot reads take the read lock; allocation
and expansion take the write lock.
*/
type elementTable[E comparable] struct {
	lock            sync.RWMutex
	name            string
	slots           []*VersionedCell[E] // Slot cells (index 0 is unused)
	ids             *util.FreeIndexList // Free ids of this table
	expansionFactor float64             // Growth factor if no id is left
}

/*
newElementTable creates a new element table.
*/
func newElementTable[E comparable](name string, capacity int, expansionFactor float64) *elementTable[E] {
	if capacity < 1 {
		capacity = 1
	}

	if expansionFactor <= 1 {
		expansionFactor = DefaultExpansionFactor
	}

	t := &elementTable[E]{
		name:            name,
		slots:           []*VersionedCell[E]{nil},
		ids:             util.NewFreeIndexList(0),
		expansionFactor: expansionFactor,
	}

	t.expand(capacity)

	return t
}

/*
expand grows the table to a given capacity. The caller must hold the write lock
unless the table is not shared yet.
*/
func (t *elementTable[E]) expand(capacity int) {
	for id := len(t.slots); id <= capacity; id++ {
		t.slots = append(t.slots, newVersionedCell[E](nil, fmt.Sprintf("%v %v", cellSlot, id), false))
	}

	t.ids.Expand(capacity)
}

/*
slot returns the slot cell of an id or nil if the id is out of range.
*/
func (t *elementTable[E]) slot(id int) *VersionedCell[E] {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if id <= 0 || id >= len(t.slots) {
		return nil
	}

	return t.slots[id]
}

/*
read returns the element of an id as seen by a transaction.
*/
func (t *elementTable[E]) read(tx *Transaction, id int) E {
	var ret E

	if c := t.slot(id); c != nil {
		ret, _ = c.Read(tx)
	}

	return ret
}

/*
latest returns the element of an id in the newest persistent version.
*/
func (t *elementTable[E]) latest(id int) E {
	var ret E

	if c := t.slot(id); c != nil {
		ret, _ = c.Latest()
	}

	return ret
}

/*
allocate returns a free id. The table is expanded if no free id is left.
*/
func (t *elementTable[E]) allocate() (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	id, err := t.ids.Allocate()

	if errors.Is(err, util.ErrCapacityExceeded) {
		capacity := t.ids.Capacity()
		newCapacity := int(float64(capacity) * t.expansionFactor)

		if newCapacity <= capacity {
			newCapacity = capacity + 1
		}

		logger.Debug(fmt.Sprintf("Expanding %v table from %v to %v", t.name, capacity, newCapacity))

		t.expand(newCapacity)

		id, err = t.ids.Allocate()
	}

	return id, err
}

/*
release returns an id which never became visible to another transaction.
*/
func (t *elementTable[E]) release(id int) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.ids.Release(id)
}

/*
free returns an id of a deleted element. The id is queued if a snapshot of
an open transaction still contains an element at the id.
*/
func (t *elementTable[E]) free(id int, live []*Transaction) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ids.Free(id, t.referencedBy(live))
}

/*
retryPending tries to free all queued ids.
*/
func (t *elementTable[E]) retryPending(live []*Transaction) int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ids.RetryPending(t.referencedBy(live))
}

/*
referencedBy returns a function which checks if an id is referenced by the
begin snapshot of one of the given transactions. The caller must hold the lock.
*/
func (t *elementTable[E]) referencedBy(live []*Transaction) func(int) bool {
	var zero E

	return func(id int) bool {
		c := t.slots[id]

		for _, tx := range live {
			if v, _ := c.PersistentAt(tx.persistentVersionAtBot); v != zero {
				return true
			}
		}

		return false
	}
}

/*
shrink trims all unused capacity above the highest used id.
*/
func (t *elementTable[E]) shrink(minCapacity int) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	newCapacity := t.ids.Capacity()

	for newCapacity > minCapacity && t.ids.IsFree(newCapacity) {
		newCapacity--
	}

	if err := t.ids.Shrink(newCapacity); err != nil {
		return err
	}

	t.slots = t.slots[:newCapacity+1]

	return nil
}

/*
cells returns all slot cells.
*/
func (t *elementTable[E]) cells() []cellHandle {
	t.lock.RLock()
	defer t.lock.RUnlock()

	ret := make([]cellHandle, 0, len(t.slots))

	for _, c := range t.slots[1:] {
		ret = append(ret, c)
	}

	return ret
}

/*
String returns a string representation of the table.
*/
func (t *elementTable[E]) String() string {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return fmt.Sprintf("%v table %v", t.name, t.ids)
}
