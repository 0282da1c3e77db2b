/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package util

import (
	"bytes"
	"container/heap"
	"fmt"

	"devt.de/krotik/common/sortutil"
)

/*
FreeIndexList data structure. The list is not thread safe; the owner of a list
must serialize all calls (element tables do this with their write lock).
*/
type FreeIndexList struct {
	capacity int               // Highest id which can be handed out
	free     *sortutil.IntHeap // Heap of free ids (lowest id first)
	isFree   []bool            // Bitmap of free ids (index 0 is unused)
	pending  []int             // Ids which wait until no snapshot references them
}

/*
NewFreeIndexList creates a new list with all ids from 1 to capacity available.
*/
func NewFreeIndexList(capacity int) *FreeIndexList {
	fil := &FreeIndexList{0, &sortutil.IntHeap{}, []bool{false}, make([]int, 0)}

	fil.Expand(capacity)

	return fil
}

/*
Capacity returns the highest id which can currently be allocated.
*/
func (fil *FreeIndexList) Capacity() int {
	return fil.capacity
}

/*
FreeCount returns the number of ids which can be allocated without expansion.
*/
func (fil *FreeIndexList) FreeCount() int {
	return fil.free.Len()
}

/*
Used returns the number of ids which are neither free nor pending.
*/
func (fil *FreeIndexList) Used() int {
	return fil.capacity - fil.free.Len() - len(fil.pending)
}

/*
Pending returns a copy of all ids which wait to be freed.
*/
func (fil *FreeIndexList) Pending() []int {
	return append([]int(nil), fil.pending...)
}

/*
IsFree returns if a given id is currently available for allocation.
*/
func (fil *FreeIndexList) IsFree(id int) bool {
	return id > 0 && id <= fil.capacity && fil.isFree[id]
}

/*
Allocate returns the lowest free id. Returns an ErrCapacityExceeded error if
no free id is left; the caller should expand the list and try again.
*/
func (fil *FreeIndexList) Allocate() (int, error) {
	if fil.free.Len() == 0 {
		return 0, &GraphError{ErrCapacityExceeded, fmt.Sprintf("all %v ids are in use", fil.capacity)}
	}

	id := heap.Pop(fil.free).(int)
	fil.isFree[id] = false

	return id, nil
}

/*
Release returns an id directly to the free set. This should only be used for
ids which never became visible to another transaction.
*/
func (fil *FreeIndexList) Release(id int) {
	if id <= 0 || id > fil.capacity || fil.isFree[id] {
		return
	}

	fil.removePending(id)

	fil.isFree[id] = true
	heap.Push(fil.free, id)
}

/*
Free returns an id to the free set if the given referenced function reports
that no open transaction still refers to the id. Otherwise the id is queued
and will be retried by RetryPending. Returns true if the id was freed
immediately.
*/
func (fil *FreeIndexList) Free(id int, referenced func(int) bool) bool {
	if id <= 0 || id > fil.capacity || fil.isFree[id] {
		return false
	}

	if referenced != nil && referenced(id) {

		for _, p := range fil.pending {
			if p == id {
				return false
			}
		}

		fil.pending = append(fil.pending, id)

		return false
	}

	fil.Release(id)

	return true
}

/*
RetryPending tries to free all pending ids. Returns the number of freed ids.
*/
func (fil *FreeIndexList) RetryPending(referenced func(int) bool) int {
	var stillPending []int

	freed := 0

	for _, id := range fil.pending {
		if referenced != nil && referenced(id) {
			stillPending = append(stillPending, id)
			continue
		}

		fil.isFree[id] = true
		heap.Push(fil.free, id)
		freed++
	}

	fil.pending = stillPending

	return freed
}

/*
Expand grows the capacity of the list. All new ids are free. The capacity
never shrinks through this function.
*/
func (fil *FreeIndexList) Expand(newCapacity int) error {
	if newCapacity < fil.capacity {
		return &GraphError{ErrInvalidData,
			fmt.Sprintf("cannot expand capacity from %v to %v", fil.capacity, newCapacity)}
	}

	for id := fil.capacity + 1; id <= newCapacity; id++ {
		fil.isFree = append(fil.isFree, true)
		heap.Push(fil.free, id)
	}

	fil.capacity = newCapacity

	return nil
}

/*
Shrink reduces the capacity of the list. This is only possible if no ids are
pending and all ids above the new capacity are free.
*/
func (fil *FreeIndexList) Shrink(newCapacity int) error {
	if newCapacity >= fil.capacity {
		return nil
	}

	if len(fil.pending) > 0 {
		return &GraphError{ErrIllegalState,
			fmt.Sprintf("cannot shrink with %v pending ids", len(fil.pending))}
	}

	for id := newCapacity + 1; id <= fil.capacity; id++ {
		if !fil.isFree[id] {
			return &GraphError{ErrIllegalState,
				fmt.Sprintf("cannot shrink below used id %v", id)}
		}
	}

	newFree := &sortutil.IntHeap{}

	for _, id := range *fil.free {
		if id <= newCapacity {
			heap.Push(newFree, id)
		}
	}

	fil.free = newFree
	fil.isFree = fil.isFree[:newCapacity+1]
	fil.capacity = newCapacity

	return nil
}

/*
removePending removes an id from the pending list.
*/
func (fil *FreeIndexList) removePending(id int) {
	for i, p := range fil.pending {
		if p == id {
			fil.pending = append(fil.pending[:i], fil.pending[i+1:]...)
			return
		}
	}
}

/*
String returns a string representation of this list.
*/
func (fil *FreeIndexList) String() string {
	buf := new(bytes.Buffer)

	buf.WriteString(fmt.Sprintf("FreeIndexList (capacity:%v free:%v pending:%v)",
		fil.capacity, fil.free.Len(), fil.pending))

	return buf.String()
}
