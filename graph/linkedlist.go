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

	"devt.de/krotik/common/errorutil"
)

/*
access determines how sequence operations read and write cells. Inside a
running transaction cells are read and written through the transaction. While
a commit is written the newest persistent values are read and new values are
staged directly into the new persistent version.
*/
type access struct {
	tx     *Transaction  // Transaction of a running operation
	writer *writeSession // Write session of a commit
}

/*
getValue reads a cell.
*/
func getValue[T any](a *access, c *VersionedCell[T]) T {
	var v T

	if a.writer != nil {
		v, _ = c.Latest()
	} else {
		v, _ = c.Read(a.tx)
	}

	return v
}

/*
setValue writes a cell.
*/
func setValue[T any](a *access, c *VersionedCell[T], v T) error {
	if a.writer != nil {
		c.stage(a.writer.version, v)
		a.writer.staged(c)
		return nil
	}

	return c.Write(a.tx, v)
}

/*
markPosition records a changed pointer of an element in the running
transaction.
*/
func (a *access) markPosition(e interface{}, pos SequencePosition) {
	if a.tx != nil {
		a.tx.changes.markSequence(e.(Element), pos)
	}
}

/*
checked returns if invariants of the persistent state should be asserted.
*/
func (a *access) checked() bool {
	return a.writer != nil
}

/*
linkedList models a versioned doubly linked list (Vseq, Eseq or the incidence
sequence of a vertex).
*/
type linkedList[E comparable] struct {
	name  string
	first *VersionedCell[E]
	last  *VersionedCell[E]
	next  func(E) *VersionedCell[E]
	prev  func(E) *VersionedCell[E]
}

func (l *linkedList[E]) setNext(a *access, e E, n E) error {
	a.markPosition(e, PositionNext)
	return setValue(a, l.next(e), n)
}

func (l *linkedList[E]) setPrev(a *access, e E, p E) error {
	a.markPosition(e, PositionPrev)
	return setValue(a, l.prev(e), p)
}

/*
append adds an unlinked element to the end of the list.
*/
func (l *linkedList[E]) append(a *access, e E) error {
	var zero E

	last := getValue(a, l.last)

	if err := l.setPrev(a, e, last); err != nil {
		return err
	}

	if err := l.setNext(a, e, zero); err != nil {
		return err
	}

	if last == zero {
		if err := setValue(a, l.first, e); err != nil {
			return err
		}
	} else if err := l.setNext(a, last, e); err != nil {
		return err
	}

	return setValue(a, l.last, e)
}

/*
unlink removes an element from the list.
*/
func (l *linkedList[E]) unlink(a *access, e E) error {
	var zero E
	var err error

	p := getValue(a, l.prev(e))
	n := getValue(a, l.next(e))

	if p == zero {
		if a.checked() {
			errorutil.AssertTrue(getValue(a, l.first) == e,
				fmt.Sprintf("%v is not the first element of %v", e, l.name))
		}
		err = setValue(a, l.first, n)
	} else {
		if a.checked() {
			errorutil.AssertTrue(getValue(a, l.next(p)) == e,
				fmt.Sprintf("%v is not linked in %v", e, l.name))
		}
		err = l.setNext(a, p, n)
	}

	if err == nil {
		if n == zero {
			if a.checked() {
				errorutil.AssertTrue(getValue(a, l.last) == e,
					fmt.Sprintf("%v is not the last element of %v", e, l.name))
			}
			err = setValue(a, l.last, p)
		} else {
			err = l.setPrev(a, n, p)
		}
	}

	if err == nil {
		if err = l.setNext(a, e, zero); err == nil {
			err = l.setPrev(a, e, zero)
		}
	}

	return err
}

/*
insertBefore links an unlinked element directly before a target element.
*/
func (l *linkedList[E]) insertBefore(a *access, target E, e E) error {
	var zero E

	p := getValue(a, l.prev(target))

	if err := l.setPrev(a, e, p); err != nil {
		return err
	}

	if err := l.setNext(a, e, target); err != nil {
		return err
	}

	if err := l.setPrev(a, target, e); err != nil {
		return err
	}

	if p == zero {
		return setValue(a, l.first, e)
	}

	return l.setNext(a, p, e)
}

/*
insertAfter links an unlinked element directly after a target element.
*/
func (l *linkedList[E]) insertAfter(a *access, target E, e E) error {
	var zero E

	n := getValue(a, l.next(target))

	if err := l.setNext(a, e, n); err != nil {
		return err
	}

	if err := l.setPrev(a, e, target); err != nil {
		return err
	}

	if err := l.setNext(a, target, e); err != nil {
		return err
	}

	if n == zero {
		return setValue(a, l.last, e)
	}

	return l.setPrev(a, n, e)
}

/*
putBefore moves an element directly before a target element.
*/
func (l *linkedList[E]) putBefore(a *access, target E, moved E) error {
	if target == moved || getValue(a, l.next(moved)) == target {
		return nil
	}

	if err := l.unlink(a, moved); err != nil {
		return err
	}

	return l.insertBefore(a, target, moved)
}

/*
putAfter moves an element directly after a target element.
*/
func (l *linkedList[E]) putAfter(a *access, target E, moved E) error {
	if target == moved || getValue(a, l.prev(moved)) == target {
		return nil
	}

	if err := l.unlink(a, moved); err != nil {
		return err
	}

	return l.insertAfter(a, target, moved)
}

/*
isEmpty checks if the list has no elements.
*/
func (l *linkedList[E]) isEmpty(a *access) bool {
	var zero E
	return getValue(a, l.first) == zero
}
