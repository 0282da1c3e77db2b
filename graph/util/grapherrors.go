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
Package util contains utility classes for the transactional graph store.

GraphError

Models a graph related error. Low-level errors should be wrapped in a GraphError
before they are returned to a client. The Type of a GraphError can be checked
with errors.Is.

FreeIndexList

Manages the numeric identifiers of vertices and edges. Identifiers are positive
integers up to the current capacity of the list. An identifier which was
released by a committed delete is only handed out again once no open
transaction can still see the deleted element under that identifier. Such
identifiers are kept in a pending list until they can be reused.
*/
package util

import (
	"errors"
	"fmt"
)

/*
GraphError is a graph related error
*/
type GraphError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (ge *GraphError) Error() string {
	if ge.Detail != "" {
		return fmt.Sprintf("GraphError: %v (%v)", ge.Type, ge.Detail)
	}

	return fmt.Sprintf("GraphError: %v", ge.Type)
}

/*
Unwrap returns the error type so errors.Is can be used on GraphErrors.
*/
func (ge *GraphError) Unwrap() error {
	return ge.Type
}

/*
Transaction related error types
*/
var (
	ErrCommitFailed     = errors.New("Commit failed")
	ErrInvalidSavepoint = errors.New("Invalid savepoint")
	ErrReadOnly         = errors.New("Failed write in readonly transaction")
	ErrIllegalState     = errors.New("Illegal transaction state")
	ErrInternalWrite    = errors.New("Internal error while writing transaction")
)

/*
Graph related error types
*/
var (
	ErrCapacityExceeded = errors.New("Capacity exceeded")
	ErrInvalidData      = errors.New("Invalid data")
	ErrNoSuchElement    = errors.New("No such element")
)

/*
NewGraphError creates a new GraphError of a given type.
*/
func NewGraphError(errType error, detail string) error {
	return &GraphError{errType, detail}
}
