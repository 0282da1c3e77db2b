/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"fmt"

	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/tgraph/graph"
)

/*
BeginFunc begins a new transaction on a graph.
*/
type BeginFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *BeginFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	readOnly := false

	if arglen := len(args); arglen > 1 {
		return nil, fmt.Errorf("Function requires 0 or 1 parameters: optionally a read-only flag")
	} else if arglen == 1 {
		readOnly = stringutil.IsTrueValue(fmt.Sprint(args[0]))
	}

	return f.G.Begin(readOnly), nil
}

/*
DocString returns a descriptive string.
*/
func (f *BeginFunc) DocString() (string, error) {
	return "Begins a new transaction. Takes an optional read-only flag.", nil
}

/*
CommitFunc commits a transaction.
*/
type CommitFunc struct {
}

/*
Run executes the ECAL function.
*/
func (f *CommitFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires the transaction to commit as parameter")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		err = tx.Commit()
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *CommitFunc) DocString() (string, error) {
	return "Commits a transaction.", nil
}

/*
AbortFunc aborts a transaction.
*/
type AbortFunc struct {
}

/*
Run executes the ECAL function.
*/
func (f *AbortFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires the transaction to abort as parameter")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		err = tx.Abort()
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *AbortFunc) DocString() (string, error) {
	return "Aborts a transaction.", nil
}

/*
VersionFunc returns the persistent version of a graph.
*/
type VersionFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *VersionFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("Function does not require any parameters")
	}

	return float64(f.G.PersistentVersion()), nil
}

/*
DocString returns a descriptive string.
*/
func (f *VersionFunc) DocString() (string, error) {
	return "Returns the persistent version of the graph.", nil
}
