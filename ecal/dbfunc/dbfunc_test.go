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
	"testing"

	"devt.de/krotik/tgraph/graph"
)

type docFunc interface {
	DocString() (string, error)
}

func TestDocStrings(t *testing.T) {
	g := graph.NewGraph("test", 10, 10)

	for _, f := range []docFunc{&BeginFunc{g}, &CommitFunc{}, &AbortFunc{}, &VersionFunc{g},
		&CreateVertexFunc{g}, &DeleteVertexFunc{g}, &VerticesFunc{g}, &CountFunc{g},
		&CreateEdgeFunc{g}, &DeleteEdgeFunc{g}, &IncidencesFunc{g},
		&SetAttributeFunc{g}, &AttributesFunc{g}} {

		if res, err := f.DocString(); err != nil || res == "" {
			t.Error("Unexpected result:", res, err)
			return
		}
	}
}

func TestTransactionFunctions(t *testing.T) {
	g := graph.NewGraph("test", 10, 10)

	begin := &BeginFunc{g}

	if _, err := begin.Run("", nil, nil, 0, []interface{}{1, 2}); err == nil ||
		err.Error() != "Function requires 0 or 1 parameters: optionally a read-only flag" {
		t.Error(err)
		return
	}

	res, err := begin.Run("", nil, nil, 0, []interface{}{"true"})
	if err != nil {
		t.Error(err)
		return
	}

	if tx := res.(*graph.Transaction); !tx.IsReadOnly() || tx.State() != graph.StateRunning {
		t.Error("Unexpected result:", tx)
		return
	}

	res, _ = begin.Run("", nil, nil, 0, nil)
	tx := res.(*graph.Transaction)

	cv := &CreateVertexFunc{g}

	if _, err := cv.Run("", nil, nil, 0, []interface{}{tx, "Person"}); err != nil {
		t.Error(err)
		return
	}

	commit := &CommitFunc{}

	if _, err := commit.Run("", nil, nil, 0, []interface{}{}); err == nil ||
		err.Error() != "Function requires the transaction to commit as parameter" {
		t.Error(err)
		return
	}

	if _, err := commit.Run("", nil, nil, 0, []interface{}{"bla"}); err == nil ||
		err.Error() != "Parameter 1 must be a transaction" {
		t.Error(err)
		return
	}

	if _, err := commit.Run("", nil, nil, 0, []interface{}{tx}); err != nil {
		t.Error(err)
		return
	}

	if res, err := (&VersionFunc{g}).Run("", nil, nil, 0, nil); err != nil || res != float64(1) {
		t.Error("Unexpected result:", res, err)
		return
	}

	if _, err := (&VersionFunc{g}).Run("", nil, nil, 0, []interface{}{1}); err == nil {
		t.Error("Parameters should not be accepted")
		return
	}

	tx = g.Begin(false)

	if _, err := (&AbortFunc{}).Run("", nil, nil, 0, []interface{}{tx}); err != nil {
		t.Error(err)
		return
	}

	if tx.State() != graph.StateAborted {
		t.Error("Unexpected result:", tx)
		return
	}

	if _, err := (&AbortFunc{}).Run("", nil, nil, 0, []interface{}{tx}); err == nil {
		t.Error("Aborting twice should fail")
		return
	}
}

func TestElementFunctions(t *testing.T) {
	g := graph.NewGraph("test", 10, 10)
	tx := g.Begin(false)

	cv := &CreateVertexFunc{g}
	ce := &CreateEdgeFunc{g}

	if _, err := cv.Run("", nil, nil, 0, []interface{}{tx}); err == nil ||
		err.Error() != "Function requires 2 parameters: transaction and vertex type" {
		t.Error(err)
		return
	}

	v1, _ := cv.Run("", nil, nil, 0, []interface{}{tx, "Town"})
	v2, _ := cv.Run("", nil, nil, 0, []interface{}{tx, "Street"})

	if v1 != float64(1) || v2 != float64(2) {
		t.Error("Unexpected result:", v1, v2)
		return
	}

	if _, err := ce.Run("", nil, nil, 0, []interface{}{tx, "HasStreet", v1, 5}); err == nil ||
		err.Error() != "Unknown vertex: 5" {
		t.Error(err)
		return
	}

	if _, err := ce.Run("", nil, nil, 0, []interface{}{tx, "HasStreet", "x", v2}); err == nil ||
		err.Error() != "Parameter 3 must be an element id not: x" {
		t.Error(err)
		return
	}

	if _, err := ce.Run("", nil, nil, 0, []interface{}{tx, "HasStreet", v1, v2, "tight"}); err == nil ||
		err.Error() != "Unknown aggregation kind: tight" {
		t.Error(err)
		return
	}

	e1, err := ce.Run("", nil, nil, 0, []interface{}{tx, "HasStreet", v1, v2, "composite"})
	if err != nil || e1 != float64(1) {
		t.Error("Unexpected result:", e1, err)
		return
	}

	res, err := (&VerticesFunc{g}).Run("", nil, nil, 0, []interface{}{tx})
	if fmt.Sprint(res) != "[map[id:1 type:Town] map[id:2 type:Street]]" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	res, err = (&IncidencesFunc{g}).Run("", nil, nil, 0, []interface{}{tx, v2})
	if fmt.Sprint(res) != "[map[direction:IN edge:1 that:1 type:HasStreet]]" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	sa := &SetAttributeFunc{g}
	ga := &AttributesFunc{g}

	if _, err := sa.Run("", nil, nil, 0, []interface{}{tx, "node", v1, "name", "Koblenz"}); err == nil ||
		err.Error() != "Element kind must be vertex or edge not: node" {
		t.Error(err)
		return
	}

	if _, err := sa.Run("", nil, nil, 0, []interface{}{tx, KindVertex, v1, "name", "Koblenz"}); err != nil {
		t.Error(err)
		return
	}

	if _, err := sa.Run("", nil, nil, 0, []interface{}{tx, KindEdge, e1, "length", float64(3)}); err != nil {
		t.Error(err)
		return
	}

	if res, err := ga.Run("", nil, nil, 0, []interface{}{tx, KindVertex, v1}); fmt.Sprint(res) != "map[name:Koblenz]" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if res, err := ga.Run("", nil, nil, 0, []interface{}{tx, KindEdge, e1}); fmt.Sprint(res) != "map[length:3]" || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(false)

	// Deleting the whole deletes the part

	if _, err := (&DeleteVertexFunc{g}).Run("", nil, nil, 0, []interface{}{tx, v1}); err != nil {
		t.Error(err)
		return
	}

	if res, _ := (&CountFunc{g}).Run("", nil, nil, 0, []interface{}{tx}); fmt.Sprint(res) != "map[edges:0 vertices:0]" {
		t.Error("Unexpected result:", res)
		return
	}

	if _, err := (&DeleteEdgeFunc{g}).Run("", nil, nil, 0, []interface{}{tx, e1}); err == nil ||
		err.Error() != "Unknown edge: 1" {
		t.Error(err)
		return
	}

	if _, err := ga.Run("", nil, nil, 0, []interface{}{tx, KindEdge, e1}); err == nil ||
		err.Error() != "Unknown edge: 1" {
		t.Error(err)
		return
	}

	tx.Abort()

	ro := g.Begin(true)

	if res, _ := (&CountFunc{g}).Run("", nil, nil, 0, []interface{}{ro}); fmt.Sprint(res) != "map[edges:1 vertices:2]" {
		t.Error("Unexpected result:", res)
		return
	}

	if _, err := (&DeleteEdgeFunc{g}).Run("", nil, nil, 0, []interface{}{ro, e1}); err == nil {
		t.Error("Read-only transaction should not delete")
		return
	}

	ro.Commit()
}
