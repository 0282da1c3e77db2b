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

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/tgraph/graph"
)

/*
CreateVertexFunc creates a vertex in a graph.
*/
type CreateVertexFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *CreateVertexFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 2 {
		return nil, fmt.Errorf("Function requires 2 parameters: transaction and vertex type")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		var v *graph.Vertex

		if v, err = f.G.CreateVertex(tx, fmt.Sprint(args[1])); err == nil {
			return float64(v.ID()), nil
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *CreateVertexFunc) DocString() (string, error) {
	return "Creates a vertex and returns its id.", nil
}

/*
DeleteVertexFunc deletes a vertex from a graph.
*/
type DeleteVertexFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *DeleteVertexFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 2 {
		return nil, fmt.Errorf("Function requires 2 parameters: transaction and vertex id")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		var v *graph.Vertex

		if v, err = vertexArg(f.G, tx, args, 1); err == nil {
			err = f.G.DeleteVertex(tx, v)
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *DeleteVertexFunc) DocString() (string, error) {
	return "Deletes a vertex together with its incident edges and composite parts.", nil
}

/*
VerticesFunc lists the vertices of a graph in sequence order.
*/
type VerticesFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *VerticesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires the transaction as parameter")
	}

	tx, err := transactionArg(args, 0)
	if err != nil {
		return nil, err
	}

	res := []interface{}{}

	it := f.G.VertexIterator(tx)
	for it.HasNext() {
		v := it.Next()
		res = append(res, map[interface{}]interface{}{
			"id":   float64(v.ID()),
			"type": v.TypeName(),
		})
	}

	return res, it.Error()
}

/*
DocString returns a descriptive string.
*/
func (f *VerticesFunc) DocString() (string, error) {
	return "Lists all vertices (id and type) in sequence order.", nil
}

/*
CountFunc returns the number of vertices and edges visible to a transaction.
*/
type CountFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *CountFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires the transaction as parameter")
	}

	tx, err := transactionArg(args, 0)
	if err != nil {
		return nil, err
	}

	return map[interface{}]interface{}{
		"vertices": float64(f.G.VCount(tx)),
		"edges":    float64(f.G.ECount(tx)),
	}, nil
}

/*
DocString returns a descriptive string.
*/
func (f *CountFunc) DocString() (string, error) {
	return "Returns the number of vertices and edges.", nil
}
