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
aggregationKinds maps aggregation names to aggregation kinds.
*/
var aggregationKinds = map[string]graph.AggregationKind{
	"none":      graph.AggregationNone,
	"shared":    graph.AggregationShared,
	"composite": graph.AggregationComposite,
}

/*
CreateEdgeFunc creates an edge in a graph.
*/
type CreateEdgeFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *CreateEdgeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 4 && arglen != 5 {
		return nil, fmt.Errorf("Function requires 4 or 5 parameters: transaction, edge type," +
			" alpha vertex id, omega vertex id and optionally the aggregation at alpha")
	}

	tx, err := transactionArg(args, 0)
	if err != nil {
		return nil, err
	}

	aggregation := graph.AggregationNone

	if len(args) > 4 {
		var ok bool

		if aggregation, ok = aggregationKinds[fmt.Sprint(args[4])]; !ok {
			return nil, fmt.Errorf("Unknown aggregation kind: %v", args[4])
		}
	}

	alpha, err := vertexArg(f.G, tx, args, 2)

	if err == nil {
		var omega *graph.Vertex

		if omega, err = vertexArg(f.G, tx, args, 3); err == nil {
			var e *graph.Edge

			if e, err = f.G.CreateEdgeWithAggregation(tx, fmt.Sprint(args[1]), alpha, omega,
				aggregation, graph.AggregationNone); err == nil {
				return float64(e.ID()), nil
			}
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *CreateEdgeFunc) DocString() (string, error) {
	return "Creates an edge between two vertices and returns its id.", nil
}

/*
DeleteEdgeFunc deletes an edge from a graph.
*/
type DeleteEdgeFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *DeleteEdgeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 2 {
		return nil, fmt.Errorf("Function requires 2 parameters: transaction and edge id")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		var id int

		if id, err = idArg(args, 1); err == nil {
			if e := f.G.Edge(tx, id); e != nil {
				err = f.G.DeleteEdge(tx, e)
			} else {
				err = fmt.Errorf("Unknown edge: %v", id)
			}
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *DeleteEdgeFunc) DocString() (string, error) {
	return "Deletes an edge.", nil
}

/*
IncidencesFunc lists the edges at a vertex in incidence order.
*/
type IncidencesFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *IncidencesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 2 {
		return nil, fmt.Errorf("Function requires 2 parameters: transaction and vertex id")
	}

	tx, err := transactionArg(args, 0)
	if err != nil {
		return nil, err
	}

	v, err := vertexArg(f.G, tx, args, 1)
	if err != nil {
		return nil, err
	}

	res := []interface{}{}

	it := v.IncidenceIterator(tx, graph.DirectionBoth)
	for it.HasNext() {
		i := it.Next()
		res = append(res, map[interface{}]interface{}{
			"edge":      float64(i.Edge().ID()),
			"type":      i.Edge().TypeName(),
			"direction": i.Direction().String(),
			"that":      float64(i.ThatVertex().ID()),
		})
	}

	return res, it.Error()
}

/*
DocString returns a descriptive string.
*/
func (f *IncidencesFunc) DocString() (string, error) {
	return "Lists the edges at a vertex (edge id, type, direction and other vertex).", nil
}
