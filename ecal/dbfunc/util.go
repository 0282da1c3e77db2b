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
Package dbfunc contains TGraph specific functions for the event condition action language (ECAL).
*/
package dbfunc

import (
	"fmt"
	"strconv"

	"devt.de/krotik/tgraph/graph"
)

/*
Element kinds which can be given to attribute functions.
*/
const (
	KindVertex = "vertex"
	KindEdge   = "edge"
)

/*
transactionArg reads a transaction parameter.
*/
func transactionArg(args []interface{}, i int) (*graph.Transaction, error) {
	tx, ok := args[i].(*graph.Transaction)

	if !ok {
		return nil, fmt.Errorf("Parameter %v must be a transaction", i+1)
	}

	return tx, nil
}

/*
idArg reads an element id parameter. ECAL numbers are floats.
*/
func idArg(args []interface{}, i int) (int, error) {
	id, err := strconv.Atoi(fmt.Sprint(args[i]))

	if err != nil {
		err = fmt.Errorf("Parameter %v must be an element id not: %v", i+1, args[i])
	}

	return id, err
}

/*
vertexArg looks up a vertex which is visible to a given transaction.
*/
func vertexArg(g *graph.Graph, tx *graph.Transaction, args []interface{}, i int) (*graph.Vertex, error) {
	id, err := idArg(args, i)

	if err == nil {
		if v := g.Vertex(tx, id); v != nil {
			return v, nil
		}
		err = fmt.Errorf("Unknown vertex: %v", id)
	}

	return nil, err
}

/*
elementArg looks up a vertex or an edge depending on a kind parameter.
*/
func elementArg(g *graph.Graph, tx *graph.Transaction, args []interface{}, kindIndex int) (graph.GraphElement, error) {
	kind := fmt.Sprint(args[kindIndex])

	id, err := idArg(args, kindIndex+1)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindVertex:
		if v := g.Vertex(tx, id); v != nil {
			return v, nil
		}
	case KindEdge:
		if e := g.Edge(tx, id); e != nil {
			return e, nil
		}
	default:
		return nil, fmt.Errorf("Element kind must be %v or %v not: %v", KindVertex, KindEdge, kind)
	}

	return nil, fmt.Errorf("Unknown %v: %v", kind, id)
}
