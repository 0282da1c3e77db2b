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
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/tgraph/graph"
)

/*
SetAttributeFunc writes an attribute of a vertex or an edge.
*/
type SetAttributeFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *SetAttributeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 5 {
		return nil, fmt.Errorf("Function requires 5 parameters: transaction, element kind," +
			" element id, attribute name and value")
	}

	tx, err := transactionArg(args, 0)

	if err == nil {
		var e graph.GraphElement

		if e, err = elementArg(f.G, tx, args, 1); err == nil {
			err = e.SetAttribute(tx, fmt.Sprint(args[3]), scope.ConvertECALToJSONObject(args[4]))
		}
	}

	return nil, err
}

/*
DocString returns a descriptive string.
*/
func (f *SetAttributeFunc) DocString() (string, error) {
	return "Writes an attribute of a vertex or an edge.", nil
}

/*
AttributesFunc reads all attributes of a vertex or an edge.
*/
type AttributesFunc struct {
	G *graph.Graph
}

/*
Run executes the ECAL function.
*/
func (f *AttributesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 3 {
		return nil, fmt.Errorf("Function requires 3 parameters: transaction, element kind and element id")
	}

	tx, err := transactionArg(args, 0)
	if err != nil {
		return nil, err
	}

	e, err := elementArg(f.G, tx, args, 1)
	if err != nil {
		return nil, err
	}

	names, err := e.AttributeNames(tx)
	if err != nil {
		return nil, err
	}

	res := make(map[string]interface{}, len(names))

	for _, name := range names {
		if res[name], err = e.GetAttribute(tx, name); err != nil {
			return nil, err
		}
	}

	return scope.ConvertJSONToECALObject(res), nil
}

/*
DocString returns a descriptive string.
*/
func (f *AttributesFunc) DocString() (string, error) {
	return "Reads all attributes of a vertex or an edge.", nil
}
