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
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"devt.de/krotik/common/logutil"
	"devt.de/krotik/tgraph/graph/util"
)

func TestGraphBasics(t *testing.T) {
	g := NewGraphWithExpansionFactor("test", 1, 1, 3)

	if g.Name() != "test" || len(g.UID()) != 36 || g.PersistentVersion() != 0 {
		t.Error("Unexpected result:", g)
		return
	}

	if g2 := NewGraph("test", 1, 1); g2.UID() == g.UID() {
		t.Error("Graph ids should be unique")
		return
	}

	tx := g.Begin(false)

	if g.FirstVertex(tx) != nil || g.LastEdge(tx) != nil || g.VCount(tx) != 0 {
		t.Error("Graph should be empty")
		return
	}

	v1, _ := g.CreateVertex(tx, "Person")
	v2, _ := g.CreateVertex(tx, "Person")
	v3, _ := g.CreateVertex(tx, "Person")

	if g.VertexCapacity() != 3 || v3.ID() != 3 {
		t.Error("Unexpected result:", g.VertexCapacity(), v3)
		return
	}

	if res := v2.String(); res != "Vertex 2 (Person)" || v2.TypeName() != "Person" || v2.Graph() != g {
		t.Error("Unexpected result:", res)
		return
	}

	e1, _ := g.CreateEdge(tx, "Knows", v1, v2)
	e2, _ := g.CreateEdge(tx, "Knows", v2, v3)

	if res := e1.String(); res != "Edge 1 (Knows) 1 -> 2" {
		t.Error("Unexpected result:", res)
		return
	}

	if e2.PrevEdge(tx) != e1 || e1.NextEdge(tx) != e2 || g.FirstEdge(tx) != e1 || g.ECount(tx) != 2 {
		t.Error("Unexpected edge sequence")
		return
	}

	if err := v1.SetKappa(tx, 5); err != nil {
		t.Error(err)
		return
	}

	if err := v1.SetAttribute(tx, "", 1); !errors.Is(err, util.ErrInvalidData) {
		t.Error("Unexpected result:", err)
		return
	}

	e1.SetAttribute(tx, "since", 2016)

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(false)
	defer tx.Abort()

	if k, err := v1.Kappa(tx); k != 5 || err != nil {
		t.Error("Unexpected result:", k, err)
		return
	}

	if k, err := e1.Kappa(tx); k != 0 || err != nil {
		t.Error("Unexpected result:", k, err)
		return
	}

	if res, _ := e1.GetAttribute(tx, "since"); res != 2016 {
		t.Error("Unexpected result:", res)
		return
	}

	if res, _ := e1.AttributeNames(tx); fmt.Sprint(res) != "[since]" {
		t.Error("Unexpected result:", res)
		return
	}

	if res, err := v3.GetAttribute(tx, "unknown"); res != nil || err != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	var res []string

	it := g.EdgeIterator(tx)
	for it.HasNext() {
		e := it.Next()
		res = append(res, fmt.Sprint(e.Alpha().ID(), "->", e.Omega().ID()))
	}

	if it.Error() != nil || strings.Join(res, " ") != "1->2 2->3" {
		t.Error("Unexpected result:", res, it.Error())
		return
	}

	// Deleted elements cannot be used

	g.DeleteEdge(tx, e2)

	if _, err := e2.GetAttribute(tx, "since"); !errors.Is(err, util.ErrNoSuchElement) {
		t.Error("Unexpected result:", err)
		return
	}

	if err := g.DeleteEdge(tx, e2); !errors.Is(err, util.ErrNoSuchElement) {
		t.Error("Unexpected result:", err)
		return
	}

	if err := e2.SetKappa(tx, 1); !errors.Is(err, util.ErrNoSuchElement) {
		t.Error("Unexpected result:", err)
		return
	}

	other := NewGraph("other", 1, 1)
	otx := other.Begin(false)
	defer otx.Abort()

	if _, err := g.CreateVertex(otx, "Person"); !errors.Is(err, util.ErrInvalidData) {
		t.Error("Unexpected result:", err)
		return
	}

	ov, _ := other.CreateVertex(otx, "Person")

	if _, err := g.CreateEdge(tx, "Knows", v1, ov); !errors.Is(err, util.ErrInvalidData) {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestIncidences(t *testing.T) {
	g := NewGraph("test", 4, 4)

	tx := g.Begin(false)

	v1, _ := g.CreateVertex(tx, "Person")
	v2, _ := g.CreateVertex(tx, "Person")

	e1, _ := g.CreateEdge(tx, "Knows", v1, v2)
	e2, _ := g.CreateEdge(tx, "Knows", v2, v1)
	e3, _ := g.CreateEdge(tx, "Knows", v1, v1)

	if v1.Degree(tx, DirectionBoth) != 4 || v1.Degree(tx, DirectionOut) != 2 ||
		v1.Degree(tx, DirectionIn) != 2 || v2.Degree(tx, DirectionBoth) != 2 {

		t.Error("Unexpected degrees")
		return
	}

	if res := incidenceOrder(tx, v1, DirectionBoth); res != "1,-2,3,-3" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := incidenceOrder(tx, v1, DirectionIn); res != "-2,-3" {
		t.Error("Unexpected result:", res)
		return
	}

	alpha := e1.AlphaIncidence()

	if alpha.Edge() != e1 || alpha.Vertex() != v1 || alpha.ThatVertex() != v2 ||
		alpha.Direction() != DirectionOut || alpha.Aggregation() != AggregationNone ||
		e1.OmegaIncidence().ThatVertex() != v1 || alpha.Graph() != g {

		t.Error("Unexpected incidence:", alpha)
		return
	}

	if res := e2.OmegaIncidence().String(); res != "Incidence -2 (in) at vertex 1" {
		t.Error("Unexpected result:", res)
		return
	}

	if v1.LastIncidence(tx, DirectionOut) != e3.AlphaIncidence() ||
		v1.FirstIncidence(tx, DirectionIn) != e2.OmegaIncidence() ||
		e3.OmegaIncidence().PrevIncidence(tx, DirectionOut) != e3.AlphaIncidence() {

		t.Error("Unexpected incidence navigation")
		return
	}

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(false)

	if err := g.PutIncidenceBefore(tx, alpha, e3.OmegaIncidence()); err != nil {
		t.Error(err)
		return
	}

	if err := g.PutIncidenceAfter(tx, e3.OmegaIncidence(), e2.OmegaIncidence()); err != nil {
		t.Error(err)
		return
	}

	if err := g.PutIncidenceBefore(tx, alpha, e1.OmegaIncidence()); !errors.Is(err, util.ErrInvalidData) {
		t.Error("Unexpected result:", err)
		return
	}

	if res := incidenceOrder(tx, v1, DirectionBoth); res != "-3,-2,1,3" {
		t.Error("Unexpected result:", res)
		return
	}

	// A concurrent transaction which adds an edge does not conflict

	other := g.Begin(false)
	g.CreateEdge(other, "Knows", v2, v2)

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	if err := other.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(true)
	defer tx.Commit()

	if res := incidenceOrder(tx, v1, DirectionBoth); res != "-3,-2,1,3" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := incidenceOrder(tx, v2, DirectionBoth); res != "-1,2,4,-4" {
		t.Error("Unexpected result:", res)
		return
	}
}

func incidenceOrder(tx *Transaction, v *Vertex, dir Direction) string {
	var res []string

	for it := v.IncidenceIterator(tx, dir); it.HasNext(); {
		res = append(res, fmt.Sprint(it.Next().ID()))
	}

	return strings.Join(res, ",")
}

func TestCascadingDelete(t *testing.T) {
	g := NewGraph("test", 4, 4)

	tx := g.Begin(false)

	whole, _ := g.CreateVertex(tx, "Car")
	part, _ := g.CreateVertex(tx, "Wheel")
	subpart, _ := g.CreateVertex(tx, "Bolt")
	owner, _ := g.CreateVertex(tx, "Person")

	g.CreateEdgeWithAggregation(tx, "HasPart", whole, part, AggregationComposite, AggregationNone)
	g.CreateEdgeWithAggregation(tx, "HasPart", part, subpart, AggregationComposite, AggregationNone)
	g.CreateEdgeWithAggregation(tx, "Owns", owner, whole, AggregationShared, AggregationNone)

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(false)

	if err := g.DeleteVertex(tx, whole); err != nil {
		t.Error(err)
		return
	}

	if g.VCount(tx) != 1 || g.ECount(tx) != 0 || !owner.IsValid(tx) || part.IsValid(tx) || subpart.IsValid(tx) {
		t.Error("Unexpected result:", g.VCount(tx), g.ECount(tx))
		return
	}

	if sv, se, dv, de := tx.Counts(); sv != 0 || se != 0 || dv != 3 || de != 3 {
		t.Error("Unexpected result:", sv, se, dv, de)
		return
	}

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(true)
	defer tx.Commit()

	if g.VCount(tx) != 1 || g.ECount(tx) != 0 || owner.Degree(tx, DirectionBoth) != 0 ||
		g.FirstVertex(tx) != owner || g.LastVertex(tx) != owner || g.FirstEdge(tx) != nil {

		t.Error("Unexpected result:", g.VCount(tx), g.ECount(tx))
		return
	}
}

func TestAddAndDeleteInOneTransaction(t *testing.T) {
	g := NewGraph("test", 2, 2)

	tx := g.Begin(false)

	v1, _ := g.CreateVertex(tx, "Person")
	v2, _ := g.CreateVertex(tx, "Person")
	g.CreateEdge(tx, "Knows", v1, v2)

	g.DeleteVertex(tx, v1)

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(false)
	defer tx.Abort()

	if g.VCount(tx) != 1 || g.ECount(tx) != 0 || g.FirstVertex(tx) != v2 || v2.Degree(tx, DirectionBoth) != 0 {
		t.Error("Unexpected result:", g.VCount(tx), g.ECount(tx))
		return
	}

	// Both ids were handed back

	if v, _ := g.CreateVertex(tx, "Person"); v.ID() != 1 {
		t.Error("Unexpected result:", v)
		return
	}

	if e, _ := g.CreateEdge(tx, "Knows", v2, v2); e.ID() != 1 {
		t.Error("Unexpected result:", e)
		return
	}
}

func TestEdgeMoves(t *testing.T) {
	g := NewGraph("test", 2, 4)

	tx := g.Begin(false)

	v1, _ := g.CreateVertex(tx, "Person")

	e1, _ := g.CreateEdge(tx, "Knows", v1, v1)
	e2, _ := g.CreateEdge(tx, "Knows", v1, v1)
	e3, _ := g.CreateEdge(tx, "Knows", v1, v1)

	tx.Commit()

	tx = g.Begin(false)

	if err := g.PutEdgeBefore(tx, e1, e3); err != nil {
		t.Error(err)
		return
	}

	if err := g.PutEdgeAfter(tx, e3, e2); err != nil {
		t.Error(err)
		return
	}

	// Moving an edge to its own position changes nothing

	if err := g.PutEdgeAfter(tx, e2, e1); err != nil {
		t.Error(err)
		return
	}

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	tx = g.Begin(true)
	defer tx.Commit()

	var res []string

	for it := g.EdgeIterator(tx); it.HasNext(); {
		res = append(res, fmt.Sprint(it.Next().ID()))
	}

	if strings.Join(res, ",") != "3,2,1" || g.LastEdge(tx) != e1 {
		t.Error("Unexpected result:", res)
		return
	}

	if err := g.PutEdgeAfter(tx, e1, e3); !errors.Is(err, util.ErrReadOnly) {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestIteratorErrors(t *testing.T) {
	g := NewGraph("test", 2, 2)

	tx := g.Begin(false)
	v1, _ := g.CreateVertex(tx, "Person")
	g.CreateVertex(tx, "Person")
	g.CreateEdge(tx, "Knows", v1, v1)

	it := g.VertexIterator(tx)
	eit := g.EdgeIterator(tx)
	iit := v1.IncidenceIterator(tx, DirectionBoth)

	it.Next()

	tx.Commit()

	if !it.HasNext() {
		t.Error("Iterator should have a next element")
		return
	}

	if v := it.Next(); v != nil || !errors.Is(it.Error(), util.ErrIllegalState) || it.HasNext() {
		t.Error("Unexpected result:", v, it.Error())
		return
	}

	if e := eit.Next(); e != nil || !errors.Is(eit.Error(), util.ErrIllegalState) {
		t.Error("Unexpected result:", e, eit.Error())
		return
	}

	if i := iit.Next(); i != nil || !errors.Is(iit.Error(), util.ErrIllegalState) {
		t.Error("Unexpected result:", i, iit.Error())
		return
	}
}

func TestDefragment(t *testing.T) {
	g := NewGraph("test", 2, 2)

	tx := g.Begin(false)

	var vs []*Vertex

	for i := 0; i < 5; i++ {
		v, _ := g.CreateVertex(tx, "Person")
		vs = append(vs, v)
	}

	tx.Commit()

	if g.VertexCapacity() != 8 {
		t.Error("Unexpected result:", g.VertexCapacity())
		return
	}

	tx = g.Begin(false)

	for _, v := range vs[2:] {
		g.DeleteVertex(tx, v)
	}

	if err := g.Defragment(1, 1); !errors.Is(err, util.ErrIllegalState) {
		t.Error("Unexpected result:", err)
		return
	}

	tx.Commit()

	if err := g.Defragment(1, 1); err != nil {
		t.Error(err)
		return
	}

	if g.VertexCapacity() != 2 || g.EdgeCapacity() != 1 {
		t.Error("Unexpected result:", g.VertexCapacity(), g.EdgeCapacity())
		return
	}

	tx = g.Begin(false)
	defer tx.Abort()

	if res := vertexOrder(tx); res != "1,2" || g.VCount(tx) != 2 {
		t.Error("Unexpected result:", res)
		return
	}

	if v, _ := g.CreateVertex(tx, "Person"); v.ID() != 3 || g.VertexCapacity() != 4 {
		t.Error("Unexpected result:", v, g.VertexCapacity())
		return
	}

	if res := g.String(); !strings.Contains(res, "vertex table FreeIndexList (capacity:4 free:1 pending:[])") {
		t.Error("Unexpected result:", res)
		return
	}
}

type testListener struct {
	events []*CommitEvent
	err    error
}

func (l *testListener) Name() string {
	return "test"
}

func (l *testListener) Committed(g *Graph, event *CommitEvent) error {
	l.events = append(l.events, event)
	return l.err
}

func TestCommitListener(t *testing.T) {
	g, v1 := newTestGraph(t)

	l := &testListener{err: errors.New("listener failure")}

	g.AddCommitListener(l)
	g.AddCommitListener(l)

	if res := g.CommitListeners(); fmt.Sprint(res) != "[test]" {
		t.Error("Unexpected result:", res)
		return
	}

	tx := g.Begin(false)

	v2, _ := g.CreateVertex(tx, "Person")
	v3, _ := g.CreateVertex(tx, "Person")
	e, _ := g.CreateEdge(tx, "Knows", v1, v2)
	g.DeleteVertex(tx, v3)
	v1.SetAttribute(tx, "name", "x")
	v1.SetKappa(tx, 1)

	if err := tx.Commit(); err != nil {
		t.Error(err)
		return
	}

	ro := g.Begin(true)
	ro.Commit()

	if len(l.events) != 1 {
		t.Error("Unexpected result:", l.events)
		return
	}

	ev := l.events[0]

	if ev.GraphUID != g.UID() || ev.Version != 2 || ev.TransactionID != tx.ID() {
		t.Error("Unexpected result:", ev)
		return
	}

	if res := ev.String(); res != fmt.Sprintf("CommitEvent version:2 transaction:%v vertices:+[%v]-[] edges:+[%v]-[] attributes:2",
		tx.ID(), v2.ID(), e.ID()) {

		t.Error("Unexpected result:", res)
		return
	}

	g.RemoveCommitListener("test")

	if res := g.CommitListeners(); len(res) != 0 {
		t.Error("Unexpected result:", res)
		return
	}
}

type committingListener struct {
	versions []uint64
}

func (l *committingListener) Name() string {
	return "committing"
}

func (l *committingListener) Committed(g *Graph, event *CommitEvent) error {
	l.versions = append(l.versions, event.Version)

	if len(l.versions) > 1 {
		return nil
	}

	tx := g.Begin(false)
	g.CreateVertex(tx, "Log")

	return tx.Commit()
}

func TestListenerCommits(t *testing.T) {
	g, _ := newTestGraph(t)

	l := &committingListener{}
	g.AddCommitListener(l)

	done := make(chan error)

	go func() {
		tx := g.Begin(false)
		g.CreateVertex(tx, "Person")
		done <- tx.Commit()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Error(err)
			return
		}
	case <-time.After(5 * time.Second):
		t.Error("Commit with a committing listener did not return")
		return
	}

	// The nested commit is published after the outer one

	if res := fmt.Sprint(l.versions); res != "[2 3]" {
		t.Error("Unexpected result:", res)
		return
	}

	tx := g.Begin(true)
	defer tx.Commit()

	if res := g.VCount(tx); res != 3 || g.PersistentVersion() != 3 {
		t.Error("Unexpected result:", res, g.PersistentVersion())
		return
	}
}

type panickingListener struct {
}

func (l *panickingListener) Name() string {
	return "panicking"
}

func (l *panickingListener) Committed(g *Graph, event *CommitEvent) error {
	panic("listener bug")
}

func TestListenerPanic(t *testing.T) {
	g, _ := newTestGraph(t)

	l := &testListener{}

	g.AddCommitListener(&panickingListener{})
	g.AddCommitListener(l)

	for i := 0; i < 2; i++ {
		tx := g.Begin(false)
		g.CreateVertex(tx, "Person")

		if err := tx.Commit(); err != nil {
			t.Error(err)
			return
		}
	}

	if len(l.events) != 2 || l.events[1].Version != 3 {
		t.Error("Unexpected result:", l.events)
		return
	}
}

func TestDefaultLogSink(t *testing.T) {
	var buf bytes.Buffer

	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	logger.Debug("graph message")

	if res := buf.String(); res != "" {
		t.Error("Unexpected fallback output:", res)
		return
	}

	// An application sink for the root scope still gets messages

	var appBuf bytes.Buffer

	logutil.GetLogger("").AddLogSink(logutil.Warning, logutil.SimpleFormatter(), &appBuf)

	logger.Debug("graph message")
	logger.Warning("graph warning")

	if res := appBuf.String(); !strings.Contains(res, "graph warning") ||
		strings.Contains(res, "graph message") {
		t.Error("Unexpected result:", res)
		return
	}

	if res := buf.String(); res != "" {
		t.Error("Unexpected fallback output:", res)
		return
	}
}
