/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"devt.de/krotik/tgraph/graph"
	"github.com/gorilla/websocket"
)

/*
FeedEndpoint is the endpoint of the commit feed.
*/
const FeedEndpoint = "/feed"

/*
FeedWriteTimeout is the time a feed client has to accept a message before
it is dropped.
*/
var FeedWriteTimeout = 10 * time.Second

/*
FeedConnection models a single websocket connection of the commit feed.

Websocket connections support one concurrent reader and one concurrent writer.
See: https://godoc.org/github.com/gorilla/websocket#hdr-Concurrency
*/
type FeedConnection struct {
	ID     string
	Conn   *websocket.Conn
	WMutex *sync.Mutex
}

/*
NewFeedConnection creates a new FeedConnection object.
*/
func NewFeedConnection(id string, c *websocket.Conn) *FeedConnection {
	return &FeedConnection{
		ID:     id,
		Conn:   c,
		WMutex: &sync.Mutex{}}
}

/*
WriteData writes a message to the websocket.
*/
func (fc *FeedConnection) WriteData(msgType string, payload interface{}) error {
	jsonData, err := json.Marshal(map[string]interface{}{
		"connID":  fc.ID,
		"type":    msgType,
		"payload": payload,
	})

	if err == nil {
		fc.WMutex.Lock()
		if err = fc.Conn.SetWriteDeadline(time.Now().Add(FeedWriteTimeout)); err == nil {
			err = fc.Conn.WriteMessage(websocket.TextMessage, jsonData)
		}
		fc.WMutex.Unlock()
	}

	return err
}

/*
Close closes the websocket connection.
*/
func (fc *FeedConnection) Close(msg string) {
	fc.WMutex.Lock()
	fc.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(
			websocket.CloseNormalClosure, msg), time.Now().Add(10*time.Second))
	fc.WMutex.Unlock()

	fc.Conn.Close()
}

/*
FeedServer pushes commit events of graphs to connected websocket clients.
*/
type FeedServer struct {
	lock     sync.RWMutex
	upgrader websocket.Upgrader
	conns    map[string]*FeedConnection
	counter  uint64
}

/*
NewFeedServer creates a new FeedServer object.
*/
func NewFeedServer() *FeedServer {
	return &FeedServer{
		upgrader: websocket.Upgrader{
			Subprotocols:    []string{"tgraph-feed"},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[string]*FeedConnection),
	}
}

/*
Name returns the name of the listener.
*/
func (fs *FeedServer) Name() string {
	return "server.feed"
}

/*
Connections returns the ids of all connected clients.
*/
func (fs *FeedServer) Connections() []string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	ret := make([]string, 0, len(fs.conns))
	for id := range fs.conns {
		ret = append(ret, id)
	}

	sort.Strings(ret)

	return ret
}

/*
Committed sends a commit event to all connected clients. Clients which
cannot be written to are disconnected.
*/
func (fs *FeedServer) Committed(g *graph.Graph, ce *graph.CommitEvent) error {
	fs.lock.RLock()
	conns := make([]*FeedConnection, 0, len(fs.conns))
	for _, c := range fs.conns {
		conns = append(conns, c)
	}
	fs.lock.RUnlock()

	payload := map[string]interface{}{
		"name":  g.Name(),
		"event": ce,
	}

	for _, c := range conns {
		if err := c.WriteData("commit", payload); err != nil {
			logger.Warning(fmt.Sprintf("Dropping feed connection %v: %v", c.ID, err))
			fs.deregister(c)
			c.Conn.Close()
		}
	}

	return nil
}

/*
ServeHTTP upgrades a request to a websocket and keeps the connection
registered until the client goes away.
*/
func (fs *FeedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug(fmt.Sprintf("Could not upgrade feed request from %v: %v", r.RemoteAddr, err))
		return
	}

	fs.lock.Lock()
	fs.counter++
	fc := NewFeedConnection(fmt.Sprint(fs.counter), conn)
	fs.conns[fc.ID] = fc
	fs.lock.Unlock()

	logger.Debug(fmt.Sprintf("Feed connection %v from %v", fc.ID, r.RemoteAddr))

	defer func() {
		fs.deregister(fc)
		conn.Close()
	}()

	if err := fc.WriteData("init_success", map[string]interface{}{}); err != nil {
		return
	}

	// Clients do not send data; reading detects when the connection is closed

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

/*
Shutdown closes all client connections.
*/
func (fs *FeedServer) Shutdown() {
	fs.lock.Lock()
	conns := fs.conns
	fs.conns = make(map[string]*FeedConnection)
	fs.lock.Unlock()

	for _, c := range conns {
		c.Close("shutdown")
	}
}

/*
deregister removes a client connection.
*/
func (fs *FeedServer) deregister(fc *FeedConnection) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.conns[fc.ID] == fc {
		delete(fs.conns, fc.ID)
	}
}
