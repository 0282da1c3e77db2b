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
	"context"
	"sort"
	"sync"
)

/*
TransactionManager keeps track of all open transactions of a graph. The oldest
open transaction determines which persistent versions can be collected and
which deleted ids can be reused.
*/
type TransactionManager struct {
	lock         sync.RWMutex
	graph        *Graph
	transactions map[uint64]*Transaction
}

/*
newTransactionManager creates a new transaction manager.
*/
func newTransactionManager(g *Graph) *TransactionManager {
	return &TransactionManager{graph: g, transactions: make(map[uint64]*Transaction)}
}

/*
Transactions returns all open transactions ordered by id.
*/
func (tm *TransactionManager) Transactions() []*Transaction {
	tm.lock.RLock()
	defer tm.lock.RUnlock()

	ret := make([]*Transaction, 0, len(tm.transactions))

	for _, tx := range tm.transactions {
		ret = append(ret, tx)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].id < ret[j].id
	})

	return ret
}

/*
Count returns the number of open transactions.
*/
func (tm *TransactionManager) Count() int {
	tm.lock.RLock()
	defer tm.lock.RUnlock()

	return len(tm.transactions)
}

/*
OldestBot returns the smallest persistent version which an open transaction
sees. The second return value is false if no transaction is open.
*/
func (tm *TransactionManager) OldestBot() (uint64, bool) {
	tm.lock.RLock()
	defer tm.lock.RUnlock()

	var oldest uint64

	found := false

	for _, tx := range tm.transactions {
		if !found || tx.persistentVersionAtBot < oldest {
			oldest = tx.persistentVersionAtBot
			found = true
		}
	}

	return oldest, found
}

func (tm *TransactionManager) register(tx *Transaction) {
	tm.lock.Lock()
	defer tm.lock.Unlock()

	tm.transactions[tx.id] = tx
}

func (tm *TransactionManager) deregister(tx *Transaction) {
	tm.lock.Lock()
	defer tm.lock.Unlock()

	delete(tm.transactions, tx.id)
}

/*
others returns all open transactions except the given one.
*/
func (tm *TransactionManager) others(tx *Transaction) []*Transaction {
	var ret []*Transaction

	for _, t := range tm.Transactions() {
		if t != tx {
			ret = append(ret, t)
		}
	}

	return ret
}

/*
transactionKey is the context key for transactions.
*/
type transactionKey struct{}

/*
WithTransaction returns a new context which carries a transaction.
*/
func WithTransaction(ctx context.Context, tx *Transaction) context.Context {
	return context.WithValue(ctx, transactionKey{}, tx)
}

/*
TransactionFromContext returns the transaction of a context or nil.
*/
func TransactionFromContext(ctx context.Context) *Transaction {
	tx, _ := ctx.Value(transactionKey{}).(*Transaction)
	return tx
}
