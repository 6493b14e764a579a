// Package mempool maintains the transactions waiting to be mined.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool/selector"
)

// Mempool represents a queue of transactions kept in the order they
// arrived. The same transaction value may be queued more than once since
// two sends in the same second can produce identical transactions.
type Mempool struct {
	pool     []database.Tx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() *Mempool {
	mp, _ := NewWithStrategy(selector.StrategyFIFO)
	return mp
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add places the transaction at the back of the queue and returns the
// number of transactions in the pool.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Delete removes the oldest transaction equal to the specified one. It
// reports whether a transaction was removed.
func (mp *Mempool) Delete(tx database.Tx) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i := range mp.pool {
		if mp.pool[i] == tx {
			mp.pool = append(mp.pool[:i:i], mp.pool[i+1:]...)
			return true
		}
	}

	return false
}

// Copy returns the transactions in the order they arrived.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// PickBest uses the configured select strategy to return the next set
// of transactions for the next block. Pass -1 for all the transactions.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	trans := mp.Copy()

	if howMany < 0 || howMany > len(trans) {
		howMany = len(trans)
	}

	return mp.selectFn(trans, howMany)
}
