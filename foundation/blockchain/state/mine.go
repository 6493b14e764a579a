package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions in the mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock mines a block with the pending transactions and appends it
// to the chain. The mined transactions are then removed from the mempool. A
// cancelled context leaves the chain and the mempool as they were.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	howMany := s.transPerBlock
	if howMany <= 0 {
		howMany = -1
	}
	trans := s.mempool.PickBest(howMany)

	s.evHandler("state: MineNewBlock: MINING: perform POW: trans[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := s.chain.MineNext(ctx, trans, s.minerAddress, s.genesis.MiningReward)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: append to chain: %s", block)

	if err := s.chain.Append(block); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: remove from mempool")

	for _, tx := range trans {
		s.mempool.Delete(tx)
	}

	return block, nil
}
