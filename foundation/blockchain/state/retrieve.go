package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
)

// RetrieveMinerAddress returns the address rewarded for mined blocks.
func (s *State) RetrieveMinerAddress() string {
	return s.minerAddress
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.chain.Latest()
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveWallets returns a snapshot of every wallet.
func (s *State) RetrieveWallets() []wallet.Info {
	return s.wallets.Copy()
}

// RetrieveNextDifficulty returns the difficulty the next block will be
// mined at.
func (s *State) RetrieveNextDifficulty() uint {
	return s.chain.NextDifficulty()
}
