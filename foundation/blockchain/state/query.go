package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
)

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryWallet returns a snapshot of the wallet for the specified address.
func (s *State) QueryWallet(address string) (wallet.Info, error) {
	return s.wallets.Query(address)
}

// QueryBlock returns the block with the specified number.
func (s *State) QueryBlock(num uint64) (database.Block, error) {
	return s.chain.Block(num)
}

// QueryBlocks returns every block in the chain starting with genesis.
func (s *State) QueryBlocks() []database.Block {
	return s.chain.Blocks()
}

// Verify walks the whole chain checking every hash, link and difficulty.
func (s *State) Verify() error {
	return s.chain.Verify()
}
