// Package state is the core API for the ledger and ties the chain, the
// mempool and the wallets together for the programs that drive them.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and storing blocks.
type EventHandler = database.EventHandler

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	MinerAddress   string
	Genesis        genesis.Genesis
	Storage        database.Storage
	SelectStrategy string
	TransPerBlock  int // Zero or less takes every pending transaction.
	Workers        int
	Now            func() time.Time
	EvHandler      EventHandler
}

// State manages the ledger.
type State struct {
	minerAddress  string
	transPerBlock int
	now           func() time.Time
	evHandler     EventHandler
	mu            sync.Mutex

	genesis genesis.Genesis
	storage database.Storage
	chain   *chain.Chain
	mempool *mempool.Mempool
	wallets *wallet.Wallets

	Worker Worker
}

// New constructs the ledger state. The chain is loaded from storage or
// started with a new genesis block, and the wallets are rebuilt from the
// genesis balances and the transactions already in the chain.
func New(ctx context.Context, cfg Config) (*State, error) {
	if cfg.MinerAddress == "" {
		return nil, errors.New("a miner address is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ch, err := chain.New(ctx, chain.Config{
		Genesis:   cfg.Genesis,
		Storage:   cfg.Storage,
		Workers:   cfg.Workers,
		Now:       now,
		EvHandler: ev,
	})
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified select strategy.
	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = "fifo"
	}
	mp, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	// The miner receives the reward transactions but needs a wallet to be
	// queried like everyone else.
	wallets := wallet.NewWallets(cfg.Genesis.Balances)
	if _, err := wallets.Query(cfg.MinerAddress); err != nil {
		wallets.Add(wallet.New(cfg.MinerAddress, 0))
	}
	wallets.Replay(ch.Blocks())

	state := State{
		minerAddress:  cfg.MinerAddress,
		transPerBlock: cfg.TransPerBlock,
		now:           now,
		evHandler:     ev,

		genesis: cfg.Genesis,
		storage: cfg.Storage,
		chain:   ch,
		mempool: mp,
		wallets: wallets,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		if s.storage != nil {
			s.storage.Close()
		}
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
