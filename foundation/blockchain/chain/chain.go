// Package chain maintains the ordered, append only sequence of sealed blocks
// and drives the creation of new blocks.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/difficulty"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// ErrNotFound is returned when a block number is past the tip of the chain.
var ErrNotFound = errors.New("block not found")

// Config represents the configuration required to construct a chain.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage // Optional, blocks are only kept in memory when nil.
	Workers   int              // Number of goroutines used to seal a block.
	Now       func() time.Time // Optional clock, defaults to time.Now.
	EvHandler database.EventHandler
}

// Chain manages the blocks of the ledger. Mutation is expected to come from
// a single driver; the lock exists so readers can run alongside it.
type Chain struct {
	mu        sync.RWMutex
	genesis   genesis.Genesis
	diffCfg   difficulty.Config
	sealCfg   database.SealConfig
	storage   database.Storage
	now       func() time.Time
	evHandler database.EventHandler
	blocks    []database.Block
}

// New constructs a chain. When the storage already holds blocks they are
// loaded and every hash and link is verified again, otherwise a new genesis
// block is sealed and written.
func New(ctx context.Context, cfg Config) (*Chain, error) {
	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
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

	c := Chain{
		genesis: cfg.Genesis,
		diffCfg: difficulty.Config{
			Base:               cfg.Genesis.Difficulty,
			AdjustmentInterval: cfg.Genesis.AdjustmentInterval,
			TargetBlockSeconds: cfg.Genesis.TargetBlockSeconds,
		},
		sealCfg: database.SealConfig{
			Workers:          cfg.Workers,
			ProgressInterval: cfg.Genesis.ProgressInterval,
		},
		storage:   cfg.Storage,
		now:       now,
		evHandler: ev,
	}

	if c.storage != nil {
		blocks, err := c.readAllBlocks()
		if err != nil {
			return nil, err
		}

		if len(blocks) > 0 {
			ev("chain: New: loaded blocks from storage: blocks[%d]: tip[%s]", len(blocks), blocks[len(blocks)-1].Hash)
			c.blocks = blocks
			return &c, nil
		}
	}

	block, err := MineGenesis(ctx, c.diffCfg.Base, c.now().Unix(), c.sealCfg, ev)
	if err != nil {
		return nil, fmt.Errorf("sealing genesis: %w", err)
	}

	if c.storage != nil {
		if err := c.storage.Write(database.NewBlockData(block)); err != nil {
			return nil, fmt.Errorf("writing genesis: %w", err)
		}
	}

	c.blocks = []database.Block{block}

	return &c, nil
}

// MineGenesis constructs and seals the first block of a chain. It is the
// only block without transactions.
func MineGenesis(ctx context.Context, base uint, now int64, cfg database.SealConfig, ev database.EventHandler) (database.Block, error) {
	block := database.NewBlock(0, "", []database.Tx{}, base, now)
	if err := block.Seal(ctx, cfg, ev); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// MineNext constructs and seals the block that would follow the current tip.
// A reward transaction from the network to the miner is added after the
// specified transactions. The block is NOT appended; call Append for that.
func (c *Chain) MineNext(ctx context.Context, trans []database.Tx, miner string, reward float64) (database.Block, error) {
	c.evHandler("chain: MineNext: started: trans[%d]: miner[%s]", len(trans), miner)
	defer c.evHandler("chain: MineNext: completed")

	// The slice is append only so a capped copy of the header is a stable
	// snapshot of the chain.
	c.mu.RLock()
	blocks := c.blocks[:len(c.blocks):len(c.blocks)]
	c.mu.RUnlock()

	now := c.now().Unix()

	txs := make([]database.Tx, 0, len(trans)+1)
	txs = append(txs, trans...)
	txs = append(txs, database.NewTx(database.NetworkSender, miner, reward, now))

	diff := difficulty.Next(c.diffCfg, blocks)
	tip := blocks[len(blocks)-1]

	c.evHandler("chain: MineNext: blk[%d]: difficulty[%d]", len(blocks), diff)

	block := database.NewBlock(uint64(len(blocks)), tip.Hash, txs, diff, now)
	if err := block.Seal(ctx, c.sealCfg, c.evHandler); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Append validates the block follows the current tip and then adds it to
// the chain. A rejected block leaves the chain as it was.
func (c *Chain) Append(block database.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateNext(c.diffCfg, c.blocks, block, c.evHandler); err != nil {
		c.evHandler("chain: Append: REJECTED: %s: %s", block, err)
		return err
	}

	// The chain keeps its own copy of the transactions so the caller can't
	// change a block once it has been appended.
	trans := make([]database.Tx, len(block.Trans))
	copy(trans, block.Trans)
	block.Trans = trans

	if c.storage != nil {
		if err := c.storage.Write(database.NewBlockData(block)); err != nil {
			return fmt.Errorf("writing %s: %w", block, err)
		}
	}

	c.blocks = append(c.blocks, block)
	c.evHandler("chain: Append: %s", block)

	return nil
}

// =============================================================================

// Genesis returns the genesis information the chain was built with.
func (c *Chain) Genesis() genesis.Genesis {
	return c.genesis
}

// Len returns the number of blocks in the chain, genesis included.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Latest returns the block at the tip of the chain.
func (c *Chain) Latest() database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[len(c.blocks)-1]
}

// Block returns the block with the specified number.
func (c *Chain) Block(num uint64) (database.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if num >= uint64(len(c.blocks)) {
		return database.Block{}, fmt.Errorf("%w: blk[%d]", ErrNotFound, num)
	}

	return c.blocks[num], nil
}

// Blocks returns a copy of all the blocks in the chain.
func (c *Chain) Blocks() []database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]database.Block, len(c.blocks))
	copy(blocks, c.blocks)

	return blocks
}

// NextDifficulty returns the difficulty the next mined block will use.
func (c *Chain) NextDifficulty() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return difficulty.Next(c.diffCfg, c.blocks)
}

// Verify walks the whole chain checking every hash, link and difficulty.
func (c *Chain) Verify() error {
	return VerifyBlocks(c.diffCfg, c.Blocks(), c.evHandler)
}

// =============================================================================

// VerifyBlocks checks the blocks form a valid chain starting at genesis.
func VerifyBlocks(cfg difficulty.Config, blocks []database.Block, ev database.EventHandler) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain has no genesis block", database.ErrChainLinkage)
	}

	if err := blocks[0].ValidateGenesis(); err != nil {
		return err
	}

	if exp := difficulty.Next(cfg, nil); blocks[0].Header.Difficulty != exp {
		return fmt.Errorf("%w: genesis difficulty doesn't match the base difficulty, got %d, exp %d", database.ErrChainLinkage, blocks[0].Header.Difficulty, exp)
	}

	for i := 1; i < len(blocks); i++ {
		if err := validateNext(cfg, blocks[:i], blocks[i], ev); err != nil {
			return err
		}
	}

	return nil
}

// validateNext checks the block can follow the specified blocks. Besides the
// block's own checks, the difficulty must be the one the adjustment rule
// produces since the difficulty isn't covered by the hash.
func validateNext(cfg difficulty.Config, blocks []database.Block, block database.Block, ev database.EventHandler) error {
	if err := block.ValidateBlock(blocks[len(blocks)-1], ev); err != nil {
		return err
	}

	if exp := difficulty.Next(cfg, blocks); block.Header.Difficulty != exp {
		return fmt.Errorf("%w: blk[%d]: block difficulty doesn't match the adjustment rule, got %d, exp %d", database.ErrChainLinkage, block.Header.Number, block.Header.Difficulty, exp)
	}

	return nil
}

// readAllBlocks reads every block from storage and verifies the chain.
func (c *Chain) readAllBlocks() ([]database.Block, error) {
	var blocks []database.Block

	iter := c.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := database.ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return nil, nil
	}

	if err := VerifyBlocks(c.diffCfg, blocks, c.evHandler); err != nil {
		return nil, fmt.Errorf("verifying stored chain: %w", err)
	}

	return blocks, nil
}
