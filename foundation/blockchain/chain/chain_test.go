package chain_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a chain with a genesis block.")
	{
		ch := newChain(t, genesis.Default(), nil)

		if ch.Len() != 1 {
			t.Fatalf("\t%s\tShould have only the genesis block, got %d.", failed, ch.Len())
		}
		t.Logf("\t%s\tShould have only the genesis block.", success)

		gen := ch.Latest()
		if gen.Header.Number != 0 || gen.Header.PrevBlockHash != "" || len(gen.Trans) != 0 {
			t.Fatalf("\t%s\tShould have a genesis block with no parent and no transactions: %+v", failed, gen.Header)
		}
		t.Logf("\t%s\tShould have a genesis block with no parent and no transactions.", success)

		if gen.Header.Difficulty != 2 || !strings.HasPrefix(gen.Hash, "00") {
			t.Fatalf("\t%s\tShould have a genesis block sealed at the base difficulty: %s", failed, gen.Hash)
		}
		t.Logf("\t%s\tShould have a genesis block sealed at the base difficulty.", success)

		if err := gen.ValidateGenesis(); err != nil {
			t.Fatalf("\t%s\tShould have a valid genesis block: %s", failed, err)
		}
		t.Logf("\t%s\tShould have a valid genesis block.", success)
	}
}

func Test_MineAndAppend(t *testing.T) {
	t.Log("Given the need to mine and append the next block.")
	{
		ch := newChain(t, genesis.Default(), nil)
		gen := ch.Latest()

		tx := database.NewTx("A", "B", 10, 1_700_000_000)

		block, err := ch.MineNext(context.Background(), []database.Tx{tx}, "miner", 50)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the next block: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the next block.", success)

		if ch.Len() != 1 {
			t.Fatalf("\t%s\tShould not append the block while mining, got %d blocks.", failed, ch.Len())
		}
		t.Logf("\t%s\tShould not append the block while mining.", success)

		if block.Header.Number != 1 || block.Header.PrevBlockHash != gen.Hash {
			t.Fatalf("\t%s\tShould link the block to genesis: %+v", failed, block.Header)
		}
		t.Logf("\t%s\tShould link the block to genesis.", success)

		if len(block.Trans) != 2 || block.Trans[0] != tx {
			t.Fatalf("\t%s\tShould keep the transaction first: %v", failed, block.Trans)
		}
		t.Logf("\t%s\tShould keep the transaction first.", success)

		reward := block.Trans[1]
		if reward.From != database.NetworkSender || reward.To != "miner" || reward.Amount != 50 {
			t.Fatalf("\t%s\tShould add the reward transaction last: %+v", failed, reward)
		}
		t.Logf("\t%s\tShould add the reward transaction last.", success)

		if !strings.HasPrefix(block.Hash, "00") || block.Hash != block.ComputeHash() {
			t.Fatalf("\t%s\tShould have a sealed hash: %s", failed, block.Hash)
		}
		t.Logf("\t%s\tShould have a sealed hash.", success)

		if err := ch.Append(block); err != nil {
			t.Fatalf("\t%s\tShould be able to append the block: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to append the block.", success)

		if ch.Len() != 2 || ch.Latest().Hash != block.Hash {
			t.Fatalf("\t%s\tShould have the block at the tip, got %d blocks.", failed, ch.Len())
		}
		t.Logf("\t%s\tShould have the block at the tip.", success)
	}
}

func Test_AppendRejects(t *testing.T) {
	type table struct {
		name   string
		mutate func(b database.Block) database.Block
	}

	tt := []table{
		{
			name: "wrong-parent",
			mutate: func(b database.Block) database.Block {
				b.Header.PrevBlockHash = strings.Repeat("0", 64)
				return b
			},
		},
		{
			name: "wrong-number",
			mutate: func(b database.Block) database.Block {
				b.Header.Number = 5
				return b
			},
		},
		{
			name: "tampered-transaction",
			mutate: func(b database.Block) database.Block {
				trans := make([]database.Tx, len(b.Trans))
				copy(trans, b.Trans)
				trans[0].Amount = 1000
				b.Trans = trans
				return b
			},
		},
		{
			name: "unsealed",
			mutate: func(b database.Block) database.Block {
				b.Hash = ""
				return b
			},
		},
		{
			name: "difficulty-lowered",
			mutate: func(b database.Block) database.Block {
				b.Header.Difficulty = 1
				return b
			},
		},
		{
			name: "difficulty-not-met",
			mutate: func(b database.Block) database.Block {
				b.Header.Difficulty = 64
				return b
			},
		},
	}

	t.Log("Given the need to reject blocks that don't link to the tip.")
	{
		ch := newChain(t, genesis.Default(), nil)

		block, err := ch.MineNext(context.Background(), []database.Tx{database.NewTx("A", "B", 10, 1)}, "miner", 50)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the next block: %s", failed, err)
		}

		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
				{
					beforeLen := ch.Len()
					beforeTip := ch.Latest().Hash

					err := ch.Append(tst.mutate(block))
					if !errors.Is(err, database.ErrChainLinkage) {
						t.Fatalf("\t%s\tTest %d:\tShould get a chain linkage error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a chain linkage error.", success, testID)

					if ch.Len() != beforeLen || ch.Latest().Hash != beforeTip {
						t.Fatalf("\t%s\tTest %d:\tShould leave the chain unchanged.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the chain unchanged.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}

		if err := ch.Append(block); err != nil {
			t.Fatalf("\t%s\tShould still be able to append the original block: %s", failed, err)
		}
		t.Logf("\t%s\tShould still be able to append the original block.", success)
	}
}

func Test_MineCancelled(t *testing.T) {
	t.Log("Given the need to stop mining when asked.")
	{
		ch := newChain(t, genesis.Default(), nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		block, err := ch.MineNext(ctx, nil, "miner", 50)
		if !errors.Is(err, database.ErrSealCancelled) {
			t.Fatalf("\t%s\tShould get a seal cancelled error: %v", failed, err)
		}
		t.Logf("\t%s\tShould get a seal cancelled error.", success)

		if block.Hash != "" {
			t.Fatalf("\t%s\tShould not get back a block: %s", failed, block)
		}
		t.Logf("\t%s\tShould not get back a block.", success)

		if ch.Len() != 1 {
			t.Fatalf("\t%s\tShould leave the chain unchanged.", failed)
		}
		t.Logf("\t%s\tShould leave the chain unchanged.", success)
	}
}

func Test_DifficultyAdjusts(t *testing.T) {
	t.Log("Given the need to raise the difficulty when blocks come too fast.")
	{
		gen := genesis.Default()
		gen.Difficulty = 1
		gen.AdjustmentInterval = 2

		// The clock never moves so every window is mined in zero seconds.
		ch := newChain(t, gen, nil)

		exp := []uint{1, 1, 2, 3}
		for i, diff := range exp {
			block, err := ch.MineNext(context.Background(), nil, "miner", 50)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to mine block %d: %s", failed, i+1, err)
			}

			if block.Header.Difficulty != diff {
				t.Logf("\t%s\tgot: %d", failed, block.Header.Difficulty)
				t.Logf("\t%s\texp: %d", failed, diff)
				t.Fatalf("\t%s\tShould mine block %d at the right difficulty.", failed, i+1)
			}

			if err := ch.Append(block); err != nil {
				t.Fatalf("\t%s\tShould be able to append block %d: %s", failed, i+1, err)
			}
		}
		t.Logf("\t%s\tShould mine each block at the right difficulty.", success)

		if err := ch.Verify(); err != nil {
			t.Fatalf("\t%s\tShould have a valid chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)
	}
}

func Test_Storage(t *testing.T) {
	t.Log("Given the need to reload a chain from storage.")
	{
		storage := memory.New()

		ch := newChain(t, genesis.Default(), storage)
		for range 3 {
			block, err := ch.MineNext(context.Background(), []database.Tx{database.NewTx("A", "B", 1.5, 1)}, "miner", 50)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
			}
			if err := ch.Append(block); err != nil {
				t.Fatalf("\t%s\tShould be able to append a block: %s", failed, err)
			}
		}
		t.Logf("\t%s\tShould be able to build a chain of 4 blocks.", success)

		reloaded := newChain(t, genesis.Default(), storage)
		if reloaded.Len() != 4 || reloaded.Latest().Hash != ch.Latest().Hash {
			t.Fatalf("\t%s\tShould reload the same chain, got %d blocks.", failed, reloaded.Len())
		}
		t.Logf("\t%s\tShould reload the same chain.", success)

		// Store a block whose hash doesn't match its content.
		bad := reloaded.Latest()
		bad.Header.Number = 4
		bad.Header.PrevBlockHash = bad.Hash
		if err := storage.Write(database.NewBlockData(bad)); err != nil {
			t.Fatalf("\t%s\tShould be able to write to memory: %s", failed, err)
		}

		_, err := chain.New(context.Background(), chain.Config{Genesis: genesis.Default(), Storage: storage})
		if !errors.Is(err, database.ErrChainLinkage) {
			t.Fatalf("\t%s\tShould not load a tampered chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould not load a tampered chain.", success)
	}
}

// =============================================================================

func newChain(t *testing.T, gen genesis.Genesis, storage database.Storage) *chain.Chain {
	t.Helper()

	clock := time.Unix(1_700_000_000, 0)

	cfg := chain.Config{
		Genesis: gen,
		Storage: storage,
		Now:     func() time.Time { return clock },
	}

	ch, err := chain.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the chain: %s", failed, err)
	}

	return ch
}
