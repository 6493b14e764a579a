package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var (
	minerName    string
	minerBalance float64
	numBlocks    int
	seed         uint64
	workers      int
	useECDSA     bool
	keyDir       string
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a trading session and mine a block for every round",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return simulate(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&minerName, "miner", "m", "miner", "Name of the wallet receiving the mining rewards.")
	simulateCmd.Flags().Float64Var(&minerBalance, "miner-balance", 1000, "Starting balance of the miner wallet when it isn't in the genesis.")
	simulateCmd.Flags().IntVarP(&numBlocks, "blocks", "b", 10, "Number of blocks to mine.")
	simulateCmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Seed for the random trades, a time based seed is used when zero.")
	simulateCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of goroutines searching for each nonce.")
	simulateCmd.Flags().BoolVar(&useECDSA, "ecdsa", false, "Sign transactions with generated ECDSA keys instead of the placeholder token.")
	simulateCmd.Flags().StringVar(&keyDir, "key-dir", "", "Directory of <wallet>.ecdsa key files used with the ecdsa flag, missing keys are generated and saved there.")
}

func simulate(ctx context.Context, out io.Writer) error {
	if minerName == "" {
		return errors.New("a miner name is required")
	}

	gen, err := loadGenesis()
	if err != nil {
		return err
	}

	ev, flush, err := eventHandler()
	if err != nil {
		return err
	}
	defer flush()

	strg, err := openStorage()
	if err != nil {
		return err
	}
	defer strg.Close()

	ch, err := chain.New(ctx, chain.Config{
		Genesis:   gen,
		Storage:   strg,
		Workers:   workers,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	wallets, err := newWallets(gen.Balances)
	if err != nil {
		return err
	}
	wallets.Replay(ch.Blocks())

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	fmt.Fprintln(out, "Starting mining simulation!")
	fmt.Fprintf(out, "Miner: %s  Seed: %d  Blocks in chain: %d\n", minerName, seed, ch.Len())

	addrs := wallets.Addresses()
	if len(addrs) < 2 {
		return errors.New("at least two wallets are needed to trade")
	}

	var verified int
	for i := range numBlocks {
		var pending []database.Tx

		numTrans := 1 + rng.IntN(3)
		for range numTrans {
			from, to := pickPair(rng, len(addrs))
			amount := 1 + rng.Float64()*99

			tx, err := wallets.Send(addrs[from], addrs[to], amount, time.Now().Unix())
			if err != nil {
				if errors.Is(err, wallet.ErrInvalidAmount) {
					fmt.Fprintf(out, "Insufficient funds! %s\n", err)
					continue
				}
				return err
			}
			pending = append(pending, tx)
		}

		fmt.Fprintf(out, "Mining block %d with %d transactions at difficulty %d...\n", ch.Len(), len(pending), ch.NextDifficulty())

		block, err := ch.MineNext(ctx, pending, minerName, gen.MiningReward)
		if err != nil {
			if errors.Is(err, database.ErrSealCancelled) {
				fmt.Fprintf(out, "Mining cancelled after %d of %d blocks\n", i, numBlocks)
				break
			}
			return err
		}

		// Only signatures made in this session are checked, before the block
		// is stored. Stored blocks may carry tokens from other keys.
		if useECDSA {
			n, err := verifySignatures(block, wallets)
			if err != nil {
				return err
			}
			verified += n
		}

		if err := ch.Append(block); err != nil {
			return err
		}

		fmt.Fprintf(out, "Block Mined: %d  nonce[%d]  hash[%s]\n", block.Header.Number, block.Header.Nonce, block.Hash)
	}

	fmt.Fprintln(out, "\nMining completed!")
	fmt.Fprintf(out, "Total blocks: %d\n", ch.Len())

	if err := ch.Verify(); err != nil {
		return fmt.Errorf("chain failed verification: %w", err)
	}

	fmt.Fprintln(out, "Final blockchain state:")
	printBlocks(out, ch.Blocks())

	if useECDSA {
		fmt.Fprintf(out, "\nVerified %d ECDSA signatures\n", verified)
	}

	return nil
}

// newWallets builds the trader wallets from the genesis balances and adds
// the miner. With the ecdsa flag every wallet gets its own generated key.
func newWallets(balances map[string]float64) (*wallet.Wallets, error) {
	all := make(map[string]float64, len(balances)+1)
	for addr, balance := range balances {
		all[addr] = balance
	}
	if _, exists := all[minerName]; !exists {
		all[minerName] = minerBalance
	}

	wallets := wallet.NewWallets(all)
	if !useECDSA {
		return wallets, nil
	}

	for addr, balance := range all {
		signer, err := loadSigner(addr)
		if err != nil {
			return nil, err
		}
		wallets.Add(wallet.NewWithSigner(addr, balance, signer))
	}

	return wallets, nil
}

// loadSigner reads the wallet key from the key directory when one exists.
// Otherwise a new key is generated and, with a key directory, saved there
// so later runs sign with the same key.
func loadSigner(addr string) (*signature.ECDSA, error) {
	if keyDir == "" {
		return signature.GenerateECDSA()
	}

	path := filepath.Join(keyDir, addr+".ecdsa")
	if _, err := os.Stat(path); err == nil {
		return signature.LoadECDSA(path)
	}

	signer, err := signature.GenerateECDSA()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("creating key dir %s: %w", keyDir, err)
	}

	if err := signer.Save(path); err != nil {
		return nil, err
	}

	return signer, nil
}

// pickPair returns two different indexes below n.
func pickPair(rng *rand.Rand, n int) (int, int) {
	from := rng.IntN(n)
	to := rng.IntN(n - 1)
	if to >= from {
		to++
	}
	return from, to
}

// verifySignatures checks every non reward transaction in the block against
// the key of the wallet that sent it and returns how many were checked.
func verifySignatures(block database.Block, wallets *wallet.Wallets) (int, error) {
	var n int
	for _, tx := range block.Trans {
		if tx.From == database.NetworkSender {
			continue
		}

		signer, err := wallets.Signer(tx.From)
		if err != nil {
			return n, err
		}

		if err := tx.VerifySignature(signer); err != nil {
			return n, fmt.Errorf("blk[%d]: tx[%s]: %w", block.Header.Number, tx, err)
		}
		n++
	}

	return n, nil
}

func printBlocks(out io.Writer, blocks []database.Block) {
	for _, block := range blocks {
		fmt.Fprintf(out, "\nBlock %d at %s:\n", block.Header.Number, time.Unix(block.Header.TimeStamp, 0).UTC().Format(time.RFC3339))
		fmt.Fprintf(out, "Hash: %s\n", block.Hash)
		fmt.Fprintf(out, "Difficulty: %d  Nonce: %d\n", block.Header.Difficulty, block.Header.Nonce)
		fmt.Fprintln(out, "Transactions:")
		for _, tx := range block.Trans {
			fmt.Fprintf(out, "  %s sent %s BEK to %s\n", tx.From, database.FormatAmount(tx.Amount), tx.To)
		}
	}
}

// openStorage returns disk storage when a db path is configured and memory
// storage otherwise.
func openStorage() (database.Storage, error) {
	if dbPath == "" {
		return memory.New(), nil
	}

	return disk.New(dbPath)
}
