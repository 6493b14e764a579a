package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/difficulty"
	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify every block of a chain stored on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		return verify(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verify(out io.Writer) error {
	if dbPath == "" {
		return errors.New("the db-path flag is required")
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

	strg, err := disk.New(dbPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	var blocks []database.Block

	iter := strg.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return err
		}

		block, err := database.ToBlock(blockData)
		if err != nil {
			return err
		}

		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return fmt.Errorf("no blocks found in %s", dbPath)
	}

	cfg := difficulty.Config{
		Base:               gen.Difficulty,
		AdjustmentInterval: gen.AdjustmentInterval,
		TargetBlockSeconds: gen.TargetBlockSeconds,
	}

	if err := chain.VerifyBlocks(cfg, blocks, ev); err != nil {
		return fmt.Errorf("chain failed verification: %w", err)
	}

	tip := blocks[len(blocks)-1]
	fmt.Fprintf(out, "Chain verified: blocks[%d]: tip[%s]: next difficulty[%d]\n", len(blocks), tip.Hash, difficulty.Next(cfg, blocks))

	return nil
}
