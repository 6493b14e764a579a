// Package genesis maintains access to the genesis file. The genesis file
// holds every parameter of the chain so nothing is compiled in.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date               time.Time          `json:"date"`
	ChainID            uint16             `json:"chain_id"`             // The chain id represents an unique id for this running instance.
	Difficulty         uint               `json:"difficulty"`           // Base difficulty used for genesis and the first window of blocks.
	AdjustmentInterval int                `json:"adjustment_interval"`  // Number of blocks in the difficulty adjustment window.
	TargetBlockSeconds int64              `json:"target_block_seconds"` // Desired number of seconds between blocks.
	MiningReward       float64            `json:"mining_reward"`        // Reward for mining a block.
	ProgressInterval   uint64             `json:"progress_interval"`    // Attempts between mining progress events.
	Balances           map[string]float64 `json:"balances"`             // Starting balance for each wallet.
}

// Default returns the genesis used when no file is provided: difficulty 2
// retargeted every 10 blocks toward 10 seconds a block, a 50 coin reward,
// and eight traders starting with 1000 coins each.
func Default() Genesis {
	balances := make(map[string]float64)
	for _, name := range []string{"Bob", "Linda", "John", "Omar", "Eve", "Svetlana", "Grace", "Jiro"} {
		balances[name] = 1000
	}

	return Genesis{
		Date:               time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            1,
		Difficulty:         2,
		AdjustmentInterval: 10,
		TargetBlockSeconds: 10,
		MiningReward:       50,
		ProgressInterval:   100_000,
		Balances:           balances,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values can drive a chain.
func (g Genesis) Validate() error {
	var errs []error

	if g.Difficulty < 1 {
		errs = append(errs, errors.New("difficulty must be at least 1"))
	}

	if g.Difficulty > database.MaxDifficulty {
		errs = append(errs, fmt.Errorf("difficulty can't be more than %d", database.MaxDifficulty))
	}

	if g.AdjustmentInterval < 1 {
		errs = append(errs, errors.New("adjustment_interval must be at least 1"))
	}

	if g.TargetBlockSeconds < 1 {
		errs = append(errs, errors.New("target_block_seconds must be at least 1"))
	}

	if g.MiningReward < 0 {
		errs = append(errs, errors.New("mining_reward can't be negative"))
	}

	for name, balance := range g.Balances {
		if balance < 0 {
			errs = append(errs, fmt.Errorf("balance for %s can't be negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid genesis: %w", errors.Join(errs...))
	}

	return nil
}
