// Package difficulty calculates the difficulty for the next block based on
// how fast the most recent blocks were produced.
package difficulty

import "github.com/ardanlabs/powledger/foundation/blockchain/database"

// Config represents the parameters of the adjustment rule.
type Config struct {
	Base               uint  // Difficulty used until the chain is longer than one window.
	AdjustmentInterval int   // Number of blocks in the adjustment window.
	TargetBlockSeconds int64 // Desired number of seconds between blocks.
}

// Next returns the difficulty for the block that will follow the specified
// blocks. The rule is a simple step controller: one window of blocks is
// compared against the expected production time and the difficulty moves by
// one at most.
//
//	elapsed < expected/2 : last difficulty + 1
//	elapsed > expected*2 : last difficulty - 1, never below 1
//	otherwise            : last difficulty
//
// A negative elapsed time, which can only come from clock skew, is treated as
// blocks arriving too fast.
func Next(cfg Config, blocks []database.Block) uint {
	interval := cfg.AdjustmentInterval
	if interval < 1 || len(blocks) <= interval {
		return floor(cfg.Base)
	}

	last := blocks[len(blocks)-1]
	anchor := blocks[len(blocks)-interval]

	elapsed := last.Header.TimeStamp - anchor.Header.TimeStamp
	expected := cfg.TargetBlockSeconds * int64(interval)

	switch {
	case elapsed < 0, elapsed < expected/2:
		return floor(last.Header.Difficulty) + 1

	case elapsed > expected*2:
		if last.Header.Difficulty <= 1 {
			return 1
		}
		return last.Header.Difficulty - 1

	default:
		return floor(last.Header.Difficulty)
	}
}

// floor keeps a difficulty from ever being zero.
func floor(difficulty uint) uint {
	if difficulty < 1 {
		return 1
	}
	return difficulty
}
