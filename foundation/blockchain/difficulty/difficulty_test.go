package difficulty_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/difficulty"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const target = 20

var cfg = difficulty.Config{
	Base:               2,
	AdjustmentInterval: 10,
	TargetBlockSeconds: target,
}

// =============================================================================

func Test_Next(t *testing.T) {
	type table struct {
		name    string
		blocks  []database.Block
		expDiff uint
	}

	tt := []table{
		{"genesis-only", chain(1, target, 2), 2},
		{"within-first-window", chain(10, 1, 5), 2},
		{"on-target", chain(11, target, 2), 2},
		{"too-fast", chain(11, target/4, 2), 3},
		{"too-slow", chain(11, target*3, 2), 1},
		{"too-slow-floor", chain(11, target*3, 1), 1},
		{"too-slow-recorded-zero", chain(11, target*3, 0), 1},
		{"clock-skew", chain(11, -target, 4), 5},
		{"boundary-half", chain(11, 12, 4), 4},
		{"boundary-exact-half", window(11, target*10/2, 4), 4},
		{"boundary-exact-double", window(11, target*10*2, 4), 4},
		{"boundary-below-half", window(11, target*10/2-1, 4), 5},
		{"boundary-above-double", window(11, target*10*2+1, 4), 3},
		{"long-chain-uses-last-window", append(chain(20, target*3, 7), chain(11, 1, 7)[1:]...), 8},
	}

	t.Log("Given the need to adjust difficulty based on block production speed.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %d blocks.", testID, len(tst.blocks))
				{
					got := difficulty.Next(cfg, tst.blocks)
					if got != tst.expDiff {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.expDiff)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right difficulty.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right difficulty.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_NextNeverZero(t *testing.T) {
	t.Log("Given the need to never produce a difficulty of zero.")
	{
		zero := difficulty.Config{Base: 0, AdjustmentInterval: 10, TargetBlockSeconds: target}

		if got := difficulty.Next(zero, chain(1, target, 0)); got != 1 {
			t.Fatalf("\t%s\tShould floor a zero base difficulty to 1, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould floor a zero base difficulty to 1.", success)

		if got := difficulty.Next(zero, chain(11, target, 0)); got != 1 {
			t.Fatalf("\t%s\tShould floor a zero recorded difficulty to 1, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould floor a zero recorded difficulty to 1.", success)
	}
}

// =============================================================================

// chain builds n blocks spaced the specified number of seconds apart where
// every block records the specified difficulty.
func chain(n int, spacing int64, diff uint) []database.Block {
	const start = 1_700_000_000

	blocks := make([]database.Block, n)
	for i := range blocks {
		blocks[i] = database.NewBlock(uint64(i), "", nil, diff, start+int64(i)*spacing)
	}

	return blocks
}

// window builds n blocks where the last block lands exactly elapsed seconds
// after the anchor of the adjustment window.
func window(n int, elapsed int64, diff uint) []database.Block {
	blocks := chain(n, 1, diff)

	anchor := blocks[n-cfg.AdjustmentInterval]
	blocks[n-1].Header.TimeStamp = anchor.Header.TimeStamp + elapsed

	return blocks
}
