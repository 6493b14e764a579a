// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO   = "fifo"
	StrategyAmount = "amount"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:   fifoSelect,
	StrategyAmount: amountSelect,
}

// Func defines a function that takes the pending transactions in the order
// they arrived and selects howMany of them in an order based on the
// functions strategy. All selector functions MUST keep the transactions of
// a single sender in the order they arrived. The caller guarantees howMany
// is between 0 and the number of transactions.
type Func func(transactions []database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byAmount provides sorting support by the transaction amount value.
type byAmount []database.Tx

// Len returns the number of transactions in the list.
func (ba byAmount) Len() int {
	return len(ba)
}

// Less helps to sort the list by amount in decending order to pick the
// transactions that move the most value.
func (ba byAmount) Less(i, j int) bool {
	return ba[i].Amount > ba[j].Amount
}

// Swap moves transactions in the order of the amount value.
func (ba byAmount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
