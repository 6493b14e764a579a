package selector

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// fifoSelect returns the oldest transactions first. This is the order the
// ledger mines in by default.
var fifoSelect = func(trans []database.Tx, howMany int) []database.Tx {
	final := make([]database.Tx, howMany)
	copy(final, trans[:howMany])

	return final
}
