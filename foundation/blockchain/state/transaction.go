package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// SubmitTransaction debits the sender's wallet and queues the transaction
// for the next block. A sender without the funds gets back an error wrapping
// wallet.ErrInvalidAmount and nothing is queued.
func (s *State) SubmitTransaction(from string, to string, amount float64) (database.Tx, error) {
	tx, err := s.wallets.Send(from, to, amount, s.now().Unix())
	if err != nil {
		return database.Tx{}, err
	}

	n := s.mempool.Add(tx)
	s.evHandler("state: SubmitTransaction: tx[%s]: mempool[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return tx, nil
}
