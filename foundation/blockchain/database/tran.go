package database

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// NetworkSender is the sender recorded on the reward transaction the chain
// adds to every mined block.
const NetworkSender = "NETWORK"

// =============================================================================

// Tx is the transactional information between two parties. A Tx is a value
// and is never modified once constructed.
type Tx struct {
	From      string  `json:"from"`      // Identifier of the wallet sending the value.
	To        string  `json:"to"`        // Identifier of the wallet receiving the value.
	Amount    float64 `json:"amount"`    // Value moved by this transaction, never negative.
	Signature string  `json:"signature"` // Authorization token, opaque to the chain.
	TimeStamp int64   `json:"timestamp"` // Unix seconds the transaction was created.
}

// NewTx constructs a new transaction. The signature is the placeholder token
// produced by signature.Placeholder. It is deterministic given the sender and
// the time and provides no authentication of any kind.
func NewTx(from string, to string, amount float64, now int64) Tx {
	return Tx{
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: signature.PlaceholderToken(from, now),
		TimeStamp: now,
	}
}

// Sign returns a copy of the transaction with the signature replaced by the
// token produced by the specified signer.
func (tx Tx) Sign(signer signature.Signer) (Tx, error) {
	data, err := tx.SigningData()
	if err != nil {
		return Tx{}, err
	}

	sig, err := signer.Sign(tx.From, tx.TimeStamp, data)
	if err != nil {
		return Tx{}, fmt.Errorf("signing tx: %w", err)
	}

	tx.Signature = sig
	return tx, nil
}

// VerifySignature asks the signer to check the signature carried by
// the transaction.
func (tx Tx) VerifySignature(signer signature.Signer) error {
	data, err := tx.SigningData()
	if err != nil {
		return err
	}

	return signer.Verify(tx.Signature, data)
}

// SigningData returns the bytes that are signed for this transaction. The
// signature itself is never part of the data.
func (tx Tx) SigningData() ([]byte, error) {
	unsigned := struct {
		From      string  `json:"from"`
		To        string  `json:"to"`
		Amount    float64 `json:"amount"`
		TimeStamp int64   `json:"timestamp"`
	}{
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		TimeStamp: tx.TimeStamp,
	}

	return json.Marshal(unsigned)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%s", tx.From, tx.To, FormatAmount(tx.Amount))
}

// FormatAmount returns the canonical decimal text for an amount. This is the
// shortest representation that round trips, without an exponent, so 10 is
// written as "10" and 12.5 as "12.5".
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
