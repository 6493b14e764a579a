package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/wallet"
)

type tx struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Signature string  `json:"signature"`
	TimeStamp int64   `json:"timestamp"`
}

func toTx(tran database.Tx) tx {
	return tx{
		From:      tran.From,
		To:        tran.To,
		Amount:    tran.Amount,
		Signature: tran.Signature,
		TimeStamp: tran.TimeStamp,
	}
}

func toTxs(trans []database.Tx) []tx {
	txs := make([]tx, len(trans))
	for i, tran := range trans {
		txs[i] = toTx(tran)
	}
	return txs
}

type block struct {
	Number        uint64 `json:"number"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     int64  `json:"timestamp"`
	Nonce         uint64 `json:"nonce"`
	Difficulty    uint   `json:"difficulty"`
	Hash          string `json:"hash"`
	Transactions  []tx   `json:"txs"`
}

func toBlock(blk database.Block) block {
	return block{
		Number:        blk.Header.Number,
		PrevBlockHash: blk.Header.PrevBlockHash,
		TimeStamp:     blk.Header.TimeStamp,
		Nonce:         blk.Header.Nonce,
		Difficulty:    blk.Header.Difficulty,
		Hash:          blk.Hash,
		Transactions:  toTxs(blk.Trans),
	}
}

type walletInfo struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
	Sent    int     `json:"sent"`
}

func toWalletInfo(info wallet.Info) walletInfo {
	return walletInfo{
		Address: info.Address,
		Balance: info.Balance,
		Sent:    info.Sent,
	}
}

type wallets struct {
	LatestBlock    string       `json:"latest_block"`
	NextDifficulty uint         `json:"next_difficulty"`
	Uncommitted    int          `json:"uncommitted"`
	Wallets        []walletInfo `json:"wallets"`
}

// submitTx is the request to move value between two wallets.
type submitTx struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required,nefield=From"`
	Amount float64 `json:"amount" validate:"gte=0"`
}
