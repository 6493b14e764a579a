// Package wallet maintains the balance and sent transactions for the
// participants of the ledger.
package wallet

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// ErrInvalidAmount is returned when a wallet is asked to send a negative
// amount or more than its balance.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrUnknownWallet is returned when an address isn't in the registry.
var ErrUnknownWallet = errors.New("unknown wallet")

// =============================================================================

// Wallet represents a participant holding a balance. The balance is only
// ever debited by sending; receiving value doesn't change it.
type Wallet struct {
	Address string
	Balance float64
	Trans   []database.Tx
	signer  signature.Signer
}

// New constructs a wallet that authorizes its transactions with the
// placeholder token.
func New(address string, balance float64) *Wallet {
	return NewWithSigner(address, balance, signature.Placeholder{})
}

// NewWithSigner constructs a wallet that signs its transactions with the
// specified signer.
func NewWithSigner(address string, balance float64, signer signature.Signer) *Wallet {
	if signer == nil {
		signer = signature.Placeholder{}
	}

	return &Wallet{
		Address: address,
		Balance: balance,
		signer:  signer,
	}
}

// Send debits the amount from the wallet and returns the transaction that
// records it. A failed send leaves the wallet untouched.
func (w *Wallet) Send(to string, amount float64, now int64) (database.Tx, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return database.Tx{}, fmt.Errorf("%w: %s can't send %s", ErrInvalidAmount, w.Address, database.FormatAmount(amount))
	}

	if amount > w.Balance {
		return database.Tx{}, fmt.Errorf("%w: %s has an insufficient balance, got %s, exp <= %s", ErrInvalidAmount, w.Address, database.FormatAmount(amount), database.FormatAmount(w.Balance))
	}

	tx, err := database.NewTx(w.Address, to, amount, now).Sign(w.signer)
	if err != nil {
		return database.Tx{}, err
	}

	w.Balance -= amount
	w.Trans = append(w.Trans, tx)

	return tx, nil
}

// Signer returns the signer used by the wallet.
func (w *Wallet) Signer() signature.Signer {
	return w.signer
}

// =============================================================================

// Info represents a snapshot of a wallet.
type Info struct {
	Address string
	Balance float64
	Sent    int
}

// Wallets manages the set of known wallets keyed by address.
type Wallets struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
}

// NewWallets constructs the registry from a set of starting balances.
func NewWallets(balances map[string]float64) *Wallets {
	ws := Wallets{
		wallets: make(map[string]*Wallet, len(balances)),
	}

	for addr, balance := range balances {
		ws.wallets[addr] = New(addr, balance)
	}

	return &ws
}

// Add places the wallet in the registry, replacing any wallet already
// registered under the same address.
func (ws *Wallets) Add(w *Wallet) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.wallets[w.Address] = w
}

// Send debits the sender's wallet and returns the new transaction. A sender
// that isn't known returns ErrUnknownWallet.
func (ws *Wallets) Send(from string, to string, amount float64, now int64) (database.Tx, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	w, exists := ws.wallets[from]
	if !exists {
		return database.Tx{}, fmt.Errorf("%w: %s", ErrUnknownWallet, from)
	}

	return w.Send(to, amount, now)
}

// Query returns a snapshot of the wallet for the specified address.
func (ws *Wallets) Query(address string) (Info, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	w, exists := ws.wallets[address]
	if !exists {
		return Info{}, fmt.Errorf("%w: %s", ErrUnknownWallet, address)
	}

	return Info{Address: w.Address, Balance: w.Balance, Sent: len(w.Trans)}, nil
}

// Signer returns the signer used by the wallet for the specified address.
func (ws *Wallets) Signer(address string) (signature.Signer, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	w, exists := ws.wallets[address]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWallet, address)
	}

	return w.signer, nil
}

// Copy returns a snapshot of every wallet sorted by address.
func (ws *Wallets) Copy() []Info {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	infos := make([]Info, 0, len(ws.wallets))
	for _, w := range ws.wallets {
		infos = append(infos, Info{Address: w.Address, Balance: w.Balance, Sent: len(w.Trans)})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Address < infos[j].Address
	})

	return infos
}

// Addresses returns the known addresses in sorted order.
func (ws *Wallets) Addresses() []string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	addrs := make([]string, 0, len(ws.wallets))
	for addr := range ws.wallets {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	return addrs
}

// Replay debits the senders of the transactions held in the blocks. It is
// used to rebuild balances for a chain loaded from storage. Reward
// transactions and unknown senders are skipped.
func (ws *Wallets) Replay(blocks []database.Block) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for _, block := range blocks {
		for _, tx := range block.Trans {
			if tx.From == database.NetworkSender {
				continue
			}

			w, exists := ws.wallets[tx.From]
			if !exists {
				continue
			}

			w.Balance -= tx.Amount
			w.Trans = append(w.Trans, tx)
		}
	}
}
