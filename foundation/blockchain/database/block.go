package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultProgressInterval is the number of attempts between progress events
// when a SealConfig doesn't specify one.
const DefaultProgressInterval = 100_000

// MaxDifficulty is the number of hex characters in a SHA-256 hash. A block
// asking for more leading zeros than this can never be sealed.
const MaxDifficulty = sha256.Size * 2

// EventHandler defines a function that is called when events
// occur in the processing of sealing and storing blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Position of the block in the chain, genesis is 0.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block, empty for genesis.
	TimeStamp     int64  `json:"timestamp"`       // Unix seconds the block was constructed.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	Difficulty    uint   `json:"difficulty"`      // Number of leading 0's needed to solve the hash solution.
}

// Block represents a group of transactions batched together. The Hash field
// is empty until the block is sealed.
type Block struct {
	Header BlockHeader
	Trans  []Tx
	Hash   string
}

// NewBlock constructs an unsealed block with a nonce of zero.
func NewBlock(number uint64, prevBlockHash string, trans []Tx, difficulty uint, now int64) Block {
	return Block{
		Header: BlockHeader{
			Number:        number,
			PrevBlockHash: prevBlockHash,
			TimeStamp:     now,
			Nonce:         0,
			Difficulty:    difficulty,
		},
		Trans: trans,
	}
}

// ComputeHash returns the hash of the block for its current nonce. The Hash
// field is not part of the calculation.
func (b Block) ComputeHash() string {
	return hashWithNonce(b.hashPayload(), b.Header.Nonce)
}

// IsSealed reports whether the block carries a hash that matches its fields
// and satisfies its own difficulty.
func (b Block) IsSealed() bool {
	return b.Hash != "" && b.Hash == b.ComputeHash() && IsHashSolved(b.Header.Difficulty, b.Hash)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d]: hash[%s]: trans[%d]", b.Header.Number, b.Hash, len(b.Trans))
}

// =============================================================================

// SealConfig provides the knobs for the proof of work search. None of these
// values change which hashes are accepted.
type SealConfig struct {
	Workers          int    // Number of goroutines searching the nonce space.
	ProgressInterval uint64 // Attempts per worker between progress events.
}

// Seal performs the work of mining to find a nonce that produces a hash
// satisfying the block difficulty. The search has no iteration limit, it only
// stops when a solution is found or the context is cancelled. On cancellation
// the block is left unsealed and the returned error wraps ErrSealCancelled.
// Pointer semantics are being used since a nonce is being discovered.
func (b *Block) Seal(ctx context.Context, cfg SealConfig, ev EventHandler) error {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	difficulty := b.Header.Difficulty
	if difficulty == 0 || difficulty > MaxDifficulty {
		return fmt.Errorf("%w: got %d, exp 1..%d", ErrInvalidDifficulty, difficulty, MaxDifficulty)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	progress := cfg.ProgressInterval
	if progress == 0 {
		progress = DefaultProgressInterval
	}

	ev("database: Seal: MINING: started: blk[%d]: difficulty[%d]: workers[%d]", b.Header.Number, difficulty, workers)
	defer ev("database: Seal: MINING: completed: blk[%d]", b.Header.Number)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("database: Seal: MINING: blk[%d]: tx[%s]", b.Header.Number, tx)
	}

	b.Hash = ""

	// The fields other than the nonce don't change during the search so
	// they are serialized once.
	payload := b.hashPayload()

	// The workers share a context that is cancelled by the first one to
	// find a solution or by the caller.
	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var attempts atomic.Uint64
	solutions := make(chan solution, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	// Each worker strides the nonce space starting at its own offset so
	// no two workers ever test the same nonce.
	for i := range workers {
		go func(worker int) {
			defer wg.Done()

			s := search{
				number:     b.Header.Number,
				difficulty: difficulty,
				payload:    payload,
				start:      b.Header.Nonce + uint64(worker),
				step:       uint64(workers),
				progress:   progress,
				worker:     worker,
				ev:         ev,
			}

			sol, n, found := s.run(ctx)
			attempts.Add(n)

			if found {
				solutions <- sol
				cancel()
			}
		}(i)
	}

	wg.Wait()
	close(solutions)

	sol, found := <-solutions

	// Did we get cancelled trying to solve the problem. A solution found
	// at the same moment is dropped since the caller gave up on it.
	if !found || parent.Err() != nil {
		ev("database: Seal: MINING: CANCELLED: blk[%d]: attempts[%d]", b.Header.Number, attempts.Load())
		return fmt.Errorf("%w: blk[%d]: %w", ErrSealCancelled, b.Header.Number, context.Cause(parent))
	}

	b.Header.Nonce = sol.nonce
	b.Hash = sol.hash

	ev("database: Seal: MINING: SOLVED: blk[%d]: prevBlk[%s]: newBlk[%s]", b.Header.Number, b.Header.PrevBlockHash, b.Hash)
	ev("database: Seal: MINING: blk[%d]: attempts[%d]", b.Header.Number, attempts.Load())

	return nil
}

// =============================================================================

// ValidateSeal checks the block hash matches the block fields and satisfies
// the block difficulty.
func (b Block) ValidateSeal() error {
	if b.Header.Difficulty == 0 {
		return fmt.Errorf("%w: blk[%d]: difficulty must be positive", ErrChainLinkage, b.Header.Number)
	}

	hash := b.ComputeHash()
	if b.Hash != hash {
		return fmt.Errorf("%w: blk[%d]: block hash doesn't match block fields, got %s, exp %s", ErrChainLinkage, b.Header.Number, b.Hash, hash)
	}

	if !IsHashSolved(b.Header.Difficulty, b.Hash) {
		return fmt.Errorf("%w: blk[%d]: %s invalid block hash for difficulty %d", ErrChainLinkage, b.Header.Number, b.Hash, b.Header.Difficulty)
	}

	return nil
}

// ValidateGenesis checks the block can serve as the first block of a chain.
func (b Block) ValidateGenesis() error {
	if b.Header.Number != 0 {
		return fmt.Errorf("%w: genesis block number must be 0, got %d", ErrChainLinkage, b.Header.Number)
	}

	if b.Header.PrevBlockHash != "" {
		return fmt.Errorf("%w: genesis block can't have a parent hash, got %s", ErrChainLinkage, b.Header.PrevBlockHash)
	}

	return b.ValidateSeal()
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler EventHandler) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrChainLinkage, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrChainLinkage, b.Header.PrevBlockHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	return b.ValidateSeal()
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if hash == "" || uint(len(hash)) < difficulty {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

// =============================================================================

// hashPayload serializes every field that takes part in the hash except the
// nonce. Transactions are written as from, to and amount back to back with no
// delimiter. Two different transaction sets can therefore produce the same
// payload; the layout is kept so hashes stay compatible with existing chains.
func (b Block) hashPayload() []byte {
	var sb strings.Builder

	sb.WriteString(strconv.FormatUint(b.Header.Number, 10))
	sb.WriteString(b.Header.PrevBlockHash)
	sb.WriteString(strconv.FormatInt(b.Header.TimeStamp, 10))
	for _, tx := range b.Trans {
		sb.WriteString(tx.From)
		sb.WriteString(tx.To)
		sb.WriteString(FormatAmount(tx.Amount))
	}

	return []byte(sb.String())
}

// hashWithNonce appends the nonce to the payload and returns the hex encoded
// SHA-256 hash.
func hashWithNonce(payload []byte, nonce uint64) string {
	data := make([]byte, 0, len(payload)+20)
	data = append(data, payload...)
	data = strconv.AppendUint(data, nonce, 10)

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// solution is a nonce and the hash it produces.
type solution struct {
	nonce uint64
	hash  string
}

// search walks a slice of the nonce space for one worker.
type search struct {
	number     uint64
	difficulty uint
	payload    []byte
	start      uint64
	step       uint64
	progress   uint64
	worker     int
	ev         EventHandler
}

// run tests nonces until one solves the puzzle or the context is cancelled.
// It returns the number of attempts made either way.
func (s search) run(ctx context.Context) (solution, uint64, bool) {
	var attempts uint64

	for nonce := s.start; ; nonce += s.step {
		if ctx.Err() != nil {
			return solution{}, attempts, false
		}

		attempts++
		if attempts%s.progress == 0 {
			s.ev("database: Seal: MINING: IN PROGRESS: blk[%d]: worker[%d]: attempts[%d]", s.number, s.worker, attempts)
		}

		hash := hashWithNonce(s.payload, nonce)
		if IsHashSolved(s.difficulty, hash) {
			return solution{nonce: nonce, hash: hash}, attempts, true
		}
	}
}
