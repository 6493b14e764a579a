package database

import "fmt"

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// BlockData represents what is serialized to storage.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	trans := make([]Tx, len(block.Trans))
	copy(trans, block.Trans)

	return BlockData{
		Hash:   block.Hash,
		Header: block.Header,
		Trans:  trans,
	}
}

// ToBlock converts the storage form back into a block. The hash is
// recomputed from the stored fields and must match the stored hash.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
		Hash:   blockData.Hash,
	}

	if hash := block.ComputeHash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("%w: blk[%d]: stored hash doesn't match block fields, got %s, exp %s", ErrChainLinkage, blockData.Header.Number, blockData.Hash, hash)
	}

	return block, nil
}
