package ledger

import "time"

// Chain is an in-memory singly-linked list of committed blocks, tip to
// genesis, plus an uncommitted pool awaiting the next block. It is generic
// over any payload type satisfying Summary.
type Chain[T Summary] struct {
	tip           *Block[T]
	length        uint64
	uncommitted   []T
	unitsPerBlock uint64
	remainingPool int64
}

// NewChain constructs a chain whose genesis block holds genesisData.
// unitsPerBlock and initialRemainingPool are supplied by the caller, since
// their derivation (e.g. summing MINT transfers for the transaction chain)
// is specific to the payload type and lives in the txn package.
func NewChain[T Summary](genesisData []T, unitsPerBlock uint64, initialRemainingPool int64) *Chain[T] {
	genesis := &Block[T]{
		Previous: nil,
		Data:     genesisData,
		Key:      GenesisKey(),
		Time:     time.Now(),
		Number:   0,
	}
	return &Chain[T]{
		tip:           genesis,
		length:        1,
		unitsPerBlock: unitsPerBlock,
		remainingPool: initialRemainingPool,
	}
}

// ChainFromParts rebuilds a chain from its constituent parts, used when
// applying a Sync snapshot received from a peer.
func ChainFromParts[T Summary](tip *Block[T], length uint64, uncommitted []T, unitsPerBlock uint64, remainingPool int64) *Chain[T] {
	return &Chain[T]{
		tip:           tip,
		length:        length,
		uncommitted:   uncommitted,
		unitsPerBlock: unitsPerBlock,
		remainingPool: remainingPool,
	}
}

// Tip returns the chain's most recently committed block. It is never nil:
// every chain has at least a genesis block.
func (c *Chain[T]) Tip() *Block[T] {
	return c.tip
}

// Length is the number of committed blocks, genesis included.
func (c *Chain[T]) Length() uint64 {
	return c.length
}

// UncommittedPool returns the entries awaiting the next block. The returned
// slice must not be mutated by the caller.
func (c *Chain[T]) UncommittedPool() []T {
	return c.uncommitted
}

// UnitsPerBlock is the number of uncommitted entries a block requires.
func (c *Chain[T]) UnitsPerBlock() uint64 {
	return c.unitsPerBlock
}

// RemainingPool is the remaining mint allowance (meaningful on the
// transaction chain only; always zero and unused on the stakes chain).
func (c *Chain[T]) RemainingPool() int64 {
	return c.remainingPool
}

// AddUncommitted appends an entry to the uncommitted pool.
func (c *Chain[T]) AddUncommitted(item T) {
	c.uncommitted = append(c.uncommitted, item)
}

// HasEnoughUncommitted reports whether the pool holds exactly one block's
// worth of entries.
func (c *Chain[T]) HasEnoughUncommitted() bool {
	return uint64(len(c.uncommitted)) == c.unitsPerBlock
}

// SubmitNewBlock converts a candidate into a committed block: commit time is
// now, block number is the chain's current length, and the first
// min(pool length, units-per-block) pool entries are dropped.
func (c *Chain[T]) SubmitNewBlock(candidate *BlockCandidate[T]) *Block[T] {
	block := &Block[T]{
		Previous: candidate.Previous,
		Data:     candidate.Data,
		Key:      candidate.Key,
		Time:     time.Now(),
		Number:   c.length,
	}
	drop := len(c.uncommitted)
	if uint64(drop) > c.unitsPerBlock {
		drop = int(c.unitsPerBlock)
	}
	c.uncommitted = append([]T{}, c.uncommitted[drop:]...)
	c.tip = block
	c.length++
	return block
}

// Mint deducts amount from the remaining pool if there is enough left,
// returning the new remaining pool; otherwise it leaves the pool unchanged
// and returns 0.
func (c *Chain[T]) Mint(amount int64) int64 {
	if amount <= c.remainingPool {
		c.remainingPool -= amount
		return c.remainingPool
	}
	return 0
}

// Replace swaps in a chain received from a peer, used by the Sync handler
// when the incoming chain is strictly longer than this one.
func (c *Chain[T]) Replace(other *Chain[T]) {
	c.tip = other.tip
	c.length = other.length
	c.uncommitted = other.uncommitted
	c.unitsPerBlock = other.unitsPerBlock
	c.remainingPool = other.remainingPool
}

// Blocks walks the chain tip to genesis and returns the blocks in that
// order.
func (c *Chain[T]) Blocks() []*Block[T] {
	var blocks []*Block[T]
	for b := c.tip; b != nil; b = b.Previous {
		blocks = append(blocks, b)
	}
	return blocks
}
