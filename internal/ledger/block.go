package ledger

import (
	"bytes"
	"crypto/sha512"
	"time"

	kingcoinerrors "github.com/michloj571/kingcoin/internal/errors"
)

// HashLength is the fixed width of a block hash in bytes.
const HashLength = 64

// Summary is the contract a block payload type must satisfy: a canonical,
// signature-inclusive byte serialization that feeds the block's hash.
type Summary interface {
	CanonicalSummary() []byte
}

// BlockKey identifies a block by its hash and links it to its predecessor's
// hash. The genesis sentinel has an all-zero hash and no previous hash.
type BlockKey struct {
	Hash         [HashLength]byte
	PreviousHash *[HashLength]byte
}

// GenesisKey is the fixed key every chain's first block carries.
func GenesisKey() BlockKey {
	return BlockKey{}
}

// IsGenesis reports whether this key is the genesis sentinel.
func (k BlockKey) IsGenesis() bool {
	return k.PreviousHash == nil
}

// DataSummary concatenates the canonical summaries of a slice of payload
// entries with no delimiter, matching the block data summary definition.
func DataSummary[T Summary](data []T) []byte {
	var buf bytes.Buffer
	for _, item := range data {
		buf.Write(item.CanonicalSummary())
	}
	return buf.Bytes()
}

// HashKey computes the key of the block that follows previous, given the
// data summary of the new block's payload. previous is always a real
// block's key (genesis's own key is assigned directly by the chain
// constructor, never produced here); consequently the new key's
// previous-hash is always previous.Hash, and for a block built directly on
// genesis that seed is genesis's all-zero hash, matching the hash
// determinism property: hash(K, s) = SHA-512(K.Hash ‖ s).
func HashKey(previous BlockKey, dataSummary []byte) BlockKey {
	seed := previous.Hash
	h := sha512.Sum512(append(append([]byte{}, seed[:]...), dataSummary...))
	return BlockKey{Hash: h, PreviousHash: &seed}
}

// Equal reports whether two keys carry the same hash and previous-hash.
func (k BlockKey) Equal(other BlockKey) bool {
	if k.Hash != other.Hash {
		return false
	}
	if (k.PreviousHash == nil) != (other.PreviousHash == nil) {
		return false
	}
	if k.PreviousHash != nil && *k.PreviousHash != *other.PreviousHash {
		return false
	}
	return true
}

// Block is a committed batch of payload entries, linked to its predecessor
// by BlockKey and numbered sequentially from genesis.
type Block[T Summary] struct {
	Previous *Block[T]
	Data     []T
	Key      BlockKey
	Time     time.Time
	Number   uint64
}

// BlockCandidate is a detached, un-timestamped draft block: the result of
// hashing a prospective payload against the current tip, awaiting either
// commit (SubmitNewBlock) or discard.
type BlockCandidate[T Summary] struct {
	Previous *Block[T]
	Data     []T
	Key      BlockKey
	Number   uint64
}

// NewBlockCandidate builds a candidate linking to previous. Only the genesis
// constructor may omit previous; every other caller must supply a real
// block.
func NewBlockCandidate[T Summary](previous *Block[T], data []T) (*BlockCandidate[T], error) {
	if previous == nil {
		return nil, kingcoinerrors.NewBlockCreationError("candidate requires a previous block")
	}
	key := HashKey(previous.Key, DataSummary(data))
	return &BlockCandidate[T]{
		Previous: previous,
		Data:     data,
		Key:      key,
		Number:   previous.Number + 1,
	}, nil
}

// RebuildCandidate reconstructs a candidate from a wire-carried key and
// data (see the wire package's BlockDTO), linking it to previous, which
// the caller sets to its own chain tip, the block the candidate claims to
// extend. The validator independently checks that the claim recomputes
// correctly.
func RebuildCandidate[T Summary](previous *Block[T], key BlockKey, data []T, number uint64) *BlockCandidate[T] {
	return &BlockCandidate[T]{Previous: previous, Data: data, Key: key, Number: number}
}
