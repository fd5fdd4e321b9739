// Package wire implements the gossip message envelope and its
// serialization to a self-describing text format (JSON, with binary
// fields such as addresses, hashes, and signatures as lower-case hex
// strings without prefix).
package wire

import (
	"time"

	"github.com/michloj571/kingcoin/internal/crypto"
	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/txn"
)

// TransactionDTO is the wire form of a Transaction.
type TransactionDTO struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Title     string    `json:"title"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
}

func TransactionToDTO(t txn.Transaction) TransactionDTO {
	return TransactionDTO{
		Source:    t.Source.Hex(),
		Target:    t.Target.Hex(),
		Title:     t.Title,
		Amount:    t.Amount,
		Timestamp: t.Timestamp,
		Signature: crypto.HexEncode(t.Signature),
	}
}

func TransactionFromDTO(d TransactionDTO) (txn.Transaction, error) {
	source, err := ledger.AddressFromHex(d.Source)
	if err != nil {
		return txn.Transaction{}, err
	}
	target, err := ledger.AddressFromHex(d.Target)
	if err != nil {
		return txn.Transaction{}, err
	}
	var signature []byte
	if d.Signature != "" {
		signature, err = hexDecode(d.Signature)
		if err != nil {
			return txn.Transaction{}, err
		}
	}
	return txn.Transaction{
		Source:    source,
		Target:    target,
		Title:     d.Title,
		Amount:    d.Amount,
		Timestamp: d.Timestamp,
		Signature: signature,
	}, nil
}

// WalletDTO is the wire form of a Wallet.
type WalletDTO struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

func WalletToDTO(w ledger.Wallet) WalletDTO {
	return WalletDTO{Address: w.Address.Hex(), PublicKey: w.PublicKeyHex()}
}

func WalletFromDTO(d WalletDTO) (ledger.Wallet, error) {
	address, err := ledger.AddressFromHex(d.Address)
	if err != nil {
		return ledger.Wallet{}, err
	}
	key, err := ledger.PublicKeyFromHex(d.PublicKey)
	if err != nil {
		return ledger.Wallet{}, err
	}
	return ledger.NewWallet(address, key), nil
}

// StakeBidDTO is the wire form of a StakeBid.
type StakeBidDTO struct {
	Stake       int64          `json:"stake"`
	Transaction TransactionDTO `json:"transaction"`
}

func StakeBidToDTO(b txn.StakeBid) StakeBidDTO {
	return StakeBidDTO{Stake: b.Stake, Transaction: TransactionToDTO(b.Transaction)}
}

func StakeBidFromDTO(d StakeBidDTO) (txn.StakeBid, error) {
	t, err := TransactionFromDTO(d.Transaction)
	if err != nil {
		return txn.StakeBid{}, err
	}
	return txn.StakeBid{Stake: d.Stake, Transaction: t}, nil
}

// BlockDTO is the wire form of a committed block or candidate: hex block
// hash, optional hex previous hash, the data vector, commit time, and
// block number.
type BlockDTO struct {
	BlockHash         string           `json:"block_hash"`
	PreviousBlockHash *string          `json:"previous_block_hash"`
	Data              []TransactionDTO `json:"data"`
	Time              time.Time        `json:"time"`
	BlockNumber       uint64           `json:"block_number"`
}

func BlockToDTO(b *ledger.Block[txn.Transaction]) BlockDTO {
	data := make([]TransactionDTO, len(b.Data))
	for i, t := range b.Data {
		data[i] = TransactionToDTO(t)
	}
	var previousHash *string
	if b.Key.PreviousHash != nil {
		s := crypto.HexEncode(b.Key.PreviousHash[:])
		previousHash = &s
	}
	return BlockDTO{
		BlockHash:         crypto.HexEncode(b.Key.Hash[:]),
		PreviousBlockHash: previousHash,
		Data:              data,
		Time:              b.Time,
		BlockNumber:       b.Number,
	}
}

func CandidateToDTO(c *ledger.BlockCandidate[txn.Transaction]) BlockDTO {
	data := make([]TransactionDTO, len(c.Data))
	for i, t := range c.Data {
		data[i] = TransactionToDTO(t)
	}
	var previousHash *string
	if c.Key.PreviousHash != nil {
		s := crypto.HexEncode(c.Key.PreviousHash[:])
		previousHash = &s
	}
	return BlockDTO{
		BlockHash:         crypto.HexEncode(c.Key.Hash[:]),
		PreviousBlockHash: previousHash,
		Data:              data,
		BlockNumber:       c.Number,
	}
}

// CandidateFromDTO reconstructs a BlockCandidate from its wire form,
// linking it to previous, the receiver's own chain tip, the block the
// candidate claims to extend. The validator independently checks that the
// claimed key recomputes correctly from previous.
func CandidateFromDTO(previous *ledger.Block[txn.Transaction], d BlockDTO) (*ledger.BlockCandidate[txn.Transaction], error) {
	hashBytes, err := crypto.HexDecodeFixed(d.BlockHash, ledger.HashLength)
	if err != nil {
		return nil, err
	}
	var hash [ledger.HashLength]byte
	copy(hash[:], hashBytes)

	var previousHash *[ledger.HashLength]byte
	if d.PreviousBlockHash != nil {
		prevBytes, err := crypto.HexDecodeFixed(*d.PreviousBlockHash, ledger.HashLength)
		if err != nil {
			return nil, err
		}
		var arr [ledger.HashLength]byte
		copy(arr[:], prevBytes)
		previousHash = &arr
	}

	data := make([]txn.Transaction, len(d.Data))
	for i, dto := range d.Data {
		t, err := TransactionFromDTO(dto)
		if err != nil {
			return nil, err
		}
		data[i] = t
	}

	key := ledger.BlockKey{Hash: hash, PreviousHash: previousHash}
	return ledger.RebuildCandidate(previous, key, data, d.BlockNumber), nil
}

// BlockchainDTO is the wire form of a Chain: its committed blocks in
// tip-first order, chain length, uncommitted pool, units-per-block, and
// remaining mint pool.
type BlockchainDTO struct {
	Blocks               []BlockDTO       `json:"blocks"`
	ChainLength          uint64           `json:"chain_length"`
	UncommittedData      []TransactionDTO `json:"uncommitted_data"`
	MaxDataUnitsPerBlock uint64           `json:"max_data_units_per_block"`
	RemainingPool        int64            `json:"remaining_pool"`
}

func ChainToDTO(c *ledger.Chain[txn.Transaction]) BlockchainDTO {
	blocks := c.Blocks()
	blockDTOs := make([]BlockDTO, len(blocks))
	for i, b := range blocks {
		blockDTOs[i] = BlockToDTO(b)
	}
	pool := c.UncommittedPool()
	poolDTOs := make([]TransactionDTO, len(pool))
	for i, t := range pool {
		poolDTOs[i] = TransactionToDTO(t)
	}
	return BlockchainDTO{
		Blocks:               blockDTOs,
		ChainLength:          c.Length(),
		UncommittedData:      poolDTOs,
		MaxDataUnitsPerBlock: c.UnitsPerBlock(),
		RemainingPool:        c.RemainingPool(),
	}
}

// ChainFromDTO rebuilds a chain from a Sync snapshot. Blocks arrive
// tip-first; they are relinked genesis-first so each block's Previous
// pointer chains correctly.
func ChainFromDTO(d BlockchainDTO) (*ledger.Chain[txn.Transaction], error) {
	pool := make([]txn.Transaction, len(d.UncommittedData))
	for i, dto := range d.UncommittedData {
		t, err := TransactionFromDTO(dto)
		if err != nil {
			return nil, err
		}
		pool[i] = t
	}

	if len(d.Blocks) == 0 {
		return ledger.ChainFromParts[txn.Transaction](nil, d.ChainLength, pool, d.MaxDataUnitsPerBlock, d.RemainingPool), nil
	}

	var previous *ledger.Block[txn.Transaction]
	for i := len(d.Blocks) - 1; i >= 0; i-- {
		dto := d.Blocks[i]
		hashBytes, err := crypto.HexDecodeFixed(dto.BlockHash, ledger.HashLength)
		if err != nil {
			return nil, err
		}
		var hash [ledger.HashLength]byte
		copy(hash[:], hashBytes)

		var previousHash *[ledger.HashLength]byte
		if dto.PreviousBlockHash != nil {
			prevBytes, err := crypto.HexDecodeFixed(*dto.PreviousBlockHash, ledger.HashLength)
			if err != nil {
				return nil, err
			}
			var arr [ledger.HashLength]byte
			copy(arr[:], prevBytes)
			previousHash = &arr
		}

		data := make([]txn.Transaction, len(dto.Data))
		for j, txDTO := range dto.Data {
			t, err := TransactionFromDTO(txDTO)
			if err != nil {
				return nil, err
			}
			data[j] = t
		}

		previous = &ledger.Block[txn.Transaction]{
			Previous: previous,
			Data:     data,
			Key:      ledger.BlockKey{Hash: hash, PreviousHash: previousHash},
			Time:     dto.Time,
			Number:   dto.BlockNumber,
		}
	}

	return ledger.ChainFromParts(previous, d.ChainLength, pool, d.MaxDataUnitsPerBlock, d.RemainingPool), nil
}

func hexDecode(s string) ([]byte, error) {
	return crypto.HexDecodeFixed(s, len(s)/2)
}
