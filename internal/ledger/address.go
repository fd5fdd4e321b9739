// Package ledger implements the block/chain data model: content-addressed
// blocks linked tip-to-genesis, the uncommitted pool they draw from, and the
// reserved sentinel addresses the economy is built around.
package ledger

import (
	"encoding/hex"
	"fmt"
)

// AddressLength is the fixed width of a wallet address in bytes.
const AddressLength = 32

// Address is a raw 32-byte wallet identifier.
type Address [AddressLength]byte

// Reserved sentinel addresses. MINT is the source of newly issued coin,
// STAKE escrows bid amounts pending election, REWARD escrows per-transfer
// fees pending forger payout. None of the three has an associated key pair.
var (
	MintAddress   = Address{}
	StakeAddress  = Address{0x01}
	RewardAddress = Address{0x02}
)

// Hex renders the address as lower-case hex, no prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex parses a 64-character lower- or upper-case hex string into
// an Address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("decode address hex: %w", err)
	}
	if len(b) != AddressLength {
		return a, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// IsSentinel reports whether the address is one of the three reserved
// addresses.
func (a Address) IsSentinel() bool {
	return a == MintAddress || a == StakeAddress || a == RewardAddress
}
