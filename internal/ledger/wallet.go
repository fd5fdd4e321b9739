package ledger

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// Wallet is the public identity of a participant: an address and, unless the
// address is a reserved sentinel, the RSA public key signatures are checked
// against.
type Wallet struct {
	Address   Address
	PublicKey *rsa.PublicKey // nil for sentinel wallets
}

// NewWallet builds a public wallet record for a key-holding participant.
func NewWallet(address Address, publicKey *rsa.PublicKey) Wallet {
	return Wallet{Address: address, PublicKey: publicKey}
}

// SentinelWallet builds the keyless wallet record for one of the three
// reserved addresses.
func SentinelWallet(address Address) Wallet {
	return Wallet{Address: address}
}

// PublicKeyHex renders the public key in PKIX/DER form as lower-case hex, or
// the empty string when the wallet has no key (sentinel wallets).
func (w Wallet) PublicKeyHex() string {
	if w.PublicKey == nil {
		return ""
	}
	der, err := x509.MarshalPKIXPublicKey(w.PublicKey)
	if err != nil {
		// A *rsa.PublicKey always marshals; this would indicate a corrupt key.
		panic(fmt.Sprintf("marshal wallet public key: %v", err))
	}
	return hex.EncodeToString(der)
}

// CanonicalSummary is the wallet's canonical serialized form including its
// public key, used when a vector of wallets contributes to a block's data
// summary.
func (w Wallet) CanonicalSummary() []byte {
	return []byte(w.Address.Hex() + w.PublicKeyHex())
}

// PublicKeyFromHex parses a PKIX/DER-encoded, hex-strung RSA public key. An
// empty string yields a nil key (sentinel wallet).
func PublicKeyFromHex(s string) (*rsa.PublicKey, error) {
	if s == "" {
		return nil, nil
	}
	der, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key hex: %w", err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaKey, nil
}

// HotWallet is a wallet with its signing key present: the local node's own
// identity.
type HotWallet struct {
	Wallet
	PrivateKey *rsa.PrivateKey
}

// NewHotWallet derives the wallet's address from the SHA-256 digest of a
// creation-time string and pairs it with the given RSA key pair. Generating
// the key pair itself is left to the caller (see internal/wallet), matching
// the scope boundary that treats RSA key generation as an external
// collaborator.
func NewHotWallet(privateKey *rsa.PrivateKey, creationSeed string) *HotWallet {
	digest := sha256.Sum256([]byte(creationSeed))
	var address Address
	copy(address[:], digest[:])
	return &HotWallet{
		Wallet:     NewWallet(address, &privateKey.PublicKey),
		PrivateKey: privateKey,
	}
}
