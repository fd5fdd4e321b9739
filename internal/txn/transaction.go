// Package txn implements the transaction and stake-bid model and the
// balance computation that walks the ledger's two parallel chains.
package txn

import (
	"strconv"
	"time"

	"github.com/michloj571/kingcoin/internal/crypto"
	"github.com/michloj571/kingcoin/internal/ledger"
)

// TransactionFee is the fixed per-transfer fee paid from sender to REWARD,
// redirected to the forger on commit.
const TransactionFee int64 = 50

// InitialMintPool is the remaining-pool value a fresh transaction chain
// starts with.
const InitialMintPool int64 = 21_000_000

// Transaction is a signed value transfer between two addresses.
type Transaction struct {
	Source    ledger.Address
	Target    ledger.Address
	Title     string
	Amount    int64
	Timestamp time.Time
	Signature []byte // nil when unsigned
}

// New builds an unsigned transfer. Source must differ from target unless
// source is a sentinel address.
func New(source, target ledger.Address, title string, amount int64) Transaction {
	return Transaction{
		Source:    source,
		Target:    target,
		Title:     title,
		Amount:    amount,
		Timestamp: time.Now(),
	}
}

// CanonicalSignedContent is the byte string a signature covers:
// hex(source) ‖ hex(target) ‖ decimal(amount) ‖ title.
func (t Transaction) CanonicalSignedContent() []byte {
	return []byte(t.Source.Hex() + t.Target.Hex() + strconv.FormatInt(t.Amount, 10) + t.Title)
}

// CanonicalSummary is the transaction's canonical serialized form including
// its signature, the unit block data hashing is built from.
func (t Transaction) CanonicalSummary() []byte {
	return append(t.CanonicalSignedContent(), t.Signature...)
}

// Sign returns a copy of t signed by wallet using RSA-PSS/SHA-512 over the
// canonical signed content.
func Sign(wallet *ledger.HotWallet, t Transaction) (Transaction, error) {
	signature, err := crypto.SignPSS(wallet.PrivateKey, t.CanonicalSignedContent())
	if err != nil {
		return Transaction{}, err
	}
	t.Signature = signature
	return t, nil
}

// SignatureValid reports whether t's signature verifies against source's
// public key.
func SignatureValid(source ledger.Wallet, t Transaction) bool {
	return crypto.VerifyPSS(source.PublicKey, t.CanonicalSignedContent(), t.Signature)
}

// StakeReturn builds the unsigned transaction returning an elected forger's
// escrowed stake from STAKE back to the forger.
func StakeReturn(stake int64, forger ledger.Address) Transaction {
	return New(ledger.StakeAddress, forger, "stake-return", stake)
}

// ForgingReward builds the unsigned transaction paying the elected forger
// the collected transaction fees from REWARD.
func ForgingReward(forger ledger.Address, transactionsPerBlock uint64) Transaction {
	return New(ledger.RewardAddress, forger, "forging-reward", TransactionFee*int64(transactionsPerBlock))
}
