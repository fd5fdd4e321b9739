package validator_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/txn"
	"github.com/michloj571/kingcoin/internal/validator"
)

const transactionsPerBlock = 1

func newWallet(t *testing.T, seed string) *ledger.HotWallet {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return ledger.NewHotWallet(key, seed)
}

// setup builds a transaction chain funding alice, a stakes chain with
// alice as the winning bidder, and the wallet set validator.Validate reads.
func setup(t *testing.T) (alice, bob *ledger.HotWallet, wallets map[ledger.Address]ledger.Wallet, transactions, stakes *ledger.Chain[txn.Transaction]) {
	t.Helper()
	alice = newWallet(t, "alice")
	bob = newWallet(t, "bob")

	genesis := txn.New(ledger.MintAddress, alice.Address, "genesis", 10_000)
	transactions = txn.NewTransactionChain([]txn.Transaction{genesis}, transactionsPerBlock)
	stakes = txn.NewStakesChain()

	bid := txn.NewStakeBid(500, alice.Address)
	candidate, err := ledger.NewBlockCandidate(stakes.Tip(), []txn.Transaction{bid.Transaction})
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}
	stakes.SubmitNewBlock(candidate)

	wallets = map[ledger.Address]ledger.Wallet{
		alice.Address: alice.Wallet,
		bob.Address:   bob.Wallet,
	}
	return
}

func validCandidate(t *testing.T, alice, bob *ledger.HotWallet, transactions, stakes *ledger.Chain[txn.Transaction]) *ledger.BlockCandidate[txn.Transaction] {
	t.Helper()
	transfer, err := txn.Sign(alice, txn.New(alice.Address, bob.Address, "transfer", 100))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	fee, err := txn.Sign(alice, txn.New(alice.Address, ledger.RewardAddress, "fee", txn.TransactionFee))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	data := []txn.Transaction{
		transfer,
		fee,
		txn.StakeReturn(500, alice.Address),
		txn.ForgingReward(alice.Address, transactionsPerBlock),
	}
	candidate, err := ledger.NewBlockCandidate(transactions.Tip(), data)
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}
	return candidate
}

func TestValidateAcceptsWellFormedCandidate(t *testing.T) {
	alice, bob, wallets, transactions, stakes := setup(t)
	candidate := validCandidate(t, alice, bob, transactions, stakes)

	if err := validator.Validate(wallets, transactionsPerBlock, transactions, stakes, candidate); err != nil {
		t.Fatalf("Validate() error on well-formed candidate: %v", err)
	}
}

func TestValidateRejectsWrongCardinality(t *testing.T) {
	alice, bob, wallets, transactions, stakes := setup(t)
	candidate := validCandidate(t, alice, bob, transactions, stakes)
	candidate.Data = candidate.Data[:len(candidate.Data)-1]

	if err := validator.Validate(wallets, transactionsPerBlock, transactions, stakes, candidate); err == nil {
		t.Fatal("Validate() should reject a candidate with the wrong number of entries")
	}
}

func TestValidateRejectsTamperedHash(t *testing.T) {
	alice, bob, wallets, transactions, stakes := setup(t)
	candidate := validCandidate(t, alice, bob, transactions, stakes)
	candidate.Data[0].Amount = 999999

	if err := validator.Validate(wallets, transactionsPerBlock, transactions, stakes, candidate); err == nil {
		t.Fatal("Validate() should reject a candidate whose data no longer matches its key")
	}
}

func TestValidateRejectsBadSignature(t *testing.T) {
	alice, bob, wallets, transactions, stakes := setup(t)
	candidate := validCandidate(t, alice, bob, transactions, stakes)

	// Rebuild the key so only the signature is invalid, not the hash check.
	transfer := candidate.Data[0]
	transfer.Signature[0] ^= 0xFF
	candidate.Data[0] = transfer
	key := ledger.HashKey(candidate.Previous.Key, ledger.DataSummary(candidate.Data))
	candidate.Key = key

	if err := validator.Validate(wallets, transactionsPerBlock, transactions, stakes, candidate); err == nil {
		t.Fatal("Validate() should reject a candidate with an invalid signature")
	}
}

func TestValidateRejectsInsufficientBalance(t *testing.T) {
	alice, bob, wallets, transactions, stakes := setup(t)

	transfer, err := txn.Sign(alice, txn.New(alice.Address, bob.Address, "transfer", 1_000_000))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	fee, err := txn.Sign(alice, txn.New(alice.Address, ledger.RewardAddress, "fee", txn.TransactionFee))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	data := []txn.Transaction{
		transfer,
		fee,
		txn.StakeReturn(500, alice.Address),
		txn.ForgingReward(alice.Address, transactionsPerBlock),
	}
	candidate, err := ledger.NewBlockCandidate(transactions.Tip(), data)
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}

	if err := validator.Validate(wallets, transactionsPerBlock, transactions, stakes, candidate); err == nil {
		t.Fatal("Validate() should reject a transfer exceeding the sender's balance")
	}
}
