package wire_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/txn"
	"github.com/michloj571/kingcoin/internal/wire"
)

func newWallet(t *testing.T, seed string) *ledger.HotWallet {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return ledger.NewHotWallet(key, seed)
}

func TestTransactionDTORoundTrip(t *testing.T) {
	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	transfer, err := txn.Sign(alice, txn.New(alice.Address, bob.Address, "transfer", 42))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	dto := wire.TransactionToDTO(transfer)
	back, err := wire.TransactionFromDTO(dto)
	if err != nil {
		t.Fatalf("TransactionFromDTO() error: %v", err)
	}

	if back.Source != transfer.Source || back.Target != transfer.Target || back.Amount != transfer.Amount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, transfer)
	}
	if !txn.SignatureValid(alice.Wallet, back) {
		t.Fatal("round-tripped transaction should still verify")
	}
}

func TestWalletDTORoundTrip(t *testing.T) {
	alice := newWallet(t, "alice")
	dto := wire.WalletToDTO(alice.Wallet)
	back, err := wire.WalletFromDTO(dto)
	if err != nil {
		t.Fatalf("WalletFromDTO() error: %v", err)
	}
	if back.Address != alice.Address {
		t.Fatalf("address mismatch: got %s, want %s", back.Address.Hex(), alice.Address.Hex())
	}
	if back.PublicKey.E != alice.PublicKey.E || back.PublicKey.N.Cmp(alice.PublicKey.N) != 0 {
		t.Fatal("public key mismatch after round trip")
	}
}

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	original := wire.NewVote(true)
	encoded, err := wire.Encode(original)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	decoded, err := wire.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if decoded.Type != wire.TypeVote || decoded.Vote == nil || !decoded.Vote.BlockValid {
		t.Fatalf("decoded message mismatch: %+v", decoded)
	}
}

func TestChainDTORoundTrip(t *testing.T) {
	alice := newWallet(t, "alice")
	genesis := txn.New(ledger.MintAddress, alice.Address, "genesis", 1000)
	chain := txn.NewTransactionChain([]txn.Transaction{genesis}, 1)

	transfer := txn.New(alice.Address, ledger.Address{0xAB}, "transfer", 10)
	next, err := ledger.NewBlockCandidate(chain.Tip(), []txn.Transaction{transfer})
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}
	chain.SubmitNewBlock(next)

	dto := wire.ChainToDTO(chain)
	rebuilt, err := wire.ChainFromDTO(dto)
	if err != nil {
		t.Fatalf("ChainFromDTO() error: %v", err)
	}

	if rebuilt.Length() != chain.Length() {
		t.Fatalf("Length() = %d, want %d", rebuilt.Length(), chain.Length())
	}
	if !rebuilt.Tip().Key.Equal(chain.Tip().Key) {
		t.Fatal("rebuilt chain's tip key should match the original")
	}
}
