package ledger_test

import (
	"testing"

	"github.com/michloj571/kingcoin/internal/ledger"
)

type stubSummary string

func (s stubSummary) CanonicalSummary() []byte { return []byte(s) }

func TestGenesisKeyIsSentinel(t *testing.T) {
	key := ledger.GenesisKey()
	if !key.IsGenesis() {
		t.Fatal("GenesisKey() should report IsGenesis() true")
	}
	if key.Hash != ([ledger.HashLength]byte{}) {
		t.Fatal("GenesisKey() hash should be all-zero")
	}
}

func TestHashKeyDeterministic(t *testing.T) {
	previous := ledger.GenesisKey()
	summary := ledger.DataSummary([]stubSummary{"a", "b"})

	k1 := ledger.HashKey(previous, summary)
	k2 := ledger.HashKey(previous, summary)

	if !k1.Equal(k2) {
		t.Fatal("HashKey should be deterministic for identical inputs")
	}
	if k1.PreviousHash == nil || *k1.PreviousHash != previous.Hash {
		t.Fatal("a genesis child's previous-hash should be genesis's own all-zero hash")
	}
}

func TestHashKeyDiffersOnData(t *testing.T) {
	previous := ledger.GenesisKey()
	k1 := ledger.HashKey(previous, ledger.DataSummary([]stubSummary{"a"}))
	k2 := ledger.HashKey(previous, ledger.DataSummary([]stubSummary{"b"}))

	if k1.Equal(k2) {
		t.Fatal("different data summaries should produce different keys")
	}
}

func TestNewBlockCandidateRequiresPrevious(t *testing.T) {
	_, err := ledger.NewBlockCandidate[stubSummary](nil, []stubSummary{"a"})
	if err == nil {
		t.Fatal("NewBlockCandidate(nil, ...) should error")
	}
}

func TestNewBlockCandidateChainsToPrevious(t *testing.T) {
	genesis := &ledger.Block[stubSummary]{Key: ledger.GenesisKey(), Number: 0}
	candidate, err := ledger.NewBlockCandidate(genesis, []stubSummary{"a"})
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}
	if candidate.Number != 1 {
		t.Errorf("candidate number = %d, want 1", candidate.Number)
	}
	if candidate.Key.PreviousHash == nil || *candidate.Key.PreviousHash != genesis.Key.Hash {
		t.Error("candidate key should chain to genesis's hash")
	}
	expected := ledger.HashKey(genesis.Key, ledger.DataSummary(candidate.Data))
	if !candidate.Key.Equal(expected) {
		t.Error("candidate key should recompute to the same value via HashKey")
	}
}
