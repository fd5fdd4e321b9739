package consensus_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/michloj571/kingcoin/internal/consensus"
	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/node"
	"github.com/michloj571/kingcoin/internal/transport"
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

// peerHandle bundles a transport endpoint with the engine reading from it,
// so pump can drain both sides of a two-node network without favoring
// either one's delivery order.
type peerHandle struct {
	events <-chan transport.Event
	engine *consensus.Engine
}

// pump delivers queued events to both engines in round-robin order until
// neither has anything left to process, mirroring the single-goroutine
// event loop each real node runs.
func pump(t *testing.T, peers ...peerHandle) {
	t.Helper()
	for round := 0; round < 100; round++ {
		progressed := false
		for _, p := range peers {
			select {
			case event := <-p.events:
				p.engine.HandleTransportEvent(event)
				progressed = true
			default:
			}
		}
		if !progressed {
			return
		}
	}
	t.Fatal("pump did not converge within the round budget")
}

func newTwoNodeNetwork(t *testing.T) (alice, bob *ledger.HotWallet, aliceEngine, bobEngine *consensus.Engine, aliceT, bobT transport.Transport) {
	t.Helper()
	hub := transport.NewSimulatedHub()
	aliceT = hub.Join()
	bobT = hub.Join()

	alice = newWallet(t, "alice")
	bob = newWallet(t, "bob")

	genesis := txn.New(ledger.MintAddress, alice.Address, "genesis", 10_000)

	aliceChain := txn.NewTransactionChain([]txn.Transaction{genesis}, 1)
	aliceStakes := txn.NewStakesChain()
	bobChain := txn.NewTransactionChain([]txn.Transaction{genesis}, 1)
	bobStakes := txn.NewStakesChain()

	aliceState := node.New(aliceT.LocalID(), alice)
	bobState := node.New(bobT.LocalID(), bob)

	aliceEngine = consensus.NewEngine(aliceT, aliceState, aliceChain, aliceStakes, 1)
	bobEngine = consensus.NewEngine(bobT, bobState, bobChain, bobStakes, 1)

	pump(t, peerHandle{aliceT.Events(), aliceEngine}, peerHandle{bobT.Events(), bobEngine})
	return
}

func TestJoinExchangesWallets(t *testing.T) {
	alice, bob, aliceEngine, bobEngine, _, _ := newTwoNodeNetwork(t)

	if _, ok := aliceEngine.State().Wallets()[bob.Address]; !ok {
		t.Fatal("alice should know bob's wallet after the join handshake")
	}
	if _, ok := bobEngine.State().Wallets()[alice.Address]; !ok {
		t.Fatal("bob should know alice's wallet after the join handshake")
	}
}

func TestHappyPathTransferElectsForgesAndCommits(t *testing.T) {
	_, bob, aliceEngine, bobEngine, aliceT, bobT := newTwoNodeNetwork(t)

	aliceBalanceBefore := aliceEngine.Balance()
	if err := aliceEngine.SubmitTransfer(bob.Address, 100); err != nil {
		t.Fatalf("SubmitTransfer() error: %v", err)
	}

	pump(t, peerHandle{aliceT.Events(), aliceEngine}, peerHandle{bobT.Events(), bobEngine})

	if got := aliceEngine.Transactions().Length(); got != 2 {
		t.Fatalf("alice's transaction chain length = %d, want 2 (genesis + forged block)", got)
	}
	if got := bobEngine.Transactions().Length(); got != 2 {
		t.Fatalf("bob's transaction chain length = %d, want 2 (genesis + forged block)", got)
	}
	if !aliceEngine.Transactions().Tip().Key.Equal(bobEngine.Transactions().Tip().Key) {
		t.Fatal("both nodes should converge on the same committed block")
	}

	// Alice's stake bid dwarfs bob's (she holds the entire genesis
	// allocation), so she is deterministically elected forger: her
	// transaction fee comes back to her as the forging reward and her
	// escrowed stake is returned, leaving only the transfer amount spent.
	wantAliceBalance := aliceBalanceBefore - 100
	if got := aliceEngine.Balance(); got != wantAliceBalance {
		t.Fatalf("alice's balance after transfer = %d, want %d", got, wantAliceBalance)
	}
	if got := txn.Balance(bob.Address, bobEngine.Transactions(), bobEngine.Stakes()); got != 100 {
		t.Fatalf("bob's balance after transfer = %d, want 100", got)
	}
}

// TestVoteRejectionMarksForgerBad exercises the reject branch of vote
// summarization: bob holds a block that doubles the forger's stake-return
// entry as his pending candidate and then receives an invalid vote from the
// forger. Once the round's votes are summarized the block is discarded and
// the forger is kicked and banned rather than merely logged. The invalid
// vote is delivered directly; the validator is not run on the candidate.
func TestVoteRejectionMarksForgerBad(t *testing.T) {
	alice, _, _, bobEngine, aliceT, _ := newTwoNodeNetwork(t)

	forger := aliceT.LocalID()
	bobEngine.State().SetBlockCreator(forger)

	doubledStakeReturn := []txn.Transaction{
		txn.StakeReturn(7_000, alice.Address),
		txn.StakeReturn(7_000, alice.Address),
	}
	candidate, err := ledger.NewBlockCandidate(bobEngine.Transactions().Tip(), doubledStakeReturn)
	if err != nil {
		t.Fatalf("NewBlockCandidate() error: %v", err)
	}
	bobEngine.State().SetPendingBlock(candidate)

	encoded, err := wire.Encode(wire.NewVote(false))
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	bobEngine.HandleTransportEvent(transport.Event{
		Kind:     transport.MessageDelivered,
		SenderID: forger,
		Bytes:    encoded,
	})

	if got := bobEngine.Transactions().Length(); got != 1 {
		t.Fatalf("bob's transaction chain length = %d, want 1 (rejected block must not be appended)", got)
	}
	if _, ok := bobEngine.State().Wallets()[alice.Address]; ok {
		t.Fatal("the forger's wallet should have been removed from the known set after being marked bad")
	}
}

func TestNewPeerWithZeroBalanceIsGrantedABootstrapAllowance(t *testing.T) {
	hub := transport.NewSimulatedHub()
	aliceT := hub.Join()
	bobT := hub.Join()

	alice := newWallet(t, "alice")
	bob := newWallet(t, "bob")
	genesis := txn.New(ledger.MintAddress, alice.Address, "genesis", 10_000)

	aliceChain := txn.NewTransactionChain([]txn.Transaction{genesis}, 1)
	aliceStakes := txn.NewStakesChain()
	// bob starts with no genesis allocation: a freshly bootstrapped node.
	bobChain := txn.NewTransactionChain([]txn.Transaction{genesis}, 1)
	bobStakes := txn.NewStakesChain()

	aliceState := node.New(aliceT.LocalID(), alice)
	bobState := node.New(bobT.LocalID(), bob)
	aliceEngine := consensus.NewEngine(aliceT, aliceState, aliceChain, aliceStakes, 1)
	bobEngine := consensus.NewEngine(bobT, bobState, bobChain, bobStakes, 1)

	pump(t, peerHandle{aliceT.Events(), aliceEngine}, peerHandle{bobT.Events(), bobEngine})

	if !aliceEngine.State().HasGrantedAllowance(bob.Address) {
		t.Fatal("alice should have granted bob a bootstrap allowance after bob joined with a zero balance")
	}
	wantRemaining := txn.InitialMintPool - 10_000 - 1000
	if got := aliceEngine.Transactions().RemainingPool(); got != wantRemaining {
		t.Fatalf("alice's remaining mint pool after granting = %d, want %d", got, wantRemaining)
	}
}
