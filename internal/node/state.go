// Package node holds per-peer consensus state: known wallets, the current
// round's bids and votes, the elected forger, and the pending block
// candidate awaiting a vote.
package node

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/transport"
	"github.com/michloj571/kingcoin/internal/txn"
)

// State is one node's view of the network: its own identity and wallet,
// every known peer's wallet, and the bids/votes/pending-block bookkeeping
// for the round currently in flight.
type State struct {
	localID    transport.PeerID
	userWallet *ledger.HotWallet

	wallets      map[ledger.Address]ledger.Wallet
	peersWallets map[transport.PeerID]ledger.Wallet

	nodeBid   *txn.StakeBid
	peersBids map[transport.PeerID]txn.StakeBid

	voting       bool
	votes        map[transport.PeerID]bool
	blockCreator *transport.PeerID
	pendingBlock *ledger.BlockCandidate[txn.Transaction]

	grantedWallets mapset.Set[string]
}

// New builds node state seeded with the local wallet, already recorded in
// the known wallet set.
func New(localID transport.PeerID, wallet *ledger.HotWallet) *State {
	s := &State{
		localID:        localID,
		userWallet:     wallet,
		wallets:        make(map[ledger.Address]ledger.Wallet),
		peersWallets:   make(map[transport.PeerID]ledger.Wallet),
		peersBids:      make(map[transport.PeerID]txn.StakeBid),
		votes:          make(map[transport.PeerID]bool),
		grantedWallets: mapset.NewSet[string](),
	}
	s.wallets[wallet.Address] = wallet.Wallet
	return s
}

func (s *State) LocalID() transport.PeerID { return s.localID }

func (s *State) UserWallet() *ledger.HotWallet { return s.userWallet }

// Wallets returns the known wallet set, keyed by address.
func (s *State) Wallets() map[ledger.Address]ledger.Wallet {
	return s.wallets
}

// AddWallet records a wallet in the known set without tying it to a peer id
// (used for the wallets carried by a Sync snapshot).
func (s *State) AddWallet(w ledger.Wallet) {
	s.wallets[w.Address] = w
}

// AddPeerWallet records a peer's wallet, both in the known set and the
// peer-id-to-wallet lookup Kick and election need.
func (s *State) AddPeerWallet(peer transport.PeerID, w ledger.Wallet) {
	s.wallets[w.Address] = w
	s.peersWallets[peer] = w
}

func (s *State) PeerWallet(peer transport.PeerID) (ledger.Wallet, bool) {
	w, ok := s.peersWallets[peer]
	return w, ok
}

// AllBade reports whether every peer but the local node has placed a bid
// this round.
func (s *State) AllBade() bool {
	return len(s.peersBids) == len(s.wallets)-1
}

// AllVoted reports whether every peer but the local node has voted this
// round.
func (s *State) AllVoted() bool {
	return len(s.votes) == len(s.wallets)-1
}

func (s *State) UpdateBid(bid txn.StakeBid) {
	s.nodeBid = &bid
}

func (s *State) NodeBid() (txn.StakeBid, bool) {
	if s.nodeBid == nil {
		return txn.StakeBid{}, false
	}
	return *s.nodeBid, true
}

func (s *State) UpdatePeerBid(peer transport.PeerID, bid txn.StakeBid) {
	s.peersBids[peer] = bid
}

func (s *State) ResetPeerBids() {
	s.peersBids = make(map[transport.PeerID]txn.StakeBid)
	s.nodeBid = nil
}

// SelectHighestBid picks the winning bidder among every peer's bid plus the
// local node's own bid. Ties are broken by lexicographically least peer id,
// a deterministic rule every peer computes identically.
func (s *State) SelectHighestBid() (transport.PeerID, txn.StakeBid, bool) {
	candidates := make(map[transport.PeerID]txn.StakeBid, len(s.peersBids)+1)
	for peer, bid := range s.peersBids {
		candidates[peer] = bid
	}
	if s.nodeBid != nil {
		candidates[s.localID] = *s.nodeBid
	}
	if len(candidates) == 0 {
		return "", txn.StakeBid{}, false
	}

	ids := make([]string, 0, len(candidates))
	for peer := range candidates {
		ids = append(ids, string(peer))
	}
	sort.Strings(ids)

	var maxStake int64 = -1
	for _, bid := range candidates {
		if bid.Stake > maxStake {
			maxStake = bid.Stake
		}
	}
	for _, id := range ids {
		peer := transport.PeerID(id)
		if candidates[peer].Stake == maxStake {
			return peer, candidates[peer], true
		}
	}
	// Unreachable: ids is non-empty and maxStake is the max over candidates.
	return "", txn.StakeBid{}, false
}

// SetBlockCreator records the elected forger for the round.
func (s *State) SetBlockCreator(peer transport.PeerID) {
	s.blockCreator = &peer
}

func (s *State) BlockCreator() (transport.PeerID, bool) {
	if s.blockCreator == nil {
		return "", false
	}
	return *s.blockCreator, true
}

// SetPendingBlock records a received block candidate and marks voting in
// progress.
func (s *State) SetPendingBlock(candidate *ledger.BlockCandidate[txn.Transaction]) {
	s.pendingBlock = candidate
	s.voting = true
}

// TakePendingBlock returns and clears the pending candidate.
func (s *State) TakePendingBlock() (*ledger.BlockCandidate[txn.Transaction], bool) {
	c := s.pendingBlock
	s.pendingBlock = nil
	if c == nil {
		return nil, false
	}
	return c, true
}

// VotingInProgress reports whether a block vote is currently outstanding,
// used to deny Join requests mid-round.
func (s *State) VotingInProgress() bool {
	return s.voting
}

func (s *State) AddVote(vote Vote) {
	s.votes[vote.Voter] = vote.Valid
}

// SummarizeVotes counts verdicts, clears the vote set and voting flag, and
// reports whether the block should be appended (valid strictly outpolls
// invalid; a tie rejects).
func (s *State) SummarizeVotes() (valid int, invalid int, shouldAppend bool) {
	for _, v := range s.votes {
		if v {
			valid++
		} else {
			invalid++
		}
	}
	s.votes = make(map[transport.PeerID]bool)
	s.voting = false
	return valid, invalid, valid > invalid
}

// Kick removes a misbehaving peer's wallet from the known set and drops its
// outstanding bid.
func (s *State) Kick(peer transport.PeerID) {
	if w, ok := s.peersWallets[peer]; ok {
		delete(s.wallets, w.Address)
		delete(s.peersWallets, peer)
	}
	delete(s.peersBids, peer)
}

// HasGrantedAllowance reports whether address already received a bootstrap
// allowance.
func (s *State) HasGrantedAllowance(address ledger.Address) bool {
	return s.grantedWallets.Contains(address.Hex())
}

// MarkGrantedAllowance records that address has now received its bootstrap
// allowance.
func (s *State) MarkGrantedAllowance(address ledger.Address) {
	s.grantedWallets.Add(address.Hex())
}
