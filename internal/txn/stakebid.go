package txn

import "github.com/michloj571/kingcoin/internal/ledger"

// StakeBid is a bid to forge the next block: an escrow transfer from the
// bidder to STAKE for the bid amount.
type StakeBid struct {
	Stake       int64
	Transaction Transaction
}

// NewStakeBid builds a bid transferring stake from bidder to STAKE.
func NewStakeBid(stake int64, bidder ledger.Address) StakeBid {
	return StakeBid{
		Stake:       stake,
		Transaction: New(bidder, ledger.StakeAddress, "stake-bid", stake),
	}
}

// Bidder is the address that placed the bid.
func (b StakeBid) Bidder() ledger.Address {
	return b.Transaction.Source
}
