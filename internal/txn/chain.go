package txn

import "github.com/michloj571/kingcoin/internal/ledger"

// NewTransactionChain constructs the ledger of signed transfers. The
// genesis block holds genesisData; the remaining mint pool starts at
// InitialMintPool minus the sum of any MINT-sourced transfers already in
// genesisData, and units-per-block is twice transactionsPerBlock (the
// validator additionally requires a stake-return and a forging-reward
// entry per block).
func NewTransactionChain(genesisData []Transaction, transactionsPerBlock uint64) *ledger.Chain[Transaction] {
	var minted int64
	for _, entry := range genesisData {
		if entry.Source == ledger.MintAddress {
			minted += entry.Amount
		}
	}
	return ledger.NewChain(genesisData, 2*transactionsPerBlock, InitialMintPool-minted)
}

// NewStakesChain constructs the stakes chain: an empty genesis, one
// committed transaction per block (the previous round's winning bid), and
// no mint pool of its own.
func NewStakesChain() *ledger.Chain[Transaction] {
	return ledger.NewChain[Transaction](nil, 1, 0)
}
