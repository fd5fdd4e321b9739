package txn

import "github.com/michloj571/kingcoin/internal/ledger"

// Balance computes address A's balance over the transaction chain tx and
// stakes chain stakes. MINT returns the transaction chain's remaining mint
// pool directly; every other address sums gained minus spent across both
// chains (committed blocks plus the transaction chain's uncommitted pool).
func Balance(address ledger.Address, tx, stakes *ledger.Chain[Transaction]) int64 {
	if address == ledger.MintAddress {
		return tx.RemainingPool()
	}
	var total int64
	for _, block := range tx.Blocks() {
		total += sumEntries(address, block.Data)
	}
	total += sumEntries(address, tx.UncommittedPool())
	for _, block := range stakes.Blocks() {
		total += sumEntries(address, block.Data)
	}
	return total
}

func sumEntries(address ledger.Address, entries []Transaction) int64 {
	var total int64
	for _, entry := range entries {
		if entry.Target == address {
			total += entry.Amount
		}
		if entry.Source == address {
			total -= entry.Amount
		}
	}
	return total
}
