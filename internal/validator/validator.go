// Package validator implements the pure block-candidate validation rules:
// cardinality, hash recomputation, stake return, forging reward, and
// per-transaction signature/balance checks.
package validator

import (
	kingcoinerrors "github.com/michloj571/kingcoin/internal/errors"
	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/txn"
)

// Validate inspects a candidate transaction block against the known wallet
// set and both chains. It is a pure function: no argument is mutated and no
// I/O is performed.
func Validate(
	wallets map[ledger.Address]ledger.Wallet,
	transactionsPerBlock uint64,
	transactions *ledger.Chain[txn.Transaction],
	stakes *ledger.Chain[txn.Transaction],
	candidate *ledger.BlockCandidate[txn.Transaction],
) error {
	summary := blockSummary(candidate)

	if err := checkCardinality(candidate, transactionsPerBlock, summary); err != nil {
		return err
	}
	if err := checkHash(candidate, summary); err != nil {
		return err
	}
	stakeWinner, err := checkStakeReturn(candidate, stakes, summary)
	if err != nil {
		return err
	}
	if err := checkForgingReward(candidate, stakeWinner, transactionsPerBlock, summary); err != nil {
		return err
	}
	if err := checkOrdinaryTransactions(candidate, wallets, transactions, stakes, summary); err != nil {
		return err
	}
	return nil
}

func blockSummary(candidate *ledger.BlockCandidate[txn.Transaction]) string {
	return string(ledger.DataSummary(candidate.Data))
}

func checkCardinality(candidate *ledger.BlockCandidate[txn.Transaction], tpb uint64, summary string) error {
	required := int(2*tpb + 2)
	if len(candidate.Data) != required {
		return kingcoinerrors.NewTransactionValidationError(summary, "block cardinality mismatch")
	}
	return nil
}

func checkHash(candidate *ledger.BlockCandidate[txn.Transaction], summary string) error {
	if candidate.Previous == nil {
		return kingcoinerrors.NewBlockValidationError(summary, "candidate has no previous block")
	}
	recomputed := ledger.HashKey(candidate.Previous.Key, ledger.DataSummary(candidate.Data))
	if !recomputed.Equal(candidate.Key) {
		return kingcoinerrors.NewBlockValidationError(summary, "recomputed hash does not match candidate key")
	}
	return nil
}

// checkStakeReturn verifies exactly one transaction returns the stakes
// chain tip's sole transaction's stake to its source, and returns that
// source (the elected forger) for the forging-reward check.
func checkStakeReturn(candidate *ledger.BlockCandidate[txn.Transaction], stakes *ledger.Chain[txn.Transaction], summary string) (ledger.Address, error) {
	tip := stakes.Tip()
	if tip == nil || len(tip.Data) != 1 {
		return ledger.Address{}, kingcoinerrors.NewBlockValidationError(summary, "stakes chain has no winning bid to return")
	}
	winningBid := tip.Data[0]

	count := 0
	for _, t := range candidate.Data {
		if t.Source == ledger.StakeAddress && t.Target == winningBid.Source && t.Amount == winningBid.Amount {
			count++
		}
	}
	if count != 1 {
		return ledger.Address{}, kingcoinerrors.NewTransactionValidationError(summary, "expected exactly one stake-return transaction")
	}
	return winningBid.Source, nil
}

func checkForgingReward(candidate *ledger.BlockCandidate[txn.Transaction], forger ledger.Address, transactionsPerBlock uint64, summary string) error {
	var totalFee int64
	var reward int64
	for _, t := range candidate.Data {
		if t.Target == ledger.RewardAddress && t.Amount == txn.TransactionFee {
			totalFee += t.Amount
		}
		if t.Source == ledger.RewardAddress && t.Target == forger {
			reward += t.Amount
		}
	}
	expected := txn.TransactionFee * int64(transactionsPerBlock)
	if reward != expected || totalFee != expected {
		return kingcoinerrors.NewTransactionValidationError(summary, "forging reward does not match collected fees")
	}
	return nil
}

func checkOrdinaryTransactions(
	candidate *ledger.BlockCandidate[txn.Transaction],
	wallets map[ledger.Address]ledger.Wallet,
	transactions *ledger.Chain[txn.Transaction],
	stakes *ledger.Chain[txn.Transaction],
	summary string,
) error {
	for _, t := range candidate.Data {
		if t.Source == ledger.StakeAddress || t.Source == ledger.RewardAddress || t.Target == ledger.RewardAddress {
			continue
		}
		if t.Source == t.Target {
			return kingcoinerrors.NewTransactionValidationError(summary, "ordinary transaction source equals target")
		}
		if len(t.Signature) == 0 {
			return kingcoinerrors.NewTransactionValidationError(summary, "ordinary transaction missing signature")
		}
		sourceWallet, ok := wallets[t.Source]
		if !ok {
			return kingcoinerrors.NewTransactionValidationError(summary, "unknown source wallet")
		}
		if _, ok := wallets[t.Target]; !ok {
			return kingcoinerrors.NewTransactionValidationError(summary, "unknown target wallet")
		}
		if !txn.SignatureValid(sourceWallet, t) {
			return kingcoinerrors.NewTransactionValidationError(summary, "signature does not verify")
		}
		if txn.Balance(t.Source, transactions, stakes) < t.Amount {
			return kingcoinerrors.NewTransactionValidationError(summary, "insufficient balance")
		}
	}
	return nil
}
