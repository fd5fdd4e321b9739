// Package kingcoinerrors defines the typed error kinds produced by the
// ledger, validator, and consensus packages.
package kingcoinerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is. No package in this module currently
// returns any of them.
var (
	ErrNoPreviousBlock   = errors.New("block candidate requires a previous block")
	ErrChainEmpty        = errors.New("chain has no committed blocks")
	ErrUnknownWallet     = errors.New("wallet not present in known set")
	ErrInsufficientStake = errors.New("bidder balance is below the bid amount")
	ErrAlreadyGranted    = errors.New("wallet already received a bootstrap allowance")
	ErrVotingInProgress  = errors.New("a block vote is already outstanding")
	ErrMalformedMessage  = errors.New("wire message could not be decoded")
)

// TransactionValidationError reports why a BlockCandidate failed one of the
// rules in the validator's rule set. It carries enough context (a summary of
// the offending block and the concrete reason) to be logged without the
// caller re-deriving what went wrong.
type TransactionValidationError struct {
	BlockSummary string
	Reason       string
}

func NewTransactionValidationError(blockSummary, reason string) *TransactionValidationError {
	return &TransactionValidationError{BlockSummary: blockSummary, Reason: reason}
}

func (e *TransactionValidationError) Error() string {
	return fmt.Sprintf("transaction validation failed: %s (block: %s)", e.Reason, e.BlockSummary)
}

// BlockValidationError reports a structural problem with a block, such as a
// hash that does not recompute to the expected value.
type BlockValidationError struct {
	Context string
	Reason  string
}

func NewBlockValidationError(context, reason string) *BlockValidationError {
	return &BlockValidationError{Context: context, Reason: reason}
}

func (e *BlockValidationError) Error() string {
	return fmt.Sprintf("block validation failed: %s (%s)", e.Reason, e.Context)
}

// BlockCreationError reports that a BlockCandidate was requested without a
// previous block to link from, outside of genesis construction.
type BlockCreationError struct {
	Reason string
}

func NewBlockCreationError(reason string) *BlockCreationError {
	return &BlockCreationError{Reason: reason}
}

func (e *BlockCreationError) Error() string {
	return fmt.Sprintf("block creation failed: %s", e.Reason)
}

// TransactionCountError reports that forging was attempted before the
// uncommitted pool held enough entries for a block.
type TransactionCountError struct {
	Required uint64
	Actual   uint64
}

func NewTransactionCountError(required, actual uint64) *TransactionCountError {
	return &TransactionCountError{Required: required, Actual: actual}
}

func (e *TransactionCountError) Error() string {
	return fmt.Sprintf("not enough uncommitted transactions to forge: required %d, have %d", e.Required, e.Actual)
}

// BalanceError reports an illegal balance computation. Reserved: no code
// path currently constructs one.
type BalanceError struct {
	Reason string
}

func NewBalanceError(reason string) *BalanceError {
	return &BalanceError{Reason: reason}
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("balance error: %s", e.Reason)
}
