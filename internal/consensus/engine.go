// Package consensus implements the node's dispatch loop: the state
// transitions driven by an operator's transfer request and by each inbound
// gossip message, built directly on top of ledger.Chain, node.State and
// wire.Message.
package consensus

import (
	"fmt"
	"log"

	kingcoinerrors "github.com/michloj571/kingcoin/internal/errors"
	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/node"
	"github.com/michloj571/kingcoin/internal/transport"
	"github.com/michloj571/kingcoin/internal/txn"
	"github.com/michloj571/kingcoin/internal/validator"
	"github.com/michloj571/kingcoin/internal/wire"
)

// bootstrapAllowance is the amount minted to a newly joined wallet that has
// not yet been granted one, per the bootstrap-allowance subprotocol.
const bootstrapAllowance int64 = 1000

// bidFraction is the share of a node's balance it stakes when it has a
// full block's worth of uncommitted transactions to bid for forging rights.
const bidFraction = 75

// Engine dispatches every operator command and transport event for one
// node. It is not safe for concurrent use: exactly one goroutine, the
// caller's event loop, must drive it.
type Engine struct {
	transport transport.Transport
	state     *node.State

	transactions *ledger.Chain[txn.Transaction]
	stakes       *ledger.Chain[txn.Transaction]

	transactionsPerBlock uint64
}

// NewEngine wires a dispatch engine around its already-constructed
// dependencies: the transport, the per-node state, and the two chains.
func NewEngine(
	t transport.Transport,
	state *node.State,
	transactions *ledger.Chain[txn.Transaction],
	stakes *ledger.Chain[txn.Transaction],
	transactionsPerBlock uint64,
) *Engine {
	return &Engine{
		transport:            t,
		state:                state,
		transactions:         transactions,
		stakes:               stakes,
		transactionsPerBlock: transactionsPerBlock,
	}
}

func (e *Engine) Transactions() *ledger.Chain[txn.Transaction] { return e.transactions }
func (e *Engine) Stakes() *ledger.Chain[txn.Transaction]       { return e.stakes }
func (e *Engine) State() *node.State                           { return e.state }

// Balance is the local wallet's current balance across both chains.
func (e *Engine) Balance() int64 {
	return txn.Balance(e.state.UserWallet().Address, e.transactions, e.stakes)
}

// LocalTransactions returns every committed transaction touching the local
// wallet, tip to genesis, for the operator's "list" command.
func (e *Engine) LocalTransactions() []txn.Transaction {
	local := e.state.UserWallet().Address
	var out []txn.Transaction
	for _, b := range e.transactions.Blocks() {
		for _, t := range b.Data {
			if t.Source == local || t.Target == local {
				out = append(out, t)
			}
		}
	}
	return out
}

// SubmitTransfer handles an operator "send" command: checks the balance
// covers amount plus the fixed transaction fee, signs both the transfer and
// the fee transaction, pools them, and broadcasts them.
func (e *Engine) SubmitTransfer(target ledger.Address, amount int64) error {
	wallet := e.state.UserWallet()
	balance := txn.Balance(wallet.Address, e.transactions, e.stakes)
	required := amount + txn.TransactionFee
	if balance < required {
		return fmt.Errorf("Balance to low. Your balance: %dKGC, required: %dKGC", balance, required)
	}

	transfer, err := txn.Sign(wallet, txn.New(wallet.Address, target, "transfer", amount))
	if err != nil {
		return err
	}
	fee, err := txn.Sign(wallet, txn.New(wallet.Address, ledger.RewardAddress, "fee", txn.TransactionFee))
	if err != nil {
		return err
	}

	e.transactions.AddUncommitted(transfer)
	e.transactions.AddUncommitted(fee)
	e.publish(wire.NewSubmitTransaction(wire.SubmitTransactionPayload{
		Transaction:    wire.TransactionToDTO(transfer),
		TransactionFee: wire.TransactionToDTO(fee),
	}))

	if e.transactions.HasEnoughUncommitted() {
		e.placeBid()
	}
	return nil
}

// HandleTransportEvent dispatches one event read from the transport's
// Events channel. The caller's select loop is expected to invoke this for
// every event it reads, on the same goroutine that drives the rest of the
// engine.
func (e *Engine) HandleTransportEvent(event transport.Event) {
	switch event.Kind {
	case transport.MessageDelivered:
		msg, err := wire.Decode(event.Bytes)
		if err != nil {
			log.Printf("CONSENSUS: dropping malformed message from %s: %v", event.SenderID, err)
			return
		}
		e.dispatch(event.SenderID, msg)
	case transport.PeerDiscovered:
		log.Printf("CONSENSUS: peer discovered: %s", event.PeerID)
	case transport.PeerExpired:
		log.Printf("CONSENSUS: peer expired: %s", event.PeerID)
	case transport.Subscribed:
		wallet := e.state.UserWallet()
		e.publish(wire.NewJoin(wire.WalletToDTO(wallet.Wallet)))
		if e.Balance() == 0 {
			e.publish(wire.NewGrantAllowance(wire.WalletToDTO(wallet.Wallet)))
		}
	}
}

func (e *Engine) dispatch(sender transport.PeerID, msg wire.Message) {
	switch msg.Type {
	case wire.TypeSubmitTransaction:
		if msg.SubmitTransaction != nil {
			e.handleSubmitTransaction(*msg.SubmitTransaction)
		}
	case wire.TypeBid:
		if msg.Bid != nil {
			e.handleBid(sender, *msg.Bid)
		}
	case wire.TypeSubmitBlock:
		if msg.SubmitBlock != nil {
			e.handleSubmitBlock(sender, *msg.SubmitBlock)
		}
	case wire.TypeVote:
		if msg.Vote != nil {
			e.handleVote(sender, msg.Vote.BlockValid)
		}
	case wire.TypeJoin:
		if msg.Join != nil {
			e.handleJoin(sender, *msg.Join)
		}
	case wire.TypeJoinDenied:
		log.Printf("CONSENSUS: join denied by %s", sender)
	case wire.TypeSync:
		if msg.Sync != nil {
			e.handleSync(*msg.Sync)
		}
	case wire.TypeGrantAllowance:
		if msg.GrantAllowance != nil {
			e.handleGrantAllowance(*msg.GrantAllowance)
		}
	case wire.TypeGranted:
		if msg.Granted != nil {
			log.Printf("CONSENSUS: %s granted a bootstrap allowance of %d", sender, msg.Granted.Amount)
		}
	default:
		log.Printf("CONSENSUS: unrecognized message type %q from %s", msg.Type, sender)
	}
}

func (e *Engine) handleSubmitTransaction(p wire.SubmitTransactionPayload) {
	transfer, err := wire.TransactionFromDTO(p.Transaction)
	if err != nil {
		log.Printf("CONSENSUS: malformed transfer: %v", err)
		return
	}
	fee, err := wire.TransactionFromDTO(p.TransactionFee)
	if err != nil {
		log.Printf("CONSENSUS: malformed fee transaction: %v", err)
		return
	}
	e.transactions.AddUncommitted(transfer)
	e.transactions.AddUncommitted(fee)
	if e.transactions.HasEnoughUncommitted() {
		e.placeBid()
	}
}

func (e *Engine) placeBid() {
	wallet := e.state.UserWallet()
	balance := txn.Balance(wallet.Address, e.transactions, e.stakes)
	stake := balance * bidFraction / 100
	bid := txn.NewStakeBid(stake, wallet.Address)
	e.state.UpdateBid(bid)
	e.publish(wire.NewBid(wire.StakeBidToDTO(bid)))
}

func (e *Engine) handleBid(sender transport.PeerID, dto wire.StakeBidDTO) {
	bid, err := wire.StakeBidFromDTO(dto)
	if err != nil {
		log.Printf("CONSENSUS: malformed bid from %s: %v", sender, err)
		return
	}
	balance := txn.Balance(bid.Bidder(), e.transactions, e.stakes)
	if balance < bid.Stake {
		log.Printf("CONSENSUS: %s bid %d above its balance %d, kicking", sender, bid.Stake, balance)
		e.state.Kick(sender)
		e.transport.Ban(sender)
		return
	}
	e.state.UpdatePeerBid(sender, bid)
	if e.state.AllBade() {
		e.runElection()
	}
}

func (e *Engine) runElection() {
	winner, bid, ok := e.state.SelectHighestBid()
	if !ok {
		return
	}
	candidate, err := ledger.NewBlockCandidate(e.stakes.Tip(), []txn.Transaction{bid.Transaction})
	if err != nil {
		log.Printf("CONSENSUS: could not build stakes candidate: %v", err)
		return
	}
	e.stakes.SubmitNewBlock(candidate)
	e.state.SetBlockCreator(winner)

	if winner == e.state.LocalID() {
		if err := e.forge(); err != nil {
			log.Printf("CONSENSUS: forge failed: %v", err)
		}
	}
	e.state.ResetPeerBids()
}

// forge builds and broadcasts a block candidate, then processes it exactly
// as an inbound SubmitBlock so the forger votes on its own proposal like
// every other peer does.
func (e *Engine) forge() error {
	pool := e.transactions.UncommittedPool()
	required := e.transactions.UnitsPerBlock()
	if uint64(len(pool)) < required {
		return kingcoinerrors.NewTransactionCountError(required, uint64(len(pool)))
	}

	wallet := e.state.UserWallet()
	nodeBid, ok := e.state.NodeBid()
	if !ok {
		log.Printf("CONSENSUS: elected to forge without a recorded bid")
		return nil
	}

	data := make([]txn.Transaction, required)
	copy(data, pool[:required])
	data = append(data,
		txn.StakeReturn(nodeBid.Stake, wallet.Address),
		txn.ForgingReward(wallet.Address, e.transactionsPerBlock),
	)

	candidate, err := ledger.NewBlockCandidate(e.transactions.Tip(), data)
	if err != nil {
		return err
	}

	dto := wire.CandidateToDTO(candidate)
	e.publish(wire.NewSubmitBlock(wire.SubmitBlockPayload{Block: dto}))
	e.handleSubmitBlock(e.state.LocalID(), wire.SubmitBlockPayload{Block: dto})
	return nil
}

func (e *Engine) handleSubmitBlock(sender transport.PeerID, p wire.SubmitBlockPayload) {
	if e.state.VotingInProgress() {
		log.Printf("CONSENSUS: dropping out-of-order block from %s, a vote is already in progress", sender)
		return
	}

	candidate, err := wire.CandidateFromDTO(e.transactions.Tip(), p.Block)
	if err != nil {
		log.Printf("CONSENSUS: malformed block candidate from %s: %v", sender, err)
		return
	}

	valid := true
	if err := validator.Validate(e.state.Wallets(), e.transactionsPerBlock, e.transactions, e.stakes, candidate); err != nil {
		log.Printf("CONSENSUS: block from %s rejected: %v", sender, err)
		valid = false
	}

	e.state.SetPendingBlock(candidate)
	e.publish(wire.NewVote(valid))
}

func (e *Engine) handleVote(sender transport.PeerID, valid bool) {
	e.state.AddVote(node.Vote{Voter: sender, Valid: valid})
	if !e.state.AllVoted() {
		return
	}

	validVotes, invalidVotes, shouldAppend := e.state.SummarizeVotes()
	candidate, ok := e.state.TakePendingBlock()
	if !ok {
		return
	}

	if shouldAppend {
		e.transactions.SubmitNewBlock(candidate)
		log.Printf("CONSENSUS: block %d appended (%d valid, %d invalid)", candidate.Number, validVotes, invalidVotes)
	} else {
		log.Printf("CONSENSUS: block %d discarded (%d valid, %d invalid)", candidate.Number, validVotes, invalidVotes)
		if forger, ok := e.state.BlockCreator(); ok {
			log.Printf("CONSENSUS: marking forger %s bad", forger)
			e.state.Kick(forger)
			e.transport.Ban(forger)
		}
	}
}

func (e *Engine) handleJoin(sender transport.PeerID, dto wire.WalletDTO) {
	wallet, err := wire.WalletFromDTO(dto)
	if err != nil {
		log.Printf("CONSENSUS: malformed join from %s: %v", sender, err)
		return
	}
	if e.state.VotingInProgress() {
		e.publish(wire.NewJoinDenied())
		return
	}

	e.state.AddPeerWallet(sender, wallet)

	wallets := make([]wire.WalletDTO, 0, len(e.state.Wallets()))
	for _, w := range e.state.Wallets() {
		wallets = append(wallets, wire.WalletToDTO(w))
	}
	e.publish(wire.NewSync(wire.SyncPayload{
		Transactions: wire.ChainToDTO(e.transactions),
		Wallets:      wallets,
		Stakes:       wire.ChainToDTO(e.stakes),
	}))
}

func (e *Engine) handleSync(p wire.SyncPayload) {
	if p.Transactions.ChainLength > e.transactions.Length() {
		chain, err := wire.ChainFromDTO(p.Transactions)
		if err != nil {
			log.Printf("CONSENSUS: malformed transaction chain sync: %v", err)
		} else {
			e.transactions.Replace(chain)
		}
	}
	if p.Stakes.ChainLength > e.stakes.Length() {
		chain, err := wire.ChainFromDTO(p.Stakes)
		if err != nil {
			log.Printf("CONSENSUS: malformed stakes chain sync: %v", err)
		} else {
			e.stakes.Replace(chain)
		}
	}
	for _, dto := range p.Wallets {
		wallet, err := wire.WalletFromDTO(dto)
		if err != nil {
			log.Printf("CONSENSUS: malformed wallet in sync: %v", err)
			continue
		}
		e.state.AddWallet(wallet)
	}
}

// handleGrantAllowance answers a bootstrap-allowance request: if this node
// has not already granted one to the requesting wallet, it mints up to
// bootstrapAllowance units directly into the remaining pool, pools the
// resulting transaction like any ordinary transfer, and announces the
// granted amount. The Granted message carries no wallet and receivers only
// log it, so it does not stop another peer from also minting an allowance
// for the same wallet.
func (e *Engine) handleGrantAllowance(dto wire.WalletDTO) {
	wallet, err := wire.WalletFromDTO(dto)
	if err != nil {
		log.Printf("CONSENSUS: malformed grant-allowance request: %v", err)
		return
	}
	if e.state.HasGrantedAllowance(wallet.Address) {
		return
	}
	if e.transactions.RemainingPool() < bootstrapAllowance {
		log.Printf("CONSENSUS: mint pool exhausted, cannot grant allowance to %s", wallet.Address.Hex())
		return
	}

	e.transactions.Mint(bootstrapAllowance)
	grant := txn.New(ledger.MintAddress, wallet.Address, "bootstrap-allowance", bootstrapAllowance)
	e.transactions.AddUncommitted(grant)
	e.state.MarkGrantedAllowance(wallet.Address)
	e.publish(wire.NewGranted(bootstrapAllowance))

	if e.transactions.HasEnoughUncommitted() {
		e.placeBid()
	}
}

func (e *Engine) publish(msg wire.Message) {
	encoded, err := wire.Encode(msg)
	if err != nil {
		log.Printf("CONSENSUS: failed to encode outgoing message: %v", err)
		return
	}
	if err := e.transport.Publish(transport.Topic, encoded); err != nil {
		log.Printf("CONSENSUS: failed to publish: %v", err)
	}
}
