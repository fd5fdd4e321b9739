package wire

import "encoding/json"

// MessageType tags the variant carried by a Message envelope.
type MessageType string

const (
	TypeJoin              MessageType = "join"
	TypeJoinDenied        MessageType = "join_denied"
	TypeSync              MessageType = "sync"
	TypeSubmitTransaction MessageType = "submit_transaction"
	TypeSubmitBlock       MessageType = "submit_block"
	TypeVote              MessageType = "vote"
	TypeBid               MessageType = "bid"
	TypeGrantAllowance    MessageType = "grant_allowance"
	TypeGranted           MessageType = "granted"
)

// SyncPayload carries a full snapshot of both chains and the known wallet
// set, sent in response to a Join.
type SyncPayload struct {
	Transactions BlockchainDTO `json:"transactions"`
	Wallets      []WalletDTO   `json:"wallets"`
	Stakes       BlockchainDTO `json:"stakes"`
}

// SubmitTransactionPayload carries a transfer and its accompanying fee
// transaction together, since a transfer always produces both.
type SubmitTransactionPayload struct {
	Transaction    TransactionDTO `json:"transaction"`
	TransactionFee TransactionDTO `json:"transaction_fee"`
}

// SubmitBlockPayload carries a proposed block candidate.
type SubmitBlockPayload struct {
	Block BlockDTO `json:"block_dto"`
}

// VotePayload carries a single peer's verdict on the pending block.
type VotePayload struct {
	BlockValid bool `json:"block_valid"`
}

// GrantedPayload carries the amount minted by a GrantAllowance response.
type GrantedPayload struct {
	Amount int64 `json:"amount"`
}

// Message is the tagged union of every gossip message the node sends and
// receives. Exactly one field other than Type is populated, selected by
// Type; omitempty keeps the encoded form down to the fields the variant
// actually carries, matching the self-describing-with-stable-names
// requirement without inventing a discriminated-union encoding scheme.
type Message struct {
	Type MessageType `json:"type"`

	Join              *WalletDTO                `json:"join,omitempty"`
	Sync              *SyncPayload              `json:"sync,omitempty"`
	SubmitTransaction *SubmitTransactionPayload `json:"submit_transaction,omitempty"`
	SubmitBlock       *SubmitBlockPayload       `json:"submit_block,omitempty"`
	Vote              *VotePayload              `json:"vote,omitempty"`
	Bid               *StakeBidDTO              `json:"bid,omitempty"`
	GrantAllowance    *WalletDTO                `json:"grant_allowance,omitempty"`
	Granted           *GrantedPayload           `json:"granted,omitempty"`
}

func NewJoin(w WalletDTO) Message { return Message{Type: TypeJoin, Join: &w} }

func NewJoinDenied() Message { return Message{Type: TypeJoinDenied} }

func NewSync(p SyncPayload) Message { return Message{Type: TypeSync, Sync: &p} }

func NewSubmitTransaction(p SubmitTransactionPayload) Message {
	return Message{Type: TypeSubmitTransaction, SubmitTransaction: &p}
}

func NewSubmitBlock(p SubmitBlockPayload) Message {
	return Message{Type: TypeSubmitBlock, SubmitBlock: &p}
}

func NewVote(valid bool) Message {
	return Message{Type: TypeVote, Vote: &VotePayload{BlockValid: valid}}
}

func NewBid(b StakeBidDTO) Message { return Message{Type: TypeBid, Bid: &b} }

func NewGrantAllowance(w WalletDTO) Message {
	return Message{Type: TypeGrantAllowance, GrantAllowance: &w}
}

func NewGranted(amount int64) Message {
	return Message{Type: TypeGranted, Granted: &GrantedPayload{Amount: amount}}
}

// Encode serializes a Message to its wire form.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a Message from its wire form. An unrecognized or malformed
// message should be silently dropped by the caller, matching the error
// handling policy; Decode only reports the decode error for the caller to
// act on that policy.
func Decode(b []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(b, &m)
	return m, err
}
