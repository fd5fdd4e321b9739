package node

import "github.com/michloj571/kingcoin/internal/transport"

// Vote is one peer's verdict on the pending block candidate.
type Vote struct {
	Voter transport.PeerID
	Valid bool
}
