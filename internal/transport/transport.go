// Package transport abstracts the peer-discovery and publish/subscribe
// fabric the consensus engine runs over. The core only ever sees Transport;
// simulated.go and libp2p.go provide two concrete realizations.
package transport

// Topic is the single pub/sub topic the node publishes and subscribes to.
const Topic = "KINGCOIN"

// PeerID opaquely identifies a peer. It is comparable so it can key maps
// and participate in the deterministic lexicographic tie-break the
// consensus engine's election requires.
type PeerID string

// EventKind tags the variant of an Event.
type EventKind int

const (
	MessageDelivered EventKind = iota
	PeerDiscovered
	PeerExpired
	Subscribed
)

// Event is a transport-level occurrence delivered to the consensus engine's
// event loop. Only the fields annotated with its Kind below are meaningful;
// Subscribed carries none.
type Event struct {
	Kind     EventKind
	SenderID PeerID // MessageDelivered
	Bytes    []byte // MessageDelivered
	PeerID   PeerID // PeerDiscovered, PeerExpired
}

// Transport is the external collaborator the consensus engine requires: a
// way to publish bytes to the single topic and a stream of inbound events.
// Implementations must deliver messages within a single channel in
// publication order; no ordering is assumed across peers.
type Transport interface {
	// Publish sends bytes to topic. Failure is logged by the caller, never
	// fatal to the event loop.
	Publish(topic string, bytes []byte) error

	// Events returns the channel of inbound events. It is closed when the
	// transport shuts down, which the event loop treats as an unrecoverable
	// shutdown signal.
	Events() <-chan Event

	// LocalID is this node's own peer id on the transport.
	LocalID() PeerID

	// Ban excludes a peer from further participation, used when a peer is
	// kicked for misbehavior (e.g. an over-balance stake bid).
	Ban(peer PeerID)

	// Close releases the transport's resources.
	Close() error
}
