package transport

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// envelope wraps a published payload with a message id so dedupe.go can
// recognize re-delivery of the same gossip message across peers.
type envelope struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
}

// SimulatedHub is an in-process gossip fabric connecting every peer that
// joins it, for single-process tests and demos.
type SimulatedHub struct {
	mu    sync.Mutex
	peers map[PeerID]*SimulatedTransport
}

// NewSimulatedHub builds an empty hub.
func NewSimulatedHub() *SimulatedHub {
	return &SimulatedHub{peers: make(map[PeerID]*SimulatedTransport)}
}

// Join creates a new peer on the hub, announcing it to every existing peer
// and announcing every existing peer to it.
func (h *SimulatedHub) Join() *SimulatedTransport {
	peer := &SimulatedTransport{
		hub:    h,
		id:     PeerID(uuid.NewString()),
		events: make(chan Event, 256),
		dedupe: NewDedupe(4096),
	}

	h.mu.Lock()
	existing := make([]PeerID, 0, len(h.peers))
	for id := range h.peers {
		existing = append(existing, id)
	}
	h.peers[peer.id] = peer
	h.mu.Unlock()

	for _, id := range existing {
		h.peers[id].deliverLocal(Event{Kind: PeerDiscovered, PeerID: peer.id})
		peer.deliverLocal(Event{Kind: PeerDiscovered, PeerID: id})
	}
	peer.deliverLocal(Event{Kind: Subscribed})
	return peer
}

// Leave removes a peer from the hub and notifies the remaining peers.
func (h *SimulatedHub) Leave(id PeerID) {
	h.mu.Lock()
	delete(h.peers, id)
	var remaining []*SimulatedTransport
	for _, peer := range h.peers {
		remaining = append(remaining, peer)
	}
	h.mu.Unlock()

	for _, peer := range remaining {
		peer.deliverLocal(Event{Kind: PeerExpired, PeerID: id})
	}
}

// SimulatedTransport is one peer's view of a SimulatedHub.
type SimulatedTransport struct {
	hub    *SimulatedHub
	id     PeerID
	events chan Event
	dedupe *Dedupe

	mu     sync.Mutex
	closed bool
}

func (p *SimulatedTransport) LocalID() PeerID {
	return p.id
}

// Publish broadcasts bytes to every other peer currently on the hub.
func (p *SimulatedTransport) Publish(topic string, bytes []byte) error {
	env := envelope{ID: uuid.NewString(), Payload: bytes}
	encoded, err := json.Marshal(env)
	if err != nil {
		return err
	}

	p.hub.mu.Lock()
	peers := make([]*SimulatedTransport, 0, len(p.hub.peers))
	for id, peer := range p.hub.peers {
		if id == p.id {
			continue
		}
		peers = append(peers, peer)
	}
	p.hub.mu.Unlock()

	for _, peer := range peers {
		peer.receive(p.id, encoded)
	}
	return nil
}

func (p *SimulatedTransport) receive(sender PeerID, encoded []byte) {
	var env envelope
	if err := json.Unmarshal(encoded, &env); err != nil {
		log.Printf("SIMNET: dropping malformed envelope from %s: %v", sender, err)
		return
	}
	if p.dedupe.SeenBefore(env.ID) {
		return
	}
	p.deliverLocal(Event{Kind: MessageDelivered, SenderID: sender, Bytes: env.Payload})
}

func (p *SimulatedTransport) deliverLocal(event Event) {
	select {
	case p.events <- event:
	default:
		log.Printf("SIMNET: peer %s event queue full, dropping event kind %d", p.id, event.Kind)
	}
}

func (p *SimulatedTransport) Events() <-chan Event {
	return p.events
}

// Ban is a no-op on the simulated transport: there is no underlying
// connection to tear down, only the node-state-level bookkeeping (handled
// by the consensus package) that disregards the peer from then on.
func (p *SimulatedTransport) Ban(peer PeerID) {
	log.Printf("SIMNET: peer %s banned by local node (no-op at transport level)", peer)
}

func (p *SimulatedTransport) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.hub.Leave(p.id)
	close(p.events)
	return nil
}
