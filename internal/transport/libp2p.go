package transport

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

const mdnsServiceTag = "kingcoin-mdns"

// Libp2pTransport is the real multi-process Transport: gossipsub over the
// single KINGCOIN topic with mdns LAN discovery.
type Libp2pTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	host  host.Host
	ps    *pubsub.PubSub
	topic *pubsub.Topic
	sub   *pubsub.Subscription
	mdns  mdns.Service

	events chan Event
	dedupe *Dedupe
}

// NewLibp2pTransport brings up a libp2p host listening on listenAddr, joins
// the gossip topic, starts mdns peer discovery, and dials bootstrapAddr
// directly when non-empty, for reaching across subnets mdns cannot.
func NewLibp2pTransport(ctx context.Context, listenAddr, bootstrapAddr string) (*Libp2pTransport, error) {
	ctx, cancel := context.WithCancel(ctx)

	opts := []libp2p.Option{}
	if listenAddr != "" {
		opts = append(opts, libp2p.ListenAddrStrings(listenAddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		cancel()
		return nil, err
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, err
	}

	topic, err := ps.Join(Topic)
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, err
	}

	sub, err := topic.Subscribe()
	if err != nil {
		cancel()
		_ = h.Close()
		return nil, err
	}

	t := &Libp2pTransport{
		ctx:    ctx,
		cancel: cancel,
		host:   h,
		ps:     ps,
		topic:  topic,
		sub:    sub,
		events: make(chan Event, 256),
		dedupe: NewDedupe(4096),
	}

	t.mdns = mdns.NewMdnsService(h, mdnsServiceTag, t)
	if err := t.mdns.Start(); err != nil {
		cancel()
		_ = h.Close()
		return nil, err
	}

	h.Network().Notify(t)
	go t.readLoop()

	if bootstrapAddr != "" {
		if err := t.dialBootstrap(bootstrapAddr); err != nil {
			log.Printf("LIBP2P: failed to dial bootstrap peer %s: %v", bootstrapAddr, err)
		}
	}

	t.deliver(Event{Kind: Subscribed})
	return t, nil
}

func (t *Libp2pTransport) dialBootstrap(addr string) error {
	maddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return err
	}
	t.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstore.PermanentAddrTTL)
	return t.host.Connect(t.ctx, *info)
}

// HandlePeerFound implements mdns.Notifee: a newly discovered LAN peer is
// connected and surfaced as PeerDiscovered.
func (t *Libp2pTransport) HandlePeerFound(pi peer.AddrInfo) {
	if err := t.host.Connect(t.ctx, pi); err != nil {
		log.Printf("LIBP2P: failed to connect discovered peer %s: %v", pi.ID, err)
		return
	}
	t.deliver(Event{Kind: PeerDiscovered, PeerID: PeerID(pi.ID.String())})
}

// Disconnected implements network.Notifiee: a peer dropping its connection
// is surfaced as PeerExpired.
func (t *Libp2pTransport) Disconnected(_ network.Network, conn network.Conn) {
	t.deliver(Event{Kind: PeerExpired, PeerID: PeerID(conn.RemotePeer().String())})
}

// Connected, Listen, ListenClose implement the remainder of
// network.Notifiee; only Disconnected carries information this transport
// surfaces.
func (t *Libp2pTransport) Connected(network.Network, network.Conn)   {}
func (t *Libp2pTransport) Listen(network.Network, ma.Multiaddr)      {}
func (t *Libp2pTransport) ListenClose(network.Network, ma.Multiaddr) {}

func (t *Libp2pTransport) readLoop() {
	defer close(t.events)
	for {
		msg, err := t.sub.Next(t.ctx)
		if err != nil {
			log.Printf("LIBP2P: subscription closed: %v", err)
			return
		}
		if msg.ReceivedFrom == t.host.ID() {
			continue
		}
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Printf("LIBP2P: dropping malformed envelope from %s: %v", msg.ReceivedFrom, err)
			continue
		}
		if t.dedupe.SeenBefore(env.ID) {
			continue
		}
		t.deliver(Event{Kind: MessageDelivered, SenderID: PeerID(msg.ReceivedFrom.String()), Bytes: env.Payload})
	}
}

func (t *Libp2pTransport) deliver(event Event) {
	select {
	case t.events <- event:
	default:
		log.Printf("LIBP2P: event queue full, dropping event kind %d", event.Kind)
	}
}

func (t *Libp2pTransport) LocalID() PeerID {
	return PeerID(t.host.ID().String())
}

func (t *Libp2pTransport) Publish(topic string, bytes []byte) error {
	env := envelope{ID: uuid.NewString(), Payload: bytes}
	encoded, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return t.topic.Publish(t.ctx, encoded)
}

func (t *Libp2pTransport) Events() <-chan Event {
	return t.events
}

// Ban disconnects and blocks a misbehaving peer.
func (t *Libp2pTransport) Ban(id PeerID) {
	pid, err := peer.Decode(string(id))
	if err != nil {
		log.Printf("LIBP2P: cannot ban %s: %v", id, err)
		return
	}
	_ = t.host.Network().ClosePeer(pid)
	t.host.Peerstore().RemovePeer(pid)
}

func (t *Libp2pTransport) Close() error {
	t.cancel()
	t.sub.Cancel()
	t.topic.Close()
	_ = t.mdns.Close()
	return t.host.Close()
}
