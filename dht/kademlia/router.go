// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kademlia

import (
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/flo/broker"
	"github.com/luxfi/flo/ident"
	nolog "github.com/luxfi/flo/log"
)

// Sender delivers a Message to a specific peer. The concrete
// implementation is the caller's netconn.NodeConnection set, kept out of
// this package so kademlia has no transport dependency.
type Sender interface {
	SendTo(peer ident.ID256, msg Message) error
}

// Router is the DHT's peer discovery, maintenance and message-routing
// actor: it owns a Table and a Liveness checker, answers Ping/FindNode
// requests from its own table, implements the three spec.md §4.3 routing
// primitives (route to key, route to node, broadcast to neighbours), and
// republishes Events through a Broker so storage, metrics and tests can
// observe routing activity without polling.
type Router struct {
	table    *Table
	liveness *Liveness
	sender   Sender
	log      log.Logger

	Events *broker.Broker[Event, Event]
}

// NewRouter wires a Router around table, using liveness for admission
// decisions and sender to exchange protocol Messages with peers. A nil
// logger defaults to a no-op logger.
func NewRouter(table *Table, liveness *Liveness, sender Sender, logger log.Logger) *Router {
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	return &Router{
		table:    table,
		liveness: liveness,
		sender:   sender,
		log:      logger,
		Events:   broker.New[Event, Event]("kademlia-router", logger),
	}
}

// HandleMessage processes an inbound protocol Message, admitting the
// sender into the routing table and reacting according to its Kind.
func (r *Router) HandleMessage(msg Message, now time.Time) error {
	r.observe(msg.From, now)

	switch msg.Kind {
	case MsgPing:
		return r.sender.SendTo(msg.From, Message{Kind: MsgPong, From: r.table.Self()})
	case MsgPong:
		r.liveness.ClearFailures(msg.From)
		return nil
	case MsgFindNode:
		peers := r.table.Closest(msg.Target, DefaultBucketSize)
		return r.sender.SendTo(msg.From, Message{Kind: MsgFoundNodes, From: r.table.Self(), Peers: peers})
	case MsgConnectedIDsRequest:
		active := r.table.Closest(r.table.Self(), r.table.Len())
		return r.sender.SendTo(msg.From, Message{Kind: MsgConnectedIDsReply, From: r.table.Self(), Peers: active})
	case MsgConnectedIDsReply:
		// Opportunistic discovery: every peer the reply reports is
		// observed like a direct contact (the replier itself was observed
		// above).
		for _, p := range msg.Peers {
			r.observe(p, now)
		}
		return nil
	case MsgNeighbour:
		return r.emit(Event{Kind: EventMessageBroadcast, Origin: msg.Origin, Payload: msg.Payload})
	case MsgClosest:
		return r.RouteClosest(msg.Origin, msg.LastHop, msg.Target, msg.Payload)
	case MsgDirect:
		return r.RouteDirect(msg.Origin, msg.LastHop, msg.Target, msg.Payload)
	default:
		return nil
	}
}

func (r *Router) observe(peer ident.ID256, now time.Time) {
	if peer == r.table.Self() {
		return
	}
	admitted := r.liveness.Admit(peer, now)
	kind := EventPeerDropped
	if admitted {
		kind = EventPeerAdmitted
	}
	if err := r.Events.Enqueue(Event{Kind: kind, Peer: peer}); err != nil && r.log != nil {
		r.log.Debug("routing event broker error", log.Err(err))
	}
	if admitted {
		_ = r.emit(Event{Kind: EventNodeList, Active: r.table.Closest(r.table.Self(), r.table.Len())})
	}
}

func (r *Router) emit(ev Event) error {
	if err := r.Events.Enqueue(ev); err != nil {
		if r.log != nil {
			r.log.Debug("routing event broker error", log.Err(err))
		}
		return err
	}
	return nil
}

// RouteClosest implements spec.md §4.3 "route to key": if this node's own
// id equals key, the message has reached its exact destination and
// EventMessageDest fires. Otherwise the candidates are every active peer
// strictly closer to key than this node, excluding lastHop so the message
// never bounces back the way it came; if any exist the single closest is
// forwarded a Closest message and EventMessageRouting fires, else this
// node is the terminal closest node and EventMessageClosest fires.
func (r *Router) RouteClosest(origin, lastHop, key ident.ID256, payload []byte) error {
	self := r.table.Self()
	if key == self {
		return r.emit(Event{Kind: EventMessageDest, Origin: origin, LastHop: lastHop, Payload: payload})
	}

	next, ok := r.closerThanSelf(key, lastHop)
	if !ok {
		return r.emit(Event{Kind: EventMessageClosest, Origin: origin, LastHop: lastHop, Key: key, Payload: payload})
	}

	if err := r.emit(Event{Kind: EventMessageRouting, Origin: origin, LastHop: lastHop, NextHop: next, Key: key, Payload: payload}); err != nil {
		return err
	}
	return r.sender.SendTo(next, Message{
		Kind:    MsgClosest,
		From:    self,
		Target:  key,
		Origin:  origin,
		LastHop: self,
		Payload: payload,
	})
}

// RouteDirect implements spec.md §4.3 "route to node": if destination is
// already directly known (present in the table), the message is sent to
// it straight away. Otherwise it is forwarded toward the single closest
// known candidate exactly like RouteClosest's next-hop choice, except the
// terminal event is always EventMessageDest (never EventMessageClosest)
// since a Direct message's purpose is delivery to a specific node, not
// discovery of whoever happens to be nearest. If destination == self this
// node is the destination. If no route exists the message is dropped
// silently per spec.md's "silent no-op" failure semantics.
func (r *Router) RouteDirect(origin, lastHop, destination ident.ID256, payload []byte) error {
	self := r.table.Self()
	if destination == self {
		return r.emit(Event{Kind: EventMessageDest, Origin: origin, LastHop: lastHop, Payload: payload})
	}
	if r.table.Contains(destination) {
		return r.sender.SendTo(destination, Message{
			Kind:    MsgDirect,
			From:    self,
			Target:  destination,
			Origin:  origin,
			LastHop: self,
			Payload: payload,
		})
	}

	next, ok := r.closerThanSelf(destination, lastHop)
	if !ok {
		if r.log != nil {
			r.log.Debug("route to node: no candidate, dropping", log.String("destination", destination.String()))
		}
		return nil
	}
	return r.sender.SendTo(next, Message{
		Kind:    MsgDirect,
		From:    self,
		Target:  destination,
		Origin:  origin,
		LastHop: self,
		Payload: payload,
	})
}

// closerThanSelf returns the single active peer closest to key among those
// strictly closer to key than this node and not equal to exclude, and
// whether any such peer exists. table.Closest already orders candidates by
// ascending distance to key, so the first survivor is the best next hop.
func (r *Router) closerThanSelf(key, exclude ident.ID256) (ident.ID256, bool) {
	self := r.table.Self()
	selfDist := ident.XORDistance(self, key)

	for _, p := range r.table.Closest(key, r.table.Len()) {
		if p == exclude {
			continue
		}
		if ident.XORDistance(p, key).Compare(selfDist) < 0 {
			return p, true
		}
	}
	return ident.ID256{}, false
}

// SendNeighbour broadcasts payload, tagged with origin, to every active
// peer across every bucket: spec.md §4.3's "broadcast to neighbours".
func (r *Router) SendNeighbour(origin ident.ID256, payload []byte) []error {
	var errs []error
	for _, peer := range r.table.Closest(r.table.Self(), r.table.Len()) {
		msg := Message{Kind: MsgNeighbour, From: r.table.Self(), Origin: origin, Payload: payload}
		if err := r.sender.SendTo(peer, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// RouteToKey performs one round of iterative FindNode lookup for target:
// it asks the local table for its closest known peers, sends each a
// FindNode, and returns those peers so the caller can merge FoundNodes
// replies in a further round. This is this implementation's own discovery
// extension, distinct from RouteClosest's single-hop message delivery; it
// does not loop to convergence itself.
func (r *Router) RouteToKey(target ident.ID256, alpha int) ([]ident.ID256, error) {
	candidates := r.table.Closest(target, alpha)
	for _, peer := range candidates {
		if err := r.sender.SendTo(peer, Message{Kind: MsgFindNode, From: r.table.Self(), Target: target}); err != nil {
			if r.log != nil {
				r.log.Debug("find-node send failed", log.String("peer", peer.String()), log.Err(err))
			}
		}
	}
	return candidates, nil
}

// RouteToNode sends msg directly to a node already believed reachable,
// without consulting the routing table for alternates.
func (r *Router) RouteToNode(peer ident.ID256, msg Message) error {
	return r.sender.SendTo(peer, msg)
}

// BroadcastToBucket sends msg to every peer sharing a bucket with
// candidate, the primitive realm gossip and digest sync use to reach a
// proximity neighborhood in one hop.
func (r *Router) BroadcastToBucket(candidate ident.ID256, msg Message) []error {
	idx := ident.BucketIndex(r.table.Self(), candidate)
	var errs []error
	for _, peer := range r.table.BucketPeers(idx) {
		if err := r.sender.SendTo(peer, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Table exposes the underlying routing table for callers that need direct
// read access (e.g. storage's proximity-biased sync sampling).
func (r *Router) Table() *Table {
	return r.table
}

// ActiveNodes returns every peer id currently active across the table,
// the value carried by EventNodeList.
func (r *Router) ActiveNodes() []ident.ID256 {
	return r.table.Closest(r.table.Self(), r.table.Len())
}
