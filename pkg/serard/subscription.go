package serard

import (
	"github.com/coderkalyan/goserard/internal/avl"
)

// rxSession tracks, per (subscription, source node), just enough state to
// suppress a stale re-delivery of the same transfer ID: this transport's
// frames are always complete single-frame transfers by the time they reach
// here, so unlike a multi-frame reassembler there is no partial payload to
// accumulate — what's left to track is "have I already delivered this
// transfer ID recently, or has the source gone quiet long enough that a
// repeated ID should be treated as a new transfer".
type rxSession struct {
	sourceNodeID    NodeID
	lastTransferID  TransferID
	lastTimestamp   uint64
	seen            bool
}

func sessionCompare(source NodeID) func(*rxSession) int {
	return func(s *rxSession) int { return int(source) - int(s.sourceNodeID) }
}

// accept reports whether a transfer with the given ID, observed at
// timestampUsec, should be delivered, and updates the session accordingly.
// A session accepts a transfer when it has never seen this source before,
// when the transfer ID differs from the last one delivered, or when more
// than timeoutUsec has elapsed since the last delivery (the source is
// considered to have restarted its transfer-ID sequence).
func (s *rxSession) accept(id TransferID, timestampUsec uint64, timeoutUsec uint64) bool {
	if !s.seen {
		s.seen = true
		s.lastTransferID = id
		s.lastTimestamp = timestampUsec
		return true
	}
	stale := timestampUsec >= s.lastTimestamp && (timestampUsec-s.lastTimestamp) > timeoutUsec
	if id == s.lastTransferID && !stale {
		return false
	}
	s.lastTransferID = id
	s.lastTimestamp = timestampUsec
	return true
}

// Subscription is one entry in the registry, keyed by (TransferKind,
// PortID). Extent bounds how much payload is kept per delivered transfer;
// bytes beyond it are dropped, matching the "extent" truncation semantics
// of the reference implementation's RX session model.
type Subscription struct {
	TransferKind          TransferKind
	PortID                PortID
	Extent                int
	TransferIDTimeoutUsec uint64

	sessions avl.Tree[*rxSession]
}

func subscriptionCompare(kind TransferKind, port PortID) func(*Subscription) int {
	return func(s *Subscription) int {
		if int(kind) != int(s.TransferKind) {
			return int(kind) - int(s.TransferKind)
		}
		return int(port) - int(s.PortID)
	}
}

// sessionFor returns the session for source, creating one on first use.
func (sub *Subscription) sessionFor(source NodeID) *rxSession {
	if existing, ok := sub.sessions.Search(sessionCompare(source)); ok {
		return existing
	}
	fresh := &rxSession{sourceNodeID: source}
	sub.sessions.Insert(fresh, sessionCompare(source))
	return fresh
}

// registry is the subscription table: an ordered tree keyed by
// (TransferKind, PortID), one per transfer kind slot as in the reference
// implementation's rx_subscriptions[TransferKindCount] array of trees.
type registry struct {
	byKind [TransferKindCount]avl.Tree[*Subscription]
}

// subscribe installs sub, replacing any existing entry for the same
// (kind, port) key. The replaced entry's session tree is simply dropped —
// go's garbage collector reclaims it — rather than drained in place. It
// reports whether this is a new key (true) or a replacement (false); either
// way the call always succeeds, it never errors on a duplicate key.
func (r *registry) subscribe(sub *Subscription) bool {
	tree := &r.byKind[sub.TransferKind]
	cmp := subscriptionCompare(sub.TransferKind, sub.PortID)
	_, existed := tree.Search(cmp)
	tree.Insert(sub, cmp)
	return !existed
}

// unsubscribe removes the subscription for (kind, port), reporting whether
// one was actually present. Its session tree is simply discarded with it —
// go's garbage collector reclaims every session transitively, with no
// separate drain loop required. (The reference implementation's
// rx_unsubscribe walks the wrong tree when freeing a subscription's
// sessions; dropping the whole subscription value here sidesteps that bug
// entirely rather than reproducing it.) Removing an already-absent
// subscription is not an error: it simply reports false.
func (r *registry) unsubscribe(kind TransferKind, port PortID) bool {
	tree := &r.byKind[kind]
	return tree.Remove(subscriptionCompare(kind, port))
}

func (r *registry) find(kind TransferKind, port PortID) (*Subscription, bool) {
	return r.byKind[kind].Search(subscriptionCompare(kind, port))
}

// Subscriptions returns a snapshot of every active subscription, for
// introspection (e.g. the HTTP gateway's /subscriptions endpoint).
func (r *registry) Subscriptions() []*Subscription {
	var out []*Subscription
	for k := range r.byKind {
		r.byKind[k].Walk(func(s *Subscription) { out = append(out, s) })
	}
	return out
}

// totalSessions sums the per-source session count across every
// subscription, for the SessionCountChanged observer callback.
func (r *registry) totalSessions() int {
	total := 0
	for k := range r.byKind {
		r.byKind[k].Walk(func(s *Subscription) { total += s.sessions.Len() })
	}
	return total
}
