package serard

// Observer receives counters from the TX and RX pipelines. It is optional
// — a nil Observer on a Serard instance simply means nothing is counted —
// so the core has no hard dependency on any particular metrics backend.
// pkg/metrics implements this interface on top of prometheus/client_golang.
type Observer interface {
	FrameTransmitted()
	FrameAccepted()
	HeaderCRCError()
	PayloadCRCError()
	SessionCountChanged(active int)
}

// MultiObserver fans every callback out to each of its members in order,
// so a node can feed both a Prometheus registry and a lightweight local
// stats snapshot from the same TX/RX pipeline.
type MultiObserver []Observer

func (m MultiObserver) FrameTransmitted() {
	for _, o := range m {
		o.FrameTransmitted()
	}
}

func (m MultiObserver) FrameAccepted() {
	for _, o := range m {
		o.FrameAccepted()
	}
}

func (m MultiObserver) HeaderCRCError() {
	for _, o := range m {
		o.HeaderCRCError()
	}
}

func (m MultiObserver) PayloadCRCError() {
	for _, o := range m {
		o.PayloadCRCError()
	}
}

func (m MultiObserver) SessionCountChanged(active int) {
	for _, o := range m {
		o.SessionCountChanged(active)
	}
}

var _ Observer = MultiObserver(nil)

// Serard is one node's transport core: its identity, memory resources,
// and subscription registry. It is not safe for concurrent use — callers
// must serialize TxPush and Reassembler.Feed calls themselves, exactly as
// the reference implementation requires of its single-threaded API.
type Serard struct {
	nodeID NodeID

	memoryPayload   MemoryResource
	memoryRxSession MemoryResource

	registry registry
	observer Observer
}

// New returns a Serard instance with the given node ID (NodeIDUnset for an
// anonymous node) and memory resources for transient payload buffers and
// long-lived RX session state respectively.
func New(nodeID NodeID, memoryPayload, memoryRxSession MemoryResource) *Serard {
	return &Serard{
		nodeID:          nodeID,
		memoryPayload:   memoryPayload,
		memoryRxSession: memoryRxSession,
	}
}

// NodeID returns this instance's node ID.
func (s *Serard) NodeID() NodeID { return s.nodeID }

// SetObserver installs (or, with nil, removes) the metrics observer.
func (s *Serard) SetObserver(o Observer) { s.observer = o }

// Subscribe registers interest in transfers of the given kind and port.
// extent bounds how much payload is kept per transfer; bytes beyond it are
// silently truncated. transferIDTimeoutUsec controls how long a source may
// go silent before a repeated transfer ID is treated as a new transfer
// rather than a stale re-delivery.
//
// A subscription already present for (kind, port) is replaced, along with
// every session it had accumulated — Subscribe never fails on a duplicate
// key. It reports whether the key was new (true) or replaced (false); the
// only failure mode is an out-of-range port ID.
func (s *Serard) Subscribe(kind TransferKind, port PortID, extent int, transferIDTimeoutUsec uint64) (isNew bool, err error) {
	if !validPortID(kind, port) {
		return false, ErrInvalidArgument
	}
	sub := &Subscription{
		TransferKind:          kind,
		PortID:                port,
		Extent:                extent,
		TransferIDTimeoutUsec: transferIDTimeoutUsec,
	}
	isNew = s.registry.subscribe(sub)
	s.observeSessionCount()
	return isNew, nil
}

// Unsubscribe removes a previously registered subscription, dropping every
// per-source session that belonged to it. It reports whether a
// subscription was actually present; removing an absent one is not an
// error, it simply reports false.
func (s *Serard) Unsubscribe(kind TransferKind, port PortID) (removed bool) {
	removed = s.registry.unsubscribe(kind, port)
	if removed {
		s.observeSessionCount()
	}
	return removed
}

// Subscriptions returns a snapshot of every active subscription.
func (s *Serard) Subscriptions() []*Subscription {
	return s.registry.Subscriptions()
}

func (s *Serard) observeAccepted() {
	if s.observer != nil {
		s.observer.FrameAccepted()
	}
}

func (s *Serard) observeHeaderCRCError() {
	if s.observer != nil {
		s.observer.HeaderCRCError()
	}
}

func (s *Serard) observePayloadCRCError() {
	if s.observer != nil {
		s.observer.PayloadCRCError()
	}
}

func (s *Serard) observeSessionCount() {
	if s.observer != nil {
		s.observer.SessionCountChanged(s.registry.totalSessions())
	}
}
