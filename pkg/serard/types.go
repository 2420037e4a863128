// Package serard implements the Cyphal/Serial point-to-point transport:
// COBS-framed, CRC-protected, single-frame-only transfers between nodes
// identified by a 16-bit node ID, over any byte-oriented link.
package serard

import "errors"

// NodeID identifies a node on the link. NodeIDUnset marks an anonymous
// source or a broadcast destination.
type NodeID uint16

const (
	// NodeIDMax is the largest node ID a node may actively hold.
	NodeIDMax NodeID = 65534
	// NodeIDUnset marks "no node ID" — an anonymous transfer's source, or
	// a message transfer's destination.
	NodeIDUnset NodeID = 65535
)

// PortID identifies a subject (for messages) or a service (for
// request/response transfers).
type PortID uint16

const (
	// SubjectIDMax is the largest port ID usable by a message transfer.
	SubjectIDMax PortID = 8191
	// ServiceIDMax is the largest port ID usable by a service transfer.
	ServiceIDMax PortID = 511
)

// TransferID is a free-running per-session sequence counter.
type TransferID uint64

// TransferIDMax is the largest representable transfer ID; it wraps to 0.
const TransferIDMax TransferID = (1 << 64) - 1

// Priority is the Cyphal transfer priority, lowest value first.
type Priority uint8

const (
	PriorityExceptional Priority = 0
	PriorityImmediate    Priority = 1
	PriorityFast         Priority = 2
	PriorityHigh         Priority = 3
	PriorityNominal      Priority = 4
	PriorityLow          Priority = 5
	PrioritySlow         Priority = 6
	PriorityOptional     Priority = 7
)

// TransferKind selects the session specifier's message/request/response
// shape and, with PortID, forms a subscription key.
type TransferKind uint8

const (
	TransferKindMessage TransferKind = iota
	TransferKindResponse
	TransferKindRequest
	// TransferKindCount is the number of valid TransferKind values.
	TransferKindCount = 3
)

func (k TransferKind) String() string {
	switch k {
	case TransferKindMessage:
		return "message"
	case TransferKindResponse:
		return "response"
	case TransferKindRequest:
		return "request"
	default:
		return "invalid"
	}
}

// TransferMetadata describes one outgoing or incoming transfer.
type TransferMetadata struct {
	Priority       Priority
	TransferKind   TransferKind
	PortID         PortID
	RemoteNodeID   NodeID
	TransferID     TransferID
}

// Transfer is a fully reassembled transfer delivered to a subscriber.
type Transfer struct {
	TimestampUsec uint64
	Metadata      TransferMetadata
	Payload       []byte
}

var (
	// ErrInvalidArgument mirrors SERARD_ERROR_INVALID_ARGUMENT: a caller
	// supplied a value outside the range the API accepts.
	ErrInvalidArgument = errors.New("serard: invalid argument")
	// ErrOutOfMemory mirrors SERARD_ERROR_OUT_OF_MEMORY: an allocator
	// returned nil.
	ErrOutOfMemory = errors.New("serard: out of memory")
	// ErrEmitterAborted is returned when a caller-supplied TX emitter
	// rejects a chunk; the remainder of the frame is not sent.
	ErrEmitterAborted = errors.New("serard: emitter aborted frame transmission")
)

// validPortID reports whether port is in range for kind. Message transfers
// are addressed by subject ID (0..8191); request and response transfers
// share the service ID range (0..511). This is the resolution of the
// port-ID range enforcement open question: the core validates it on both
// TxPush and Subscribe rather than leaving it to callers, matching the
// range asserted (but not enforced) in the reference encoder.
func validPortID(kind TransferKind, port PortID) bool {
	if kind == TransferKindMessage {
		return port <= SubjectIDMax
	}
	return port <= ServiceIDMax
}
