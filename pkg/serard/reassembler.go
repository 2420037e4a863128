package serard

import (
	"github.com/coderkalyan/goserard/internal/cobs"
	"github.com/coderkalyan/goserard/internal/crc"
)

type reassemblerState int

const (
	// stateDelimiter is the idle state between frames: nothing has been
	// accumulated for the next frame yet.
	stateDelimiter reassemblerState = iota
	// stateHeader is accumulating the fixed HeaderSize-byte wire header.
	stateHeader
	// statePayload is accumulating payload bytes plus the trailing
	// 4-byte transfer CRC, whose combined length is only known once the
	// closing delimiter arrives.
	statePayload
	// stateReject means the current frame is already known to be
	// malformed (header failed to parse) or unsubscribed; bytes are
	// discarded until the next delimiter, at which point the reassembler
	// returns to stateDelimiter.
	stateReject
)

// Reassembler drives one incoming byte stream (one physical link) through
// COBS unstuffing and frame accumulation. Multiple independent links into
// the same Serard instance each get their own Reassembler, since COBS
// decode state must never interleave bytes from two different streams;
// they share the one Serard's subscription registry.
type Reassembler struct {
	decoder cobs.Decoder
	state   reassemblerState

	header    [HeaderSize]byte
	headerLen int

	// payload holds up to maxPayload (the subscription's extent) bytes of
	// the incoming stream, for delivery to the caller. transferCRC folds
	// every byte of the stream — payload and trailing CRC alike,
	// regardless of how much was actually kept in payload — so the
	// residue check below is correct even when the transfer is truncated.
	payload     []byte
	maxPayload  int
	totalSize   int
	transferCRC crc.Transfer32
}

// NewReassembler returns a reassembler ready to receive the start of a new
// frame.
func NewReassembler() *Reassembler {
	ra := &Reassembler{}
	ra.decoder = *cobs.NewDecoder()
	return ra
}

// Feed consumes one wire byte. It returns a non-nil Transfer when a
// complete, validated, subscribed transfer has just been reassembled.
// Malformed frames, frames for which there is no subscription, and
// duplicate/stale re-deliveries are all silently dropped, matching the
// reference implementation's "bad wire data is discarded, not reported"
// error handling.
func (ra *Reassembler) Feed(s *Serard, timestampUsec uint64, b byte) *Transfer {
	emission, data := ra.decoder.Feed(b)

	if emission == cobs.EmissionDelimiter {
		transfer := ra.finishFrame(s, timestampUsec)
		ra.reset()
		return transfer
	}
	if emission != cobs.EmissionData {
		return nil
	}

	switch ra.state {
	case stateDelimiter:
		ra.state = stateHeader
		ra.header[0] = data
		ra.headerLen = 1
	case stateHeader:
		ra.header[ra.headerLen] = data
		ra.headerLen++
		if ra.headerLen == HeaderSize {
			ra.enterPayload(s)
		}
	case statePayload:
		ra.transferCRC = ra.transferCRC.AddByte(data)
		ra.totalSize++
		if len(ra.payload) < ra.maxPayload {
			ra.payload = append(ra.payload, data)
		}
		// Bytes beyond maxPayload are still folded into transferCRC and
		// counted in totalSize (to stay in sync with the COBS stream and
		// keep the CRC check correct) but dropped from payload, matching
		// the extent truncation semantics of a bounded subscription
		// buffer — excess payload is truncated, never left unverified.
	case stateReject:
		// discard
	}
	return nil
}

// enterPayload is called the instant the 24th header byte arrives. It
// looks the subscription up immediately so payload accumulation can be
// bounded by the subscription's extent from the first payload byte
// onward, rather than buffering an unbounded amount first.
func (ra *Reassembler) enterPayload(s *Serard) {
	parsed, ok := parseHeader(ra.header[:])
	if !ok {
		ra.state = stateReject
		s.observeHeaderCRCError()
		return
	}
	if parsed.destinationNodeID != NodeIDUnset && parsed.destinationNodeID != s.nodeID {
		ra.state = stateReject
		return
	}
	sub, found := s.registry.find(parsed.transferKind, parsed.portID)
	if !found {
		ra.state = stateReject
		return
	}
	ra.state = statePayload
	ra.maxPayload = sub.Extent
	ra.payload = ra.payload[:0]
	ra.totalSize = 0
	ra.transferCRC = crc.Transfer32Initial
}

// finishFrame is called when a delimiter closes out whatever frame was in
// progress. It verifies the transfer CRC, enforces the per-source
// transfer-ID/timeout session policy, and returns the delivered transfer
// if every check passes.
func (ra *Reassembler) finishFrame(s *Serard, timestampUsec uint64) *Transfer {
	if ra.state != statePayload {
		return nil
	}
	// The trailing 4 bytes of the stream are the transfer CRC, not
	// payload, regardless of how many of them made it into ra.payload
	// (extent may be larger than the true payload, in which case some of
	// those trailing bytes were stored too — trimmed off below).
	if ra.totalSize < transferCRCSize {
		s.observePayloadCRCError()
		return nil
	}
	if ra.transferCRC.Finalize() != crc.Transfer32ResidueAfterXOR {
		s.observePayloadCRCError()
		return nil
	}

	parsed, ok := parseHeader(ra.header[:])
	if !ok {
		return nil
	}

	sub, found := s.registry.find(parsed.transferKind, parsed.portID)
	if !found {
		return nil
	}

	payloadSize := ra.totalSize - transferCRCSize
	if payloadSize > len(ra.payload) {
		payloadSize = len(ra.payload)
	}
	body := ra.payload[:payloadSize]

	if parsed.sourceNodeID <= NodeIDMax {
		before := sub.sessions.Len()
		session := sub.sessionFor(parsed.sourceNodeID)
		if sub.sessions.Len() != before {
			s.observeSessionCount()
		}
		if !session.accept(parsed.transferID, timestampUsec, sub.TransferIDTimeoutUsec) {
			return nil
		}
	}

	payload := make([]byte, len(body))
	copy(payload, body)

	s.observeAccepted()
	return &Transfer{
		TimestampUsec: timestampUsec,
		Metadata: TransferMetadata{
			Priority:     parsed.priority,
			TransferKind: parsed.transferKind,
			PortID:       parsed.portID,
			RemoteNodeID: parsed.sourceNodeID,
			TransferID:   parsed.transferID,
		},
		Payload: payload,
	}
}

func (ra *Reassembler) reset() {
	ra.state = stateDelimiter
	ra.headerLen = 0
	ra.payload = ra.payload[:0]
}
