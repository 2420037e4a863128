package serard

import (
	"encoding/binary"

	"github.com/coderkalyan/goserard/internal/crc"
)

// HeaderSize is the size in bytes of the wire header, CRC included.
const HeaderSize = 24

// headerSizeNoCRC is the number of leading header bytes the header CRC is
// computed over.
const headerSizeNoCRC = 22

// headerVersion is the only wire format version this package emits or
// accepts.
const headerVersion = 1

// Session specifier bit flags, OR'd with the port ID to form
// data_specifier_snm.
const (
	serviceNotMessage uint16 = 0x8000
	requestNotResponse uint16 = 0x4000
)

// frameIndexEOT is always frame index 0 with the end-of-transfer bit set,
// since this transport never fragments a transfer across frames.
const frameIndexEOT uint32 = 1 << 31

// sessionSpecifier packs a transfer kind and port ID into the 16-bit
// data_specifier_snm field.
func sessionSpecifier(kind TransferKind, port PortID) uint16 {
	var snm uint16
	if kind != TransferKindMessage {
		snm = serviceNotMessage
	}
	var rnr uint16
	if kind == TransferKindRequest {
		rnr = requestNotResponse
	}
	return uint16(port) | snm | rnr
}

// buildHeader renders metadata into a HeaderSize-byte buffer, source being
// this node's own ID. It returns the number of bytes written (always
// HeaderSize).
func buildHeader(dst []byte, source NodeID, metadata TransferMetadata) int {
	_ = dst[:HeaderSize] // bounds check hint, same role as the C assert

	dst[0] = headerVersion
	dst[1] = byte(metadata.Priority)
	binary.LittleEndian.PutUint16(dst[2:4], uint16(source))
	binary.LittleEndian.PutUint16(dst[4:6], uint16(metadata.RemoteNodeID))
	binary.LittleEndian.PutUint16(dst[6:8], sessionSpecifier(metadata.TransferKind, metadata.PortID))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(metadata.TransferID))
	binary.LittleEndian.PutUint32(dst[16:20], frameIndexEOT)
	binary.LittleEndian.PutUint16(dst[20:22], 0) // user_data, unused

	headerCRC := crc.Header16Initial.Add(dst[:headerSizeNoCRC])
	dst[22] = byte(headerCRC >> 8)
	dst[23] = byte(headerCRC)
	return HeaderSize
}

// parsedHeader is the decoded form of a wire header, as produced by
// parseHeader for the RX pipeline.
type parsedHeader struct {
	priority          Priority
	sourceNodeID      NodeID
	destinationNodeID NodeID
	transferKind      TransferKind
	portID            PortID
	transferID        TransferID
}

// parseHeader validates and decodes a HeaderSize-byte wire header. It
// returns false if the version is wrong, the header CRC does not verify,
// the session specifier bits are not a representable combination, or the
// frame is anything but a single complete frame — all silently-discarded-
// frame conditions per the RX pipeline's error handling, not reported
// errors.
func parseHeader(src []byte) (parsedHeader, bool) {
	var out parsedHeader
	if len(src) < HeaderSize {
		return out, false
	}
	if src[0] != headerVersion {
		return out, false
	}
	if crc.Header16Initial.Add(src[:HeaderSize]) != crc.Header16Residue {
		return out, false
	}

	out.priority = Priority(src[1])
	out.sourceNodeID = NodeID(binary.LittleEndian.Uint16(src[2:4]))
	out.destinationNodeID = NodeID(binary.LittleEndian.Uint16(src[4:6]))

	snm := binary.LittleEndian.Uint16(src[6:8])
	switch {
	case snm&serviceNotMessage == 0:
		if snm&requestNotResponse != 0 {
			// message-not-service with request-not-response set is not a
			// representable session specifier; reject as malformed.
			return out, false
		}
		out.transferKind = TransferKindMessage
		out.portID = PortID(snm)
	case snm&requestNotResponse != 0:
		out.transferKind = TransferKindRequest
		out.portID = PortID(snm &^ (serviceNotMessage | requestNotResponse))
	default:
		out.transferKind = TransferKindResponse
		out.portID = PortID(snm &^ serviceNotMessage)
	}

	out.transferID = TransferID(binary.LittleEndian.Uint64(src[8:16]))

	// Only single-frame transfers (frame_index 0, end_of_transfer set) are
	// accepted; anything else is a frame this node cannot reassemble and
	// must be rejected outright rather than silently misinterpreted.
	frameIndexEOTField := binary.LittleEndian.Uint32(src[16:20])
	if frameIndexEOTField != frameIndexEOT {
		return out, false
	}

	return out, true
}
