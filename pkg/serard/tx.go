package serard

import (
	"github.com/coderkalyan/goserard/internal/cobs"
	"github.com/coderkalyan/goserard/internal/crc"
)

// Emitter pushes a chunk of already-framed wire bytes out over the link.
// It returns false to abort transmission of the remainder of the frame
// (e.g. the link buffer is full and the caller does not want to block).
type Emitter func(chunk []byte) bool

// maxEmitChunk caps how many bytes are handed to a single Emitter call, so
// that transports with a fixed maximum write size (a CAN-FD style MTU, a
// bounded ring buffer) never see a write larger than they can accept in
// one call.
const maxEmitChunk = 255

// TxPush builds the wire header for metadata, COBS-frames it together with
// payload and a trailing transfer CRC, and hands the result to emit in
// chunks of at most maxEmitChunk bytes. It returns ErrInvalidArgument if
// the port ID is out of range for the transfer kind, ErrOutOfMemory if the
// payload MemoryResource cannot allocate the frame buffer, and
// ErrEmitterAborted if emit returns false
// before the whole frame has been sent.
func (s *Serard) TxPush(metadata TransferMetadata, payload []byte, emit Emitter) error {
	if !validPortID(metadata.TransferKind, metadata.PortID) {
		return ErrInvalidArgument
	}

	headerPayloadSize := HeaderSize + len(payload) + transferCRCSize
	maxFrameSize := cobs.EncodedSize(headerPayloadSize) + 2 // leading + trailing delimiter

	buf := s.memoryPayload.Allocate(maxFrameSize)
	if buf == nil {
		return ErrOutOfMemory
	}
	defer s.memoryPayload.Deallocate(buf)

	offset := 0
	buf[offset] = 0 // leading frame delimiter, written directly
	offset++

	enc := cobs.NewEncoder()
	dst := buf[offset:]

	var header [HeaderSize]byte
	buildHeader(header[:], s.nodeID, metadata)
	enc.Encode(dst, header[:])

	if len(payload) > 0 {
		enc.Encode(dst, payload)
	}

	transferCRC := crc.Transfer32Initial.Add(payload).Finalize()
	crcBytes := transferCRC.Bytes()
	enc.Encode(dst, crcBytes[:])

	enc.EncodeByte(dst, 0) // trailing delimiter, closes the final chunk
	offset += enc.Len()

	frame := buf[:offset]
	for sent := 0; sent < len(frame); {
		end := sent + maxEmitChunk
		if end > len(frame) {
			end = len(frame)
		}
		if !emit(frame[sent:end]) {
			return ErrEmitterAborted
		}
		sent = end
	}
	if s.observer != nil {
		s.observer.FrameTransmitted()
	}
	return nil
}

const transferCRCSize = 4
