// Package cobs implements Consistent Overhead Byte Stuffing framing: an
// incremental encoder that stuffs a stream of bytes so the frame delimiter
// value (0x00) never appears inside it, and an incremental decoder that
// reverses the transform one wire byte at a time.
package cobs

// maxChunkDistance is the largest distance a single length byte can encode
// (0xFF). A chunk that reaches this distance must be closed early even
// though no literal zero triggered it, otherwise the length byte would
// overflow and corrupt the frame.
const maxChunkDistance = 0xFF

// overheadRate is the COBS worst-case overhead ratio: one length byte per
// up to 254 data bytes.
const overheadRate = 254

// EncodedSize returns n + ceil(n/254), the COBS encoded-size bound for a
// payload of n bytes, not counting the leading and trailing frame
// delimiters. The body written by Encoder is one byte longer than this when
// the input is empty or ends in a run of non-zero bytes whose length is a
// multiple of 254, because Encoder opens a new chunk as soon as a full one
// is closed.
func EncodedSize(payload int) int {
	overhead := (payload + overheadRate - 1) / overheadRate
	return payload + overhead
}

// Encoder is the incremental COBS encoder. It writes into a caller-owned
// destination buffer that must reserve dst[0] for the first chunk's length
// byte; encoding always starts at dst[1].
//
// The caller is expected to write a single literal 0x00 delimiter into the
// wire stream before starting the encoder, then feed header bytes, payload
// bytes, and the transfer CRC through Encode/EncodeByte, and finally feed
// one more literal 0x00 byte — that last call both closes the final chunk
// and produces the trailing frame delimiter, with no separate step needed.
type Encoder struct {
	loc   int
	chunk int
}

// NewEncoder returns an encoder ready to write into a fresh destination
// buffer.
func NewEncoder() *Encoder {
	return &Encoder{loc: 1, chunk: 0}
}

// Len reports how many bytes of dst have been written so far.
func (e *Encoder) Len() int { return e.loc }

// EncodeByte feeds a single source byte through the encoder.
func (e *Encoder) EncodeByte(dst []byte, b byte) {
	if b != 0 {
		dst[e.loc] = b
		e.loc++
		if e.loc-e.chunk == maxChunkDistance {
			dst[e.chunk] = maxChunkDistance
			e.chunk = e.loc
			dst[e.loc] = 0
			e.loc++
		}
		return
	}
	dst[e.loc] = 0
	e.loc++
	dst[e.chunk] = byte(e.loc - 1 - e.chunk)
	e.chunk = e.loc - 1
}

// Encode feeds an entire source slice through the encoder.
func (e *Encoder) Encode(dst []byte, src []byte) {
	for _, b := range src {
		e.EncodeByte(dst, b)
	}
}
