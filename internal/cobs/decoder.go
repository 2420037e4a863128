package cobs

// Emission describes what, if anything, a single byte fed to the decoder
// produced.
type Emission int

const (
	// EmissionNone means the byte was consumed as a chunk length byte; it
	// carries no payload of its own.
	EmissionNone Emission = iota
	// EmissionData means a decoded payload byte is available.
	EmissionData
	// EmissionDelimiter means the byte was a literal 0x00 frame delimiter.
	EmissionDelimiter
)

// Decoder is the incremental COBS decoder. It consumes one wire byte at a
// time and never looks ahead, which makes it suitable for driving directly
// off a serial read loop.
//
// A chunk that was exactly maxChunkDistance long does not carry an implicit
// zero between it and the chunk that follows; any shorter chunk does. The
// decoder tracks this with a single bit (jump) alongside the remaining byte
// count of the chunk currently being copied (copy).
type Decoder struct {
	copy int
	jump bool
}

// NewDecoder returns a decoder in its post-delimiter reset state.
func NewDecoder() *Decoder {
	return &Decoder{copy: 0, jump: true}
}

// Reset returns the decoder to its post-delimiter state, as if a frame
// delimiter had just been seen.
func (d *Decoder) Reset() {
	d.copy = 0
	d.jump = true
}

// Feed consumes one byte off the wire and reports the resulting emission.
// The returned byte is only meaningful when the emission is EmissionData.
func (d *Decoder) Feed(b byte) (Emission, byte) {
	if b == 0 {
		d.Reset()
		return EmissionDelimiter, 0
	}
	if d.copy == 0 {
		emission := EmissionNone
		var data byte
		if !d.jump {
			// The chunk that just ended was shorter than maxChunkDistance,
			// which means the original stream had a literal zero right
			// here that COBS stripped out on encode. Restore it before
			// moving on to the new chunk length byte.
			emission = EmissionData
			data = 0
		}
		d.copy = int(b) - 1
		d.jump = b == maxChunkDistance
		return emission, data
	}
	d.copy--
	return EmissionData, b
}
