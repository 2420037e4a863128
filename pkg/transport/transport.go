// Package transport defines the byte-oriented link abstraction that sits
// underneath the serard core: something a TxPush emitter can write
// COBS-framed chunks to, and something that can feed received bytes into
// a Reassembler one chunk at a time.
package transport

// ByteSink receives raw bytes as they arrive off the link. Reassembler
// callers typically implement this by looping over data and feeding it
// byte-by-byte into their Reassembler.
type ByteSink interface {
	HandleBytes(data []byte)
}

// Bus is a byte-oriented link: a real UART/USB-CDC port, or a virtual
// loopback used for testing. Connect must be called before Write or
// Subscribe; Disconnect stops any background reception and releases the
// underlying resource.
type Bus interface {
	Connect() error
	Disconnect() error
	Write(chunk []byte) error
	Subscribe(sink ByteSink) error
}
