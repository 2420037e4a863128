package serard

// MemoryResource is a pluggable allocator, mirroring the reference
// implementation's allocate/deallocate pair. Splitting payload storage
// from RX session storage lets a caller give transient per-frame buffers a
// cheap pool while keeping long-lived session state on a separate,
// size-stable one.
type MemoryResource interface {
	// Allocate returns a slice of exactly size bytes, or nil if the
	// request cannot be satisfied.
	Allocate(size int) []byte
	// Deallocate releases a slice previously returned by Allocate. It is
	// always called exactly once per successful Allocate call.
	Deallocate(buf []byte)
}

// heapMemory is the default MemoryResource: a thin wrapper over make/GC.
// Most callers that don't need bounded, pool-backed allocation can use
// this directly.
type heapMemory struct{}

// NewHeapMemory returns a MemoryResource backed by ordinary heap
// allocation, suitable for tests and for nodes without tight memory
// bounds.
func NewHeapMemory() MemoryResource { return heapMemory{} }

func (heapMemory) Allocate(size int) []byte { return make([]byte, size) }
func (heapMemory) Deallocate([]byte)         {}
