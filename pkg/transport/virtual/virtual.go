// Package virtual implements an in-memory loopback Bus and a TCP-based
// multi-process loopback Bus, mirroring the reference CAN stack's
// pkg/can/virtual broker-client model but carrying a raw byte stream
// instead of framed CAN messages — there is no framing to preserve here,
// COBS already delimits frames on the wire.
package virtual

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/coderkalyan/goserard/pkg/transport"
)

// Loopback is an in-process Bus: anything written is delivered straight
// back to the subscriber, useful for exercising a single node's TX/RX
// pipeline without any real link.
type Loopback struct {
	mu   sync.Mutex
	sink transport.ByteSink
}

// NewLoopback returns a ready-to-use in-memory Bus.
func NewLoopback() *Loopback { return &Loopback{} }

func (l *Loopback) Connect() error    { return nil }
func (l *Loopback) Disconnect() error { return nil }

func (l *Loopback) Write(chunk []byte) error {
	l.mu.Lock()
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		cp := append([]byte(nil), chunk...)
		sink.HandleBytes(cp)
	}
	return nil
}

func (l *Loopback) Subscribe(sink transport.ByteSink) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
	return nil
}

// TCPBus is a multi-process loopback Bus: it dials a broker address and
// exchanges length-prefixed chunks, so several independent processes can
// exercise the transport over a real (if local) socket. Modeled on
// pkg/can/virtual's length-prefixed framing, minus the CAN frame layout
// — the payload here is already a COBS-framed byte chunk.
type TCPBus struct {
	addr string

	mu        sync.Mutex
	conn      net.Conn
	sink      transport.ByteSink
	isRunning bool
	stopChan  chan struct{}
	logger    *slog.Logger
}

// NewTCPBus returns a Bus that will dial addr on Connect.
func NewTCPBus(addr string, logger *slog.Logger) *TCPBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPBus{addr: addr, logger: logger.With("component", "transport/virtual")}
}

func (b *TCPBus) Connect() error {
	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return nil
}

func (b *TCPBus) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isRunning {
		close(b.stopChan)
		b.isRunning = false
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func (b *TCPBus) Write(chunk []byte) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport/virtual: no active connection")
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(chunk)))
	if _, err := conn.Write(header); err != nil {
		return err
	}
	_, err := conn.Write(chunk)
	return err
}

func (b *TCPBus) Subscribe(sink transport.ByteSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
	if b.isRunning {
		return nil
	}
	b.isRunning = true
	b.stopChan = make(chan struct{})
	go b.receiveLoop()
	return nil
}

func (b *TCPBus) receiveLoop() {
	for {
		select {
		case <-b.stopChan:
			return
		default:
		}

		b.mu.Lock()
		conn := b.conn
		sink := b.sink
		b.mu.Unlock()
		if conn == nil {
			return
		}

		header := make([]byte, 4)
		if _, err := fillBuffer(conn, header); err != nil {
			b.logger.Error("read header failed, stopping receive loop", "err", err)
			return
		}
		length := binary.BigEndian.Uint32(header)
		chunk := make([]byte, length)
		if _, err := fillBuffer(conn, chunk); err != nil {
			b.logger.Error("read chunk failed, stopping receive loop", "err", err)
			return
		}
		if sink != nil {
			sink.HandleBytes(chunk)
		}
	}
}

var (
	_ transport.Bus = (*Loopback)(nil)
	_ transport.Bus = (*TCPBus)(nil)
)

func fillBuffer(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
