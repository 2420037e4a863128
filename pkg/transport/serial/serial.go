// Package serial wraps go.bug.st/serial as a transport.Bus, for talking
// to a real UART or USB-CDC link. Modeled on the reference stack's
// socketcan.go wrapper: a thin adapter translating one concrete driver's
// API into the shape this module's core expects, with a background
// goroutine pushing received bytes to the registered sink.
package serial

import (
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"github.com/coderkalyan/goserard/pkg/transport"
)

// Bus is a transport.Bus backed by a real serial port.
type Bus struct {
	logger *slog.Logger

	portName string
	mode     *serial.Mode

	mu        sync.Mutex
	port      serial.Port
	sink      transport.ByteSink
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// New returns a Bus that will open portName at baudRate on Connect.
func New(portName string, baudRate int, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		portName: portName,
		mode:     &serial.Mode{BaudRate: baudRate},
		logger:   logger.With("component", "transport/serial", "port", portName),
	}
}

// Connect opens the underlying serial port.
func (b *Bus) Connect() error {
	port, err := serial.Open(b.portName, b.mode)
	if err != nil {
		return fmt.Errorf("transport/serial: open %s: %w", b.portName, err)
	}
	b.mu.Lock()
	b.port = port
	b.mu.Unlock()
	return nil
}

// Disconnect stops the receive goroutine (if running) and closes the port.
func (b *Bus) Disconnect() error {
	b.mu.Lock()
	if b.isRunning {
		close(b.stopChan)
		b.isRunning = false
	}
	port := b.port
	b.mu.Unlock()

	b.wg.Wait()
	if port != nil {
		return port.Close()
	}
	return nil
}

// Write sends chunk out over the serial port.
func (b *Bus) Write(chunk []byte) error {
	b.mu.Lock()
	port := b.port
	b.mu.Unlock()
	if port == nil {
		return fmt.Errorf("transport/serial: not connected")
	}
	_, err := port.Write(chunk)
	return err
}

// Subscribe starts a background goroutine reading from the port and
// handing every chunk read to sink. It is safe to call only once per Bus.
func (b *Bus) Subscribe(sink transport.ByteSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.port == nil {
		return fmt.Errorf("transport/serial: not connected")
	}
	b.sink = sink
	if b.isRunning {
		return nil
	}
	b.isRunning = true
	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.receiveLoop()
	return nil
}

func (b *Bus) receiveLoop() {
	defer b.wg.Done()
	buf := make([]byte, 256)
	for {
		select {
		case <-b.stopChan:
			return
		default:
		}
		n, err := b.port.Read(buf)
		if err != nil {
			b.logger.Error("read failed, stopping receive loop", "err", err)
			return
		}
		if n == 0 {
			continue
		}
		b.mu.Lock()
		sink := b.sink
		b.mu.Unlock()
		if sink != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink.HandleBytes(chunk)
		}
	}
}

var _ transport.Bus = (*Bus)(nil)
