// Package transport carries framed commands to their destination: a serial
// printer, or a capture buffer for previews and tests.
package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/drukwerk/ticket-engine/internal/escpos"
)

// TransportError wraps a failed write to the device. The encoder's state
// mirror stays untouched when one of these comes back.
type TransportError struct {
	Device string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Device, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SerialSink writes framed commands to a serial printer. Safe for use from
// multiple goroutines; commands are written whole under the lock so
// concurrent jobs cannot interleave mid-command.
type SerialSink struct {
	device string
	port   *serial.Port
	log    *zap.Logger
	mu     sync.Mutex
}

// OpenSerial opens the printer device. Baud 0 selects 9600, the usual rate
// for thermal heads.
func OpenSerial(device string, baud int, log *zap.Logger) (*SerialSink, error) {
	if baud == 0 {
		baud = 9600
	}
	if log == nil {
		log = zap.NewNop()
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, &TransportError{Device: device, Err: err}
	}
	log.Info("serial printer connected",
		zap.String("device", device), zap.Int("baud", baud))
	return &SerialSink{device: device, port: port, log: log}, nil
}

// Consume implements escpos.CommandSink.
func (s *SerialSink) Consume(cmd escpos.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := cmd.Bytes()
	if _, err := s.port.Write(data); err != nil {
		return &TransportError{Device: s.device, Err: err}
	}
	s.log.Debug("command written",
		zap.Stringer("opcode", cmd.Opcode), zap.Int("bytes", len(data)))
	return nil
}

// Close releases the port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return &TransportError{Device: s.device, Err: err}
	}
	return nil
}
