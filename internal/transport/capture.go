package transport

import (
	"bytes"
	"os"
	"sync"

	"github.com/drukwerk/ticket-engine/internal/escpos"
)

// CaptureSink records the byte stream instead of sending it anywhere. Used
// by the preview path to replay a job through the simulator and by tests to
// assert on exact wire bytes.
type CaptureSink struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	commands []escpos.Command
}

// NewCapture returns an empty capture buffer.
func NewCapture() *CaptureSink {
	return &CaptureSink{}
}

// Consume implements escpos.CommandSink.
func (c *CaptureSink) Consume(cmd escpos.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Write(cmd.Bytes())
	c.commands = append(c.commands, cmd)
	return nil
}

// Bytes returns a copy of the captured wire stream.
func (c *CaptureSink) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out
}

// Commands returns the captured commands in emission order.
func (c *CaptureSink) Commands() []escpos.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]escpos.Command, len(c.commands))
	copy(out, c.commands)
	return out
}

// Reset discards everything captured so far.
func (c *CaptureSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.commands = nil
}

// WriteFile dumps the captured stream to path, for feeding hardware later
// or diffing against a known-good ticket.
func (c *CaptureSink) WriteFile(path string) error {
	return os.WriteFile(path, c.Bytes(), 0o644)
}
