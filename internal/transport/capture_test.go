package transport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/drukwerk/ticket-engine/internal/escpos"
)

func TestCaptureRecordsStream(t *testing.T) {
	c := NewCapture()
	cmds := []escpos.Command{
		{Opcode: escpos.OpReset},
		{Opcode: escpos.OpSetAlign, Payload: []byte{1}},
		{Opcode: escpos.OpText, Payload: []byte("HOI")},
		{Opcode: escpos.OpLineFeed},
	}
	for _, cmd := range cmds {
		if err := c.Consume(cmd); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}

	want := []byte{0x1B, 0x40, 0x1B, 0x61, 1, 'H', 'O', 'I', 0x0A}
	if !bytes.Equal(c.Bytes(), want) {
		t.Errorf("stream:\n got % x\nwant % x", c.Bytes(), want)
	}
	got := c.Commands()
	if len(got) != len(cmds) {
		t.Fatalf("recorded %d commands, want %d", len(got), len(cmds))
	}
	for i := range cmds {
		if got[i].Opcode != cmds[i].Opcode {
			t.Errorf("command %d opcode = %v, want %v", i, got[i].Opcode, cmds[i].Opcode)
		}
	}
}

func TestCaptureReset(t *testing.T) {
	c := NewCapture()
	if err := c.Consume(escpos.Command{Opcode: escpos.OpLineFeed}); err != nil {
		t.Fatal(err)
	}
	c.Reset()
	if len(c.Bytes()) != 0 || len(c.Commands()) != 0 {
		t.Error("reset did not clear the capture")
	}
}

func TestCaptureWriteFile(t *testing.T) {
	c := NewCapture()
	if err := c.Consume(escpos.Command{Opcode: escpos.OpText, Payload: []byte("X")}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ticket.bin")
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte("X")) {
		t.Errorf("file = % x", data)
	}
}
