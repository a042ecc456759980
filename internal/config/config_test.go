package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "printer:\n  device: /dev/ttyAMA0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Printer.Device != "/dev/ttyAMA0" {
		t.Errorf("device = %q", cfg.Printer.Device)
	}
	if cfg.Printer.BaudRate != 9600 {
		t.Errorf("baud_rate = %d, want default 9600", cfg.Printer.BaudRate)
	}
	if cfg.Printer.WidthPx != 384 || cfg.Printer.TicketWidthChars != 32 {
		t.Errorf("width defaults: %+v", cfg.Printer)
	}
	if cfg.Printer.Codepage != "cp850" || cfg.Printer.International != "FRANCE" {
		t.Errorf("charset defaults: %+v", cfg.Printer)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "printer:\n  daudrate: 19200\n"))
	if err == nil {
		t.Fatal("typoed key accepted")
	}
	if !strings.Contains(err.Error(), "printer.daudrate") {
		t.Errorf("error does not name the offending key: %v", err)
	}
}

func TestResolveFont(t *testing.T) {
	r := RenderConfig{FontsDir: "fonts"}
	if got := r.ResolveFont("emoji.ttf"); got != filepath.Join("fonts", "emoji.ttf") {
		t.Errorf("relative: %q", got)
	}
	if got := r.ResolveFont("/abs/f.ttf"); got != "/abs/f.ttf" {
		t.Errorf("absolute: %q", got)
	}
	if got := r.ResolveFont(""); got != "" {
		t.Errorf("empty: %q", got)
	}
}

func TestLoadRejectsUnknownCodepage(t *testing.T) {
	_, err := Load(writeConfig(t, "printer:\n  codepage: cp1252\n"))
	if err == nil {
		t.Fatal("unsupported codepage accepted")
	}
}

func TestLoadRejectsUnknownInternational(t *testing.T) {
	_, err := Load(writeConfig(t, "printer:\n  international: ATLANTIS\n"))
	if err == nil {
		t.Fatal("unsupported international accepted")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		"printer:\n  width_px: 0\n",
		"printer:\n  ticket_width_chars: -1\n",
		"logging:\n  level: loud\n",
		"render:\n  font_size: 0\n",
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("accepted invalid config %q", body)
		}
	}
}
