package escpos

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Placeholder substituted for runes the active codepage cannot represent.
// Substitution happens locally in WriteText and is never surfaced as an
// error; the ticket keeps printing.
const Placeholder = '?'

// Codepage couples an ESC t table index with the byte repertoire used to
// encode text for that table.
type Codepage struct {
	Name    string
	TableID byte
	Charmap *charmap.Charmap
}

// Both supported codepages select table 0 on the target head: combined with
// ESC R 1 (FRANCE) that is what actually yields the cp850 accent repertoire
// on this hardware. Calibration data, not a protocol constant.
var codepages = map[string]Codepage{
	"cp437": {Name: "cp437", TableID: 0, Charmap: charmap.CodePage437},
	"cp850": {Name: "cp850", TableID: 0, Charmap: charmap.CodePage850},
}

// International character set indices per the A2 head manual (ESC R n).
var internationals = map[string]byte{
	"USA":      0,
	"FRANCE":   1,
	"GERMANY":  2,
	"UK":       3,
	"DENMARK1": 4,
	"SWEDEN":   5,
	"ITALY":    6,
	"SPAIN1":   7,
	"JAPAN":    8,
	"NORWAY":   9,
	"DENMARK2": 10,
	"SPAIN2":   11,
	"LATIN":    12,
	"KOREA":    13,
}

// LookupCodepage resolves a codepage name. Unknown names are a configuration
// error, not a silent fallback.
func LookupCodepage(name string) (Codepage, error) {
	cp, ok := codepages[normalizeCodepage(name)]
	if !ok {
		return Codepage{}, fmt.Errorf("%w: codepage %q", ErrUnknownCodepage, name)
	}
	return cp, nil
}

// LookupInternational resolves a region name to its ESC R index.
func LookupInternational(region string) (byte, error) {
	n, ok := internationals[normalizeRegion(region)]
	if !ok {
		return 0, fmt.Errorf("%w: region %q", ErrUnknownInternational, region)
	}
	return n, nil
}

// DecodeInternational maps an ESC R index back to a region name. Used by the
// interpreter; unknown indices come back empty.
func DecodeInternational(n byte) string {
	for name, idx := range internationals {
		if idx == n {
			return name
		}
	}
	return ""
}

func normalizeCodepage(name string) string {
	switch name {
	case "437", "CP437", "cp437":
		return "cp437"
	case "850", "CP850", "cp850":
		return "cp850"
	}
	return name
}

func normalizeRegion(region string) string {
	out := make([]byte, 0, len(region))
	for i := 0; i < len(region); i++ {
		c := region[i]
		if c == ' ' {
			continue
		}
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// EncodeText converts a string to codepage bytes, substituting Placeholder
// for anything outside the repertoire.
func (cp Codepage) EncodeText(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			out = append(out, byte(r))
			continue
		}
		b, ok := cp.Charmap.EncodeRune(r)
		if !ok {
			b = Placeholder
		}
		out = append(out, b)
	}
	return out
}

// Representable reports whether every rune of s survives encoding without
// placeholder substitution. PrintStyledLine uses this to pick the cheap
// direct-text path over off-device rasterization.
func (cp Codepage) Representable(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if _, ok := cp.Charmap.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// DecodeByte maps a codepage byte back to its rune, for simulator-side text
// painting.
func (cp Codepage) DecodeByte(b byte) rune {
	return cp.Charmap.DecodeByte(b)
}
