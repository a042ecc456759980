// Package escpos implements the ESC/POS wire protocol subset spoken by the
// ticket engine: a stateful command encoder, the opcode framing shared with
// the visual simulator, and the codepage/international lookup tables.
package escpos

// Alignment selects horizontal placement for text and raster images.
type Alignment byte

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// ParseAlignment maps a config-style name to an Alignment. Unknown names
// fall back to left, matching the printer's own behavior for ESC a.
func ParseAlignment(name string) Alignment {
	switch name {
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	default:
		return AlignLeft
	}
}

// Font selects one of the printer's two internal fonts.
type Font byte

const (
	FontA Font = iota // 12x24, the default
	FontB             // 9x17, condensed
)

func (f Font) String() string {
	if f == FontB {
		return "B"
	}
	return "A"
}

// State is the style/alignment/font/codepage state carried by one encoder or
// one interpreter instance. It is never shared between instances; the only
// coupling between an encoder and an interpreter is the byte stream itself.
type State struct {
	Alignment     Alignment
	Font          Font
	Bold          bool
	Underline     bool
	DoubleWidth   bool
	DoubleHeight  bool
	Codepage      string
	International string
}

// DefaultState returns the post-reset state for the given configured
// codepage and international region.
func DefaultState(codepage, international string) State {
	return State{
		Alignment:     AlignLeft,
		Font:          FontA,
		Codepage:      codepage,
		International: international,
	}
}

// StyleByte packs the ESC ! parameter from the current state:
// bit 0 font B, bit 4 double height, bit 5 double width, bit 7 underline.
// Bold travels separately via ESC E.
func (s *State) StyleByte() byte {
	var n byte
	if s.Font == FontB {
		n |= 0x01
	}
	if s.DoubleHeight {
		n |= 0x10
	}
	if s.DoubleWidth {
		n |= 0x20
	}
	if s.Underline {
		n |= 0x80
	}
	return n
}

// ApplyStyleByte is the inverse of StyleByte, used by the interpreter.
func (s *State) ApplyStyleByte(n byte) {
	if n&0x01 != 0 {
		s.Font = FontB
	} else {
		s.Font = FontA
	}
	s.DoubleHeight = n&0x10 != 0
	s.DoubleWidth = n&0x20 != 0
	s.Underline = n&0x80 != 0
}
