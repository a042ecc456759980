package escpos

// Control bytes used by the protocol subset.
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	DC2 byte = 0x12
	LF  byte = 0x0A
)

// Opcode identifies one command in the modeled ESC/POS subset.
type Opcode int

const (
	OpReset Opcode = iota
	OpSetAlign
	OpSetStyle
	OpSetBold
	OpSetCodepage
	OpSetInternational
	OpSetHeating
	OpSetDensity
	OpLineFeed
	OpCut
	OpRasterImage
	OpText
)

func (op Opcode) String() string {
	switch op {
	case OpReset:
		return "RESET"
	case OpSetAlign:
		return "SET_ALIGN"
	case OpSetStyle:
		return "SET_STYLE"
	case OpSetBold:
		return "SET_BOLD"
	case OpSetCodepage:
		return "SET_CODEPAGE"
	case OpSetInternational:
		return "SET_INTERNATIONAL"
	case OpSetHeating:
		return "SET_HEATING"
	case OpSetDensity:
		return "SET_DENSITY"
	case OpLineFeed:
		return "LINE_FEED"
	case OpCut:
		return "CUT"
	case OpRasterImage:
		return "RASTER_IMAGE"
	case OpText:
		return "TEXT"
	}
	return "UNKNOWN"
}

// Command is the unit exchanged between the encoder and a CommandSink. The
// payload holds the parameter bytes that follow the opcode prefix; for OpText
// it is the codepage-encoded text itself, for OpRasterImage it is the
// xL xH yL yH header followed by the packed bits.
type Command struct {
	Opcode  Opcode
	Payload []byte
}

// Bytes frames the command for the wire.
func (c Command) Bytes() []byte {
	var prefix []byte
	switch c.Opcode {
	case OpReset:
		return []byte{ESC, '@'}
	case OpSetAlign:
		prefix = []byte{ESC, 'a'}
	case OpSetStyle:
		prefix = []byte{ESC, '!'}
	case OpSetBold:
		prefix = []byte{ESC, 'E'}
	case OpSetCodepage:
		prefix = []byte{ESC, 't'}
	case OpSetInternational:
		prefix = []byte{ESC, 'R'}
	case OpSetHeating:
		prefix = []byte{ESC, '7'}
	case OpSetDensity:
		prefix = []byte{DC2, '#'}
	case OpLineFeed:
		return []byte{LF}
	case OpCut:
		prefix = []byte{GS, 'V'}
	case OpRasterImage:
		prefix = []byte{GS, 'v', '0', 0x00}
	case OpText:
		// Raw text bytes, no opcode framing.
	}
	out := make([]byte, 0, len(prefix)+len(c.Payload))
	out = append(out, prefix...)
	out = append(out, c.Payload...)
	return out
}

// CommandSink consumes encoded commands in emission order. Implemented by the
// serial transport, the capture sink, and the visual simulator; the encoder
// depends only on this interface.
type CommandSink interface {
	Consume(Command) error
}
