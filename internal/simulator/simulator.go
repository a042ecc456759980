package simulator

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"github.com/drukwerk/ticket-engine/internal/escpos"
	"github.com/drukwerk/ticket-engine/internal/raster"
)

// Device font metrics of the simulated head, matching the builtin bitmap
// face used for painting.
const (
	glyphWidth  = 7
	glyphHeight = 13
	lineHeight  = 16
	baseline    = 11
)

// rasterGap is the blank strip left after a pasted raster, matching the
// paper advance of the physical head. Calibration data, like the font
// metrics above.
const rasterGap = 5

// Simulator is a software ESC/POS head. It decodes the modeled command
// subset from raw bytes and paints the result onto a virtual roll. Unknown
// or truncated commands are skipped with a log line; replay always
// continues, because a partial preview beats no preview.
//
// Simulator implements escpos.CommandSink, so an encoder can print straight
// into it.
type Simulator struct {
	log   *zap.Logger
	paper *paper

	cfg     struct{ codepage, international string }
	state   escpos.State
	cp      escpos.Codepage
	pending []byte
}

// New builds a simulator for a head widthPx dots wide, decoding text with
// the given codepage and international set.
func New(widthPx int, codepage, international string, log *zap.Logger) (*Simulator, error) {
	cp, err := escpos.LookupCodepage(codepage)
	if err != nil {
		return nil, err
	}
	if _, err := escpos.LookupInternational(international); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Simulator{
		log:   log,
		paper: newPaper(widthPx),
		state: escpos.DefaultState(cp.Name, international),
		cp:    cp,
	}
	s.cfg.codepage = cp.Name
	s.cfg.international = international
	return s, nil
}

// Consume implements escpos.CommandSink by replaying the command's wire
// framing. The simulator never trusts the structured form; it decodes the
// same bytes a serial head would receive.
func (s *Simulator) Consume(cmd escpos.Command) error {
	return s.Replay(cmd.Bytes())
}

// Replay interprets a chunk of the byte stream. Chunks may split anywhere
// except inside one command's parameter bytes; the encoder's command-at-a-
// time framing guarantees that.
func (s *Simulator) Replay(data []byte) error {
	i := 0
	for i < len(data) {
		switch data[i] {
		case escpos.LF:
			s.lineFeed()
			i++
		case escpos.ESC:
			i = s.replayESC(data, i)
		case escpos.GS:
			i = s.replayGS(data, i)
		case escpos.DC2:
			i = s.replayDC2(data, i)
		default:
			s.pending = append(s.pending, data[i])
			i++
		}
	}
	return nil
}

// replayESC handles ESC-prefixed commands starting at i, returning the next
// read position.
func (s *Simulator) replayESC(data []byte, i int) int {
	if i+1 >= len(data) {
		s.log.Warn("truncated escape sequence at end of stream")
		return len(data)
	}
	op := data[i+1]
	params := 0
	switch op {
	case '@':
	case 'a', '!', 'E', 't', 'R':
		params = 1
	case '7':
		params = 3
	default:
		s.log.Warn("skipping unknown ESC command", zap.Uint8("op", op))
		return i + 2
	}
	if i+2+params > len(data) {
		s.log.Warn("truncated ESC command, skipping", zap.Uint8("op", op))
		return len(data)
	}
	switch op {
	case '@':
		s.reset()
	case 'a':
		n := data[i+2]
		if n > 2 {
			n = 0
		}
		s.state.Alignment = escpos.Alignment(n)
	case '!':
		s.state.ApplyStyleByte(data[i+2])
	case 'E':
		s.state.Bold = data[i+2] != 0
	case 't':
		// Both supported codepages share table 0, so the table byte is
		// ambiguous. Table 0 mirrors the configured codepage into the
		// state; anything else keeps the repertoire and is logged.
		if n := data[i+2]; n == 0 {
			s.state.Codepage = s.cfg.codepage
		} else {
			s.log.Warn("unknown codepage table index", zap.Uint8("table", n))
		}
	case 'R':
		if region := escpos.DecodeInternational(data[i+2]); region != "" {
			s.state.International = region
		} else {
			s.log.Warn("unknown international set index", zap.Uint8("n", data[i+2]))
		}
	case '7':
		s.log.Debug("heating configured",
			zap.Uint8("dots", data[i+2]),
			zap.Uint8("time", data[i+3]),
			zap.Uint8("interval", data[i+4]))
	}
	return i + 2 + params
}

func (s *Simulator) replayGS(data []byte, i int) int {
	if i+1 >= len(data) {
		s.log.Warn("truncated escape sequence at end of stream")
		return len(data)
	}
	switch op := data[i+1]; op {
	case 'V':
		if i+2 >= len(data) {
			s.log.Warn("truncated cut command")
			return len(data)
		}
		s.cut()
		return i + 3
	case 'v':
		return s.replayRaster(data, i)
	default:
		s.log.Warn("skipping unknown GS command", zap.Uint8("op", op))
		return i + 2
	}
}

func (s *Simulator) replayDC2(data []byte, i int) int {
	if i+1 < len(data) && data[i+1] == '#' {
		if i+2 >= len(data) {
			s.log.Warn("truncated density command")
			return len(data)
		}
		n := data[i+2]
		s.log.Debug("density configured",
			zap.Uint8("density", n&0x1F), zap.Uint8("break_time", n>>5))
		return i + 3
	}
	s.log.Warn("skipping unknown DC2 command")
	return i + 2
}

// replayRaster decodes GS v 0 starting at i. A malformed or truncated
// raster skips the rest of the chunk; nothing after it could be framed
// reliably anyway.
func (s *Simulator) replayRaster(data []byte, i int) int {
	if i+4 > len(data) || data[i+2] != '0' || data[i+3] != 0x00 {
		s.log.Warn("malformed raster command header, skipping rest of chunk")
		return len(data)
	}
	ri, err := raster.ParsePayload(data[i+4:])
	if err != nil {
		s.log.Warn("skipping unparseable raster command", zap.Error(err))
		return len(data)
	}
	s.flushPending()
	ratio := ri.InkRatio()
	switch {
	case ratio == 0:
		s.log.Warn("replayed raster has zero ink",
			zap.Int("width_px", ri.WidthPx), zap.Int("height_px", ri.HeightPx))
	case ratio < 0.002:
		s.log.Debug("replayed raster is very light", zap.Float64("ink_ratio", ratio))
	}
	img := ri.Decode()
	s.paper.paste(img, s.alignOffset(img.Bounds().Dx()))
	s.paper.ensureHeight(rasterGap)
	s.paper.advance(rasterGap)
	return i + 8 + len(ri.Bits)
}

func (s *Simulator) reset() {
	s.pending = nil
	s.state = escpos.DefaultState(s.cfg.codepage, s.cfg.international)
	cp, _ := escpos.LookupCodepage(s.cfg.codepage)
	s.cp = cp
	s.paper.reset()
}

// lineFeed paints the buffered text line, or just advances paper when the
// line is empty.
func (s *Simulator) lineFeed() {
	if len(s.pending) == 0 {
		h := lineHeight
		if s.state.DoubleHeight {
			h *= 2
		}
		s.paper.ensureHeight(h)
		s.paper.advance(h)
		return
	}
	s.flushPending()
}

func (s *Simulator) flushPending() {
	if len(s.pending) == 0 {
		return
	}
	text := make([]rune, 0, len(s.pending))
	for _, b := range s.pending {
		text = append(text, s.cp.DecodeByte(b))
	}
	s.pending = nil
	img := s.paintLine(string(text))
	s.paper.paste(img, s.alignOffset(img.Bounds().Dx()))
}

// paintLine draws one device-text line with the builtin bitmap face and
// applies the active style: bold as a 1px double strike, underline as a
// rule under the baseline, double sizes as nearest-neighbor enlargement.
func (s *Simulator) paintLine(text string) image.Image {
	w := glyphWidth*len([]rune(text)) + 1
	ctx := gg.NewContext(w, lineHeight)
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()
	ctx.SetRGB(0, 0, 0)
	ctx.SetFontFace(basicfont.Face7x13)
	ctx.DrawString(text, 0, baseline)
	if s.state.Bold {
		ctx.DrawString(text, 1, baseline)
	}
	if s.state.Underline {
		ctx.DrawLine(0, baseline+2, float64(w), baseline+2)
		ctx.SetLineWidth(1)
		ctx.Stroke()
	}
	img := image.Image(ctx.Image())
	sx, sy := 1, 1
	if s.state.DoubleWidth {
		sx = 2
	}
	if s.state.DoubleHeight {
		sy = 2
	}
	if sx > 1 || sy > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()*sx, b.Dy()*sy, imaging.NearestNeighbor)
	}
	return img
}

// cut paints a dashed tear line across the roll.
func (s *Simulator) cut() {
	s.flushPending()
	s.paper.ensureHeight(20)
	ctx := s.paper.ctx
	ctx.SetRGB(0, 0, 0)
	ctx.SetLineWidth(1)
	ctx.SetDash(4, 4)
	ctx.DrawLine(0, float64(s.paper.y+10), float64(s.paper.width), float64(s.paper.y+10))
	ctx.Stroke()
	ctx.SetDash()
	s.paper.advance(20)
}

func (s *Simulator) alignOffset(imgWidth int) int {
	switch s.state.Alignment {
	case escpos.AlignCenter:
		x := (s.paper.width - imgWidth) / 2
		if x < 0 {
			x = 0
		}
		return x
	case escpos.AlignRight:
		x := s.paper.width - imgWidth
		if x < 0 {
			x = 0
		}
		return x
	default:
		return 0
	}
}

// State returns a copy of the interpreter state, for tests and diagnostics.
func (s *Simulator) State() escpos.State {
	return s.state
}

// Render returns the roll as printed so far without finishing it.
func (s *Simulator) Render() image.Image {
	return s.paper.crop()
}

// Close flushes any buffered text and returns the final cropped roll.
func (s *Simulator) Close() image.Image {
	s.flushPending()
	return s.paper.crop()
}
