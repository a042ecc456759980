package escpos

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/drukwerk/ticket-engine/internal/layout"
	"github.com/drukwerk/ticket-engine/internal/raster"
)

// Default head tuning sent by Initialize. Heating is ESC 7 (dots, time,
// interval), density is DC2 # with breaktime<<5|density. Calibrated for the
// A2 head; hotter settings scorch the paper.
const (
	DefaultHeatingDots     byte = 7
	DefaultHeatingTime     byte = 180
	DefaultHeatingInterval byte = 2
	DefaultDensity         byte = 15
	DefaultBreakTime       byte = 0
)

// GlyphRenderer rasterizes classified runs into line images for text the
// printer cannot draw itself. RenderLine wraps the runs to maxWidthPx and
// returns one image per physical line, scaled by the integer scale factor.
type GlyphRenderer interface {
	RenderLine(runs []layout.TextRun, maxWidthPx int, scale int) ([]image.Image, error)
}

// LineStyle is the per-line styling applied by PrintStyledLine. The zero
// value is left-aligned regular font A.
type LineStyle struct {
	Alignment    Alignment
	Font         Font
	Bold         bool
	Underline    bool
	DoubleWidth  bool
	DoubleHeight bool
}

// EncoderOptions configures a new Encoder. Codepage and International are
// validated at construction; WidthPx bounds raster output.
type EncoderOptions struct {
	WidthPx       int
	Codepage      string
	International string
	Renderer      GlyphRenderer
	Logger        *zap.Logger
}

// Encoder turns high-level print operations into framed commands and hands
// them to a CommandSink. It tracks the printer-side state mirror and only
// commits a state change after the sink has accepted the bytes, so a
// transport failure never desynchronizes the mirror from the device.
type Encoder struct {
	sink     CommandSink
	log      *zap.Logger
	renderer GlyphRenderer

	widthPx int
	cfg     struct{ codepage, international string }

	state State
	cp    Codepage
}

// NewEncoder builds an encoder writing to sink. The renderer may be nil when
// only codepage-representable text will be printed.
func NewEncoder(sink CommandSink, opts EncoderOptions) (*Encoder, error) {
	cp, err := LookupCodepage(opts.Codepage)
	if err != nil {
		return nil, err
	}
	if _, err := LookupInternational(opts.International); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Encoder{
		sink:     sink,
		log:      log,
		renderer: opts.Renderer,
		widthPx:  opts.WidthPx,
		state:    DefaultState(cp.Name, opts.International),
		cp:       cp,
	}
	e.cfg.codepage = cp.Name
	e.cfg.international = opts.International
	return e, nil
}

// State returns a copy of the current state mirror.
func (e *Encoder) State() State {
	return e.state
}

func (e *Encoder) emit(cmd Command) error {
	if err := e.sink.Consume(cmd); err != nil {
		return fmt.Errorf("escpos: %s: %w", cmd.Opcode, err)
	}
	return nil
}

// Reset sends ESC @ and rolls the state mirror back to the configured
// defaults.
func (e *Encoder) Reset() error {
	if err := e.emit(Command{Opcode: OpReset}); err != nil {
		return err
	}
	e.state = DefaultState(e.cfg.codepage, e.cfg.international)
	cp, _ := LookupCodepage(e.cfg.codepage)
	e.cp = cp
	return nil
}

// Initialize runs the power-on sequence: reset, then the configured
// international set and codepage, then head tuning. ESC R must precede
// ESC t or the head reverts the character repertoire.
func (e *Encoder) Initialize() error {
	if err := e.Reset(); err != nil {
		return err
	}
	if err := e.SetInternational(e.cfg.international); err != nil {
		return err
	}
	if err := e.SetCodepage(e.cfg.codepage); err != nil {
		return err
	}
	if err := e.SetHeating(DefaultHeatingDots, DefaultHeatingTime, DefaultHeatingInterval); err != nil {
		return err
	}
	if err := e.SetDensity(DefaultDensity, DefaultBreakTime); err != nil {
		return err
	}
	e.log.Debug("printer initialized",
		zap.String("codepage", e.cfg.codepage),
		zap.String("international", e.cfg.international))
	return nil
}

// SetAlignment sends ESC a.
func (e *Encoder) SetAlignment(a Alignment) error {
	if err := e.emit(Command{Opcode: OpSetAlign, Payload: []byte{byte(a)}}); err != nil {
		return err
	}
	e.state.Alignment = a
	return nil
}

// SetBold sends ESC E. Bold is not part of the ESC ! style byte on this
// head.
func (e *Encoder) SetBold(on bool) error {
	var n byte
	if on {
		n = 1
	}
	if err := e.emit(Command{Opcode: OpSetBold, Payload: []byte{n}}); err != nil {
		return err
	}
	e.state.Bold = on
	return nil
}

func (e *Encoder) setStyle(next State) error {
	if err := e.emit(Command{Opcode: OpSetStyle, Payload: []byte{next.StyleByte()}}); err != nil {
		return err
	}
	e.state.Font = next.Font
	e.state.Underline = next.Underline
	e.state.DoubleWidth = next.DoubleWidth
	e.state.DoubleHeight = next.DoubleHeight
	return nil
}

// SetFont selects font A or B via the ESC ! style byte.
func (e *Encoder) SetFont(f Font) error {
	next := e.state
	next.Font = f
	return e.setStyle(next)
}

// SetUnderline toggles underline via the ESC ! style byte.
func (e *Encoder) SetUnderline(on bool) error {
	next := e.state
	next.Underline = on
	return e.setStyle(next)
}

// SetDoubleSize toggles double width and height via the ESC ! style byte.
func (e *Encoder) SetDoubleSize(width, height bool) error {
	next := e.state
	next.DoubleWidth = width
	next.DoubleHeight = height
	return e.setStyle(next)
}

// SetCodepage sends ESC t and switches the text encoder's repertoire.
func (e *Encoder) SetCodepage(name string) error {
	cp, err := LookupCodepage(name)
	if err != nil {
		return err
	}
	if err := e.emit(Command{Opcode: OpSetCodepage, Payload: []byte{cp.TableID}}); err != nil {
		return err
	}
	e.cp = cp
	e.state.Codepage = cp.Name
	return nil
}

// SetInternational sends ESC R.
func (e *Encoder) SetInternational(region string) error {
	n, err := LookupInternational(region)
	if err != nil {
		return err
	}
	if err := e.emit(Command{Opcode: OpSetInternational, Payload: []byte{n}}); err != nil {
		return err
	}
	e.state.International = normalizeRegion(region)
	return nil
}

// SetHeating sends ESC 7 with the head heating parameters.
func (e *Encoder) SetHeating(dots, time, interval byte) error {
	return e.emit(Command{Opcode: OpSetHeating, Payload: []byte{dots, time, interval}})
}

// SetDensity sends DC2 # with density in the low five bits and break time
// in the high three.
func (e *Encoder) SetDensity(density, breakTime byte) error {
	n := breakTime<<5 | density&0x1F
	return e.emit(Command{Opcode: OpSetDensity, Payload: []byte{n}})
}

// WriteText encodes text in the active codepage and sends it raw.
// Unrepresentable runes degrade to the placeholder character; the ticket
// keeps printing.
func (e *Encoder) WriteText(text string) error {
	if !e.cp.Representable(text) {
		e.log.Debug("placeholder substitution",
			zap.String("codepage", e.cp.Name),
			zap.String("text", text))
	}
	return e.emit(Command{Opcode: OpText, Payload: e.cp.EncodeText(text)})
}

// WriteLine is WriteText followed by a line feed.
func (e *Encoder) WriteLine(text string) error {
	if err := e.WriteText(text); err != nil {
		return err
	}
	return e.LineFeed()
}

// LineFeed advances the paper one line.
func (e *Encoder) LineFeed() error {
	return e.emit(Command{Opcode: OpLineFeed})
}

// Feed advances the paper n lines.
func (e *Encoder) Feed(n int) error {
	for i := 0; i < n; i++ {
		if err := e.LineFeed(); err != nil {
			return err
		}
	}
	return nil
}

// Cut sends GS V. Full cut severs the ticket; partial leaves a tab.
func (e *Encoder) Cut(full bool) error {
	var m byte
	if !full {
		m = 1
	}
	return e.emit(Command{Opcode: OpCut, Payload: []byte{m}})
}

// PrintImage thresholds img to the head width and sends it as one raster
// command. The image is printed at the current alignment.
func (e *Encoder) PrintImage(img image.Image) error {
	return e.sendRaster(raster.Encode(img, e.widthPx))
}

// PrintImageDithered is PrintImage with Floyd-Steinberg dithering, for
// photographic sources.
func (e *Encoder) PrintImageDithered(img image.Image) error {
	return e.sendRaster(raster.EncodeDithered(img, e.widthPx))
}

func (e *Encoder) sendRaster(ri *raster.Image) error {
	ratio := ri.InkRatio()
	switch {
	case ratio == 0:
		e.log.Warn("raster has zero ink, likely an upstream rendering bug",
			zap.Int("width_px", ri.WidthPx), zap.Int("height_px", ri.HeightPx))
	case ratio < 0.002:
		e.log.Debug("raster is very light",
			zap.Float64("ink_ratio", ratio),
			zap.Int("width_px", ri.WidthPx), zap.Int("height_px", ri.HeightPx))
	}
	payload := append(ri.Header(), ri.Bits...)
	return e.emit(Command{Opcode: OpRasterImage, Payload: payload})
}

// PrintStyledLine prints one display line with per-line styling. Plain text
// the active codepage can represent goes out as device text and the head
// does its own wrapping; anything with emoji or out-of-repertoire runes is
// rendered off-device and sent as raster lines. Style is restored afterwards
// so lines do not leak attributes into each other.
func (e *Encoder) PrintStyledLine(line string, style LineStyle) error {
	runs := layout.Classify(line)

	plain := e.cp.Representable(line)
	for _, r := range runs {
		if r.IsEmoji {
			plain = false
		}
	}

	prev := e.state
	if err := e.applyStyle(style); err != nil {
		return err
	}

	if plain {
		if err := e.WriteLine(line); err != nil {
			return err
		}
		return e.restoreStyle(prev)
	}

	if e.renderer == nil {
		return fmt.Errorf("escpos: line %q needs rasterized text but no glyph renderer is configured", line)
	}
	scale := 1
	if style.DoubleWidth || style.DoubleHeight {
		scale = 2
	}
	images, err := e.renderer.RenderLine(runs, e.widthPx/scale, scale)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := e.PrintImage(img); err != nil {
			return err
		}
	}
	return e.restoreStyle(prev)
}

func (e *Encoder) applyStyle(style LineStyle) error {
	if style.Alignment != e.state.Alignment {
		if err := e.SetAlignment(style.Alignment); err != nil {
			return err
		}
	}
	if style.Bold != e.state.Bold {
		if err := e.SetBold(style.Bold); err != nil {
			return err
		}
	}
	next := e.state
	next.Font = style.Font
	next.Underline = style.Underline
	next.DoubleWidth = style.DoubleWidth
	next.DoubleHeight = style.DoubleHeight
	if next.StyleByte() != e.state.StyleByte() {
		return e.setStyle(next)
	}
	return nil
}

func (e *Encoder) restoreStyle(prev State) error {
	if e.state.Alignment != prev.Alignment {
		if err := e.SetAlignment(prev.Alignment); err != nil {
			return err
		}
	}
	if e.state.Bold != prev.Bold {
		if err := e.SetBold(prev.Bold); err != nil {
			return err
		}
	}
	if e.state.StyleByte() != prev.StyleByte() {
		if err := e.setStyle(prev); err != nil {
			return err
		}
	}
	return nil
}
