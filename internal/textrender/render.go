package textrender

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"github.com/drukwerk/ticket-engine/internal/layout"
)

// Renderer draws classified runs onto per-line canvases. It satisfies both
// layout.Measurer and the encoder's GlyphRenderer, which guarantees the
// widths used for wrapping are the widths actually drawn.
type Renderer struct {
	fonts *FontSet
	log   *zap.Logger

	ascent     int
	lineHeight int
	spaceWidth int
}

// New builds a renderer over fonts. Metrics are taken from the taller of
// the two faces so mixed text/emoji lines share one baseline.
func New(fonts *FontSet, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	tm := fonts.Text.Metrics()
	em := fonts.Emoji.Metrics()
	ascent := tm.Ascent.Ceil()
	if a := em.Ascent.Ceil(); a > ascent {
		ascent = a
	}
	height := tm.Height.Ceil()
	if h := em.Height.Ceil(); h > height {
		height = h
	}
	return &Renderer{
		fonts:      fonts,
		log:        log,
		ascent:     ascent,
		lineHeight: height + 2,
		spaceWidth: font.MeasureString(fonts.Text, " ").Ceil(),
	}
}

func (r *Renderer) face(f layout.FontRef) font.Face {
	if f == layout.FontEmoji {
		return r.fonts.Emoji
	}
	return r.fonts.Text
}

// Measure implements layout.Measurer.
func (r *Renderer) Measure(text string, f layout.FontRef) int {
	return font.MeasureString(r.face(f), text).Ceil()
}

// SpaceWidth is the advance of a space in the text face.
func (r *Renderer) SpaceWidth() int { return r.spaceWidth }

// LineHeight is the canvas height of one rendered line before scaling.
func (r *Renderer) LineHeight() int { return r.lineHeight }

// RenderLine wraps runs into physical lines no wider than maxWidthPx and
// draws each onto its own white canvas, black ink. A scale above 1 enlarges
// the result with nearest-neighbor resampling so the hard pixel edges
// survive the later threshold pass.
func (r *Renderer) RenderLine(runs []layout.TextRun, maxWidthPx, scale int) ([]image.Image, error) {
	lines := layout.Wrap(runs, r, maxWidthPx, r.spaceWidth)
	out := make([]image.Image, 0, len(lines))
	for _, line := range lines {
		img := r.drawLine(line, maxWidthPx)
		if scale > 1 {
			b := img.Bounds()
			img = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *Renderer) drawLine(line layout.Line, widthPx int) image.Image {
	if widthPx < line.Width {
		widthPx = line.Width
	}
	if widthPx < 1 {
		widthPx = 1
	}
	ctx := gg.NewContext(widthPx, r.lineHeight)
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()
	ctx.SetRGB(0, 0, 0)
	for _, pr := range line.Runs {
		if pr.Run.Content == "" {
			continue
		}
		ctx.SetFontFace(r.face(pr.Font))
		ctx.DrawString(pr.Run.Content, float64(pr.XOffset), float64(r.ascent))
	}
	return ctx.Image()
}
