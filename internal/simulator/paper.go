// Package simulator replays an ESC/POS byte stream against a virtual paper
// roll and produces the image a real head would have printed. It keeps its
// own interpreter state and shares nothing with the encoder except the
// bytes, which is what makes a replayed preview trustworthy.
package simulator

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Growth cap for the virtual roll. A runaway stream stops extending the
// canvas here instead of exhausting memory.
const maxPaperHeight = 10000

// bottomMargin is the blank strip kept below the last content on Close.
const bottomMargin = 50

// paper is the growable white canvas the simulator paints on. The cursor
// only moves down, like real paper through a head.
type paper struct {
	width  int
	height int
	ctx    *gg.Context
	y      int
}

func newPaper(widthPx int) *paper {
	initialHeight := 1000
	ctx := gg.NewContext(widthPx, initialHeight)
	ctx.SetColor(color.White)
	ctx.Clear()
	return &paper{width: widthPx, height: initialHeight, ctx: ctx}
}

// ensureHeight grows the canvas so that needed pixels fit below the cursor,
// doubling like the append idiom, clamped to maxPaperHeight.
func (p *paper) ensureHeight(needed int) {
	if p.y+needed <= p.height {
		return
	}
	newHeight := p.height * 2
	if newHeight < p.y+needed {
		newHeight = p.y + needed + 1000
	}
	if newHeight > maxPaperHeight {
		newHeight = maxPaperHeight
	}
	if newHeight <= p.height {
		return
	}
	newCtx := gg.NewContext(p.width, newHeight)
	newCtx.SetColor(color.White)
	newCtx.Clear()
	newCtx.DrawImage(p.ctx.Image(), 0, 0)
	p.ctx = newCtx
	p.height = newHeight
}

// reset blanks the roll and returns the cursor to the top, like tearing off
// and starting a fresh strip.
func (p *paper) reset() {
	p.ctx.SetColor(color.White)
	p.ctx.Clear()
	p.y = 0
}

// paste draws img at the cursor with the given x offset and advances the
// cursor past it.
func (p *paper) paste(img image.Image, x int) {
	h := img.Bounds().Dy()
	p.ensureHeight(h)
	p.ctx.DrawImage(img, x, p.y)
	p.advance(h)
}

// advance moves the cursor down, clamped to the canvas.
func (p *paper) advance(px int) {
	p.y += px
	if p.y > p.height {
		p.y = p.height
	}
}

// crop returns the printed portion of the roll plus the bottom margin.
func (p *paper) crop() image.Image {
	finalHeight := p.y + bottomMargin
	if finalHeight > p.height {
		finalHeight = p.height
	}
	img := p.ctx.Image()
	return img.(interface {
		SubImage(r image.Rectangle) image.Image
	}).SubImage(image.Rect(0, 0, p.width, finalHeight))
}
