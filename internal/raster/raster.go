// Package raster converts monochrome bitmaps to and from the packed row
// format carried by the GS v 0 raster opcode. Packing is bit-exact: bit
// 7-(x%8) of byte y*rowBytes+x/8 encodes pixel (x,y), 1 = ink.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/makeworld-the-better-one/dither/v2"
)

// Threshold is the grayscale cutoff for binarization: values below it are
// ink. 140 rather than the naive 128 midpoint compensates for gray bleed on
// the thermal head. Calibration data for one physical printer; do not assume
// it generalizes.
const Threshold = 140

// Image is a packed 1-bit raster ready for the wire.
type Image struct {
	WidthPx  int
	HeightPx int
	Bits     []byte
}

// RowBytes is the padded byte count per pixel row.
func (ri *Image) RowBytes() int {
	return (ri.WidthPx + 7) / 8
}

func (ri *Image) String() string {
	return fmt.Sprintf("raster.Image(%dx%d, %d bytes)", ri.WidthPx, ri.HeightPx, len(ri.Bits))
}

// Header builds the xL xH yL yH parameter bytes of the raster opcode.
// xL+xH*256 is the row byte count, yL+yH*256 the row count.
func (ri *Image) Header() []byte {
	rb := ri.RowBytes()
	return []byte{
		byte(rb & 0xFF),
		byte((rb >> 8) & 0xFF),
		byte(ri.HeightPx & 0xFF),
		byte((ri.HeightPx >> 8) & 0xFF),
	}
}

// InkRatio is the fraction of set bits over all addressable bits. Used as a
// sanity diagnostic: exactly 0 almost always means an upstream encoding bug
// rather than a legitimately blank image.
func (ri *Image) InkRatio() float64 {
	total := ri.RowBytes() * 8 * ri.HeightPx
	if total == 0 {
		return 0
	}
	set := 0
	for _, b := range ri.Bits {
		for b != 0 {
			set++
			b &= b - 1
		}
	}
	return float64(set) / float64(total)
}

// Bit returns the bit for pixel (x,y), either 0 or 1.
func (ri *Image) Bit(x, y int) byte {
	idx := y*ri.RowBytes() + x/8
	return (ri.Bits[idx] >> (7 - x%8)) & 1
}

// Encode resamples img to at most maxWidthPx (Lanczos, matching what the
// original artwork pipeline used), thresholds it to 1-bit and packs it.
func Encode(img image.Image, maxWidthPx int) *Image {
	if img.Bounds().Dx() > maxWidthPx {
		img = imaging.Resize(img, maxWidthPx, 0, imaging.Lanczos)
	}
	return Pack(Binarize(img))
}

// EncodeDithered is Encode with Floyd-Steinberg dithering instead of a hard
// threshold, for photographic sources where flat thresholding crushes
// midtones.
func EncodeDithered(img image.Image, maxWidthPx int) *Image {
	if img.Bounds().Dx() > maxWidthPx {
		img = imaging.Resize(img, maxWidthPx, 0, imaging.Lanczos)
	}
	d := dither.NewDitherer([]color.Color{color.Black, color.White})
	d.Matrix = dither.FloydSteinberg
	return Pack(Binarize(d.Dither(img)))
}

// Binarize converts img to a grayscale image holding only 0 (ink) and 255
// (blank), classified against Threshold.
func Binarize(img image.Image) *image.Gray {
	bounds := img.Bounds()
	bw := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := uint8((r + g + b) / 3 >> 8)
			if gray < Threshold {
				bw.SetGray(x, y, color.Gray{Y: 0})
			} else {
				bw.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return bw
}

// Pack maps an already-binarized grayscale image into the packed bit layout.
// Any pixel darker than Threshold sets its bit.
func Pack(bw *image.Gray) *Image {
	w, h := bw.Bounds().Dx(), bw.Bounds().Dy()
	rowBytes := (w + 7) / 8
	bits := make([]byte, rowBytes*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bw.GrayAt(x, y).Y < Threshold {
				bits[y*rowBytes+x/8] |= 1 << (7 - x%8)
			}
		}
	}
	return &Image{WidthPx: w, HeightPx: h, Bits: bits}
}

// Decode is the exact inverse of Pack: ink bits become 0, blank bits 255.
// decode(encode(img)) reproduces the threshold classification bit for bit;
// the round-trip tests depend on that being exact, not approximate.
func (ri *Image) Decode() *image.Gray {
	rowBytes := ri.RowBytes()
	w := rowBytes * 8 // row padding renders as blank pixels
	out := image.NewGray(image.Rect(0, 0, w, ri.HeightPx))
	for y := 0; y < ri.HeightPx; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if (ri.Bits[y*rowBytes+x/8]>>(7-x%8))&1 == 1 {
				v = 0
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// ParsePayload splits a raster opcode payload (xL xH yL yH followed by
// packed bits) back into an Image. A short header or missing payload bytes
// is a decode error: the caller skips that one command and keeps replaying.
func ParsePayload(p []byte) (*Image, error) {
	if len(p) < 4 {
		return nil, fmt.Errorf("raster: truncated header: %d bytes", len(p))
	}
	rowBytes := int(p[0]) | int(p[1])<<8
	height := int(p[2]) | int(p[3])<<8
	need := rowBytes * height
	body := p[4:]
	if len(body) < need {
		return nil, fmt.Errorf("raster: payload too short: got %d bytes, want %d", len(body), need)
	}
	bits := make([]byte, need)
	copy(bits, body[:need])
	return &Image{WidthPx: rowBytes * 8, HeightPx: height, Bits: bits}, nil
}
