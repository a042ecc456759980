package raster

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func aRandomBitmap() *image.Gray {
	width, height := 1+rand.IntN(400), 1+rand.IntN(120)
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			if rand.IntN(2) == 1 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func solidBitmap(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func assertSameClassification(t *testing.T, want *image.Gray, got *image.Gray) {
	t.Helper()
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			wantInk := want.GrayAt(x, y).Y < Threshold
			gotInk := got.GrayAt(x, y).Y < Threshold
			if wantInk != gotInk {
				t.Fatalf("pixel (%d,%d): want ink=%v, got ink=%v", x, y, wantInk, gotInk)
			}
		}
	}
}

func TestRoundTripMany(t *testing.T) {
	const testCaseCount = 30
	for i := range testCaseCount {
		src := aRandomBitmap()
		t.Run(fmt.Sprintf("case %d %dx%d", i, src.Bounds().Dx(), src.Bounds().Dy()), func(t *testing.T) {
			ri := Pack(Binarize(src))
			decoded := ri.Decode()
			assertSameClassification(t, src, decoded)

			again := Pack(decoded)
			if ri.HeightPx != again.HeightPx || ri.RowBytes() != again.RowBytes() {
				t.Fatalf("repack changed dimensions: %s vs %s", ri, again)
			}
			for j := range ri.Bits {
				if ri.Bits[j] != again.Bits[j] {
					t.Fatalf("repack changed byte %d: %02x vs %02x", j, ri.Bits[j], again.Bits[j])
				}
			}
		})
	}
}

func TestAllBlack(t *testing.T) {
	ri := Encode(solidBitmap(384, 40, 0), 384)
	if rb := ri.RowBytes(); rb != 48 {
		t.Fatalf("row bytes = %d, want 48", rb)
	}
	if len(ri.Bits) != 48*40 {
		t.Fatalf("bits length = %d, want %d", len(ri.Bits), 48*40)
	}
	for i, b := range ri.Bits {
		if b != 0xFF {
			t.Fatalf("byte %d = %02x, want ff", i, b)
		}
	}
	if ratio := ri.InkRatio(); ratio != 1.0 {
		t.Fatalf("ink ratio = %v, want 1.0", ratio)
	}
}

func TestAllWhite(t *testing.T) {
	ri := Encode(solidBitmap(384, 40, 255), 384)
	for i, b := range ri.Bits {
		if b != 0x00 {
			t.Fatalf("byte %d = %02x, want 00", i, b)
		}
	}
	if ratio := ri.InkRatio(); ratio != 0 {
		t.Fatalf("ink ratio = %v, want 0", ratio)
	}
}

func TestThresholdBoundary(t *testing.T) {
	ri := Pack(Binarize(solidBitmap(8, 1, Threshold)))
	if ri.Bits[0] != 0x00 {
		t.Fatalf("gray %d should be blank, got %02x", Threshold, ri.Bits[0])
	}
	ri = Pack(Binarize(solidBitmap(8, 1, Threshold-1)))
	if ri.Bits[0] != 0xFF {
		t.Fatalf("gray %d should be ink, got %02x", Threshold-1, ri.Bits[0])
	}
}

func TestEncodeResizesToDeviceWidth(t *testing.T) {
	ri := Encode(solidBitmap(768, 80, 0), 384)
	if ri.WidthPx != 384 {
		t.Fatalf("width = %d, want 384", ri.WidthPx)
	}
}

func TestBitLayout(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 2))
	for y := range 2 {
		for x := range 10 {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(9, 1, color.Gray{Y: 0})

	ri := Pack(img)
	if ri.RowBytes() != 2 {
		t.Fatalf("row bytes = %d, want 2", ri.RowBytes())
	}
	// Pixel (0,0) is bit 7 of byte 0; pixel (9,1) is bit 6 of byte 3.
	if ri.Bits[0] != 0x80 {
		t.Errorf("byte 0 = %02x, want 80", ri.Bits[0])
	}
	if ri.Bits[3] != 0x40 {
		t.Errorf("byte 3 = %02x, want 40", ri.Bits[3])
	}
	if ri.Bit(0, 0) != 1 || ri.Bit(9, 1) != 1 || ri.Bit(1, 0) != 0 {
		t.Error("Bit() disagrees with packed layout")
	}
}

func TestHeader(t *testing.T) {
	ri := &Image{WidthPx: 384, HeightPx: 300, Bits: make([]byte, 48*300)}
	h := ri.Header()
	want := []byte{48, 0, 44, 1} // 48 row bytes, 300 = 44 + 1*256 rows
	for i := range want {
		if h[i] != want[i] {
			t.Fatalf("header = % x, want % x", h, want)
		}
	}
}

func TestParsePayloadTruncated(t *testing.T) {
	if _, err := ParsePayload([]byte{48, 0}); err == nil {
		t.Fatal("short header should fail")
	}
	// Header claims 2 rows of 2 bytes but only 3 payload bytes follow.
	if _, err := ParsePayload([]byte{2, 0, 2, 0, 0xFF, 0xFF, 0xFF}); err == nil {
		t.Fatal("short payload should fail")
	}
}

func TestParsePayloadRoundTrip(t *testing.T) {
	src := Pack(Binarize(solidBitmap(16, 3, 0)))
	payload := append(src.Header(), src.Bits...)
	got, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.HeightPx != 3 || got.RowBytes() != 2 {
		t.Fatalf("parsed %s, want 16x3", got)
	}
	for i := range src.Bits {
		if src.Bits[i] != got.Bits[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
}
