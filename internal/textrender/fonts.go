// Package textrender rasterizes text lines that the printer cannot draw
// with its internal fonts: emoji and runes outside the active codepage.
// It owns the truetype font stack and implements the measurement interface
// the layout engine wraps against.
package textrender

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontError reports a font file that could not be loaded or parsed. The
// loader logs it and moves down the fallback chain instead of failing the
// print job.
type FontError struct {
	Path string
	Err  error
}

func (e *FontError) Error() string {
	return fmt.Sprintf("font %s: %v", e.Path, e.Err)
}

func (e *FontError) Unwrap() error { return e.Err }

// Fallback faces tried when the configured text font is unusable.
var systemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// FontSet holds the two faces a rendered line can mix.
type FontSet struct {
	Text  font.Face
	Emoji font.Face
}

// LoadFonts builds a FontSet from the configured paths. Either face degrades
// independently: a broken text font falls through the system paths down to
// the builtin bitmap face, a broken emoji font reuses the text face so emoji
// at least render as tofu boxes instead of crashing the job.
func LoadFonts(textPath, emojiPath string, size float64, log *zap.Logger) *FontSet {
	if log == nil {
		log = zap.NewNop()
	}

	text := loadWithFallback(textPath, size, log)
	emoji, err := loadFace(emojiPath, size)
	if err != nil {
		log.Warn("emoji font unavailable, emoji will render with the text face",
			zap.String("path", emojiPath), zap.Error(err))
		emoji = text
	}
	return &FontSet{Text: text, Emoji: emoji}
}

func loadWithFallback(path string, size float64, log *zap.Logger) font.Face {
	candidates := append([]string{path}, systemFontPaths...)
	for _, p := range candidates {
		if p == "" {
			continue
		}
		face, err := loadFace(p, size)
		if err != nil {
			log.Debug("skipping font candidate", zap.String("path", p), zap.Error(err))
			continue
		}
		if p != path {
			log.Warn("configured font unavailable, using fallback",
				zap.String("configured", path), zap.String("fallback", p))
		}
		return face
	}
	log.Warn("no truetype font available, using builtin bitmap face",
		zap.String("configured", path))
	return basicfont.Face7x13
}

func loadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FontError{Path: path, Err: err}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, &FontError{Path: path, Err: err}
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72}), nil
}
