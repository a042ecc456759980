// Package ticket drives the encoder for one formatted ticket: header
// images, body lines, inline image inserts, feed and cut. The formatter
// that produces the body lives upstream; this package only promises
// faithful emission order.
package ticket

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drukwerk/ticket-engine/internal/escpos"
	"github.com/drukwerk/ticket-engine/internal/layout"
)

// Insert places images immediately after the first body line containing
// AfterMarker. Each insert fires at most once.
type Insert struct {
	AfterMarker string
	Paths       []string
}

// Job is the collaborator boundary tuple: body text plus image placements.
type Job struct {
	ID           string
	Body         string
	HeaderImages []string
	Inserts      []Insert
}

// Pipeline prints jobs through one encoder. Plain body lines longer than
// widthChars are soft-wrapped at word boundaries before emission, because
// the head's own wrapping breaks mid-word.
type Pipeline struct {
	enc        *escpos.Encoder
	widthChars int
	log        *zap.Logger
}

// NewPipeline wires a pipeline to enc. widthChars is the ticket width in
// device font columns; zero disables soft wrapping.
func NewPipeline(enc *escpos.Encoder, widthChars int, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{enc: enc, widthChars: widthChars, log: log}
}

// Print emits one ticket: initialize, header images centered, body lines in
// order with inserts interleaved after their marker lines, then feed and a
// full cut. A transport failure aborts the job mid-stream; the paper is in
// an unknown partial state and the caller re-initializes before the next
// job.
func (p *Pipeline) Print(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := p.log.With(zap.String("job_id", job.ID))
	log.Info("printing ticket",
		zap.Int("header_images", len(job.HeaderImages)),
		zap.Int("inserts", len(job.Inserts)))

	if err := p.enc.Initialize(); err != nil {
		return err
	}

	for _, path := range job.HeaderImages {
		if err := p.printImageFile(path, log); err != nil {
			return err
		}
	}

	fired := make([]bool, len(job.Inserts))
	for _, line := range strings.Split(job.Body, "\n") {
		for _, wrapped := range softWrap(line, p.widthChars) {
			if err := p.enc.PrintStyledLine(wrapped, escpos.LineStyle{}); err != nil {
				return err
			}
		}
		for i, ins := range job.Inserts {
			if fired[i] || ins.AfterMarker == "" || !strings.Contains(line, ins.AfterMarker) {
				continue
			}
			fired[i] = true
			for _, path := range ins.Paths {
				if err := p.printImageFile(path, log); err != nil {
					return err
				}
			}
		}
	}
	for i, ins := range job.Inserts {
		if !fired[i] {
			log.Warn("insert marker not found in body", zap.String("marker", ins.AfterMarker))
		}
	}

	if err := p.enc.Feed(3); err != nil {
		return err
	}
	if err := p.enc.Cut(true); err != nil {
		return err
	}
	log.Info("ticket printed")
	return nil
}

func (p *Pipeline) printImageFile(path string, log *zap.Logger) error {
	img, err := loadImage(path)
	if err != nil {
		return err
	}
	if err := p.enc.SetAlignment(escpos.AlignCenter); err != nil {
		return err
	}
	if err := p.enc.PrintImage(img); err != nil {
		return err
	}
	if err := p.enc.SetAlignment(escpos.AlignLeft); err != nil {
		return err
	}
	log.Debug("image printed", zap.String("path", path))
	return p.enc.Feed(1)
}

// softWrap breaks line at word boundaries into pieces of at most widthChars
// runes. Words longer than the width go out unbroken; the head wraps those
// itself. Emoji-bearing lines are left alone, pixel wrapping handles them
// downstream.
func softWrap(line string, widthChars int) []string {
	if widthChars <= 0 || len([]rune(line)) <= widthChars {
		return []string{line}
	}
	for _, r := range line {
		if layout.IsEmojiRune(r) {
			return []string{line}
		}
	}
	var out []string
	var cur strings.Builder
	curLen := 0
	for _, word := range strings.Fields(line) {
		wl := len([]rune(word))
		switch {
		case curLen == 0:
		case curLen+1+wl <= widthChars:
			cur.WriteByte(' ')
			curLen++
		default:
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(word)
		curLen += wl
	}
	if cur.Len() > 0 || len(out) == 0 {
		out = append(out, cur.String())
	}
	return out
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ticket: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("ticket: decode %s: %w", path, err)
	}
	return img, nil
}
