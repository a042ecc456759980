package layout

import "strings"

// FontRef names the face a run is measured and rendered with.
type FontRef int

const (
	FontText FontRef = iota
	FontEmoji
)

// Measurer reports the rendered pixel width of text in a given face. The
// engine never measures itself; metrics always come from the caller's font
// stack so layout and rendering cannot disagree.
type Measurer interface {
	Measure(text string, font FontRef) int
}

// PlacedRun is one run positioned on a physical line.
type PlacedRun struct {
	Run     TextRun
	XOffset int
	Font    FontRef
}

// Line is one physical output line. Width is the measured total; alignment
// against the paper width is resolved by the caller.
type Line struct {
	Runs  []PlacedRun
	Width int
}

// Text concatenates the line's run contents.
func (l Line) Text() string {
	var sb strings.Builder
	for _, pr := range l.Runs {
		sb.WriteString(pr.Run.Content)
	}
	return sb.String()
}

type lineBuilder struct {
	runs  []PlacedRun
	width int
}

func (b *lineBuilder) place(content string, font FontRef, w int) {
	b.runs = append(b.runs, PlacedRun{
		Run:     TextRun{Content: content, IsEmoji: font == FontEmoji},
		XOffset: b.width,
		Font:    font,
	})
	b.width += w
}

// appendWord joins word onto the trailing text run when there is one,
// otherwise starts a new run at the current edge.
func (b *lineBuilder) appendWord(word string, wordW, spaceW int) {
	if n := len(b.runs); n > 0 && b.runs[n-1].Font == FontText {
		b.runs[n-1].Run.Content += " " + word
		b.width += spaceW + wordW
		return
	}
	b.place(word, FontText, wordW)
}

// Wrap greedily packs runs into lines no wider than maxWidthPx. Emoji runs
// are atomic: a run that does not fit moves whole to the next line and may
// alone exceed the bound. Text runs break on whitespace; a single word wider
// than the bound on an empty line is split character by character. A
// non-positive maxWidthPx disables wrapping and returns the input as one
// line.
func Wrap(runs []TextRun, m Measurer, maxWidthPx, spaceWidthPx int) []Line {
	if maxWidthPx <= 0 {
		return []Line{passthrough(runs, m)}
	}

	var lines []Line
	cur := &lineBuilder{}

	flush := func() {
		lines = append(lines, Line{Runs: cur.runs, Width: cur.width})
		cur.runs = nil
		cur.width = 0
	}

	for _, run := range runs {
		if run.IsEmoji {
			w := m.Measure(run.Content, FontEmoji)
			if cur.width > 0 && cur.width+w > maxWidthPx {
				flush()
			}
			cur.place(run.Content, FontEmoji, w)
			continue
		}

		for _, word := range strings.Fields(run.Content) {
			wordW := m.Measure(word, FontText)
			sep := 0
			if cur.width > 0 {
				sep = spaceWidthPx
			}
			if cur.width+sep+wordW <= maxWidthPx {
				cur.appendWord(word, wordW, sep)
				continue
			}
			if cur.width > 0 {
				flush()
			}
			if wordW <= maxWidthPx {
				cur.place(word, FontText, wordW)
				continue
			}
			splitLongWord(word, m, maxWidthPx, cur, flush)
		}
	}

	if len(cur.runs) > 0 || len(lines) == 0 {
		flush()
	}
	for i := range lines {
		if len(lines[i].Runs) == 0 {
			lines[i].Runs = []PlacedRun{{Run: TextRun{}, Font: FontText}}
		}
	}
	return lines
}

// splitLongWord force-breaks an unbreakable word, emitting a line whenever
// the accumulated width would overflow.
func splitLongWord(word string, m Measurer, maxWidthPx int, cur *lineBuilder, flush func()) {
	var chunk strings.Builder
	chunkW := 0
	for _, r := range word {
		rw := m.Measure(string(r), FontText)
		if chunkW+rw > maxWidthPx && chunk.Len() > 0 {
			cur.place(chunk.String(), FontText, chunkW)
			flush()
			chunk.Reset()
			chunkW = 0
		}
		chunk.WriteRune(r)
		chunkW += rw
	}
	if chunk.Len() > 0 {
		cur.place(chunk.String(), FontText, chunkW)
	}
}

func passthrough(runs []TextRun, m Measurer) Line {
	b := &lineBuilder{}
	for _, run := range runs {
		font := FontText
		if run.IsEmoji {
			font = FontEmoji
		}
		b.place(run.Content, font, m.Measure(run.Content, font))
	}
	if len(b.runs) == 0 {
		b.runs = []PlacedRun{{Run: TextRun{}, Font: FontText}}
	}
	return Line{Runs: b.runs, Width: b.width}
}
