// Package layout splits display lines into text/emoji runs and wraps them
// into physical lines bounded by a pixel width.
package layout

import "strings"

// TextRun is a maximal substring of a display line that renders with one
// font: either plain text (printer codepage or text face) or emoji glyphs.
// Immutable once produced.
type TextRun struct {
	Content string
	IsEmoji bool
}

// Curated emoji/pictograph ranges for the run classifier. Deliberately a
// subset of Unicode's full extended-pictographic property: only the blocks
// the bundled emoji font actually covers.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // symbols extended-A
	{0x2600, 0x26FF},   // miscellaneous symbols
	{0x2700, 0x27BF},   // dingbats
}

const (
	zeroWidthJoiner   = 0x200D
	variationSelector = 0xFE0F
)

// IsEmojiRune reports whether r belongs to one of the classified emoji
// blocks.
func IsEmojiRune(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// isRegionIndicator matches the flag building blocks U+1F1E6..U+1F1FF.
// Flags are known-unsupported on the target head and are stripped outright
// rather than classified.
func isRegionIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// joinsEmoji reports whether r extends an emoji cluster already in
// progress (ZWJ sequences and the emoji presentation selector).
func joinsEmoji(r rune) bool {
	return r == zeroWidthJoiner || r == variationSelector
}

// Classify scans one display line and produces its ordered run list. Empty
// input yields a single empty text run. Deterministic, no failure modes.
func Classify(line string) []TextRun {
	var runs []TextRun
	var cur strings.Builder
	curEmoji := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		runs = append(runs, TextRun{Content: cur.String(), IsEmoji: curEmoji})
		cur.Reset()
	}

	for _, r := range line {
		if isRegionIndicator(r) {
			continue
		}
		emoji := IsEmojiRune(r) || (curEmoji && cur.Len() > 0 && joinsEmoji(r))
		if emoji != curEmoji {
			flush()
			curEmoji = emoji
		}
		cur.WriteRune(r)
	}
	flush()

	if len(runs) == 0 {
		runs = append(runs, TextRun{})
	}
	return runs
}
