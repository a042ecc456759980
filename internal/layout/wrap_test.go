package layout

import (
	"strings"
	"testing"
)

// fixedMeasurer gives every text rune 10px and every emoji rune 20px, which
// keeps the arithmetic in these tests readable.
type fixedMeasurer struct{}

func (fixedMeasurer) Measure(text string, f FontRef) int {
	w := 10
	if f == FontEmoji {
		w = 20
	}
	return w * len([]rune(text))
}

func wrapText(t *testing.T, text string, maxWidthPx int) []Line {
	t.Helper()
	return Wrap(Classify(text), fixedMeasurer{}, maxWidthPx, 10)
}

func TestWrapWidthBound(t *testing.T) {
	lines := wrapText(t, "the quick brown fox jumps over it", 90)
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}
	for i, line := range lines {
		if line.Width > 90 {
			t.Errorf("line %d width %d exceeds bound: %q", i, line.Width, line.Text())
		}
	}
}

func TestWrapContentPreservation(t *testing.T) {
	original := "the quick  brown fox   jumps"
	lines := wrapText(t, original, 90)
	var parts []string
	for _, line := range lines {
		parts = append(parts, line.Text())
	}
	got := strings.Join(parts, " ")
	want := strings.Join(strings.Fields(original), " ")
	if got != want {
		t.Fatalf("content changed: got %q, want %q", got, want)
	}
}

func TestWrapFitsOnOneLine(t *testing.T) {
	lines := wrapText(t, "ab cd", 100)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Text() != "ab cd" {
		t.Errorf("text = %q", lines[0].Text())
	}
	if lines[0].Width != 50 {
		t.Errorf("width = %d, want 50", lines[0].Width)
	}
}

func TestWrapEmojiAtomic(t *testing.T) {
	lines := wrapText(t, "Bonjour 🎉", 80)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(lines), lines)
	}
	if lines[0].Text() != "Bonjour" {
		t.Errorf("line 0 = %q", lines[0].Text())
	}
	if lines[1].Text() != "🎉" || !lines[1].Runs[0].Run.IsEmoji {
		t.Errorf("line 1 = %+v", lines[1])
	}
}

func TestWrapEmojiNeverFragmented(t *testing.T) {
	// Bound tighter than a single emoji: the run still goes out whole.
	lines := wrapText(t, "🎉", 10)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Text() != "🎉" {
		t.Errorf("emoji fragmented: %q", lines[0].Text())
	}
	if lines[0].Width != 20 {
		t.Errorf("width = %d, want 20 (allowed to exceed bound)", lines[0].Width)
	}
}

func TestWrapSplitsUnbreakableWord(t *testing.T) {
	lines := wrapText(t, "abcdefgh", 30)
	want := []string{"abc", "def", "gh"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i].Text() != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i].Text(), want[i])
		}
	}
}

func TestWrapZeroWidthPassthrough(t *testing.T) {
	lines := Wrap(Classify("whatever fits"), fixedMeasurer{}, 0, 10)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Text() != "whatever fits" {
		t.Errorf("text = %q", lines[0].Text())
	}
}

func TestWrapEmptyInput(t *testing.T) {
	lines := Wrap(nil, fixedMeasurer{}, 100, 10)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if len(lines[0].Runs) != 1 || lines[0].Runs[0].Run.Content != "" {
		t.Errorf("want one empty run, got %+v", lines[0].Runs)
	}
}

func TestWrapOffsetsIncrease(t *testing.T) {
	lines := wrapText(t, "ab ☕ cd", 200)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	prev := -1
	for _, pr := range lines[0].Runs {
		if pr.XOffset <= prev {
			t.Fatalf("offsets not increasing: %+v", lines[0].Runs)
		}
		prev = pr.XOffset
	}
}
