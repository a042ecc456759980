package layout

import "testing"

func TestClassifyPlainText(t *testing.T) {
	runs := Classify("1. Ik ga naar de winkel")
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].IsEmoji {
		t.Error("plain text classified as emoji")
	}
	if runs[0].Content != "1. Ik ga naar de winkel" {
		t.Errorf("content = %q", runs[0].Content)
	}
}

func TestClassifyMixed(t *testing.T) {
	runs := Classify("Bonjour 🎉")
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2: %v", len(runs), runs)
	}
	if runs[0].Content != "Bonjour " || runs[0].IsEmoji {
		t.Errorf("run 0 = %+v", runs[0])
	}
	if runs[1].Content != "🎉" || !runs[1].IsEmoji {
		t.Errorf("run 1 = %+v", runs[1])
	}
}

func TestClassifyAlternating(t *testing.T) {
	runs := Classify("a☕b")
	want := []TextRun{
		{Content: "a", IsEmoji: false},
		{Content: "☕", IsEmoji: true},
		{Content: "b", IsEmoji: false},
	}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
}

func TestClassifyStripsFlags(t *testing.T) {
	// "NL" as regional indicators, between plain text.
	runs := Classify("go \U0001F1F3\U0001F1F1 go")
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1: %v", len(runs), runs)
	}
	if runs[0].Content != "go  go" {
		t.Errorf("content = %q, want flag stripped", runs[0].Content)
	}
}

func TestClassifyZWJSequence(t *testing.T) {
	// Woman technologist: emoji ZWJ emoji must stay one run.
	runs := Classify("\U0001F469‍\U0001F4BB")
	if len(runs) != 1 || !runs[0].IsEmoji {
		t.Fatalf("ZWJ sequence split: %v", runs)
	}
}

func TestClassifyEmpty(t *testing.T) {
	runs := Classify("")
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Content != "" || runs[0].IsEmoji {
		t.Errorf("run = %+v, want empty text run", runs[0])
	}
}
