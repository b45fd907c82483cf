package decoder

import (
	"reflect"
	"testing"
)

// testTokenizer is a minimal word-piece tokenizer: ids map to fixed
// pieces, and wordBegin marks ids that start a new word.
type testTokenizer struct {
	pieces    map[int32]string
	wordBegin map[int32]bool
}

func (t testTokenizer) Decode(ids []int32) string {
	var out string
	for _, id := range ids {
		out += t.pieces[id]
	}
	return out
}

func (t testTokenizer) IsWordBegin(id int32) bool { return t.wordBegin[id] }

// oneHot builds logits whose per-frame argmax follows ids exactly.
func oneHot(ids []int32, vocab int) Logits {
	frames := make([][]float32, len(ids))
	for t, id := range ids {
		row := make([]float32, vocab)
		row[id] = 1
		frames[t] = row
	}
	return Logits{Frames: frames, Length: len(ids)}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
		want []int32
	}{
		{"duplicates and blanks", []int32{0, 3, 3, 0, 5, 5, 5, 0, 3}, []int32{3, 5, 3}},
		{"all blanks", []int32{0, 0, 0}, []int32{}},
		{"empty", []int32{}, []int32{}},
		{"repeated symbol split by blank", []int32{7, 0, 7}, []int32{7, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collapse(tt.in, 0)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Collapse(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollapse_Idempotent(t *testing.T) {
	// A sequence free of consecutive duplicates and blanks is unchanged.
	in := []int32{3, 5, 3, 7, 2}
	got := Collapse(in, 0)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("Collapse(%v) = %v, want unchanged", in, got)
	}
}

func TestGreedy_RespectsLength(t *testing.T) {
	l := oneHot([]int32{3, 3, 0, 5, 7, 7}, 10)
	l.Length = 4 // frames beyond the true length are padding

	got := Greedy(l, 0)
	want := []int32{3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Greedy = %v, want %v", got, want)
	}
}

func TestArgmax(t *testing.T) {
	if got := Argmax([]float32{0.1, 0.7, 0.2}); got != 1 {
		t.Errorf("Argmax = %d, want 1", got)
	}
	if got := Argmax([]float32{0.9}); got != 0 {
		t.Errorf("Argmax = %d, want 0", got)
	}
}

func alignConfig() Config {
	return Config{BlankID: 0, SubsamplingFactor: 6, FrameShiftMs: 10}
}

func TestAligned_SingleFrameWord(t *testing.T) {
	tok := testTokenizer{
		pieces:    map[int32]string{1: "hi"},
		wordBegin: map[int32]bool{1: true},
	}
	// Token emitted at frame 5 only.
	ids := []int32{0, 0, 0, 0, 0, 1, 0}
	words := Aligned(oneHot(ids, 4), alignConfig(), tok)

	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	w := words[0]
	if w.Symbol != "hi" {
		t.Errorf("Symbol = %q, want \"hi\"", w.Symbol)
	}
	// frame 5 * subsampling 6 * 10ms = 0.3s
	if w.Start != 0.3 {
		t.Errorf("Start = %v, want 0.3", w.Start)
	}
	if w.Duration != 0 {
		t.Errorf("Duration = %v, want 0 for a single-frame word", w.Duration)
	}
}

func TestAligned_WordGrouping(t *testing.T) {
	tok := testTokenizer{
		pieces:    map[int32]string{1: "hel", 2: "lo", 3: "world"},
		wordBegin: map[int32]bool{1: true, 3: true},
	}
	ids := []int32{1, 1, 0, 2, 0, 0, 3, 3, 0}
	words := Aligned(oneHot(ids, 4), alignConfig(), tok)

	if len(words) != 2 {
		t.Fatalf("got %d words, want 2: %+v", len(words), words)
	}
	if words[0].Symbol != "hello" || words[1].Symbol != "world" {
		t.Errorf("symbols = %q, %q", words[0].Symbol, words[1].Symbol)
	}

	// "hello" spans frames [0,3]: start 0, end 0.18, duration 0.18.
	if words[0].Start != 0 || words[0].Duration != 0.18 {
		t.Errorf("hello alignment = (%v, %v), want (0, 0.18)", words[0].Start, words[0].Duration)
	}
	// "world" spans frames [6,6].
	if words[1].Start != 0.36 || words[1].Duration != 0 {
		t.Errorf("world alignment = (%v, %v), want (0.36, 0)", words[1].Start, words[1].Duration)
	}
}

func TestAligned_LeadingPieceWithoutWordBegin(t *testing.T) {
	// A continuation piece with no preceding word-begin still opens a
	// word rather than being dropped.
	tok := testTokenizer{
		pieces:    map[int32]string{2: "lo"},
		wordBegin: map[int32]bool{},
	}
	words := Aligned(oneHot([]int32{0, 2, 0}, 4), alignConfig(), tok)
	if len(words) != 1 || words[0].Symbol != "lo" {
		t.Fatalf("words = %+v, want single \"lo\"", words)
	}
}

func TestAligned_EmptyAndNegativeLength(t *testing.T) {
	tok := testTokenizer{pieces: map[int32]string{}, wordBegin: map[int32]bool{}}

	if words := Aligned(Logits{Length: 0}, alignConfig(), tok); len(words) != 0 {
		t.Errorf("zero length produced %d words", len(words))
	}
	// Negative lengths appear when the metadata prefix exceeds the
	// model output; alignment must yield nothing, not fail.
	if words := Aligned(Logits{Length: -2}, alignConfig(), tok); len(words) != 0 {
		t.Errorf("negative length produced %d words", len(words))
	}
}
