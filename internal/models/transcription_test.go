package models

import (
	"reflect"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Transcription
	}{
		{
			name:  "with text",
			input: "<|en|><|NEUTRAL|><|Speech|><|withitn|>As you can see.",
			want: Transcription{
				Language: "en", Emotion: "NEUTRAL", Event: "Speech",
				Textnorm: "withitn", Text: "As you can see.",
			},
		},
		{
			name:  "empty text",
			input: "<|nospeech|><|EMO_UNKNOWN|><|Laughter|><|woitn|>",
			want: Transcription{
				Language: "nospeech", Emotion: "EMO_UNKNOWN", Event: "Laughter",
				Textnorm: "woitn", Text: "",
			},
		},
		{
			name:  "text containing angle brackets",
			input: "<|zh|><|HAPPY|><|Speech|><|woitn|>a < b > c",
			want: Transcription{
				Language: "zh", Emotion: "HAPPY", Event: "Speech",
				Textnorm: "woitn", Text: "a < b > c",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"no tags at all",
		"<|en|><|NEUTRAL|><|Speech|>missing fourth tag",
		"<|en|NEUTRAL|><|Speech|><|woitn|><|x|>pipe inside tag",
		"prefix<|en|><|NEUTRAL|><|Speech|><|woitn|>text",
	}
	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want ParseError", in)
		} else if _, ok := err.(*ParseError); !ok {
			t.Errorf("Parse(%q) returned %T, want *ParseError", in, err)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	orig := Transcription{
		Language: "en", Emotion: "NEUTRAL", Event: "Speech",
		Textnorm: "woitn", Text: "hello world",
	}
	encoded := "<|" + orig.Language + "|><|" + orig.Emotion + "|><|" + orig.Event + "|><|" + orig.Textnorm + "|>" + orig.Text
	got, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse round trip failed: %v", err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("round trip = %+v, want %+v", got, orig)
	}
}

func TestToDict_ExcludesWords(t *testing.T) {
	tr := Transcription{
		Language: "en", Emotion: "NEUTRAL", Event: "Speech",
		Textnorm: "woitn", Text: "hi",
		Words: []AlignmentItem{{Symbol: "hi", Start: 0.1, Duration: 0.2}},
	}
	d := tr.ToDict()
	if len(d) != 5 {
		t.Fatalf("ToDict has %d fields, want 5", len(d))
	}
	if _, ok := d["words"]; ok {
		t.Error("ToDict must not carry word alignments")
	}

	restored := FromDict(d)
	tr.Words = nil
	if !reflect.DeepEqual(restored, tr) {
		t.Errorf("FromDict(ToDict()) = %+v, want %+v", restored, tr)
	}
}

func TestAlignmentItem_End(t *testing.T) {
	a := AlignmentItem{Symbol: "w", Start: 0.1, Duration: 0.2}
	if got := a.End(); got != 0.3 {
		t.Errorf("End() = %v, want 0.3", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(0.123456789, 4); got != 0.1235 {
		t.Errorf("Round(0.123456789, 4) = %v, want 0.1235", got)
	}
	if got := Round(0.1+0.2, 8); got != 0.3 {
		t.Errorf("Round(0.1+0.2, 8) = %v, want 0.3", got)
	}
}
