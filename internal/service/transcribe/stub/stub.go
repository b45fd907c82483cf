// Package stub provides a deterministic inference engine and tokenizer
// for tests and for running the service without model weights. The
// engine scripts its per-frame output from each item's true feature
// length, so distinct inputs decode to distinct, predictable text.
package stub

import (
	"context"
	"fmt"
	"strings"

	"ai-batch-transcription-service/internal/service/decoder"
)

// Token ids of the built-in vocabulary. Id 0 is the CTC blank.
const (
	Blank int32 = iota
	LangEN
	LangZH
	EmoNeutral
	EmoHappy
	EventSpeech
	EventMusic
	NormWoitn
	NormWithitn
	WordHello
	WordWorld
	WordGood
	PieceBye
	WordFrames
	Digit0 // Digit0..Digit9 are consecutive
)

var pieces = []string{
	"<blk>",
	"<|en|>",
	"<|zh|>",
	"<|NEUTRAL|>",
	"<|HAPPY|>",
	"<|Speech|>",
	"<|Music|>",
	"<|woitn|>",
	"<|withitn|>",
	"▁hello",
	"▁world",
	"▁good",
	"bye",
	"▁frames",
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
}

// VocabSize is the number of classes the stub engine scores per frame.
var VocabSize = len(pieces)

// Tokenizer detokenizes the stub vocabulary with the sentencepiece
// word-begin convention: pieces prefixed with U+2581 start a new word.
type Tokenizer struct{}

// NewTokenizer returns the stub tokenizer.
func NewTokenizer() *Tokenizer { return &Tokenizer{} }

// Decode concatenates pieces, turning word-begin markers into spaces.
// A marker directly after a tag boundary is dropped rather than turned
// into a space, matching how the real tokenizer renders tag prefixes.
func (t *Tokenizer) Decode(ids []int32) string {
	var b strings.Builder
	for _, id := range ids {
		if int(id) < len(pieces) {
			b.WriteString(pieces[id])
		}
	}
	s := strings.ReplaceAll(b.String(), "|>▁", "|>")
	s = strings.ReplaceAll(s, "▁", " ")
	return strings.TrimSpace(s)
}

// IsWordBegin reports whether the piece carries the word-begin marker.
func (t *Tokenizer) IsWordBegin(id int32) bool {
	if int(id) >= len(pieces) {
		return false
	}
	return strings.HasPrefix(pieces[id], "▁")
}

// Script produces the per-frame argmax id sequence for one item given
// its true feature length and the request hints. The first four ids are
// the metadata tag prefix.
type Script func(featLen int, language, textnorm string) []int32

// DefaultScript emits the tag prefix followed by "frames<N>" where N is
// the item's true feature length, with blanks and duplicates thrown in
// to exercise CTC collapsing.
func DefaultScript(featLen int, language, textnorm string) []int32 {
	lang := LangEN
	if language == "zh" {
		lang = LangZH
	}
	norm := NormWoitn
	if textnorm == "withitn" {
		norm = NormWithitn
	}
	ids := []int32{lang, EmoNeutral, EventSpeech, norm}

	ids = append(ids, Blank, WordFrames, WordFrames, Blank)
	for _, d := range fmt.Sprintf("%d", featLen) {
		digit := Digit0 + int32(d-'0')
		ids = append(ids, digit, digit, Blank)
	}
	return ids
}

// Engine is a deterministic Inference implementation. Each item's logits
// are one-hot encodings of the scripted id sequence.
type Engine struct {
	Script Script

	// CheckPadding makes Infer fail when the padded region beyond an
	// item's true length carries non-zero features, enforcing the
	// padding contract on callers.
	CheckPadding bool
}

// NewEngine returns an engine with the default script and padding checks
// enabled.
func NewEngine() *Engine {
	return &Engine{Script: DefaultScript, CheckPadding: true}
}

// Infer scripts one logits sequence per item.
func (e *Engine) Infer(ctx context.Context, feats [][][]float32, lengths []int, language, textnorm string) ([]decoder.Logits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(feats) != len(lengths) {
		return nil, fmt.Errorf("stub engine: %d feature matrices but %d lengths", len(feats), len(lengths))
	}

	out := make([]decoder.Logits, len(lengths))
	for i, l := range lengths {
		if e.CheckPadding {
			if err := checkPadding(feats[i], l); err != nil {
				return nil, fmt.Errorf("stub engine: item %d: %w", i, err)
			}
		}
		ids := e.Script(l, language, textnorm)
		frames := make([][]float32, len(ids))
		for t, id := range ids {
			row := make([]float32, VocabSize)
			row[id] = 1
			frames[t] = row
		}
		out[i] = decoder.Logits{Frames: frames, Length: len(ids)}
	}
	return out, nil
}

func checkPadding(feat [][]float32, length int) error {
	for t := length; t < len(feat); t++ {
		for _, v := range feat[t] {
			if v != 0 {
				return fmt.Errorf("non-zero feature at padded frame %d", t)
			}
		}
	}
	return nil
}
