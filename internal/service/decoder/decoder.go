// Package decoder implements CTC greedy decoding over per-frame logits:
// plain duplicate/blank collapsing, and a time-aligned greedy search that
// maps decoded words back to wall-clock offsets.
package decoder

import (
	"ai-batch-transcription-service/internal/models"
)

// Tokenizer maps token ids back to text. Word segmentation conventions
// (sentencepiece word-begin markers and the like) stay behind this
// interface; the decoder never inspects token strings itself.
type Tokenizer interface {
	// Decode detokenizes a token id sequence into text.
	Decode(ids []int32) string

	// IsWordBegin reports whether the id starts a new word in the
	// tokenizer's segmentation convention.
	IsWordBegin(id int32) bool
}

// Config carries the decode parameters taken from the model bundle.
type Config struct {
	BlankID           int32
	SubsamplingFactor int     // encoder output frames per acoustic frame
	FrameShiftMs      float64 // acoustic frame shift in milliseconds
}

// Logits holds one item's per-frame class scores. Frames beyond Length
// are padding and never inspected.
type Logits struct {
	Frames [][]float32 // [time][vocab]
	Length int
}

// Argmax returns the highest-scoring class of one frame.
func Argmax(frame []float32) int32 {
	best := int32(0)
	for i := 1; i < len(frame); i++ {
		if frame[i] > frame[best] {
			best = int32(i)
		}
	}
	return best
}

// Collapse merges consecutive duplicate ids and drops every blank. A
// sequence already free of duplicates and blanks comes back unchanged.
func Collapse(ids []int32, blankID int32) []int32 {
	out := make([]int32, 0, len(ids))
	prev := int32(-1)
	for _, id := range ids {
		if id != prev && id != blankID {
			out = append(out, id)
		}
		prev = id
	}
	return out
}

// Greedy performs plain CTC greedy decoding: per-frame argmax up to the
// true length, then duplicate/blank collapsing.
func Greedy(l Logits, blankID int32) []int32 {
	n := l.Length
	if n > len(l.Frames) {
		n = len(l.Frames)
	}
	ids := make([]int32, n)
	for t := 0; t < n; t++ {
		ids[t] = Argmax(l.Frames[t])
	}
	return Collapse(ids, blankID)
}

// wordSpan groups the token ids of one word with the encoder frame
// indices of its first and last emission.
type wordSpan struct {
	ids        []int32
	firstFrame int
	lastFrame  int
}

// Aligned runs greedy search with time alignment. Tokens are emitted at
// the first frame of each CTC run, grouped into words by the tokenizer's
// word-begin convention, and each word's frame span is converted to
// seconds via the subsampling factor and frame shift. A non-positive
// length yields an empty word list, not an error.
func Aligned(l Logits, cfg Config, tok Tokenizer) []models.AlignmentItem {
	var spans []wordSpan
	prev := int32(-1)
	n := l.Length
	if n > len(l.Frames) {
		n = len(l.Frames)
	}
	for t := 0; t < n; t++ {
		id := Argmax(l.Frames[t])
		emitted := id != cfg.BlankID && id != prev
		prev = id
		if !emitted {
			continue
		}
		if len(spans) == 0 || tok.IsWordBegin(id) {
			spans = append(spans, wordSpan{firstFrame: t, lastFrame: t})
		}
		last := &spans[len(spans)-1]
		last.ids = append(last.ids, id)
		last.lastFrame = t
	}

	words := make([]models.AlignmentItem, 0, len(spans))
	for _, sp := range spans {
		start := frameToSeconds(sp.firstFrame, cfg)
		end := frameToSeconds(sp.lastFrame, cfg)
		words = append(words, models.AlignmentItem{
			Symbol:   tok.Decode(sp.ids),
			Start:    start,
			Duration: models.Round(end-start, 4),
		})
	}
	return words
}

func frameToSeconds(frame int, cfg Config) float64 {
	return float64(frame*cfg.SubsamplingFactor) * cfg.FrameShiftMs / 1000
}
