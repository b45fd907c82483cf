// Package models defines the structured transcription result types.
package models

import (
	"fmt"
	"math"
	"regexp"
)

// tagPattern is the fixed shape of the model's decoded output: four
// bracketed tags followed by optional free text. Tags never contain '|'.
// Example: '<|en|><|NEUTRAL|><|Speech|><|woitn|>as you can see'
var tagPattern = regexp.MustCompile(`^<\|([^|]+)\|><\|([^|]+)\|><\|([^|]+)\|><\|([^|]+)\|>(.*)$`)

// ParseError reports decoded text that does not match the four-tag
// grammar. It indicates a model/tokenizer mismatch upstream and is never
// retried.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse transcription output: %q", e.Input)
}

// AlignmentItem is one aligned word along with its start time (seconds
// from the start of the recording) and duration.
type AlignmentItem struct {
	Symbol   string  `json:"symbol"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns start+duration rounded to 8 decimal digits.
func (a AlignmentItem) End() float64 {
	return Round(a.Start+a.Duration, 8)
}

// Transcription is the final structured result for one audio item.
// Words is only populated when timestamped decoding was requested.
type Transcription struct {
	Language string          `json:"language"`
	Emotion  string          `json:"emotion"`
	Event    string          `json:"event"`
	Textnorm string          `json:"textnorm"`
	Text     string          `json:"text"`
	Words    []AlignmentItem `json:"words,omitempty"`
}

// Parse builds a Transcription from the model's decoded output string.
func Parse(s string) (Transcription, error) {
	m := tagPattern.FindStringSubmatch(s)
	if m == nil {
		return Transcription{}, &ParseError{Input: s}
	}
	return Transcription{
		Language: m[1],
		Emotion:  m[2],
		Event:    m[3],
		Textnorm: m[4],
		Text:     m[5],
	}, nil
}

// ToDict returns the serializable scalar fields. Word alignments are
// intentionally excluded: they are only reconstructible with the timing
// context of the decode that produced them.
func (t Transcription) ToDict() map[string]string {
	return map[string]string{
		"language": t.Language,
		"emotion":  t.Emotion,
		"event":    t.Event,
		"textnorm": t.Textnorm,
		"text":     t.Text,
	}
}

// FromDict restores a Transcription from its ToDict form.
func FromDict(d map[string]string) Transcription {
	return Transcription{
		Language: d["language"],
		Emotion:  d["emotion"],
		Event:    d["event"],
		Textnorm: d["textnorm"],
		Text:     d["text"],
	}
}

// Round rounds x to the given number of decimal digits.
func Round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
