// Package audio models the supported audio input representations and the
// duration-based ordering applied before batching.
//
// A Source is exactly one of: a file path, an in-memory mono waveform, or
// an externally managed Cut. All three reduce to a mono waveform at the
// model's sampling rate via Load.
package audio

import (
	"fmt"
	"strings"
)

// Kind identifies which representation a Source holds.
type Kind int

const (
	KindNone Kind = iota
	KindPath
	KindWaveform
	KindCut
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindWaveform:
		return "waveform"
	case KindCut:
		return "cut"
	default:
		return "none"
	}
}

// Cut is an externally managed audio segment. It exposes its duration in
// seconds and can materialize itself as a mono waveform at an arbitrary
// sampling rate.
type Cut interface {
	Duration() float64
	LoadAudio(sampleRate int) ([]float32, error)
}

// UnsupportedAudioError reports an input item the pipeline cannot
// consume: an unknown representation or non-mono audio.
type UnsupportedAudioError struct {
	Reason string
}

func (e *UnsupportedAudioError) Error() string {
	return fmt.Sprintf("unsupported audio: %s", e.Reason)
}

// MixedTypeError reports a transcription request mixing more than one
// audio representation. Duration proxies of different kinds are not
// comparable, so ordering such a list is rejected up front.
type MixedTypeError struct {
	Kinds []Kind
}

func (e *MixedTypeError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = k.String()
	}
	return fmt.Sprintf("mixed audio types in one request: %s", strings.Join(names, ", "))
}

// minSamples is the zero-pad floor applied to waveforms before feature
// extraction. Shorter clips are padded up to exactly this many samples.
const minSamples = 1000

// Source is one transcribable audio item.
type Source struct {
	kind     Kind
	path     string
	waveform []float32
	cut      Cut
}

// FromPath wraps an audio file path.
func FromPath(path string) Source {
	return Source{kind: KindPath, path: path}
}

// FromWaveform wraps an in-memory mono waveform.
func FromWaveform(w []float32) Source {
	return Source{kind: KindWaveform, waveform: w}
}

// FromChannels wraps a channel-major waveform. Only mono audio is
// supported; multi-channel input yields UnsupportedAudioError.
func FromChannels(channels [][]float32) (Source, error) {
	if len(channels) != 1 {
		return Source{}, &UnsupportedAudioError{
			Reason: fmt.Sprintf("only mono audio is supported, got %d channels", len(channels)),
		}
	}
	return FromWaveform(channels[0]), nil
}

// FromCut wraps an externally managed cut.
func FromCut(c Cut) Source {
	return Source{kind: KindCut, cut: c}
}

// Kind reports which representation this source holds.
func (s Source) Kind() Kind { return s.kind }

// Path returns the wrapped file path for KindPath sources.
func (s Source) Path() string { return s.path }

// Load materializes the source as a mono waveform at sampleRate. Clips
// shorter than the minimum floor are zero-padded up to it; longer clips
// are returned untouched.
func (s Source) Load(sampleRate int) ([]float32, error) {
	var (
		w   []float32
		err error
	)
	switch s.kind {
	case KindWaveform:
		w = s.waveform
	case KindPath:
		w, err = loadFile(s.path, sampleRate)
	case KindCut:
		w, err = s.cut.LoadAudio(sampleRate)
	default:
		return nil, &UnsupportedAudioError{Reason: "source holds no audio"}
	}
	if err != nil {
		return nil, err
	}
	if len(w) < minSamples {
		padded := make([]float32, minSamples)
		copy(padded, w)
		return padded, nil
	}
	return w, nil
}
