// Package frontend turns mono waveforms into padded acoustic feature
// batches: log-mel filterbank energies, low-frame-rate stacking and
// mean/variance normalization, then zero-padding to a common batch
// length.
package frontend

import (
	"fmt"
	"math"
)

const (
	preemphasis = 0.97
	logFloor    = 1e-10
	melLowHz    = 20.0
)

// Config mirrors the frontend section of the model bundle configuration.
type Config struct {
	SampleRate    int
	FrameLengthMs float64
	FrameShiftMs  float64
	NumMels       int
	LFRm          int // frames stacked per output step
	LFRn          int // subsampling stride between output steps

	// CMVN shift/scale vectors sized to the post-LFR feature dim
	// (NumMels * LFRm). Empty slices disable normalization.
	CMVNMeans []float32 // added (negated means)
	CMVNVars  []float32 // multiplied (inverse stddevs)
}

// Feature is one item's feature matrix (time steps x dim) with its true
// length before any batch padding.
type Feature struct {
	Data   [][]float32
	Length int
}

// Dim returns the per-frame feature dimension after LFR stacking.
func (c Config) Dim() int { return c.NumMels * c.LFRm }

// Extractor computes features for one waveform at a time. It is safe for
// concurrent use once constructed.
type Extractor struct {
	cfg      Config
	frameLen int
	shift    int
	nfft     int
	window   []float64
	mel      [][]float64 // numMels x nfft/2+1
}

// NewExtractor precomputes the analysis window and mel filterbank.
func NewExtractor(cfg Config) *Extractor {
	frameLen := int(float64(cfg.SampleRate) * cfg.FrameLengthMs / 1000)
	shift := int(float64(cfg.SampleRate) * cfg.FrameShiftMs / 1000)
	nfft := nextPow2(frameLen)

	window := make([]float64, frameLen)
	for i := range window {
		// Hamming
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(frameLen-1))
	}

	return &Extractor{
		cfg:      cfg,
		frameLen: frameLen,
		shift:    shift,
		nfft:     nfft,
		window:   window,
		mel:      melBank(cfg.NumMels, nfft, cfg.SampleRate),
	}
}

// Extract computes the LFR+CMVN feature sequence for one mono waveform.
func (e *Extractor) Extract(waveform []float32) (Feature, error) {
	if len(waveform) < e.frameLen {
		return Feature{}, fmt.Errorf("waveform too short for analysis: %d samples < one %d-sample frame",
			len(waveform), e.frameLen)
	}

	numFrames := 1 + (len(waveform)-e.frameLen)/e.shift
	fbank := make([][]float32, numFrames)
	spec := make([]complex128, e.nfft)
	for t := 0; t < numFrames; t++ {
		off := t * e.shift
		for i := 0; i < e.nfft; i++ {
			spec[i] = 0
		}
		for i := 0; i < e.frameLen; i++ {
			s := float64(waveform[off+i])
			if i > 0 {
				s -= preemphasis * float64(waveform[off+i-1])
			}
			spec[i] = complex(s*e.window[i], 0)
		}
		fft(spec)

		bins := make([]float64, e.nfft/2+1)
		for i := range bins {
			re, im := real(spec[i]), imag(spec[i])
			bins[i] = re*re + im*im
		}

		row := make([]float32, e.cfg.NumMels)
		for m := 0; m < e.cfg.NumMels; m++ {
			var sum float64
			for i, w := range e.mel[m] {
				if w != 0 {
					sum += w * bins[i]
				}
			}
			row[m] = float32(math.Log(math.Max(sum, logFloor)))
		}
		fbank[t] = row
	}

	feats := applyLFR(fbank, e.cfg.LFRm, e.cfg.LFRn)
	e.applyCMVN(feats)
	return Feature{Data: feats, Length: len(feats)}, nil
}

func (e *Extractor) applyCMVN(feats [][]float32) {
	dim := e.cfg.Dim()
	if len(e.cfg.CMVNMeans) != dim || len(e.cfg.CMVNVars) != dim {
		return
	}
	for _, row := range feats {
		for i := range row {
			row[i] = (row[i] + e.cfg.CMVNMeans[i]) * e.cfg.CMVNVars[i]
		}
	}
}

// melBank builds a triangular mel filterbank over the positive FFT bins.
func melBank(numMels, nfft, sampleRate int) [][]float64 {
	hzToMel := func(hz float64) float64 { return 1127 * math.Log(1+hz/700) }

	numBins := nfft/2 + 1
	lowMel := hzToMel(melLowHz)
	highMel := hzToMel(float64(sampleRate) / 2)

	centers := make([]float64, numMels+2)
	for i := range centers {
		centers[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numMels+1)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		weights := make([]float64, numBins)
		left, center, right := centers[m], centers[m+1], centers[m+2]
		for i := 0; i < numBins; i++ {
			mel := hzToMel(float64(i) * float64(sampleRate) / float64(nfft))
			switch {
			case mel <= left || mel >= right:
				// outside the triangle
			case mel <= center:
				weights[i] = (mel - left) / (center - left)
			default:
				weights[i] = (right - mel) / (right - center)
			}
		}
		bank[m] = weights
	}
	return bank
}
