package frontend

import (
	"math"
	"testing"
)

func testConfig() Config {
	return Config{
		SampleRate:    16000,
		FrameLengthMs: 25,
		FrameShiftMs:  10,
		NumMels:       80,
		LFRm:          7,
		LFRn:          6,
	}
}

func sineWave(n int, freq float64, sampleRate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestExtract_Shapes(t *testing.T) {
	cfg := testConfig()
	e := NewExtractor(cfg)

	tests := []struct {
		samples  int
		wantLen  int // ceil((1+(n-400)/160)/6)
	}{
		{16000, 17},
		{8000, 8},
		{4000, 4},
		{1000, 1},
	}
	for _, tt := range tests {
		f, err := e.Extract(sineWave(tt.samples, 440, cfg.SampleRate))
		if err != nil {
			t.Fatalf("Extract(%d samples): %v", tt.samples, err)
		}
		if f.Length != tt.wantLen {
			t.Errorf("Extract(%d samples).Length = %d, want %d", tt.samples, f.Length, tt.wantLen)
		}
		if len(f.Data) != f.Length {
			t.Errorf("len(Data) = %d, Length = %d", len(f.Data), f.Length)
		}
		for i, row := range f.Data {
			if len(row) != cfg.Dim() {
				t.Fatalf("row %d has dim %d, want %d", i, len(row), cfg.Dim())
			}
		}
	}
}

func TestExtract_TooShort(t *testing.T) {
	e := NewExtractor(testConfig())
	if _, err := e.Extract(sineWave(300, 440, 16000)); err == nil {
		t.Fatal("Extract of sub-frame waveform succeeded")
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor(testConfig())
	w := sineWave(4000, 440, 16000)

	a, err := e.Extract(w)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := e.Extract(w)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for i := range a.Data {
		for j := range a.Data[i] {
			if a.Data[i][j] != b.Data[i][j] {
				t.Fatalf("extraction not deterministic at [%d][%d]", i, j)
			}
		}
	}
}

func TestExtract_CMVN(t *testing.T) {
	base := testConfig()
	plain := NewExtractor(base)

	withCMVN := base
	dim := base.Dim()
	withCMVN.CMVNMeans = make([]float32, dim)
	withCMVN.CMVNVars = make([]float32, dim)
	for i := 0; i < dim; i++ {
		withCMVN.CMVNMeans[i] = 1
		withCMVN.CMVNVars[i] = 2
	}
	normed := NewExtractor(withCMVN)

	w := sineWave(4000, 440, 16000)
	a, err := plain.Extract(w)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := normed.Extract(w)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for i := range a.Data {
		for j := range a.Data[i] {
			want := (a.Data[i][j] + 1) * 2
			if diff := b.Data[i][j] - want; diff > 1e-4 || diff < -1e-4 {
				t.Fatalf("cmvn at [%d][%d] = %v, want %v", i, j, b.Data[i][j], want)
			}
		}
	}
}

func TestApplyLFR(t *testing.T) {
	frames := make([][]float32, 13)
	for i := range frames {
		frames[i] = []float32{float32(i), float32(i) * 10}
	}

	out := applyLFR(frames, 7, 6)
	if len(out) != 3 { // ceil(13/6)
		t.Fatalf("LFR output has %d steps, want 3", len(out))
	}
	for i, row := range out {
		if len(row) != 7*2 {
			t.Fatalf("step %d has dim %d, want 14", i, len(row))
		}
	}

	// Step 0 starts at input frame -3, clamped to frame 0.
	if out[0][0] != 0 || out[0][1] != 0 {
		t.Errorf("step 0 left padding = (%v,%v), want copies of frame 0", out[0][0], out[0][1])
	}
	// Step 0, stacked frame 3 is the left-pad offset applied to frame 0.
	if out[0][3*2] != 0 {
		t.Errorf("unexpected center frame value %v", out[0][3*2])
	}
	// Step 2 starts at input frame 12-3=9 after padding.
	if out[2][0] != 9 {
		t.Errorf("step 2 first stacked frame = %v, want 9", out[2][0])
	}
	// Tail of step 2 is clamped to the last frame.
	if out[2][6*2] != 12 {
		t.Errorf("step 2 last stacked frame = %v, want 12", out[2][6*2])
	}
}

func TestApplyLFR_Empty(t *testing.T) {
	if out := applyLFR(nil, 7, 6); out != nil {
		t.Errorf("LFR of empty input = %v, want nil", out)
	}
}

func TestPadFeats(t *testing.T) {
	feats := []Feature{
		{Data: [][]float32{{1, 2}, {3, 4}, {5, 6}}, Length: 3},
		{Data: [][]float32{{7, 8}}, Length: 1},
	}

	padded, lengths := PadFeats(feats)
	if len(padded) != 2 {
		t.Fatalf("batch size = %d, want 2", len(padded))
	}
	if lengths[0] != 3 || lengths[1] != 1 {
		t.Fatalf("lengths = %v, want [3 1]", lengths)
	}
	for i := range padded {
		if len(padded[i]) != 3 {
			t.Fatalf("item %d padded to %d steps, want 3", i, len(padded[i]))
		}
		if lengths[i] > len(padded[i]) {
			t.Fatalf("length %d exceeds padded time %d", lengths[i], len(padded[i]))
		}
	}

	// Content below the true length is untouched.
	if padded[1][0][0] != 7 || padded[1][0][1] != 8 {
		t.Errorf("item 1 content = %v, want [7 8]", padded[1][0])
	}
	// Padded region is exactly zero.
	for tstep := 1; tstep < 3; tstep++ {
		for _, v := range padded[1][tstep] {
			if v != 0 {
				t.Fatalf("padded frame %d carries %v, want 0", tstep, v)
			}
		}
	}
}

func TestPadFeats_Empty(t *testing.T) {
	padded, lengths := PadFeats(nil)
	if len(padded) != 0 || len(lengths) != 0 {
		t.Errorf("PadFeats(nil) = (%v, %v), want empty", padded, lengths)
	}
}
