package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModelConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadModelConfig_MinimalOverride(t *testing.T) {
	dir := writeModelConfig(t, "sample_rate: 8000\n")

	cfg, err := LoadModelConfig(dir)
	if err != nil {
		t.Fatalf("LoadModelConfig: %v", err)
	}
	if cfg.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", cfg.SampleRate)
	}
	// Everything not overridden keeps the bundle defaults.
	if cfg.FrontendConf.NumMels != 80 || cfg.FrontendConf.LFRm != 7 || cfg.FrontendConf.LFRn != 6 {
		t.Errorf("frontend defaults lost: %+v", cfg.FrontendConf)
	}
	if cfg.ModelConf.BlankID != 0 || cfg.ModelConf.SubsamplingFactor != 6 {
		t.Errorf("model defaults lost: %+v", cfg.ModelConf)
	}
}

func TestLoadModelConfig_Full(t *testing.T) {
	dir := writeModelConfig(t, `
sample_rate: 16000
frontend_conf:
  frame_length_ms: 20
  frame_shift_ms: 5
  n_mels: 40
  lfr_m: 5
  lfr_n: 3
model_conf:
  blank_id: 2
  subsampling_factor: 4
`)

	cfg, err := LoadModelConfig(dir)
	if err != nil {
		t.Fatalf("LoadModelConfig: %v", err)
	}
	if cfg.FrontendConf.FrameLengthMs != 20 || cfg.FrontendConf.FrameShiftMs != 5 {
		t.Errorf("frame config = %+v", cfg.FrontendConf)
	}
	if cfg.FrontendConf.NumMels != 40 || cfg.FrontendConf.LFRm != 5 || cfg.FrontendConf.LFRn != 3 {
		t.Errorf("frontend = %+v", cfg.FrontendConf)
	}
	if cfg.ModelConf.BlankID != 2 || cfg.ModelConf.SubsamplingFactor != 4 {
		t.Errorf("model conf = %+v", cfg.ModelConf)
	}
}

func TestLoadModelConfig_Missing(t *testing.T) {
	if _, err := LoadModelConfig(t.TempDir()); err == nil {
		t.Fatal("LoadModelConfig of empty dir succeeded")
	}
}

func TestLoadModelConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "sample_rate: [\n"},
		{"zero sample rate", "sample_rate: 0\n"},
		{"negative mels", "frontend_conf:\n  n_mels: -1\n"},
		{"zero subsampling", "model_conf:\n  subsampling_factor: 0\n"},
		{"cmvn dim mismatch", "cmvn:\n  shift: [1.0, 2.0]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModelConfig(t, tt.content)
			if _, err := LoadModelConfig(dir); err == nil {
				t.Fatalf("LoadModelConfig accepted %q", tt.content)
			}
		})
	}
}
