package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelConfig is the model bundle configuration, parsed from config.yaml
// in the model directory.
type ModelConfig struct {
	SampleRate int `yaml:"sample_rate"`

	FrontendConf struct {
		FrameLengthMs float64 `yaml:"frame_length_ms"`
		FrameShiftMs  float64 `yaml:"frame_shift_ms"`
		NumMels       int     `yaml:"n_mels"`
		LFRm          int     `yaml:"lfr_m"`
		LFRn          int     `yaml:"lfr_n"`
	} `yaml:"frontend_conf"`

	ModelConf struct {
		BlankID           int32 `yaml:"blank_id"`
		SubsamplingFactor int   `yaml:"subsampling_factor"`
	} `yaml:"model_conf"`

	// CMVN statistics applied after LFR stacking: shift is added,
	// scale is multiplied. Both sized n_mels*lfr_m when present.
	CMVN struct {
		Shift []float32 `yaml:"shift"`
		Scale []float32 `yaml:"scale"`
	} `yaml:"cmvn"`
}

// LoadModelConfig reads and validates the bundle config in modelDir.
func LoadModelConfig(modelDir string) (*ModelConfig, error) {
	path := filepath.Join(modelDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}

	cfg := defaultModelConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse model config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("model config %s: %w", path, err)
	}
	return cfg, nil
}

// defaultModelConfig carries the SenseVoice-small defaults so a minimal
// bundle config only has to override what differs.
func defaultModelConfig() *ModelConfig {
	cfg := &ModelConfig{SampleRate: 16000}
	cfg.FrontendConf.FrameLengthMs = 25
	cfg.FrontendConf.FrameShiftMs = 10
	cfg.FrontendConf.NumMels = 80
	cfg.FrontendConf.LFRm = 7
	cfg.FrontendConf.LFRn = 6
	cfg.ModelConf.BlankID = 0
	cfg.ModelConf.SubsamplingFactor = 6
	return cfg
}

func (c *ModelConfig) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.FrontendConf.FrameLengthMs <= 0 || c.FrontendConf.FrameShiftMs <= 0 {
		return fmt.Errorf("frame_length_ms and frame_shift_ms must be positive")
	}
	if c.FrontendConf.NumMels <= 0 {
		return fmt.Errorf("n_mels must be positive, got %d", c.FrontendConf.NumMels)
	}
	if c.FrontendConf.LFRm <= 0 || c.FrontendConf.LFRn <= 0 {
		return fmt.Errorf("lfr_m and lfr_n must be positive")
	}
	if c.ModelConf.SubsamplingFactor <= 0 {
		return fmt.Errorf("subsampling_factor must be positive, got %d", c.ModelConf.SubsamplingFactor)
	}
	dim := c.FrontendConf.NumMels * c.FrontendConf.LFRm
	if len(c.CMVN.Shift) > 0 && len(c.CMVN.Shift) != dim {
		return fmt.Errorf("cmvn shift has %d values, feature dim is %d", len(c.CMVN.Shift), dim)
	}
	if len(c.CMVN.Scale) > 0 && len(c.CMVN.Scale) != dim {
		return fmt.Errorf("cmvn scale has %d values, feature dim is %d", len(c.CMVN.Scale), dim)
	}
	return nil
}
