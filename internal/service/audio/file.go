package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// resampleQuality trades CPU for interpolation accuracy. 4 is beep's
// recommended middle ground.
const resampleQuality = 4

// ProbeDuration returns the clip duration in seconds from the WAV header
// without decoding the sample data.
func ProbeDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	defer f.Close()

	stream, format, err := wav.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	defer stream.Close()

	return float64(stream.Len()) / float64(format.SampleRate), nil
}

// loadFile decodes a WAV file, resamples it to sampleRate and downmixes
// to mono.
func loadFile(path string, sampleRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	stream, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer stream.Close()

	if format.NumChannels > 2 {
		return nil, &UnsupportedAudioError{
			Reason: fmt.Sprintf("%s has %d channels, expected mono or stereo", path, format.NumChannels),
		}
	}

	var src beep.Streamer = stream
	if int(format.SampleRate) != sampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(sampleRate), stream)
	}

	// beep streams interleaved stereo pairs; mono files carry the same
	// sample on both channels, so averaging is lossless for them.
	out := make([]float32, 0, stream.Len())
	buf := make([][2]float64, 512)
	for {
		n, ok := src.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok {
			break
		}
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return out, nil
}
