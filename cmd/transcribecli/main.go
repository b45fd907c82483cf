// transcribecli runs the batched transcription pipeline over local WAV
// files and prints one JSON result per line. Useful for exercising the
// pipeline without the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"ai-batch-transcription-service/internal/config"
	"ai-batch-transcription-service/internal/models"
	"ai-batch-transcription-service/internal/service/audio"
	"ai-batch-transcription-service/internal/service/frontend"
	"ai-batch-transcription-service/internal/service/transcribe"
	"ai-batch-transcription-service/internal/service/transcribe/stub"
)

func main() {
	modelDir := flag.String("model-dir", "models/sense-voice-small", "Model bundle directory")
	language := flag.String("language", "auto", "Language hint")
	textnorm := flag.String("textnorm", "woitn", "Text normalization hint (woitn, withitn)")
	timestamps := flag.Bool("timestamps", false, "Emit word-level timestamps")
	batchSize := flag.Int("batch-size", 4, "Items per inference batch")
	sortByDuration := flag.Bool("sort", true, "Sort items by duration before batching")
	workers := flag.Int("workers", 0, "Prefetch workers (0 disables prefetch)")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: transcribecli [flags] file.wav [file.wav ...]")
		os.Exit(2)
	}

	modelCfg, err := config.LoadModelConfig(*modelDir)
	if err != nil {
		log.Fatalf("load model config: %v", err)
	}

	extractor := frontend.NewExtractor(frontend.Config{
		SampleRate:    modelCfg.SampleRate,
		FrameLengthMs: modelCfg.FrontendConf.FrameLengthMs,
		FrameShiftMs:  modelCfg.FrontendConf.FrameShiftMs,
		NumMels:       modelCfg.FrontendConf.NumMels,
		LFRm:          modelCfg.FrontendConf.LFRm,
		LFRn:          modelCfg.FrontendConf.LFRn,
		CMVNMeans:     modelCfg.CMVN.Shift,
		CMVNVars:      modelCfg.CMVN.Scale,
	})

	svc := transcribe.New(transcribe.Config{
		SampleRate:        modelCfg.SampleRate,
		BlankID:           modelCfg.ModelConf.BlankID,
		SubsamplingFactor: modelCfg.ModelConf.SubsamplingFactor,
		FrameShiftMs:      modelCfg.FrontendConf.FrameShiftMs,
	}, extractor, stub.NewEngine(), stub.NewTokenizer())

	sources := make([]audio.Source, len(files))
	for i, f := range files {
		sources[i] = audio.FromPath(f)
	}

	results, err := svc.Transcribe(context.Background(), sources, transcribe.Options{
		Language:       *language,
		Textnorm:       *textnorm,
		Timestamps:     *timestamps,
		BatchSize:      *batchSize,
		SortByDuration: *sortByDuration,
		NumWorkers:     *workers,
	})
	if err != nil {
		log.Fatalf("transcribe: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for i, r := range results {
		out := struct {
			File string `json:"file"`
			models.Transcription
		}{File: files[i], Transcription: r}
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	}
}
