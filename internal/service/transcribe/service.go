// Package transcribe orchestrates batched transcription: ordering,
// feature extraction and padding, model inference, CTC decode and result
// reassembly into the caller's original order.
package transcribe

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-batch-transcription-service/internal/models"
	"ai-batch-transcription-service/internal/observability/logging"
	"ai-batch-transcription-service/internal/observability/metrics"
	"ai-batch-transcription-service/internal/service/audio"
	"ai-batch-transcription-service/internal/service/decoder"
	"ai-batch-transcription-service/internal/service/frontend"
)

// metaFrames is the fixed-size metadata prefix the model emits: the
// first four output frames encode the language/emotion/event/textnorm
// tags and are decoded independently of the rest.
const metaFrames = 4

// prefetchDepth bounds how many prepared batches the loader may run
// ahead of inference.
const prefetchDepth = 4

// Inference is the opaque acoustic model capability: padded features
// plus true lengths in, per-frame logits with true output lengths out.
// Implementations must be side-effect free with respect to the pipeline.
type Inference interface {
	Infer(ctx context.Context, feats [][][]float32, lengths []int, language, textnorm string) ([]decoder.Logits, error)
}

// Config carries the model bundle parameters shared by pipeline stages.
type Config struct {
	SampleRate        int
	BlankID           int32
	SubsamplingFactor int
	FrameShiftMs      float64
}

// Options control one Transcribe call.
type Options struct {
	Language       string // language hint passed to the model ("auto" by default)
	Textnorm       string // text normalization hint ("woitn" by default)
	SortByDuration bool   // sort items ascending by duration before batching
	BatchSize      int
	Timestamps     bool // word-level alignment decode
	NumWorkers     int  // >0 enables prefetch of the next batch's features
	Progress       bool // per-batch progress logging
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Language == "" {
		out.Language = "auto"
	}
	if out.Textnorm == "" {
		out.Textnorm = "woitn"
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 4
	}
	return out
}

// Service runs the batched transcription pipeline.
type Service struct {
	cfg       Config
	extractor *frontend.Extractor
	infer     Inference
	tok       decoder.Tokenizer
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// New creates a transcription service around the given frontend, model
// and tokenizer capabilities.
func New(cfg Config, extractor *frontend.Extractor, infer Inference, tok decoder.Tokenizer) *Service {
	return &Service{
		cfg:       cfg,
		extractor: extractor,
		infer:     infer,
		tok:       tok,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("transcribe"),
	}
}

// batch is one prepared unit of work: padded features with the original
// indices needed to scatter results back.
type batch struct {
	indices []int
	feats   [][][]float32
	lengths []int
	err     error
}

// Transcribe runs the whole pipeline over items and returns one
// Transcription per input, in the caller's input order regardless of
// internal sorting and batching. Any failure aborts the whole call; no
// partial results are returned.
func (s *Service) Transcribe(ctx context.Context, items []audio.Source, opts Options) ([]models.Transcription, error) {
	opts = opts.withDefaults()

	ordered, err := audio.Order(items, opts.SortByDuration)
	if err != nil {
		return nil, err
	}

	batches := chunk(ordered, opts.BatchSize)
	results := make([]models.Transcription, len(items))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prepared <-chan batch
	if opts.NumWorkers > 0 {
		ch := make(chan batch, prefetchDepth)
		go s.produce(ctx, batches, ch)
		prepared = ch
	} else {
		ch := make(chan batch)
		go func() {
			defer close(ch)
			for _, b := range batches {
				pb := s.prepareBatch(b)
				select {
				case ch <- pb:
				case <-ctx.Done():
					return
				}
				if pb.err != nil {
					return
				}
			}
		}()
		prepared = ch
	}

	done := 0
	for pb := range prepared {
		if pb.err != nil {
			return nil, pb.err
		}

		start := time.Now()
		logits, err := s.infer.Infer(ctx, pb.feats, pb.lengths, opts.Language, opts.Textnorm)
		if err != nil {
			return nil, err
		}
		s.metrics.InferLatency.Observe(time.Since(start).Seconds())

		start = time.Now()
		if opts.Timestamps {
			err = s.decodeAligned(logits, pb.indices, results)
		} else {
			err = s.decodePlain(logits, pb.indices, results)
		}
		if err != nil {
			return nil, err
		}
		s.metrics.DecodeLatency.Observe(time.Since(start).Seconds())
		s.metrics.RecordBatch(len(pb.indices), wasteRatio(pb))

		done++
		if opts.Progress {
			s.log.Info().
				Int("batch", done).
				Int("totalBatches", len(batches)).
				Int("items", len(pb.indices)).
				Msg("Batch transcribed")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// produce prepares batches ahead of inference, bounded by the channel's
// prefetch depth. It stops at the first failed batch.
func (s *Service) produce(ctx context.Context, batches [][]audio.IndexedSource, out chan<- batch) {
	defer close(out)
	for _, b := range batches {
		pb := s.prepareBatch(b)
		select {
		case out <- pb:
		case <-ctx.Done():
			return
		}
		if pb.err != nil {
			return
		}
	}
}

// prepareBatch loads each item's waveform, extracts features and pads
// them to the batch maximum.
func (s *Service) prepareBatch(items []audio.IndexedSource) batch {
	start := time.Now()
	feats := make([]frontend.Feature, len(items))
	indices := make([]int, len(items))
	for i, it := range items {
		indices[i] = it.Index
		wav, err := it.Source.Load(s.cfg.SampleRate)
		if err != nil {
			return batch{err: err}
		}
		f, err := s.extractor.Extract(wav)
		if err != nil {
			return batch{err: err}
		}
		feats[i] = f
	}
	padded, lengths := frontend.PadFeats(feats)
	s.metrics.FeatureLatency.Observe(time.Since(start).Seconds())
	return batch{indices: indices, feats: padded, lengths: lengths}
}

// decodePlain applies greedy collapse, detokenizes and parses the
// four-tag output for every item in the batch.
func (s *Service) decodePlain(logits []decoder.Logits, indices []int, results []models.Transcription) error {
	for b, idx := range indices {
		ids := decoder.Greedy(logits[b], s.cfg.BlankID)
		tr, err := models.Parse(s.tok.Decode(ids))
		if err != nil {
			return err
		}
		results[idx] = tr
	}
	return nil
}

// decodeAligned decodes the four-frame metadata prefix per item, then
// runs the time-aligned greedy search over the remaining frames.
func (s *Service) decodeAligned(logits []decoder.Logits, indices []int, results []models.Transcription) error {
	dcfg := decoder.Config{
		BlankID:           s.cfg.BlankID,
		SubsamplingFactor: s.cfg.SubsamplingFactor,
		FrameShiftMs:      s.cfg.FrameShiftMs,
	}
	for b, idx := range indices {
		lg := logits[b]

		n := metaFrames
		if lg.Length < n {
			n = lg.Length
		}
		metaIDs := make([]int32, n)
		for t := 0; t < n; t++ {
			metaIDs[t] = decoder.Argmax(lg.Frames[t])
		}
		tr, err := models.Parse(s.tok.Decode(metaIDs))
		if err != nil {
			return err
		}

		tail := decoder.Logits{Length: lg.Length - metaFrames}
		if len(lg.Frames) > metaFrames {
			tail.Frames = lg.Frames[metaFrames:]
		}
		words := decoder.Aligned(tail, dcfg, s.tok)

		symbols := make([]string, len(words))
		for i, w := range words {
			symbols[i] = w.Symbol
		}
		tr.Words = words
		tr.Text = strings.Join(symbols, " ")
		results[idx] = tr
	}
	return nil
}

func chunk(items []audio.IndexedSource, size int) [][]audio.IndexedSource {
	var out [][]audio.IndexedSource
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// wasteRatio is the fraction of padded feature frames beyond the items'
// true lengths.
func wasteRatio(b batch) float64 {
	if len(b.feats) == 0 || len(b.feats[0]) == 0 {
		return 0
	}
	maxLen := len(b.feats[0])
	total := maxLen * len(b.lengths)
	used := 0
	for _, l := range b.lengths {
		used += l
	}
	return float64(total-used) / float64(total)
}
