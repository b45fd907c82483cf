package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-batch-transcription-service/internal/cache"
	"ai-batch-transcription-service/internal/config"
	"ai-batch-transcription-service/internal/events"
	"ai-batch-transcription-service/internal/models"
	"ai-batch-transcription-service/internal/observability/logging"
	"ai-batch-transcription-service/internal/observability/metrics"
	"ai-batch-transcription-service/internal/service/audio"
	"ai-batch-transcription-service/internal/service/transcribe"
)

// Handler serves the transcription API.
type Handler struct {
	svc       *transcribe.Service
	publisher *events.Publisher
	cache     *cache.Cache
	defaults  config.TranscribeDefaults
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *transcribe.Service, publisher *events.Publisher, c *cache.Cache, defaults config.TranscribeDefaults) *Handler {
	return &Handler{
		svc:       svc,
		publisher: publisher,
		cache:     c,
		defaults:  defaults,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("api"),
	}
}

type transcribeRequest struct {
	Files          []string `json:"files"`
	Language       string   `json:"language"`
	Textnorm       string   `json:"textnorm"`
	Timestamps     bool     `json:"timestamps"`
	BatchSize      int      `json:"batch_size"`
	SortByDuration *bool    `json:"sort_by_duration"`
}

type transcribeResponse struct {
	JobID   string                 `json:"job_id"`
	Results []models.Transcription `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Transcribe handles POST /v1/transcribe: it runs the batched pipeline
// over the requested files and returns one result per file, in request
// order.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "files must not be empty")
		return
	}

	opts := h.options(req)
	jobID := uuid.NewString()
	jobLog := logging.WithJob(jobID)
	jobLog.Info().Int("files", len(req.Files)).Bool("timestamps", opts.Timestamps).Msg("Transcription job started")
	h.metrics.RecordJob()

	results := make([]models.Transcription, len(req.Files))
	cacheKeys := make([]string, len(req.Files))
	var missIdx []int
	var missSources []audio.Source

	for i, f := range req.Files {
		if key, hit := h.lookup(r, f, opts); hit.ok {
			cacheKeys[i] = key
			results[i] = hit.value
			continue
		} else {
			cacheKeys[i] = key
		}
		missIdx = append(missIdx, i)
		missSources = append(missSources, audio.FromPath(f))
	}

	if len(missSources) > 0 {
		out, err := h.svc.Transcribe(r.Context(), missSources, opts)
		if err != nil {
			h.metrics.RecordJobFailed()
			jobLog.Error().Err(err).Msg("Transcription job failed")
			writeError(w, statusForError(err), err.Error())
			return
		}
		for j, tr := range out {
			i := missIdx[j]
			results[i] = tr
			if cacheKeys[i] != "" {
				h.cache.Put(r.Context(), cacheKeys[i], tr)
			}
		}
	}

	for i, tr := range results {
		ev := events.ResultEvent{
			EventType:     events.EventTypeResult,
			JobID:         jobID,
			Index:         i,
			Timestamp:     time.Now().UnixMilli(),
			Transcription: tr,
		}
		// Publishing is best effort; the client already holds the result.
		if err := h.publisher.PublishResult(r.Context(), ev); err != nil {
			jobLog.Warn().Err(err).Int("index", i).Msg("Failed to publish result")
		}
	}

	jobLog.Info().Int("results", len(results)).Msg("Transcription job completed")
	writeJSON(w, http.StatusOK, transcribeResponse{JobID: jobID, Results: results})
}

type cacheHit struct {
	ok    bool
	value models.Transcription
}

// lookup computes the file's cache key and checks the cache. A file that
// cannot be read yields an empty key; the pipeline will surface the real
// error when it loads the file.
func (h *Handler) lookup(r *http.Request, path string, opts transcribe.Options) (string, cacheHit) {
	if h.cache == nil || !h.cache.Enabled() {
		return "", cacheHit{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", cacheHit{}
	}
	key := cache.Key(data, opts.Language, opts.Textnorm, opts.Timestamps)
	if t, ok := h.cache.Get(r.Context(), key); ok {
		return key, cacheHit{ok: true, value: t}
	}
	return key, cacheHit{}
}

func (h *Handler) options(req transcribeRequest) transcribe.Options {
	opts := transcribe.Options{
		Language:       req.Language,
		Textnorm:       req.Textnorm,
		Timestamps:     req.Timestamps,
		BatchSize:      req.BatchSize,
		SortByDuration: h.defaults.SortByDuration,
		NumWorkers:     h.defaults.NumWorkers,
		Progress:       true,
	}
	if opts.Language == "" {
		opts.Language = h.defaults.Language
	}
	if opts.Textnorm == "" {
		opts.Textnorm = h.defaults.Textnorm
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = h.defaults.BatchSize
	}
	if req.SortByDuration != nil {
		opts.SortByDuration = *req.SortByDuration
	}
	return opts
}

// statusForError maps pipeline errors to HTTP statuses: bad input is the
// client's fault, decode/parse mismatches are upstream failures.
func statusForError(err error) int {
	var unsupported *audio.UnsupportedAudioError
	var mixed *audio.MixedTypeError
	var parse *models.ParseError
	switch {
	case errors.As(err, &unsupported), errors.As(err, &mixed):
		return http.StatusBadRequest
	case errors.As(err, &parse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
