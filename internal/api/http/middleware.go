package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"ai-batch-transcription-service/internal/observability/metrics"
)

// RequestMetrics logs each API call and records request metrics.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("code", code).
			Dur("duration", duration).
			Msg("HTTP request")

		metrics.DefaultMetrics.RecordRequest(r.URL.Path, strconv.Itoa(code), duration.Seconds())
	})
}
