package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tts-gateway/internal/handlers"
	"tts-gateway/internal/metrics"
	"tts-gateway/internal/middleware"
)

// MediaPath is where the in-memory publisher's objects are served.
const MediaPath = "/media"

// Options carries the pieces SetupRouter mounts besides the TTS handler.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RateLimiter guards POST /v1/tts. Nil or disabled means no limit.
	RateLimiter *middleware.RateLimiter
	// Media, when set, serves locally published audio under MediaPath.
	Media http.Handler
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, ttsHandler *handlers.TTSHandler, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 * 1024
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	r.Get("/", handlers.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/", handlers.Description)

		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil && opts.RateLimiter.Enabled() {
				r.Use(opts.RateLimiter.Middleware)
			}
			r.Post("/tts", ttsHandler.Synthesize)
		})
	})

	if opts.Media != nil {
		r.Handle(MediaPath+"/*", http.StripPrefix(MediaPath, opts.Media))
	}

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
