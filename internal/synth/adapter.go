package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tts-gateway/internal/cache"
	"tts-gateway/internal/metrics"
	"tts-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

const defaultKeyPrefix = "audio/"

type AdapterConfig struct {
	// KeyPrefix is prepended to "<id>.<ext>" to build the storage key.
	KeyPrefix string
	// Timeout bounds a single engine call. Zero leaves only the caller's deadline.
	Timeout time.Duration
}

// Adapter synthesizes a phrase and publishes the audio.
type Adapter struct {
	engine    Engine
	publisher Publisher
	keyPrefix string
	timeout   time.Duration
}

func NewAdapter(engine Engine, publisher Publisher, cfg AdapterConfig) *Adapter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Adapter{
		engine:    engine,
		publisher: publisher,
		keyPrefix: prefix,
		timeout:   cfg.Timeout,
	}
}

// ObjectKey returns the storage key for id and extension ext.
// Identical ids always map to the same key.
func (a *Adapter) ObjectKey(id, ext string) string {
	return a.keyPrefix + id + "." + ext
}

// SynthesizeAndStore synthesizes phrase and uploads it under a key derived
// from id, returning the public URL. Every failure wraps ErrSynthesis.
func (a *Adapter) SynthesizeAndStore(ctx context.Context, phrase, id string) (string, error) {
	if strings.TrimSpace(phrase) == "" {
		return "", fmt.Errorf("%w: empty phrase", ErrSynthesis)
	}
	if !cache.ValidPhraseID(id) {
		return "", fmt.Errorf("%w: malformed identifier %q", ErrSynthesis, id)
	}

	logger := logging.L(ctx)
	engine := a.engine.Name()
	start := time.Now()

	audio, err := a.synthesize(ctx, phrase)
	if err != nil {
		a.observe(engine, "engine_error", start)
		return "", fmt.Errorf("%w: %s engine: %w", ErrSynthesis, engine, err)
	}
	if audio == nil || len(audio.Data) == 0 {
		a.observe(engine, "engine_error", start)
		return "", fmt.Errorf("%w: %s engine returned no audio", ErrSynthesis, engine)
	}

	logger.Info("synthesis_completed",
		zap.String("engine", engine),
		zap.String("unique_id", id),
		zap.Int("audio_bytes", len(audio.Data)),
		zap.Duration("latency", time.Since(start)),
	)

	if audio.Extension == "" {
		audio.Extension = "mp3"
	}
	if audio.ContentType == "" {
		audio.ContentType = contentTypeFor(audio.Extension)
	}

	key := a.ObjectKey(id, audio.Extension)
	url, err := a.publisher.Publish(ctx, key, audio)
	if err != nil {
		a.observe(engine, "upload_error", start)
		return "", fmt.Errorf("%w: upload %s: %w", ErrSynthesis, key, err)
	}

	a.observe(engine, "ok", start)
	logger.Info("audio_published",
		zap.String("unique_id", id),
		zap.String("object_key", key),
		zap.String("url_to_audio", url),
	)
	return url, nil
}

func (a *Adapter) synthesize(ctx context.Context, phrase string) (*Audio, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.engine.Synthesize(ctx, phrase)
}

func (a *Adapter) observe(engine, result string, start time.Time) {
	metrics.SynthesisTotal.WithLabelValues(engine, result).Inc()
	metrics.SynthesisLatencySeconds.WithLabelValues(engine).Observe(time.Since(start).Seconds())
}
