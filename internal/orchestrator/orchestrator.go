// Package orchestrator implements the synthesize-once workflow: derive the
// phrase identifier, return the cached record if there is one, otherwise
// synthesize and publish the audio and then record it.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"tts-gateway/internal/cache"
	"tts-gateway/internal/metrics"
	"tts-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// Synthesizer produces and publishes audio for a phrase, returning its URL.
// Implemented by *synth.Adapter.
type Synthesizer interface {
	SynthesizeAndStore(ctx context.Context, phrase, id string) (string, error)
}

// WriteMode selects how a fresh record is persisted.
type WriteMode string

const (
	// WriteOverwrite writes unconditionally; the last racing writer wins.
	WriteOverwrite WriteMode = "overwrite"
	// WriteConditional writes only if absent and, on conflict, returns the
	// record that won. Falls back to overwrite if the store cannot do it.
	WriteConditional WriteMode = "conditional"
)

// Outcome is the result of a successful Handle.
type Outcome struct {
	Record   cache.Record
	CacheHit bool
}

type Option func(*Orchestrator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithWriteMode selects the persist strategy.
func WithWriteMode(mode WriteMode) Option {
	return func(o *Orchestrator) { o.mode = mode }
}

// Orchestrator holds only injected dependencies and is safe for concurrent use.
type Orchestrator struct {
	store cache.RecordStore
	synth Synthesizer
	now   func() time.Time
	mode  WriteMode
}

func New(store cache.RecordStore, synth Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store: store,
		synth: synth,
		now:   time.Now,
		mode:  WriteOverwrite,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle resolves phrase to a cache record, synthesizing it on a miss.
// A nil phrase is treated like an empty one.
func (o *Orchestrator) Handle(ctx context.Context, phrase *string) (Outcome, error) {
	// validate
	if phrase == nil || strings.TrimSpace(*phrase) == "" {
		return Outcome{}, newError(KindValidation, "validate", nil)
	}
	text := *phrase

	// identify
	id := cache.DerivePhraseID(text)
	logger := logging.L(ctx).With(zap.String("unique_id", id))

	// cache check: an error is never a miss
	rec, hit, err := o.store.Get(ctx, id)
	if err != nil {
		logger.Error("cache lookup failed", zap.Error(err))
		return Outcome{}, newError(KindStoreUnavailable, "lookup", err)
	}
	if hit {
		metrics.CacheDecisionsTotal.WithLabelValues("hit").Inc()
		logger.Info("cache_decision", zap.Bool("cache_hit", true))
		return Outcome{Record: rec, CacheHit: true}, nil
	}
	metrics.CacheDecisionsTotal.WithLabelValues("miss").Inc()
	logger.Info("cache_decision", zap.Bool("cache_hit", false))

	// synthesize + publish; nothing is persisted if this fails
	url, err := o.synth.SynthesizeAndStore(ctx, text, id)
	if err != nil {
		logger.Error("synthesis failed", zap.Error(err))
		return Outcome{}, newError(KindSynthesis, "synthesize", err)
	}

	// persist; a failure here leaves orphan audio under the same key, which
	// a retry overwrites
	fresh := cache.NewRecord(id, text, url, o.now())
	stored, err := o.persist(ctx, fresh)
	if err != nil {
		logger.Error("cache write failed", zap.String("url_to_audio", url), zap.Error(err))
		return Outcome{}, newError(KindStoreUnavailable, "persist", err)
	}

	return stored, nil
}

func (o *Orchestrator) persist(ctx context.Context, rec cache.Record) (Outcome, error) {
	cond, ok := o.store.(cache.ConditionalPutter)
	if o.mode != WriteConditional || !ok {
		if err := o.store.Put(ctx, rec); err != nil {
			return Outcome{}, err
		}
		return Outcome{Record: rec}, nil
	}

	err := cond.PutIfAbsent(ctx, rec)
	if err == nil {
		return Outcome{Record: rec}, nil
	}
	if !errors.Is(err, cache.ErrRecordExists) {
		return Outcome{}, err
	}

	// Lost the race: converge on the record that won.
	winner, hit, err := o.store.Get(ctx, rec.ID)
	if err != nil {
		return Outcome{}, err
	}
	if !hit {
		return Outcome{}, errors.New("record reported as existing but not found")
	}
	logging.L(ctx).Info("cache write lost race",
		zap.String("unique_id", rec.ID),
		zap.String("url_to_audio", winner.AudioURL),
	)
	return Outcome{Record: winner, CacheHit: true}, nil
}
