package cache

import (
	"context"
	"errors"
	"time"

	"tts-gateway/internal/metrics"
	"tts-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingRecordStore wraps a RecordStore with logging + metrics.
type LoggingRecordStore struct {
	inner RecordStore
}

// loggingConditionalStore is returned when the inner store supports
// PutIfAbsent, so wrapping never hides that capability.
type loggingConditionalStore struct {
	*LoggingRecordStore
	cond ConditionalPutter
}

// NewLoggingRecordStore returns a store that logs and records metrics.
func NewLoggingRecordStore(inner RecordStore) RecordStore {
	base := &LoggingRecordStore{inner: inner}
	if cond, ok := inner.(ConditionalPutter); ok {
		return &loggingConditionalStore{LoggingRecordStore: base, cond: cond}
	}
	return base
}

func (s *LoggingRecordStore) Get(ctx context.Context, id string) (Record, bool, error) {
	start := time.Now()
	rec, ok, err := s.inner.Get(ctx, id)
	elapsed := time.Since(start)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}
	observe("get", result, elapsed)

	fields := []zap.Field{
		zap.String("unique_id", id),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", ms(elapsed)),
	}

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("record_store_get", append(fields, zap.Error(err))...)
	} else {
		logger.Info("record_store_get", fields...)
	}

	return rec, ok, err
}

func (s *LoggingRecordStore) Put(ctx context.Context, rec Record) error {
	start := time.Now()
	err := s.inner.Put(ctx, rec)
	s.logPut(ctx, "put", rec, time.Since(start), err)
	return err
}

func (s *loggingConditionalStore) PutIfAbsent(ctx context.Context, rec Record) error {
	start := time.Now()
	err := s.cond.PutIfAbsent(ctx, rec)
	s.logPut(ctx, "put_if_absent", rec, time.Since(start), err)
	return err
}

func (s *LoggingRecordStore) logPut(ctx context.Context, op string, rec Record, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrRecordExists):
		result = "exists"
	case err != nil:
		result = "error"
	}
	observe(op, result, elapsed)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("unique_id", rec.ID),
		zap.String("put_result", result),
		zap.Float64("latency_ms", ms(elapsed)),
	}

	logger := logging.L(ctx)
	if result == "error" {
		logger.Error("record_store_put", append(fields, zap.Error(err))...)
	} else {
		logger.Info("record_store_put", fields...)
	}
}

func observe(op, result string, elapsed time.Duration) {
	metrics.RecordStoreOpsTotal.WithLabelValues(op, result).Inc()
	metrics.RecordStoreLatencySeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
