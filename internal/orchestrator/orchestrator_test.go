package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tts-gateway/internal/cache"
	"tts-gateway/internal/synth"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func clock() time.Time { return fixedNow }

func strptr(s string) *string { return &s }

// countingStore wraps a store and counts calls; err forces failures.
type countingStore struct {
	inner  *cache.MemoryRecordStore
	gets   atomic.Int32
	puts   atomic.Int32
	getErr error
	putErr error
}

func newCountingStore() *countingStore {
	return &countingStore{inner: cache.NewMemoryRecordStore()}
}

func (s *countingStore) Get(ctx context.Context, id string) (cache.Record, bool, error) {
	s.gets.Add(1)
	if s.getErr != nil {
		return cache.Record{}, false, s.getErr
	}
	return s.inner.Get(ctx, id)
}

func (s *countingStore) Put(ctx context.Context, rec cache.Record) error {
	s.puts.Add(1)
	if s.putErr != nil {
		return s.putErr
	}
	return s.inner.Put(ctx, rec)
}

// conditionalStore adds PutIfAbsent to countingStore.
type conditionalStore struct {
	*countingStore
	conditionalPuts atomic.Int32
}

func (s *conditionalStore) PutIfAbsent(ctx context.Context, rec cache.Record) error {
	s.conditionalPuts.Add(1)
	return s.inner.PutIfAbsent(ctx, rec)
}

// fakeSynth records calls and returns url, or err.
type fakeSynth struct {
	mu    sync.Mutex
	calls int
	url   func(id string) string
	err   error
	gate  chan struct{}
}

func (f *fakeSynth) SynthesizeAndStore(ctx context.Context, phrase, id string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return "", f.err
	}
	if f.url != nil {
		return f.url(id), nil
	}
	return "https://bucket/hw123", nil
}

func (f *fakeSynth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestHandleEndToEnd(t *testing.T) {
	store := newCountingStore()
	fs := &fakeSynth{}
	o := New(store, fs, WithClock(clock))
	ctx := context.Background()

	first, err := o.Handle(ctx, strptr("Hello world"))
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	want := cache.Record{
		ID:        cache.DerivePhraseID("Hello world"),
		Phrase:    "Hello world",
		AudioURL:  "https://bucket/hw123",
		CreatedAt: fixedNow,
	}
	require.Equal(t, want, first.Record)

	stored, hit, err := store.inner.Get(ctx, want.ID)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, want, stored)

	second, err := o.Handle(ctx, strptr("Hello world"))
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Record.ID, second.Record.ID)
	require.Equal(t, first.Record.AudioURL, second.Record.AudioURL)
	require.Equal(t, first.Record.CreatedAt, second.Record.CreatedAt)

	require.Equal(t, 1, fs.Calls(), "second call must not synthesize")
	require.EqualValues(t, 1, store.puts.Load())
}

func TestHandleHitReturnsStoredRecordVerbatim(t *testing.T) {
	store := newCountingStore()
	id := cache.DerivePhraseID("Hello world")
	existing := cache.NewRecord(id, "Hello world", "https://elsewhere/old.mp3", fixedNow.Add(-24*time.Hour))
	require.NoError(t, store.inner.Put(context.Background(), existing))

	fs := &fakeSynth{}
	out, err := New(store, fs, WithClock(clock)).Handle(context.Background(), strptr("Hello world"))
	require.NoError(t, err)
	require.True(t, out.CacheHit)
	require.Equal(t, existing, out.Record)
	require.Zero(t, fs.Calls())
	require.Zero(t, store.puts.Load())
}

func TestHandleValidation(t *testing.T) {
	for name, phrase := range map[string]*string{
		"nil":        nil,
		"empty":      strptr(""),
		"spaces":     strptr("   "),
		"whitespace": strptr("\t\n "),
	} {
		store := newCountingStore()
		fs := &fakeSynth{}

		_, err := New(store, fs).Handle(context.Background(), phrase)
		require.ErrorIs(t, err, ErrValidation, name)
		require.Equal(t, KindValidation, KindOf(err), name)
		require.Zero(t, store.gets.Load(), name)
		require.Zero(t, store.puts.Load(), name)
		require.Zero(t, fs.Calls(), name)
	}
}

func TestHandleLookupErrorIsNotAMiss(t *testing.T) {
	store := newCountingStore()
	store.getErr = errors.New("connection refused")
	fs := &fakeSynth{}

	_, err := New(store, fs).Handle(context.Background(), strptr("Hello world"))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, err, store.getErr)
	require.Zero(t, fs.Calls(), "a lookup error must not trigger synthesis")
	require.Zero(t, store.puts.Load())
}

func TestHandleSynthesisFailureLeavesNoRecord(t *testing.T) {
	store := newCountingStore()
	fs := &fakeSynth{err: synth.ErrSynthesis}

	_, err := New(store, fs).Handle(context.Background(), strptr("Hello world"))
	require.ErrorIs(t, err, ErrSynthesis)
	require.Equal(t, KindSynthesis, KindOf(err))
	require.Zero(t, store.puts.Load())

	_, hit, err := store.inner.Get(context.Background(), cache.DerivePhraseID("Hello world"))
	require.NoError(t, err)
	require.False(t, hit)
}

func TestHandlePersistFailureThenRetry(t *testing.T) {
	store := newCountingStore()
	store.putErr = errors.New("ProvisionedThroughputExceededException")
	fs := &fakeSynth{}
	o := New(store, fs, WithClock(clock))

	_, err := o.Handle(context.Background(), strptr("Hello world"))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, 1, fs.Calls())

	// The orphaned audio is regenerated under the same key on retry.
	store.putErr = nil
	out, err := o.Handle(context.Background(), strptr("Hello world"))
	require.NoError(t, err)
	require.False(t, out.CacheHit)
	require.Equal(t, 2, fs.Calls())
	require.Equal(t, "https://bucket/hw123", out.Record.AudioURL)
}

func TestHandleDistinctPhrasesDistinctRecords(t *testing.T) {
	store := newCountingStore()
	fs := &fakeSynth{url: func(id string) string { return "https://bucket/" + id + ".mp3" }}
	o := New(store, fs, WithClock(clock))

	a, err := o.Handle(context.Background(), strptr("Hello world"))
	require.NoError(t, err)
	b, err := o.Handle(context.Background(), strptr("hello world"))
	require.NoError(t, err)

	require.NotEqual(t, a.Record.ID, b.Record.ID)
	require.NotEqual(t, a.Record.AudioURL, b.Record.AudioURL)
	require.Equal(t, 2, store.inner.Len())
}

func TestHandleConcurrentOverwriteConverges(t *testing.T) {
	store := newCountingStore()
	fs := &fakeSynth{gate: make(chan struct{})}
	o := New(store, fs, WithClock(clock))

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = o.Handle(context.Background(), strptr("Hello world"))
		}(i)
	}

	// Let every request reach synthesis before any of them persists.
	require.Eventually(t, func() bool { return fs.Calls() == n }, time.Second, time.Millisecond)
	close(fs.gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, store.inner.Len())
	require.EqualValues(t, n, store.puts.Load())
}

func TestHandleConditionalWriteReturnsWinner(t *testing.T) {
	store := &conditionalStore{countingStore: newCountingStore()}
	id := cache.DerivePhraseID("Hello world")
	winner := cache.NewRecord(id, "Hello world", "https://bucket/winner.mp3", fixedNow.Add(-time.Minute))

	// Simulate a racing writer landing between our lookup and our write.
	fs := &fakeSynth{url: func(string) string {
		_ = store.inner.Put(context.Background(), winner)
		return "https://bucket/loser.mp3"
	}}

	out, err := New(store, fs, WithClock(clock), WithWriteMode(WriteConditional)).
		Handle(context.Background(), strptr("Hello world"))
	require.NoError(t, err)
	require.True(t, out.CacheHit)
	require.Equal(t, winner, out.Record)
	require.EqualValues(t, 1, store.conditionalPuts.Load())
	require.Zero(t, store.puts.Load())
}

func TestHandleConditionalWriteFallsBackToPut(t *testing.T) {
	store := newCountingStore()
	o := New(store, &fakeSynth{}, WithClock(clock), WithWriteMode(WriteConditional))

	_, err := o.Handle(context.Background(), strptr("Hello world"))
	require.NoError(t, err)
	require.EqualValues(t, 1, store.puts.Load())
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindStoreUnavailable, "persist", errors.New("timeout"))
	require.Equal(t, "persist: cache store unavailable: timeout", err.Error())
	require.False(t, errors.Is(err, ErrSynthesis))
	require.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
