package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tts-gateway/internal/cache"
	"tts-gateway/internal/handlers"
	"tts-gateway/internal/middleware"
	"tts-gateway/internal/orchestrator"
	"tts-gateway/internal/synth"
)

type echoEngine struct{ calls atomic.Int32 }

func (e *echoEngine) Name() string { return "echo" }

func (e *echoEngine) Synthesize(_ context.Context, text string) (*synth.Audio, error) {
	e.calls.Add(1)
	return &synth.Audio{Data: []byte(text)}, nil
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *echoEngine) {
	t.Helper()

	engine := &echoEngine{}
	srv := httptest.NewUnstartedServer(nil)
	pub := synth.NewMemoryPublisher("http://" + srv.Listener.Addr().String() + MediaPath)
	adapter := synth.NewAdapter(engine, pub, synth.AdapterConfig{})
	o := orchestrator.New(cache.NewMemoryRecordStore(), adapter)

	opts.Media = pub
	r := chi.NewRouter()
	SetupRouter(r, zap.NewNop(), handlers.NewTTSHandler(o), opts)

	srv.Config.Handler = r
	srv.Start()
	t.Cleanup(srv.Close)
	return srv, engine
}

func postPhrase(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/v1/tts", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouterTTSAndMedia(t *testing.T) {
	srv, engine := newTestServer(t, Options{})

	resp := postPhrase(t, srv.URL, `{"phrase":"Hello world"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out handlers.TTSResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.UniqueID != cache.DerivePhraseID("Hello world") {
		t.Fatalf("unexpected unique_id %q", out.UniqueID)
	}

	audio, err := http.Get(out.URLToAudio)
	if err != nil {
		t.Fatalf("get audio: %v", err)
	}
	defer audio.Body.Close()
	if audio.StatusCode != http.StatusOK {
		t.Fatalf("expected audio to be served, got %d", audio.StatusCode)
	}
	if ct := audio.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("unexpected audio content type %q", ct)
	}

	postPhrase(t, srv.URL, `{"phrase":"Hello world"}`)
	if engine.calls.Load() != 1 {
		t.Fatalf("expected a single synthesis, got %d", engine.calls.Load())
	}
}

func TestRouterMetaRoutes(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		path string
		want string
	}{
		{"/", "Go Serverless v3.0!"},
		{"/v1", "TTS api version 1."},
		{"/healthz", "ok"},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("get %s: %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, resp.StatusCode)
		}
		if !strings.Contains(string(body), tt.want) {
			t.Fatalf("%s: body %q does not contain %q", tt.path, body, tt.want)
		}
	}
}

func TestRouterRateLimitsTTS(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimiter: middleware.NewRateLimiter(1, 1)})

	if resp := postPhrase(t, srv.URL, `{"phrase":"a"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", resp.StatusCode)
	}
	if resp := postPhrase(t, srv.URL, `{"phrase":"a"}`); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", resp.StatusCode)
	}

	// meta routes are not limited
	resp, err := http.Get(srv.URL + "/v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for /v1, got %d", resp.StatusCode)
	}
}

func TestRouterRejectsLargeBodies(t *testing.T) {
	srv, engine := newTestServer(t, Options{MaxBodyBytes: 32, RequestTimeout: time.Second})

	resp := postPhrase(t, srv.URL, `{"phrase":"`+strings.Repeat("x", 64)+`"}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
	if engine.calls.Load() != 0 {
		t.Fatalf("oversized request reached the engine")
	}
}
