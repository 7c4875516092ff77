package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEngineSynthesize(t *testing.T) {
	var got openai.CreateSpeechRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	e := NewOpenAIEngine(openai.NewClientWithConfig(cfg), OpenAIConfig{Voice: "nova"})

	audio, err := e.Synthesize(context.Background(), "Hello world")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio.Data)
	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "Hello world", got.Input)
	require.Equal(t, openai.TTSModel1, got.Model)
	require.Equal(t, openai.SpeechVoice("nova"), got.Voice)
	require.Equal(t, openai.SpeechResponseFormatMp3, got.ResponseFormat)
}

func TestOpenAIEngineUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	e := NewOpenAIEngine(openai.NewClientWithConfig(cfg), OpenAIConfig{})

	_, err := e.Synthesize(context.Background(), "Hello world")
	require.Error(t, err)
}
