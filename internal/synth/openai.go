package synth

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// SpeechAPI is the subset of *openai.Client the engine uses.
type SpeechAPI interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

type OpenAIConfig struct {
	Model string  // default tts-1
	Voice string  // default alloy
	Speed float64 // default 1.0
}

// OpenAIEngine synthesizes mp3 audio with the OpenAI speech endpoint.
type OpenAIEngine struct {
	client SpeechAPI
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	speed  float64
}

func NewOpenAIEngine(client SpeechAPI, cfg OpenAIConfig) *OpenAIEngine {
	e := &OpenAIEngine{
		client: client,
		model:  openai.SpeechModel(cfg.Model),
		voice:  openai.SpeechVoice(cfg.Voice),
		speed:  cfg.Speed,
	}
	if e.model == "" {
		e.model = openai.TTSModel1
	}
	if e.voice == "" {
		e.voice = openai.VoiceAlloy
	}
	if e.speed <= 0 {
		e.speed = 1.0
	}
	return e
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Synthesize(ctx context.Context, text string) (*Audio, error) {
	resp, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          e.model,
		Input:          text,
		Voice:          e.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          e.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai create speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read openai speech: %w", err)
	}
	return &Audio{Data: data, ContentType: "audio/mpeg", Extension: "mp3"}, nil
}
