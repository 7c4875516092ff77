package synth

import (
	"context"
	"fmt"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
)

// GoogleAPI is the subset of *texttospeech.Client the engine uses.
type GoogleAPI interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

type GoogleConfig struct {
	Language string // default pt-BR
	Voice    string // optional voice name
}

// GoogleEngine synthesizes mp3 audio with Cloud Text-to-Speech.
type GoogleEngine struct {
	client   GoogleAPI
	language string
	voice    string
}

func NewGoogleEngine(client GoogleAPI, cfg GoogleConfig) *GoogleEngine {
	lang := cfg.Language
	if lang == "" {
		lang = "pt-BR"
	}
	return &GoogleEngine{client: client, language: lang, voice: cfg.Voice}
}

func (e *GoogleEngine) Name() string { return "google" }

func (e *GoogleEngine) Synthesize(ctx context.Context, text string) (*Audio, error) {
	resp, err := e.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: e.language,
			Name:         e.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google synthesize speech: %w", err)
	}
	return &Audio{Data: resp.GetAudioContent(), ContentType: "audio/mpeg", Extension: "mp3"}, nil
}
