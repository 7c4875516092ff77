package synth

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// PollyAPI is the subset of *polly.Client the engine uses.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type PollyConfig struct {
	Voice    string // default "Camila"
	Language string // optional, e.g. "pt-BR"
	Neural   bool
}

// PollyEngine synthesizes mp3 audio with Amazon Polly.
type PollyEngine struct {
	client   PollyAPI
	voice    types.VoiceId
	language types.LanguageCode
	engine   types.Engine
}

func NewPollyEngine(client PollyAPI, cfg PollyConfig) *PollyEngine {
	voice := cfg.Voice
	if voice == "" {
		voice = "Camila"
	}
	e := &PollyEngine{
		client:   client,
		voice:    types.VoiceId(voice),
		language: types.LanguageCode(cfg.Language),
		engine:   types.EngineStandard,
	}
	if cfg.Neural {
		e.engine = types.EngineNeural
	}
	return e
}

func (e *PollyEngine) Name() string { return "polly" }

func (e *PollyEngine) Synthesize(ctx context.Context, text string) (*Audio, error) {
	in := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      e.voice,
		Engine:       e.engine,
	}
	if e.language != "" {
		in.LanguageCode = e.language
	}

	out, err := e.client.SynthesizeSpeech(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("polly synthesize speech: %w", err)
	}
	defer out.AudioStream.Close()

	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read polly audio stream: %w", err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return &Audio{Data: data, ContentType: contentType, Extension: "mp3"}, nil
}
