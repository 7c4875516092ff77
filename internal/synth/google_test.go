package synth

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"
)

type fakeGoogle struct {
	req *texttospeechpb.SynthesizeSpeechRequest
	err error
}

func (f *fakeGoogle) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("mp3-bytes")}, nil
}

func TestGoogleEngineSynthesize(t *testing.T) {
	fake := &fakeGoogle{}
	e := NewGoogleEngine(fake, GoogleConfig{})

	audio, err := e.Synthesize(context.Background(), "Olá")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio.Data)
	require.Equal(t, "Olá", fake.req.GetInput().GetText())
	require.Equal(t, "pt-BR", fake.req.GetVoice().GetLanguageCode())
	require.Equal(t, texttospeechpb.AudioEncoding_MP3, fake.req.GetAudioConfig().GetAudioEncoding())
}

func TestGoogleEngineError(t *testing.T) {
	boom := errors.New("unavailable")
	_, err := NewGoogleEngine(&fakeGoogle{err: boom}, GoogleConfig{}).Synthesize(context.Background(), "x")
	require.ErrorIs(t, err, boom)
}
