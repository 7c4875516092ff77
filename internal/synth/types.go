// Package synth turns a phrase into a published audio object: an Engine
// produces the audio and a Publisher stores it under a key derived from the
// phrase identifier.
package synth

import (
	"context"
	"errors"
)

// ErrSynthesis is the single failure category for engine and upload errors.
var ErrSynthesis = errors.New("speech synthesis failed")

// Audio is a synthesized payload.
type Audio struct {
	Data        []byte
	ContentType string // e.g. "audio/mpeg"
	Extension   string // without dot: "mp3", "ogg"
}

// Engine synthesizes text into audio.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// Publisher stores audio under key and returns a public URL for it.
// Publishing the same key twice must overwrite, not duplicate.
type Publisher interface {
	Publish(ctx context.Context, key string, audio *Audio) (string, error)
}

func contentTypeFor(ext string) string {
	switch ext {
	case "mp3":
		return "audio/mpeg"
	case "ogg", "opus":
		return "audio/ogg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "aac":
		return "audio/aac"
	case "pcm":
		return "audio/l16"
	default:
		return "application/octet-stream"
	}
}
