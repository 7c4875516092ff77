package synth

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// MemoryPublisher keeps audio in process memory and can serve it over HTTP.
// For local runs and tests.
type MemoryPublisher struct {
	mu      sync.RWMutex
	objects map[string]*Audio
	baseURL string
	uploads int
}

// NewMemoryPublisher returns a publisher whose URLs are baseURL + "/" + key.
func NewMemoryPublisher(baseURL string) *MemoryPublisher {
	return &MemoryPublisher{
		objects: make(map[string]*Audio),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *MemoryPublisher) Publish(ctx context.Context, key string, audio *Audio) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cp := &Audio{
		Data:        append([]byte(nil), audio.Data...),
		ContentType: audio.ContentType,
		Extension:   audio.Extension,
	}

	p.mu.Lock()
	p.objects[key] = cp
	p.uploads++
	p.mu.Unlock()

	return p.baseURL + "/" + key, nil
}

// Object returns the stored audio for key.
func (p *MemoryPublisher) Object(key string) (*Audio, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.objects[key]
	return a, ok
}

// Len returns the number of distinct stored keys.
func (p *MemoryPublisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.objects)
}

// Uploads returns the number of Publish calls, including overwrites.
func (p *MemoryPublisher) Uploads() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uploads
}

// ServeHTTP serves stored objects; the key is the request path without the
// leading slash, so mount it with http.StripPrefix.
func (p *MemoryPublisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	audio, ok := p.Object(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	_, _ = w.Write(audio.Data)
}
