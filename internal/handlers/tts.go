package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"tts-gateway/internal/orchestrator"
	"tts-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// PhraseHandler is the orchestrator as seen by the HTTP layer.
type PhraseHandler interface {
	Handle(ctx context.Context, phrase *string) (orchestrator.Outcome, error)
}

// TTSHandler holds dependencies for the /v1/tts endpoint.
type TTSHandler struct {
	Orchestrator PhraseHandler
}

func NewTTSHandler(o PhraseHandler) *TTSHandler {
	return &TTSHandler{Orchestrator: o}
}

type ttsRequest struct {
	Phrase *string `json:"phrase"`
}

// TTSResponse is the success body for both cache hits and fresh syntheses.
type TTSResponse struct {
	ReceivedPhrase string `json:"received_phrase"`
	URLToAudio     string `json:"url_to_audio"`
	CreatedAudio   string `json:"created_audio"`
	UniqueID       string `json:"unique_id"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error"`
}

// Synthesize handles POST /v1/tts.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var req ttsRequest
	if r.Body != nil && r.ContentLength != 0 {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
				return
			}
			logger.Warn("invalid request", zap.Error(err))
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
			return
		}
	}

	out, err := h.Orchestrator.Handle(ctx, req.Phrase)
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	rec := out.Record
	logger.Info("tts_request_completed",
		zap.String("unique_id", rec.ID),
		zap.Bool("cache_hit", out.CacheHit),
		zap.Duration("total_latency", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, TTSResponse{
		ReceivedPhrase: rec.Phrase,
		URLToAudio:     rec.AudioURL,
		CreatedAudio:   rec.CreatedAtString(),
		UniqueID:       rec.ID,
	})
}

// writeError maps orchestrator failures to status codes. Only the failure
// category reaches the client; the cause stays in the logs.
func (h *TTSHandler) writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch orchestrator.KindOf(err) {
	case orchestrator.KindValidation:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: orchestrator.ErrValidation.Error()})
	case orchestrator.KindStoreUnavailable:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Error:   orchestrator.ErrStoreUnavailable.Error(),
		})
	case orchestrator.KindSynthesis:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Error:   orchestrator.ErrSynthesis.Error(),
		})
	default:
		logger.Error("unclassified tts error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Error:   "internal error",
		})
	}
}

// writeJSON sends v indented with four spaces.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	_ = enc.Encode(v)
}
