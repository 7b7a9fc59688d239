package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmate/companion-api/internal/core/ports"
)

type speechRouter struct {
	defaultVoice ports.SpeechBackend
	clonedVoice  ports.SpeechBackend
	log          zerolog.Logger
}

// NewSpeechService routes synthesis to the cloned-voice backend when a voice
// id is given and to the default backend otherwise. cloned may be nil, in
// which case every request uses the default voice.
func NewSpeechService(defaultVoice, cloned ports.SpeechBackend, log zerolog.Logger) ports.Synthesizer {
	return &speechRouter{defaultVoice: defaultVoice, clonedVoice: cloned, log: log}
}

// Synthesize returns an audio data URI, or "" when nothing was produced.
func (r *speechRouter) Synthesize(ctx context.Context, text, voiceID string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	backend, label := r.defaultVoice, "default"
	switch {
	case voiceID != "" && r.clonedVoice != nil:
		backend, label = r.clonedVoice, "cloned"
	case voiceID != "":
		r.log.Info().Str("voice_id", voiceID).Msg("cloned voice requested but no cloned-voice backend configured, using default voice")
	}
	if backend == nil {
		return ""
	}

	start := time.Now()
	audio, err := backend.Synthesize(ctx, text, voiceID)
	observeAI("speech", start, err)
	if err != nil {
		r.log.Warn().Err(err).Str("backend", label).Msg("speech synthesis failed, returning no audio")
		return ""
	}
	return audio
}
