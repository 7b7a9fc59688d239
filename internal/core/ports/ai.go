package ports

import "context"

// CrisisDetector classifies a single message.
type CrisisDetector interface {
	Detect(ctx context.Context, message string) (bool, error)
}

// HistoryTurn is one prior turn passed to the Responder.
type HistoryTurn struct {
	Role string // "user" or "assistant"
	Text string
}

// ResponderRequest is the Conversational Responder input.
type ResponderRequest struct {
	Message       string
	Language      string
	History       []HistoryTurn
	Image         string // optional data URI
	CompanionName string
}

// ResponderReply is the Conversational Responder output.
type ResponderReply struct {
	Text  string
	Image string // optional data URI
}

// Responder produces a companion reply.
type Responder interface {
	Respond(ctx context.Context, req ResponderRequest) (*ResponderReply, error)
}

// SpeechBackend renders text to an audio data URI.
type SpeechBackend interface {
	Synthesize(ctx context.Context, text, voiceID string) (string, error)
}

// Synthesizer never fails: "" means no audio was produced.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) string
}
