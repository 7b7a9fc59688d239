// Package gemini adapts the Gemini API to the crisis detector, responder and
// default speech ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Models is the subset of *genai.Models used here.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config selects the Gemini models for each call.
type Config struct {
	APIKey         string
	CrisisModel    string
	ResponderModel string
	SpeechModel    string
	SpeechVoice    string
}

func (c *Config) applyDefaults() {
	if c.CrisisModel == "" {
		c.CrisisModel = "gemini-2.5-flash"
	}
	if c.ResponderModel == "" {
		c.ResponderModel = "gemini-2.5-flash"
	}
	if c.SpeechModel == "" {
		c.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if c.SpeechVoice == "" {
		c.SpeechVoice = "Kore"
	}
}

var errEmptyResponse = errors.New("gemini: empty response")

// NewModels creates a Gemini API client and returns its Models service.
func NewModels(ctx context.Context, apiKey string) (Models, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client.Models, nil
}

// Adapters bundles the three Gemini-backed ports.
type Adapters struct {
	Crisis    *CrisisDetector
	Responder *Responder
	Speech    *Speech
}

// New builds every adapter on one client.
func New(ctx context.Context, cfg Config) (*Adapters, error) {
	cfg.applyDefaults()
	models, err := NewModels(ctx, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &Adapters{
		Crisis:    NewCrisisDetector(models, cfg.CrisisModel),
		Responder: NewResponder(models, cfg.ResponderModel),
		Speech:    NewSpeech(models, cfg.SpeechModel, cfg.SpeechVoice),
	}, nil
}

// firstParts returns the parts of the first candidate.
func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func joinedText(parts []*genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
