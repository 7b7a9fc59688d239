// Package voiceclone calls an ElevenLabs-compatible text-to-speech API for
// users who registered a cloned voice.
package voiceclone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mindmate/companion-api/internal/pkg/datauri"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"
	maxAudioBytes  = 10 << 20
)

type Config struct {
	BaseURL string
	APIKey  string
	ModelID string
	Timeout time.Duration
}

// Client implements ports.SpeechBackend.
type Client struct {
	baseURL string
	apiKey  string
	modelID string
	http    *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		modelID: cfg.ModelID,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize renders text in the given cloned voice and returns an audio data URI.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if voiceID == "" {
		return "", fmt.Errorf("voiceclone: voice id is required")
	}
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: c.modelID})
	if err != nil {
		return "", fmt.Errorf("voiceclone: encode request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("voiceclone: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voiceclone: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("voiceclone: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return "", fmt.Errorf("voiceclone: read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("voiceclone: empty audio")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "audio/") {
		mime = "audio/mpeg"
	}
	return datauri.Encode(mime, audio), nil
}
