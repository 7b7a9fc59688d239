package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/mindmate/companion-api/internal/pkg/datauri"
)

const defaultSampleRate = 24000

// Speech implements ports.SpeechBackend with Gemini's TTS models. The voiceID
// argument is ignored; the configured prebuilt voice is always used.
type Speech struct {
	models Models
	model  string
	voice  string
}

func NewSpeech(models Models, model, voice string) *Speech {
	return &Speech{models: models, model: model, voice: voice}
}

func (s *Speech) Synthesize(ctx context.Context, text, _ string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: s.voice},
			},
		},
	}
	resp, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("speech: %w", err)
	}

	for _, p := range firstParts(resp) {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		mime := p.InlineData.MIMEType
		if strings.HasPrefix(mime, "audio/L16") || strings.Contains(mime, "pcm") {
			return datauri.Encode("audio/wav", pcmToWAV(p.InlineData.Data, sampleRate(mime))), nil
		}
		return datauri.Encode(mime, p.InlineData.Data), nil
	}
	return "", errEmptyResponse
}

// sampleRate reads rate=N from a mime type such as audio/L16;codec=pcm;rate=24000.
func sampleRate(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "rate" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return defaultSampleRate
}

// pcmToWAV wraps 16-bit little-endian mono PCM in a RIFF header.
func pcmToWAV(pcm []byte, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
