package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/datauri"
)

type fakeModels struct {
	parts    []*genai.Part
	err      error
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: f.parts}}},
	}, nil
}

func textParts(s string) []*genai.Part {
	return []*genai.Part{{Text: s}}
}

func TestCrisisDetector(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		want    bool
		wantErr bool
	}{
		{"crisis", `{"isCrisis": true}`, true, false},
		{"calm", `{"isCrisis": false}`, false, false},
		{"garbage", `maybe`, false, true},
		{"missing field", `{}`, false, true},
		{"empty", ``, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fm := &fakeModels{parts: textParts(tc.reply)}
			got, err := NewCrisisDetector(fm, "m").Detect(context.Background(), "message")
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			if fm.config.ResponseMIMEType != "application/json" || fm.config.ResponseSchema == nil {
				t.Fatalf("expected structured output config")
			}
		})
	}
}

func TestCrisisDetector_BlankSkipsCall(t *testing.T) {
	fm := &fakeModels{}
	got, err := NewCrisisDetector(fm, "m").Detect(context.Background(), "   ")
	if err != nil || got {
		t.Fatalf("expected false,nil got %v,%v", got, err)
	}
	if fm.calls != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestCrisisDetector_CallError(t *testing.T) {
	fm := &fakeModels{err: errors.New("503")}
	if _, err := NewCrisisDetector(fm, "m").Detect(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResponder_BuildsConversation(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G'}
	fm := &fakeModels{parts: []*genai.Part{
		{Text: "That sounds hard. "},
		{Text: "I'm here."},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: img}},
	}}
	r := NewResponder(fm, "resp-model")

	reply, err := r.Respond(context.Background(), ports.ResponderRequest{
		Message:       "look at this",
		Language:      "en",
		CompanionName: "Mira",
		Image:         datauri.Encode("image/jpeg", []byte{1, 2}),
		History: []ports.HistoryTurn{
			{Role: "user", Text: "hi"},
			{Role: "assistant", Text: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if reply.Text != "That sounds hard. I'm here." {
		t.Fatalf("unexpected text %q", reply.Text)
	}
	if reply.Image != datauri.Encode("image/png", img) {
		t.Fatalf("unexpected image %q", reply.Image)
	}

	if fm.model != "resp-model" || len(fm.contents) != 3 {
		t.Fatalf("expected 3 contents on resp-model, got %d on %s", len(fm.contents), fm.model)
	}
	if fm.contents[1].Role != genai.RoleModel {
		t.Fatalf("expected assistant history mapped to model role, got %s", fm.contents[1].Role)
	}
	last := fm.contents[2]
	if len(last.Parts) != 2 || last.Parts[1].InlineData == nil || last.Parts[1].InlineData.MIMEType != "image/jpeg" {
		t.Fatalf("expected message plus inline image, got %+v", last.Parts)
	}
	if !strings.Contains(fm.config.SystemInstruction.Parts[0].Text, "Mira") {
		t.Fatalf("expected companion name in system instruction")
	}
}

func TestResponder_EmptyReply(t *testing.T) {
	fm := &fakeModels{parts: nil}
	if _, err := NewResponder(fm, "m").Respond(context.Background(), ports.ResponderRequest{Message: "hi"}); err == nil {
		t.Fatalf("expected error for empty reply")
	}
}

func TestResponder_BadImage(t *testing.T) {
	fm := &fakeModels{parts: textParts("ok")}
	if _, err := NewResponder(fm, "m").Respond(context.Background(), ports.ResponderRequest{Message: "hi", Image: "not-a-uri"}); err == nil {
		t.Fatalf("expected error for malformed image")
	}
	if fm.calls != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestSpeech_WrapsPCM(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	fm := &fakeModels{parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "audio/L16;codec=pcm;rate=16000", Data: pcm}}}}

	uri, err := NewSpeech(fm, "tts", "Kore").Synthesize(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	mime, wav, err := datauri.Decode(uri)
	if err != nil || mime != "audio/wav" {
		t.Fatalf("expected wav data uri, got %q err=%v", mime, err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) || len(wav) != 44+len(pcm) {
		t.Fatalf("unexpected wav header, len=%d", len(wav))
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Fatalf("expected rate 16000, got %d", rate)
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Fatalf("expected pcm payload preserved")
	}
	if fm.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Kore" {
		t.Fatalf("expected configured voice")
	}
}

func TestSpeech_NoAudio(t *testing.T) {
	fm := &fakeModels{parts: textParts("no audio here")}
	if _, err := NewSpeech(fm, "tts", "Kore").Synthesize(context.Background(), "hello", ""); err == nil {
		t.Fatalf("expected error")
	}
}
