package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/mindmate/companion-api/internal/core/ports"
	"github.com/mindmate/companion-api/internal/pkg/datauri"
)

const responderInstruction = `You are %s, a warm and supportive wellness companion.
Always reply in the language with code %q.
Listen carefully, reflect feelings back, and offer gentle, practical coping ideas.
You are not a therapist or doctor: do not diagnose, and encourage professional help when it fits.
If the user shares a picture, respond to what you see with the same care.
Keep replies short and conversational.`

// Responder implements ports.Responder.
type Responder struct {
	models Models
	model  string
}

func NewResponder(models Models, model string) *Responder {
	return &Responder{models: models, model: model}
}

func (r *Responder) Respond(ctx context.Context, req ports.ResponderRequest) (*ports.ResponderReply, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, h := range req.History {
		if h.Text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if h.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Text, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Message)}
	if req.Image != "" {
		mime, data, err := datauri.Decode(req.Image)
		if err != nil {
			return nil, fmt.Errorf("respond: image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(fmt.Sprintf(responderInstruction, req.CompanionName, req.Language), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.8),
	}
	resp, err := r.models.GenerateContent(ctx, r.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}

	out := firstParts(resp)
	reply := &ports.ResponderReply{Text: joinedText(out)}
	for _, p := range out {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			reply.Image = datauri.Encode(p.InlineData.MIMEType, p.InlineData.Data)
			break
		}
	}
	if reply.Text == "" && reply.Image == "" {
		return nil, errEmptyResponse
	}
	return reply, nil
}
