package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const crisisInstruction = `You are a safety classifier for a mental wellness app.
Decide whether the user's message indicates an immediate risk of self-harm, suicide,
harm to others, or a mental health emergency that needs urgent human help.
Ordinary sadness, stress or frustration is not a crisis.
Respond only with JSON: {"isCrisis": true} or {"isCrisis": false}.`

// CrisisDetector implements ports.CrisisDetector with a structured-output call.
type CrisisDetector struct {
	models Models
	model  string
}

func NewCrisisDetector(models Models, model string) *CrisisDetector {
	return &CrisisDetector{models: models, model: model}
}

type crisisVerdict struct {
	IsCrisis *bool `json:"isCrisis"`
}

// Detect returns false for blank input without calling the model. Any call
// or parse failure is returned to the caller.
func (d *CrisisDetector) Detect(ctx context.Context, message string) (bool, error) {
	if strings.TrimSpace(message) == "" {
		return false, nil
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(crisisInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"isCrisis": {Type: genai.TypeBoolean},
			},
			Required: []string{"isCrisis"},
		},
	}
	resp, err := d.models.GenerateContent(ctx, d.model,
		[]*genai.Content{genai.NewContentFromText(message, genai.RoleUser)},
		config,
	)
	if err != nil {
		return false, fmt.Errorf("crisis classify: %w", err)
	}

	raw := joinedText(firstParts(resp))
	if raw == "" {
		return false, errEmptyResponse
	}
	var v crisisVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, fmt.Errorf("crisis classify: decode %q: %w", raw, err)
	}
	if v.IsCrisis == nil {
		return false, fmt.Errorf("crisis classify: missing isCrisis in %q", raw)
	}
	return *v.IsCrisis, nil
}
