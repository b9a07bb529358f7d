package inference

import (
	"context"
	"fmt"
	"strings"

	"quiz-json/api/internal/imagecodec"
	"quiz-json/api/internal/prompt"
)

// Request is everything one generateContent call carries.
type Request struct {
	APIKey string
	Model  string
	Image  imagecodec.EncodedImage
	Prompt *prompt.Spec
}

// Engine performs a single round trip to an inference provider and returns
// the raw text of the answer. Engines never retry.
type Engine interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Engines holds the configured provider engines.
type Engines struct {
	Genai Engine
	REST  Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "genai", "gemini":
		if e.Genai != nil {
			return e.Genai, nil
		}
	case "rest":
		if e.REST != nil {
			return e.REST, nil
		}
	default:
		return nil, fmt.Errorf("unknown inference provider %q; use 'genai' or 'rest'", name)
	}
	return nil, fmt.Errorf("inference provider %q is not configured", name)
}
