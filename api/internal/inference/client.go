package inference

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"quiz-json/api/internal/imagecodec"
	"quiz-json/api/internal/prompt"
)

const DefaultModel = "gemini-2.5-flash"

type Options struct {
	APIKey string
	Model  string
	Logger *zerolog.Logger
}

// Client sends one encoded image plus prompt spec to an Engine.
type Client struct {
	engine Engine
	apiKey string
	model  string
	logger zerolog.Logger
}

func New(engine Engine, opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		engine: engine,
		apiKey: strings.TrimSpace(opts.APIKey),
		model:  model,
		logger: logger,
	}
}

func (c *Client) Model() string { return c.model }

// Infer returns the provider's raw answer. The text is expected to be JSON
// matching spec.Schema but is not checked here.
func (c *Client) Infer(ctx context.Context, img imagecodec.EncodedImage, spec *prompt.Spec) (string, error) {
	if err := CheckCredential(c.apiKey); err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("engine", c.engine.Name()).
		Str("model", c.model).
		Str("mime", img.MIMEType).
		Int("b64_len", len(img.Data)).
		Msg("inference request")

	txt, err := c.engine.Generate(ctx, Request{
		APIKey: c.apiKey,
		Model:  c.model,
		Image:  img,
		Prompt: spec,
	})
	if err != nil {
		return "", &TransportError{Engine: c.engine.Name(), Err: err}
	}
	// Whitespace is text; the formatter reports it as malformed.
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}
