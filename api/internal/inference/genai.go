package inference

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GenaiEngine talks to Gemini through the official SDK.
type GenaiEngine struct {
	Endpoint string // optional host:port, e.g. a regional or proxy endpoint
}

// NewGenai accepts either host:port or a URL; URLs are reduced to the
// host:port form option.WithEndpoint expects.
func NewGenai(endpoint string) *GenaiEngine {
	return &GenaiEngine{Endpoint: sdkEndpoint(endpoint)}
}

func sdkEndpoint(v string) string {
	v = strings.TrimSpace(v)
	if !strings.Contains(v, "://") {
		return strings.TrimRight(v, "/")
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return v
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return u.Host + ":80"
	}
	return u.Host + ":443"
}

func (e *GenaiEngine) Name() string { return "genai" }

func (e *GenaiEngine) Generate(ctx context.Context, req Request) (string, error) {
	data, err := req.Image.Bytes()
	if err != nil {
		return "", fmt.Errorf("gemini: bad image payload: %w", err)
	}

	opts := []option.ClientOption{option.WithAPIKey(req.APIKey)}
	if e.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(e.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(req.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Prompt.Schema,
	}

	resp, err := m.GenerateContent(ctx,
		&genai.Blob{MIMEType: req.Image.MIMEType, Data: data},
		genai.Text(req.Prompt.Instruction),
	)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// responseText concatenates the text parts of the first candidate that has content.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
