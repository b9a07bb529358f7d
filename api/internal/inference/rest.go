package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"quiz-json/api/internal/prompt"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

type RESTOptions struct {
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
}

// RESTEngine calls models/{model}:generateContent over plain HTTP. Useful
// behind gateways that do not speak the SDK's transport.
type RESTEngine struct {
	baseURL    string
	apiVersion string
	httpc      *http.Client
}

func NewREST(opts RESTOptions) *RESTEngine {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &RESTEngine{baseURL: baseURL, apiVersion: apiVersion, httpc: httpc}
}

func (e *RESTEngine) Name() string { return "rest" }

func (e *RESTEngine) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == nil {
		return "", errors.New("gemini rest: prompt spec is nil")
	}
	payload := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &blob{MimeType: req.Image.MIMEType, Data: req.Image.Data}},
				{Text: req.Prompt.Instruction},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   openAPISchema(req.Prompt.Schema),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", e.baseURL, e.apiVersion, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.APIKey)

	httpResp, err := e.httpc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return decoded.text(), nil
}

// openAPISchema renders the schema in the API's own dialect (upper-case types).
func openAPISchema(s *genai.Schema) map[string]any {
	if s == nil {
		return nil
	}
	n := map[string]any{"type": strings.ToUpper(prompt.TypeName(s.Type))}
	if s.Description != "" {
		n["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		n["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = openAPISchema(v)
		}
		n["properties"] = props
	}
	if len(s.Required) > 0 {
		n["required"] = s.Required
	}
	if s.Items != nil {
		n["items"] = openAPISchema(s.Items)
	}
	return n
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateContentResponse) text() string {
	for _, c := range r.Candidates {
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
