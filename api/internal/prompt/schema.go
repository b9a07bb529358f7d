package prompt

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// DefaultSchema mirrors quiz.QuestionFile.
func DefaultSchema() *genai.Schema {
	option := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id": {
				Type:        genai.TypeString,
				Description: "O identificador da alternativa (ex: 'A', 'B', '1').",
			},
			"text": {
				Type:        genai.TypeString,
				Description: "O texto completo da alternativa.",
			},
		},
		Required: []string{"id", "text"},
	}
	question := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id": {
				Type:        genai.TypeString,
				Description: "Um identificador curto e único para a pergunta, em formato snake_case.",
			},
			"statement": {
				Type:        genai.TypeString,
				Description: "O texto completo da pergunta.",
			},
			"options": {
				Type:        genai.TypeArray,
				Description: "Uma lista de alternativas de resposta.",
				Items:       option,
			},
		},
		Required: []string{"id", "statement", "options"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"questions": {
				Type:  genai.TypeArray,
				Items: question,
			},
		},
		Required: []string{"questions"},
	}
}

var typeNames = map[genai.Type]string{
	genai.TypeString:  "string",
	genai.TypeNumber:  "number",
	genai.TypeInteger: "integer",
	genai.TypeBoolean: "boolean",
	genai.TypeArray:   "array",
	genai.TypeObject:  "object",
}

// TypeName returns the lowercase JSON Schema name of t.
func TypeName(t genai.Type) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unspecified"
}

func parseTypeName(s string) (genai.Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == s {
			return t, nil
		}
	}
	return genai.TypeUnspecified, fmt.Errorf("unknown schema type %q", s)
}

// JSONSchema converts a genai schema tree to a draft-07 JSON Schema document.
func JSONSchema(s *genai.Schema) map[string]any {
	doc := jsonNode(s)
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	return doc
}

func jsonNode(s *genai.Schema) map[string]any {
	n := map[string]any{}
	if s == nil {
		return n
	}
	if s.Type != genai.TypeUnspecified {
		n["type"] = TypeName(s.Type)
	}
	if s.Description != "" {
		n["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		n["enum"] = append([]string(nil), s.Enum...)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			props[k] = jsonNode(v)
		}
		n["properties"] = props
	}
	if len(s.Required) > 0 {
		n["required"] = append([]string(nil), s.Required...)
	}
	if s.Items != nil {
		n["items"] = jsonNode(s.Items)
	}
	return n
}
