package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"gopkg.in/yaml.v3"
)

// fileSpec is the PROMPT_FILE layout. Either key may be omitted to keep
// the built-in value.
//
//	instruction: |
//	  ...
//	schema:
//	  type: object
//	  required: [questions]
//	  properties: ...
type fileSpec struct {
	Instruction string      `yaml:"instruction"`
	Schema      *schemaNode `yaml:"schema"`
}

type schemaNode struct {
	Type        string                 `yaml:"type"`
	Description string                 `yaml:"description"`
	Enum        []string               `yaml:"enum"`
	Properties  map[string]*schemaNode `yaml:"properties"`
	Required    []string               `yaml:"required"`
	Items       *schemaNode            `yaml:"items"`
}

// Load returns the built-in spec when path is empty, otherwise the spec
// from the YAML file merged over the defaults. The result is validated.
func Load(path string) (*Spec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes a YAML prompt document. Unknown keys are rejected.
func Parse(data []byte) (*Spec, error) {
	var fs fileSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fs); err != nil {
		return nil, fmt.Errorf("prompt: bad yaml: %w", err)
	}

	instruction := DefaultInstruction
	if strings.TrimSpace(fs.Instruction) != "" {
		instruction = fs.Instruction
	}
	schema := DefaultSchema()
	if fs.Schema != nil {
		s, err := fs.Schema.toGenai("schema")
		if err != nil {
			return nil, err
		}
		schema = s
	}
	return New(instruction, schema)
}

func (n *schemaNode) toGenai(path string) (*genai.Schema, error) {
	t, err := parseTypeName(n.Type)
	if err != nil {
		return nil, fmt.Errorf("prompt: %s: %w", path, err)
	}
	out := &genai.Schema{
		Type:        t,
		Description: n.Description,
		Enum:        n.Enum,
		Required:    n.Required,
	}
	if len(n.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(n.Properties))
		for k, v := range n.Properties {
			if v == nil {
				return nil, fmt.Errorf("prompt: %s.properties.%s is empty", path, k)
			}
			child, err := v.toGenai(path + ".properties." + k)
			if err != nil {
				return nil, err
			}
			out.Properties[k] = child
		}
	}
	if n.Items != nil {
		items, err := n.Items.toGenai(path + ".items")
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	return out, nil
}
