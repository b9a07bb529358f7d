package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"quiz-json/api/internal/prompt"
	"quiz-json/api/internal/quiz"
)

const schemaURL = "questionfile.schema.json"

// SchemaMismatchError means the provider returned JSON that is not a QuestionFile.
type SchemaMismatchError struct {
	Raw string
	Err error
}

func (e *SchemaMismatchError) Error() string {
	return "format: response does not match the question schema: " + e.Err.Error()
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// Validator checks decoded output against the prompt schema. Compile once at
// startup and share.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator(spec *prompt.Spec) (*Validator, error) {
	doc, err := json.Marshal(prompt.JSONSchema(spec.Schema))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(schemaURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks text against the schema and the QuestionFile id invariants.
func (v *Validator) Validate(text string) error {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return &MalformedResponseError{Raw: text, Err: err}
	}
	if err := v.schema.Validate(parsed); err != nil {
		return &SchemaMismatchError{Raw: text, Err: err}
	}
	var f quiz.QuestionFile
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return &SchemaMismatchError{Raw: text, Err: err}
	}
	if err := f.Validate(); err != nil {
		return &SchemaMismatchError{Raw: text, Err: err}
	}
	return nil
}
