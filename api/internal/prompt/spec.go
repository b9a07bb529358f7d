package prompt

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Spec is the instruction text plus response schema sent with every
// request. Build it once with New and share it by pointer.
type Spec struct {
	Instruction string
	Schema      *genai.Schema
}

// New validates instruction and schema and returns a Spec ready for reuse.
func New(instruction string, schema *genai.Schema) (*Spec, error) {
	s := &Spec{Instruction: strings.TrimSpace(instruction), Schema: schema}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Default returns the built-in spec; it panics if the built-in data is broken.
func Default() *Spec {
	s, err := New(DefaultInstruction, DefaultSchema())
	if err != nil {
		panic(fmt.Sprintf("prompt: built-in spec is invalid: %v", err))
	}
	return s
}

// Validate asserts the schema describes a QuestionFile: questions array of
// objects requiring id/statement/options, options requiring id/text.
func (s *Spec) Validate() error {
	if s == nil {
		return errors.New("prompt: spec is nil")
	}
	if s.Instruction == "" {
		return errors.New("prompt: instruction is empty")
	}
	root := s.Schema
	if err := expectObject("root", root, "questions"); err != nil {
		return err
	}
	questions := root.Properties["questions"]
	if err := expectArray("questions", questions); err != nil {
		return err
	}
	question := questions.Items
	if err := expectObject("questions[]", question, "id", "statement", "options"); err != nil {
		return err
	}
	if err := expectString("questions[].id", question.Properties["id"]); err != nil {
		return err
	}
	if err := expectString("questions[].statement", question.Properties["statement"]); err != nil {
		return err
	}
	options := question.Properties["options"]
	if err := expectArray("questions[].options", options); err != nil {
		return err
	}
	option := options.Items
	if err := expectObject("questions[].options[]", option, "id", "text"); err != nil {
		return err
	}
	if err := expectString("questions[].options[].id", option.Properties["id"]); err != nil {
		return err
	}
	return expectString("questions[].options[].text", option.Properties["text"])
}

func expectObject(path string, s *genai.Schema, required ...string) error {
	if s == nil {
		return fmt.Errorf("prompt: schema %s is missing", path)
	}
	if s.Type != genai.TypeObject {
		return fmt.Errorf("prompt: schema %s must be object, got %s", path, TypeName(s.Type))
	}
	for _, f := range required {
		if _, ok := s.Properties[f]; !ok {
			return fmt.Errorf("prompt: schema %s has no property %q", path, f)
		}
		if !slices.Contains(s.Required, f) {
			return fmt.Errorf("prompt: schema %s must require %q", path, f)
		}
	}
	return nil
}

func expectArray(path string, s *genai.Schema) error {
	if s == nil {
		return fmt.Errorf("prompt: schema %s is missing", path)
	}
	if s.Type != genai.TypeArray {
		return fmt.Errorf("prompt: schema %s must be array, got %s", path, TypeName(s.Type))
	}
	return nil
}

func expectString(path string, s *genai.Schema) error {
	if s == nil || s.Type != genai.TypeString {
		return fmt.Errorf("prompt: schema %s must be string", path)
	}
	return nil
}
