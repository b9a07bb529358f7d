package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// Option is one selectable answer choice within a Question.
type Option struct {
	ID   string `json:"id"`   // short label: "A", "1"
	Text string `json:"text"` // full option wording
}

// Question is one extracted quiz prompt. Options keep presentation order.
type Question struct {
	ID        string   `json:"id"`        // snake_case slug
	Statement string   `json:"statement"` // verbatim question text
	Options   []Option `json:"options"`
}

// QuestionFile is the complete extraction result for one image.
// Questions may be empty but is always serialized.
type QuestionFile struct {
	Questions []Question `json:"questions"`
}

var ErrMissingQuestions = errors.New("questions field is missing")

// Validate checks the identifier invariants: every question id and every
// option id must be non-empty, option ids unique within their question.
func (f QuestionFile) Validate() error {
	if f.Questions == nil {
		return ErrMissingQuestions
	}
	for i, q := range f.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("questions[%d]: empty id", i)
		}
		if q.Options == nil {
			return fmt.Errorf("questions[%d] (%s): options missing", i, q.ID)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for j, o := range q.Options {
			if strings.TrimSpace(o.ID) == "" {
				return fmt.Errorf("questions[%d].options[%d]: empty id", i, j)
			}
			if _, dup := seen[o.ID]; dup {
				return fmt.Errorf("questions[%d].options[%d]: duplicate id %q", i, j, o.ID)
			}
			seen[o.ID] = struct{}{}
		}
	}
	return nil
}
