package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"quiz-json/api/internal/util"
)

const indent = "  "

// MalformedResponseError means the provider answered with text that is not JSON.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("format: response is not valid JSON: %v (raw=%q)", e.Err, util.Truncate(e.Raw, 200))
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Format re-indents raw JSON with two spaces. Key order, number literals
// and string escapes are kept as the provider sent them, so formatting an
// already formatted text is a no-op.
func Format(raw string) (string, error) {
	src := []byte(strings.TrimSpace(raw))
	var probe any
	if err := json.Unmarshal(src, &probe); err != nil {
		return "", &MalformedResponseError{Raw: raw, Err: err}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", indent); err != nil {
		return "", &MalformedResponseError{Raw: raw, Err: err}
	}
	return buf.String(), nil
}

// Formatter is Format plus an optional shape check.
type Formatter struct {
	validator *Validator
}

// New returns a Formatter; v may be nil to skip shape validation.
func New(v *Validator) *Formatter {
	return &Formatter{validator: v}
}

func (f *Formatter) Strict() bool { return f != nil && f.validator != nil }

func (f *Formatter) Format(raw string) (string, error) {
	pretty, err := Format(raw)
	if err != nil {
		return "", err
	}
	if f.Strict() {
		if err := f.validator.Validate(pretty); err != nil {
			return "", err
		}
	}
	return pretty, nil
}
