package converter

import (
	"context"
	"errors"
	"fmt"

	"quiz-json/api/internal/format"
	"quiz-json/api/internal/imagecodec"
	"quiz-json/api/internal/inference"
)

// UserMessage is the only failure text shown to end users; details go to logs.
const UserMessage = "Falha ao converter a imagem. Verifique o console para mais detalhes ou tente novamente."

// NoImageMessage is shown when conversion is triggered before any upload.
const NoImageMessage = "Por favor, envie uma imagem primeiro."

var (
	// ErrConversionInFlight rejects a second trigger while one conversion runs.
	ErrConversionInFlight = errors.New("converter: a conversion is already in progress")
	ErrNoImage            = errors.New("converter: no image uploaded")
	// ErrSuperseded means a newer upload replaced the image mid-conversion.
	ErrSuperseded         = errors.New("converter: image replaced during conversion")
)

type FailureKind string

const (
	KindMissingCredential FailureKind = "missing_credential"
	KindRead              FailureKind = "read"
	KindTransport         FailureKind = "transport"
	KindEmptyResponse     FailureKind = "empty_response"
	KindMalformedResponse FailureKind = "malformed_response"
	KindSchemaMismatch    FailureKind = "schema_mismatch"
	KindBusy              FailureKind = "busy"
	KindNoImage           FailureKind = "no_image"
	KindSuperseded        FailureKind = "superseded"
	KindCanceled          FailureKind = "canceled"
	KindUnknown           FailureKind = "unknown"
)

// Kind classifies any error produced by the pipeline.
func Kind(err error) FailureKind {
	var (
		rerr *imagecodec.ReadError
		terr *inference.TransportError
		merr *format.MalformedResponseError
		serr *format.SchemaMismatchError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConversionInFlight):
		return KindBusy
	case errors.Is(err, ErrNoImage):
		return KindNoImage
	case errors.Is(err, ErrSuperseded):
		return KindSuperseded
	case errors.Is(err, inference.ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, inference.ErrEmptyResponse):
		return KindEmptyResponse
	case errors.As(err, &serr):
		return KindSchemaMismatch
	case errors.As(err, &merr):
		return KindMalformedResponse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &rerr):
		return KindRead
	case errors.As(err, &terr):
		return KindTransport
	}
	return KindUnknown
}

// Failure records where a conversion stopped. It wraps the original error
// so errors.Is/As keep working on the taxonomy types.
type Failure struct {
	ID    string
	Stage Stage
	Kind  FailureKind
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("conversion %s failed while %s (%s): %v", f.ID, f.Stage, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
