package imagecodec

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"quiz-json/api/internal/util"
)

// EncodedImage is the transport form of one uploaded image.
// Each Encode call returns a fresh value owned by the caller.
type EncodedImage struct {
	Data     string // standard base64, no data: prefix
	MIMEType string
}

// Bytes decodes Data back to the original content.
func (e EncodedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.Data)
}

// ReadError reports an image source that could not be read.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Source == "" {
		return "read image: " + e.Err.Error()
	}
	return fmt.Sprintf("read image %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Encode reads r to the end and base64-encodes it. No format or size
// checks happen here; bad images are rejected by the provider.
func Encode(ctx context.Context, r io.Reader, mimeType string) (EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return EncodedImage{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return EncodedImage{}, &ReadError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return EncodedImage{}, err
	}
	return EncodeBytes(b, mimeType), nil
}

// EncodeBytes is Encode for content already in memory.
func EncodeBytes(b []byte, mimeType string) EncodedImage {
	return EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(b),
		MIMEType: util.PickMIME(mimeType, "", b),
	}
}
