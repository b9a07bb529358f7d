package imagecodec

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("handle revoked") }

// TestEncodeRoundTrip verifies decoded data equals the input bytes.
func TestEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 57, 1024, 4099} {
		in := make([]byte, n)
		rng.Read(in)

		img, err := Encode(context.Background(), bytes.NewReader(in), "image/png")
		if err != nil {
			t.Fatalf("encode %d bytes: %v", n, err)
		}
		if img.MIMEType != "image/png" {
			t.Fatalf("expected image/png, got %q", img.MIMEType)
		}
		out, err := img.Bytes()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(in, out) {
			t.Fatalf("round trip mismatch for %d bytes", n)
		}
	}
}

// TestEncodeKeepsArbitraryContent verifies non-image bytes are forwarded as-is.
func TestEncodeKeepsArbitraryContent(t *testing.T) {
	img, err := Encode(context.Background(), bytes.NewReader([]byte("not an image")), "image/jpeg")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Fatalf("declared MIME type must be kept, got %q", img.MIMEType)
	}
	if img.Data != "bm90IGFuIGltYWdl" {
		t.Fatalf("unexpected data %q", img.Data)
	}
}

// TestEncodeReadFailure verifies unreadable sources yield ReadError.
func TestEncodeReadFailure(t *testing.T) {
	_, err := Encode(context.Background(), failingReader{}, "image/png")
	var rerr *ReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ReadError, got %T %v", err, err)
	}
}

// TestEncodeCanceled verifies a canceled context stops encoding.
func TestEncodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Encode(ctx, bytes.NewReader([]byte{1}), "image/png"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
