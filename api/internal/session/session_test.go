package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/format"
	"quiz-json/api/internal/inference"
	"quiz-json/api/internal/prompt"
)

type blockingEngine struct {
	text    string
	started chan struct{}
	release chan struct{}
	// ignoreCtx keeps blocking after cancellation, like a provider that
	// answers late anyway.
	ignoreCtx bool
	canceled  chan struct{}
}

func (e *blockingEngine) Name() string { return "blocking" }

func (e *blockingEngine) Generate(ctx context.Context, _ inference.Request) (string, error) {
	if e.started != nil {
		close(e.started)
		e.started = nil
	}
	if e.release == nil {
		return e.text, nil
	}
	if e.ignoreCtx {
		<-e.release
		return e.text, nil
	}
	select {
	case <-e.release:
		return e.text, nil
	case <-ctx.Done():
		if e.canceled != nil {
			close(e.canceled)
		}
		return "", ctx.Err()
	}
}

func newConverter(eng inference.Engine) *converter.Converter {
	client := inference.New(eng, inference.Options{APIKey: "k"})
	return converter.New(client, prompt.Default(), format.New(nil), converter.Options{})
}

// TestViewShowsPlaceholderInitially verifies the example is displayed and copy disabled.
func TestViewShowsPlaceholderInitially(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	d := s.View()
	if !d.Placeholder || d.Text != prompt.Example {
		t.Fatalf("expected placeholder, got %+v", d)
	}
	if d.CopyEnabled {
		t.Fatalf("copy must be disabled for the placeholder")
	}
	if err := s.MarkCopied(time.Second); !errors.Is(err, ErrNothingToCopy) {
		t.Fatalf("expected ErrNothingToCopy, got %v", err)
	}
}

// TestConvertWithoutImage verifies the no-image message and error.
func TestConvertWithoutImage(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	_, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: `{"questions":[]}`}))
	if !errors.Is(err, converter.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if s.View().Error != converter.NoImageMessage {
		t.Fatalf("unexpected message %q", s.View().Error)
	}
}

// TestUploadReleasesPreviousPreview verifies superseded preview handles are freed.
func TestUploadReleasesPreviousPreview(t *testing.T) {
	st := NewStore(Options{})
	s := st.GetOrCreate("u1")

	first := s.Upload([]byte{1}, "image/png")
	second := s.Upload([]byte{2}, "image/jpeg")
	if _, ok := st.Previews().Get(first); ok {
		t.Fatalf("first preview should be released")
	}
	pv, ok := st.Previews().Get(second)
	if !ok || pv.MIMEType != "image/jpeg" {
		t.Fatalf("second preview missing")
	}
	if st.Previews().Len() != 1 {
		t.Fatalf("expected one live preview, got %d", st.Previews().Len())
	}

	st.Drop("u1")
	if st.Previews().Len() != 0 {
		t.Fatalf("drop must release previews")
	}
}

// TestFailureKeepsPriorOutput verifies a failed conversion leaves the last result visible.
func TestFailureKeepsPriorOutput(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte{1}, "image/png")

	if _, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: `{"questions":[]}`})); err != nil {
		t.Fatalf("first convert: %v", err)
	}
	good := s.Output()

	_, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: "{invalid"}))
	if converter.Kind(err) != converter.KindMalformedResponse {
		t.Fatalf("expected malformed, got %v", err)
	}
	d := s.View()
	if d.Text != good || d.Placeholder || d.Error != converter.UserMessage {
		t.Fatalf("unexpected display after failure: %+v", d)
	}
	if d.Stage != converter.StageFailed {
		t.Fatalf("expected failed stage, got %s", d.Stage)
	}
}

// TestUploadClearsOutput verifies a new upload starts from the placeholder.
func TestUploadClearsOutput(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte{1}, "image/png")
	if _, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: `{"questions":[]}`})); err != nil {
		t.Fatalf("convert: %v", err)
	}
	s.Upload([]byte{2}, "image/png")
	if d := s.View(); !d.Placeholder || d.Error != "" || d.Stage != converter.StageIdle {
		t.Fatalf("expected clean state, got %+v", d)
	}
}

// TestSecondConvertRejectedWhileInFlight verifies duplicate triggers are rejected.
func TestSecondConvertRejectedWhileInFlight(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte{1}, "image/png")

	eng := &blockingEngine{text: `{"questions":[]}`, started: make(chan struct{}), release: make(chan struct{})}
	started := eng.started
	conv := newConverter(eng)

	done := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), conv)
		done <- err
	}()
	<-started

	if !s.View().Loading {
		t.Fatalf("expected loading state")
	}
	if _, err := s.Convert(context.Background(), conv); !errors.Is(err, converter.ErrConversionInFlight) {
		t.Fatalf("expected ErrConversionInFlight, got %v", err)
	}

	close(eng.release)
	if err := <-done; err != nil {
		t.Fatalf("first convert: %v", err)
	}
	if s.View().Loading {
		t.Fatalf("loading should be cleared")
	}
}

// TestUploadCancelsRunningConversion verifies a new upload aborts the
// provider call and leaves the display cleared for the new image.
func TestUploadCancelsRunningConversion(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte("old image"), "image/png")

	eng := &blockingEngine{
		text:     `{"questions":[{"id":"old","statement":"s","options":[]}]}`,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		canceled: make(chan struct{}),
	}
	started, canceled := eng.started, eng.canceled
	done := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), newConverter(eng))
		done <- err
	}()
	<-started

	s.Upload([]byte("new image"), "image/jpeg")
	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatalf("provider call was not canceled")
	}
	if err := <-done; !errors.Is(err, converter.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	d := s.View()
	if !d.Placeholder || d.CopyEnabled || d.Error != "" || d.Stage != converter.StageIdle {
		t.Fatalf("stale conversion changed the display: %+v", d)
	}
}

// TestLateResultOfReplacedImageIsDropped verifies an answer arriving after
// a new upload never becomes the displayed output.
func TestLateResultOfReplacedImageIsDropped(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte("old image"), "image/png")

	eng := &blockingEngine{
		text:      `{"questions":[{"id":"old","statement":"s","options":[]}]}`,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
		ignoreCtx: true,
	}
	started := eng.started
	done := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), newConverter(eng))
		done <- err
	}()
	<-started

	s.Upload([]byte("new image"), "image/jpeg")
	close(eng.release)
	if err := <-done; !errors.Is(err, converter.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if d := s.View(); !d.Placeholder || d.CopyEnabled || s.Output() != "" {
		t.Fatalf("old output displayed for the new upload: %+v", d)
	}
	if err := s.MarkCopied(time.Second); !errors.Is(err, ErrNothingToCopy) {
		t.Fatalf("copy should stay disabled, got %v", err)
	}
}

// TestConvertAfterUploadWaitsForReplacedRun verifies converting the new
// image is not rejected as busy while the replaced run winds down.
func TestConvertAfterUploadWaitsForReplacedRun(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte("old image"), "image/png")

	old := &blockingEngine{text: `{"questions":[]}`, started: make(chan struct{}), release: make(chan struct{}), ignoreCtx: true}
	started := old.started
	oldDone := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), newConverter(old))
		oldDone <- err
	}()
	<-started

	s.Upload([]byte("new image"), "image/jpeg")
	newDone := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: `{"novo":true}`}))
		newDone <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(old.release)

	if err := <-oldDone; !errors.Is(err, converter.ErrSuperseded) {
		t.Fatalf("old run: expected ErrSuperseded, got %v", err)
	}
	if err := <-newDone; err != nil {
		t.Fatalf("new run: %v", err)
	}
	if got := s.Output(); got != "{\n  \"novo\": true\n}" {
		t.Fatalf("unexpected output %q", got)
	}
}

// TestCloseCancelsRunningConversion verifies tearing a session down aborts its provider call.
func TestCloseCancelsRunningConversion(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte{1}, "image/png")

	eng := &blockingEngine{text: `{}`, started: make(chan struct{}), release: make(chan struct{}), canceled: make(chan struct{})}
	started, canceled := eng.started, eng.canceled
	done := make(chan error, 1)
	go func() {
		_, err := s.Convert(context.Background(), newConverter(eng))
		done <- err
	}()
	<-started

	s.Close()
	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatalf("provider call was not canceled")
	}
	if err := <-done; !errors.Is(err, converter.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

// TestMarkCopiedResets verifies the copied flag turns off after the delay.
func TestMarkCopiedResets(t *testing.T) {
	s := NewStore(Options{}).GetOrCreate("u1")
	s.Upload([]byte{1}, "image/png")
	if _, err := s.Convert(context.Background(), newConverter(&blockingEngine{text: `{"questions":[]}`})); err != nil {
		t.Fatalf("convert: %v", err)
	}

	if err := s.MarkCopied(30 * time.Millisecond); err != nil {
		t.Fatalf("mark copied: %v", err)
	}
	if !s.View().Copied {
		t.Fatalf("expected copied")
	}
	// superseding call restarts the window
	time.Sleep(20 * time.Millisecond)
	if err := s.MarkCopied(100 * time.Millisecond); err != nil {
		t.Fatalf("mark copied: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if !s.View().Copied {
		t.Fatalf("older timer must not reset a newer copy")
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.View().Copied {
		if time.Now().After(deadline) {
			t.Fatalf("copied flag never reset")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestSweepDropsIdleSessions verifies idle sessions are released.
func TestSweepDropsIdleSessions(t *testing.T) {
	st := NewStore(Options{IdleTTL: time.Minute})
	st.GetOrCreate("a").Upload([]byte{1}, "image/png")
	st.GetOrCreate("b")

	if n := st.Sweep(time.Now()); n != 0 {
		t.Fatalf("nothing should be idle yet, swept %d", n)
	}
	if n := st.Sweep(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Fatalf("expected 2 swept, got %d", n)
	}
	if st.Len() != 0 || st.Previews().Len() != 0 {
		t.Fatalf("sessions or previews leaked")
	}
}
