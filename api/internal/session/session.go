package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/prompt"
)

// CopiedResetDelay is how long the "copied" indicator stays on.
const CopiedResetDelay = 2 * time.Second

var ErrNothingToCopy = errors.New("session: only the placeholder is displayed")

// Display is what the result panel renders.
type Display struct {
	Text        string          `json:"text"`
	Placeholder bool            `json:"placeholder"`
	CopyEnabled bool            `json:"copy_enabled"`
	Copied      bool            `json:"copied"`
	Loading     bool            `json:"loading"`
	Stage       converter.Stage `json:"stage"`
	Error       string          `json:"error,omitempty"`
	PreviewID   string          `json:"preview_id,omitempty"`
}

// Session is the in-memory state of one user: uploaded image, last good
// output and the transient UI flags around it.
type Session struct {
	ID string

	previews *Previews
	guard    *converter.Guard

	mu           sync.Mutex
	image        []byte
	mimeType     string
	previewID    string
	output       string
	errMsg       string
	stage        converter.Stage
	copied       bool
	copyTimer    *time.Timer
	lastActivity time.Time

	// gen changes on every Upload and Close; a conversion started under
	// an older gen must not touch the display.
	gen        uint64
	cancel     context.CancelFunc
	running    chan struct{}
	runningGen uint64
}

func newSession(id string, previews *Previews) *Session {
	return &Session{
		ID:           id,
		previews:     previews,
		guard:        converter.NewGuard(),
		stage:        converter.StageIdle,
		lastActivity: time.Now(),
	}
}

// Upload replaces the current image. The previous preview handle is
// released and prior output and error are cleared.
func (s *Session) Upload(data []byte, mimeType string) string {
	id := s.previews.Acquire(data, mimeType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.previews.Release(s.previewID)
	s.image = data
	s.mimeType = mimeType
	s.previewID = id
	s.output = ""
	s.errMsg = ""
	s.stage = converter.StageIdle
	s.resetCopiedLocked()
	s.lastActivity = time.Now()
	return id
}

// Convert runs conv on the uploaded image. A second call while one is
// running returns converter.ErrConversionInFlight and changes nothing.
// On failure the previous output stays visible. A conversion superseded
// by Upload or Close is canceled and returns converter.ErrSuperseded
// without updating the display.
func (s *Session) Convert(ctx context.Context, conv *converter.Converter) (converter.Result, error) {
	if err := s.waitSuperseded(ctx); err != nil {
		return converter.Result{}, err
	}

	done := make(chan struct{})
	// Closed after the guard is released so waiters can acquire it.
	defer close(done)

	var res converter.Result
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s.mu.Lock()
		img, mimeType, gen := s.image, s.mimeType, s.gen
		s.lastActivity = time.Now()
		if img == nil {
			s.errMsg = converter.NoImageMessage
			s.mu.Unlock()
			return converter.ErrNoImage
		}
		s.errMsg = ""
		s.cancel = cancel
		s.running = done
		s.runningGen = gen
		s.mu.Unlock()

		var err error
		res, err = conv.Convert(ctx, converter.Input{
			Image:    bytes.NewReader(img),
			MIMEType: mimeType,
			OnStage:  func(st converter.Stage) { s.setStage(gen, st) },
		})

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.running == done {
			s.running = nil
			s.cancel = nil
		}
		if s.gen != gen {
			res = converter.Result{}
			return converter.ErrSuperseded
		}
		if err != nil {
			s.errMsg = converter.UserMessage
			return err
		}
		s.output = res.JSON
		s.resetCopiedLocked()
		return nil
	})
	return res, err
}

// waitSuperseded lets a conversion of a replaced image wind down before a
// new trigger, so it does not count as in flight.
func (s *Session) waitSuperseded(ctx context.Context) error {
	s.mu.Lock()
	running, stale := s.running, s.running != nil && s.runningGen != s.gen
	s.mu.Unlock()
	if !stale {
		return nil
	}
	select {
	case <-running:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// supersedeLocked invalidates and cancels the running conversion, if any.
func (s *Session) supersedeLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) setStage(gen uint64, st converter.Stage) {
	s.mu.Lock()
	if s.gen == gen {
		s.stage = st
	}
	s.mu.Unlock()
}

// View renders the display: real output, or the example placeholder.
func (s *Session) View() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Display{
		Text:        s.output,
		CopyEnabled: s.output != "",
		Copied:      s.copied,
		Loading:     s.guard.Busy(),
		Stage:       s.stage,
		Error:       s.errMsg,
		PreviewID:   s.previewID,
	}
	if s.output == "" {
		d.Text = prompt.Example
		d.Placeholder = true
	}
	return d
}

// Output returns the last successful result, "" if none.
func (s *Session) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// MarkCopied turns the copied indicator on for delay. A newer call
// supersedes the pending reset of an older one.
func (s *Session) MarkCopied(delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output == "" {
		return ErrNothingToCopy
	}
	s.resetCopiedLocked()
	s.copied = true
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.copyTimer == t {
			s.copied = false
			s.copyTimer = nil
		}
	})
	s.copyTimer = t
	return nil
}

func (s *Session) resetCopiedLocked() {
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.copied = false
}

// Close releases the preview handle and pending timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.previews.Release(s.previewID)
	s.previewID = ""
	s.image = nil
	s.resetCopiedLocked()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}
