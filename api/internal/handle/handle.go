package handle

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/session"
)

const sessionCookie = "qj_session"

type Options struct {
	MaxUploadBytes int64
	Logger         *zerolog.Logger
}

type Handle struct {
	conv      *converter.Converter
	sessions  *session.Store
	maxUpload int64
	logger    zerolog.Logger
}

func New(conv *converter.Converter, sessions *session.Store, opts Options) *Handle {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Handle{
		conv:      conv,
		sessions:  sessions,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Register mounts the API on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/upload", h.Upload)
	mux.HandleFunc("/v1/convert", h.Convert)
	mux.HandleFunc("/v1/display", h.Display)
	mux.HandleFunc("/v1/copy", h.Copy)
	mux.HandleFunc("/v1/preview/{id}", h.Preview)
}

type apiError struct {
	Error string                `json:"error"`
	Kind  converter.FailureKind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// session returns the caller's session, issuing a cookie on first contact.
func (h *Handle) session(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if s, ok := h.sessions.Get(c.Value); ok {
			return s
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((12 * time.Hour).Seconds()),
	})
	return h.sessions.GetOrCreate(id)
}
