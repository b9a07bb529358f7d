package handle

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"quiz-json/api/internal/converter"
	"quiz-json/api/internal/session"
)

type convertResponse struct {
	ID          string `json:"id"`
	JSON        string `json:"json"`
	CopyEnabled bool   `json:"copy_enabled"`
}

const (
	busyMessage       = "Uma conversão já está em andamento."
	supersededMessage = "A imagem foi substituída durante a conversão."
)

// Convert runs the pipeline on the session's image. The request context
// cancels the provider call if the client goes away.
func (h *Handle) Convert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "POST only"})
		return
	}

	ctx := r.Context()
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(v)*time.Second)
			defer cancel()
		}
	}

	sess := h.session(w, r)
	res, err := sess.Convert(ctx, h.conv)
	if err != nil {
		kind := converter.Kind(err)
		code, msg := failureResponse(kind)
		if kind == converter.KindBusy || kind == converter.KindNoImage || kind == converter.KindSuperseded {
			h.logger.Info().Str("session", sess.ID).Str("kind", string(kind)).Msg("convert rejected")
		}
		writeJSON(w, code, apiError{Error: msg, Kind: kind})
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{ID: res.ID, JSON: res.JSON, CopyEnabled: true})
}

func failureResponse(kind converter.FailureKind) (int, string) {
	switch kind {
	case converter.KindNoImage:
		return http.StatusBadRequest, converter.NoImageMessage
	case converter.KindBusy:
		return http.StatusConflict, busyMessage
	case converter.KindSuperseded:
		return http.StatusConflict, supersededMessage
	case converter.KindMissingCredential:
		return http.StatusServiceUnavailable, converter.UserMessage
	case converter.KindCanceled:
		return http.StatusGatewayTimeout, converter.UserMessage
	case converter.KindRead:
		return http.StatusBadRequest, converter.UserMessage
	}
	return http.StatusBadGateway, converter.UserMessage
}

// Display returns what the result panel shows: output or placeholder.
func (h *Handle) Display(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "GET only"})
		return
	}
	writeJSON(w, http.StatusOK, h.session(w, r).View())
}

// Copy flips the transient "copied" indicator; only real output can be copied.
func (h *Handle) Copy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "POST only"})
		return
	}
	sess := h.session(w, r)
	if err := sess.MarkCopied(session.CopiedResetDelay); err != nil {
		writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}
