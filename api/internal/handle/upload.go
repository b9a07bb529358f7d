package handle

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"quiz-json/api/internal/util"
)

type uploadJSON struct {
	ImageB64 string `json:"image_b64"`
	MIMEType string `json:"mime_type,omitempty"`
}

type uploadResponse struct {
	PreviewURL string `json:"preview_url"`
	MIMEType   string `json:"mime_type"`
	Size       int    `json:"size"`
}

// Upload stores one image in the caller's session. Accepts multipart
// field "image" or a JSON body with image_b64 (data URLs allowed).
func (h *Handle) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "POST only"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var (
		img      []byte
		mimeType string
		err      error
	)
	if strings.HasPrefix(util.NormalizeMIME(r.Header.Get("Content-Type")), "multipart/") {
		img, mimeType, err = readMultipart(r, h.maxUpload)
	} else {
		img, mimeType, err = readJSONImage(r)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if len(img) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "empty image"})
		return
	}

	mimeType = util.PickMIME(mimeType, "", img)
	sess := h.session(w, r)
	id := sess.Upload(img, mimeType)

	writeJSON(w, http.StatusOK, uploadResponse{
		PreviewURL: "/v1/preview/" + id,
		MIMEType:   mimeType,
		Size:       len(img),
	})
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func readMultipart(r *http.Request, limit int64) ([]byte, string, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, "", badRequest("invalid multipart form")
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", badRequest("missing image")
	}
	defer file.Close()

	b, err := io.ReadAll(file)
	if err != nil {
		return nil, "", badRequest("failed to read image")
	}
	return b, header.Header.Get("Content-Type"), nil
}

func readJSONImage(r *http.Request) ([]byte, string, error) {
	var req uploadJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", badRequest("bad json: " + err.Error())
	}
	b, hint, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil {
		return nil, "", badRequest("bad image_b64")
	}
	return b, util.PickMIME(req.MIMEType, hint, b), nil
}

// Preview serves an uploaded image until its handle is released.
func (h *Handle) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "GET only"})
		return
	}
	pv, ok := h.sessions.Previews().Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "preview not found"})
		return
	}
	w.Header().Set("Content-Type", pv.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(pv.Data)
}
