package server

import (
	"bytes"
	"errors"
	"image"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink/collect"
	"github.com/hejijunhao/kimo/internal/sink/html"
)

// SubmitRequest is the body for POST /api/submit.
type SubmitRequest struct {
	Text string `json:"text"`
}

// VoiceRequest is the JSON body for POST /api/voice.
type VoiceRequest struct {
	Transcript string `json:"transcript"`
}

// BlockResponse is a rendered block. HTML is sanitized.
type BlockResponse struct {
	Path  string `json:"path"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
	Error bool   `json:"error,omitempty"`
}

// DispatchResponse is returned by every input endpoint.
type DispatchResponse struct {
	Path    string               `json:"path"`
	Blocks  []BlockResponse      `json:"blocks"`
	Entries []model.SessionEntry `json:"entries"`
	Prefill string               `json:"prefill,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// handleSubmit routes free text to search or the responder.
// POST /api/submit
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := s.decode(r, &req); err != nil {
		s.error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	s.dispatch(w, r, model.Submit{Text: req.Text})
}

// handleUpload accepts a multipart form with one "file" field.
// POST /api/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.error(w, r, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.error(w, r, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	mediaType := hdr.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}

	in, ok := model.FromUpload(hdr.Filename, mediaType, data)
	if !ok {
		s.error(w, r, http.StatusUnsupportedMediaType, "unsupported file type: "+mediaType)
		return
	}
	s.dispatch(w, r, in)
}

// handleDraw recognizes handwriting on a PNG canvas snapshot.
// POST /api/draw
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.error(w, r, http.StatusRequestEntityTooLarge, "canvas too large")
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.error(w, r, http.StatusBadRequest, "canvas must be a PNG image")
		return
	}
	s.dispatch(w, r, model.Drawing{Canvas: img})
}

// handleVoice accepts a transcript as JSON or raw audio with its media type.
// POST /api/voice
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req VoiceRequest
		if err := s.decode(r, &req); err != nil {
			s.error(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		s.dispatch(w, r, model.Voice{Transcript: req.Transcript})
		return
	}
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.error(w, r, http.StatusRequestEntityTooLarge, "recording too large")
		return
	}
	s.dispatch(w, r, model.Voice{Audio: audio, MediaType: ct})
}

// GET /api/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.a.History())
}

// GET /api/theme
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"theme": string(s.a.Theme())})
}

// POST /api/theme/toggle
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	t, err := s.a.ToggleTheme(r.Context())
	if err != nil {
		s.logger.Error("theme toggle failed", "error", err)
		s.error(w, r, http.StatusInternalServerError, "failed to save theme")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"theme": string(t)})
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":       "ok",
		"capabilities": s.a.Capabilities(),
	}
	if err := s.a.Degraded(); err != nil {
		resp["status"] = "degraded"
		resp["notice"] = dispatch.MsgDegraded
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, in model.Input) {
	out := collect.New()
	res := s.a.DispatchTo(r.Context(), in, out)
	s.writeJSON(w, http.StatusOK, toResponse(res, out))
}

func toResponse(res dispatch.Result, out *collect.Collector) DispatchResponse {
	resp := DispatchResponse{
		Path:    string(res.Path),
		Blocks:  []BlockResponse{},
		Entries: res.Entries,
		Prefill: res.Prefill,
	}
	if resp.Entries == nil {
		resp.Entries = []model.SessionEntry{}
	}
	for _, b := range out.Blocks() {
		resp.Blocks = append(resp.Blocks, BlockResponse{
			Path:  b.Path,
			Text:  b.Text,
			HTML:  html.Render(b),
			Error: b.Error,
		})
	}
	return resp
}

func (s *Server) decode(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.maxUpload))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty body")
	}
	return sonic.Unmarshal(data, v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, errorResponse{
		Error:     strings.TrimSpace(msg),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
