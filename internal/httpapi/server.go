// Package httpapi exposes the assistant over HTTP. Routing is handled by chi;
// every response body is JSON.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Cardassist-core-poc/server/internal/assistant/classifier"
	"github.com/Cardassist-core-poc/server/internal/assistant/consent"
	"github.com/Cardassist-core-poc/server/internal/assistant/history"
	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	"github.com/Cardassist-core-poc/server/internal/assistant/router"
	"github.com/Cardassist-core-poc/server/internal/auth"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	"github.com/Cardassist-core-poc/server/internal/speech"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Server wires the assistant pipeline to HTTP endpoints.
type Server struct {
	router      *router.Router
	classifier  classifier.Classifier
	transcriber speech.Transcriber
	history     history.Repository
	verifier    *auth.Verifier
}

// New builds a Server. transcriber and hist may be nil; the matching endpoints
// then report that the feature is unavailable.
func New(r *router.Router, c classifier.Classifier, transcriber speech.Transcriber, hist history.Repository, verifier *auth.Verifier) *Server {
	return &Server{
		router:      r,
		classifier:  c,
		transcriber: transcriber,
		history:     hist,
		verifier:    verifier,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.verifier.Middleware)
		r.Post("/chat", s.handleChat)
		r.Post("/voice", s.handleVoice)
		r.Post("/consent", s.handleConsent)
		r.Post("/classify", s.handleClassify)
		r.Get("/history", s.handleHistory)
	})

	return r
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type voiceRequest struct {
	AudioData string `json:"audio_data"`
	UserID    string `json:"user_id,omitempty"`
}

type consentRequest struct {
	ProposalID string `json:"proposal_id"`
	Approve    bool   `json:"approve"`
}

type classifyRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "cardassist",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, errx.InvalidInput("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, errx.InvalidInput("message must not be empty"))
		return
	}

	q := model.Query{
		Text:       req.Message,
		UserID:     s.resolveUser(r, req.UserID),
		Modality:   model.ModalityText,
		ReceivedAt: time.Now().UTC(),
	}
	s.serveQuery(w, r, q)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "voice transcription is not configured"})
		return
	}

	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, errx.InvalidInput("invalid request body"))
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil || len(audio) == 0 {
		writeError(w, errx.InvalidInput("audio_data must be non-empty base64"))
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		logx.Error().Err(err).Msg("Transcription failed")
		writeError(w, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, errx.InvalidInput("could not detect speech in the audio"))
		return
	}

	q := model.Query{
		Text:       text,
		UserID:     s.resolveUser(r, req.UserID),
		Modality:   model.ModalityVoice,
		ReceivedAt: time.Now().UTC(),
	}
	s.serveQuery(w, r, q)
}

func (s *Server) serveQuery(w http.ResponseWriter, r *http.Request, q model.Query) {
	resp, err := s.router.HandleQuery(r.Context(), q)
	if err != nil {
		logx.Error().Err(err).Str("user_id", q.UserID).Msg("Query handling failed")
		writeError(w, err)
		return
	}

	s.record(r.Context(), q, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, errx.InvalidInput("invalid request body"))
		return
	}
	if strings.TrimSpace(req.ProposalID) == "" {
		writeError(w, errx.InvalidInput("proposal_id is required"))
		return
	}

	decision := consent.DecisionReject
	if req.Approve {
		decision = consent.DecisionApprove
	}

	resp, err := s.router.HandleConsent(r.Context(), req.ProposalID, decision)
	if err != nil {
		logx.Error().Err(err).Str("proposal_id", req.ProposalID).Msg("Consent handling failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, errx.InvalidInput("invalid request body"))
		return
	}

	cls, err := s.classifier.Classify(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "history is not configured"})
		return
	}

	exchanges, err := s.history.Recent(r.Context(), auth.UserID(r.Context()), 20)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}

// resolveUser prefers the authenticated identity; the body's user_id is only
// honoured for unauthenticated demo requests.
func (s *Server) resolveUser(r *http.Request, bodyUserID string) string {
	uid := auth.UserID(r.Context())
	if uid == auth.DefaultUserID && bodyUserID != "" {
		return bodyUserID
	}
	return uid
}

func (s *Server) record(ctx context.Context, q model.Query, resp *model.Response) {
	if s.history == nil {
		return
	}
	e := &history.Exchange{
		Query:      q.Text,
		Modality:   q.Modality,
		Kind:       resp.Kind,
		Message:    resp.Message,
		ProposalID: resp.ProposalID,
		At:         time.Now().UTC(),
	}
	if err := s.history.Append(ctx, q.UserID, e); err != nil {
		logx.Warn().Err(err).Str("user_id", q.UserID).Msg("Failed to record exchange")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.HTTPStatus(err)
	msg := errx.SystemErrorMessage
	var e *errx.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
