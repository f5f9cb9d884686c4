package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/processor"
	"post-call-insights-go/internal/rounded"
	"post-call-insights-go/internal/types"
)

const maxBodyBytes = 1 << 20

type analyzer interface {
	AnalyzeCall(ctx context.Context, req types.CallAnalysisRequest, model string) (types.DetailedAnalysis, error)
	AnalyzeCallID(ctx context.Context, callID, model string) (types.DetailedAnalysis, error)
	DefaultModel() string
}

type callLister interface {
	ListCalls(ctx context.Context, limit int) (json.RawMessage, error)
}

type server struct {
	svc    analyzer
	calls  callLister
	models []string
	log    *logger.Logger
}

func newServer(svc analyzer, calls callLister, models []string, log *logger.Logger) *server {
	if log == nil {
		log = logger.Discard()
	}
	return &server{svc: svc, calls: calls, models: models, log: log}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/test", s.handleTest)
		r.Get("/models", s.handleModels)
		r.Get("/calls", s.handleListCalls)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/request", s.handleAnalyzeRequest)
	})
	return r
}

type analyzeBody struct {
	CallID string `json:"call_id"`
	Model  string `json:"model"`
}

type analyzeResponse struct {
	Success bool `json:"success"`
	types.DetailedAnalysis
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is running"})
}

func (s *server) handleTest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Test OK"})
}

func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"default_model": s.svc.DefaultModel(),
		"models":        s.models,
	})
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze")

	var body analyzeBody
	if err := decodeBody(w, r, &body); err != nil {
		reqLog.WithError(err).Warn("bad request body")
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.CallID) == "" {
		respondError(w, http.StatusBadRequest, "call_id is required")
		return
	}
	reqLog = reqLog.WithField("call_id", body.CallID).WithField("model", body.Model)
	reqLog.Info("analyze request received")

	res, err := s.svc.AnalyzeCallID(r.Context(), body.CallID, body.Model)
	if err != nil {
		reqLog.WithError(err).Warn("analysis failed")
		respondError(w, errorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, analyzeResponse{Success: true, DetailedAnalysis: res})
}

// handleAnalyzeRequest analyzes a call record posted inline; the model comes
// from the ?model= query parameter.
func (s *server) handleAnalyzeRequest(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze_request")

	var req types.CallAnalysisRequest
	if err := decodeBody(w, r, &req); err != nil {
		reqLog.WithError(err).Warn("bad request body")
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	model := r.URL.Query().Get("model")
	reqLog.WithField("call_id", req.CallID).WithField("turns", len(req.Conversation)).Info("inline analyze request received")

	res, err := s.svc.AnalyzeCall(r.Context(), req, model)
	if err != nil {
		reqLog.WithError(err).Warn("analysis failed")
		respondError(w, errorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, analyzeResponse{Success: true, DetailedAnalysis: res})
}

func (s *server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "list_calls")
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	if s.calls == nil {
		respondError(w, http.StatusNotFound, rounded.ErrCallUnavailable.Error())
		return
	}
	raw, err := s.calls.ListCalls(r.Context(), limit)
	if err != nil {
		reqLog.WithError(err).Warn("list calls failed")
		respondError(w, errorStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "calls": raw})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, processor.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, rounded.ErrCallUnavailable):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON encodes data before writing the header, so an unencodable
// value turns into a 500 instead of an empty 200.
func respondJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = enc.Encode(map[string]any{"success": false, "error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}
