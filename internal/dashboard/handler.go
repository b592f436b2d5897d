// Package dashboard serves the summary accuracy web page.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/datar-psa/summeval/accuracy"
	"github.com/datar-psa/summeval/internal/logger"
	"github.com/datar-psa/summeval/internal/metrics"
	"github.com/datar-psa/summeval/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Calculator is the part of accuracy.Calculator the dashboard needs
type Calculator interface {
	Calculate(ctx context.Context, generated, reference string) (accuracy.Metrics, error)
	Ready() bool
}

// PageData is rendered by the index template
type PageData struct {
	Title          string
	Description    string
	GeneratedLabel string
	ReferenceLabel string
	ResultsHeading string
	Generated      string
	Reference      string
	Error          string
	Rows           []report.Row
	Success        string
}

// Handler handles all dashboard requests
type Handler struct {
	calc     Calculator
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(calc Calculator, recorder *metrics.Recorder, log *logger.Logger) *Handler {
	return &Handler{
		calc:     calc,
		recorder: recorder,
		log:      log,
	}
}

// RegisterRoutes registers all routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handlePage)
	mux.HandleFunc("POST /evaluate", h.handleEvaluate)
	mux.HandleFunc("POST /api/evaluate", h.handleEvaluateJSON)

	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)
	mux.Handle("GET /metrics", h.recorder.Handler())
}

// Routes returns the mux wrapped in the request logging middleware
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return NewLoggingMiddleware(h.log, h.recorder).Middleware(mux)
}

func newPageData() PageData {
	return PageData{
		Title:          report.Title,
		Description:    report.Description,
		GeneratedLabel: report.GeneratedLabel,
		ReferenceLabel: report.ReferenceLabel,
		ResultsHeading: report.ResultsHeading,
	}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, newPageData())
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	data := newPageData()
	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid form data"
		h.render(w, http.StatusBadRequest, data)
		return
	}
	data.Generated = r.PostFormValue("generated")
	data.Reference = r.PostFormValue("reference")

	result, status, err := h.evaluate(r.Context(), data.Generated, data.Reference)
	if err != nil {
		data.Error = userMessage(err)
		h.render(w, status, data)
		return
	}

	data.Rows = report.Rows(result)
	data.Success = report.SuccessMessage
	h.render(w, http.StatusOK, data)
}

type evaluateRequest struct {
	Generated string `json:"generated"`
	Reference string `json:"reference"`
}

type evaluateResponse struct {
	Metrics accuracy.Metrics `json:"metrics,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (h *Handler) handleEvaluateJSON(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, evaluateResponse{Error: "invalid JSON body"})
		return
	}

	result, status, err := h.evaluate(r.Context(), req.Generated, req.Reference)
	if err != nil {
		writeJSON(w, status, evaluateResponse{Error: userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Metrics: result})
}

// evaluate runs one calculation and records its outcome. Empty input never reaches the calculator.
func (h *Handler) evaluate(ctx context.Context, generated, reference string) (accuracy.Metrics, int, error) {
	if err := accuracy.Validate(generated, reference); err != nil {
		h.recorder.ObserveEvaluation(metrics.OutcomeInvalid, 0)
		return nil, http.StatusUnprocessableEntity, err
	}

	start := time.Now()
	result, err := h.calc.Calculate(ctx, generated, reference)
	if err != nil {
		h.recorder.ObserveEvaluation(metrics.OutcomeError, time.Since(start))
		h.log.Error("Evaluation failed", "error", err, "request_id", RequestID(ctx))
		return nil, http.StatusInternalServerError, err
	}

	h.recorder.ObserveEvaluation(metrics.OutcomeSuccess, time.Since(start))
	for _, m := range result {
		h.recorder.ObserveScore(m.Name, m.Value)
	}
	h.log.Debug("Evaluation complete", "request_id", RequestID(ctx), "scores", result.Map(),
		"duration_ms", time.Since(start).Milliseconds())
	return result, http.StatusOK, nil
}

func userMessage(err error) string {
	if errors.Is(err, accuracy.ErrEmptyInput) {
		return report.EmptyInputMsg
	}
	return report.FailureMessage(err)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !h.calc.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready\n"))
}

func (h *Handler) render(w http.ResponseWriter, status int, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.log.Error("Failed to render page", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
