package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/academic-standing/internal/config"
	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/ports"
	"github.com/kirillkom/academic-standing/internal/observability/metrics"
)

const (
	serviceName    = "standing-api"
	batchIDHeader  = "X-Batch-Id"
	runsPathPrefix = "/api/plr/runs/"
)

type Router struct {
	cfg       config.Config
	processor ports.LearningResultsProcessor
	runs      ports.RunReader
	metrics   *metrics.HTTPServerMetrics
	contract  *contract
}

// NewRouter panics if the embedded OpenAPI contract is invalid. metrics may
// be nil.
func NewRouter(
	cfg config.Config,
	processor ports.LearningResultsProcessor,
	runs ports.RunReader,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	c, err := loadContract()
	if err != nil {
		panic(fmt.Sprintf("httpadapter: %v", err))
	}
	return &Router{
		cfg:       cfg,
		processor: processor,
		runs:      runs,
		metrics:   httpMetrics,
		contract:  c,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.yaml", rt.openAPI)
	mux.HandleFunc(batchPath, rt.processLearningResults)
	mux.HandleFunc(runsPathPrefix, rt.getRun)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

func (rt *Router) processLearningResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := readBody(w, r, rt.cfg.APIMaxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read request body"})
		return
	}
	if err := rt.contract.validateBatch(body); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	var records []domain.AcademicRecord
	if err := json.Unmarshal(body, &records); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.processor.Process(r.Context(), domain.SourceHTTP, records)
	if err != nil {
		slog.Error("process_learning_results_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	out := result.Records
	if out == nil {
		out = []domain.AcademicRecord{}
	}
	w.Header().Set(batchIDHeader, result.Summary.BatchID)
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, runsPathPrefix)
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run id is required"})
		return
	}

	run, err := rt.runs.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = 8 << 20
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
