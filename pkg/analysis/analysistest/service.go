// Package analysistest provides a fake analysis service.
//
// The fake speaks the same wire protocol as the real service (POST /analyze)
// and answers with whatever a [Responder] returns. It backs the client and
// controller tests and the "depview stub" command:
//
//	svc := analysistest.NewService(analysistest.Fixed(http.StatusOK, result))
//	srv := httptest.NewServer(svc.Handler())
//	defer srv.Close()
//
//	client := analysis.NewClient(srv.URL)
package analysistest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Call records one request the fake received.
type Call struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	GitHubURL string `json:"github_url"`
	RequestID string `json:"-"`
}

// Responder decides the status and JSON body for a call. A []byte body is
// written verbatim, anything else is JSON-encoded.
type Responder func(Call) (status int, body any)

// Fixed answers every call with the same status and body.
func Fixed(status int, body any) Responder {
	return func(Call) (int, any) { return status, body }
}

// Fail answers every call with status and {"error": msg}.
func Fail(status int, msg string) Responder {
	return Fixed(status, map[string]string{"error": msg})
}

// FromFile answers every call with status and the raw contents of a JSON file.
func FromFile(path string, status int) (Responder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("fixture %s is not valid JSON", path)
	}
	return Fixed(status, data), nil
}

// Service is the fake analysis service.
type Service struct {
	respond Responder
	logger  *log.Logger
	delay   time.Duration

	mu    sync.Mutex
	calls []Call
	gate  chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger logs every call.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithDelay makes every answer wait d, simulating a slow analysis.
func WithDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// NewService creates a fake answering with respond.
func NewService(respond Responder, opts ...Option) *Service {
	s := &Service{respond: respond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the service routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// Calls returns the calls received so far, in arrival order.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Hold makes calls block after being recorded until the returned function is
// called. It lets tests observe a request while it is in flight.
func (s *Service) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const maxRequestBody = 1 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var call Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if call.GitHubURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "GitHub URL is required"})
		return
	}
	call.RequestID = r.Header.Get("X-Request-ID")

	s.mu.Lock()
	s.calls = append(s.calls, call)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	status, body := s.respond(call)
	if s.logger != nil {
		s.logger.Info("analyze", "repo", call.Owner+"/"+call.Repo, "status", status, "request_id", call.RequestID)
	}
	if raw, ok := body.([]byte); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(raw)
		return
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
