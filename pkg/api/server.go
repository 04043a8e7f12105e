package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/AdwayB/dtqs/pkg/feed"
	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/types"
)

// Store is the slice of the task store the API layer reads and writes.
type Store interface {
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	Ping(ctx context.Context) error
}

// Publisher enqueues task messages for workers and exposes the queue
// depth probe used as the broker liveness check.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	QueueDepth() (int, error)
}

// Server is the submission HTTP server: POST /submit, GET /sse, plus the
// operational /healthz and /metrics endpoints.
type Server struct {
	store   Store
	pub     Publisher
	watcher *feed.Watcher
	router  *mux.Router
	http    *http.Server
}

// NewServer wires the API routes over a store, a publisher, and the task
// event watcher backing the SSE feed.
func NewServer(st Store, pub Publisher, watcher *feed.Watcher) *Server {
	s := &Server{
		store:   st,
		pub:     pub,
		watcher: watcher,
	}

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/sse", s.handleSSE).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	s.router = r

	return s
}

// Start serves HTTP on the given port until Shutdown is called. It
// returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start(port int) error {
	// WriteTimeout stays zero: /sse streams for as long as the client
	// listens, so the subscriber drives termination.
	s.http = &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	logger := log.WithComponent("api")
	logger.Info().Int("port", port).Msg("HTTP server listening")
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
