// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the job submission and polling API and runs the
// queue consumer that executes pipelines one at a time.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/listing-engine/internal/jobstore"
	"github.com/pdiddy/listing-engine/internal/pipeline"
	"github.com/pdiddy/listing-engine/pkg/types"
)

// DefaultQueueSize bounds the number of accepted-but-unstarted jobs.
const DefaultQueueSize = 64

// Runner executes one pipeline to a terminal state.
type Runner interface {
	Run(ctx context.Context, requestID string, req types.ListingRequest, w io.Writer) (*pipeline.State, error)
}

type job struct {
	id  string
	req types.ListingRequest
}

// Server accepts listing jobs over HTTP and consumes them sequentially.
type Server struct {
	store  *jobstore.Store
	orch   Runner
	logger *log.Logger
	queue  chan job
	wg     sync.WaitGroup
}

// New returns a Server. A non-positive queueSize selects DefaultQueueSize.
func New(store *jobstore.Store, orch Runner, queueSize int, logger *log.Logger) *Server {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:  store,
		orch:   orch,
		logger: logger,
		queue:  make(chan job, queueSize),
	}
}

// Handler returns the HTTP front door.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", s.handleSubmit)
	mux.HandleFunc("GET /jobs/{id}", s.handlePoll)
	return mux
}

// Start launches the single consumer goroutine. The consumer exits once
// ctx is cancelled and the queue is drained of the in-flight job.
func (s *Server) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.consume(ctx)
}

// Wait blocks until the consumer has finished its in-flight job and exited.
func (s *Server) Wait() {
	s.wg.Wait()
}

// ListenAndServe runs the HTTP front door and the consumer until ctx is
// cancelled, then shuts down gracefully: the listener stops accepting,
// and the in-flight job runs to a terminal status before return.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.Start(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("shutdown: %v", err)
	}

	s.Wait()
	return nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req types.ListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}
	if err := validateSubmission(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	requestID := pipeline.NewRequestID()
	if err := s.store.Submit(r.Context(), requestID, req); err != nil {
		s.logger.Printf("submit %s: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "recording job")
		return
	}

	select {
	case s.queue <- job{id: requestID, req: req}:
	default:
		// Queue full: fail the record so polling reports it rather than
		// leaving a pending job nothing will ever run.
		if err := s.store.Finish(r.Context(), requestID, types.StatusFailed, "", "queue full"); err != nil {
			s.logger.Printf("submit %s: %v", requestID, err)
		}
		writeError(w, http.StatusServiceUnavailable, "queue full")
		return
	}

	s.logger.Printf("accepted job %s", requestID)
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Printf("poll %s: %v", r.PathValue("id"), err)
		writeError(w, http.StatusInternalServerError, "reading job")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no such job")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// consume runs queued jobs one at a time. Each run gets a fresh background
// context so an in-flight pipeline drains to a terminal status during
// shutdown instead of being torn down mid-stage.
func (s *Server) consume(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.runJob(j)
		}
	}
}

func (s *Server) runJob(j job) {
	s.logger.Printf("job %s: starting %q", j.id, j.req.Query)

	state, err := s.orch.Run(context.Background(), j.id, j.req, s.logger.Writer())
	if err != nil {
		s.logger.Printf("job %s: %v", j.id, err)
	}

	var url, errMsg string
	switch state.Status {
	case types.StatusCompleted:
		url = state.Publish.ExternalURL
	case types.StatusShortCircuited:
		url = state.ShortCircuit.URL
	case types.StatusFailed:
		errMsg = state.Err
	}

	if err := s.store.Finish(context.Background(), j.id, state.Status, url, errMsg); err != nil {
		s.logger.Printf("job %s: recording result: %v", j.id, err)
		return
	}
	s.logger.Printf("job %s: %s", j.id, state.Status)
}

func validateSubmission(req types.ListingRequest) error {
	if req.Query == "" {
		return errors.New("query is required")
	}
	if len(req.Variants) == 0 {
		return errors.New("at least one variant is required")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
