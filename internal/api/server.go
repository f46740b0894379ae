// Package api is the HTTP control service of --serve mode: it starts and
// cancels runs on a pipeline.Controller, reports status, streams run
// messages over a websocket and exposes Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/logging"
	"github.com/backmassage/muxconv/internal/metrics"
	"github.com/backmassage/muxconv/internal/pipeline"
)

const (
	subscriberBuffer = 256
	writeTimeout     = 5 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// Server owns the message consumer of every run it starts.
type Server struct {
	ctrl     *pipeline.Controller
	log      *logging.Logger
	hub      *hub
	upgrader websocket.Upgrader

	// Runs are started under base so they outlive the request that started
	// them; cancelling base cancels the active run.
	base   context.Context
	cancel context.CancelFunc
	pumps  sync.WaitGroup

	mu      sync.Mutex
	current *pipeline.Run
	last    *runSummary
}

// runSummary is the outcome of the most recent finished run.
type runSummary struct {
	ID     string `json:"id"`
	Output string `json:"output"`
	Final  string `json:"final"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// NewServer returns a server driving ctrl.
func NewServer(ctrl *pipeline.Controller, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		ctrl: ctrl,
		log:  log.With("component", "api"),
		hub:  newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		base:   base,
		cancel: cancel,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleStart)
		r.Delete("/runs/current", s.handleCancel)
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
	})
	return r
}

type startRequest struct {
	Input    string `json:"input"`
	Format   string `json:"format"`
	Reencode bool   `json:"reencode"`
}

type startResponse struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	run, err := s.ctrl.Start(s.base, pipeline.Request{
		Input:    req.Input,
		Format:   req.Format,
		Reencode: req.Reencode,
	})
	switch {
	case errors.Is(err, pipeline.ErrRunActive):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.current = run
	s.mu.Unlock()

	s.pumps.Add(1)
	go s.pump(run)

	s.log.Info("Run %s started: %s -> %s", run.ID(), run.Input(), run.Output())
	writeJSON(w, http.StatusAccepted, startResponse{ID: run.ID(), Output: run.Output()})
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	run := s.current
	s.mu.Unlock()
	if run == nil {
		writeNotFound(w)
		return
	}
	run.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": run.ID()})
}

type statusResponse struct {
	pipeline.Status
	Last *runSummary `json:"last,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, statusResponse{Status: s.ctrl.Status(), Last: last})
}

// pump is the single consumer of run's messages. Log lines are echoed to
// the server log; every message is broadcast to websocket subscribers.
func (s *Server) pump(run *pipeline.Run) {
	defer s.pumps.Done()
	lg := s.log.With("run_id", run.ID())
	for m := range run.Messages() {
		if !m.IsProgress() {
			lg.Info("%s", m)
		}
		s.hub.broadcast(m.String())
	}

	res := run.Wait()
	sum := &runSummary{ID: run.ID(), Output: res.Output, Final: res.Final.String()}
	if res.Err != nil {
		sum.Error = res.Err.Error()
		sum.Kind = ffmpeg.Kind(res.Err)
	}

	s.mu.Lock()
	if s.current == run {
		s.current = nil
	}
	s.last = sum
	s.mu.Unlock()
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	sub := s.hub.subscribe(subscriberBuffer)
	if sub == nil {
		return
	}
	defer s.hub.unsubscribe(sub)

	// The read side only detects the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeTimeout))
				conn.Close()
				<-gone
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				conn.Close()
				<-gone
				return
			}
		case <-gone:
			return
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down: the HTTP
// server stops accepting, the active run is cancelled and finalized, and
// websocket subscribers are disconnected.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.Close()
	return err
}

// Close cancels the active run, waits for its consumer to finish and
// disconnects subscribers. It is safe to call more than once.
func (s *Server) Close() {
	s.cancel()
	s.pumps.Wait()
	s.hub.close()
}
