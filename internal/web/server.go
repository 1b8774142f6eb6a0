// Package web serves the chat screen over HTTP and streams answers as
// Server-Sent Events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/config"
	logpkg "github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/logger"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/metrics"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/session"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/stream"
	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/summarizer"
)

// Server is the browser front end.
type Server struct {
	cfg      config.WebConfig
	delay    time.Duration
	sessions *sessions
	renderer *Renderer
	refs     *summarizer.FrequencySummarizer
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewServer creates a server; newSession starts the conversation for a new
// visitor.
func NewServer(cfg config.WebConfig, delay time.Duration, newSession func(id string) *session.Session, logger *zap.Logger) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Server{
		cfg:      cfg,
		delay:    delay,
		sessions: newSessions(cfg.MaxSessionCount, newSession),
		renderer: renderer,
		refs:     summarizer.NewFrequencySummarizer(),
		logger:   logger,
	}, nil
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Post("/ask", s.handleAsk)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Server stopped gracefully")
	return nil
}

// session returns the visitor's session, starting one and setting the
// cookie when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *entry {
	if c, err := r.Cookie(s.cfg.SessionCookie); err == nil {
		if e, ok := s.sessions.get(c.Value); ok {
			return e
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.create(id)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e := s.session(w, r)
	e.mu.RLock()
	turns := e.sess.Turns()
	e.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, turns); err != nil {
		logpkg.FromContext(r.Context()).Error("render page", zap.Error(err))
	}
}

type sourceView struct {
	Label   string `json:"label"`
	Excerpt string `json:"excerpt"`
}

// handleAsk answers the form value q as an event stream: one token event
// per word, then sources and done, or a single error event.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context())
	e := s.session(w, r)
	question := r.FormValue("q")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	e.asking.Lock()
	defer e.asking.Unlock()

	send := func(event string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	e.mu.Lock()
	e.sess.Begin(question)
	e.mu.Unlock()

	answer, err := e.sess.Ask(r.Context(), question)
	if err != nil {
		log.Error("answering failed", zap.String("session", e.sess.ID), zap.Error(err))
		_ = send("error", err.Error())
		return
	}

	var opts []stream.Option
	if s.sleep != nil {
		opts = append(opts, stream.WithSleep(s.sleep))
	}
	st := stream.New(answer.Text, s.delay, opts...)
	streamErr := st.Emit(r.Context(), func(tok string) error { return send("token", tok) })
	// The answer is complete even when the client went away mid-stream.
	e.mu.Lock()
	e.sess.Record(answer.Text)
	e.mu.Unlock()
	if streamErr != nil {
		log.Warn("stream interrupted", zap.Int("tokens", st.Emitted()), zap.Error(streamErr))
		return
	}

	refs := s.refs.References(answer.Context, 1)
	views := make([]sourceView, len(refs))
	for i, ref := range refs {
		views[i] = sourceView{Label: ref.Label, Excerpt: ref.Excerpt}
	}
	_ = send("sources", views)
	_ = send("done", st.Emitted())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
