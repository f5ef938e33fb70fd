// Package server exposes table analysis over a local HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	PreviewRows    int
}

// session is one uploaded table held in memory.
type session struct {
	ID         string
	Table      *table.Table
	UploadedAt time.Time
}

// Service holds uploaded tables and serves the HTTP API.
type Service struct {
	cfg   Config
	log   *zap.Logger
	asker *pipeline.Asker

	mu        sync.RWMutex
	startedAt time.Time
	tables    map[string]*session
}

// New returns a service. asker may have a generator without a credential, in
// which case insight requests report the missing key.
func New(cfg Config, asker *pipeline.Asker, log *zap.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		log:       log,
		asker:     asker,
		startedAt: time.Now(),
		tables:    make(map[string]*session),
	}
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/tables", func(tr chi.Router) {
		tr.Get("/", s.handleList)
		tr.Post("/", s.handleUpload)
		tr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", s.handleGet)
			ir.Delete("/", s.handleDelete)
			ir.Get("/kpis", s.handleKPIs)
			ir.Get("/charts", s.handleCharts)
			ir.Post("/forecast", s.handleForecast)
			ir.Post("/insights", s.handleInsights)
		})
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Service) put(t *table.Table) *session {
	sess := &session{ID: uuid.NewString(), Table: t, UploadedAt: time.Now()}
	s.mu.Lock()
	s.tables[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *Service) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.tables[id]
	return sess, ok
}

func (s *Service) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return false
	}
	delete(s.tables, id)
	return true
}

func (s *Service) list() []*session {
	s.mu.RLock()
	out := make([]*session, 0, len(s.tables))
	for _, sess := range s.tables {
		out = append(out, sess)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
