// Package server implements the chessnetviz HTTP API.
//
// The API is the data-loading side of the visualization: it holds datasets,
// lists their moves and serves each move scope filtered, sorted and with
// its color domains resolved. Layout happens in the client.
//
// # Endpoints
//
//	GET    /healthz
//	GET    /version
//	GET    /metrics
//	GET    /api/v1/layouts
//	GET    /api/v1/datasets
//	POST   /api/v1/datasets
//	GET    /api/v1/datasets/{id}
//	DELETE /api/v1/datasets/{id}
//	GET    /api/v1/datasets/{id}/moves
//	GET    /api/v1/datasets/{id}/moves/{move}/captured
//	GET    /api/v1/datasets/{id}/moves/{move}/{scope}
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/watcher"
)

// DefaultMaxUploadBytes bounds uploaded dataset bodies when Config leaves
// it unset.
const DefaultMaxUploadBytes = 32 << 20

// shutdownTimeout is how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Addr           string
	DataDir        string // *.json datasets loaded at startup
	Watch          bool   // reload DataDir datasets when they change
	MaxUploadBytes int64

	// Defaults seeds the options of every scope request; query parameters
	// override them.
	Defaults pipeline.Options

	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server is the HTTP API over a set of loaded datasets.
type Server struct {
	cfg    Config
	logger *log.Logger
	store  *store
	router chi.Router

	mu       sync.Mutex
	watchers []*watcher.Watcher
}

// New creates a server. Call LoadDir to populate it from Config.DataDir.
func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{cfg: cfg, logger: logger, store: newStore()}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/layouts", s.handleLayouts)
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", s.handleListDatasets)
			r.Post("/", s.handleUpload)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDataset)
				r.Delete("/", s.handleDeleteDataset)
				r.Get("/moves", s.handleMoves)
				r.Get("/moves/{move}/captured", s.handleCaptured)
				r.Get("/moves/{move}/{scope}", s.handleScope)
			})
		})
	})
	return r
}

// LoadDir loads every *.json dataset in Config.DataDir. Files that fail to
// load are logged and skipped. With Config.Watch each file is reloaded when
// it changes until ctx is done.
func (s *Server) LoadDir(ctx context.Context) error {
	if s.cfg.DataDir == "" {
		return nil
	}
	if _, err := os.Stat(s.cfg.DataDir); err != nil {
		return err
	}
	paths, err := filepath.Glob(filepath.Join(s.cfg.DataDir, "*.json"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.loadFile(ctx, p); err != nil {
			s.logger.Warn("skipping dataset", "path", p, "err", err)
			continue
		}
		if s.cfg.Watch {
			if err := s.watch(ctx, p); err != nil {
				s.logger.Warn("not watching dataset", "path", p, "err", err)
			}
		}
	}
	return nil
}

func (s *Server) loadFile(ctx context.Context, path string) error {
	src, err := pipeline.Load(ctx, path)
	if err != nil {
		return err
	}
	e := s.store.addFile(path, src)
	s.logger.Info("loaded dataset", "id", e.ID, "name", src.Name, "moves", src.Dataset.Len())
	return nil
}

// watch reloads path on every change. A reload that fails keeps the
// previous version; a removed file drops the dataset.
func (s *Server) watch(ctx context.Context, path string) error {
	w, err := watcher.New(path,
		watcher.WithOnChange(func() {
			if err := s.loadFile(ctx, path); err != nil {
				s.logger.Warn("reload failed, keeping previous dataset", "path", path, "err", err)
			}
		}),
		watcher.WithOnError(func(err error) {
			if stderrors.Is(err, watcher.ErrFileRemoved) {
				s.store.remove(pathID(path))
				s.logger.Info("dataset removed", "path", path)
				return
			}
			s.logger.Warn("watch error", "path", path, "err", err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()
	return nil
}

// Close stops every file watcher.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers {
		w.Stop()
	}
	s.watchers = nil
}

// Run serves on Config.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}

// datasetName strips the directory and extension from an upload name.
func datasetName(name string) string {
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
