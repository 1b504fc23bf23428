package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/sirupsen/logrus"
)

const DefaultScopeHeader = "X-Journal-Scope"

type Config struct {
	Sizer  risk.Sizer
	Policy risk.Policy

	// ScopeHeader names the request header holding the caller's scope.
	ScopeHeader string
	Log         *logrus.Entry
}

// Server exposes a Sizer and a journal Store over HTTP. The caller's
// scope is taken verbatim from the scope header.
type Server struct {
	store       journal.Store
	sizer       risk.Sizer
	policy      risk.Policy
	scopeHeader string
	log         *logrus.Entry
}

func New(store journal.Store, cfg Config) *Server {
	if cfg.ScopeHeader == "" {
		cfg.ScopeHeader = DefaultScopeHeader
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		store:       store,
		sizer:       cfg.Sizer,
		policy:      cfg.Policy,
		scopeHeader: cfg.ScopeHeader,
		log:         cfg.Log,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			s.log.WithError(err).Error("healthcheck write failed")
		}
	})

	r.Post("/calculate", s.handleCalculate)

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.org", s.handleExportOrg)
		r.Get("/summary", s.handleSummary)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}", s.handleUpdateOutcome)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully,
// giving in-flight requests five seconds to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("shutdown error")
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) scope(r *http.Request) journal.Scope {
	return journal.Scope(r.Header.Get(s.scopeHeader))
}
