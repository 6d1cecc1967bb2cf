// Package server exposes extraction tracking and lead imports over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

const (
	maxUploadBytes = 50 << 20
	requestTimeout = 5 * time.Minute
)

// Deps are the services the API is built on.
type Deps struct {
	Store          store.Store
	Extraction     *extraction.Service
	Importer       *importer.Importer
	Watcher        *extraction.Watcher
	AllowedOrigins []string
}

// Server holds the HTTP handlers.
type Server struct {
	store      store.Store
	extraction *extraction.Service
	importer   *importer.Importer
	watcher    *extraction.Watcher
	validate   *validator.Validate
	origins    []string
}

// New creates a Server. A nil Watcher gets a fresh one.
func New(d Deps) *Server {
	w := d.Watcher
	if w == nil {
		w = extraction.NewWatcher()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		store:      d.Store,
		extraction: d.Extraction,
		importer:   d.Importer,
		watcher:    w,
		validate:   validator.New(),
		origins:    origins,
	}
}

// Watcher returns the registry of background polls so the caller can shut
// it down with the HTTP server.
func (s *Server) Watcher() *extraction.Watcher { return s.watcher }

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/extractions", func(r chi.Router) {
			r.Get("/", s.listExtractions)
			r.Post("/", s.registerExtraction)
			r.Post("/import", s.importExtraction)
			r.Get("/watches", s.listWatches)
			r.Get("/{id}", s.getExtraction)
			r.Post("/{id}/status", s.checkStatus)
			r.Post("/{id}/watch", s.startWatch)
			r.Delete("/{id}/watch", s.stopWatch)
		})
		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.listLeads)
			r.Post("/import", s.importLeads)
			r.Get("/{id}", s.getLead)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		zap.L().Warn("server: health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLog writes one zap line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
