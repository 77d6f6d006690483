package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/wordpub/internal/config"
	"github.com/dgallion1/wordpub/internal/pipeline"
)

// Server is the HTTP API server for wordpub.
type Server struct {
	router    chi.Router
	converter *pipeline.Converter
	styles    *config.StyleMap
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(converter *pipeline.Converter, styles *config.StyleMap, log *slog.Logger, cfg config.Config) *Server {
	if styles == nil {
		styles = config.DefaultStyleMap()
	}
	s := &Server{
		converter: converter,
		styles:    styles,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.WordpubAPIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/report", s.handleReport)
		r.Post("/api/outline", s.handleOutline)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
