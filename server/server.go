// Package server exposes the graphs of the configured user over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/benoitkugler/contribgraph/browser"
	"github.com/benoitkugler/contribgraph/graphapi"
	"github.com/benoitkugler/contribgraph/svgexport"
	"github.com/benoitkugler/contribgraph/themes"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS origins (dev mode)
}

type Server struct {
	cfg        Config
	graphs     *browser.Browser
	pipeline   *svgexport.Pipeline
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New returns a server for the user of graphs.
func New(cfg Config, graphs *browser.Browser, pipeline *svgexport.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, graphs: graphs, pipeline: pipeline, logger: logger}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Get("/years", s.handleYears)
		r.Get("/graphs/{year}/{theme}.{format}", s.handleGraph)
	})
	return r
}

// Router returns the chi router, for tests and embedding.
func (s *Server) Router() chi.Router { return s.router }

type themeInfo struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Background string   `json:"background"`
	Text       string   `json:"text"`
	Grades     []string `json:"grades"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	all := themes.All()
	out := make([]themeInfo, len(all))
	for i, t := range all {
		out[i] = themeInfo{Name: t.Name, Label: t.Label, Background: t.Background, Text: t.Text, Grades: t.Grades[:]}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.graphs.Years(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.graphs.User(), "years": years})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid year"})
		return
	}
	format, err := svgexport.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	theme := chi.URLParam(r, "theme")

	svg, err := s.graphs.Graph(r.Context(), year, theme)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.pipeline.Export(r.Context(), svg, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if t, ok := themes.Lookup(theme); ok {
		theme = t.Name
	}
	name := svgexport.Filename(s.graphs.User(), year, theme, format)
	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(p.Data)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusOf maps an export or fetch error to an HTTP status.
func statusOf(err error) int {
	var (
		serr *svgexport.SanitizationError
		derr *svgexport.DecodeError
		eerr *svgexport.EncodeError
		uerr *graphapi.StatusError
	)
	switch {
	case errors.Is(err, svgexport.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, browser.ErrUnknownTheme):
		return http.StatusNotFound
	case errors.Is(err, svgexport.ErrNoGraphFound), errors.Is(err, svgexport.ErrImageTooLarge), errors.As(err, &serr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &derr), errors.As(err, &eerr):
		return http.StatusInternalServerError
	case errors.As(err, &uerr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	s.logger.Warn("server: request failed",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"err", err)
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("server: listening", "addr", s.cfg.Addr, "user", s.graphs.User())
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
