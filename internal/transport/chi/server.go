package chi

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/logger"
	healthuc "github.com/kailas-cloud/moviesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
	"github.com/kailas-cloud/moviesearch/internal/version"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Searcher runs one search submission.
type Searcher interface {
	Run(ctx context.Context, in searchuc.Input) searchuc.Outcome
}

// Prober reports embedding service reachability for the sidebar.
type Prober interface {
	Reachable(ctx context.Context) bool
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// PageInfo is the static configuration shown on every page.
type PageInfo struct {
	Index              string
	Provider           string
	Model              string
	EmbeddingEndpoint  string
	SemanticConfigured bool
}

// Server serves the search page and operational endpoints.
type Server struct {
	search Searcher
	probe  Prober
	health HealthChecker
	info   PageInfo
	logger *zap.Logger
}

// NewServer creates the web shell.
func NewServer(search Searcher, probe Prober, health HealthChecker, info PageInfo, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, probe: probe, health: health, info: info, logger: logger}
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Index)
	r.Get("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/version", s.Version)
}

type modeOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Info        PageInfo
	EmbeddingUp bool
	Modes       []modeOption
	Query       string
	Top         int
	MinTop      int
	MaxTop      int
	Outcome     *searchuc.Outcome
}

func (s *Server) newPage(ctx context.Context, selected mode.Mode, query string, top int) pageData {
	modes := make([]modeOption, 0, len(mode.All))
	for _, m := range mode.All {
		modes = append(modes, modeOption{Value: string(m), Label: m.Label(), Selected: m == selected})
	}
	return pageData{
		Info:        s.info,
		EmbeddingUp: s.probe.Reachable(ctx),
		Modes:       modes,
		Query:       query,
		Top:         top,
		MinTop:      request.MinTop,
		MaxTop:      request.MaxTop,
	}
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.newPage(r.Context(), mode.Keyword, "", request.DefaultTop))
}

// Search handles GET /search?q=&mode=&k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// An unknown mode is passed through; the orchestrator reports it.
	m, _ := mode.Parse(q.Get("mode"))
	// Non-numeric k falls back to the default.
	top, _ := strconv.Atoi(q.Get("k"))
	top = request.ClampTop(top)

	outcome := s.search.Run(r.Context(), searchuc.Input{Query: q.Get("q"), Mode: m, Top: top})

	page := s.newPage(r.Context(), m, q.Get("q"), top)
	page.Outcome = &outcome
	s.render(w, r, page)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Error("Failed to render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
