package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/ufosightings/internal/query"
	"github.com/TobiSchelling/ufosightings/internal/sighting"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed content/about.md
var aboutMarkdown string

var md = goldmark.New()

const defaultTopN = 10

// Server is the HTTP server for browsing sightings.
type Server struct {
	svc      *query.Service
	pages    map[string]*template.Template
	mux      *http.ServeMux
	log      log.Interface
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l log.Interface) Option {
	return func(s *Server) { s.log = l }
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRequestTimeout bounds each request. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a new Server.
func New(svc *query.Service, opts ...Option) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"field": func(r sighting.Record, name string) string {
			v, _ := r.Text(name)
			return v
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "sightings.html", "top.html", "about.html", "404.html", "error.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		svc:      svc,
		pages:    pages,
		mux:      http.NewServeMux(),
		log:      log.Log,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.timeout > 0 {
		h = http.TimeoutHandler(h, s.timeout, "request timed out")
	}
	return s.logRequests(h)
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /sightings/year/{year}", s.handleYear)
	s.mux.HandleFunc("GET /sightings/shape/{shape}", s.handleShape)
	s.mux.HandleFunc("GET /top", s.handleTop)
	s.mux.HandleFunc("GET /about", s.handleAbout)

	s.mux.HandleFunc("GET /api/sightings/year/{year}", s.handleAPIYear)
	s.mux.HandleFunc("GET /api/sightings/shape/{shape}", s.handleAPIShape)
	s.mux.HandleFunc("GET /api/top/years", s.handleAPITopYears)
	s.mux.HandleFunc("GET /api/top/shapes", s.handleAPITopShapes)
	s.mux.HandleFunc("GET /api/peak-years", s.handleAPIPeakYears)

	s.mux.HandleFunc("GET /healthz", handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", nil)
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year <= 0 {
		s.handleNotFound(w, r)
		return
	}

	records, err := s.svc.SightingsByYear(r.Context(), year)
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "sightings.html", map[string]any{
		"Title":   fmt.Sprintf("Sightings in %d", year),
		"Empty":   fmt.Sprintf("No sightings found for the year %d.", year),
		"Columns": columns(records),
		"Records": records,
	})
}

func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	shape := r.PathValue("shape")

	records, err := s.svc.SightingsByShape(r.Context(), shape)
	if errors.Is(err, query.ErrInvalidInput) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "sightings.html", map[string]any{
		"Title":   fmt.Sprintf("Sightings shaped %q", shape),
		"Empty":   fmt.Sprintf("No sightings found for shape %q.", shape),
		"Columns": columns(records),
		"Records": records,
	})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n, ok := topN(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	years, err := s.svc.TopYears(r.Context(), n)
	if err != nil {
		s.renderError(w, err)
		return
	}
	shapes, err := s.svc.TopShapes(r.Context(), n)
	if err != nil {
		s.renderError(w, err)
		return
	}
	peak, err := s.svc.PeakYears(r.Context())
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "top.html", map[string]any{
		"N":      n,
		"Years":  years,
		"Shapes": shapes,
		"Peak":   peak,
	})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "about.html", map[string]any{
		"About": aboutMarkdown,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, "404.html", map[string]any{
		"Path": r.URL.Path,
	})
}

func (s *Server) handleAPIYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "year must be an integer"})
		return
	}
	records, err := s.svc.SightingsByYear(r.Context(), year)
	s.writeRecords(w, records, err)
}

func (s *Server) handleAPIShape(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.SightingsByShape(r.Context(), r.PathValue("shape"))
	s.writeRecords(w, records, err)
}

func (s *Server) handleAPITopYears(w http.ResponseWriter, r *http.Request) {
	n, ok := topN(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be an integer"})
		return
	}
	years, err := s.svc.TopYears(r.Context(), n)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleAPITopShapes(w http.ResponseWriter, r *http.Request) {
	n, ok := topN(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be an integer"})
		return
	}
	shapes, err := s.svc.TopShapes(r.Context(), n)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shapes)
}

func (s *Server) handleAPIPeakYears(w http.ResponseWriter, r *http.Request) {
	peak, err := s.svc.PeakYears(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, peak)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeRecords replaces NULL values with "" before encoding.
func (s *Server) writeRecords(w http.ResponseWriter, records []sighting.Record, err error) {
	if err != nil {
		writeAPIError(w, err)
		return
	}
	cleaned := make([]sighting.Record, 0, len(records))
	for _, r := range records {
		cleaned = append(cleaned, r.Clean())
	}
	writeJSON(w, http.StatusOK, cleaned)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.log.WithField("template", name).Error("template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.log.WithField("template", name).WithError(err).Error("rendering template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// renderError shows the error page. The facade has already logged the failure.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, query.ErrInvalidInput) {
		status = http.StatusBadRequest
	}
	s.render(w, status, "error.html", map[string]any{
		"Status": status,
	})
}

func writeAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, query.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// columns is the sorted union of field names across records.
func columns(records []sighting.Record) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func topN(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return defaultTopN, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

// Serve listens on addr until ctx is canceled, then drains connections.
func (s *Server) Serve(ctx context.Context, addr string) error {
	writeTimeout := 10 * time.Second
	if s.timeout > 0 {
		writeTimeout = s.timeout + 5*time.Second
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", "http://"+addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}
