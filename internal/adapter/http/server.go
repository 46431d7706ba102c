package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/safety-dashboard/internal/board"
	"github.com/couchcryptid/safety-dashboard/internal/countup"
	"github.com/couchcryptid/safety-dashboard/internal/domain"
)

const (
	// maxDecimals bounds the decimals query parameter of /api/countup.
	maxDecimals = 6
	// maxAffixLen bounds the value, prefix and suffix parameters in bytes.
	maxAffixLen = 32
	// maxDigits bounds the animated digits of one rendered value.
	maxDigits = 24
	// defaultRenderCacheSize is the number of rendered animations kept.
	defaultRenderCacheSize = 256
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

// CheckReadiness calls f.
func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// AllReady is ready when every checker is.
func AllReady(checkers ...ReadinessChecker) ReadinessChecker {
	return ReadinessFunc(func(ctx context.Context) error {
		var errs []error
		for _, c := range checkers {
			if err := c.CheckReadiness(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Dashboard is the read side of the board served by the API.
type Dashboard interface {
	Regions() []domain.Region
	Region(code string) (domain.Region, error)
	Summary() domain.Summary
	Displays() []board.DisplayState
	Display(key string) (board.DisplayState, bool)
}

// CountupDefaults configures /api/countup. Style applies to requests that do
// not name one; CacheSize zero means a default size.
type CountupDefaults struct {
	Style         countup.Style
	FrameInterval time.Duration
	CacheSize     int
}

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	countup    CountupDefaults
	rendered   *lruCache[countupResponse]
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes and /healthz, /readyz,
// and /metrics.
func NewServer(addr string, dash Dashboard, ready ReadinessChecker, defaults CountupDefaults, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:    dash,
		countup: defaults,
		logger:  logger,
	}
	if s.countup.FrameInterval <= 0 {
		s.countup.FrameInterval = countup.DefaultFrameInterval
	}
	if s.countup.CacheSize <= 0 {
		s.countup.CacheSize = defaultRenderCacheSize
	}
	s.rendered = newLRUCache[countupResponse](s.countup.CacheSize)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{code}", s.handleRegion)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/legend", handleLegend)
	mux.HandleFunc("GET /api/displays", s.handleDisplays)
	mux.HandleFunc("GET /api/displays/{key}", s.handleDisplay)
	mux.HandleFunc("GET /api/countup", s.handleCountup)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// RegionView is a region with the colours the map draws it in.
type RegionView struct {
	domain.Region
	Label      string `json:"label"`
	Fill       string `json:"fill"`
	Hover      string `json:"hover"`
	TextColor  string `json:"text_color"`
	Choropleth string `json:"choropleth"`
}

func newRegionView(r domain.Region) RegionView {
	style := domain.StyleFor(r.Grade)
	return RegionView{
		Region:     r,
		Label:      style.Label,
		Fill:       style.Fill,
		Hover:      style.Hover,
		TextColor:  style.Text,
		Choropleth: domain.ChoroplethColor(r.Index),
	}
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	regions := s.dash.Regions()
	views := make([]RegionView, len(regions))
	for i, r := range regions {
		views[i] = newRegionView(r)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	region, err := s.dash.Region(r.PathValue("code"))
	if errors.Is(err, domain.ErrUnknownRegion) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("region lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newRegionView(region))
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Summary())
}

func handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"grades":  domain.Legend(),
		"no_data": domain.NoDataFill,
	})
}

func (s *Server) handleDisplays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Displays())
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	state, ok := s.dash.Display(r.PathValue("key"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown display %q", r.PathValue("key")))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type frameView struct {
	OffsetMS int64  `json:"offset_ms"`
	Text     string `json:"text"`
}

type countupResponse struct {
	Style  string      `json:"style"`
	Final  string      `json:"final"`
	Frames []frameView `json:"frames"`
}

// handleCountup renders the frames of a count-up animation:
//
//	GET /api/countup?value=11700&style=rolling&date=false&decimals=0
func (s *Server) handleCountup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	style := s.countup.Style
	if name := q.Get("style"); name != "" {
		st, err := countup.ParseStyle(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		style = st
	}

	date := false
	if v := q.Get("date"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be a boolean"))
			return
		}
		date = b
	}

	for _, name := range []string{"value", "prefix", "suffix"} {
		if len(q.Get(name)) > maxAffixLen {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%s must be at most %d bytes", name, maxAffixLen))
			return
		}
	}

	opts := style.Options(date)
	opts.Prefix = q.Get("prefix")
	opts.Suffix = q.Get("suffix")
	if v := q.Get("decimals"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxDecimals {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decimals must be an integer between 0 and %d", maxDecimals))
			return
		}
		opts.Decimals = n
	}

	value := q.Get("value")
	var target countup.Target
	if date {
		target = countup.Text(value)
	} else {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("value must be a number"))
			return
		}
		target = countup.Number(f)
	}

	if n := countDigits(countup.Format(target, opts)); n > maxDigits {
		writeError(w, http.StatusBadRequest, fmt.Errorf("value renders %d digits, at most %d are animated", n, maxDigits))
		return
	}

	key := fmt.Sprintf("%s|%t|%d|%q|%q|%s", style, date, opts.Decimals, opts.Prefix, opts.Suffix, target)
	if resp, ok := s.rendered.get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	frames := countup.Render(target, opts, s.countup.FrameInterval)
	resp := countupResponse{
		Style:  style.String(),
		Final:  frames[len(frames)-1].Text,
		Frames: make([]frameView, len(frames)),
	}
	for i, f := range frames {
		resp.Frames[i] = frameView{OffsetMS: f.Offset.Milliseconds(), Text: f.Text}
	}
	s.rendered.put(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
