package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/jifmar/fleetwatch/internal/observability"
	"github.com/rs/zerolog"
)

// ServerOptions tunes the dashboard server
type ServerOptions struct {
	MapZoom     int
	CORSOrigins []string // Empty disables CORS headers
	RateLimit   int      // Requests per minute per client IP, 0 disables
}

// Server serves the dashboards over HTTP
type Server struct {
	loader  *Loader
	opts    ServerOptions
	logger  zerolog.Logger
	metrics *observability.Metrics
	router  chi.Router
}

// NewServer creates a dashboard server reading from loader
func NewServer(loader *Loader, opts ServerOptions, logger zerolog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		loader:  loader,
		opts:    opts,
		logger:  logger.With().Str("component", "dashboard").Logger(),
		metrics: metrics,
	}
	s.router = s.mount()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mount() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         300,
		}))
	}
	if s.opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Route("/consumption", func(r chi.Router) {
			r.Get("/annual", s.handleAnnual)
			r.Get("/monthly", s.handleMonthly)
		})
		r.Route("/distance", func(r chi.Router) {
			r.Get("/", s.handleSamples)
			r.Get("/cumulative", s.handleCumulative)
			r.Get("/daily", s.handleDaily)
		})
	})

	r.Get("/charts/{name}", s.handleChart)

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving dashboard: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("dashboard shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.RequestServed(route, status)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	links := make(map[string]string, len(ChartNames))
	for _, name := range ChartNames {
		links[name] = "/charts/" + name
	}
	render.JSON(w, r, render.M{"charts": links})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, render.M{"status": "ok"})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	d, ok := s.data(w, r)
	if !ok {
		return
	}

	resp := render.M{"vessels": d.Vessels()}
	if first, last, ok := YearBounds(d.Annual, d.Samples); ok {
		resp["min_year"] = first
		resp["max_year"] = last
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleAnnual(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, FilterAnnual(d.Annual, q.annual()))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, FilterMonthly(d.Monthly, MonthlyFilter{Ships: q.Ships, Year: q.Year}))
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, FilterSamples(d.Samples, q.distance()))
}

func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, Cumulative(FilterSamples(d.Samples, q.distance())))
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, Daily(FilterSamples(d.Samples, q.distance())))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	d, q, ok := s.prepare(w, r)
	if !ok {
		return
	}

	chart, err := BuildChart(chi.URLParam(r, "name"), d, q)
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chart.Name+".html"))
	}
	if err := Render(w, chart); err != nil {
		s.logger.Error().Err(err).Str("chart", chart.Name).Msg("rendering chart")
	}
}

func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (*Data, Query, bool) {
	q, err := ParseQuery(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return nil, Query{}, false
	}
	if q.Zoom == 0 {
		q.Zoom = s.opts.MapZoom
	}

	d, ok := s.data(w, r)
	return d, q, ok
}

func (s *Server) data(w http.ResponseWriter, r *http.Request) (*Data, bool) {
	d, err := s.loader.Load(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("loading dashboard data")
		s.fail(w, r, http.StatusInternalServerError, errors.New("data unavailable"))
		return nil, false
	}
	return d, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, render.M{"error": err.Error()})
}

// ParseQuery reads the dashboard selections from a request: ship or vessel
// (repeatable), from, to, year, metric and zoom
func ParseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()
	q := Query{}

	q.Ships = append(q.Ships, values["ship"]...)
	q.Ships = append(q.Ships, values["vessel"]...)

	ints := []struct {
		name string
		dst  *int
	}{
		{"from", &q.FromYear},
		{"to", &q.ToYear},
		{"year", &q.Year},
		{"zoom", &q.Zoom},
	}
	for _, p := range ints {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Query{}, fmt.Errorf("invalid %s parameter %q", p.name, v)
		}
		*p.dst = n
	}

	metric, err := ParseMetric(values.Get("metric"))
	if err != nil {
		return Query{}, err
	}
	q.Metric = metric

	return q, nil
}
