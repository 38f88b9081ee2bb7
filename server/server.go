// Package server exposes the computed chart documents and signal lookups
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mlowry/papersig/chart"
	"github.com/mlowry/papersig/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Provider defines the requirements for serving computed signal data.
type Provider interface {
	// ChartDocument returns the chart document of the provided strategy over
	// the provided display window.
	ChartDocument(strategy string, window chart.Window) (*chart.Document, error)
	// SignalAt returns the signal of the provided strategy on the provided
	// day, falling back to the most recent prior dated signal.
	SignalAt(strategy string, date time.Time) (shared.Signal, error)
}

// ServerConfig represents the configuration for the signal server.
type ServerConfig struct {
	// Addr is the listen address of the server.
	Addr string
	// Provider serves the computed signal data.
	Provider Provider
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ServerConfig) Validate() error {
	var errs error

	if cfg.Addr == "" {
		errs = errors.Join(errs, fmt.Errorf("listen address cannot be an empty string"))
	}
	if cfg.Provider == nil {
		errs = errors.Join(errs, fmt.Errorf("provider cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Server represents the signal server.
type Server struct {
	cfg     *ServerConfig
	https   *http.Server
	metrics *Metrics
}

// NewServer initializes a new signal server.
func NewServer(cfg *ServerConfig) (*Server, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	s := &Server{
		cfg:     cfg,
		metrics: NewMetrics(registry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /data/{strategy}/{window}", s.instrument("data", s.handleChartData))
	mux.HandleFunc("GET /signal/{strategy}", s.instrument("signal", s.handleSignalLookup))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.https = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  time.Second * 5,
		WriteTimeout: time.Second * 10,
	}

	return s, nil
}

// writeJSON writes the provided payload as a json response.
func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.cfg.Logger.Error().Msgf("encoding response: %v", err)
	}

	return code
}

// writeError writes a json error response.
func (s *Server) writeError(w http.ResponseWriter, code int, message string) int {
	return s.writeJSON(w, code, map[string]string{"error": message})
}

// instrument wraps the provided handler with request metrics.
func (s *Server) instrument(route string, handler func(w http.ResponseWriter, r *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		code := handler(w, r)
		s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChartData serves the chart document of a strategy over a display
// window. Unknown strategies and windows yield a not found result, never a
// partial document.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) int {
	window, err := chart.ParseWindow(r.PathValue("window"))
	if err != nil {
		return s.writeError(w, http.StatusNotFound, err.Error())
	}

	strategy := r.PathValue("strategy")
	doc, err := s.cfg.Provider.ChartDocument(strategy, window)
	if err != nil {
		if errors.Is(err, shared.ErrNoData) {
			return s.writeError(w, http.StatusNotFound, "data not found")
		}

		s.cfg.Logger.Error().Msgf("building chart document for %s: %v", strategy, err)
		return s.writeError(w, http.StatusInternalServerError, "internal error")
	}

	return s.writeJSON(w, http.StatusOK, doc)
}

// handleSignalLookup serves the signal of a strategy on a queried day with
// last known value semantics.
func (s *Server) handleSignalLookup(w http.ResponseWriter, r *http.Request) int {
	strategy := r.PathValue("strategy")

	date, err := shared.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		return s.writeError(w, http.StatusBadRequest, "date must be of the form YYYY-MM-DD")
	}

	signal, err := s.cfg.Provider.SignalAt(strategy, date)
	switch {
	case errors.Is(err, shared.ErrDateNotInDataset):
		return s.writeJSON(w, http.StatusOK, map[string]string{
			"date":   date.Format(shared.DayLayout),
			"signal": "not available",
			"detail": shared.ErrDateNotInDataset.Error(),
		})
	case errors.Is(err, shared.ErrNoData):
		return s.writeError(w, http.StatusNotFound, "data not found")
	case err != nil:
		s.cfg.Logger.Error().Msgf("looking up signal for %s: %v", strategy, err)
		return s.writeError(w, http.StatusInternalServerError, "internal error")
	}

	return s.writeJSON(w, http.StatusOK, map[string]string{
		"date":   date.Format(shared.DayLayout),
		"signal": signal.String(),
	})
}

// Run manages the lifecycle of the signal server.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		err := s.https.Shutdown(shutdownCtx)
		if err != nil {
			s.cfg.Logger.Error().Msgf("shutting down server: %v", err)
		}
	}()

	s.cfg.Logger.Info().Msgf("signal server listening on %s", s.cfg.Addr)

	err := s.https.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.cfg.Logger.Error().Msgf("serving: %v", err)
	}
}
