// Package service wires the fetch, strategy, tally, persistence and serving
// layers into the papersig signal service.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/mlowry/papersig/chart"
	"github.com/mlowry/papersig/database"
	"github.com/mlowry/papersig/fetch"
	"github.com/mlowry/papersig/server"
	"github.com/mlowry/papersig/shared"
	"github.com/mlowry/papersig/strategy"
	"github.com/mlowry/papersig/tally"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// ConsensusName is the route name of the cross strategy consensus chart.
	ConsensusName = "consensus"
	// recomputeTime is the daily recompute time (in new york time), after
	// the close.
	recomputeTime = "17:30"
)

// PapersigConfig represents the configuration struct for the papersig
// service.
type PapersigConfig struct {
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// Strategies is the strategy roster signals are derived for.
	Strategies []strategy.Strategy
	// ChartTicker is the ticker plotted on the consensus chart.
	ChartTicker string
	// HistoryStart is the earliest date history is fetched from.
	HistoryStart time.Time
	// ListenAddr is the signal server listen address.
	ListenAddr string
	// DatabaseEndpoint is the rqlite connection endpoint, persistence is
	// skipped when empty.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *PapersigConfig) Validate() error {
	var errs error

	if cfg.FMPAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
	}
	if len(cfg.Strategies) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no strategies provided for papersig service"))
	}
	if cfg.ChartTicker == "" {
		errs = errors.Join(errs, fmt.Errorf("chart ticker cannot be an empty string"))
	}
	if cfg.ListenAddr == "" {
		errs = errors.Join(errs, fmt.Errorf("listen address cannot be an empty string"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// strategyResult represents the computed artifacts of one strategy.
type strategyResult struct {
	signals     *shared.SignalMap
	inflections []shared.InflectionPoint
	prices      []shared.PricePoint
}

// Papersig represents the market timing signal service.
type Papersig struct {
	cfg          *PapersigConfig
	fetchManager *fetch.Manager
	store        database.SignalStorer
	server       *server.Server
	jobScheduler *gocron.Scheduler
	logger       *zerolog.Logger

	resultsMtx sync.RWMutex
	results    map[string]*strategyResult
	consensus  []tally.DailyTally
	chartAxis  []shared.PricePoint
}

// Ensure the papersig service implements the server provider interface.
var _ server.Provider = (*Papersig)(nil)

// NewPapersig initializes a new papersig service.
func NewPapersig(ctx context.Context, cfg *PapersigConfig) (*Papersig, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "papersig").Logger()

	fmp, err := fetch.NewFMPClient(&fetch.FMPConfig{APIKey: cfg.FMPAPIKey, BaseURL: fetch.BaseURL})
	if err != nil {
		return nil, fmt.Errorf("creating fmp client: %w", err)
	}

	fetchLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Client: fmp,
		Start:  cfg.HistoryStart,
		Logger: &fetchLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	var store database.SignalStorer
	if cfg.DatabaseEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		store, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DatabaseEndpoint,
			User:     cfg.DatabaseUser,
			Pass:     cfg.DatabasePass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %w", err)
		}
	}

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return nil, fmt.Errorf("fetching new york time: %w", err)
	}

	svc := &Papersig{
		cfg:          cfg,
		fetchManager: fetchMgr,
		store:        store,
		jobScheduler: gocron.NewScheduler(loc),
		logger:       &logger,
		results:      make(map[string]*strategyResult),
	}

	serverLogger := logger.With().Str("component", "server").Logger()
	svc.server, err = server.NewServer(&server.ServerConfig{
		Addr:     cfg.ListenAddr,
		Provider: svc,
		Logger:   &serverLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating signal server: %w", err)
	}

	return svc, nil
}

// tickers collects the tickers required by the strategy roster and the
// consensus chart.
func (s *Papersig) tickers() []string {
	tickers := make([]string, 0, len(s.cfg.Strategies)+1)
	tickers = append(tickers, s.cfg.ChartTicker)
	for _, strat := range s.cfg.Strategies {
		tickers = append(tickers, strat.Tickers()...)
	}

	return tickers
}

// hydrate restores persisted signal maps into the serving state so lookups
// can be answered while the first batch run is still fetching. Hydrated
// strategies carry no price series, their charts stay unavailable until the
// batch completes.
func (s *Papersig) hydrate(ctx context.Context) {
	if s.store == nil {
		return
	}

	results := make(map[string]*strategyResult, len(s.cfg.Strategies))
	for _, strat := range s.cfg.Strategies {
		signals, err := s.store.FetchSignalMap(ctx, strat.Name())
		if err != nil {
			if !errors.Is(err, shared.ErrNoData) {
				s.logger.Warn().Msgf("hydrating %s: %v", strat.Name(), err)
			}
			continue
		}

		results[strat.Name()] = &strategyResult{
			signals:     signals,
			inflections: signals.Inflections(),
		}
	}

	if len(results) == 0 {
		return
	}

	s.resultsMtx.Lock()
	s.results = results
	s.resultsMtx.Unlock()

	s.logger.Info().Msgf("hydrated %d persisted signal maps", len(results))
}

// computeRun executes one batch run: fetch history, derive signals per
// strategy, extract inflections, tally the consensus and persist the
// artifacts. Failing strategies are skipped with a warning.
func (s *Papersig) computeRun(ctx context.Context) {
	runID := uuid.NewString()
	startedOn := time.Now()

	s.logger.Info().Msgf("starting signal run %s for %d strategies", runID, len(s.cfg.Strategies))

	s.fetchManager.Reset()
	series := s.fetchManager.FetchAll(ctx, s.tickers())

	results := make(map[string]*strategyResult, len(s.cfg.Strategies))
	maps := make([]*shared.SignalMap, 0, len(s.cfg.Strategies))

	for _, strat := range s.cfg.Strategies {
		signals, err := strat.Derive(series)
		if err != nil {
			s.logger.Warn().Msgf("skipping strategy %s: %v", strat.Name(), err)
			continue
		}
		if signals.Size() == 0 {
			s.logger.Warn().Msgf("skipping strategy %s: no computable signals", strat.Name())
			continue
		}

		results[strat.Name()] = &strategyResult{
			signals:     signals,
			inflections: signals.Inflections(),
			prices:      series[strat.Tickers()[0]],
		}
		maps = append(maps, signals)

		if s.store != nil {
			err = s.store.PersistSignalMap(ctx, strat.Name(), signals)
			if err != nil {
				s.logger.Error().Msgf("persisting signal map for %s: %v", strat.Name(), err)
			}
		}
	}

	consensus := tally.BuyConsensus(maps)

	s.resultsMtx.Lock()
	s.results = results
	s.consensus = consensus
	s.chartAxis = series[s.cfg.ChartTicker]
	s.resultsMtx.Unlock()

	if s.store != nil {
		err := s.store.PersistRun(ctx, &database.Run{
			ID:          runID,
			StartedOn:   startedOn,
			CompletedOn: time.Now(),
			Strategies:  len(results),
		})
		if err != nil {
			s.logger.Error().Msgf("persisting run %s: %v", runID, err)
		}
	}

	s.logger.Info().Msgf("signal run %s completed: %d/%d strategies, %d consensus days",
		runID, len(results), len(s.cfg.Strategies), len(consensus))
}

// ChartDocument returns the chart document of the provided strategy over the
// provided display window.
func (s *Papersig) ChartDocument(name string, window chart.Window) (*chart.Document, error) {
	now, _, err := shared.NewYorkTime()
	if err != nil {
		return nil, err
	}

	// Anchor the display window to the new york trading day, not the UTC
	// day, which rolls over during the evening session.
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	s.resultsMtx.RLock()
	defer s.resultsMtx.RUnlock()

	if name == ConsensusName {
		if len(s.chartAxis) == 0 {
			return nil, shared.ErrNoData
		}

		return chart.Build(s.chartAxis, nil, s.consensus, window, today)
	}

	result, ok := s.results[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %s: %w", name, shared.ErrNoData)
	}

	return chart.Build(result.prices, result.inflections, nil, window, today)
}

// SignalAt returns the signal of the provided strategy on the provided day,
// falling back to the most recent prior dated signal.
func (s *Papersig) SignalAt(name string, date time.Time) (shared.Signal, error) {
	s.resultsMtx.RLock()
	defer s.resultsMtx.RUnlock()

	result, ok := s.results[name]
	if !ok {
		return 0, fmt.Errorf("unknown strategy %s: %w", name, shared.ErrNoData)
	}

	return result.signals.Lookup(date)
}

// Run manages the lifecycle processes of the papersig service.
func (s *Papersig) Run(ctx context.Context) {
	s.hydrate(ctx)
	go s.computeRun(ctx)

	_, err := s.jobScheduler.Every(1).Day().At(recomputeTime).Do(func() {
		s.computeRun(ctx)
	})
	if err != nil {
		s.logger.Error().Msgf("scheduling daily signal run: %v", err)
		s.cfg.Cancel()
		return
	}

	s.jobScheduler.StartAsync()

	s.server.Run(ctx)

	<-ctx.Done()
	s.jobScheduler.Stop()
}
