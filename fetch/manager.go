package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mlowry/papersig/shared"
	"github.com/rs/zerolog"
)

const (
	// maxWorkers is the maximum number of concurrent history fetches.
	maxWorkers = 4
)

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// Client represents the market data client.
	Client shared.MarketFetcher
	// Start is the earliest date history is fetched from.
	Start time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Client == nil {
		errs = errors.Join(errs, fmt.Errorf("market data client cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Manager fetches and caches daily price history per ticker. Tickers with
// missing or empty history are skipped with a warning, never failing a batch.
type Manager struct {
	cfg       *ManagerConfig
	series    map[string][]shared.PricePoint
	seriesMtx sync.RWMutex
	workers   chan struct{}
}

// NewManager initializes the fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:     cfg,
		series:  make(map[string][]shared.PricePoint),
		workers: make(chan struct{}, maxWorkers),
	}, nil
}

// fetchTicker fetches and caches the daily history of the provided ticker.
func (m *Manager) fetchTicker(ctx context.Context, ticker string) {
	prices, err := m.cfg.Client.FetchDailyHistory(ctx, ticker, m.cfg.Start)
	if err != nil {
		m.cfg.Logger.Warn().Msgf("skipping %s: fetching daily history: %v", ticker, err)
		return
	}
	if len(prices) == 0 {
		m.cfg.Logger.Warn().Msgf("skipping %s: %v", ticker, shared.ErrNoData)
		return
	}

	m.seriesMtx.Lock()
	m.series[ticker] = prices
	m.seriesMtx.Unlock()
}

// FetchAll fetches daily history for the provided tickers and returns the
// cached series keyed by ticker. Tickers whose fetch failed are absent from
// the result.
func (m *Manager) FetchAll(ctx context.Context, tickers []string) map[string][]shared.PricePoint {
	var wg sync.WaitGroup

	seen := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true

		if m.cached(ticker) != nil {
			continue
		}

		wg.Add(1)
		m.workers <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			m.fetchTicker(ctx, ticker)
			<-m.workers
		}(ticker)
	}

	wg.Wait()

	m.seriesMtx.RLock()
	defer m.seriesMtx.RUnlock()

	series := make(map[string][]shared.PricePoint, len(seen))
	for ticker := range seen {
		if prices, ok := m.series[ticker]; ok {
			series[ticker] = prices
		}
	}

	return series
}

// cached returns the cached series of the provided ticker, if any.
func (m *Manager) cached(ticker string) []shared.PricePoint {
	m.seriesMtx.RLock()
	defer m.seriesMtx.RUnlock()

	return m.series[ticker]
}

// Reset discards all cached series ahead of a fresh batch run.
func (m *Manager) Reset() {
	m.seriesMtx.Lock()
	m.series = make(map[string][]shared.PricePoint)
	m.seriesMtx.Unlock()
}
