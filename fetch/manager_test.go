package fetch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mlowry/papersig/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"
)

// stubFetcher serves canned daily history per ticker and counts fetches.
type stubFetcher struct {
	mtx    sync.Mutex
	series map[string][]shared.PricePoint
	errs   map[string]error
	calls  map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		series: make(map[string][]shared.PricePoint),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *stubFetcher) FetchDailyHistory(_ context.Context, ticker string, _ time.Time) ([]shared.PricePoint, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.calls[ticker]++
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}

	return f.series[ticker], nil
}

func (f *stubFetcher) callCount(ticker string) int {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return f.calls[ticker]
}

// testManager initializes a fetch manager backed by the provided stub.
func testManager(t *testing.T, fetcher *stubFetcher) *Manager {
	t.Helper()

	logger := zerolog.Nop()
	m, err := NewManager(&ManagerConfig{
		Client: fetcher,
		Logger: &logger,
	})
	assert.NoError(t, err)

	return m
}

func TestManagerConfigValidate(t *testing.T) {
	cfg := &ManagerConfig{}
	assert.Error(t, cfg.Validate())

	logger := zerolog.Nop()
	cfg = &ManagerConfig{Client: newStubFetcher(), Logger: &logger}
	assert.NoError(t, cfg.Validate())
}

// pricedDay builds a one point series on the provided day.
func pricedDay(t *testing.T, day string, close float64) []shared.PricePoint {
	t.Helper()

	date, err := shared.ParseDay(day)
	assert.NoError(t, err)

	return []shared.PricePoint{{Date: date, Close: close}}
}

func TestManagerFetchAll(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.series["SPY"] = pricedDay(t, "2023-01-03", 400)
	fetcher.series["XLU"] = pricedDay(t, "2023-01-03", 70)
	fetcher.errs["QQQ"] = fmt.Errorf("rate limited")

	m := testManager(t, fetcher)

	// Duplicate tickers collapse to one fetch each, failed tickers are
	// absent from the result.
	series := m.FetchAll(context.Background(), []string{"SPY", "XLU", "SPY", "QQQ"})

	assert.Equal(t, len(series), 2)
	assert.Equal(t, series["SPY"][0].Close, 400.0)
	assert.Equal(t, series["XLU"][0].Close, 70.0)
	assert.Equal(t, fetcher.callCount("SPY"), 1)
	assert.Equal(t, fetcher.callCount("QQQ"), 1)
}

func TestManagerCachesAcrossBatches(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.series["SPY"] = pricedDay(t, "2023-01-03", 400)

	m := testManager(t, fetcher)

	m.FetchAll(context.Background(), []string{"SPY"})
	m.FetchAll(context.Background(), []string{"SPY"})
	assert.Equal(t, fetcher.callCount("SPY"), 1)

	// A reset forces a refetch on the next batch.
	m.Reset()
	m.FetchAll(context.Background(), []string{"SPY"})
	assert.Equal(t, fetcher.callCount("SPY"), 2)
}

func TestManagerSkipsEmptyHistory(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.series["SPY"] = nil

	m := testManager(t, fetcher)

	series := m.FetchAll(context.Background(), []string{"SPY"})
	assert.Equal(t, len(series), 0)
}
