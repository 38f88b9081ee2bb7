package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mlowry/papersig/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestFMPConfigValidate(t *testing.T) {
	cfg := &FMPConfig{APIKey: "key", BaseURL: BaseURL}
	assert.NoError(t, cfg.Validate())

	cfg = &FMPConfig{}
	assert.Error(t, cfg.Validate())
}

func TestFormURL(t *testing.T) {
	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: "https://example.com/stable"})
	assert.NoError(t, err)

	url := c.formURL("/historical-price-eod/full", "apikey=key&symbol=SPY")
	assert.Equal(t, url, "https://example.com/stable/historical-price-eod/full?apikey=key&symbol=SPY")

	// The scratch buffer resets between calls.
	url = c.formURL("/quote", "symbol=QQQ")
	assert.Equal(t, url, "https://example.com/stable/quote?symbol=QQQ")
}

func TestParsePricePoints(t *testing.T) {
	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: BaseURL})
	assert.NoError(t, err)

	// The service returns newest first.
	data := gjson.Parse(`[
		{"date":"2023-01-05","close":393.1},
		{"date":"2023-01-04","close":390.2},
		{"date":"2023-01-03","close":388.9}
	]`).Array()

	points, err := c.ParsePricePoints(data)
	assert.NoError(t, err)

	first, err := shared.ParseDay("2023-01-03")
	assert.NoError(t, err)

	want := []shared.PricePoint{
		{Date: first, Close: 388.9},
		{Date: first.AddDate(0, 0, 1), Close: 390.2},
		{Date: first.AddDate(0, 0, 2), Close: 393.1},
	}
	if diff := cmp.Diff(points, want); diff != "" {
		t.Fatalf("unexpected price points (-got +want):\n%s", diff)
	}

	assert.NoError(t, shared.Ascending(points))
}

func TestParsePricePointsBadDate(t *testing.T) {
	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: BaseURL})
	assert.NoError(t, err)

	data := gjson.Parse(`[{"date":"01/05/2023","close":393.1}]`).Array()

	_, err = c.ParsePricePoints(data)
	assert.Error(t, err)
}

func TestFetchDailyHistory(t *testing.T) {
	var gotQuery map[string]string
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"symbol": r.URL.Query().Get("symbol"),
			"apikey": r.URL.Query().Get("apikey"),
			"from":   r.URL.Query().Get("from"),
		}
		w.Write([]byte(`[
			{"date":"2023-01-04","close":390.2},
			{"date":"2023-01-03","close":388.9}
		]`))
	}))
	defer svr.Close()

	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: svr.URL})
	assert.NoError(t, err)

	start, err := shared.ParseDay("2020-01-01")
	assert.NoError(t, err)

	points, err := c.FetchDailyHistory(context.Background(), "SPY", start)
	assert.NoError(t, err)

	assert.Equal(t, gotQuery["symbol"], "SPY")
	assert.Equal(t, gotQuery["apikey"], "key")
	assert.Equal(t, gotQuery["from"], "2020-01-01")

	assert.Equal(t, len(points), 2)
	assert.Equal(t, points[0].Close, 388.9)
	assert.Equal(t, points[1].Close, 390.2)
}

func TestFetchDailyHistoryConcurrent(t *testing.T) {
	// The fetch manager runs several fetches at once over one client, so
	// concurrent requests must form clean urls. The server echoes a close
	// derived from the symbol so crossed requests surface as mismatches.
	closeBySymbol := map[string]string{
		"SPY": "400.5", "XLU": "70.5", "XLB": "82.5", "XLE": "90.5",
	}

	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		quote, ok := closeBySymbol[r.URL.Query().Get("symbol")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"date":"2023-01-03","close":` + quote + `}]`))
	}))
	defer svr.Close()

	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: svr.URL})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, len(closeBySymbol)*8)
	for symbol, quote := range closeBySymbol {
		want, err := strconv.ParseFloat(quote, 64)
		assert.NoError(t, err)

		for range 8 {
			wg.Add(1)
			go func(symbol string, want float64) {
				defer wg.Done()

				points, err := c.FetchDailyHistory(context.Background(), symbol, time.Time{})
				if err != nil {
					errs <- err
					return
				}
				if len(points) != 1 || points[0].Close != want {
					errs <- fmt.Errorf("%s: unexpected points %v", symbol, points)
				}
			}(symbol, want)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent fetch: %v", err)
	}
}

func TestFetchDailyHistoryErrorStatus(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer svr.Close()

	c, err := NewFMPClient(&FMPConfig{APIKey: "key", BaseURL: svr.URL})
	assert.NoError(t, err)

	_, err = c.FetchDailyHistory(context.Background(), "SPY", time.Time{})
	assert.Error(t, err)
}
