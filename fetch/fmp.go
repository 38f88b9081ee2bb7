package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/mlowry/papersig/shared"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the base url of the FMP service.
	BaseURL = "https://financialmodelingprep.com/stable"
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIkey is the FMP API Key.
	APIKey string
	// BaseURL is the base url of the FMP service.
	BaseURL string
}

// Validate asserts the config has sane inputs.
func (cfg *FMPConfig) Validate() error {
	var errs error

	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
	}
	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("fmp base url cannot be an empty string"))
	}

	return errs
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
// It is safe for concurrent use.
type FMPClient struct {
	cfg    *FMPConfig
	httpc  http.Client
	buf    *bytes.Buffer
	bufMtx sync.Mutex
}

// Ensure the FMP client implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*FMPClient)(nil)

// NewFMPClient initializes a new FMP client.
func NewFMPClient(cfg *FMPConfig) (*FMPClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &FMPClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 10},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}, nil
}

// formURL creates full urls including parameters for the api. The scratch
// buffer is shared across fetches, which run concurrently under the fetch
// manager.
func (c *FMPClient) formURL(path string, params string) string {
	c.bufMtx.Lock()
	defer c.bufMtx.Unlock()

	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// ParsePricePoints parses daily price points from the provided json data and
// returns them ascending by date.
func (c *FMPClient) ParsePricePoints(data []gjson.Result) ([]shared.PricePoint, error) {
	points := make([]shared.PricePoint, len(data))

	for idx := range data {
		date, err := shared.ParseDay(data[idx].Get("date").String())
		if err != nil {
			return nil, fmt.Errorf("parsing price point date: %w", err)
		}

		points[idx] = shared.PricePoint{
			Date:  date,
			Close: data[idx].Get("close").Float(),
		}
	}

	// The service returns newest first, the pipeline wants oldest first.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points, nil
}

// FetchDailyHistory fetches the daily closing price history of the provided
// ticker from the provided start date.
func (c *FMPClient) FetchDailyHistory(ctx context.Context, ticker string, start time.Time) ([]shared.PricePoint, error) {
	const dailyHistoricalPath = "/historical-price-eod/full"

	params := url.Values{}
	params.Add("symbol", ticker)
	params.Add("apikey", c.cfg.APIKey)
	if !start.IsZero() {
		params.Add("from", start.Format(shared.DayLayout))
	}

	formedURL := c.formURL(dailyHistoricalPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating daily history request for %s: %w", ticker, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching daily history for %s: %w", ticker, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching daily history for %s: status %d", ticker, resp.StatusCode)
	}

	data := gjson.ParseBytes(body).Array()

	return c.ParsePricePoints(data)
}
