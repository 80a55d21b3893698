// Package yahoo fetches daily closing prices and display names from the
// Yahoo Finance public endpoints. Requests carry a browser User-Agent; the
// endpoints reject plain library clients.
package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/clientdata"
	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

const (
	defaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultQuoteBaseURL = "https://query1.finance.yahoo.com/v7/finance/quote"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	namesTable = "yahoo_names"
)

// Client is a Yahoo Finance API client
type Client struct {
	client       *http.Client
	cache        *clientdata.Repository
	log          zerolog.Logger
	chartBaseURL string
	quoteBaseURL string
}

// NewClient creates a new Yahoo Finance client. cache may be nil; name
// lookups then always hit the network.
func NewClient(cache *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:        cache,
		log:          log.With().Str("client", "yahoo").Logger(),
		chartBaseURL: defaultChartBaseURL,
		quoteBaseURL: defaultQuoteBaseURL,
	}
}

// chartResponse mirrors the chart API envelope. Candle arrays are index
// aligned with Timestamp; non-trading slots come back as nulls, which decode
// to zero.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency  string `json:"currency"`
				Symbol    string `json:"symbol"`
				Timezone  string `json:"timezone"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// DailyClose fetches the closing price for symbol on exactly the given
// calendar date. Returns (nil, nil) when the market has no candle for that
// day, which is an expected outcome, not a fault. The request window is
// padded a day on each side; the exchange offset in the response maps each
// candle back to its market-local calendar day.
func (c *Client) DailyClose(symbol string, date time.Time) (*DailyQuote, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	period1 := day.AddDate(0, 0, -1).Unix()
	period2 := day.AddDate(0, 0, 2).Unix()

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(period1, 10))
	params.Add("period2", strconv.FormatInt(period2, 10))

	reqURL := c.chartBaseURL + "/" + url.PathEscape(symbol) + "?" + params.Encode()

	body, err := c.get(reqURL)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, domain.NewParseError("chart response", err)
	}

	if result.Chart.Error != nil {
		return nil, domain.NewParseError("chart response", fmt.Errorf("API error: %v", result.Chart.Error))
	}

	if len(result.Chart.Result) == 0 {
		c.log.Debug().Str("symbol", symbol).Msg("No chart data returned")
		return nil, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := chartData.Indicators.Quote[0]

	offset := time.Duration(chartData.Meta.GMTOffset) * time.Second
	want := day.Format("2006-01-02")

	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		closePrice := quote.Close[i]
		if closePrice <= 0 {
			continue
		}
		marketDay := time.Unix(ts, 0).UTC().Add(offset).Format("2006-01-02")
		if marketDay == want {
			c.log.Debug().
				Str("symbol", symbol).
				Str("date", want).
				Float64("close", closePrice).
				Msg("Fetched daily close")
			return &DailyQuote{Symbol: symbol, Date: day, Close: closePrice}, nil
		}
	}

	c.log.Debug().Str("symbol", symbol).Str("date", want).Msg("No candle for requested date")
	return nil, nil
}

// quoteResponse represents the response from the quote API
type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// QuoteName resolves the display names for a symbol, cache first. A fetch
// failure falls back to a stale cache entry before surfacing the error.
func (c *Client) QuoteName(symbol string) (*QuoteName, error) {
	if c.cache != nil {
		if data, err := c.cache.GetIfFresh(namesTable, symbol); err == nil && data != nil {
			var cached QuoteName
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("symbol", symbol).Msg("Quote name cache hit")
				return &cached, nil
			}
		}
	}

	name, err := c.fetchQuoteName(symbol)
	if err != nil {
		if c.cache != nil {
			if data, cacheErr := c.cache.Get(namesTable, symbol); cacheErr == nil && data != nil {
				var stale QuoteName
				if jsonErr := json.Unmarshal(data, &stale); jsonErr == nil {
					c.log.Warn().Err(err).
						Str("symbol", symbol).
						Msg("Name fetch failed, using stale cache entry")
					return &stale, nil
				}
			}
		}
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Store(namesTable, symbol, name, clientdata.TTLQuoteName); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote name")
		}
	}

	return name, nil
}

// fetchQuoteName fetches display names from the quote API. Best effort: all
// failures are plain errors for the caller to swallow.
func (c *Client) fetchQuoteName(symbol string) (*QuoteName, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,longName,shortName")

	body, err := c.get(c.quoteBaseURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	info := result.QuoteResponse.Result[0]
	return &QuoteName{
		LongName:  getString(info, "longName", ""),
		ShortName: getString(info, "shortName", ""),
	}, nil
}

// get performs a browser-like GET and returns the body. Transport failures
// and non-200 responses surface as network faults.
func (c *Client) get(reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, domain.NewNetworkError("request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewNetworkError("request",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("response", err)
	}

	return body, nil
}

// truncateBody keeps error messages readable when the endpoint returns an
// HTML error page.
func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// getString safely extracts a string value from a map
func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}
