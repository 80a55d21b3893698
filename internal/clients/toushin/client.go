// Package toushin fetches Japanese investment trust data from the fund
// search site run by the Investment Trusts Association
// (toushin-lib.fwg.ne.jp). Funds are addressed by ISIN. Historical NAVs
// come from a Shift-JIS CSV download keyed by an association fund code
// that has to be scraped from the fund's detail page first.
package toushin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujitaka/MultiAssetOFX/internal/clientdata"
	"github.com/fujitaka/MultiAssetOFX/internal/domain"
)

const (
	defaultBaseURL = "https://toushin-lib.fwg.ne.jp/FdsWeb/FDST030000"

	// The site serves bot-looking clients an empty shell, so requests
	// impersonate a desktop browser.
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "ja,en-US;q=0.7,en;q=0.3"

	fundsTable = "toushin_funds"
)

// StatusError reports a non-200 response from the fund detail page. It is
// a definitive answer from the site, not a transient fault, so callers
// should not retry it.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fund data site returned HTTP %d", e.Code)
}

// FundProfile is the cached slice of a fund's detail page: the display
// name and the association code needed for CSV downloads.
type FundProfile struct {
	Name          string `json:"name"`
	AssocFundCode string `json:"assoc_fund_cd"`
}

// DefaultFundName is the display name used when the site does not provide one.
func DefaultFundName(isin string) string {
	return "Investment Trust " + isin
}

// Client talks to the fund search site. The detail page and the CSV
// download get independent timeout budgets.
type Client struct {
	baseURL  string
	pageHTTP *http.Client
	csvHTTP  *http.Client
	cache    *clientdata.Repository
	log      zerolog.Logger
}

// NewClient creates a new fund site client. cache may be nil; fund
// profiles are then re-scraped on every resolution.
func NewClient(cache *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		pageHTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
		csvHTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
		log:   log.With().Str("client", "toushin").Logger(),
	}
}

// FetchFundPage downloads and parses the fund detail page. Non-200
// responses come back as *StatusError; transport failures as network
// faults. A successfully parsed page refreshes the profile cache.
func (c *Client) FetchFundPage(isin string) (*FundPage, error) {
	reqURL := c.baseURL + "?isinCd=" + url.QueryEscape(isin)

	c.log.Debug().Str("isin", isin).Msg("Fetching fund detail page")

	body, err := c.get(c.pageHTTP, reqURL)
	if err != nil {
		return nil, err
	}

	page, err := parseFundPage(isin, body)
	if err != nil {
		return nil, domain.NewParseError("fund page", err)
	}

	if page.AssocFundCode == "" {
		c.log.Warn().Str("isin", isin).Msg("No association fund code on detail page")
	}

	c.storeProfile(isin, FundProfile{Name: page.Name, AssocFundCode: page.AssocFundCode})

	return page, nil
}

// DownloadNAVHistory fetches the per-day NAV CSV for a fund. Transport
// failures are network faults. Everything else that prevents parsing a
// usable series (non-200, undecodable bytes, no rows) returns (nil, nil)
// so the caller can fall back to the latest published NAV.
func (c *Client) DownloadNAVHistory(isin, assocFundCode string) (*NAVHistory, error) {
	params := url.Values{}
	params.Add("isinCd", isin)
	params.Add("associFundCd", assocFundCode)

	reqURL := c.baseURL + "/csv-file-download?" + params.Encode()

	c.log.Debug().Str("isin", isin).Str("assoc_fund_cd", assocFundCode).Msg("Downloading NAV history CSV")

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, domain.NewNetworkError("nav history", err)
	}
	setBrowserHeaders(req)

	resp, err := c.csvHTTP.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError("nav history", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("isin", isin).Msg("CSV download refused")
		return nil, nil
	}

	history := parseNAVHistory(resp.Body)
	if history == nil || len(history.Entries) == 0 {
		c.log.Warn().Str("isin", isin).Msg("CSV contained no usable NAV rows")
		return nil, nil
	}

	return history, nil
}

// CachedProfile returns the fund profile if a fresh cache entry exists,
// nil otherwise.
func (c *Client) CachedProfile(isin string) *FundProfile {
	if c.cache == nil {
		return nil
	}

	data, err := c.cache.GetIfFresh(fundsTable, isin)
	if err != nil || data == nil {
		return nil
	}

	var profile FundProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}

	return &profile
}

// StaleProfile returns the fund profile regardless of expiry. Used when
// the detail page cannot be fetched; an old name and association code
// still beat none.
func (c *Client) StaleProfile(isin string) *FundProfile {
	if c.cache == nil {
		return nil
	}

	data, err := c.cache.Get(fundsTable, isin)
	if err != nil || data == nil {
		return nil
	}

	var profile FundProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}

	return &profile
}

func (c *Client) storeProfile(isin string, profile FundProfile) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Store(fundsTable, isin, profile, clientdata.TTLFundProfile); err != nil {
		c.log.Warn().Err(err).Str("isin", isin).Msg("Failed to cache fund profile")
	}
}

// get performs a browser-like GET against the detail page endpoint.
func (c *Client) get(httpClient *http.Client, reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, domain.NewNetworkError("fund page", err)
	}
	setBrowserHeaders(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError("fund page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("fund page", err)
	}

	return body, nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
}
