package quotefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"futuresregime/internal/adapters/credstore"
	"futuresregime/internal/domain"
	"futuresregime/internal/ports"

	"golang.org/x/time/rate"
)

// Config wires a Client to a vendor endpoint, a credential store, and the
// OAuth2 client needed to refresh an expired access token.
type Config struct {
	BaseURL     string
	Auth        AuthConfig
	Store       *credstore.Store
	Logger      ports.Logger
	HTTPClient  *http.Client
	RateLimit   rate.Limit // requests per second, vendor-imposed
	RateBurst   int
}

// Client is a ports.CandleSource backed by a Schwab-shaped price-history
// REST endpoint, rate-limited client-side to stay under the vendor's quota.
type Client struct {
	baseURL string
	auth    *AuthManager
	store   *credstore.Store
	logger  ports.Logger
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a Client from cfg, applying sane defaults for the HTTP
// client and rate limiter when unset.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = rate.Limit(2) // conservative default: 2 req/s
	}
	burst := cfg.RateBurst
	if burst == 0 {
		burst = 2
	}
	return &Client{
		baseURL: cfg.BaseURL,
		auth:    NewAuthManager(cfg.Auth),
		store:   cfg.Store,
		logger:  cfg.Logger,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Fetch implements ports.CandleSource. It resolves a valid access token
// (refreshing if expired), waits for rate-limiter headroom, and issues a
// price-history request for the given symbol and frequency.
func (c *Client) Fetch(ctx context.Context, symbol domain.Symbol, frequency domain.Frequency, lookbackDays int) (domain.CandleSeries, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return domain.CandleSeries{}, fmt.Errorf("quotefeed: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.CandleSeries{}, fmt.Errorf("quotefeed: rate limiter: %w", err)
	}

	req, err := c.buildRequest(ctx, tok.AccessToken, symbol, frequency, lookbackDays)
	if err != nil {
		return domain.CandleSeries{}, fmt.Errorf("quotefeed: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.CandleSeries{}, fmt.Errorf("%w: %v", ports.ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return domain.CandleSeries{}, fmt.Errorf("%w: access token rejected", ports.ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		return domain.CandleSeries{}, fmt.Errorf("%w: vendor quota exceeded", ports.ErrRateLimited)
	case http.StatusNotFound:
		return domain.CandleSeries{}, fmt.Errorf("%w: symbol %s", ports.ErrNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.CandleSeries{}, fmt.Errorf("%w: unexpected status %d", ports.ErrVendorUnavailable, resp.StatusCode)
	}

	var body priceHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.CandleSeries{}, fmt.Errorf("quotefeed: decode price history: %w", err)
	}
	series := body.toCandleSeries(frequency)
	if err := series.Validate(); err != nil {
		return domain.CandleSeries{}, fmt.Errorf("quotefeed: %w", err)
	}
	return series, nil
}

// accessToken returns a token valid for immediate use, refreshing it
// against the vendor's token endpoint and persisting the result if the
// cached token has expired.
func (c *Client) accessToken(ctx context.Context) (credstore.Token, error) {
	tok, err := c.store.Load()
	if err != nil {
		return credstore.Token{}, fmt.Errorf("load cached token: %w", err)
	}
	if !tok.Expired(time.Now()) {
		return tok, nil
	}
	c.logger.Debug(ctx, "access token expired, refreshing")
	fresh, err := c.auth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		return credstore.Token{}, fmt.Errorf("refresh access token: %w", err)
	}
	if err := c.store.Save(fresh); err != nil {
		c.logger.Warn(ctx, "failed to persist refreshed token", map[string]interface{}{"error": err.Error()})
	}
	return fresh, nil
}

func (c *Client) buildRequest(ctx context.Context, accessToken string, symbol domain.Symbol, frequency domain.Frequency, lookbackDays int) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + "/marketdata/v1/pricehistory")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol.String())
	q.Set("periodType", "day")
	q.Set("period", strconv.Itoa(lookbackDays))
	q.Set("frequencyType", "minute")
	q.Set("frequency", strconv.Itoa(int(frequency)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// priceHistoryResponse mirrors the vendor's candle envelope.
type priceHistoryResponse struct {
	Candles []vendorCandle `json:"candles"`
}

type vendorCandle struct {
	DatetimeMillis int64   `json:"datetime"`
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         int64   `json:"volume"`
}

func (r priceHistoryResponse) toCandleSeries(frequency domain.Frequency) domain.CandleSeries {
	bars := make([]domain.Candle, 0, len(r.Candles))
	for _, vc := range r.Candles {
		bars = append(bars, domain.Candle{
			Timestamp: time.UnixMilli(vc.DatetimeMillis).UTC(),
			Open:      vc.Open,
			High:      vc.High,
			Low:       vc.Low,
			Close:     vc.Close,
			Volume:    vc.Volume,
		})
	}
	return domain.CandleSeries{Frequency: frequency, Bars: bars}
}
