// Package pricefeed adapts the CoinGecko simple price API as the swap
// engine's reference price source.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint = "https://api.coingecko.com/api/v3/simple/price"
	DefaultAssetID  = "celo"
	DefaultVersus   = "usd"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type CoinGecko struct {
	client   HTTPDoer
	endpoint string
	assetID  string
	versus   string
	limiter  *rate.Limiter
}

type Option func(*CoinGecko)

func WithAsset(id, versus string) Option {
	return func(c *CoinGecko) {
		if id = strings.TrimSpace(id); id != "" {
			c.assetID = strings.ToLower(id)
		}
		if versus = strings.TrimSpace(versus); versus != "" {
			c.versus = strings.ToLower(versus)
		}
	}
}

// WithRateLimit caps outbound requests; the public API is throttled.
func WithRateLimit(every time.Duration, burst int) Option {
	return func(c *CoinGecko) {
		c.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

func NewCoinGecko(client HTTPDoer, endpoint string, opts ...Option) *CoinGecko {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DefaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c := &CoinGecko{
		client:   client,
		endpoint: ep,
		assetID:  DefaultAssetID,
		versus:   DefaultVersus,
		limiter:  rate.NewLimiter(rate.Every(6*time.Second), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CoinGecko) NativePrice(ctx context.Context) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	values := url.Values{}
	values.Set("ids", c.assetID)
	values.Set("vs_currencies", c.versus)
	req.URL.RawQuery = values.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("coingecko: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload map[string]map[string]json.Number
	if err := dec.Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("coingecko: decode: %w", err)
	}
	raw, ok := payload[c.assetID][c.versus]
	if !ok {
		return decimal.Zero, fmt.Errorf("coingecko: no %s price for %s", c.versus, c.assetID)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("coingecko: invalid price %q", raw)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("coingecko: non-positive price %s", price)
	}
	return price, nil
}
