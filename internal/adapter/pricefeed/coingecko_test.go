package pricefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGecko_NativePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "celo", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_ = json.NewEncoder(w).Encode(map[string]map[string]any{"celo": {"usd": 0.62}})
	}))
	defer server.Close()

	src := NewCoinGecko(server.Client(), server.URL, WithRateLimit(time.Millisecond, 1))
	price, err := src.NativePrice(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.62")), "price %s", price)
}

func TestCoinGecko_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}},
		{"missing asset", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"other":{"usd":1}}`)) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{`)) }},
		{"zero price", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"celo":{"usd":0}}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			src := NewCoinGecko(server.Client(), server.URL, WithRateLimit(time.Millisecond, 1))
			_, err := src.NativePrice(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestCoinGecko_CustomAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"celo-dollar":{"eur":0.93}}`))
	}))
	defer server.Close()

	src := NewCoinGecko(server.Client(), server.URL, WithAsset("CELO-DOLLAR", "EUR"), WithRateLimit(time.Millisecond, 1))
	price, err := src.NativePrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.93", price.String())
}
