package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"microlend/internal/domain/application"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() application.Application {
	return application.Application{
		ID:        7,
		Applicant: common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Name:      "Ama",
		Email:     "ama@example.com",
		Location:  "Accra",
		Business:  "Tailor",
		Story:     "Needs a machine",
		Amount:    decimal.NewFromInt(500),
	}
}

func TestWebhook_Posts(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewWebhook(server.Client(), server.URL, "key-1").ApplicationSubmitted(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, "key-1", got.AccessKey)
	assert.Equal(t, uint64(7), got.ApplicationID)
	assert.Equal(t, "500", got.Amount)
	assert.True(t, strings.Contains(got.Message, "Amount Requested: 500.00"))
	assert.True(t, strings.Contains(got.Subject, "Ama"))
}

func TestWebhook_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewWebhook(server.Client(), server.URL, "").ApplicationSubmitted(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
