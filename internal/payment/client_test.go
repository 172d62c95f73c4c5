package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected int64
		wantErr  error
	}{
		{name: "whole amount", amount: "25", expected: 2500},
		{name: "two decimals", amount: "19.99", expected: 1999},
		{name: "zero", amount: "0.00", expected: 0},
		{name: "sub cent amount is rejected", amount: "1.005", wantErr: ErrSubCentAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := ToMinorUnits(decimal.RequireFromString(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantErr    error
	}{
		{
			name:       "created",
			statusCode: http.StatusOK,
			response:   `{"id":"pi_1","client_secret":"pi_1_secret","amount":2500,"currency":"usd","status":"requires_payment_method"}`,
		},
		{
			name:       "bad request",
			statusCode: http.StatusBadRequest,
			response:   `{"error":{"type":"invalid_request_error","message":"amount too small"}}`,
			wantErr:    ErrPaymentInvalidRequest,
		},
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			response:   `{"error":{"message":"invalid key"}}`,
			wantErr:    ErrPaymentUnauthorized,
		},
		{
			name:       "processor down",
			statusCode: http.StatusServiceUnavailable,
			response:   `oops`,
			wantErr:    inErrors.ErrPaymentFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v1/payment_intents", r.URL.Path)
				assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

				body := createPaymentIntentRequest{}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, int64(2500), body.Amount)
				assert.Equal(t, "usd", body.Currency)
				assert.Equal(t, "000001", body.Metadata["order_number"])

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient(config.Payment{BaseURL: server.URL, SecretKey: "sk_test", Currency: "usd"})
			actual, err := client.CreatePaymentIntent(context.Background(), 2500, "usd", "000001")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pi_1", actual.ID)
			assert.Equal(t, "pi_1_secret", actual.ClientSecret)
			assert.Equal(t, int64(2500), actual.Amount)
		})
	}
}

func TestRetrievePaymentIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pi_1","amount":2500,"currency":"usd","status":"succeeded"}`))
	}))
	defer server.Close()

	client := NewClient(config.Payment{BaseURL: server.URL, SecretKey: "sk_test"})
	actual, err := client.RetrievePaymentIntent(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, actual.Status)
	assert.Equal(t, int64(2500), actual.Amount)
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(config.Payment{BaseURL: server.URL, SecretKey: "sk_test"})
	_, err := client.CreatePaymentIntent(context.Background(), 100, "usd", "000001")

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, inErrors.ErrPaymentFailed)
}
