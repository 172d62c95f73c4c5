package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Client talks to the payment processor's intent API.
type Client struct {
	config     config.Payment
	httpClient *http.Client
}

func NewClient(cfg config.Payment) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (cl *Client) Currency() string {
	return cl.config.Currency
}

func (cl *Client) CreatePaymentIntent(
	c context.Context,
	amount int64,
	currency string,
	orderNumber string,
) (PaymentIntent, error) {
	c, span := otel.Tracer.Start(c, "PaymentClient CreatePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaymentClient CreatePaymentIntent").
		Int64(log.KeyPaymentAmount, amount).
		Str(log.KeyCurrency, currency).
		Str(log.KeyOrderNumber, orderNumber).
		Str(log.KeyProcess, "creating payment intent").
		Logger()

	logger.Trace().Msg("creating payment intent")
	body := createPaymentIntentRequest{
		Amount:   amount,
		Currency: currency,
		Metadata: map[string]string{"order_number": orderNumber},
	}
	intent := PaymentIntent{}
	if err := cl.doRequest(c, http.MethodPost, "/v1/payment_intents", body, &intent); err != nil {
		err = fmt.Errorf("failed creating payment intent with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return PaymentIntent{}, err
	}
	logger.Info().Str(log.KeyPaymentIntentID, intent.ID).Msg("created payment intent")

	return intent, nil
}

func (cl *Client) RetrievePaymentIntent(c context.Context, id string) (PaymentIntent, error) {
	c, span := otel.Tracer.Start(c, "PaymentClient RetrievePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PaymentClient RetrievePaymentIntent").
		Str(log.KeyPaymentIntentID, id).
		Str(log.KeyProcess, "retrieving payment intent").
		Logger()

	logger.Trace().Msg("retrieving payment intent")
	intent := PaymentIntent{}
	if err := cl.doRequest(c, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &intent); err != nil {
		err = fmt.Errorf("failed retrieving payment intent with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return PaymentIntent{}, err
	}
	logger.Trace().Str("status", intent.Status).Msg("retrieved payment intent")

	return intent, nil
}

func (cl *Client) doRequest(c context.Context, method, path string, payload, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed marshaling request body with error=%w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(c, method, cl.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed creating request with error=%w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cl.config.SecretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed reading response body with error=%v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := errorResponse{}
		message := string(body)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrPaymentUnauthorized, message)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ErrPaymentInvalidRequest, message)
		default:
			return fmt.Errorf(
				"%w: status=%s message=%s",
				inErrors.ErrPaymentFailed,
				strconv.Itoa(resp.StatusCode),
				message,
			)
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed unmarshaling response with error=%v", inErrors.ErrPaymentFailed, err)
	}
	return nil
}
