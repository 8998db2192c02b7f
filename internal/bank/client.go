package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payment-gateway/internal/logger"
	"payment-gateway/internal/models"
)

const maxResponseBytes = 1 << 20

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// rawCall performs a single HTTP round trip.
type rawCall func(ctx context.Context) (*http.Response, error)

// Client calls the acquiring bank simulator. A call is the composition
// retrying(classifying(rawCall)).
type Client struct {
	baseURL string
	http    Doer
	policy  RetryPolicy
	log     *logger.Logger
}

// NewClient builds a client for baseURL. A nil httpClient gets a 10s timeout
// client; a policy without attempts falls back to DefaultRetryPolicy.
func NewClient(baseURL string, httpClient Doer, policy RetryPolicy, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		policy:  policy,
		log:     log,
	}
}

// CreatePayment submits req to POST {baseURL}/payments. A bank decision or a
// rejection is returned as a Result; transient failures that outlive the
// retry policy, malformed bodies and cancellation are returned as errors.
func (c *Client) CreatePayment(ctx context.Context, req models.BankPaymentRequest) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("bank: failed to encode request: %w", err)
	}

	c.log.LogBank("REQUEST", fmt.Sprintf("Sending payment authorization request (%d %s)", req.Amount, req.Currency))

	call := retrying(c.policy, c.notifyRetry, classifying(c.post(body)))
	result, err := call(ctx)
	if err != nil {
		c.log.Error("BANK", fmt.Sprintf("Payment authorization failed: %v", err))
		return Result{}, err
	}

	switch result.Outcome {
	case OutcomeRejected:
		c.log.Warn("BANK", fmt.Sprintf("Payment rejected by bank with status %d", result.Rejection.StatusCode))
	default:
		c.log.LogBank("RESPONSE", fmt.Sprintf("Bank answered authorized=%t", result.Response.Authorized))
	}
	return result, nil
}

func (c *Client) post(body []byte) rawCall {
	url := c.baseURL + "/payments"
	return func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}
}

func (c *Client) notifyRetry(attempt int, err error, next time.Duration) {
	c.log.Warn("BANK", fmt.Sprintf("Attempt %d/%d failed: %v; retrying in %s", attempt, c.policy.MaxAttempts, err, next))
}

// classifying turns the outcome of a raw call into a Result or a typed error.
func classifying(call rawCall) attemptFunc {
	return func(ctx context.Context) (Result, error) {
		resp, err := call(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("bank: request cancelled: %w", ctx.Err())
			}
			return Result{}, &TransientError{Err: err}
		}
		defer resp.Body.Close()

		payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

		if IsRejection(resp.StatusCode) {
			return rejected(resp.StatusCode, http.StatusText(resp.StatusCode)), nil
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return Result{}, &TransientError{StatusCode: resp.StatusCode}
		}
		if readErr != nil {
			return Result{}, &TransientError{StatusCode: resp.StatusCode, Err: readErr}
		}

		decoded, err := decodeResponse(payload)
		if err != nil {
			return Result{}, err
		}
		return answered(decoded), nil
	}
}

func decodeResponse(payload []byte) (*models.BankPaymentResponse, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var decoded models.BankPaymentResponse
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &decoded, nil
}
