package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/kolobank/walletcore/internal/domain"
	"github.com/kolobank/walletcore/internal/infrastructure/metrics"
)

// Client talks to the banking rail's REST API. Network failures and 5xx
// responses surface as ErrProviderUnavailable so callers treat the outcome
// as unknown rather than failed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	maxRetries uint64
}

// Config holds the rail client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewClient creates a rail client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		maxRetries: 2,
	}
}

type transferStatusResponse struct {
	TransferReference string `json:"transferReference"`
	Status            string `json:"status"`
	Message           string `json:"message"`
}

type listTransactionsResponse struct {
	Transactions []domain.RailTransaction `json:"transactions"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// InitiateTransfer submits an outbound transfer. The rail deduplicates on
// CustomerReference, which is what makes the retry loop safe.
func (c *Client) InitiateTransfer(ctx context.Context, req domain.RailTransferRequest) (*domain.RailTransferResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer request: %w", err)
	}

	var result domain.RailTransferResult
	err = c.do(ctx, "initiate_transfer", http.MethodPost, "/v1/transfers", body, &result)
	if err != nil {
		return nil, err
	}
	if result.TransferReference == "" {
		return nil, domain.ErrTransferReferenceMissing
	}
	return &result, nil
}

// GetTransferStatus queries the terminal status of a transfer. The
// reference may be either the rail's transfer reference or our customer
// reference.
func (c *Client) GetTransferStatus(ctx context.Context, transferRef string) (*domain.TransferStatusNotification, error) {
	var resp transferStatusResponse
	path := "/v1/transfers/" + url.PathEscape(transferRef)
	if err := c.do(ctx, "transfer_status", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &domain.TransferStatusNotification{
		TransferReference: resp.TransferReference,
		Status:            resp.Status,
		Message:           resp.Message,
	}, nil
}

// ListTransactions fetches the provider-side statement for an account,
// the external source of truth deposit recovery diffs against.
func (c *Client) ListTransactions(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.RailTransaction, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	path := "/v1/accounts/" + url.PathEscape(accountNumber) + "/transactions?" + q.Encode()

	var resp listTransactionsResponse
	if err := c.do(ctx, "list_transactions", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// do runs one rail call with retries on transport failures and 5xx. A 4xx
// is a definitive rejection and never retries.
func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, out any) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RailDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		}
	}()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	err := backoff.Retry(func() error {
		return c.doOnce(ctx, operation, method, path, body, out)
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))

	if c.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.metrics.RailRequests.WithLabelValues(operation, result).Inc()
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, operation, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("operation", operation).Msg("rail request failed")
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("operation", operation).
			Msg("rail returned server error")
		return fmt.Errorf("%w: rail responded %d", domain.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var errResp errorResponse
		_ = json.Unmarshal(respBody, &errResp)
		if errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
		return backoff.Permanent(fmt.Errorf("rail rejected %s: %s", operation, errResp.Message))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode rail response: %w", err))
		}
	}
	return nil
}
