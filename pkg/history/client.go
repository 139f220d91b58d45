// Package history fetches an account's transaction list from an Etherscan-style
// block explorer API.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dex-swap/pkg/logging"
)

var log = logging.New("history")

var (
	// ErrUpstream means the explorer could not be reached or answered with an error
	ErrUpstream = errors.New("transaction history unavailable")
	// ErrInvalidAddress is returned for an address the explorer would reject
	ErrInvalidAddress = errors.New("invalid address")
)

const noTransactionsMessage = "No transactions found"

// ClientConfig controls request and retry behavior
type ClientConfig struct {
	// MaxRetries is the number of times to retry a failed request
	MaxRetries int
	// RetryDelay is the initial delay between retries (doubles with each retry)
	RetryDelay time.Duration
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PageSize is the number of transactions requested
	PageSize int
}

// DefaultClientConfig returns the defaults used by the CLI
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		Timeout:    10 * time.Second,
		PageSize:   25,
	}
}

// Client queries the explorer's account txlist endpoint
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	config     ClientConfig
}

// NewClient creates a history client
func NewClient(baseURL, apiKey string, config ClientConfig) *Client {
	if config.PageSize <= 0 {
		config.PageSize = DefaultClientConfig().PageSize
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		config:     config,
	}
}

// explorerResponse is the explorer envelope. Result is a list on success and a
// message string on failure.
type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Transactions returns the most recent transactions of address, newest first
func (c *Client) Transactions(ctx context.Context, address string) ([]Transaction, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", "txlist")
	query.Set("address", address)
	query.Set("startblock", "0")
	query.Set("endblock", "99999999")
	query.Set("page", "1")
	query.Set("offset", strconv.Itoa(c.config.PageSize))
	query.Set("sort", "desc")
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	body, err := c.getWithRetry(ctx, c.baseURL+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var resp explorerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}

	if resp.Status != "1" {
		if strings.EqualFold(resp.Message, noTransactionsMessage) {
			return []Transaction{}, nil
		}
		var detail string
		_ = json.Unmarshal(resp.Result, &detail)
		return nil, fmt.Errorf("%w: %s %s", ErrUpstream, resp.Message, detail)
	}

	var txs []Transaction
	if err := json.Unmarshal(resp.Result, &txs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode transactions: %v", ErrUpstream, err)
	}
	return txs, nil
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	retryDelay := c.config.RetryDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			}
			retryDelay *= 2
		}

		body, err := c.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("Explorer request failed")
	}

	log.Warn().Err(lastErr).Msg("Explorer request failed after retries")
	return nil, fmt.Errorf("%w: request failed after %d attempts: %v", ErrUpstream, c.config.MaxRetries+1, lastErr)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned status code %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
