package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dex-swap/pkg/logging"
)

var log = logging.New("market")

// tokenListResponse is the subset of the Uniswap token list format we read
type tokenListResponse struct {
	Name   string `json:"name"`
	Tokens []struct {
		ChainID  int64  `json:"chainId"`
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Decimals int    `json:"decimals"`
	} `json:"tokens"`
}

// TokenListLoader fetches remote token metadata
type TokenListLoader struct {
	httpClient *http.Client
	chainID    int64
}

// NewTokenListLoader creates a loader that keeps tokens for chainID (0 keeps all)
func NewTokenListLoader(chainID int64) *TokenListLoader {
	return &TokenListLoader{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		chainID:    chainID,
	}
}

// Fetch downloads and decodes a token list
func (l *TokenListLoader) Fetch(ctx context.Context, url string) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build token list request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}

	var list tokenListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}

	tokens := make([]Token, 0, len(list.Tokens))
	for _, t := range list.Tokens {
		if l.chainID != 0 && t.ChainID != l.chainID {
			continue
		}
		tokens = append(tokens, Token{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  t.Address,
			Decimals: t.Decimals,
		})
	}
	return tokens, nil
}

// LoadRegistry builds a registry from the default tokens and overlays the remote
// list when url is set. A failed fetch is logged and the defaults are returned.
func (l *TokenListLoader) LoadRegistry(ctx context.Context, url string) *Registry {
	registry := DefaultRegistry()
	if url == "" {
		return registry
	}

	tokens, err := l.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Token list unavailable, using built-in tokens")
		return registry
	}

	merged := registry.Merge(tokens)
	log.Debug().Str("url", url).Int("merged", merged).Msg("Token list loaded")
	return registry
}

// LoadTokenList overlays the token list at url on the built-in tokens for any chain
func LoadTokenList(ctx context.Context, url string) *Registry {
	return NewTokenListLoader(0).LoadRegistry(ctx, url)
}
