// Package metadata fetches game metadata from an external catalog provider.
// Lookups go through the cached, deduplicating API client behind a circuit
// breaker; a provider outage degrades to empty enrichment rather than errors.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gamevault/gamevault/pkg/apiclient"
)

// GameMetadata is the enrichment payload returned by the provider.
type GameMetadata struct {
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Tags        []string `json:"tags"`
	Screenshots []string `json:"screenshots"`
	Website     string   `json:"website"`
	Metacritic  int      `json:"metacritic"`
}

// Client looks up game metadata from the external provider.
type Client struct {
	api    *apiclient.CircuitBreakerClient
	logger *slog.Logger
}

// Config holds the provider connection settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewClient creates a metadata client. Successful GET responses are cached so
// repeated lookups of popular games do not hit the provider.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	apiCfg := apiclient.DefaultConfig(cfg.BaseURL)
	apiCfg.Cache = true
	if cfg.Timeout > 0 {
		apiCfg.Timeout = cfg.Timeout
	}
	if cfg.CacheTTL > 0 {
		apiCfg.CacheTTL = cfg.CacheTTL
	}
	apiCfg.Headers = map[string]string{"X-Api-Key": cfg.APIKey}

	inner := apiclient.New(apiCfg)
	inner.Subscribe(func(event, method, reqURL string) {
		logger.Debug("metadata provider call",
			slog.String("event", event),
			slog.String("method", method),
			slog.String("url", reqURL),
		)
	})

	cb := apiclient.NewCircuitBreakerClient(inner,
		apiclient.DefaultCircuitBreakerConfig("metadata-provider"), logger)

	return &Client{api: cb, logger: logger}
}

// Lookup fetches metadata for a game title. A provider failure or open
// breaker returns nil metadata without an error; enrichment is optional.
func (c *Client) Lookup(ctx context.Context, title string) (*GameMetadata, error) {
	path := "/games?search=" + url.QueryEscape(title)

	resp, err := c.api.Get(ctx, path, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "metadata lookup unavailable",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	var payload struct {
		Results []GameMetadata `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}

// Get fetches metadata by the provider's own ID. Unlike Lookup, a failure
// here surfaces as an error since the caller asked for a specific record.
func (c *Client) Get(ctx context.Context, externalID string) (*GameMetadata, error) {
	resp, err := c.api.Get(ctx, "/games/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata %s: %w", externalID, err)
	}

	var meta GameMetadata
	if err := json.Unmarshal(resp.Body, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}
	return &meta, nil
}
