package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/opsmesh/logging"
)

// Endpoint is one configured agent address prior to discovery.
type Endpoint struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// DiscoveryOptions configures the DiscoveryClient.
type DiscoveryOptions struct {
	// HTTPClient used for metadata fetches.
	HTTPClient *http.Client
	// Timeout bounds a single card fetch.
	Timeout time.Duration
	// Logger for discovery progress and skipped endpoints.
	Logger logging.Logger
}

// DiscoveryClient fetches agent cards from configured endpoints. Discovery is
// partial-failure tolerant: an unreachable peer is logged and omitted, it
// never fails the whole process.
type DiscoveryClient struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     logging.Logger
}

// NewDiscoveryClient constructs a DiscoveryClient with optional overrides.
func NewDiscoveryClient(optFns ...func(o *DiscoveryOptions)) *DiscoveryClient {
	opts := DiscoveryOptions{
		HTTPClient: http.DefaultClient,
		Timeout:    10 * time.Second,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &DiscoveryClient{httpClient: opts.HTTPClient, timeout: opts.Timeout, logger: opts.Logger}
}

// FetchCard retrieves the agent card served at baseURL's well-known path.
func (d *DiscoveryClient) FetchCard(ctx context.Context, baseURL string) (*AgentCard, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + WellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build card request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card from %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch card from %s: unexpected status %d", url, resp.StatusCode)
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode card from %s: %w", url, err)
	}

	if card.URL == "" {
		card.URL = baseURL
	}

	return &card, nil
}

// Discover fetches cards for all configured endpoints and returns the
// registry of reachable agents. Unreachable endpoints are logged and skipped.
// The card's own name takes precedence over the configured endpoint name.
func (d *DiscoveryClient) Discover(ctx context.Context, endpoints []Endpoint) *Registry {
	cards := make([]AgentCard, 0, len(endpoints))

	for _, ep := range endpoints {
		card, err := d.FetchCard(ctx, ep.URL)
		if err != nil {
			d.logger.Warn("agent discovery failed, skipping endpoint", "agent", ep.Name, "url", ep.URL, "error", err)
			continue
		}
		if card.Name == "" {
			card.Name = ep.Name
		}
		d.logger.Info("discovered agent", "agent", card.Name, "url", card.URL, "skills", len(card.Skills))
		cards = append(cards, *card)
	}

	return NewRegistry(cards...)
}
