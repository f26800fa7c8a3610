// Package history implements the client for the external vessel-history
// position service.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/sony/gobreaker/v2"
)

// Client fetches position tracks from the vessel-history service. A
// circuit breaker shields the service once it starts failing; every
// failure mode surfaces as domain.ErrHistoryUnavailable so callers can
// degrade gracefully instead of propagating transport faults.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[[]domain.PositionFix]
	maxWindowDays int
}

// NewClient creates a history client from configuration.
func NewClient(cfg domain.HistoryConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxWindow := cfg.MaxWindowDays
	if maxWindow <= 0 {
		maxWindow = 365
	}

	settings := gobreaker.Settings{
		Name:    "vessel-history",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("history breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: timeout},
		breaker:       gobreaker.NewCircuitBreaker[[]domain.PositionFix](settings),
		maxWindowDays: maxWindow,
	}
}

// FetchHistory retrieves the position track for a vessel over the given
// trailing window.
func (c *Client) FetchHistory(ctx context.Context, vesselID string, windowDays int) ([]domain.PositionFix, error) {
	if vesselID == "" {
		return nil, fmt.Errorf("vessel id is required")
	}
	if windowDays <= 0 || windowDays > c.maxWindowDays {
		windowDays = c.maxWindowDays
	}

	fixes, err := c.breaker.Execute(func() ([]domain.PositionFix, error) {
		return c.fetch(ctx, vesselID, windowDays)
	})
	if err != nil {
		slog.Warn("vessel history fetch failed",
			"vessel_id", vesselID,
			"window_days", windowDays,
			"error", err,
		)
		return nil, domain.ErrHistoryUnavailable
	}

	return fixes, nil
}

func (c *Client) fetch(ctx context.Context, vesselID string, windowDays int) ([]domain.PositionFix, error) {
	endpoint := fmt.Sprintf("%s/v1/vessels/%s/positions?window_days=%d",
		c.baseURL, url.PathEscape(vesselID), windowDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Positions []domain.PositionFix `json:"positions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return body.Positions, nil
}
