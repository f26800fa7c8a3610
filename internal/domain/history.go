package domain

import (
	"context"
	"errors"
	"time"
)

// ErrHistoryUnavailable signals that the external vessel-history service
// failed or timed out. Callers recover locally and render the rest of
// the page; the error never propagates as a raw fault.
var ErrHistoryUnavailable = errors.New("vessel history unavailable")

// PositionFix is one timestamped position from the vessel-history service.
type PositionFix struct {
	Timestamp time.Time `json:"timestamp"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
}

// HistoryProvider is the narrow interface over the third-party
// vessel-history HTTP service. Implementations must apply an explicit
// timeout and return ErrHistoryUnavailable on any transport failure.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, vesselID string, windowDays int) ([]PositionFix, error)
}

// HistoryConfig holds vessel-history client settings.
type HistoryConfig struct {
	BaseURL       string
	TimeoutSecs   int
	MaxWindowDays int
}
