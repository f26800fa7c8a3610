// Package snapshot owns the current in-memory analytic snapshot: the
// qualifying event store, the live status table and the precomputed
// suspicion scores. Analytic requests read an immutable snapshot; a
// reload swaps in a fresh one atomically, so requests never observe
// partial state and need no locking of their own.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/rank"
	"github.com/opensource-ocean/reefwatch/internal/score"
	"github.com/opensource-ocean/reefwatch/internal/store"
)

// Snapshot is one immutable view of the analytic state.
type Snapshot struct {
	// Store holds only qualifying vessels (>= min lifetime meetings).
	Store *store.EventStore

	// Full holds every loaded row, for lifetime statistics.
	Full *store.EventStore

	// Statuses is the status table reduced to one row per vessel.
	Statuses map[string]*domain.VesselStatus

	Scores  map[string]domain.SuspicionScore
	Buckets domain.ScoreBuckets

	Generation uint64
	LoadedAt   time.Time
}

// ReloadedEvent is the payload published on TopicSnapshotReloaded.
type ReloadedEvent struct {
	Generation uint64 `json:"generation"`
	Events     int    `json:"events"`
	Vessels    int    `json:"vessels"`
}

// Holder loads snapshots from the repository and hands out the current
// one.
type Holder struct {
	mu   sync.RWMutex
	cur  *Snapshot
	gen  uint64
	repo domain.Repository
	bus  domain.EventBus
	cfg  domain.AnalyticsConfig
}

// NewHolder creates a holder; call Reload before serving requests.
func NewHolder(repo domain.Repository, bus domain.EventBus, cfg domain.AnalyticsConfig) *Holder {
	return &Holder{
		repo: repo,
		bus:  bus,
		cfg:  cfg,
	}
}

// Current returns the latest snapshot, or nil before the first load.
func (h *Holder) Current() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cur
}

// Reload re-reads the input tables, rebuilds the qualifying store and
// scores, swaps the snapshot in and announces the new generation on the
// bus.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	records, err := h.repo.ListEncounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load encounters: %w", err)
	}
	visits, err := h.repo.ListPortVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load port visits: %w", err)
	}
	statusRows, err := h.repo.ListVesselStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vessel statuses: %w", err)
	}

	var encounters, loiterings []domain.EncounterRecord
	for _, r := range records {
		if r.Type == domain.EventLoitering {
			loiterings = append(loiterings, *r)
		} else {
			encounters = append(encounters, *r)
		}
	}

	var visitVals []domain.PortVisitRecord
	for _, v := range visits {
		visitVals = append(visitVals, *v)
	}

	full := store.Load(encounters, loiterings, visitVals)
	qualifying := full.Qualifying(h.cfg.MinLifetimeMeetings)

	scores := score.ScoreStore(qualifying)
	buckets := score.Buckets(scores, h.cfg.MediumPercentile, h.cfg.HighPercentile)

	h.mu.Lock()
	h.gen++
	snap := &Snapshot{
		Store:      qualifying,
		Full:       full,
		Statuses:   rank.LatestStatuses(statusRows),
		Scores:     scores,
		Buckets:    buckets,
		Generation: h.gen,
		LoadedAt:   time.Now().UTC(),
	}
	h.cur = snap
	h.mu.Unlock()

	slog.Info("snapshot reloaded",
		"generation", snap.Generation,
		"events", qualifying.Len(),
		"vessels", len(scores),
	)

	if h.bus != nil {
		payload, _ := json.Marshal(ReloadedEvent{
			Generation: snap.Generation,
			Events:     qualifying.Len(),
			Vessels:    len(scores),
		})
		if err := h.bus.Publish(ctx, domain.TopicSnapshotReloaded, payload); err != nil {
			slog.Warn("failed to publish snapshot reload", "error", err)
		}
	}

	return snap, nil
}
