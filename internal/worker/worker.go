// Package worker provides async alert evaluation driven by snapshot
// reloads.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/assess"
	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/rank"
	"github.com/opensource-ocean/reefwatch/internal/rules"
	"github.com/opensource-ocean/reefwatch/internal/snapshot"
)

// Worker re-evaluates the alert rules over the full ranking whenever a
// new snapshot generation is announced, and retains the alerts from the
// latest completed sweep for the query interface.
type Worker struct {
	bus       domain.EventBus
	holder    *snapshot.Holder
	engine    *rules.Engine
	processor *assess.Processor

	mu         sync.RWMutex
	alerts     []*domain.Assessment
	generation uint64

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new alert worker.
func NewWorker(bus domain.EventBus, holder *snapshot.Holder, engine *rules.Engine, processor *assess.Processor) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		holder:    holder,
		engine:    engine,
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes to snapshot reload announcements.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicSnapshotReloaded, w.handleReload)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("alert worker started",
		"topic", domain.TopicSnapshotReloaded,
	)

	return nil
}

// handleReload runs an alert sweep over the snapshot generation named in
// the message.
func (w *Worker) handleReload(ctx context.Context, msg *domain.Message) error {
	var evt snapshot.ReloadedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		slog.Error("failed to parse reload message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	return w.Sweep(ctx, evt.Generation)
}

// Sweep evaluates all alert rules against every vessel in the current
// snapshot's default ranking and swaps the retained alert list.
func (w *Worker) Sweep(ctx context.Context, generation uint64) error {
	start := time.Now()

	snap := w.holder.Current()
	if snap == nil {
		slog.Warn("alert sweep skipped, no snapshot loaded")
		return nil
	}
	if snap.Generation < generation {
		// A newer announcement exists but the holder has not caught up;
		// evaluate what we have, the newer sweep follows.
		slog.Debug("sweeping older generation",
			"announced", generation,
			"loaded", snap.Generation,
		)
	}

	rows, err := rank.Rank(snap.Store, snap.Statuses, rank.DefaultQuery())
	if err != nil {
		slog.Error("alert sweep ranking failed", "error", err)
		return err
	}

	var alerts []*domain.Assessment
	for _, row := range rows {
		input := &rules.EvaluateInput{
			Row:   row,
			Score: snap.Scores[row.VesselMMSI],
		}

		results, err := w.engine.EvaluateAll(ctx, input)
		if err != nil {
			slog.Error("rule evaluation failed",
				"vessel_mmsi", row.VesselMMSI,
				"error", err,
			)
			continue
		}
		if len(results) == 0 {
			continue
		}

		assessment := w.processor.Process(ctx, &assess.DecisionInput{
			VesselMMSI:  row.VesselMMSI,
			RuleResults: results,
			StartTime:   start,
		})

		if assess.ShouldAlert(assessment) {
			alerts = append(alerts, assessment)

			payload, _ := json.Marshal(assessment)
			if err := w.bus.Publish(ctx, domain.TopicVesselAlert, payload); err != nil {
				slog.Error("failed to publish alert",
					"vessel_mmsi", row.VesselMMSI,
					"error", err,
				)
			}
		}
	}

	w.mu.Lock()
	w.alerts = alerts
	w.generation = snap.Generation
	w.mu.Unlock()

	slog.Info("alert sweep completed",
		"generation", snap.Generation,
		"vessels", len(rows),
		"alerts", len(alerts),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Alerts returns the alerts from the latest completed sweep and the
// generation they were computed against.
func (w *Worker) Alerts() ([]*domain.Assessment, uint64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.alerts, w.generation
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("alert worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	AlertCount        int      `json:"alertCount"`
	Generation        uint64   `json:"generation"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		AlertCount:        len(w.alerts),
		Generation:        w.generation,
	}
}
