package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-ocean/reefwatch/internal/assess"
	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/jurisdiction"
	"github.com/opensource-ocean/reefwatch/internal/rank"
	"github.com/opensource-ocean/reefwatch/internal/rules"
	"github.com/opensource-ocean/reefwatch/internal/snapshot"
	"github.com/opensource-ocean/reefwatch/internal/timeline"
	"github.com/opensource-ocean/reefwatch/internal/worker"
)

// rankingCacheTTL bounds how long a memoized ranking can serve. Keys
// embed the snapshot generation, so stale entries simply stop being
// requested after a reload.
const rankingCacheTTL = 10 * time.Minute

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	holder    *snapshot.Holder
	engine    *rules.Engine
	processor *assess.Processor
	history   domain.HistoryProvider
	alerts    *worker.Worker
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, holder *snapshot.Holder, engine *rules.Engine, processor *assess.Processor, history domain.HistoryProvider, alerts *worker.Worker, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		holder:    holder,
		engine:    engine,
		processor: processor,
		history:   history,
		alerts:    alerts,
		version:   version,
	}
}

// RankingRowView is a ranking row with presentation-rounded percentages.
type RankingRowView struct {
	domain.RankingRow
	TrackedPct    int `json:"trackedPct"`
	AuthorizedPct int `json:"authorizedPct"`
}

// RankingsResponse is the response for GET /rankings.
type RankingsResponse struct {
	Generation uint64           `json:"generation"`
	Count      int              `json:"count"`
	Rows       []RankingRowView `json:"rows"`
}

// Rankings handles GET /rankings.
func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap := h.holder.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "snapshot not loaded",
		})
		return
	}

	q, err := parseRankQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	// Memoize on (generation, canonical query string). Encode sorts
	// keys, so equivalent requests share an entry.
	cacheKey := fmt.Sprintf("%d:%s", snap.Generation, r.URL.Query().Encode())

	var rows []domain.RankingRow
	if h.cache != nil {
		if cached, err := h.cache.GetRankings(ctx, cacheKey); err == nil && cached != nil {
			rows = cached
		}
	}

	if rows == nil {
		rows, err = rank.Rank(snap.Store, snap.Statuses, q)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, rank.ErrInvalidFilterRange) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]string{
				"error": err.Error(),
			})
			return
		}

		if h.cache != nil {
			if err := h.cache.SetRankings(ctx, cacheKey, rows, rankingCacheTTL); err != nil {
				slog.Warn("failed to cache rankings", "error", err)
			}
		}
	}

	views := make([]RankingRowView, len(rows))
	for i, row := range rows {
		views[i] = RankingRowView{
			RankingRow:    row,
			TrackedPct:    int(math.Round(row.TrackedRatio * 100)),
			AuthorizedPct: int(math.Round(row.AuthorizedRatio * 100)),
		}
	}

	writeJSON(w, http.StatusOK, RankingsResponse{
		Generation: snap.Generation,
		Count:      len(views),
		Rows:       views,
	})
}

// parseRankQuery builds a rank.Query from URL parameters, starting from
// the unrestricted default.
func parseRankQuery(values url.Values) (rank.Query, error) {
	q := rank.DefaultQuery()

	if v := values.Get("year_from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid year_from: %s", v)
		}
		q.YearFrom = n
	}
	if v := values.Get("year_to"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid year_to: %s", v)
		}
		q.YearTo = n
	}
	if v := values.Get("min_nm"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, fmt.Errorf("invalid min_nm: %s", v)
		}
		q.MinNM = f
	}
	if v := values.Get("max_nm"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, fmt.Errorf("invalid max_nm: %s", v)
		}
		q.MaxNM = f
	}
	if v := values.Get("min_meetings"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid min_meetings: %s", v)
		}
		q.MinMeetings = n
	}
	if v := values.Get("view"); v != "" {
		q.View = domain.ViewKind(v)
	}

	sel, err := parseJurisdiction(values.Get("jurisdiction"))
	if err != nil {
		return q, err
	}
	q.Jurisdiction = sel

	return q, nil
}

// parseJurisdiction maps the jurisdiction parameter to a selector. An
// unrecognized value is treated as a single ISO-3166 alpha-3 flag code.
func parseJurisdiction(v string) (jurisdiction.Selector, error) {
	switch strings.ToLower(v) {
	case "", "any":
		return jurisdiction.Any(), nil
	case "nato", "alliance-nato":
		return jurisdiction.Selector{Kind: jurisdiction.KindNATO}, nil
	case "five-eyes", "alliance-five-eyes":
		return jurisdiction.Selector{Kind: jurisdiction.KindFiveEyes}, nil
	}
	code := strings.ToUpper(v)
	if len(code) != 3 {
		return jurisdiction.Selector{}, fmt.Errorf("invalid jurisdiction: %s", v)
	}
	return jurisdiction.Selector{Kind: jurisdiction.KindCountry, Country: code}, nil
}

// ScoreBucketsResponse is the response for GET /score-buckets.
type ScoreBucketsResponse struct {
	Generation uint64                          `json:"generation"`
	Buckets    domain.ScoreBuckets             `json:"buckets"`
	Scores     map[string]domain.SuspicionScore `json:"scores"`
}

// ScoreBuckets handles GET /score-buckets.
func (h *Handler) ScoreBuckets(w http.ResponseWriter, r *http.Request) {
	snap := h.holder.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "snapshot not loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, ScoreBucketsResponse{
		Generation: snap.Generation,
		Buckets:    snap.Buckets,
		Scores:     snap.Scores,
	})
}

// TimelineResponse is the response for GET /vessels/{mmsi}/timeline.
type TimelineResponse struct {
	VesselMMSI string                 `json:"vesselMmsi"`
	Count      int                    `json:"count"`
	Events     []domain.TimelineEvent `json:"events"`
}

// Timeline handles GET /vessels/{mmsi}/timeline. An unknown vessel
// yields an empty timeline, not an error.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	mmsi := chi.URLParam(r, "mmsi")

	snap := h.holder.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "snapshot not loaded",
		})
		return
	}

	events := timeline.Build(snap.Store, mmsi)
	writeJSON(w, http.StatusOK, TimelineResponse{
		VesselMMSI: mmsi,
		Count:      len(events),
		Events:     events,
	})
}

// Summary handles GET /vessels/{mmsi}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	mmsi := chi.URLParam(r, "mmsi")

	snap := h.holder.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "snapshot not loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, timeline.Summarize(snap.Store, mmsi))
}

// ExportEvents handles GET /vessels/{mmsi}/events.csv. The export
// carries the raw event rows, not the deduplicated meetings.
func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	mmsi := chi.URLParam(r, "mmsi")

	snap := h.holder.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "snapshot not loaded",
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vessel-%s-events.csv"`, mmsi))

	if err := timeline.ExportCSV(snap.Full, mmsi, w); err != nil {
		slog.Error("csv export failed", "vessel_mmsi", mmsi, "error", err)
	}
}

// TrackResponse is the response for GET /vessels/{mmsi}/track.
type TrackResponse struct {
	VesselMMSI string               `json:"vesselMmsi"`
	Available  bool                 `json:"available"`
	WindowDays int                  `json:"windowDays"`
	Positions  []domain.PositionFix `json:"positions"`
}

// Track handles GET /vessels/{mmsi}/track. When the external history
// service fails, the response degrades to available=false instead of
// surfacing a raw fault.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mmsi := chi.URLParam(r, "mmsi")

	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "history service not configured",
		})
		return
	}

	windowDays := 30
	if v := r.URL.Query().Get("window_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid window_days",
			})
			return
		}
		windowDays = n
	}

	positions, err := h.history.FetchHistory(ctx, mmsi, windowDays)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryUnavailable) {
			writeJSON(w, http.StatusOK, TrackResponse{
				VesselMMSI: mmsi,
				Available:  false,
				WindowDays: windowDays,
				Positions:  []domain.PositionFix{},
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, TrackResponse{
		VesselMMSI: mmsi,
		Available:  true,
		WindowDays: windowDays,
		Positions:  positions,
	})
}

// Alerts handles GET /alerts, serving the latest completed sweep.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "alert worker not running",
		})
		return
	}

	alerts, generation := h.alerts.Alerts()
	if alerts == nil {
		alerts = []*domain.Assessment{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": generation,
		"count":      len(alerts),
		"alerts":     alerts,
	})
}

// ReloadSnapshot handles POST /snapshot/reload.
func (h *Handler) ReloadSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.holder.Reload(r.Context())
	if err != nil {
		slog.Error("snapshot reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "snapshot reload failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generation": snap.Generation,
		"events":     snap.Store.Len(),
		"vessels":    len(snap.Scores),
		"loadedAt":   snap.LoadedAt,
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to serve analytics. Ready
// means at least one snapshot has loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.holder.Current() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListRules returns all loaded rules from the engine.
// Rules are loaded from the database at startup and can be reloaded via POST /rules/reload.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loadedRules := h.engine.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": loadedRules,
		"count": len(loadedRules),
	})
}

// GetRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	if ruleID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "rule id is required",
		})
		return
	}

	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "rule not found",
	})
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Expression  string            `json:"expression"`
	Bands       []domain.RuleBand `json:"bands"`
	Weight      float64           `json:"weight"`
	Enabled     bool              `json:"enabled"`
}

// CreateRule creates a new rule and saves it to the database.
// After saving, call POST /rules/reload to hot-reload into the engine.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Validate
	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	rule := &domain.AlertRule{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Bands:       req.Bands,
		Weight:      req.Weight,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.engine.LoadRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	// Persist to repository
	if h.repo != nil {
		if err := h.repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Error("failed to save alert rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /rules/reload to apply changes.",
	})
}

// ReloadRules reloads all rules from the database into the engine.
// This enables hot-reloading without server restart.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListAlertRules(ctx)
	if err != nil {
		slog.Error("failed to list rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	if err := h.engine.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("rules reloaded from database", "count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
