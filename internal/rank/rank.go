// Package rank joins vessel identity, aggregated meeting statistics and
// live status into one ranked table, parameterized per request.
package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/jurisdiction"
	"github.com/opensource-ocean/reefwatch/internal/store"
)

// ErrInvalidFilterRange rejects malformed year or distance ranges before
// any aggregation runs. Ranges are never silently clamped.
var ErrInvalidFilterRange = errors.New("invalid filter range")

// NoDistanceCap disables the upper distance bound.
const NoDistanceCap = math.MaxFloat64

// Query holds the ranking parameters. Callers re-invoke Rank with a new
// Query whenever their filter state changes; there is no hidden reactive
// graph.
type Query struct {
	// Year range, inclusive, calendar-year granularity on event start.
	YearFrom int `json:"yearFrom"`
	YearTo   int `json:"yearTo"`

	// Distance band in nautical miles.
	MinNM float64 `json:"minNm"`
	MaxNM float64 `json:"maxNm"`

	// Rows with fewer total meetings are dropped.
	MinMeetings int `json:"minMeetings"`

	Jurisdiction jurisdiction.Selector `json:"jurisdiction"`
	View         domain.ViewKind       `json:"view"`
}

// DefaultQuery is the unrestricted ranking over the full snapshot.
func DefaultQuery() Query {
	return Query{
		YearFrom:     0,
		YearTo:       9999,
		MinNM:        0,
		MaxNM:        NoDistanceCap,
		MinMeetings:  0,
		Jurisdiction: jurisdiction.Any(),
		View:         domain.ViewFlag,
	}
}

// Validate rejects malformed parameters.
func (q Query) Validate() error {
	if q.YearFrom > q.YearTo {
		return fmt.Errorf("%w: year_from %d > year_to %d", ErrInvalidFilterRange, q.YearFrom, q.YearTo)
	}
	if q.MinNM < 0 || q.MaxNM < 0 || q.MinNM > q.MaxNM {
		return fmt.Errorf("%w: distance band [%g, %g] nm", ErrInvalidFilterRange, q.MinNM, q.MaxNM)
	}
	if q.MinMeetings < 0 {
		return fmt.Errorf("%w: min_meetings %d", ErrInvalidFilterRange, q.MinMeetings)
	}
	switch q.View {
	case domain.ViewFlag, domain.ViewEEZ, domain.ViewPort:
	default:
		return fmt.Errorf("%w: view %q", ErrInvalidFilterRange, q.View)
	}
	return nil
}

// LatestStatuses reduces a status table to one row per vessel, resolving
// conflicts by preferring the latest transmission time.
func LatestStatuses(statuses []*domain.VesselStatus) map[string]*domain.VesselStatus {
	latest := make(map[string]*domain.VesselStatus, len(statuses))
	for _, st := range statuses {
		cur, ok := latest[st.MMSI]
		if !ok || st.LastTransmission.After(cur.LastTransmission) {
			latest[st.MMSI] = st
		}
	}
	return latest
}

// Rank computes the ordered ranking table for one query. The result is
// sorted descending by total meeting count with ties keeping the
// snapshot's canonical vessel order, so identical inputs always produce
// identical output.
func Rank(s *store.EventStore, statuses map[string]*domain.VesselStatus, q Query) ([]domain.RankingRow, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	events := s.Events(
		store.ByYearRange(q.YearFrom, q.YearTo),
		store.ByDistanceBandNM(q.MinNM, q.MaxNM),
	)

	rows := aggregate(events, statuses)

	rows, err := applyJurisdiction(rows, s, q)
	if err != nil {
		return nil, err
	}

	filtered := rows[:0]
	for _, r := range rows {
		if r.TotalMeetings >= q.MinMeetings {
			filtered = append(filtered, r)
		}
	}
	rows = filtered

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalMeetings > rows[j].TotalMeetings
	})
	return rows, nil
}

// aggregate computes per-vessel meeting statistics in canonical vessel
// order and joins the live status.
func aggregate(events []domain.EncounterRecord, statuses map[string]*domain.VesselStatus) []domain.RankingRow {
	meetings := store.DistinctMeetings(events)

	order := make([]string, 0)
	byVessel := make(map[string][]store.Meeting)
	for _, m := range meetings {
		if _, ok := byVessel[m.VesselMMSI]; !ok {
			order = append(order, m.VesselMMSI)
		}
		byVessel[m.VesselMMSI] = append(byVessel[m.VesselMMSI], m)
	}

	rows := make([]domain.RankingRow, 0, len(order))
	for _, mmsi := range order {
		ms := byVessel[mmsi]

		row := domain.RankingRow{
			VesselMMSI: mmsi,
			VesselName: ms[0].VesselName,
			VesselFlag: ms[0].VesselFlag,
		}

		distances := make([]float64, 0, len(ms))
		authorized := 0
		for _, m := range ms {
			if m.Tracked {
				row.TrackedCount++
			} else {
				row.DarkCount++
			}
			if m.Authorization == domain.AuthAuthorized {
				authorized++
			}
			distances = append(distances, m.DistanceFromShoreNM())
		}
		row.TotalMeetings = row.TrackedCount + row.DarkCount

		// Zero-total rows cannot occur here (a vessel appears only via
		// its meetings) but the guard keeps the ratios defined.
		if row.TotalMeetings > 0 {
			row.TrackedRatio = float64(row.TrackedCount) / float64(row.TotalMeetings)
			row.AuthorizedRatio = float64(authorized) / float64(row.TotalMeetings)
		}
		row.MedianDistanceNM = Median(distances)

		if st, ok := statuses[mmsi]; ok {
			row.Status = st
			if st.Flag != "" {
				row.VesselFlag = st.Flag
			}
			if st.Name != "" {
				row.VesselName = st.Name
			}
		}

		rows = append(rows, row)
	}
	return rows
}

func applyJurisdiction(rows []domain.RankingRow, s *store.EventStore, q Query) ([]domain.RankingRow, error) {
	if q.View == domain.ViewPort {
		moored := rows[:0]
		for _, r := range rows {
			if r.Status != nil && r.Status.NavigationStatus == domain.NavStatusMoored {
				moored = append(moored, r)
			}
		}
		rows = moored
	}

	// "any" imposes no restriction at all, so vessels with unknown
	// flags or no live status survive it.
	if q.Jurisdiction.Kind == jurisdiction.KindAny {
		return rows, nil
	}

	codes, err := jurisdiction.Resolve(q.Jurisdiction, s.FlagUniverse())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilterRange, err)
	}

	switch q.View {
	case domain.ViewFlag:
		return jurisdiction.FilterByFlag(rows, codes), nil
	case domain.ViewEEZ, domain.ViewPort:
		return jurisdiction.FilterByEEZ(rows, codes), nil
	}
	return rows, nil
}

// Median returns the median of values, 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	vs := make([]float64, len(values))
	copy(vs, values)
	sort.Float64s(vs)
	mid := len(vs) / 2
	if len(vs)%2 == 1 {
		return vs[mid]
	}
	return (vs[mid-1] + vs[mid]) / 2
}
