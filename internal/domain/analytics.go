package domain

import (
	"time"
)

// SuspicionScore is the derived per-vessel meeting count and percentile
// rank. Percentile is the fraction of vessels with a meeting count at or
// below this vessel's count (tie-inclusive).
type SuspicionScore struct {
	VesselMMSI   string  `json:"vesselMmsi"`
	MeetingCount int     `json:"meetingCount"`
	Percentile   float64 `json:"percentile"`
}

// ScoreBuckets groups vessel ids by suspicion percentile. Low contains
// every scored vessel, Medium those at or above the medium threshold,
// High those at or above the high threshold, so High ⊆ Medium ⊆ Low.
type ScoreBuckets struct {
	Low    []string `json:"low"`
	Medium []string `json:"medium"`
	High   []string `json:"high"`
}

// ViewKind selects which jurisdiction test a ranking applies.
type ViewKind string

const (
	// ViewFlag filters by flag-state jurisdiction.
	ViewFlag ViewKind = "flag"

	// ViewEEZ filters by the EEZ the vessel currently sits within.
	ViewEEZ ViewKind = "eez"

	// ViewPort filters like ViewEEZ but additionally requires the vessel
	// to be moored.
	ViewPort ViewKind = "port"
)

// RankingRow is one row of the ranked vessel table: identity joined with
// aggregated meeting statistics and the live status snapshot. Ratio
// fields are raw fractions in [0,1]; rounding to whole percentages is a
// presentation concern.
type RankingRow struct {
	VesselMMSI string `json:"vesselMmsi"`
	VesselName string `json:"vesselName"`
	VesselFlag string `json:"vesselFlag"`

	TrackedCount  int `json:"trackedCount"`
	DarkCount     int `json:"darkCount"`
	TotalMeetings int `json:"totalMeetings"`

	TrackedRatio    float64 `json:"trackedRatio"`
	AuthorizedRatio float64 `json:"authorizedRatio"`

	MedianDistanceNM float64 `json:"medianDistanceNm"`

	Status *VesselStatus `json:"status,omitempty"`
}

// TimelineKind tags the variant of a timeline event.
type TimelineKind string

const (
	TimelineTrackedMeeting TimelineKind = "meeting_tracked"
	TimelineDarkMeeting    TimelineKind = "meeting_dark"
	TimelinePortVisit      TimelineKind = "port_visit"
)

// TimelineEvent is one entry of a vessel's chronological history: either
// a meeting (tracked or dark) or a port visit, with a rendered
// natural-language description and duration phrase.
type TimelineEvent struct {
	Kind  TimelineKind `json:"kind"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`

	Description string `json:"description"`
	Duration    string `json:"duration"`

	// DistanceFromShoreNM is set for meetings only.
	DistanceFromShoreNM *float64 `json:"distanceFromShoreNm,omitempty"`
}

// DescriptiveSummary aggregates one vessel's meeting history into its
// most frequent identity attributes and median operating distance.
type DescriptiveSummary struct {
	VesselMMSI              string  `json:"vesselMmsi"`
	ModalName               string  `json:"modalName"`
	ModalFlag               string  `json:"modalFlag"`
	ModalDestinationCountry string  `json:"modalDestinationCountry"`
	MedianDistanceNM        float64 `json:"medianDistanceNm"`
	MeetingCount            int     `json:"meetingCount"`
}
