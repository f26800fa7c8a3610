package domain

import (
	"time"
)

// EventType distinguishes tracked encounters from dark loitering events.
type EventType string

const (
	// EventEncounter is a meeting where the cooperating vessel's
	// transponder was active and identifiable.
	EventEncounter EventType = "encounter"

	// EventLoitering is a meeting with no observed cooperating vessel
	// identity (a "dark" meeting).
	EventLoitering EventType = "loitering"
)

// AuthorizationStatus describes whether a meeting was authorized by the
// relevant regional fisheries body.
type AuthorizationStatus string

const (
	AuthAuthorized   AuthorizationStatus = "authorized"
	AuthUnauthorized AuthorizationStatus = "unauthorized"
	AuthUnknown      AuthorizationStatus = "unknown"
)

// MetersPerNauticalMile converts between the storage unit (meters) and
// the query unit (nautical miles).
const MetersPerNauticalMile = 1852.0

// EncounterRecord is one row of the encounter or loitering table.
// A single physical meeting may appear as a mirrored encounter/loitering
// pair sharing the same ID; identity is always the ID, never the row.
// Records are immutable once loaded.
type EncounterRecord struct {
	ID         string `json:"id"`
	VesselMMSI string `json:"vesselMmsi"`
	VesselName string `json:"vesselName"`
	VesselFlag string `json:"vesselFlag"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Type EventType `json:"type"`

	// DistanceFromShoreM is the distance from shore in meters, >= 0.
	DistanceFromShoreM float64 `json:"distanceFromShoreM"`

	// Cooperating vessel identity (empty for loitering events).
	OtherVesselName              string `json:"otherVesselName,omitempty"`
	OtherVesselFlag              string `json:"otherVesselFlag,omitempty"`
	OtherVesselOriginPortCountry string `json:"otherVesselOriginPortCountry,omitempty"`

	Authorization AuthorizationStatus `json:"authorization"`

	DestinationPortName    string `json:"destinationPortName,omitempty"`
	DestinationPortCountry string `json:"destinationPortCountry,omitempty"`

	// RegionMemberships holds RFMO codes the meeting position falls under.
	RegionMemberships []string `json:"regionMemberships,omitempty"`
}

// DistanceFromShoreNM returns the distance from shore in nautical miles.
func (r *EncounterRecord) DistanceFromShoreNM() float64 {
	return r.DistanceFromShoreM / MetersPerNauticalMile
}

// PortVisitRecord is one row of the port-visit table. Immutable once loaded.
type PortVisitRecord struct {
	VesselMMSI  string    `json:"vesselMmsi"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PortName    string    `json:"portName"`
	PortCountry string    `json:"portCountry"`
}

// VesselStatus is the current-location snapshot for one vessel, refreshed
// by the external ETL collaborator and consumed read-only.
type VesselStatus struct {
	MMSI             string    `json:"mmsi"`
	Name             string    `json:"name"`
	Flag             string    `json:"flag"`
	Longitude        float64   `json:"longitude"`
	Latitude         float64   `json:"latitude"`
	NavigationStatus string    `json:"navigationStatus"`
	Destination      string    `json:"destination"`
	EEZ              string    `json:"eez,omitempty"`
	LastTransmission time.Time `json:"lastTransmission"`
}

// NavStatusMoored is the navigation status reported by vessels at berth.
const NavStatusMoored = "moored"
