package repository

// Schema definitions for the Reefwatch input tables.
// Compatible with both SQLite and PostgreSQL.

const schemaEncounters = `
CREATE TABLE IF NOT EXISTS encounters (
    id TEXT NOT NULL,
    vessel_mmsi TEXT NOT NULL,
    event_type TEXT NOT NULL,
    vessel_name TEXT NOT NULL,
    vessel_flag TEXT,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    distance_from_shore_m REAL NOT NULL,
    other_vessel_name TEXT,
    other_vessel_flag TEXT,
    other_vessel_origin_port_country TEXT,
    authorization_status TEXT NOT NULL,
    destination_port_name TEXT,
    destination_port_country TEXT,
    region_memberships TEXT,
    PRIMARY KEY (id, vessel_mmsi, event_type)
);

CREATE INDEX IF NOT EXISTS idx_encounters_vessel ON encounters(vessel_mmsi);
CREATE INDEX IF NOT EXISTS idx_encounters_start ON encounters(start_time);
`

const schemaPortVisits = `
CREATE TABLE IF NOT EXISTS port_visits (
    vessel_mmsi TEXT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    port_name TEXT NOT NULL,
    port_country TEXT NOT NULL,
    PRIMARY KEY (vessel_mmsi, start_time, port_name)
);

CREATE INDEX IF NOT EXISTS idx_port_visits_vessel ON port_visits(vessel_mmsi);
`

const schemaVesselStatus = `
CREATE TABLE IF NOT EXISTS vessel_status (
    mmsi TEXT NOT NULL,
    name TEXT,
    flag TEXT,
    longitude REAL NOT NULL,
    latitude REAL NOT NULL,
    navigation_status TEXT,
    destination TEXT,
    eez TEXT,
    last_transmission TIMESTAMP NOT NULL,
    PRIMARY KEY (mmsi, last_transmission)
);

CREATE INDEX IF NOT EXISTS idx_vessel_status_mmsi ON vessel_status(mmsi);
`

const schemaAlertRules = `
CREATE TABLE IF NOT EXISTS alert_rules (
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    bands TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, version)
);

CREATE INDEX IF NOT EXISTS idx_alert_rules_enabled ON alert_rules(enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaEncounters,
		schemaPortVisits,
		schemaVesselStatus,
		schemaAlertRules,
	}
}
