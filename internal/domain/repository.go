// Package domain defines the core interfaces and types for Reefwatch.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for the persisted input tables. The
// tables are written by the external ETL collaborator (or the seed tool)
// and read wholesale into the in-memory analytic snapshot.
type Repository interface {
	// Encounter and loitering rows share one table, distinguished by type.
	SaveEncounters(ctx context.Context, records []*EncounterRecord) error
	ListEncounters(ctx context.Context) ([]*EncounterRecord, error)

	// Port visits
	SavePortVisits(ctx context.Context, visits []*PortVisitRecord) error
	ListPortVisits(ctx context.Context) ([]*PortVisitRecord, error)

	// Current-location snapshots, one row per (mmsi, transmission time)
	SaveVesselStatus(ctx context.Context, status *VesselStatus) error
	ListVesselStatuses(ctx context.Context) ([]*VesselStatus, error)

	// Alert rule configuration
	SaveAlertRule(ctx context.Context, rule *AlertRule) error
	GetAlertRule(ctx context.Context, ruleID string) (*AlertRule, error)
	ListAlertRules(ctx context.Context) ([]*AlertRule, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
