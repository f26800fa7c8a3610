// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-ocean/reefwatch/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveEncounters stores encounter/loitering rows, replacing rows that
// share the same (id, vessel, type) identity.
func (r *SQLRepository) SaveEncounters(ctx context.Context, records []*domain.EncounterRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO encounters (
			id, vessel_mmsi, event_type, vessel_name, vessel_flag,
			start_time, end_time, distance_from_shore_m,
			other_vessel_name, other_vessel_flag, other_vessel_origin_port_country,
			authorization_status, destination_port_name, destination_port_country,
			region_memberships
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, vessel_mmsi, event_type) DO UPDATE SET
			vessel_name = excluded.vessel_name,
			vessel_flag = excluded.vessel_flag,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			distance_from_shore_m = excluded.distance_from_shore_m,
			other_vessel_name = excluded.other_vessel_name,
			other_vessel_flag = excluded.other_vessel_flag,
			other_vessel_origin_port_country = excluded.other_vessel_origin_port_country,
			authorization_status = excluded.authorization_status,
			destination_port_name = excluded.destination_port_name,
			destination_port_country = excluded.destination_port_country,
			region_memberships = excluded.region_memberships
	`

	stmt, err := tx.PrepareContext(ctx, r.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" || rec.VesselMMSI == "" {
			return fmt.Errorf("%w: encounter id and vessel_mmsi are required", ErrInvalidInput)
		}
		if rec.End.Before(rec.Start) {
			return fmt.Errorf("%w: encounter %s ends before it starts", ErrInvalidInput, rec.ID)
		}
		if rec.DistanceFromShoreM < 0 {
			return fmt.Errorf("%w: encounter %s has negative distance from shore", ErrInvalidInput, rec.ID)
		}

		regions := strings.Join(rec.RegionMemberships, ",")
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.VesselMMSI, string(rec.Type), rec.VesselName, rec.VesselFlag,
			rec.Start, rec.End, rec.DistanceFromShoreM,
			rec.OtherVesselName, rec.OtherVesselFlag, rec.OtherVesselOriginPortCountry,
			string(rec.Authorization), rec.DestinationPortName, rec.DestinationPortCountry,
			regions,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListEncounters retrieves all encounter/loitering rows.
func (r *SQLRepository) ListEncounters(ctx context.Context) ([]*domain.EncounterRecord, error) {
	query := `
		SELECT id, vessel_mmsi, event_type, vessel_name, vessel_flag,
			   start_time, end_time, distance_from_shore_m,
			   other_vessel_name, other_vessel_flag, other_vessel_origin_port_country,
			   authorization_status, destination_port_name, destination_port_country,
			   region_memberships
		FROM encounters
		ORDER BY start_time, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.EncounterRecord
	for rows.Next() {
		var rec domain.EncounterRecord
		var eventType, auth, regions string

		if err := rows.Scan(
			&rec.ID, &rec.VesselMMSI, &eventType, &rec.VesselName, &rec.VesselFlag,
			&rec.Start, &rec.End, &rec.DistanceFromShoreM,
			&rec.OtherVesselName, &rec.OtherVesselFlag, &rec.OtherVesselOriginPortCountry,
			&auth, &rec.DestinationPortName, &rec.DestinationPortCountry,
			&regions,
		); err != nil {
			return nil, err
		}

		rec.Type = domain.EventType(eventType)
		rec.Authorization = domain.AuthorizationStatus(auth)
		if regions != "" {
			rec.RegionMemberships = strings.Split(regions, ",")
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// SavePortVisits stores port-visit rows.
func (r *SQLRepository) SavePortVisits(ctx context.Context, visits []*domain.PortVisitRecord) error {
	if len(visits) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO port_visits (vessel_mmsi, start_time, end_time, port_name, port_country)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(vessel_mmsi, start_time, port_name) DO UPDATE SET
			end_time = excluded.end_time,
			port_country = excluded.port_country
	`

	stmt, err := tx.PrepareContext(ctx, r.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range visits {
		if v.VesselMMSI == "" {
			return fmt.Errorf("%w: port visit vessel_mmsi is required", ErrInvalidInput)
		}
		if v.End.Before(v.Start) {
			return fmt.Errorf("%w: port visit at %s ends before it starts", ErrInvalidInput, v.PortName)
		}
		if _, err := stmt.ExecContext(ctx, v.VesselMMSI, v.Start, v.End, v.PortName, v.PortCountry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListPortVisits retrieves all port-visit rows.
func (r *SQLRepository) ListPortVisits(ctx context.Context) ([]*domain.PortVisitRecord, error) {
	query := `
		SELECT vessel_mmsi, start_time, end_time, port_name, port_country
		FROM port_visits
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*domain.PortVisitRecord
	for rows.Next() {
		var v domain.PortVisitRecord
		if err := rows.Scan(&v.VesselMMSI, &v.Start, &v.End, &v.PortName, &v.PortCountry); err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}

	return visits, rows.Err()
}

// SaveVesselStatus stores one current-location snapshot row.
func (r *SQLRepository) SaveVesselStatus(ctx context.Context, st *domain.VesselStatus) error {
	if st.MMSI == "" {
		return fmt.Errorf("%w: status mmsi is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO vessel_status (
			mmsi, name, flag, longitude, latitude,
			navigation_status, destination, eez, last_transmission
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mmsi, last_transmission) DO UPDATE SET
			name = excluded.name,
			flag = excluded.flag,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			navigation_status = excluded.navigation_status,
			destination = excluded.destination,
			eez = excluded.eez
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		st.MMSI, st.Name, st.Flag, st.Longitude, st.Latitude,
		st.NavigationStatus, st.Destination, st.EEZ, st.LastTransmission,
	)
	return err
}

// ListVesselStatuses retrieves all status rows; conflict resolution to
// one row per vessel happens in the analytic layer.
func (r *SQLRepository) ListVesselStatuses(ctx context.Context) ([]*domain.VesselStatus, error) {
	query := `
		SELECT mmsi, name, flag, longitude, latitude,
			   navigation_status, destination, eez, last_transmission
		FROM vessel_status
		ORDER BY mmsi, last_transmission
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*domain.VesselStatus
	for rows.Next() {
		var st domain.VesselStatus
		if err := rows.Scan(
			&st.MMSI, &st.Name, &st.Flag, &st.Longitude, &st.Latitude,
			&st.NavigationStatus, &st.Destination, &st.EEZ, &st.LastTransmission,
		); err != nil {
			return nil, err
		}
		statuses = append(statuses, &st)
	}

	return statuses, rows.Err()
}

// SaveAlertRule stores an alert rule configuration.
func (r *SQLRepository) SaveAlertRule(ctx context.Context, rule *domain.AlertRule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	bands, _ := json.Marshal(rule.Bands)

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO alert_rules (
			id, name, description, version, expression, bands, weight, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			bands = excluded.bands,
			weight = excluded.weight,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description,
		rule.Version, rule.Expression, string(bands), rule.Weight, enabled,
		now, now,
	)
	return err
}

// GetAlertRule retrieves the latest enabled version of a rule.
func (r *SQLRepository) GetAlertRule(ctx context.Context, ruleID string) (*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, version, expression, bands, weight, enabled
		FROM alert_rules
		WHERE id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var rule domain.AlertRule
	var bands string
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), ruleID).Scan(
		&rule.ID, &rule.Name, &rule.Description,
		&rule.Version, &rule.Expression, &bands, &rule.Weight, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	json.Unmarshal([]byte(bands), &rule.Bands)

	return &rule, nil
}

// ListAlertRules retrieves all enabled alert rules.
func (r *SQLRepository) ListAlertRules(ctx context.Context) ([]*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, version, expression, bands, weight, enabled
		FROM alert_rules
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		var rule domain.AlertRule
		var bands string
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description,
			&rule.Version, &rule.Expression, &bands, &rule.Weight, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		json.Unmarshal([]byte(bands), &rule.Bands)
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
