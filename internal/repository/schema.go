package repository

import (
	"context"
	"fmt"
)

// schemaStatements is kept to the SQL subset both sqlite and postgres accept:
// TEXT ids (uuid strings), TEXT ISO dates, REAL money.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		vin TEXT NOT NULL UNIQUE,
		make TEXT NOT NULL,
		model TEXT NOT NULL,
		year INTEGER NOT NULL,
		license_plate TEXT NOT NULL UNIQUE,
		purchase_date TEXT NOT NULL,
		current_mileage INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Active',
		assigned_driver TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance_records (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		maintenance_type TEXT NOT NULL,
		service_date TEXT NOT NULL,
		mileage_at_service INTEGER NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		service_provider TEXT,
		notes TEXT,
		next_service_due TEXT,
		next_service_mileage INTEGER,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_vehicle ON maintenance_records(vehicle_id)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_service_date ON maintenance_records(service_date)`,
}

// Init applies the schema. Idempotent; both binaries call it on startup.
func (d *DB) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	d.logger.Debug("database schema applied")
	return nil
}
