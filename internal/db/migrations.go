package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'resource_status') THEN
			CREATE TYPE resource_status AS ENUM ('ACTIVE', 'INACTIVE', 'MAINTENANCE', 'TERMINATED');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'resource_type') THEN
			CREATE TYPE resource_type AS ENUM ('VEHICLE', 'DRIVER');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_type') THEN
			CREATE TYPE vehicle_type AS ENUM ('BUS', 'MINIBUS', 'CAR', 'SUV');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'license_category') THEN
			CREATE TYPE license_category AS ENUM ('B', 'C', 'D', 'D1');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'assignment_status') THEN
			CREATE TYPE assignment_status AS ENUM ('ACTIVE', 'COMPLETED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		agency_id UUID NOT NULL,
		plate_number VARCHAR(32) NOT NULL UNIQUE,
		brand VARCHAR(64),
		model VARCHAR(64),
		vehicle_type vehicle_type NOT NULL,
		capacity INT NOT NULL,
		status resource_status NOT NULL DEFAULT 'ACTIVE',
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		current_assignment_id UUID,
		assigned_driver_id UUID,
		insurance_expiry DATE,
		inspection_expiry DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		agency_id UUID NOT NULL,
		first_name VARCHAR(64) NOT NULL,
		last_name VARCHAR(64) NOT NULL,
		phone VARCHAR(32),
		license_number VARCHAR(32) NOT NULL UNIQUE,
		license_category license_category NOT NULL,
		license_expiry DATE,
		status resource_status NOT NULL DEFAULT 'ACTIVE',
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		current_assignment_id UUID,
		assigned_vehicle_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		resource_id UUID NOT NULL,
		resource_type resource_type NOT NULL,
		tour_id VARCHAR(64) NOT NULL,
		tour_code VARCHAR(64),
		date DATE NOT NULL,
		status assignment_status NOT NULL DEFAULT 'ACTIVE',
		passengers INT,
		driver_id UUID,
		vehicle_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_agency_id ON vehicles (agency_id);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles (status);`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_agency_id ON drivers (agency_id);`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_status ON drivers (status);`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_resource_id ON assignments (resource_id);`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_date ON assignments (date);`,
	// database-level guard against two ACTIVE claims on one resource and day
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_active_resource_date
		ON assignments (resource_id, date)
		WHERE status = 'ACTIVE';`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_drivers_updated_at') THEN
			CREATE TRIGGER trg_drivers_updated_at
				BEFORE UPDATE ON drivers
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_assignments_updated_at') THEN
			CREATE TRIGGER trg_assignments_updated_at
				BEFORE UPDATE ON assignments
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
