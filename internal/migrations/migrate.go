// Package migrations owns the schema: model auto-migration plus the
// raw-SQL constraints GORM cannot express. It sits outside the database
// package so the connection layer stays free of domain imports.
package migrations

import (
	"ticketbooking/internal/bookings"
	"ticketbooking/internal/events"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults on the primary keys
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&events.Event{},
		&bookings.Booking{},
	); err != nil {
		return err
	}
	return migrateConstraints(db)
}

// migrateConstraints adds the capacity invariant as a database-level
// backstop: 0 <= available_seats <= total_seats must hold even against
// administrative SQL that bypasses the application.
func migrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		ALTER TABLE events
		DROP CONSTRAINT IF EXISTS chk_available_within_total;
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		ALTER TABLE events
		ADD CONSTRAINT chk_available_within_total
		CHECK (available_seats >= 0 AND available_seats <= total_seats);
	`).Error
	if err != nil {
		return err
	}

	// Index for booking listings per event
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_event_created
		ON bookings (event_id, created_at DESC);
	`).Error
}
