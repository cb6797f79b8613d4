package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// OverlapConstraint names the storage rule that keeps confirmed bookings of one
// classroom from overlapping. Postgres reports it as an exclusion violation
// (23P01); SQLite aborts with it as the trigger message.
const OverlapConstraint = "booking_no_overlap_exclusion"

var postgresBookingDDL = []string{
	`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'booking_no_overlap_exclusion') THEN
		ALTER TABLE bookings ADD CONSTRAINT booking_no_overlap_exclusion
			EXCLUDE USING gist (
				classroom_id WITH =,
				tstzrange(start_time, end_time, '[)') WITH &&
			) WHERE (status = 'confirmed');
	END IF;
END $$`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_classroom_range
	ON bookings USING gist (classroom_id, tstzrange(start_time, end_time, '[)'))`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_user_range
	ON bookings USING gist (user_id, tstzrange(start_time, end_time, '[)'))`,
}

var sqliteBookingDDL = []string{
	`CREATE TRIGGER IF NOT EXISTS booking_no_overlap_insert
BEFORE INSERT ON bookings
FOR EACH ROW WHEN NEW.status = 'confirmed'
BEGIN
	SELECT RAISE(ABORT, 'booking_no_overlap_exclusion')
	WHERE EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.classroom_id = NEW.classroom_id
		  AND b.status = 'confirmed'
		  AND b.start_time < NEW.end_time
		  AND NEW.start_time < b.end_time
	);
END`,
	`CREATE TRIGGER IF NOT EXISTS booking_no_overlap_update
BEFORE UPDATE OF classroom_id, start_time, end_time, status ON bookings
FOR EACH ROW WHEN NEW.status = 'confirmed'
BEGIN
	SELECT RAISE(ABORT, 'booking_no_overlap_exclusion')
	WHERE EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.id <> NEW.id
		  AND b.classroom_id = NEW.classroom_id
		  AND b.status = 'confirmed'
		  AND b.start_time < NEW.end_time
		  AND NEW.start_time < b.end_time
	);
END`,
}

// Migrate creates the tables and the dialect specific overlap rule and range
// indexes. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	dialect := Dialect(db)

	if dialect == DialectPostgres {
		// btree_gist lets one GiST constraint combine = on classroom_id with && on the range.
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
			return fmt.Errorf("migrate: btree_gist: %w", err)
		}
	}

	if err := db.AutoMigrate(&UserRow{}, &ClassroomRow{}, &BookingRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var ddl []string
	switch dialect {
	case DialectPostgres:
		ddl = postgresBookingDDL
	case DialectSQLite:
		ddl = sqliteBookingDDL
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", dialect)
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	log.Printf("migrate: schema ready dialect=%s overlap_rule=%s", dialect, OverlapConstraint)
	return nil
}
