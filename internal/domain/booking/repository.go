package booking

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"classroombooking/internal/database"
	"classroombooking/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps bookings in the relational database. The no-overlap rule is
// enforced by the schema (exclusion constraint on Postgres, triggers on
// SQLite), so every write is checked atomically with the write itself.
type GormStore struct {
	db           *gorm.DB
	dialect      string
	writeTimeout time.Duration
}

// NewStore returns a store over db. writeTimeout bounds each write
// transaction; zero leaves only the caller's deadline.
func NewStore(db *gorm.DB, writeTimeout time.Duration) *GormStore {
	return &GormStore{
		db:           db,
		dialect:      database.Dialect(db),
		writeTimeout: writeTimeout,
	}
}

func toDomainBooking(m database.BookingRow) (domain.Booking, error) {
	r, err := domain.NewTimeRange(m.StartTime, m.EndTime)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %d: %w", m.ID, err)
	}

	b := domain.Booking{
		ID:               m.ID,
		ClassroomID:      m.ClassroomID,
		UserID:           m.UserID,
		TimeRange:        r,
		IsRecurring:      m.IsRecurring,
		RecurringEndDate: m.RecurringEndDate,
		Status:           domain.BookingStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.Subject != nil {
		b.Subject = *m.Subject
	}
	if m.Description != nil {
		b.Description = *m.Description
	}
	if m.RecurringPattern != nil {
		b.RecurringPattern = domain.RecurringPattern(*m.RecurringPattern)
	}
	if b.RecurringEndDate != nil {
		d := b.RecurringEndDate.UTC()
		b.RecurringEndDate = &d
	}
	return b, nil
}

func toBookingRow(b *domain.Booking) database.BookingRow {
	row := database.BookingRow{
		ID:               b.ID,
		ClassroomID:      b.ClassroomID,
		UserID:           b.UserID,
		StartTime:        b.TimeRange.Start(),
		EndTime:          b.TimeRange.End(),
		Subject:          nullableString(b.Subject),
		Description:      nullableString(b.Description),
		IsRecurring:      b.IsRecurring,
		RecurringEndDate: b.RecurringEndDate,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.RecurringPattern != "" {
		p := string(b.RecurringPattern)
		row.RecurringPattern = &p
	}
	return row
}

func toDomainBookings(rows []database.BookingRow) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		b, err := toDomainBooking(m)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *GormStore) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.writeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.writeTimeout)
}

// Insert persists b and fills in its id and timestamps.
func (s *GormStore) Insert(ctx context.Context, b *domain.Booking) error {
	if b.TimeRange.IsZero() {
		return invalidRange(domain.ErrInvalidRange)
	}
	if b.Status == "" {
		b.Status = domain.BookingConfirmed
	}
	if !b.Status.Valid() {
		return newValidationError("unknown status %q", b.Status)
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	row := toBookingRow(b)
	row.ID = 0
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return s.classifyWriteError(ctx, err, b.ClassroomID, b.TimeRange, 0)
	}

	saved, err := toDomainBooking(row)
	if err != nil {
		return err
	}
	*b = saved
	return nil
}

// Update applies patch to the booking inside one transaction. A lone time
// bound keeps the stored opposite bound.
func (s *GormStore) Update(ctx context.Context, id int64, patch Patch) (*domain.Booking, error) {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var (
		updated     domain.Booking
		classroomID int64
		target      domain.TimeRange
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if s.dialect == database.DialectPostgres {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var row database.BookingRow
		if err := q.First(&row, id).Error; err != nil {
			return err
		}
		current, err := toDomainBooking(row)
		if err != nil {
			return err
		}

		classroomID = current.ClassroomID
		target = current.TimeRange
		if patch.ClassroomID != nil {
			classroomID = *patch.ClassroomID
		}
		if patch.Start != nil || patch.End != nil {
			start, end := target.Start(), target.End()
			if patch.Start != nil {
				start = *patch.Start
			}
			if patch.End != nil {
				end = *patch.End
			}
			if target, err = domain.NewTimeRange(start, end); err != nil {
				return invalidRange(err)
			}
		}

		updates := map[string]any{}
		if classroomID != current.ClassroomID {
			updates["classroom_id"] = classroomID
		}
		if !target.Equal(current.TimeRange) {
			updates["start_time"] = target.Start()
			updates["end_time"] = target.End()
		}
		if patch.Subject != nil {
			updates["subject"] = nullableString(*patch.Subject)
		}
		if patch.Description != nil {
			updates["description"] = nullableString(*patch.Description)
		}
		if patch.IsRecurring != nil {
			updates["is_recurring"] = *patch.IsRecurring
		}
		if patch.RecurringPattern != nil {
			updates["recurring_pattern"] = nullableString(string(*patch.RecurringPattern))
		}
		if patch.RecurringEndDate != nil {
			updates["recurring_end_date"] = *patch.RecurringEndDate
		}
		if patch.Status != nil && *patch.Status != current.Status {
			if !current.Status.CanTransitionTo(*patch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, *patch.Status)
			}
			updates["status"] = string(*patch.Status)
		}

		if len(updates) == 0 {
			updated = current
			return nil
		}
		updates["updated_at"] = tx.NowFunc()

		if err := tx.Model(&database.BookingRow{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		var reloaded database.BookingRow
		if err := tx.First(&reloaded, id).Error; err != nil {
			return err
		}
		updated, err = toDomainBooking(reloaded)
		return err
	})
	if err != nil {
		return nil, s.classifyWriteError(ctx, err, classroomID, target, id)
	}
	return &updated, nil
}

func (s *GormStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	tx := s.db.WithContext(ctx).Delete(&database.BookingRow{}, id)
	if tx.Error != nil {
		return s.classifyWriteError(ctx, tx.Error, 0, domain.TimeRange{}, id)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m database.BookingRow
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, classifyReadError(err)
	}
	b, err := toDomainBooking(m)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// overlapClause matches rows whose [start_time, end_time) intersects r. On
// Postgres it is written with && so the GiST range index serves it.
func (s *GormStore) overlapClause(r domain.TimeRange) (string, []any) {
	if s.dialect == database.DialectPostgres {
		return "tstzrange(start_time, end_time, '[)') && tstzrange(?, ?, '[)')", []any{r.Start(), r.End()}
	}
	return "start_time < ? AND end_time > ?", []any{r.End(), r.Start()}
}

func (s *GormStore) FindOverlapping(ctx context.Context, classroomID int64, r domain.TimeRange, excludeID int64) ([]domain.Booking, error) {
	cond, args := s.overlapClause(r)
	q := s.db.WithContext(ctx).
		Model(&database.BookingRow{}).
		Where("classroom_id = ?", classroomID).
		Where("status = ?", string(domain.BookingConfirmed)).
		Where(cond, args...)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []database.BookingRow
	if err := q.Order("start_time, id").Find(&rows).Error; err != nil {
		return nil, classifyReadError(err)
	}
	return toDomainBookings(rows)
}

// ListByClassroomAndRange returns bookings of any status overlapping r.
func (s *GormStore) ListByClassroomAndRange(ctx context.Context, classroomID int64, r domain.TimeRange) ([]domain.Booking, error) {
	cond, args := s.overlapClause(r)
	var rows []database.BookingRow
	err := s.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Where(cond, args...).
		Order("start_time, id").
		Find(&rows).Error
	if err != nil {
		return nil, classifyReadError(err)
	}
	return toDomainBookings(rows)
}

func (s *GormStore) ListByUserAndRange(ctx context.Context, userID int64, from, to *time.Time) ([]domain.Booking, error) {
	return s.List(ctx, Query{UserID: userID, From: from, To: to, Limit: -1})
}

// List applies q. A negative limit disables paging; zero means the default.
func (s *GormStore) List(ctx context.Context, q Query) ([]domain.Booking, error) {
	db := s.db.WithContext(ctx).Model(&database.BookingRow{})
	if q.ClassroomID > 0 {
		db = db.Where("classroom_id = ?", q.ClassroomID)
	}
	if q.UserID > 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.From != nil {
		db = db.Where("end_time >= ?", q.From.UTC())
	}
	if q.To != nil {
		db = db.Where("start_time <= ?", q.To.UTC())
	}
	if q.Status != "" {
		db = db.Where("status = ?", string(q.Status))
	}

	if q.Limit >= 0 {
		limit := q.Limit
		switch {
		case limit == 0:
			limit = defaultListLimit
		case limit > maxListLimit:
			limit = maxListLimit
		}
		db = db.Limit(limit)
		if q.Offset > 0 {
			db = db.Offset(q.Offset)
		}
	}

	var rows []database.BookingRow
	if err := db.Order("start_time, id").Find(&rows).Error; err != nil {
		return nil, classifyReadError(err)
	}
	return toDomainBookings(rows)
}

// classifyWriteError maps driver failures to the booking error kinds.
// Validation and transition errors raised inside the transaction pass through.
func (s *GormStore) classifyWriteError(ctx context.Context, err error, classroomID int64, r domain.TimeRange, bookingID int64) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidStatusTransition):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isOverlapViolation(err):
		return &OverlapError{ClassroomID: classroomID, Range: r, BookingID: bookingID}
	case isForeignKeyViolation(err):
		return s.missingReference(ctx, err, classroomID)
	case isTransient(err) || ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

// missingReference tells which parent row a foreign key failure points at.
// Postgres names the constraint; SQLite does not, so the classroom is looked
// up. Updates never change user_id, so a present classroom means the user.
func (s *GormStore) missingReference(ctx context.Context, err error, classroomID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.Contains(pgErr.ConstraintName, "classroom"):
			return fmt.Errorf("%w: %v", ErrClassroomNotFound, err)
		case strings.Contains(pgErr.ConstraintName, "user"):
			return fmt.Errorf("%w: %v", ErrUserNotFound, err)
		}
	}

	var n int64
	lookupErr := s.db.WithContext(context.WithoutCancel(ctx)).
		Model(&database.ClassroomRow{}).
		Where("id = ?", classroomID).
		Count(&n).Error
	switch {
	case lookupErr != nil:
		return fmt.Errorf("foreign key violation: %w", err)
	case n == 0:
		return fmt.Errorf("%w: %v", ErrClassroomNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrUserNotFound, err)
}

func classifyReadError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isTransient(err):
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01" &&
			(pgErr.ConstraintName == "" || pgErr.ConstraintName == database.OverlapConstraint)
	}
	return strings.Contains(err.Error(), database.OverlapConstraint)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isTransient reports failures where the identical request may succeed later.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "40001", // serialization_failure
			pgErr.Code == "40P01", // deadlock_detected
			pgErr.Code == "53300": // too_many_connections
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
