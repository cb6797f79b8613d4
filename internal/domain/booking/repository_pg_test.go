package booking

import (
	"context"
	"testing"
	"time"

	"classroombooking/internal/database"
	"classroombooking/internal/database/dbtest"
	"classroombooking/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newPostgresFixture(t *testing.T) storeFixture {
	t.Helper()
	db := dbtest.OpenPostgres(t)
	require.Equal(t, database.DialectPostgres, database.Dialect(db))

	suffix := uuid.NewString()[:8]
	f := storeFixture{
		db:          db,
		store:       NewStore(db, 5*time.Second),
		classroomID: dbtest.SeedClassroom(t, db, "PA"+suffix, true),
		otherRoomID: dbtest.SeedClassroom(t, db, "PB"+suffix, true),
		userID:      dbtest.SeedUser(t, db, suffix+"@pg.example.com"),
	}
	t.Cleanup(func() {
		db.Where("id IN ?", []int64{f.classroomID, f.otherRoomID}).Delete(&database.ClassroomRow{})
		db.Where("id = ?", f.userID).Delete(&database.UserRow{})
	})
	return f
}

func TestPostgresStore_ExclusionConstraint(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	first := f.insert(t, f.classroomID, at(9, 0), at(10, 0), domain.BookingConfirmed)

	err := f.store.Insert(ctx, f.booking(t, f.classroomID, at(9, 30), at(10, 30), domain.BookingConfirmed))
	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, f.classroomID, overlap.ClassroomID)

	f.insert(t, f.classroomID, at(10, 0), at(11, 0), domain.BookingConfirmed)
	f.insert(t, f.otherRoomID, at(9, 0), at(10, 0), domain.BookingConfirmed)
	pending := f.insert(t, f.classroomID, at(9, 0), at(10, 0), domain.BookingPending)

	confirmed := domain.BookingConfirmed
	_, err = f.store.Update(ctx, pending.ID, Patch{Status: &confirmed})
	assert.ErrorIs(t, err, ErrOverlapViolation)

	subject := "Renamed"
	_, err = f.store.Update(ctx, first.ID, Patch{Subject: &subject})
	assert.NoError(t, err)

	assertNoConfirmedOverlap(t, f.db.Where("classroom_id IN ?", []int64{f.classroomID, f.otherRoomID}))
}

func TestPostgresStore_RangeQueries(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	a := f.insert(t, f.classroomID, at(9, 0), at(10, 0), domain.BookingConfirmed)
	f.insert(t, f.classroomID, at(10, 0), at(11, 0), domain.BookingPending)

	found, err := f.store.FindOverlapping(ctx, f.classroomID, mustRange(t, at(9, 59), at(10, 30)), 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	found, err = f.store.FindOverlapping(ctx, f.classroomID, mustRange(t, at(10, 0), at(10, 30)), 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := f.store.ListByClassroomAndRange(ctx, f.classroomID, domain.DayRange(at(0, 0)))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostgresStore_ForeignKeys(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	err := f.store.Insert(ctx, f.booking(t, -1, at(9, 0), at(10, 0), domain.BookingConfirmed))
	assert.ErrorIs(t, err, ErrClassroomNotFound)

	b := f.booking(t, f.classroomID, at(9, 0), at(10, 0), domain.BookingConfirmed)
	b.UserID = -1
	err = f.store.Insert(ctx, b)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrClassroomNotFound)
}

func TestPostgresStore_ConcurrentSameSlot(t *testing.T) {
	f := newPostgresFixture(t)

	const writers = 8
	results := make([]error, writers)
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			results[i] = f.store.Insert(context.Background(), f.booking(t, f.classroomID, at(14, 0), at(15, 0), domain.BookingConfirmed))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrOverlapViolation)
	}
	assert.Equal(t, 1, ok)
}
