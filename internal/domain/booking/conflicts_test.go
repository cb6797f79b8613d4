package booking

import (
	"context"
	"testing"

	"classroombooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConflictDetector_FiltersAndOrders(t *testing.T) {
	store := new(MockStore)
	candidate := mustRange(t, at(9, 0), at(12, 0))

	store.On("FindOverlapping", mock.Anything, int64(1), candidate, int64(4)).Return([]domain.Booking{
		{ID: 9, ClassroomID: 1, TimeRange: mustRange(t, at(11, 0), at(13, 0)), Status: domain.BookingConfirmed},
		{ID: 4, ClassroomID: 1, TimeRange: mustRange(t, at(9, 0), at(10, 0)), Status: domain.BookingConfirmed},
		{ID: 6, ClassroomID: 1, TimeRange: mustRange(t, at(10, 0), at(11, 0)), Status: domain.BookingPending},
		{ID: 7, ClassroomID: 1, TimeRange: mustRange(t, at(8, 0), at(9, 0)), Status: domain.BookingConfirmed},
		{ID: 3, ClassroomID: 1, TimeRange: mustRange(t, at(8, 30), at(9, 30)), Status: domain.BookingConfirmed},
		{ID: 2, ClassroomID: 1, TimeRange: mustRange(t, at(11, 0), at(11, 30)), Status: domain.BookingConfirmed},
		{ID: 5, ClassroomID: 2, TimeRange: mustRange(t, at(9, 0), at(10, 0)), Status: domain.BookingConfirmed},
	}, nil)

	got, err := NewConflictDetector(store).Detect(context.Background(), 1, candidate, 4)
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, b := range got {
		ids = append(ids, b.ID)
	}
	// 4 is excluded, 6 is pending, 7 only touches, 5 is another classroom.
	assert.Equal(t, []int64{3, 2, 9}, ids)
}

func TestConflictDetector_EmptyMeansAvailable(t *testing.T) {
	store := new(MockStore)
	r := mustRange(t, at(9, 0), at(10, 0))
	store.On("FindOverlapping", mock.Anything, int64(1), r, int64(0)).Return(nil, nil)

	got, err := NewConflictDetector(store).Conflicts(context.Background(), 1, r, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConflictDetector_PropagatesErrors(t *testing.T) {
	store := new(MockStore)
	r := mustRange(t, at(9, 0), at(10, 0))
	store.On("FindOverlapping", mock.Anything, int64(1), r, int64(0)).Return(nil, ErrStorageUnavailable)

	_, err := NewConflictDetector(store).Conflicts(context.Background(), 1, r, 0)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
