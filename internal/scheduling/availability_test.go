package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addWindow(t *testing.T, store *memStore, clinicID, practitionerID uuid.UUID, weekday time.Weekday, from, to string) {
	t.Helper()
	_, err := store.CreateWindow(context.Background(), AvailabilityWindow{
		ClinicID:       clinicID,
		PractitionerID: practitionerID,
		Weekday:        weekday,
		From:           from,
		To:             to,
	})
	require.NoError(t, err)
}

func TestIsAvailableUnconfiguredFailsOpen(t *testing.T) {
	store := newMemStore()
	resolver := NewAvailabilityResolver(store)

	// No windows at all: the clinic never loaded schedules, so any date and
	// time is bookable.
	res, err := resolver.IsAvailable(context.Background(), uuid.New(), uuid.New(), "2025-09-01", "09:00")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.False(t, res.Configured)
}

func TestIsAvailableOffDayFailsClosed(t *testing.T) {
	store := newMemStore()
	clinicID, practitionerID := uuid.New(), uuid.New()
	addWindow(t, store, clinicID, practitionerID, time.Monday, "08:00", "12:00")

	resolver := NewAvailabilityResolver(store)

	// 2025-09-02 is a Tuesday; windows exist only on Monday.
	res, err := resolver.IsAvailable(context.Background(), clinicID, practitionerID, "2025-09-02", "09:00")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.True(t, res.Configured)
	assert.Contains(t, res.Message, "martes")
}

func TestIsAvailableWindowBoundaries(t *testing.T) {
	store := newMemStore()
	clinicID, practitionerID := uuid.New(), uuid.New()
	addWindow(t, store, clinicID, practitionerID, time.Monday, "08:00", "12:00")

	resolver := NewAvailabilityResolver(store)
	monday := "2025-09-01"

	cases := []struct {
		time string
		want bool
	}{
		{"08:00", true},
		{"11:59", true},
		{"12:00", false}, // half-open: the window end does not admit a start
		{"07:59", false},
	}

	for _, tc := range cases {
		res, err := resolver.IsAvailable(context.Background(), clinicID, practitionerID, monday, tc.time)
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.Available, "time %s", tc.time)
		assert.True(t, res.Configured)
	}
}

func TestIsAvailableMultipleWindows(t *testing.T) {
	store := newMemStore()
	clinicID, practitionerID := uuid.New(), uuid.New()
	addWindow(t, store, clinicID, practitionerID, time.Monday, "08:00", "12:00")
	addWindow(t, store, clinicID, practitionerID, time.Monday, "14:00", "18:00")

	resolver := NewAvailabilityResolver(store)

	res, err := resolver.IsAvailable(context.Background(), clinicID, practitionerID, "2025-09-01", "15:30")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Len(t, res.Windows, 2)

	res, err = resolver.IsAvailable(context.Background(), clinicID, practitionerID, "2025-09-01", "13:00")
	require.NoError(t, err)
	assert.False(t, res.Available)
	// The rejection names the day's actual windows so the operator can offer
	// an alternative.
	assert.Contains(t, res.Message, "08:00–12:00")
	assert.Contains(t, res.Message, "14:00–18:00")
}

func TestIsAvailableBadDate(t *testing.T) {
	resolver := NewAvailabilityResolver(newMemStore())
	_, err := resolver.IsAvailable(context.Background(), uuid.New(), uuid.New(), "not-a-date", "09:00")
	assert.Error(t, err)
}
