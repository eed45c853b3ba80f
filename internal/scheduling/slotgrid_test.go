package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDayGridCoversWorkday(t *testing.T) {
	grid := BuildDayGrid("08:00", "12:00", 30, nil)

	require.Len(t, grid, 8)
	assert.Equal(t, "08:00", grid[0].StartTime)
	assert.Equal(t, "11:30", grid[7].StartTime)
	for _, col := range grid {
		assert.Equal(t, SubSlotsPerBlock, col.Free)
		assert.Empty(t, col.Appointments)
	}
}

func TestBuildDayGridPlacesAppointments(t *testing.T) {
	appts := []Appointment{
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "09:00", 1),
		appt(uuid.New(), TreatmentMagneto, StatusScheduled, "09:00", 2),
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "10:30", 1),
	}

	grid := BuildDayGrid("08:00", "12:00", 30, appts)

	byTime := make(map[string]SlotColumn, len(grid))
	for _, col := range grid {
		byTime[col.StartTime] = col
	}

	assert.Len(t, byTime["09:00"].Appointments, 2)
	assert.Equal(t, 3, byTime["09:00"].Free)
	assert.Len(t, byTime["10:30"].Appointments, 1)
	assert.Equal(t, 4, byTime["10:30"].Free)
	assert.Equal(t, 5, byTime["08:00"].Free)
}

func TestBuildDayGridKeepsOutOfGridRows(t *testing.T) {
	appts := []Appointment{
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "07:15", 1),
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "19:00", 1),
	}

	grid := BuildDayGrid("08:00", "12:00", 60, appts)

	// 4 workday columns plus the two stray times, appended in order.
	require.Len(t, grid, 6)
	assert.Equal(t, "07:15", grid[4].StartTime)
	assert.Equal(t, "19:00", grid[5].StartTime)
}

func TestBuildDayGridNormalizesSloppyTimes(t *testing.T) {
	appts := []Appointment{
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "9:0", 1),
	}

	grid := BuildDayGrid("08:00", "12:00", 60, appts)

	require.Len(t, grid, 4)
	assert.Len(t, grid[1].Appointments, 1)
	assert.Equal(t, "09:00", grid[1].StartTime)
}
