package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appt(id uuid.UUID, treatment TreatmentType, status AppointmentStatus, startTime string, subSlot int) Appointment {
	return Appointment{
		ID:            id,
		SlotKey:       SlotKey{Date: "2025-09-01", StartTime: startTime, SubSlot: subSlot},
		TreatmentType: treatment,
		Status:        status,
	}
}

func TestExclusiveExistingRejectsAnyCandidate(t *testing.T) {
	existing := appt(uuid.New(), TreatmentRPG, StatusScheduled, "09:00", 1)
	candidate := appt(uuid.Nil, TreatmentFKT, StatusScheduled, "09:00", 2)

	conflict := FindExclusivityConflict(candidate, []Appointment{existing})
	require.NotNil(t, conflict)
	assert.Equal(t, existing.ID, conflict.AppointmentID)
	assert.Equal(t, TreatmentRPG, conflict.TreatmentType)
	assert.Equal(t, "09:00", conflict.StartTime)
}

func TestExclusiveCandidateRejectsAnyExisting(t *testing.T) {
	existing := appt(uuid.New(), TreatmentFKT, StatusScheduled, "09:00", 1)
	candidate := appt(uuid.Nil, TreatmentRPG, StatusScheduled, "09:00", 2)

	assert.NotNil(t, FindExclusivityConflict(candidate, []Appointment{existing}))
}

func TestNonExclusiveCoexist(t *testing.T) {
	block := []Appointment{
		appt(uuid.New(), TreatmentFKT, StatusScheduled, "09:00", 1),
		appt(uuid.New(), TreatmentMagneto, StatusScheduled, "09:00", 2),
	}
	candidate := appt(uuid.Nil, TreatmentLaser, StatusScheduled, "09:00", 3)

	assert.Nil(t, FindExclusivityConflict(candidate, block))
}

func TestCancelledAndSelfAreIgnored(t *testing.T) {
	editedID := uuid.New()
	block := []Appointment{
		appt(uuid.New(), TreatmentRPG, StatusCancelled, "09:00", 1),
		appt(editedID, TreatmentRPG, StatusScheduled, "09:00", 2),
	}

	// Editing the exclusive appointment itself: its own row must not count as
	// a conflict.
	candidate := appt(editedID, TreatmentRPG, StatusScheduled, "09:00", 2)
	assert.Nil(t, FindExclusivityConflict(candidate, block))
}

func TestUnknownTreatmentIsNotExclusive(t *testing.T) {
	assert.False(t, IsExclusive(TreatmentType("masajes")))
	assert.True(t, IsExclusive(TreatmentRPG))
	assert.False(t, IsExclusive(TreatmentFKT))
}
