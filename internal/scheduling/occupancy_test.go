package scheduling

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsSlotTaken(t *testing.T) {
	taken := appt(uuid.New(), TreatmentFKT, StatusScheduled, "09:00", 2)
	cancelled := appt(uuid.New(), TreatmentFKT, StatusCancelled, "09:00", 3)
	block := []Appointment{taken, cancelled}

	assert.True(t, IsSlotTaken(block, 2, uuid.Nil))
	assert.False(t, IsSlotTaken(block, 1, uuid.Nil))
	assert.False(t, IsSlotTaken(block, 3, uuid.Nil), "cancelled rows do not occupy")
	assert.False(t, IsSlotTaken(block, 2, taken.ID), "editing the occupant itself")
}

func TestFullBlockRejectsEverySubSlot(t *testing.T) {
	var block []Appointment
	for s := 1; s <= 5; s++ {
		block = append(block, appt(uuid.New(), TreatmentFKT, StatusScheduled, "09:00", s))
	}

	for s := 1; s <= 5; s++ {
		assert.True(t, IsSlotTaken(block, s, uuid.Nil), "sub-slot %d", s)
	}

	// An invalid sub-slot normalizes to 1 before the check, which is taken.
	assert.True(t, IsSlotTaken(block, 9, uuid.Nil))
}
