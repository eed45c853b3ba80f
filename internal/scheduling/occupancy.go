package scheduling

import "github.com/google/uuid"

// IsSlotTaken reports whether the exact sub-slot inside a block is already
// occupied by a non-cancelled appointment other than excludeID. Together with
// the 1..5 sub-slot domain this bounds a block to at most five concurrent
// non-exclusive bookings. The authoritative guard is the storage-level unique
// index; this check only exists to reject before the write and to word the
// rejection.
func IsSlotTaken(block []Appointment, subSlot int, excludeID uuid.UUID) bool {
	subSlot = NormalizeSubSlot(subSlot)
	for _, a := range block {
		if a.Status == StatusCancelled {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if a.SubSlot == subSlot {
			return true
		}
	}
	return false
}
