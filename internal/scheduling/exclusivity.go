package scheduling

import "github.com/google/uuid"

// ExclusivityConflict names the existing appointment that makes the candidate
// inadmissible. Any conflicting entry is a valid witness; the first one found
// is reported.
type ExclusivityConflict struct {
	AppointmentID uuid.UUID
	TreatmentType TreatmentType
	StartTime     string
}

// FindExclusivityConflict enforces at-most-one-exclusive-treatment-per-block
// over the appointments sharing the candidate's (clinic, practitioner, date,
// startTime) block. An exclusive treatment claims the whole block: it conflicts
// with any existing appointment, and any existing exclusive appointment
// conflicts with any candidate. Cancelled rows and the candidate's own id (when
// editing) are ignored; non-exclusive treatments coexist up to the sub-slot
// limit.
func FindExclusivityConflict(candidate Appointment, block []Appointment) *ExclusivityConflict {
	candidateExclusive := IsExclusive(candidate.TreatmentType)

	for _, existing := range block {
		if existing.Status == StatusCancelled {
			continue
		}
		if candidate.ID != uuid.Nil && existing.ID == candidate.ID {
			continue
		}
		if candidateExclusive || IsExclusive(existing.TreatmentType) {
			return &ExclusivityConflict{
				AppointmentID: existing.ID,
				TreatmentType: existing.TreatmentType,
				StartTime:     existing.StartTime,
			}
		}
	}
	return nil
}
