package scheduling

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CheckName string

const (
	CheckExceptions   CheckName = "exceptions"
	CheckAvailability CheckName = "availability"
	CheckExclusivity  CheckName = "exclusivity"
	CheckOccupancy    CheckName = "occupancy"
)

// FailurePolicy decides per check how an infrastructure error on the read path
// is treated: fail-open lets the booking proceed with a warning, fail-closed
// rejects it. One table consulted uniformly, instead of ad hoc handling at
// each call site.
type FailurePolicy map[CheckName]bool // true = fail open

// DefaultFailurePolicy fails open everywhere: the booking desk must stay
// usable when the backend degrades, and the storage-level unique index remains
// the authoritative guard against true double booking.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		CheckExceptions:   true,
		CheckAvailability: true,
		CheckExclusivity:  true,
		CheckOccupancy:    true,
	}
}

// Candidate is the tuple gathered from a create/move/edit action. ID is
// uuid.Nil when creating and set to the edited appointment's id when moving,
// so the occupancy and exclusivity checks skip the appointment's own row.
type Candidate struct {
	SlotKey
	ID            uuid.UUID
	TreatmentType TreatmentType
}

// Decision is the admission verdict. Warnings carry the checks that errored
// and were skipped under a fail-open policy.
type Decision struct {
	Admitted bool
	Reason   string
	Warnings []string
}

// AdmissionEngine composes the four advisory checks into one admit/reject
// decision with a human-readable reason. It holds no state of its own beyond
// its collaborators; every call re-reads the backing store.
type AdmissionEngine struct {
	availability *AvailabilityResolver
	exceptions   *ExceptionResolver
	appointments AppointmentStore
	policy       FailurePolicy
	log          zerolog.Logger
}

func NewAdmissionEngine(availability *AvailabilityResolver, exceptions *ExceptionResolver, appointments AppointmentStore, policy FailurePolicy, log zerolog.Logger) *AdmissionEngine {
	if policy == nil {
		policy = DefaultFailurePolicy()
	}
	return &AdmissionEngine{
		availability: availability,
		exceptions:   exceptions,
		appointments: appointments,
		policy:       policy,
		log:          log.With().Str("component", "admission").Logger(),
	}
}

// Decide evaluates, in reporting order: exceptions/holidays, availability,
// exclusivity, occupancy. The two read-only resolvers are issued concurrently;
// the block read backing the last two checks happens only if the first two
// pass. The first failing check in that order wins the reason. Both the
// exclusivity and the occupancy check always run for a candidate that reaches
// them — a free sub-slot never bypasses an exclusive appointment holding the
// block.
func (e *AdmissionEngine) Decide(ctx context.Context, c Candidate) (Decision, error) {
	c.StartTime = NormalizeTime(c.StartTime)
	c.SubSlot = NormalizeSubSlot(c.SubSlot)

	var (
		wg       sync.WaitGroup
		blockRes BlockResult
		blockErr error
		availRes AvailabilityResult
		availErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		blockRes, blockErr = e.exceptions.IsBlocked(ctx, c.ClinicID, c.Date, c.StartTime, c.PractitionerID)
	}()
	go func() {
		defer wg.Done()
		availRes, availErr = e.availability.IsAvailable(ctx, c.ClinicID, c.PractitionerID, c.Date, c.StartTime)
	}()
	wg.Wait()

	var warnings []string

	if blockErr != nil {
		w, err := e.checkFailed(CheckExceptions, blockErr)
		if err != nil {
			return Decision{Reason: "no se pudo verificar el calendario de la clínica"}, nil
		}
		warnings = append(warnings, w)
	} else if blockRes.Blocked {
		reason := blockRes.Reason
		if reason == "" {
			reason = "fecha bloqueada"
		}
		return Decision{Reason: reason, Warnings: warnings}, nil
	}

	if availErr != nil {
		w, err := e.checkFailed(CheckAvailability, availErr)
		if err != nil {
			return Decision{Reason: "no se pudo verificar la disponibilidad del profesional"}, nil
		}
		warnings = append(warnings, w)
	} else if availRes.Configured && !availRes.Available {
		return Decision{Reason: availRes.Message, Warnings: warnings}, nil
	}

	block, err := e.appointments.BlockAppointments(ctx, c.ClinicID, c.PractitionerID, c.Date, c.StartTime)
	if err != nil {
		// One read backs two checks; the stricter policy of the pair applies.
		name := CheckExclusivity
		if e.policy[CheckExclusivity] && !e.policy[CheckOccupancy] {
			name = CheckOccupancy
		}
		w, perr := e.checkFailed(name, err)
		if perr != nil {
			return Decision{Reason: "no se pudo verificar la ocupación del turno"}, nil
		}
		warnings = append(warnings, w)
		return Decision{Admitted: true, Warnings: warnings}, nil
	}

	candidate := Appointment{
		ID:            c.ID,
		SlotKey:       c.SlotKey,
		TreatmentType: c.TreatmentType,
	}

	if conflict := FindExclusivityConflict(candidate, block); conflict != nil {
		return Decision{
			Reason: fmt.Sprintf(
				"conflicto con un tratamiento exclusivo: %s a las %s (turno %s)",
				conflict.TreatmentType, conflict.StartTime, conflict.AppointmentID,
			),
			Warnings: warnings,
		}, nil
	}

	if IsSlotTaken(block, c.SubSlot, c.ID) {
		return Decision{
			Reason:   fmt.Sprintf("el turno de las %s (posición %d) ya está ocupado", c.StartTime, c.SubSlot),
			Warnings: warnings,
		}, nil
	}

	return Decision{Admitted: true, Warnings: warnings}, nil
}

// checkFailed applies the failure policy for a check whose read errored. Under
// fail-open it returns a warning string; under fail-closed it returns the
// error so the caller can reject.
func (e *AdmissionEngine) checkFailed(name CheckName, err error) (string, error) {
	e.log.Warn().Err(err).Str("check", string(name)).Msg("admission check failed")
	if e.policy[name] {
		return fmt.Sprintf("%s check skipped: %v", name, err), nil
	}
	return "", err
}
