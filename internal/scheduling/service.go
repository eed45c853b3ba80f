package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
)

// Service is the front desk's write path. Every create/move runs the
// admission engine first; the storage-level unique index stays the
// authoritative guard, and when a write loses that race the admission decision
// is re-run so the operator sees a fresh reason instead of a raw constraint
// violation.
type Service struct {
	appointments AppointmentStore
	availability AvailabilityStore
	exceptions   ExceptionStore
	holidays     HolidayStore
	engine       *AdmissionEngine
	resolver     *ExceptionResolver
	notifier     redisclient.Notifier
	log          zerolog.Logger
}

func NewService(
	appointments AppointmentStore,
	availability AvailabilityStore,
	exceptions ExceptionStore,
	holidays HolidayStore,
	engine *AdmissionEngine,
	resolver *ExceptionResolver,
	notifier redisclient.Notifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		availability: availability,
		exceptions:   exceptions,
		holidays:     holidays,
		engine:       engine,
		resolver:     resolver,
		notifier:     notifier,
		log:          log.With().Str("component", "scheduling").Logger(),
	}
}

// CheckAdmission runs the admission decision without writing anything. Used by
// the UI as a dry-run filter while the operator is picking a slot.
func (s *Service) CheckAdmission(ctx context.Context, c Candidate) (Decision, error) {
	if !IsKnownTreatment(c.TreatmentType) {
		return Decision{}, ErrUnknownTreatment
	}
	return s.engine.Decide(ctx, c)
}

// Book admits and creates a new appointment. A non-admitted decision is an
// expected outcome, not an error: the appointment pointer is nil and the
// decision carries the reason.
func (s *Service) Book(ctx context.Context, c Candidate, patientID *uuid.UUID, notes string) (*Appointment, Decision, error) {
	if !IsKnownTreatment(c.TreatmentType) {
		return nil, Decision{}, ErrUnknownTreatment
	}
	c.ID = uuid.Nil

	decision, err := s.engine.Decide(ctx, c)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("admission decision: %w", err)
	}
	if !decision.Admitted {
		return nil, decision, nil
	}

	appt := Appointment{
		ID:            uuid.New(),
		SlotKey:       normalizedKey(c.SlotKey),
		PatientID:     patientID,
		TreatmentType: c.TreatmentType,
		Status:        StatusScheduled,
		Notes:         notes,
	}

	created, err := s.appointments.CreateAppointment(ctx, appt)
	if err != nil {
		if errors.Is(err, ErrSlotTakenConcurrently) {
			return nil, s.redecideAfterConflict(ctx, c), nil
		}
		return nil, Decision{}, fmt.Errorf("create appointment: %w", err)
	}

	s.notifyAppointmentsChanged(ctx)
	return created, decision, nil
}

// Move re-admits a scheduled appointment at a new slot key and rewrites it.
func (s *Service) Move(ctx context.Context, id uuid.UUID, key SlotKey) (*Appointment, Decision, error) {
	appt, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != StatusScheduled {
		return nil, Decision{}, ErrInvalidStatusTransition
	}

	c := Candidate{SlotKey: key, ID: id, TreatmentType: appt.TreatmentType}
	decision, err := s.engine.Decide(ctx, c)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("admission decision: %w", err)
	}
	if !decision.Admitted {
		return nil, decision, nil
	}

	moved, err := s.appointments.MoveAppointment(ctx, id, normalizedKey(key))
	if err != nil {
		if errors.Is(err, ErrSlotTakenConcurrently) {
			return nil, s.redecideAfterConflict(ctx, c), nil
		}
		return nil, Decision{}, fmt.Errorf("move appointment: %w", err)
	}

	s.notifyAppointmentsChanged(ctx)
	return moved, decision, nil
}

// Complete marks a scheduled appointment as attended.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusScheduled, StatusCompleted)
}

// Cancel releases the slot. Cancelled rows stop counting against the unique
// index, exclusivity and occupancy.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusScheduled, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	updated, err := s.appointments.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	s.notifyAppointmentsChanged(ctx)
	return updated, nil
}

// DayView lists a practitioner's non-cancelled appointments for one date,
// normalized at the read boundary.
func (s *Service) DayView(ctx context.Context, clinicID, practitionerID uuid.UUID, date string) ([]Appointment, error) {
	appts, err := s.appointments.DayAppointments(ctx, clinicID, practitionerID, date)
	if err != nil {
		return nil, fmt.Errorf("list day appointments: %w", err)
	}
	for i := range appts {
		appts[i].StartTime = NormalizeTime(appts[i].StartTime)
		appts[i].SubSlot = NormalizeSubSlot(appts[i].SubSlot)
	}
	return appts, nil
}

// CreateException stores a one-off override, expanding a multi-day range into
// one row per day, and broadcasts the change.
func (s *Service) CreateException(ctx context.Context, e ScheduleException, toDate string) ([]ScheduleException, error) {
	if toDate == "" {
		toDate = e.Date
	}
	dates, err := expandDates(e.Date, toDate)
	if err != nil {
		return nil, err
	}

	created := make([]ScheduleException, 0, len(dates))
	for _, d := range dates {
		row := e
		row.ID = uuid.New()
		row.Date = d
		stored, err := s.exceptions.CreateException(ctx, row)
		if err != nil {
			return created, fmt.Errorf("create exception for %s: %w", d, err)
		}
		created = append(created, *stored)
	}

	s.notifyExceptionsChanged(ctx)
	return created, nil
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	if err := s.exceptions.DeleteException(ctx, id); err != nil {
		return err
	}
	s.notifyExceptionsChanged(ctx)
	return nil
}

func (s *Service) ListExceptions(ctx context.Context, clinicID uuid.UUID, from, to string) ([]ScheduleException, error) {
	return s.exceptions.ExceptionsInRange(ctx, clinicID, from, to)
}

// ImportHolidays bulk-imports the bundled Argentine national holiday list for
// one year and returns how many new rows were inserted.
func (s *Service) ImportHolidays(ctx context.Context, clinicID *uuid.UUID, year int) (int, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	n, err := s.holidays.ImportHolidays(ctx, ArgentineHolidays(year, clinicID))
	if err != nil {
		return 0, fmt.Errorf("import holidays for %d: %w", year, err)
	}
	if n > 0 {
		s.notifyExceptionsChanged(ctx)
	}
	return n, nil
}

func (s *Service) ListHolidays(ctx context.Context, clinicID uuid.UUID, from, to string) ([]Holiday, error) {
	return s.holidays.HolidaysInRange(ctx, clinicID, from, to)
}

// redecideAfterConflict re-runs admission after a unique-index violation so
// the operator gets the current rejection reason. If the re-run still admits
// (the winning row may not be visible yet), a generic slot-taken reason is
// used.
func (s *Service) redecideAfterConflict(ctx context.Context, c Candidate) Decision {
	s.log.Info().
		Str("date", c.Date).
		Str("start_time", c.StartTime).
		Int("sub_slot", c.SubSlot).
		Msg("booking lost slot race, re-running admission")

	decision, err := s.engine.Decide(ctx, c)
	if err != nil || decision.Admitted {
		return Decision{Reason: "el turno acaba de ser ocupado por otro usuario"}
	}
	return decision
}

func (s *Service) notifyAppointmentsChanged(ctx context.Context) {
	if err := s.notifier.AppointmentsChanged(ctx); err != nil {
		s.log.Warn().Err(err).Msg("appointments-changed notification failed")
	}
}

func (s *Service) notifyExceptionsChanged(ctx context.Context) {
	s.resolver.Invalidate()
	if err := s.notifier.ExceptionsChanged(ctx); err != nil {
		s.log.Warn().Err(err).Msg("exceptions-changed notification failed")
	}
}

func normalizedKey(k SlotKey) SlotKey {
	k.StartTime = NormalizeTime(k.StartTime)
	k.SubSlot = NormalizeSubSlot(k.SubSlot)
	return k
}

// expandDates lists every date from 'from' to 'to' inclusive. Ranges are
// expanded at creation time; the resolver only ever sees single-date rows.
func expandDates(from, to string) ([]string, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", from, err)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("invalid date range %s..%s", from, to)
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}
