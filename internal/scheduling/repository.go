package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrExceptionNotFound   = errors.New("exception not found")

	// ErrSlotTakenConcurrently is returned when an insert or move loses the
	// race against another front desk session and hits the unique index over
	// non-cancelled (clinic, practitioner, date, start_time, sub_slot) rows.
	ErrSlotTakenConcurrently = errors.New("slot was taken by a concurrent booking")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownTreatment        = errors.New("unknown treatment type")
)

// AvailabilityStore reads the recurring weekly schedule.
type AvailabilityStore interface {
	WindowsForWeekday(ctx context.Context, clinicID, practitionerID uuid.UUID, weekday time.Weekday) ([]AvailabilityWindow, error)

	// HasAnyWindows reports whether the practitioner has at least one window
	// configured on any weekday at this clinic. Used to tell "unconfigured"
	// (fail-open) apart from "explicitly off that day" (fail-closed).
	HasAnyWindows(ctx context.Context, clinicID, practitionerID uuid.UUID) (bool, error)

	CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error)
}

// ExceptionStore reads and writes one-off schedule overrides.
type ExceptionStore interface {
	ExceptionsInRange(ctx context.Context, clinicID uuid.UUID, from, to string) ([]ScheduleException, error)
	CreateException(ctx context.Context, e ScheduleException) (*ScheduleException, error)
	DeleteException(ctx context.Context, id uuid.UUID) error
}

// HolidayStore reads and writes holiday rows. Holidays with a nil clinic ID
// apply to every clinic.
type HolidayStore interface {
	HolidaysInRange(ctx context.Context, clinicID uuid.UUID, from, to string) ([]Holiday, error)

	// ImportHolidays inserts the given rows, skipping dates already present
	// for the same clinic scope, and returns how many were inserted.
	ImportHolidays(ctx context.Context, hs []Holiday) (int, error)
}

// AppointmentStore reads and writes appointment rows. Insert and move must be
// guarded by the partial unique index over the non-cancelled subset of
// (clinic_id, practitioner_id, date, start_time, sub_slot); violations come
// back as ErrSlotTakenConcurrently.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// BlockAppointments returns the non-cancelled appointments sharing
	// (clinic, practitioner, date, startTime), every sub-slot. This single
	// read backs both the exclusivity and the occupancy checks.
	BlockAppointments(ctx context.Context, clinicID, practitionerID uuid.UUID, date, startTime string) ([]Appointment, error)

	DayAppointments(ctx context.Context, clinicID, practitionerID uuid.UUID, date string) ([]Appointment, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	// MoveAppointment rewrites the slot key of a scheduled appointment.
	MoveAppointment(ctx context.Context, id uuid.UUID, key SlotKey) (*Appointment, error)

	// UpdateAppointmentStatus performs a conditional transition and returns
	// ErrInvalidStatusTransition when the row is not in the expected state.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// MarkNoShowsBefore transitions every scheduled appointment dated
	// strictly before the given clinic-local date to no_show and returns the
	// number of rows changed. Conditional on status, so concurrent sweeps
	// converge to the same result.
	MarkNoShowsBefore(ctx context.Context, date string) (int64, error)
}
