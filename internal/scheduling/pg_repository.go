package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository implements every store interface against Postgres. See
// schema.sql for the tables and the partial unique index
// appointments_slot_key_unique over non-cancelled rows, which is the actual
// correctness guarantee behind the advisory admission checks.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var patientID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.PractitionerID,
		&a.Date,
		&a.StartTime,
		&a.SubSlot,
		&patientID,
		&a.TreatmentType,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.PatientID = patientID
	a.StartTime = NormalizeTime(a.StartTime)
	a.SubSlot = NormalizeSubSlot(a.SubSlot)
	return &a, nil
}

func scanException(row pgx.Row) (*ScheduleException, error) {
	var e ScheduleException
	var practitionerID *uuid.UUID
	var fromTime, toTime *string

	err := row.Scan(
		&e.ID,
		&e.ClinicID,
		&e.Date,
		&e.Type,
		&practitionerID,
		&fromTime,
		&toTime,
		&e.Reason,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}

	e.PractitionerID = practitionerID
	e.FromTime = fromTime
	e.ToTime = toTime
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// date::text keeps the wire value in the clinic-local DateLayout string form.
const appointmentColumns = `id, clinic_id, practitioner_id, date::text, start_time, sub_slot,
		patient_id, treatment_type, status, notes, created_at, updated_at`

// AvailabilityStore

func (r *PgRepository) WindowsForWeekday(ctx context.Context, clinicID, practitionerID uuid.UUID, weekday time.Weekday) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, practitioner_id, weekday, from_time, to_time
		FROM availability_windows
		WHERE clinic_id = $1 AND practitioner_id = $2 AND weekday = $3
		ORDER BY from_time
	`, clinicID, practitionerID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		var w AvailabilityWindow
		var weekdayInt int
		if err := rows.Scan(&w.ID, &w.ClinicID, &w.PractitionerID, &weekdayInt, &w.From, &w.To); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekdayInt)
		w.From = NormalizeTime(w.From)
		w.To = NormalizeTime(w.To)
		result = append(result, w)
	}
	return result, rows.Err()
}

func (r *PgRepository) HasAnyWindows(ctx context.Context, clinicID, practitionerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM availability_windows
			WHERE clinic_id = $1 AND practitioner_id = $2
		)
	`, clinicID, practitionerID).Scan(&exists)
	return exists, err
}

func (r *PgRepository) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.From = NormalizeTime(w.From)
	w.To = NormalizeTime(w.To)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_windows (id, clinic_id, practitioner_id, weekday, from_time, to_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.ClinicID, w.PractitionerID, int(w.Weekday), w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("insert availability window: %w", err)
	}
	return &w, nil
}

// ExceptionStore

func (r *PgRepository) ExceptionsInRange(ctx context.Context, clinicID uuid.UUID, from, to string) ([]ScheduleException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, date::text, type, practitioner_id, from_time, to_time, reason, created_at
		FROM schedule_exceptions
		WHERE clinic_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, created_at
	`, clinicID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduleException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateException(ctx context.Context, e ScheduleException) (*ScheduleException, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedule_exceptions (id, clinic_id, date, type, practitioner_id, from_time, to_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, clinic_id, date::text, type, practitioner_id, from_time, to_time, reason, created_at
	`, e.ID, e.ClinicID, e.Date, e.Type, e.PractitionerID, e.FromTime, e.ToTime, e.Reason)

	return scanException(row)
}

func (r *PgRepository) DeleteException(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

// HolidayStore

func (r *PgRepository) HolidaysInRange(ctx context.Context, clinicID uuid.UUID, from, to string) ([]Holiday, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, date::text, name
		FROM holidays
		WHERE (clinic_id = $1 OR clinic_id IS NULL) AND date BETWEEN $2 AND $3
		ORDER BY date
	`, clinicID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Holiday
	for rows.Next() {
		var h Holiday
		var hClinicID *uuid.UUID
		if err := rows.Scan(&h.ID, &hClinicID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		h.ClinicID = hClinicID
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *PgRepository) ImportHolidays(ctx context.Context, hs []Holiday) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, h := range hs {
		if h.ID == uuid.Nil {
			h.ID = uuid.New()
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO holidays (id, clinic_id, date, name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (clinic_scope, date) DO NOTHING
		`, h.ID, h.ClinicID, h.Date, h.Name)
		if err != nil {
			return 0, fmt.Errorf("insert holiday %s: %w", h.Date, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// AppointmentStore

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) BlockAppointments(ctx context.Context, clinicID, practitionerID uuid.UUID, date, startTime string) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1 AND practitioner_id = $2 AND date = $3 AND start_time = $4
		  AND status <> 'cancelled'
		ORDER BY sub_slot
	`, clinicID, practitionerID, date, startTime)
}

func (r *PgRepository) DayAppointments(ctx context.Context, clinicID, practitionerID uuid.UUID, date string) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1 AND practitioner_id = $2 AND date = $3
		  AND status <> 'cancelled'
		ORDER BY start_time, sub_slot
	`, clinicID, practitionerID, date)
}

func (r *PgRepository) queryAppointments(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, practitioner_id, date, start_time, sub_slot,
			patient_id, treatment_type, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.ClinicID, a.PractitionerID, a.Date, a.StartTime, a.SubSlot,
		a.PatientID, a.TreatmentType, a.Status, a.Notes)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTakenConcurrently
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) MoveAppointment(ctx context.Context, id uuid.UUID, key SlotKey) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET clinic_id = $2,
		    practitioner_id = $3,
		    date = $4,
		    start_time = $5,
		    sub_slot = $6,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'scheduled'
		RETURNING `+appointmentColumns+`
	`, id, key.ClinicID, key.PractitionerID, key.Date, key.StartTime, key.SubSlot)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTakenConcurrently
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish a missing row from a row in the wrong state.
			if _, getErr := r.GetAppointment(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) MarkNoShowsBefore(ctx context.Context, date string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'no_show',
		    updated_at = now()
		WHERE status = 'scheduled'
		  AND date < $1
	`, date)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
