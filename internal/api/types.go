package api

import (
	"time"

	"github.com/google/uuid"
)

// sub_slot is typed any on requests: legacy clients send it as a string or a
// float, and the normalizer at the read boundary sorts it out.

type BookAppointmentRequest struct {
	ClinicID       string `json:"clinic_id"`
	PractitionerID string `json:"practitioner_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	SubSlot        any    `json:"sub_slot"`
	PatientID      string `json:"patient_id,omitempty"`
	TreatmentType  string `json:"treatment_type"`
	Notes          string `json:"notes,omitempty"`
}

type MoveAppointmentRequest struct {
	ClinicID       string `json:"clinic_id"`
	PractitionerID string `json:"practitioner_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	SubSlot        any    `json:"sub_slot"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	ClinicID       uuid.UUID  `json:"clinic_id"`
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	Date           string     `json:"date"`
	StartTime      string     `json:"start_time"`
	SubSlot        int        `json:"sub_slot"`
	PatientID      *uuid.UUID `json:"patient_id,omitempty"`
	TreatmentType  string     `json:"treatment_type"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
}

type DecisionResponse struct {
	Admitted bool     `json:"admitted"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type CreateExceptionRequest struct {
	ClinicID       string  `json:"clinic_id"`
	Date           string  `json:"date"`
	ToDate         string  `json:"to_date,omitempty"` // inclusive; expanded per day
	Type           string  `json:"type"`
	PractitionerID *string `json:"practitioner_id,omitempty"`
	FromTime       *string `json:"from_time,omitempty"`
	ToTime         *string `json:"to_time,omitempty"`
	Reason         string  `json:"reason"`
}

type ExceptionResponse struct {
	ID             uuid.UUID  `json:"id"`
	ClinicID       uuid.UUID  `json:"clinic_id"`
	Date           string     `json:"date"`
	Type           string     `json:"type"`
	PractitionerID *uuid.UUID `json:"practitioner_id,omitempty"`
	FromTime       *string    `json:"from_time,omitempty"`
	ToTime         *string    `json:"to_time,omitempty"`
	Reason         string     `json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ImportHolidaysRequest struct {
	ClinicID string `json:"clinic_id,omitempty"` // empty applies to every clinic
	Year     int    `json:"year,omitempty"`
}

type ImportHolidaysResponse struct {
	Imported int `json:"imported"`
}

type HolidayResponse struct {
	ID       uuid.UUID  `json:"id"`
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
	Date     string     `json:"date"`
	Name     string     `json:"name"`
}

type SlotColumnResponse struct {
	StartTime    string                `json:"start_time"`
	Free         int                   `json:"free"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type SweepResponse struct {
	Transitioned int64 `json:"transitioned"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
