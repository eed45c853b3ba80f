package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the clinic-local calendar date format used everywhere a date
// crosses a boundary. No timezone is attached to individual dates; the clinic
// timezone is applied once when deriving "today".
const DateLayout = "2006-01-02"

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

type ExceptionType string

const (
	ExceptionClinicClosed      ExceptionType = "clinic_closed"
	ExceptionPractitionerBlock ExceptionType = "practitioner_block"
	ExceptionExtendedHours     ExceptionType = "extended_hours"
)

type TreatmentType string

const (
	TreatmentFKT        TreatmentType = "fkt"
	TreatmentMagneto    TreatmentType = "magnetoterapia"
	TreatmentLaser      TreatmentType = "laser"
	TreatmentOndaCorta  TreatmentType = "onda_corta"
	TreatmentRPG        TreatmentType = "rpg"
	TreatmentEvaluacion TreatmentType = "evaluacion"
	TreatmentDrenaje    TreatmentType = "drenaje_linfatico"
)

// exclusiveTreatments are the treatment codes that claim the practitioner's
// entire time block: no other appointment may share the block, regardless of
// sub-slot. Membership is static; unknown codes are treated as non-exclusive.
var exclusiveTreatments = map[TreatmentType]bool{
	TreatmentRPG:        true,
	TreatmentEvaluacion: true,
	TreatmentDrenaje:    true,
}

func IsExclusive(t TreatmentType) bool {
	return exclusiveTreatments[t]
}

// KnownTreatments lists every valid treatment code, for request validation.
func KnownTreatments() []TreatmentType {
	return []TreatmentType{
		TreatmentFKT,
		TreatmentMagneto,
		TreatmentLaser,
		TreatmentOndaCorta,
		TreatmentRPG,
		TreatmentEvaluacion,
		TreatmentDrenaje,
	}
}

func IsKnownTreatment(t TreatmentType) bool {
	for _, k := range KnownTreatments() {
		if t == k {
			return true
		}
	}
	return false
}

// SlotKey identifies one bookable position. At most one non-cancelled
// appointment may occupy a given key; a partial unique index on the
// appointments table enforces this regardless of what the advisory checks saw.
type SlotKey struct {
	ClinicID       uuid.UUID
	PractitionerID uuid.UUID
	Date           string // DateLayout
	StartTime      string // canonical HH:mm
	SubSlot        int    // 1..5
}

type Appointment struct {
	ID            uuid.UUID
	SlotKey
	PatientID     *uuid.UUID
	TreatmentType TreatmentType
	Status        AppointmentStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailabilityWindow is one recurring working interval for a practitioner at a
// clinic. A practitioner may have zero, one or many windows per weekday;
// windows of one weekday must not overlap (validated at entry).
type AvailabilityWindow struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	PractitionerID uuid.UUID
	Weekday        time.Weekday
	From           string // canonical HH:mm, inclusive
	To             string // canonical HH:mm, exclusive
}

// ScheduleException is a one-off override tied to a single calendar date.
// Multi-day ranges are expanded into one row per day at creation time.
type ScheduleException struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	Date           string
	Type           ExceptionType
	PractitionerID *uuid.UUID // practitioner_block only
	FromTime       *string    // optional pair; nil pair means all day
	ToTime         *string
	Reason         string
	CreatedAt      time.Time
}

// Holiday blocks a whole date like a clinic_closed exception. A nil ClinicID
// means the holiday applies to every clinic.
type Holiday struct {
	ID       uuid.UUID
	ClinicID *uuid.UUID
	Date     string
	Name     string
}

// Weekday derives the clinic-local weekday of a DateLayout date string.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// weekdayNamesES is used in rejection messages; the front desk runs in Spanish.
var weekdayNamesES = [7]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

func WeekdayNameES(d time.Weekday) string {
	return weekdayNamesES[int(d)%7]
}
