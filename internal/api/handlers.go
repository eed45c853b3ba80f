package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func appointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ClinicID:       a.ClinicID,
		PractitionerID: a.PractitionerID,
		Date:           a.Date,
		StartTime:      a.StartTime,
		SubSlot:        a.SubSlot,
		PatientID:      a.PatientID,
		TreatmentType:  string(a.TreatmentType),
		Status:         string(a.Status),
		Notes:          a.Notes,
	}
}

func decisionResponse(d scheduling.Decision) DecisionResponse {
	return DecisionResponse{Admitted: d.Admitted, Reason: d.Reason, Warnings: d.Warnings}
}

func candidateFromRequest(clinicID, practitionerID, date, startTime string, subSlot any, treatment string) (scheduling.Candidate, string) {
	cid, err := uuid.Parse(clinicID)
	if err != nil {
		return scheduling.Candidate{}, "clinic_id must be a valid UUID"
	}
	pid, err := uuid.Parse(practitionerID)
	if err != nil {
		return scheduling.Candidate{}, "practitioner_id must be a valid UUID"
	}
	if _, err := time.Parse(scheduling.DateLayout, date); err != nil {
		return scheduling.Candidate{}, "date must be YYYY-MM-DD"
	}

	return scheduling.Candidate{
		SlotKey: scheduling.SlotKey{
			ClinicID:       cid,
			PractitionerID: pid,
			Date:           date,
			StartTime:      scheduling.NormalizeTime(startTime),
			SubSlot:        scheduling.NormalizeSubSlot(subSlot),
		},
		TreatmentType: scheduling.TreatmentType(treatment),
	}, ""
}

func bookAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		candidate, problem := candidateFromRequest(req.ClinicID, req.PractitionerID, req.Date, req.StartTime, req.SubSlot, req.TreatmentType)
		if problem != "" {
			writeError(w, http.StatusBadRequest, "invalid_request", problem)
			return
		}

		var patientID *uuid.UUID
		if req.PatientID != "" {
			id, err := uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			patientID = &id
		}

		appt, decision, err := svc.Book(r.Context(), candidate, patientID, req.Notes)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if appt == nil {
			writeJSON(w, http.StatusUnprocessableEntity, decisionResponse(decision))
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func checkAdmissionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		candidate, problem := candidateFromRequest(req.ClinicID, req.PractitionerID, req.Date, req.StartTime, req.SubSlot, req.TreatmentType)
		if problem != "" {
			writeError(w, http.StatusBadRequest, "invalid_request", problem)
			return
		}

		decision, err := svc.CheckAdmission(r.Context(), candidate)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse(decision))
	}
}

func moveAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req MoveAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		candidate, problem := candidateFromRequest(req.ClinicID, req.PractitionerID, req.Date, req.StartTime, req.SubSlot, "")
		if problem != "" {
			writeError(w, http.StatusBadRequest, "invalid_request", problem)
			return
		}

		appt, decision, err := svc.Move(r.Context(), id, candidate.SlotKey)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if appt == nil {
			writeJSON(w, http.StatusUnprocessableEntity, decisionResponse(decision))
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func transitionHandler(fn func(r *http.Request, id uuid.UUID) (*scheduling.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := fn(r, id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func dayViewHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		practitionerID, err := uuid.Parse(r.URL.Query().Get("practitioner_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}
		date := r.URL.Query().Get("date")
		if _, err := time.Parse(scheduling.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.DayView(r.Context(), clinicID, practitionerID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, appointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// slotGridHandler renders the day timeline the desk works from: one column per
// workday slot, with free capacity per column.
func slotGridHandler(svc *scheduling.Service, workdayStart, workdayEnd string, slotMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		practitionerID, err := uuid.Parse(r.URL.Query().Get("practitioner_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}
		date := r.URL.Query().Get("date")
		if _, err := time.Parse(scheduling.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.DayView(r.Context(), clinicID, practitionerID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		grid := scheduling.BuildDayGrid(workdayStart, workdayEnd, slotMinutes, appts)
		resp := make([]SlotColumnResponse, 0, len(grid))
		for _, col := range grid {
			c := SlotColumnResponse{
				StartTime:    col.StartTime,
				Free:         col.Free,
				Appointments: make([]AppointmentResponse, 0, len(col.Appointments)),
			}
			for i := range col.Appointments {
				c.Appointments = append(c.Appointments, appointmentResponse(&col.Appointments[i]))
			}
			resp = append(resp, c)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createExceptionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateExceptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clinicID, err := uuid.Parse(req.ClinicID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}

		exType := scheduling.ExceptionType(req.Type)
		switch exType {
		case scheduling.ExceptionClinicClosed, scheduling.ExceptionPractitionerBlock, scheduling.ExceptionExtendedHours:
		default:
			writeError(w, http.StatusBadRequest, "invalid_exception_type", "type must be clinic_closed, practitioner_block or extended_hours")
			return
		}

		e := scheduling.ScheduleException{
			ClinicID: clinicID,
			Date:     req.Date,
			Type:     exType,
			Reason:   req.Reason,
		}
		if req.PractitionerID != nil {
			pid, err := uuid.Parse(*req.PractitionerID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
				return
			}
			e.PractitionerID = &pid
		}
		if req.FromTime != nil && req.ToTime != nil {
			from := scheduling.NormalizeTime(*req.FromTime)
			to := scheduling.NormalizeTime(*req.ToTime)
			e.FromTime = &from
			e.ToTime = &to
		}

		created, err := svc.CreateException(r.Context(), e, req.ToDate)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ExceptionResponse, 0, len(created))
		for _, c := range created {
			resp = append(resp, exceptionResponse(c))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func exceptionResponse(e scheduling.ScheduleException) ExceptionResponse {
	return ExceptionResponse{
		ID:             e.ID,
		ClinicID:       e.ClinicID,
		Date:           e.Date,
		Type:           string(e.Type),
		PractitionerID: e.PractitionerID,
		FromTime:       e.FromTime,
		ToTime:         e.ToTime,
		Reason:         e.Reason,
		CreatedAt:      e.CreatedAt,
	}
}

func listExceptionsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		from, to, problem := dateRangeFromQuery(r)
		if problem != "" {
			writeError(w, http.StatusBadRequest, "invalid_date_range", problem)
			return
		}

		exceptions, err := svc.ListExceptions(r.Context(), clinicID, from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]ExceptionResponse, 0, len(exceptions))
		for _, e := range exceptions {
			resp = append(resp, exceptionResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteExceptionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_exception_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteException(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func importHolidaysHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportHolidaysRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var clinicID *uuid.UUID
		if req.ClinicID != "" {
			id, err := uuid.Parse(req.ClinicID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
				return
			}
			clinicID = &id
		}

		imported, err := svc.ImportHolidays(r.Context(), clinicID, req.Year)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ImportHolidaysResponse{Imported: imported})
	}
}

func listHolidaysHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		from, to, problem := dateRangeFromQuery(r)
		if problem != "" {
			writeError(w, http.StatusBadRequest, "invalid_date_range", problem)
			return
		}

		holidays, err := svc.ListHolidays(r.Context(), clinicID, from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]HolidayResponse, 0, len(holidays))
		for _, h := range holidays {
			resp = append(resp, HolidayResponse{ID: h.ID, ClinicID: h.ClinicID, Date: h.Date, Name: h.Name})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func sweepHandler(sweeper *scheduling.Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := sweeper.Sweep(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "sweep_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SweepResponse{Transitioned: n})
	}
}

func dateRangeFromQuery(r *http.Request) (from, to, problem string) {
	from = r.URL.Query().Get("from")
	to = r.URL.Query().Get("to")
	if _, err := time.Parse(scheduling.DateLayout, from); err != nil {
		return "", "", "from must be YYYY-MM-DD"
	}
	if _, err := time.Parse(scheduling.DateLayout, to); err != nil {
		return "", "", "to must be YYYY-MM-DD"
	}
	return from, to, ""
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrExceptionNotFound):
		writeError(w, http.StatusNotFound, "exception_not_found", err.Error())
	case errors.Is(err, scheduling.ErrUnknownTreatment):
		writeError(w, http.StatusBadRequest, "unknown_treatment", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrSlotTakenConcurrently):
		// Normally swallowed by the service's re-decision; kept distinct in
		// case it leaks through another path.
		writeError(w, http.StatusConflict, "slot_taken_concurrently", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
