package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AvailabilityResult reports whether a start time falls inside the
// practitioner's recurring schedule. Configured is false when the practitioner
// has no windows at all, in which case Available is true: a clinic that never
// loaded schedules must not be blocked from booking.
type AvailabilityResult struct {
	Available  bool
	Configured bool
	Windows    []AvailabilityWindow // the requested weekday's windows
	Message    string
}

type AvailabilityResolver struct {
	store AvailabilityStore
}

func NewAvailabilityResolver(store AvailabilityStore) *AvailabilityResolver {
	return &AvailabilityResolver{store: store}
}

// IsAvailable answers "is this practitioner working at this clinic on this
// date at this time?". A window admits startTime iff it falls in [From, To):
// a window ending at 12:00 does not admit a 12:00 start.
func (r *AvailabilityResolver) IsAvailable(ctx context.Context, clinicID, practitionerID uuid.UUID, date, startTime string) (AvailabilityResult, error) {
	weekday, err := Weekday(date)
	if err != nil {
		return AvailabilityResult{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t := NormalizeTime(startTime)

	windows, err := r.store.WindowsForWeekday(ctx, clinicID, practitionerID, weekday)
	if err != nil {
		return AvailabilityResult{}, fmt.Errorf("load availability windows: %w", err)
	}

	if len(windows) == 0 {
		configured, err := r.store.HasAnyWindows(ctx, clinicID, practitionerID)
		if err != nil {
			return AvailabilityResult{}, fmt.Errorf("check configured availability: %w", err)
		}
		if !configured {
			return AvailabilityResult{Available: true, Configured: false}, nil
		}
		return AvailabilityResult{
			Available:  false,
			Configured: true,
			Message:    fmt.Sprintf("el profesional no atiende los %s", WeekdayNameES(weekday)),
		}, nil
	}

	for _, w := range windows {
		if t >= NormalizeTime(w.From) && t < NormalizeTime(w.To) {
			return AvailabilityResult{Available: true, Configured: true, Windows: windows}, nil
		}
	}

	return AvailabilityResult{
		Available:  false,
		Configured: true,
		Windows:    windows,
		Message:    fmt.Sprintf("fuera del horario del profesional (atiende: %s)", formatWindows(windows)),
	}, nil
}

func formatWindows(windows []AvailabilityWindow) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, fmt.Sprintf("%s–%s", NormalizeTime(w.From), NormalizeTime(w.To)))
	}
	return strings.Join(parts, ", ")
}
