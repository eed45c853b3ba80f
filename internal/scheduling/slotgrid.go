package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SubSlotsPerBlock is how many concurrent positions one time block holds.
const SubSlotsPerBlock = 5

// SlotColumn is one column of the front desk's day timeline: a start time and
// the appointments occupying it, keyed by sub-slot.
type SlotColumn struct {
	StartTime    string
	Appointments []Appointment
	Free         int
}

// BuildDayGrid lays a day's appointments onto the workday timeline. Columns run
// from workdayStart (inclusive) to workdayEnd (exclusive) every stepMinutes.
// Appointments outside the grid (extended hours, legacy rows at odd times) get
// trailing columns of their own so nothing disappears from the view.
func BuildDayGrid(workdayStart, workdayEnd string, stepMinutes int, appts []Appointment) []SlotColumn {
	if stepMinutes <= 0 {
		stepMinutes = 30
	}
	start := timeToMinutes(NormalizeTime(workdayStart))
	end := timeToMinutes(NormalizeTime(workdayEnd))

	byTime := make(map[string][]Appointment, len(appts))
	for _, a := range appts {
		t := NormalizeTime(a.StartTime)
		byTime[t] = append(byTime[t], a)
	}

	var grid []SlotColumn
	seen := make(map[string]bool)
	for m := start; m < end; m += stepMinutes {
		t := minutesToTime(m)
		grid = append(grid, newColumn(t, byTime[t]))
		seen[t] = true
	}

	var extra []string
	for t := range byTime {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	// canonical HH:mm sorts chronologically
	sort.Strings(extra)
	for _, t := range extra {
		grid = append(grid, newColumn(t, byTime[t]))
	}

	return grid
}

func newColumn(t string, appts []Appointment) SlotColumn {
	occupied := 0
	for _, a := range appts {
		if a.Status != StatusCancelled {
			occupied++
		}
	}
	free := SubSlotsPerBlock - occupied
	if free < 0 {
		free = 0
	}
	return SlotColumn{StartTime: t, Appointments: appts, Free: free}
}

func timeToMinutes(t string) int {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}

func minutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
