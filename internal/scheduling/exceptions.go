package scheduling

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BlockEntry is the normalized shape shared by schedule exceptions and
// holidays inside the date index. A holiday becomes a clinic_closed entry
// carrying the holiday name as its reason.
type BlockEntry struct {
	Type           ExceptionType
	PractitionerID *uuid.UUID
	FromTime       *string
	ToTime         *string
	Reason         string
}

// BlockIndex maps a calendar date to the block entries on that date. It is a
// plain value rebuilt from the latest fetched rows on every invalidation;
// nothing mutates it in place.
type BlockIndex map[string][]BlockEntry

type BlockResult struct {
	Blocked bool
	Reason  string
}

// BuildBlockIndex folds exceptions and holidays into one date-indexed
// multimap.
func BuildBlockIndex(exceptions []ScheduleException, holidays []Holiday) BlockIndex {
	idx := make(BlockIndex, len(exceptions)+len(holidays))
	for _, e := range exceptions {
		idx[e.Date] = append(idx[e.Date], BlockEntry{
			Type:           e.Type,
			PractitionerID: e.PractitionerID,
			FromTime:       e.FromTime,
			ToTime:         e.ToTime,
			Reason:         e.Reason,
		})
	}
	for _, h := range holidays {
		idx[h.Date] = append(idx[h.Date], BlockEntry{
			Type:   ExceptionClinicClosed,
			Reason: h.Name,
		})
	}
	return idx
}

// IsBlocked resolves the entries for one date. clinic_closed (and holidays)
// dominate: they block every practitioner all day. A practitioner_block with
// no time pair blocks its practitioner all day; with a pair it blocks starts
// in [FromTime, ToTime). extended_hours entries never block.
func (idx BlockIndex) IsBlocked(date, startTime string, practitionerID uuid.UUID) BlockResult {
	entries := idx[date]

	for _, e := range entries {
		if e.Type == ExceptionClinicClosed {
			return BlockResult{Blocked: true, Reason: e.Reason}
		}
	}

	t := NormalizeTime(startTime)
	for _, e := range entries {
		if e.Type != ExceptionPractitionerBlock {
			continue
		}
		if e.PractitionerID == nil || *e.PractitionerID != practitionerID {
			continue
		}
		if e.FromTime == nil || e.ToTime == nil {
			return BlockResult{Blocked: true, Reason: e.Reason}
		}
		if t >= NormalizeTime(*e.FromTime) && t < NormalizeTime(*e.ToTime) {
			return BlockResult{Blocked: true, Reason: e.Reason}
		}
	}

	return BlockResult{}
}

// ExceptionResolver caches a BlockIndex for the date range it was last asked
// about and rebuilds it after an invalidation signal or when a query falls
// outside the cached range. The cache is advisory; the index itself stays a
// pure function of the fetched rows.
type ExceptionResolver struct {
	exceptions ExceptionStore
	holidays   HolidayStore

	mu       sync.Mutex
	gen      uint64
	clinicID uuid.UUID
	from, to string
	index    BlockIndex
	stale    bool
}

func NewExceptionResolver(exceptions ExceptionStore, holidays HolidayStore) *ExceptionResolver {
	return &ExceptionResolver{
		exceptions: exceptions,
		holidays:   holidays,
		stale:      true,
	}
}

// Invalidate marks the cached index stale. Wired to the exceptions-changed
// notification channel so one operator's edit is visible to the others' next
// admission check.
func (r *ExceptionResolver) Invalidate() {
	r.mu.Lock()
	r.stale = true
	r.gen++
	r.mu.Unlock()
}

// IsBlocked answers whether the given date/time is blocked for the
// practitioner at the clinic, refreshing the index if needed.
func (r *ExceptionResolver) IsBlocked(ctx context.Context, clinicID uuid.UUID, date, startTime string, practitionerID uuid.UUID) (BlockResult, error) {
	idx, err := r.indexFor(ctx, clinicID, date)
	if err != nil {
		return BlockResult{}, err
	}
	return idx.IsBlocked(date, startTime, practitionerID), nil
}

func (r *ExceptionResolver) indexFor(ctx context.Context, clinicID uuid.UUID, date string) (BlockIndex, error) {
	r.mu.Lock()
	if !r.stale && r.clinicID == clinicID && r.from <= date && date <= r.to {
		idx := r.index
		r.mu.Unlock()
		return idx, nil
	}
	startGen := r.gen
	r.mu.Unlock()

	exceptions, err := r.exceptions.ExceptionsInRange(ctx, clinicID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	holidays, err := r.holidays.HolidaysInRange(ctx, clinicID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	idx := BuildBlockIndex(exceptions, holidays)

	r.mu.Lock()
	r.clinicID = clinicID
	r.from, r.to = date, date
	r.index = idx
	// An invalidation that landed while the rows were in flight must not be
	// lost: the rebuilt index may predate the edit, so it stays stale and the
	// next query refetches.
	if r.gen == startGen {
		r.stale = false
	}
	r.mu.Unlock()

	return idx, nil
}
