package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper transitions scheduled appointments whose day has passed into the
// terminal no_show status. The transition is conditional on the row still
// being scheduled, so the sweep is idempotent and safe to run concurrently
// with itself: interleaved runs converge to the same state, at worst with
// duplicate no-op writes.
type Sweeper struct {
	appointments AppointmentStore
	loc          *time.Location
	now          func() time.Time
	log          zerolog.Logger

	// CutoffTime mirrors the auto_mark_no_show_time clinic setting. It is
	// loaded and validated but marking currently happens at day rollover
	// (date < today), not at the intraday cutoff.
	CutoffTime string
}

func NewSweeper(appointments AppointmentStore, loc *time.Location, cutoffTime string, log zerolog.Logger) *Sweeper {
	if loc == nil {
		loc = time.UTC
	}
	return &Sweeper{
		appointments: appointments,
		loc:          loc,
		now:          time.Now,
		log:          log.With().Str("component", "sweeper").Logger(),
		CutoffTime:   NormalizeTime(cutoffTime),
	}
}

// Sweep marks every scheduled appointment dated before the clinic-local today
// as no_show, in one batch, and returns the number of rows transitioned.
// Running it twice with no intervening day change transitions zero rows the
// second time.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	today := s.now().In(s.loc).Format(DateLayout)

	start := time.Now()
	n, err := s.appointments.MarkNoShowsBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("mark no-shows before %s: %w", today, err)
	}

	s.log.Info().
		Str("before", today).
		Int64("transitioned", n).
		Dur("took", time.Since(start)).
		Msg("no-show sweep complete")

	return n, nil
}

// Run executes one sweep immediately and then on every tick until the context
// is cancelled. Errors are logged and retried naturally on the next trigger;
// the sweeper performs no retries of its own.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := s.Sweep(runCtx); err != nil {
		s.log.Error().Err(err).Msg("sweep run failed")
	}
}
