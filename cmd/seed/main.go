package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicID := uuid.New()
	log.Printf("seeding clinic %s", clinicID)

	practitioners, err := seedPractitioners(context.Background(), pool, clinicID, 8)
	if err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, clinicID, practitioners); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedHolidays(context.Background(), pool); err != nil {
		log.Fatalf("seed holidays: %v", err)
	}
	if err := seedExceptions(context.Background(), pool, clinicID, practitioners); err != nil {
		log.Fatalf("seed exceptions: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d practitioners", count)

	specialties := []string{
		"Kinesiología",
		"Fisiatría",
		"Traumatología",
		"RPG",
		"Drenaje linfático",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, clinic_id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, clinicID, name, specialty)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("practitioners seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}

// seedAvailability gives most practitioners a morning and an afternoon window
// Monday through Friday, and leaves the last one unconfigured to exercise the
// fail-open path.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, practitioners []uuid.UUID) error {
	log.Println("seeding availability windows")

	repo := scheduling.NewPgRepository(pool)

	for i, pid := range practitioners {
		if i == len(practitioners)-1 {
			continue
		}
		for wd := time.Monday; wd <= time.Friday; wd++ {
			for _, w := range [][2]string{{"08:00", "12:00"}, {"14:00", "18:00"}} {
				_, err := repo.CreateWindow(ctx, scheduling.AvailabilityWindow{
					ClinicID:       clinicID,
					PractitionerID: pid,
					Weekday:        wd,
					From:           w[0],
					To:             w[1],
				})
				if err != nil {
					return err
				}
			}
		}
	}

	log.Println("availability windows seeded")
	return nil
}

// seedExceptions creates a clinic closure next week and a morning block for the
// first practitioner the day after, so the demo calendar has both rejection
// paths visible.
func seedExceptions(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, practitioners []uuid.UUID) error {
	log.Println("seeding schedule exceptions")

	repo := scheduling.NewPgRepository(pool)

	closureDate := time.Now().AddDate(0, 0, 7).Format(scheduling.DateLayout)
	_, err := repo.CreateException(ctx, scheduling.ScheduleException{
		ClinicID: clinicID,
		Date:     closureDate,
		Type:     scheduling.ExceptionClinicClosed,
		Reason:   "jornada institucional",
	})
	if err != nil {
		return err
	}

	if len(practitioners) > 0 {
		from, to := "08:00", "12:00"
		blockDate := time.Now().AddDate(0, 0, 8).Format(scheduling.DateLayout)
		_, err = repo.CreateException(ctx, scheduling.ScheduleException{
			ClinicID:       clinicID,
			Date:           blockDate,
			Type:           scheduling.ExceptionPractitionerBlock,
			PractitionerID: &practitioners[0],
			FromTime:       &from,
			ToTime:         &to,
			Reason:         "congreso de kinesiología",
		})
		if err != nil {
			return err
		}
	}

	log.Println("schedule exceptions seeded")
	return nil
}

func seedHolidays(ctx context.Context, pool *pgxpool.Pool) error {
	year := time.Now().Year()
	log.Printf("importing national holidays for %d", year)

	repo := scheduling.NewPgRepository(pool)
	n, err := repo.ImportHolidays(ctx, scheduling.ArgentineHolidays(year, nil))
	if err != nil {
		return err
	}

	log.Printf("holidays imported: %d", n)
	return nil
}
