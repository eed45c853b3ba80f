package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/frontdesk/internal/db"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

// Booking race simulator: many workers hammer the same day's blocks so the
// advisory admission checks race each other, and the report shows how many
// double bookings the unique index turned into clean rejections.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	Date        string
	PostgresDSN string
}

type DataPool struct {
	ClinicID      uuid.UUID
	Practitioners []uuid.UUID
	Patients      []uuid.UUID
}

type Metrics struct {
	Total    int64
	Created  int64
	Rejected int64
	Errors   int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadDataPool(context.Background(), pool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("simulating against %d practitioners, %d patients, date %s",
		len(data.Practitioners), len(data.Patients), cfg.Date)

	var metrics Metrics
	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker(runCtx, cfg, data, &metrics, workerID)
		}(i)
	}
	wg.Wait()

	log.Printf("simulation done: total=%d created=%d rejected=%d errors=%d",
		atomic.LoadInt64(&metrics.Total),
		atomic.LoadInt64(&metrics.Created),
		atomic.LoadInt64(&metrics.Rejected),
		atomic.LoadInt64(&metrics.Errors),
	)
}

func worker(ctx context.Context, cfg SimConfig, data *DataPool, m *Metrics, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	client := &http.Client{Timeout: 5 * time.Second}

	// A narrow set of blocks maximizes slot contention.
	times := []string{"09:00", "09:30", "10:00", "10:30"}
	treatments := []string{"fkt", "magnetoterapia", "laser", "rpg"}

	for ctx.Err() == nil {
		req := map[string]any{
			"clinic_id":       data.ClinicID.String(),
			"practitioner_id": data.Practitioners[rng.Intn(len(data.Practitioners))].String(),
			"date":            cfg.Date,
			"start_time":      times[rng.Intn(len(times))],
			"sub_slot":        rng.Intn(5) + 1,
			"patient_id":      data.Patients[rng.Intn(len(data.Patients))].String(),
			"treatment_type":  treatments[rng.Intn(len(treatments))],
		}

		body, _ := json.Marshal(req)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
		if err != nil {
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&m.Errors, 1)
			}
			continue
		}
		resp.Body.Close()

		atomic.AddInt64(&m.Total, 1)
		switch resp.StatusCode {
		case http.StatusCreated:
			atomic.AddInt64(&m.Created, 1)
		case http.StatusUnprocessableEntity, http.StatusConflict:
			atomic.AddInt64(&m.Rejected, 1)
		default:
			atomic.AddInt64(&m.Errors, 1)
		}
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	data := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id, clinic_id FROM practitioners LIMIT 4`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, clinicID uuid.UUID
		if err := rows.Scan(&id, &clinicID); err != nil {
			return nil, err
		}
		data.ClinicID = clinicID
		data.Practitioners = append(data.Practitioners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	patientRows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT 200`)
	if err != nil {
		return nil, err
	}
	defer patientRows.Close()
	for patientRows.Next() {
		var id uuid.UUID
		if err := patientRows.Scan(&id); err != nil {
			return nil, err
		}
		data.Patients = append(data.Patients, id)
	}
	if err := patientRows.Err(); err != nil {
		return nil, err
	}

	if len(data.Practitioners) == 0 || len(data.Patients) == 0 {
		return nil, fmt.Errorf("no seed data found, run cmd/seed first")
	}
	return data, nil
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		Date:        getEnv("SIM_DATE", time.Now().AddDate(0, 0, 7).Format(scheduling.DateLayout)),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
