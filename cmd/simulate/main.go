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
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	CancelRatio  float64
	ReadRatio    float64
	PatientLimit int
	SlotLimit    int
	PostgresDSN  string
	Location     *time.Location
}

// Target is one bookable doctor slot on a concrete date.
type Target struct {
	DoctorName string
	Department string
	Date       time.Time
	Time       textnorm.TimeOfDay
}

type Booking struct {
	PatientID int64
	Target    Target
}

type DataPool struct {
	Patients []int64
	Targets  []Target
	mu       sync.Mutex
	bookings map[int64]Booking // latest booking per patient
}

func (dp *DataPool) AddBooking(b Booking) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings[b.PatientID] = b
}

// TakeRandomBooking removes and returns an arbitrary booking.
func (dp *DataPool) TakeRandomBooking() (Booking, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	for pid, b := range dp.bookings {
		delete(dp.bookings, pid)
		return b, true
	}
	return Booking{}, false
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeConflict
	outcomeError
)

// classify maps a response status to an outcome. raceStatus is the status a
// lost race produces for this operation, such as 409 on book; 0 means none.
// A status of 0 is a transport error.
func classify(status, raceStatus int) outcome {
	switch status {
	case http.StatusOK:
		return outcomeOK
	case 0:
		return outcomeError
	case raceStatus:
		return outcomeConflict
	default:
		return outcomeError
	}
}

type OperationMetrics struct {
	counts    [3]atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, o outcome) {
	om.counts[o].Add(1)

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Count(o outcome) int64 {
	return om.counts[o].Load()
}

func (om *OperationMetrics) Total() int64 {
	return om.Count(outcomeOK) + om.Count(outcomeConflict) + om.Count(outcomeError)
}

type LatencySummary struct {
	Avg, Min, Max, P50, P95 time.Duration
}

func (om *OperationMetrics) Summary() LatencySummary {
	om.mu.Lock()
	sorted := slices.Clone(om.latencies)
	om.mu.Unlock()

	if len(sorted) == 0 {
		return LatencySummary{}
	}
	slices.Sort(sorted)

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return LatencySummary{
		Avg: sum / time.Duration(len(sorted)),
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		P50: sorted[percentileIndex(len(sorted), 50)],
		P95: sorted[percentileIndex(len(sorted), 95)],
	}
}

func percentileIndex(n, pct int) int {
	return min(n*pct/100, n-1)
}

type Metrics struct {
	Booking OperationMetrics
	Cancel  OperationMetrics
	Latest  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d patients, %d slot targets", len(dataPool.Patients), len(dataPool.Targets))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   envOr("SIM_API_BASE_URL", "http://localhost:8080", parseString),
		Duration:     envOr("SIM_DURATION", 30*time.Second, time.ParseDuration),
		Workers:      envOr("SIM_WORKERS", 10, strconv.Atoi),
		BookingRatio: envOr("SIM_BOOKING_RATIO", 0.5, parseFloat),
		CancelRatio:  envOr("SIM_CANCEL_RATIO", 0.2, parseFloat),
		ReadRatio:    envOr("SIM_READ_RATIO", 0.3, parseFloat),
		PatientLimit: envOr("SIM_PATIENT_LIMIT", 1000, strconv.Atoi),
		SlotLimit:    envOr("SIM_SLOT_LIMIT", 500, strconv.Atoi),
		PostgresDSN:  baseCfg.PostgresDSN,
		Location:     baseCfg.Location,
	}

	total := cfg.BookingRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{bookings: make(map[int64]Booking)}

	rows, err := pool.Query(ctx, `
		SELECT id FROM patients WHERE status = 'active' LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	rows, err = pool.Query(ctx, `
		SELECT d.name, d.department, a.day_of_week, a.time_slot
		FROM doctor_availability a
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.is_available
		ORDER BY random()
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	today := time.Now().In(cfg.Location)
	for rows.Next() {
		var (
			t   Target
			day string
			at  pgtype.Time
		)
		if err := rows.Scan(&t.DoctorName, &t.Department, &day, &at); err != nil {
			rows.Close()
			return nil, err
		}
		wd, err := availability.ParseDayAbbrev(day)
		if err != nil {
			continue
		}
		t.Date = nextWeekday(today, wd)
		t.Time = textnorm.TimeOfDayFromMicros(at.Microseconds)
		dataPool.Targets = append(dataPool.Targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Targets) == 0 {
		return nil, fmt.Errorf("no open slots loaded")
	}

	return dataPool, nil
}

// nextWeekday returns the first date strictly after today that falls on wd.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio:
				s.doCancel(ctx)
			default:
				s.doLatest(ctx, rng)
			}
		}
	}
}

// post sends body as JSON and returns the status code, or 0 on a transport error.
func (s *Simulator) post(ctx context.Context, path string, body any, out any) int {
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	t := s.pool.Targets[rng.Intn(len(s.pool.Targets))]
	pid := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	status := s.post(ctx, "/appointments/book", api.BookAppointmentRequest{
		DoctorName: t.DoctorName,
		Date:       t.Date.Format("2006-01-02"),
		Time:       t.Time.Format12h(),
		PatientID:  api.PatientID(pid),
	}, nil)
	latency := time.Since(start)

	if status == http.StatusOK {
		s.pool.AddBooking(Booking{PatientID: pid, Target: t})
	}
	s.metrics.Booking.Record(latency, classify(status, http.StatusConflict))
}

func (s *Simulator) doCancel(ctx context.Context) {
	b, ok := s.pool.TakeRandomBooking()
	if !ok {
		return
	}

	start := time.Now()
	status := s.post(ctx, "/appointments/cancel", api.CancelAppointmentRequest{
		DoctorName: b.Target.DoctorName,
		Department: b.Target.Department,
		Date:       b.Target.Date.Format("2006-01-02"),
		Time:       b.Target.Time.Format12h(),
		PatientID:  api.PatientID(b.PatientID),
	}, nil)
	latency := time.Since(start)

	// A later booking by the same patient moves the appointment, so a 404
	// here is a lost race rather than a failure.
	s.metrics.Cancel.Record(latency, classify(status, http.StatusNotFound))
}

func (s *Simulator) doLatest(ctx context.Context, rng *rand.Rand) {
	pid := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	var resp api.LatestAppointmentResponse
	status := s.post(ctx, "/appointments/latest", api.LatestAppointmentRequest{PatientID: api.PatientID(pid)}, &resp)
	latency := time.Since(start)

	s.metrics.Latest.Record(latency, classify(status, 0))
}

func (s *Simulator) PrintReport() {
	rule := strings.Repeat("=", 80)
	fmt.Println("\n" + rule)
	fmt.Println("SIMULATION REPORT")
	fmt.Println(rule)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Book", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Latest", &s.metrics.Latest)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := om.Total()
	if total == 0 {
		return
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", om.Count(outcomeOK), pct(om.Count(outcomeOK)))
	if n := om.Count(outcomeConflict); n > 0 {
		fmt.Printf("  Lost races: %d (%.1f%%)\n", n, pct(n))
	}
	if n := om.Count(outcomeError); n > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", n, pct(n))
	}

	l := om.Summary()
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		l.Avg.Round(time.Millisecond), l.Min.Round(time.Millisecond), l.Max.Round(time.Millisecond),
		l.P50.Round(time.Millisecond), l.P95.Round(time.Millisecond))
	fmt.Println()
}

// envOr parses key with parse and falls back to def when it is unset or invalid.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		log.Printf("ignoring invalid %s=%q", key, v)
		return def
	}
	return parsed
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseString(s string) (string, error) { return s, nil }
