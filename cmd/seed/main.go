package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/patient"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

var departments = []string{
	"Dermatology",
	"Cardiology",
	"General Medicine",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var windows = []string{
	"09:00 AM - 01:00 PM",
	"10:00 AM - 05:00 PM",
	"02:00 PM - 06:00 PM",
}

var workdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	if err := db.MigrateUp(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, 40, cfg.AppointmentDuration); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000, cfg.PhoneRegion); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

// seedDoctors inserts doctors with a weekday slot template. Every fifth
// doctor is a walk-in clinic with a capacity instead of slots.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int, step time.Duration) error {
	log.Printf("seeding %d doctors", count)

	return db.InTx(ctx, pool, func(tx pgx.Tx) error {
		slots := availability.NewPgRepository(tx)

		for i := 0; i < count; i++ {
			name := gofakeit.FirstName() + " " + gofakeit.LastName()
			dept := departments[gofakeit.Number(0, len(departments)-1)]
			email := strings.ToLower(fmt.Sprintf("%s.%d@clinic.example", strings.ReplaceAll(name, " ", "."), i))

			if i%5 == 4 {
				if _, err := tx.Exec(ctx, `
					INSERT INTO doctors (name, department, email, capacity)
					VALUES ($1, $2, $3, $4)
				`, name, dept, email, gofakeit.Number(5, 20)); err != nil {
					return err
				}
				continue
			}

			window := windows[gofakeit.Number(0, len(windows)-1)]
			times, err := availability.ExpandWindow(window, step)
			if err != nil {
				return err
			}

			var id int64
			if err := tx.QueryRow(ctx, `
				INSERT INTO doctors (name, department, email, available_timings)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, name, dept, email, window).Scan(&id); err != nil {
				return err
			}

			for _, day := range workdays {
				for _, at := range times {
					s := availability.Slot{DoctorID: id, Day: day, Time: at, Open: true}
					if err := slots.UpsertSlot(ctx, s); err != nil {
						return err
					}
				}
			}
		}

		log.Println("doctors seeded")
		return nil
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, region string) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		err := db.InTx(ctx, pool, func(tx pgx.Tx) error {
			repo := patient.NewPgRepository(tx)
			for i := offset; i < end; i++ {
				dob := gofakeit.DateRange(
					time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
				)
				p := &patient.Patient{
					FullName: gofakeit.Name(),
					DOB:      time.Date(dob.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, time.UTC),
					Phone:    textnorm.NormalizePhoneRegion("9"+gofakeit.Numerify("#########"), region),
					Status:   patient.StatusActive,
				}
				if _, err := repo.Create(ctx, p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
