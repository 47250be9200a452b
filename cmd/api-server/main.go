package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/doctor"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/notify"
	"github.com/hackgods/clinic-scheduling/internal/observability/metrics"
	"github.com/hackgods/clinic-scheduling/internal/observability/tracing"
	"github.com/hackgods/clinic-scheduling/internal/patient"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("timezone", cfg.Location.String()))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(rootCtx, tracing.Config{
		ServiceName:    "clinic-scheduling",
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
	})
	if err != nil {
		logger.Fatal("tracing init error", zap.Error(err))
	}

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.DefaultPoolConfig())
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	var (
		locker     redisclient.Locker = redisclient.NoopLocker{}
		redisProbe api.Pinger
	)
	if cfg.SlotLockEnabled {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
		redisProbe = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("connected to Redis", zap.Duration("lock_ttl", cfg.LockTTL))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	roster := doctor.NewPgRepository(pgPool)
	opts := []appointment.Option{
		appointment.WithLogger(logger.Named("appointment")),
		appointment.WithMetrics(m),
	}

	if cfg.SMSEnabled() {
		sms := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger.Named("twilio"),
			notify.WithTwilioBreaker(notify.NewBreaker(notify.DefaultBreakerConfig("twilio"), logger)))
		opts = append(opts, appointment.WithSMS(sms))
	} else {
		logger.Warn("twilio credentials missing, SMS disabled")
	}

	if cfg.GoogleCredentialsFile != "" {
		cal, err := notify.NewGoogleCalendar(rootCtx, cfg.GoogleCredentialsFile, cfg.Location,
			notify.NewBreaker(notify.DefaultBreakerConfig("google-calendar"), logger), logger.Named("calendar"))
		if err != nil {
			logger.Fatal("google calendar init error", zap.Error(err))
		}
		opts = append(opts, appointment.WithCalendar(cal))
	} else {
		logger.Warn("google credentials missing, calendar sync disabled")
	}

	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool, cfg.Location),
		roster,
		locker,
		cfg,
		opts...,
	)

	router := api.NewRouter(api.RouterConfig{
		Scheduler:      svc,
		Directory:      doctor.NewMatcher(roster),
		Availability:   availability.NewResolver(availability.NewPgRepository(pgPool), cfg.Location),
		Patients:       patient.NewService(patient.NewPgRepository(pgPool), cfg.PhoneRegion, logger.Named("patient")),
		Postgres:       pgPool,
		Redis:          redisProbe,
		Metrics:        m,
		MetricsHandler: api.DefaultMetricsHandler(),
		Logger:         logger,
		Env:            cfg.Env,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown error", zap.Error(err))
	}
}
