package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"medbook/internal/booking"
	"medbook/internal/config"
	"medbook/internal/database"
	"medbook/internal/dispatch"
	"medbook/internal/events"
	"medbook/internal/metrics"
	"medbook/internal/notify"
	"medbook/internal/reminders"
	"medbook/internal/schedule"
	"medbook/internal/server"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("MEDBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	var sink notify.Sink
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		sink = notify.NewRedisSink(rdb)
	} else {
		sink = notify.NewMemorySink()
	}

	dispatchCfg := dispatch.DefaultConfig()
	if cfg.Dispatch.RatePerSecond > 0 {
		dispatchCfg.Rate = cfg.Dispatch.RatePerSecond
	}
	if cfg.Dispatch.Burst > 0 {
		dispatchCfg.Burst = cfg.Dispatch.Burst
	}
	dispatcher := dispatch.New(dispatchCfg, &dispatch.LogEmailSender{Logger: &logger}, &dispatch.LogVoiceCaller{Logger: &logger}, &logger)

	remCfg := reminders.DefaultConfig()
	remCfg.FirstLead = cfg.ReminderFirstLead()
	remCfg.SecondLead = cfg.ReminderSecondLead()
	remCfg.VoiceLead = cfg.ReminderVoiceLead()
	scheduler := reminders.New(remCfg, db, dispatcher, &logger)
	defer scheduler.Stop()

	bus := events.NewBus()
	audit := auditSubscriber(ctx, db, &logger)
	bus.Subscribe(events.TypeAppointmentBooked, audit)
	bus.Subscribe(events.TypeAppointmentStatusChanged, audit)

	slots := schedule.NewService(db, &logger)
	bookings := booking.NewService(db, scheduler, dispatcher, sink, bus, &logger)
	statuses := booking.NewStatusMachine(db, scheduler, sink, bus, &logger)
	api := server.New(db, slots, bookings, statuses, &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		path, interval, retention := cfg.BackupSettings()
		go database.BackupLoop(ctx, cfg.Database.Path, database.BackupConfig{
			Path:      path,
			Interval:  interval,
			Retention: retention,
		}, &logger)
	}

	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.API.Port), Handler: api.Router()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.API.Port).Msg("scheduling engine started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("api server error")
	}
	logger.Info().Msg("shutting down")
}

// auditSubscriber records every booking and status change in the audit log.
func auditSubscriber(ctx context.Context, db *database.DB, logger *zerolog.Logger) events.Handler {
	return func(ev events.Event) error {
		entry := &database.AuditEntry{
			Actor:         "system",
			Action:        ev.Type,
			AppointmentID: ev.Appointment.ID,
			Detail: fmt.Sprintf("doctor=%s patient=%s date=%s time=%s status=%s",
				ev.Appointment.DoctorID, ev.Appointment.PatientID,
				ev.Appointment.Date, ev.Appointment.Time, ev.Appointment.Status),
		}
		if err := db.WriteAudit(ctx, entry); err != nil {
			logger.Error().Err(err).Str("appointment_id", ev.Appointment.ID).Msg("audit write failed")
			return err
		}
		return nil
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
