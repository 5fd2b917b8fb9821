// cmd/reminder-service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"medical-reminders/internal/common/auth"
	"medical-reminders/internal/common/aws"
	"medical-reminders/internal/common/config"
	"medical-reminders/internal/common/database"
	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/common/observability"
	"medical-reminders/internal/events"
	"medical-reminders/internal/jobs/reminders"
	"medical-reminders/internal/jobs/welcome"
	"medical-reminders/internal/notify"
	"medical-reminders/internal/scheduler"
	"medical-reminders/internal/server"
	"medical-reminders/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("Starting reminder service", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// --- Backing services ---

	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(ctx, 5, 2*time.Second, func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	err = retryWithBackoff(ctx, 5, 2*time.Second, func() error {
		return redisClient.Ping(ctx)
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	sesClient, err := aws.NewSESClient(ctx, cfg.Mail.AWSRegion)
	if err != nil {
		zapLogger.Fatal("Failed to create SES client", zap.Error(err))
	}

	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	// --- Domain wiring ---

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		zapLogger.Fatal("Invalid scheduler timezone", zap.Error(err))
	}

	docStore := store.NewElasticStore(esClient.Client, cfg.Store.PageSize)
	appointments := store.NewAppointments(docStore, cfg.Store.AppointmentsCollection)
	patients := store.NewPatients(docStore, cfg.Store.PatientsCollection)

	dispatcher := notify.NewDispatcher(notify.Config{
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
	}, sesClient, log)

	if cfg.Mail.FromEmail == "" {
		log.Warn("No outbound mail identity configured, all notifications will be skipped", nil)
	}

	job := reminders.NewJob(appointments, patients, dispatcher, redisClient, reminders.Config{
		Location:    loc,
		Concurrency: cfg.Reminders.Concurrency,
		LockTTL:     time.Duration(cfg.Reminders.LockTTL) * time.Second,
	}, obs, log)

	listener := welcome.NewListener(dispatcher, redisClient,
		time.Duration(cfg.Events.DedupTTL)*time.Second, log)

	consumer := events.NewConsumer(redisClient.GetClient(), events.Config{
		Stream:       cfg.Events.Stream,
		Group:        cfg.Events.Group,
		Consumer:     cfg.Events.Consumer,
		BlockTimeout: config.GetDuration(cfg.Events.BlockTimeout),
	}, listener.HandlePatientCreated, log)

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Event consumer stopped", nil)
		}
	}()

	// --- Scheduler ---

	sched := scheduler.New(loc, job.Run, config.GetDuration(cfg.Reminders.Timeout), log)
	if err := sched.Schedule(cfg.Scheduler.CronSpec); err != nil {
		zapLogger.Fatal("Failed to schedule reminder job", zap.Error(err))
	}
	sched.Start()
	log.Info("Reminder schedule registered", map[string]interface{}{
		"cron_spec": cfg.Scheduler.CronSpec,
		"timezone":  cfg.Scheduler.Timezone,
	})

	// --- HTTP server ---

	ready := []server.ReadyChecker{
		func(ctx context.Context) error { return esClient.Info(ctx) },
		redisClient.Ping,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.New(keycloak, job, ready, log).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.GetDuration(cfg.Reminders.Timeout) + 10*time.Second,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed", nil)
	}
	sched.Stop()

	log.Info("Reminder service stopped", nil)
}

// retryWithBackoff retries op with exponentially growing delays. Used for
// backing-service connections that may come up after the service does.
func retryWithBackoff(ctx context.Context, attempts int, initialDelay time.Duration, op func() error) error {
	delay := initialDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
