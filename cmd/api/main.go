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

	"github.com/vetlink/citas-api/config"
	"github.com/vetlink/citas-api/internal/email"
	"github.com/vetlink/citas-api/internal/handler"
	appointmenthandler "github.com/vetlink/citas-api/internal/handler/appointment"
	"github.com/vetlink/citas-api/internal/middleware"
	"github.com/vetlink/citas-api/internal/repository/postgres"
	"github.com/vetlink/citas-api/internal/router"
	appointmentservice "github.com/vetlink/citas-api/internal/service/appointment"
	"github.com/vetlink/citas-api/pkg/auth"
	"github.com/vetlink/citas-api/pkg/logger"
	"github.com/vetlink/citas-api/pkg/messaging/redis"
	"github.com/vetlink/citas-api/pkg/metrics"
	"github.com/vetlink/citas-api/pkg/worker"
)

func main() {
	l := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		l.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		l.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("citas", "api")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	petRepo := postgres.NewPetRepository(db)
	traceRepo := postgres.NewTraceRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:       cfg.JWT.Secret,
		OwnerExpiry:  cfg.JWT.OwnerExpiry,
		ClinicExpiry: cfg.JWT.ClinicExpiry,
	})

	emailSvc := email.NewNoopService()
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	} else {
		l.Warn("smtp host not configured, email notifications disabled")
	}

	appointmentSvc := appointmentservice.NewService(
		appointmentRepo, petRepo, traceRepo, emailSvc, l, m)

	responder := handler.NewResponder(cfg.Server.ExposeErrors, l)
	authMw := middleware.NewAuthMiddleware(jwtSvc)
	healthHandler := handler.NewHealthHandler(db)
	appointmentHandler := appointmenthandler.NewHandler(appointmentSvc, responder)

	if err := appointmenthandler.RegisterValidations(); err != nil {
		l.Fatal(err, "failed to register validations")
	}

	engine := router.New(router.Dependencies{
		Config:             cfg,
		Logger:             l,
		AuthMiddleware:     authMw,
		HealthHandler:      healthHandler,
		AppointmentHandler: appointmentHandler,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(cfg.Redis, l.Zerolog())
		if err != nil {
			l.Fatal(err, "failed to connect to redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		}, l, m)
		go processor.Start(ctx)
	} else {
		l.Warn("redis url not configured, outbox events will not be published")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(err, "forced shutdown")
	}

	l.Info("server stopped")
}
