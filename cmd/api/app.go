package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/config"
	"github.com/jwalitptl/clinic-desk/internal/email"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	"github.com/jwalitptl/clinic-desk/internal/repository/rest"
	"github.com/jwalitptl/clinic-desk/internal/service/printout"
	"github.com/jwalitptl/clinic-desk/internal/session"
	"github.com/jwalitptl/clinic-desk/pkg/logger"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

// app holds what both commands share.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	patients     repository.PatientRepository
	visits       repository.VisitRepository
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	store        session.VisitStore
	mailer       email.Sender
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	l := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	client := rest.NewClient(rest.Config{
		BaseURL:          cfg.Upstream.BaseURL,
		Timeout:          cfg.Upstream.Timeout,
		RetryCount:       cfg.Upstream.RetryCount,
		RetryWaitTime:    cfg.Upstream.RetryWaitTime,
		RetryMaxWaitTime: cfg.Upstream.RetryMaxWaitTime,
		BreakerFailures:  cfg.Upstream.BreakerFailures,
		BreakerTimeout:   cfg.Upstream.BreakerTimeout,
	}, m, l)

	store, err := session.New(ctx, session.Config{
		Backend:  cfg.Session.Backend,
		TTL:      cfg.Session.TTL,
		RedisURL: cfg.Session.RedisURL,
	}, m)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &app{
		cfg:          cfg,
		logger:       l,
		registry:     registry,
		metrics:      m,
		patients:     rest.NewPatientRepository(client),
		visits:       rest.NewVisitRepository(client),
		appointments: rest.NewAppointmentRepository(client),
		doctors:      rest.NewDoctorRepository(client),
		store:        store,
		mailer: email.NewSender(email.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}),
	}, nil
}

func (a *app) printer() *printout.Service {
	return printout.NewService(a.patients, a.visits, a.store, a.metrics, a.logger).WithMailer(a.mailer)
}
