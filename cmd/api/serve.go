package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-desk/internal/handler/appointment"
	"github.com/jwalitptl/clinic-desk/internal/handler/chart"
	"github.com/jwalitptl/clinic-desk/internal/handler/health"
	"github.com/jwalitptl/clinic-desk/internal/handler/patient"
	"github.com/jwalitptl/clinic-desk/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-desk/internal/handler/visit"
	"github.com/jwalitptl/clinic-desk/internal/middleware"
	"github.com/jwalitptl/clinic-desk/internal/router"
	appointmentService "github.com/jwalitptl/clinic-desk/internal/service/appointment"
	patientService "github.com/jwalitptl/clinic-desk/internal/service/patient"
	"github.com/jwalitptl/clinic-desk/internal/service/visitdetail"
	"github.com/jwalitptl/clinic-desk/internal/service/visitform"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	cfg := a.cfg
	log := a.logger

	if err := validator.RegisterGin(); err != nil {
		return err
	}
	loc, err := cfg.Clinic.Location()
	if err != nil {
		return err
	}

	// Initialize services
	patientSvc := patientService.NewService(a.patients, a.visits, log)
	appointmentSvc := appointmentService.NewService(a.appointments, a.doctors, loc, log)
	forms := visitform.NewController(a.patients, a.visits, a.store, a.metrics, log)
	charts := visitdetail.NewManager(a.patients, a.visits, cfg.Session.TTL, a.metrics, log)

	// Initialize handlers
	var metricsH *prometheus.Handler
	if cfg.Metrics.Enabled {
		metricsH = prometheus.New(cfg.Metrics.Namespace, a.registry, a.registry)
	}
	healthH := health.NewHandler(map[string]health.Pinger{"session store": a.store})

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORS.AllowedOrigins
	if len(cfg.CORS.AllowedMethods) > 0 {
		cors.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		cors.AllowHeaders = cfg.CORS.AllowedHeaders
	}

	r := router.NewRouter(log, healthH, metricsH, router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       cors,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MetricsPath:      cfg.Metrics.Path,
	},
		patient.NewHandler(patientSvc),
		visit.NewHandler(forms, a.printer()),
		chart.NewHandler(charts),
		appointment.NewHandler(appointmentSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("upstream", cfg.Upstream.BaseURL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}
