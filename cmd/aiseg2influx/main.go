package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/aiseg/collectors"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/breaker"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/config"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/logging"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/model"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/supervisor"
	"github.com/sawadashota/aiseg2-influxdb2-forwarder/internal/writer"
)

// version is set at build time via -ldflags.
var version = "dev"

var metricsAddr string

func main() {
	root := &cobra.Command{
		Use:   "aiseg2influx",
		Short: "Forward AiSEG2 home energy readings into InfluxDB",
		RunE:  runServer,
	}
	root.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "address to serve Prometheus metrics on")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Component: "aiseg2influx"})
	logger.Info().Str("version", version).Msg("starting")

	client := aiseg.NewClient(cfg.AisegURL, cfg.AisegUser, cfg.AisegPassword, cfg.CollectorTaskTimeout)
	w := writer.New(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	defer w.Close()

	breakerConfig := breaker.Config{
		FailureThreshold:         cfg.BreakerFailureThreshold,
		RecoveryTimeout:          cfg.BreakerRecoveryTimeout,
		HalfOpenSuccessThreshold: cfg.BreakerHalfOpenSuccessThreshold,
		HalfOpenFailureThreshold: cfg.BreakerHalfOpenFailureThreshold,
	}

	statusCollectors := []collectors.Collector{
		collectors.NewPowerCollector(client, collectors.SystemClock{}),
		collectors.NewClimateCollector(client, collectors.SystemClock{}),
	}
	statusBreakers := make([]*breaker.Breaker, len(statusCollectors))
	for i, c := range statusCollectors {
		statusBreakers[i] = breaker.New(string(c.ID()), breakerConfig, breaker.SystemClock{})
	}

	dailyTotal := collectors.NewDailyTotalCollector(client, collectors.SystemClock{})
	circuitDailyTotal := collectors.NewCircuitDailyTotalCollector(client, collectors.SystemClock{})
	totalCollectors := []collectors.Collector{dailyTotal, circuitDailyTotal}
	totalBreakers := make([]*breaker.Breaker, len(totalCollectors))
	for i, c := range totalCollectors {
		totalBreakers[i] = breaker.New(string(c.ID()), breakerConfig, breaker.SystemClock{})
	}

	statusRunner := supervisor.NewCadenceRunner(model.StatusCadence, cfg.StatusInterval, cfg.CollectorTaskTimeout, statusCollectors, statusBreakers, w)
	totalRunner := supervisor.NewCadenceRunner(model.TotalCadence, cfg.TotalInterval, cfg.CollectorTaskTimeout, totalCollectors, totalBreakers, w)
	sup := supervisor.New(statusRunner, totalRunner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
		cancel()
	}()

	stopMetrics := startMetricsServer(ctx, metricsAddr)
	defer stopMetrics()

	// Backfill runs once, detached from the Total cadence's recurring tick
	// loop, so a slow device does not truncate history to whatever fits in
	// COLLECTOR_TASK_TIMEOUT_SECONDS (spec §9's detached-task option).
	go supervisor.RunBackfill(ctx, cfg.TotalInitialDays, collectors.SystemClock{}, w, model.TotalCadence, dailyTotal, circuitDailyTotal)

	if err := sup.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("supervisor exited with error")
		return err
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// startMetricsServer serves Prometheus metrics on addr until ctx is
// cancelled. The returned function blocks until the server has finished
// shutting down.
func startMetricsServer(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("failed to shut down metrics server cleanly")
		}
		close(done)
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("metrics server stopped unexpectedly")
		}
	}()

	return func() { <-done }
}
