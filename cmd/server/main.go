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

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/alpenava/nayax-bridge/internal/api"
	"github.com/alpenava/nayax-bridge/internal/config"
	"github.com/alpenava/nayax-bridge/internal/coordinator"
	"github.com/alpenava/nayax-bridge/internal/models"
	natsclient "github.com/alpenava/nayax-bridge/internal/nats"
	"github.com/alpenava/nayax-bridge/internal/registry"
	"github.com/alpenava/nayax-bridge/internal/storage"
)

type flags struct {
	actorID           string
	apiToken          string
	baseURL           string
	pollInterval      time.Duration
	discoveryInterval time.Duration
	firstDayOfWeek    string
	timezone          string
	includeRaw        bool

	dbPath      string
	httpAddr    string
	metricsAddr string
	natsURL     string
	traces      bool
	debug       bool
}

func main() {
	var f flags

	cmd := &cobra.Command{
		Use:   "nayax-bridge",
		Short: "Polls the Nayax Lynx API and publishes sale events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.actorID, "actor-id", os.Getenv("NAYAX_ACTOR_ID"), "Nayax actor (account) id")
	cmd.Flags().StringVar(&f.apiToken, "api-token", os.Getenv("NAYAX_API_TOKEN"), "Nayax API token")
	cmd.Flags().StringVar(&f.baseURL, "base-url", api.DefaultBaseURL, "Nayax API base URL")
	cmd.Flags().DurationVar(&f.pollInterval, "poll-interval", config.DefaultPollInterval, "sales poll interval (10s-300s)")
	cmd.Flags().DurationVar(&f.discoveryInterval, "discovery-interval", config.DefaultDiscoveryInterval, "machine discovery interval")
	cmd.Flags().StringVar(&f.firstDayOfWeek, "first-day-of-week", "monday", "first day of week for period aggregation")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "IANA timezone for period boundaries (default: system local)")
	cmd.Flags().BoolVar(&f.includeRaw, "include-raw", false, "include raw vendor records in sale events")
	cmd.Flags().StringVar(&f.dbPath, "db", "./data/badger", "Badger DB path")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", ":8080", "read API listen address")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address")
	cmd.Flags().StringVar(&f.natsURL, "nats-url", "", "NATS URL for sale events (empty: log only)")
	cmd.Flags().BoolVar(&f.traces, "traces", false, "emit OTel traces to stdout")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	log, err := buildLogger(f.debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	if f.traces {
		shutdown, err := setupTracing()
		if err != nil {
			return fmt.Errorf("tracing setup: %w", err)
		}
		defer shutdown()
	}

	store, err := storage.NewBadgerStore(f.dbPath)
	if err != nil {
		return fmt.Errorf("open badger store: %w", err)
	}
	defer store.Close()

	sink, closeSink, err := buildSink(f.natsURL, log)
	if err != nil {
		return fmt.Errorf("connect event sink: %w", err)
	}
	defer closeSink()

	client := api.NewClient(cfg.BaseURL, cfg.ActorID, cfg.APIToken, nil, log)
	defer client.Close()

	// Credentials are validated before the loop starts: an auth failure
	// here is a setup error, not a transient poll failure.
	if _, err := client.ValidateConnection(ctx); err != nil {
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("setup failed: %w", err)
		}
		log.Warn("initial connection check failed, continuing", zap.Error(err))
	}

	coord, err := coordinator.New(client, store, sink, registry.NewLogRegistry(log), cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- coord.Run(ctx)
	}()

	httpServer := &http.Server{
		Addr:    f.httpAddr,
		Handler: api.NewHTTPHandler(coord, log),
	}
	go func() {
		log.Info("read API listening", zap.String("addr", f.httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http listen", zap.Error(err))
		}
	}()

	metricsServer := &http.Server{Addr: f.metricsAddr}
	go func() {
		mux := http.NewServeMux()
		api.RegisterMetrics(mux)
		metricsServer.Handler = mux
		log.Info("metrics listening", zap.String("addr", f.metricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("metrics server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
		log.Info("shutdown initiated")
		cancel()
		<-errCh
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error("coordinator stopped", zap.Error(runErr))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics server shutdown error", zap.Error(err))
	}

	log.Info("shutdown complete")
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildConfig(f flags) (config.Config, error) {
	cfg := config.New()
	cfg.ActorID = f.actorID
	cfg.APIToken = f.apiToken
	cfg.BaseURL = f.baseURL
	cfg.PollInterval = f.pollInterval
	cfg.DiscoveryInterval = f.discoveryInterval
	cfg.IncludeRawData = f.includeRaw

	day, err := config.ParseWeekday(f.firstDayOfWeek)
	if err != nil {
		return cfg, err
	}
	cfg.FirstDayOfWeek = day

	if f.timezone != "" {
		loc, err := time.LoadLocation(f.timezone)
		if err != nil {
			return cfg, fmt.Errorf("load timezone: %w", err)
		}
		cfg.Location = loc
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func buildSink(natsURL string, log *zap.Logger) (coordinator.SaleSink, func(), error) {
	if natsURL == "" {
		return logSink{log: log}, func() {}, nil
	}
	pub, err := natsclient.NewPublisher(natsURL, log)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

// logSink is the fallback sale sink when no NATS URL is configured.
type logSink struct {
	log *zap.Logger
}

func (s logSink) PublishSale(_ context.Context, event models.SaleEvent) error {
	s.log.Info("sale event",
		zap.String("event_id", event.EventID),
		zap.String("machine", event.Sale.MachineName),
		zap.Float64("amount", event.Sale.Amount),
		zap.String("currency", event.Sale.Currency),
		zap.String("product", event.Sale.ProductName),
	)
	return nil
}

func setupTracing() (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}, nil
}
