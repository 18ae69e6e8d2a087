package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/tasks"
)

// NewWorkerCommand creates the 'worker' subcommand for running standalone Redis workers
func NewWorkerCommand() *cobra.Command {
	var workerConfigPath string
	var redisURL string
	var workerConcurrency int
	var metricsPort int
	var enableMetrics bool

	// DNS config flags
	var dnsTimeout int
	var maxConcurrentQueries int
	var maxRetries int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start a standalone zoneinfo worker",
		Long:  `Start a standalone worker that processes zone inspection and DNS lookup tasks from the Redis queue. Requires Redis to be configured.`,
		Example: `  # Start worker with default settings
  zoneinfo worker --redis redis://localhost:6379/0

  # Start worker with custom concurrency
  zoneinfo worker --redis redis://localhost:6379/0 --concurrency 8

  # Start worker with metrics enabled (useful for single worker or dev)
  zoneinfo worker --config /path/to/config.yaml --redis redis://localhost:6379/0 --enable-metrics

  # Override DNS settings
  zoneinfo worker --redis redis://localhost:6379/0 --dns-timeout 10 --max-retries 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd, workerConfigPath, redisURL, workerConcurrency, metricsPort, enableMetrics,
				dnsTimeout, maxConcurrentQueries, maxRetries)
		},
	}

	cmd.Flags().StringVarP(&workerConfigPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to config file")
	cmd.Flags().StringVarP(&redisURL, "redis", "r", os.Getenv("REDIS_URL"), "Redis URL (required)")
	cmd.Flags().IntVarP(&workerConcurrency, "concurrency", "n", 4, "Number of concurrent workers")
	cmd.Flags().IntVarP(&metricsPort, "metrics-port", "m", 9091, "Port for Prometheus metrics endpoint (if enabled)")
	cmd.Flags().BoolVarP(&enableMetrics, "enable-metrics", "M", false, "Enable metrics HTTP endpoint (useful for single worker, avoid port conflicts with multiple workers)")

	// DNS configuration
	cmd.Flags().IntVar(&dnsTimeout, "dns-timeout", 0, "DNS query timeout in seconds (default: from config or 5)")
	cmd.Flags().IntVar(&maxConcurrentQueries, "max-concurrent", 0, "Maximum concurrent DNS queries (default: from config or 500)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Number of retries per DNS query (default: from config or 3)")

	_ = cmd.MarkFlagRequired("redis")

	return cmd
}

func runWorker(cmd *cobra.Command, workerConfigPath, redisURL string, workerConcurrency, metricsPort int, enableMetrics bool,
	dnsTimeout, maxConcurrentQueries, maxRetries int) error {

	if workerConfigPath == "" {
		workerConfigPath = "conf/config.yaml"
	}

	cfg, err := config.LoadConfig(workerConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Apply CLI overrides to DNS config with defaults
	config.ApplyIntOverride(cmd.Flags().Changed("dns-timeout"), dnsTimeout, &cfg.DNS.Timeout, 5)
	config.ApplyIntOverride(cmd.Flags().Changed("max-concurrent"), maxConcurrentQueries, &cfg.DNS.MaxConcurrentQueries, 500)
	config.ApplyIntOverride(cmd.Flags().Changed("max-retries"), maxRetries, &cfg.DNS.MaxRetries, 3)

	if len(cfg.Resolvers) == 0 {
		slog.Warn("No resolvers configured - worker will process tasks with explicit targets only", "path", workerConfigPath)
	} else {
		slog.Info("Configuration loaded", "path", workerConfigPath, "resolvers_count", len(cfg.Resolvers))
	}

	if redisURL == "" {
		slog.Error("Redis URL is required for worker")
		os.Exit(1)
	}

	redisAddr := redisURL
	if u, err := url.Parse(redisURL); err == nil && u.Host != "" {
		redisAddr = u.Host
	}

	// Start metrics server (optional)
	if enableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", metricsPort)
			slog.Info("Worker metrics server enabled", "address", addr)

			srv := &http.Server{
				Addr:         addr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server error", "error", err)
			}
		}()
	} else {
		slog.Info("Worker metrics disabled (use --enable-metrics to enable)")
	}

	slog.Info("DNS query timeout configured", "timeout", time.Duration(cfg.GetDNSTimeout())*time.Second)

	// Results are stored in Redis so the API can serve them back.
	store := tasks.NewClient(redisAddr, 24*time.Hour)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Task store close error", "error", err)
		}
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TaskTypeZoneInspect, func(ctx context.Context, t *asynq.Task) error {
		return handleZoneInspectTask(ctx, t, cfg, store)
	})
	mux.HandleFunc(tasks.TaskTypeDNSLookup, func(ctx context.Context, t *asynq.Task) error {
		return handleDNSLookupTask(ctx, t, cfg, store)
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: workerConcurrency,
		},
	)

	// Run worker in background and wait for signal
	go func() {
		if err := srv.Run(mux); err != nil {
			slog.Error("Worker run failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	srv.Shutdown()
	return nil
}

func handleZoneInspectTask(ctx context.Context, t *asynq.Task, cfg *config.Config, store *tasks.Client) error {
	var p tasks.ZoneInspectPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode zone inspect payload: %w", err)
	}

	start := time.Now()
	result := tasks.RunZoneInspect(ctx, cfg, p.Request)

	if err := store.StoreResult(ctx, p.TaskID, result); err != nil {
		slog.Error("Failed to store result", "task_id", p.TaskID, "error", err)
		return err
	}

	slog.Info("Zone inspection completed", "task_id", p.TaskID, "zone", p.Request.Zone,
		"duration_seconds", fmt.Sprintf("%.3f", time.Since(start).Seconds()))
	return nil
}

func handleDNSLookupTask(ctx context.Context, t *asynq.Task, cfg *config.Config, store *tasks.Client) error {
	var p tasks.DNSLookupPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode dns lookup payload: %w", err)
	}

	start := time.Now()
	result := tasks.RunDNSLookup(ctx, cfg, p.Request)

	if err := store.StoreResult(ctx, p.TaskID, result); err != nil {
		slog.Error("Failed to store result", "task_id", p.TaskID, "error", err)
		return err
	}

	slog.Info("DNS lookup completed", "task_id", p.TaskID, "domain", p.Request.Domain,
		"duration_seconds", fmt.Sprintf("%.3f", time.Since(start).Seconds()))
	return nil
}
