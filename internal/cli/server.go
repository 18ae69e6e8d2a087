package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonetools/zoneinfo/internal/app"
	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/models"
)

const (
	// DefaultMaxWorkers is the default number of worker goroutines
	DefaultMaxWorkers = 4
	// DefaultCleanupInterval is the default interval for cleaning up old tasks
	DefaultCleanupInterval = 10 * time.Minute
)

// NewServerCommand creates the server subcommand.
// Starts in-memory workers if Redis is not configured.
func NewServerCommand() *cobra.Command {
	var serverConfigPath string
	var redisURL string
	var host string
	var port string
	var maxWorkers int

	// DNS config flags
	var dnsTimeout int
	var maxResolversPerReq int
	var maxConcurrentQueries int
	var maxRetries int

	// Zone inspection flags
	var zoneProbePort int
	var zoneConcurrency int
	var zoneCheckAXFR bool

	// Rate limiting flags
	var rateLimitRPS int
	var rateLimitBurst int

	// Server timeout flags
	var readTimeout int
	var writeTimeout int
	var idleTimeout int

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the zoneinfo API server",
		Long:  `Start the zoneinfo API server. Automatically starts in-memory workers if Redis is not configured.`,
		Example: `  # Start with default config
  zoneinfo server

  # Start with Redis backend
  zoneinfo server --redis redis://localhost:6379/0

  # Start with custom config
  zoneinfo server --config /path/to/config.yaml

  # Start on custom host/port
  zoneinfo server --host 0.0.0.0 --port 8080

  # Enable AXFR checks for every inspection
  zoneinfo server --zone-axfr`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, serverConfigPath, redisURL, host, port, maxWorkers,
				dnsTimeout, maxResolversPerReq, maxConcurrentQueries, maxRetries,
				zoneProbePort, zoneConcurrency, zoneCheckAXFR,
				rateLimitRPS, rateLimitBurst, readTimeout, writeTimeout, idleTimeout)
		},
	}

	cmd.Flags().StringVarP(&serverConfigPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to config file")
	cmd.Flags().StringVarP(&redisURL, "redis", "r", os.Getenv("REDIS_URL"), "Redis URL (optional, enables distributed workers)")
	cmd.Flags().StringVarP(&host, "host", "H", os.Getenv("ZONEINFO_HOST"), "Server host (default: from config or 0.0.0.0)")
	cmd.Flags().StringVarP(&port, "port", "P", os.Getenv("ZONEINFO_PORT"), "Server port (default: from config or 5000)")
	cmd.Flags().IntVarP(&maxWorkers, "workers", "w", 0, "Maximum number of workers (default: from config or 4)")

	// DNS configuration
	cmd.Flags().IntVar(&dnsTimeout, "dns-timeout", 0, "DNS query timeout in seconds (default: from config or 5)")
	cmd.Flags().IntVar(&maxResolversPerReq, "max-resolvers", 0, "Maximum resolvers per request (default: from config or 50)")
	cmd.Flags().IntVar(&maxConcurrentQueries, "max-concurrent", 0, "Maximum concurrent DNS queries (default: from config or 500)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Number of retries per DNS query (default: from config or 3)")

	// Zone inspection
	cmd.Flags().IntVar(&zoneProbePort, "zone-probe-port", 0, "Port for direct nameserver probes (default: from config or 53)")
	cmd.Flags().IntVar(&zoneConcurrency, "zone-concurrency", 0, "Maximum parallel nameserver probes (default: from config or 8)")
	cmd.Flags().BoolVar(&zoneCheckAXFR, "zone-axfr", false, "Attempt zone transfers during every inspection")

	// Rate limiting
	cmd.Flags().IntVar(&rateLimitRPS, "rate-limit-rps", 0, "Rate limit requests per second (0 = disable, default: from config or 10)")
	cmd.Flags().IntVar(&rateLimitBurst, "rate-limit-burst", 0, "Rate limit burst size (default: from config or 20)")

	// HTTP server timeouts
	cmd.Flags().IntVar(&readTimeout, "read-timeout", 0, "HTTP read timeout in seconds (default: from config or 15)")
	cmd.Flags().IntVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout in seconds (default: from config or 15)")
	cmd.Flags().IntVar(&idleTimeout, "idle-timeout", 0, "HTTP idle timeout in seconds (default: from config or 60)")

	return cmd
}

func runServer(cmd *cobra.Command, serverConfigPath, redisURL, host, port string, maxWorkers,
	dnsTimeout, maxResolversPerReq, maxConcurrentQueries, maxRetries,
	zoneProbePort, zoneConcurrency int, zoneCheckAXFR bool,
	rateLimitRPS, rateLimitBurst, readTimeout, writeTimeout, idleTimeout int) error {

	if serverConfigPath == "" {
		serverConfigPath = "conf/config.yaml"
	}
	cfg, err := config.LoadConfig(serverConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Apply CLI flag overrides with defaults
	config.ApplyIntOverride(cmd.Flags().Changed("workers"), maxWorkers, &cfg.Worker.MaxWorkers, 4)
	config.ApplyIntOverride(cmd.Flags().Changed("dns-timeout"), dnsTimeout, &cfg.DNS.Timeout, 5)
	config.ApplyIntOverride(cmd.Flags().Changed("max-resolvers"), maxResolversPerReq, &cfg.DNS.MaxResolversPerReq, models.MaxResolversPerReq)
	config.ApplyIntOverride(cmd.Flags().Changed("max-concurrent"), maxConcurrentQueries, &cfg.DNS.MaxConcurrentQueries, 500)
	config.ApplyIntOverride(cmd.Flags().Changed("max-retries"), maxRetries, &cfg.DNS.MaxRetries, 3)
	config.ApplyIntOverride(cmd.Flags().Changed("zone-probe-port"), zoneProbePort, &cfg.Zone.ProbePort, 53)
	config.ApplyIntOverride(cmd.Flags().Changed("zone-concurrency"), zoneConcurrency, &cfg.Zone.Concurrency, 8)
	config.ApplyIntOverride(cmd.Flags().Changed("rate-limit-rps"), rateLimitRPS, &cfg.RateLimiting.RequestsPerSecond, 10)
	config.ApplyIntOverride(cmd.Flags().Changed("rate-limit-burst"), rateLimitBurst, &cfg.RateLimiting.BurstSize, 20)
	config.ApplyIntOverride(cmd.Flags().Changed("read-timeout"), readTimeout, &cfg.Server.ReadTimeout, 15)
	config.ApplyIntOverride(cmd.Flags().Changed("write-timeout"), writeTimeout, &cfg.Server.WriteTimeout, 15)
	config.ApplyIntOverride(cmd.Flags().Changed("idle-timeout"), idleTimeout, &cfg.Server.IdleTimeout, 60)

	if zoneCheckAXFR {
		cfg.Zone.CheckAXFR = true
	}

	config.ApplyStringOverride(host, &cfg.Server.Host, "0.0.0.0")
	config.ApplyStringOverride(port, &cfg.Server.Port, "5000")

	if len(cfg.Resolvers) == 0 {
		slog.Warn("No resolvers configured - requests must supply explicit resolver targets", "path", serverConfigPath)
	} else {
		slog.Info("Configuration loaded", "path", serverConfigPath, "resolvers_count", len(cfg.Resolvers))
	}

	if redisURL == "" {
		slog.Info("Redis not configured - starting in memory mode (no task persistence)")
	} else {
		slog.Info("Redis configured", "url", redisURL)
	}

	apiApp, err := app.NewAPIApp(cfg, redisURL)
	if err != nil {
		slog.Error("Failed to create API app", "error", err)
		os.Exit(1)
	}

	addr := cfg.GetServerHost() + ":" + cfg.GetServerPort()

	go func() {
		slog.Info("Starting zoneinfo API server", "address", addr)
		if err := apiApp.Run(addr); err != nil {
			slog.Error("API app run failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return apiApp.Shutdown(ctx)
}
