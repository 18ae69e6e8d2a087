// Package config loads YAML configuration and provides defaults.
// Delegates validation to normalize package for DNS-specific rules.
package config

import (
	"fmt"
	"os"

	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
	"gopkg.in/yaml.v3"
)

// ServiceType maps config values to DNS protocol schemes.
type ServiceType string

const (
	// ServiceDo53UDP represents DNS over UDP (port 53)
	ServiceDo53UDP ServiceType = "do53/udp"
	// ServiceDo53TCP represents DNS over TCP (port 53)
	ServiceDo53TCP ServiceType = "do53/tcp"
	// ServiceDoT represents DNS-over-TLS (port 853)
	ServiceDoT ServiceType = "dot"
	// ServiceDoH represents DNS-over-HTTPS (port 443)
	ServiceDoH ServiceType = "doh"
	// ServiceDoQ represents DNS-over-QUIC (port 853)
	ServiceDoQ ServiceType = "doq"
)

// Resolver represents resolver configuration with flexible IP/hostname support.
type Resolver struct {
	IP       string        `yaml:"ip,omitempty"`
	Port     int           `yaml:"port,omitempty"`
	Hostname string        `yaml:"hostname,omitempty"`
	Services []ServiceType `yaml:"services"`
	Tags     []string      `yaml:"tags,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	Resolvers    []Resolver      `yaml:"resolvers"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting,omitempty"`
	Server       ServerConfig    `yaml:"server,omitempty"`
	Worker       WorkerConfig    `yaml:"worker,omitempty"`
	DNS          DNSConfig       `yaml:"dns,omitempty"`
	Zone         ZoneConfig      `yaml:"zone,omitempty"`
}

// RateLimitConfig controls tollbooth rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second,omitempty"`
	BurstSize         int `yaml:"burst_size,omitempty"`
}

// ServerConfig controls HTTP server timeouts and binding.
type ServerConfig struct {
	Host         string `yaml:"host,omitempty"`
	Port         string `yaml:"port,omitempty"`
	ReadTimeout  int    `yaml:"read_timeout,omitempty"`
	WriteTimeout int    `yaml:"write_timeout,omitempty"`
	IdleTimeout  int    `yaml:"idle_timeout,omitempty"`
}

// WorkerConfig controls Asynq worker concurrency.
type WorkerConfig struct {
	MaxWorkers      int `yaml:"max_workers,omitempty"`
	CleanupInterval int `yaml:"cleanup_interval,omitempty"`
}

// DNSConfig controls discovery query behavior.
type DNSConfig struct {
	Timeout              int `yaml:"timeout,omitempty"`
	MaxResolversPerReq   int `yaml:"max_resolvers_per_req,omitempty"`
	MaxConcurrentQueries int `yaml:"max_concurrent_queries,omitempty"`
	MaxRetries           int `yaml:"max_retries,omitempty"`
}

// ZoneConfig controls zone inspection behavior.
type ZoneConfig struct {
	CheckAXFR   bool `yaml:"check_axfr,omitempty"`
	ProbePort   int  `yaml:"probe_port,omitempty"`
	Concurrency int  `yaml:"concurrency,omitempty"`
}

// Validate delegates IP validation to normalize.IsValidIP.
// Do53 requires IP (no hostname resolution) - pragmatic choice for UDP/TCP.
func (r *Resolver) Validate() error {
	if r.IP == "" && r.Hostname == "" {
		return fmt.Errorf("at least one of 'ip' or 'hostname' must be provided")
	}

	if r.IP != "" {
		if !normalize.IsValidIP(r.IP) {
			return fmt.Errorf("invalid IP address: %s", r.IP)
		}
	}

	if r.Port != 0 && (r.Port < 1 || r.Port > 65535) {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", r.Port)
	}

	// Do53 needs IP - avoid DNS lookup for the resolver's own address
	for _, svc := range r.Services {
		if (svc == ServiceDo53UDP || svc == ServiceDo53TCP) && r.IP == "" {
			return fmt.Errorf("do53/udp and do53/tcp require an IP address (not just a hostname)")
		}
	}

	return nil
}

// LoadConfig reads YAML and validates resolvers.
// Returns empty config if file missing - optional config approach.
func LoadConfig(filePath string) (*Config, error) {
	// #nosec G304 -- filePath is user-controlled via CLI flag by design
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, res := range config.Resolvers {
		if err := res.Validate(); err != nil {
			return nil, fmt.Errorf("resolver %d validation failed: %w", i, err)
		}
	}

	return &config, nil
}

// ResolverTarget combines a normalized target URL with tags.
type ResolverTarget struct {
	Target string   `json:"target"`
	Tags   []string `json:"tags,omitempty"`
}

// GetResolverTargets transforms YAML config to normalized targets.
// normalize.ProtocolConfigs is single source of truth for scheme/port mapping.
func (c *Config) GetResolverTargets() []ResolverTarget {
	var targets []ResolverTarget

	serviceToScheme := map[ServiceType]string{
		ServiceDo53UDP: normalize.SchemeUDP,
		ServiceDo53TCP: normalize.SchemeTCP,
		ServiceDoT:     normalize.SchemeTLS,
		ServiceDoH:     normalize.SchemeHTTPS,
		ServiceDoQ:     normalize.SchemeQUIC,
	}

	for _, res := range c.Resolvers {
		for _, svc := range res.Services {
			scheme, ok := serviceToScheme[svc]
			if !ok {
				continue
			}

			protoCfg, ok := normalize.ProtocolConfigs[scheme]
			if !ok {
				continue
			}

			// Use hostname for protocols that verify certificates (DoT, DoH, DoQ)
			host := res.IP
			if protoCfg.UsesHostname && res.Hostname != "" {
				host = res.Hostname
			}

			port := res.Port
			if port == 0 {
				port = protoCfg.DefaultPort
			}

			raw := fmt.Sprintf("%s://%s:%d", protoCfg.Scheme, host, port)
			norm, err := normalize.Target(raw)
			if err != nil {
				continue
			}

			tags := res.Tags
			if tags == nil {
				tags = []string{}
			}

			targets = append(targets, ResolverTarget{
				Target: norm,
				Tags:   tags,
			})
		}
	}

	return targets
}

// GetRateLimitRequestsPerSecond provides default fallback.
// Returns 0 if explicitly set to 0 (disables rate limiting).
func (c *Config) GetRateLimitRequestsPerSecond() int {
	if c.RateLimiting.RequestsPerSecond >= 0 {
		return c.RateLimiting.RequestsPerSecond
	}
	return 10
}

// GetRateLimitBurstSize provides default fallback.
func (c *Config) GetRateLimitBurstSize() int {
	if c.RateLimiting.BurstSize > 0 {
		return c.RateLimiting.BurstSize
	}
	return 20
}

// GetServerHost provides default fallback.
func (c *Config) GetServerHost() string {
	if c.Server.Host != "" {
		return c.Server.Host
	}
	return "0.0.0.0"
}

// GetServerPort provides default fallback.
func (c *Config) GetServerPort() string {
	if c.Server.Port != "" {
		return c.Server.Port
	}
	return "5000"
}

// GetServerReadTimeout provides default fallback (seconds).
func (c *Config) GetServerReadTimeout() int {
	if c.Server.ReadTimeout > 0 {
		return c.Server.ReadTimeout
	}
	return 15
}

// GetServerWriteTimeout provides default fallback (seconds).
func (c *Config) GetServerWriteTimeout() int {
	if c.Server.WriteTimeout > 0 {
		return c.Server.WriteTimeout
	}
	return 15
}

// GetServerIdleTimeout provides default fallback (seconds).
func (c *Config) GetServerIdleTimeout() int {
	if c.Server.IdleTimeout > 0 {
		return c.Server.IdleTimeout
	}
	return 60
}

// GetMaxWorkers provides default fallback.
func (c *Config) GetMaxWorkers() int {
	if c.Worker.MaxWorkers > 0 {
		return c.Worker.MaxWorkers
	}
	return 4
}

// GetDNSTimeout provides default fallback (seconds).
func (c *Config) GetDNSTimeout() int {
	if c.DNS.Timeout > 0 {
		return c.DNS.Timeout
	}
	return 5
}

// GetMaxResolversPerRequest provides default fallback.
func (c *Config) GetMaxResolversPerRequest() int {
	if c.DNS.MaxResolversPerReq > 0 {
		return c.DNS.MaxResolversPerReq
	}
	return models.MaxResolversPerReq
}

// GetMaxConcurrentQueries provides default fallback.
func (c *Config) GetMaxConcurrentQueries() int {
	if c.DNS.MaxConcurrentQueries > 0 {
		return c.DNS.MaxConcurrentQueries
	}
	return 500
}

// GetMaxRetries provides default fallback.
func (c *Config) GetMaxRetries() int {
	if c.DNS.MaxRetries > 0 {
		return c.DNS.MaxRetries
	}
	return 3
}

// GetZoneProbePort provides default fallback.
func (c *Config) GetZoneProbePort() int {
	if c.Zone.ProbePort > 0 {
		return c.Zone.ProbePort
	}
	return 53
}

// GetZoneConcurrency provides default fallback.
func (c *Config) GetZoneConcurrency() int {
	if c.Zone.Concurrency > 0 {
		return c.Zone.Concurrency
	}
	return 8
}

// ApplyIntOverride applies a CLI flag override to a config int field with default fallback.
// If the CLI flag was changed and the value is positive, it overrides the config value.
// Otherwise, if the config value is zero, the default value is applied.
func ApplyIntOverride(flagChanged bool, flagValue int, target *int, defaultVal int) {
	if flagChanged && flagValue > 0 {
		*target = flagValue
	} else if *target == 0 {
		*target = defaultVal
	}
}

// ApplyStringOverride applies a CLI flag override to a config string field with default fallback.
// If the CLI value is non-empty, it overrides the config value.
// Otherwise, if the config value is empty, the default value is applied.
func ApplyStringOverride(cliValue string, target *string, defaultVal string) {
	if cliValue != "" {
		*target = cliValue
	} else if *target == "" {
		*target = defaultVal
	}
}
