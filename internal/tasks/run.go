package tasks

import (
	"context"
	"time"

	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/resolver"
	"github.com/zonetools/zoneinfo/internal/zone"
)

// RunZoneInspect executes a zone inspection with config-driven limits.
// Shared by the in-memory client and the Asynq worker handler.
func RunZoneInspect(ctx context.Context, cfg *config.Config, req models.ZoneInfoRequest) *models.TaskResult {
	ins := &zone.Inspector{
		Resolvers:   req.Resolvers,
		Timeout:     time.Duration(cfg.GetDNSTimeout()) * time.Second,
		Retries:     cfg.GetMaxRetries(),
		Concurrency: cfg.GetZoneConcurrency(),
		ProbePort:   cfg.GetZoneProbePort(),
		CheckAXFR:   req.CheckAXFR || cfg.Zone.CheckAXFR,
		TLSInsecure: req.TLSInsecureSkipVerify,
	}

	report, err := ins.Inspect(ctx, req.Zone)
	if err != nil {
		report = &models.ZoneReport{
			Zone:     req.Zone,
			Warnings: []string{err.Error()},
		}
	}
	return &models.TaskResult{ZoneReport: report}
}

// RunDNSLookup executes a fan-out lookup with config-driven limits.
func RunDNSLookup(ctx context.Context, cfg *config.Config, req models.DNSLookupRequest) *models.TaskResult {
	timeout := time.Duration(cfg.GetDNSTimeout()) * time.Second

	start := time.Now()
	details := make(map[string]models.DNSLookupResult)
	if len(req.Resolvers) > 0 {
		details = resolver.RunQueries(ctx, req.Domain, req.QType, req.Resolvers,
			req.TLSInsecureSkipVerify, timeout, cfg.GetMaxConcurrentQueries(), cfg.GetMaxRetries())
	}

	return &models.TaskResult{
		Lookup: &models.DNSLookupResults{
			Details:  details,
			Duration: time.Since(start).Seconds(),
		},
	}
}
