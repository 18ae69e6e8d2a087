// Package cli provides the zoneinfo command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"
	"github.com/zonetools/zoneinfo/internal/api"
	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
	"github.com/zonetools/zoneinfo/internal/zone"
)

const (
	// PackageVersion is the current version of the CLI
	PackageVersion = "1.0.0"

	// DefaultQType is the default DNS query type
	DefaultQType = "A"
	// QTypePTR is the PTR (reverse DNS) query type
	QTypePTR = "PTR"
	// DefaultWarnThreshold is the default response time warning threshold in seconds
	DefaultWarnThreshold = 1.0
	// DefaultPollInterval is the default interval for polling task status
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultResolver is used when neither flags, config, nor resolv.conf provide one
	DefaultResolver = "udp://9.9.9.9:53"
)

const (
	levelInfo = "ok"
	levelWarn = "warn"
	levelErr  = "error"
)

var (
	apiURL        string
	configPath    string
	resolverFlags []string
	checkAXFR     bool
	jsonOut       bool
	qtype         string
	insecure      bool
	debug         bool
	pretty        bool
	warnThreshold float64
	queryTimeout  int
	queryRetries  int
	concurrency   int
)

// NewRootCmd creates the root CLI command. Without --api-url the
// inspection runs in-process; with it the CLI enqueues a task on a
// remote API server and polls for the result.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zoneinfo [flags] ZONE",
		Short: "Inspect a DNS zone: SOA, nameservers, serials, delegation, zone transfers",
		Long: `zoneinfo queries a DNS zone's SOA and NS records, probes every listed
nameserver address directly for its view of the zone serial, compares the
apex NS set against the parent delegation, and optionally attempts a zone
transfer (AXFR) against each server.`,
		Version: PackageVersion,
		Example: `  # Inspect a zone with system resolvers
  zoneinfo example.com

  # Inspect with explicit resolvers and AXFR checks
  zoneinfo --resolver udp://9.9.9.9:53 --axfr example.com

  # JSON report
  zoneinfo --json example.com

  # Remote mode against a running API server
  zoneinfo --api-url http://localhost:5000 example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runZoneInfo(cmd.Context(), args[0]); err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&apiURL, "api-url", "u", "", "Base URL of a zoneinfo API server (enables remote mode)")
	rootCmd.Flags().StringArrayVarP(&resolverFlags, "resolver", "r", nil, "Recursive resolver target, repeatable (e.g. udp://9.9.9.9:53, tls://dns.quad9.net)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.Flags().BoolVarP(&checkAXFR, "axfr", "x", false, "Attempt a zone transfer against each nameserver address")
	rootCmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "Emit the report as JSON")
	rootCmd.Flags().BoolVarP(&insecure, "insecure", "i", false, "Skip TLS certificate verification")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Show detailed progress and error messages")
	rootCmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Enable emoji-enhanced output")
	rootCmd.Flags().IntVar(&queryTimeout, "timeout", 5, "DNS query timeout in seconds")
	rootCmd.Flags().IntVar(&queryRetries, "retries", 3, "Number of retries per DNS query")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum parallel nameserver probes (default 8)")

	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewServerCommand())
	rootCmd.AddCommand(NewWorkerCommand())
	return rootCmd
}

func runZoneInfo(ctx context.Context, zoneArg string) error {
	zoneName, err := normalize.Domain(zoneArg)
	if err != nil {
		return fmt.Errorf("invalid zone %q: %w", zoneArg, err)
	}

	if apiURL != "" {
		return runZoneInfoRemote(ctx, zoneName)
	}

	resolvers, err := gatherResolvers()
	if err != nil {
		return err
	}

	if debug {
		var targets []string
		for _, r := range resolvers {
			targets = append(targets, r.Target)
		}
		fmt.Printf("Using resolvers: %s\n", strings.Join(targets, ", "))
	}

	ins := &zone.Inspector{
		Resolvers:   resolvers,
		Timeout:     time.Duration(queryTimeout) * time.Second,
		Retries:     queryRetries,
		Concurrency: concurrency,
		CheckAXFR:   checkAXFR,
		TLSInsecure: insecure,
	}

	report, err := ins.Inspect(ctx, zoneName)
	if err != nil {
		return err
	}

	return printZoneReport(report)
}

func runZoneInfoRemote(ctx context.Context, zoneName string) error {
	var resolvers []models.Resolver
	for _, t := range resolverFlags {
		norm, err := normalize.Target(t)
		if err != nil {
			return fmt.Errorf("invalid resolver target %q: %w", t, err)
		}
		resolvers = append(resolvers, models.Resolver{Target: norm})
	}

	client := api.NewClient(apiURL, 30*time.Second, insecure)
	taskID, err := client.EnqueueZoneInspect(ctx, models.ZoneInfoRequest{
		Zone:                  zoneName,
		Resolvers:             resolvers,
		CheckAXFR:             checkAXFR,
		TLSInsecureSkipVerify: insecure,
	})
	if err != nil {
		return err
	}

	if debug {
		fmt.Printf("Task ID: %s\n", taskID)
	}

	status, err := pollTask(ctx, client, taskID)
	if err != nil {
		return err
	}
	if status.Result == nil || status.Result.ZoneReport == nil {
		return fmt.Errorf("task %s completed without a zone report", taskID)
	}
	return printZoneReport(status.Result.ZoneReport)
}

// pollTask waits for a task to reach a terminal state.
func pollTask(ctx context.Context, client *api.Client, taskID string) (*models.TaskStatusResponse, error) {
	for {
		status, err := client.GetTaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "SUCCESS":
			if !jsonOut {
				fmt.Println()
			}
			return status, nil
		case "FAILURE":
			msg := "task failed"
			if status.Error != nil {
				msg = *status.Error
			}
			return nil, fmt.Errorf("%s", msg)
		}

		if !jsonOut {
			fmt.Print(".")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(DefaultPollInterval):
		}
	}
}

// gatherResolvers applies precedence: --resolver flags, then config file,
// then the system resolv.conf, then the builtin fallback.
func gatherResolvers() ([]models.Resolver, error) {
	if len(resolverFlags) > 0 {
		var resolvers []models.Resolver
		for _, t := range resolverFlags {
			norm, err := normalize.Target(t)
			if err != nil {
				return nil, fmt.Errorf("invalid resolver target %q: %w", t, err)
			}
			resolvers = append(resolvers, models.Resolver{Target: norm})
		}
		return resolvers, nil
	}

	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		var resolvers []models.Resolver
		for _, t := range cfg.GetResolverTargets() {
			resolvers = append(resolvers, models.Resolver{Target: t.Target, Tags: t.Tags})
		}
		if len(resolvers) == 0 {
			return nil, fmt.Errorf("no resolvers found in config file %s", configPath)
		}
		return resolvers, nil
	}

	return systemResolvers(), nil
}

// systemResolvers reads resolv.conf, falling back to a public resolver.
func systemResolvers() []models.Resolver {
	var resolvers []models.Resolver
	if cc, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil {
		for _, srv := range cc.Servers {
			norm, err := normalize.Target(srv)
			if err != nil {
				continue
			}
			resolvers = append(resolvers, models.Resolver{Target: norm})
		}
	}
	if len(resolvers) == 0 {
		resolvers = append(resolvers, models.Resolver{Target: DefaultResolver})
	}
	return resolvers
}

func printZoneReport(report *models.ZoneReport) error {
	if jsonOut {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Zone: %s\n", report.Zone)

	if report.SOA != nil {
		fmt.Printf("SOA:  mname=%s rname=%s serial=%d\n", report.SOA.MName, report.SOA.RName, report.SOA.Serial)
		fmt.Printf("      refresh=%d retry=%d expire=%d minimum=%d ttl=%d\n",
			report.SOA.Refresh, report.SOA.Retry, report.SOA.Expire, report.SOA.Minimum, report.SOA.TTL)
	} else {
		logResult(levelWarn, "no authoritative SOA answer received")
	}

	fmt.Printf("\nNameservers (%d):\n", len(report.Nameservers))
	for _, ns := range report.Nameservers {
		if ns.ResolveError != "" {
			logResult(levelErr, fmt.Sprintf("%s - %s", ns.Name, ns.ResolveError))
			continue
		}
		fmt.Printf("  %s\n", ns.Name)
		for _, addr := range ns.Addrs {
			fmt.Printf("    %s\n", formatAddrReport(addr))
		}
	}

	fmt.Println()
	if len(report.ParentNS) == 0 {
		logResult(levelWarn, "delegation: parent NS set unavailable, skipping comparison")
	} else if report.DelegationMatch {
		logResult(levelInfo, "delegation: parent and apex NS sets match")
	} else {
		logResult(levelWarn, fmt.Sprintf("delegation: parent %v differs from apex %v", report.ParentNS, report.ApexNS))
	}

	if report.SerialsConsistent {
		serial := uint32(0)
		if report.SOA != nil {
			serial = report.SOA.Serial
		}
		logResult(levelInfo, fmt.Sprintf("serials: all responding nameservers agree (%d)", serial))
	} else {
		logResult(levelWarn, "serials: nameservers disagree or none answered")
	}

	if len(report.Warnings) > 0 {
		fmt.Println()
		for _, w := range report.Warnings {
			logResult(levelWarn, w)
		}
	}

	fmt.Printf("\nCompleted in %.3fs\n", report.Duration)
	return nil
}

func formatAddrReport(addr models.AddrReport) string {
	if addr.Error != "" {
		if debug {
			return fmt.Sprintf("%-39s error: %s", addr.Addr, addr.Error)
		}
		return fmt.Sprintf("%-39s unreachable", addr.Addr)
	}

	aa := "no"
	if addr.Authoritative {
		aa = "yes"
	}
	tcp := "no"
	if addr.TCPOk {
		tcp = "yes"
	}

	line := fmt.Sprintf("%-39s serial=%-10d aa=%-3s tcp=%-3s rcode=%s %.2fms",
		addr.Addr, addr.Serial, aa, tcp, addr.RCode, addr.TimeMs)

	if addr.AXFR != nil && addr.AXFR.Attempted {
		if addr.AXFR.Allowed {
			line += fmt.Sprintf(" axfr=ALLOWED(%d records)", addr.AXFR.Records)
		} else if addr.AXFR.Reason != "" {
			line += fmt.Sprintf(" axfr=%s", addr.AXFR.Reason)
		} else {
			line += " axfr=denied"
		}
	}
	return line
}

func logResult(level, message string) {
	symbols := map[string][2]string{
		"ok":    {"✅ ", "[OK] "},
		"warn":  {"⚠️ ", "[WARN] "},
		"error": {"❌ ", "[FAILED] "},
	}

	symbol := "[???] "
	if syms, ok := symbols[level]; ok {
		if pretty {
			symbol = syms[0]
		} else {
			symbol = syms[1]
		}
	}

	fmt.Printf("%s%s\n", symbol, message)
}

func extractHost(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Host
}

// sortDetailKeys orders lookup result keys by host then protocol.
func sortDetailKeys(details map[string]models.DNSLookupResult) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		hostI := extractHost(keys[i])
		hostJ := extractHost(keys[j])
		if hostI != hostJ {
			return hostI < hostJ
		}
		return details[keys[i]].DNSProtocol < details[keys[j]].DNSProtocol
	})
	return keys
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
