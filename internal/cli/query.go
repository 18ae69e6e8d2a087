package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
	"github.com/zonetools/zoneinfo/internal/resolver"
)

// DefaultQueryConcurrency bounds parallel resolver queries in CLI mode.
const DefaultQueryConcurrency = 50

// NewQueryCommand creates the 'query' subcommand for one-off lookups
// against explicit resolvers, without going through the API.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query [domain] [resolvers...]",
		Aliases: []string{"q", "lookup"},
		Short:   "Perform a DNS query against one or more resolvers",
		Long:    `Query a domain against one or more resolvers and compare answers, response codes, and latency. Supports UDP, TCP, DoT, DoH, and DoQ targets.`,
		Example: `  # Query using UDP
  zoneinfo query github.com udp://9.9.9.9:53

  # Query using DNS-over-HTTPS
  zoneinfo query github.com https://dns.quad9.net/dns-query

  # Query SOA across several resolvers
  zoneinfo query --qtype=SOA example.com udp://9.9.9.9:53 tls://94.140.14.14:853

  # Reverse DNS lookup (PTR is inferred for IP arguments)
  zoneinfo query 9.9.9.9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runQuery(cmd, args); err != nil {
				cmd.PrintErrln(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&qtype, "qtype", "t", DefaultQType, "DNS query type (A, AAAA, NS, SOA, PTR, ...)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().BoolVarP(&insecure, "insecure", "i", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Show detailed error messages for failed lookups")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Enable emoji-enhanced output")
	cmd.Flags().Float64VarP(&warnThreshold, "warn-threshold", "w", DefaultWarnThreshold, "Response time threshold in seconds for warnings")
	cmd.Flags().IntVar(&queryTimeout, "timeout", 5, "DNS query timeout in seconds")
	cmd.Flags().IntVar(&queryRetries, "retries", 3, "Number of retries per DNS query")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := args[0]

	if len(args) > 1 {
		resolverFlags = args[1:]
	}
	resolvers, err := gatherResolvers()
	if err != nil {
		return err
	}

	// Auto-detect PTR (reverse) lookup if query is an IP
	queryType := qtype
	domain := query
	if normalize.IsValidIP(query) {
		fmt.Printf("Starting reverse DNS lookup for IP: %s ", query)
		queryType = QTypePTR
		reverseDomain, err := normalize.IPToReverseDNS(query)
		if err != nil {
			return fmt.Errorf("error converting IP to reverse format: %w", err)
		}
		domain = reverseDomain
	} else {
		domain, err = normalize.Domain(query)
		if err != nil {
			return fmt.Errorf("invalid domain %q: %w", query, err)
		}
		fmt.Printf("Starting DNS lookup for domain: %s ", domain)
	}

	normalizedQType, err := normalize.QType(queryType)
	if err != nil {
		return err
	}
	queryType = normalizedQType

	if debug {
		var targets []string
		for _, r := range resolvers {
			targets = append(targets, r.Target)
		}
		fmt.Printf("\n\tUsing resolvers: %s\n", strings.Join(targets, ", "))
		fmt.Printf("\tQuery type: %s\n", queryType)
		if queryType == QTypePTR {
			fmt.Printf("\tReverse domain: %s\n", domain)
		}
		fmt.Printf("\tTLS Skip Verify: %t\n", insecure)
		if insecure {
			fmt.Println("\t⚠️  WARNING: TLS certificate verification is DISABLED - USE ONLY FOR TESTING")
		}
	}

	timeout := time.Duration(queryTimeout) * time.Second
	start := time.Now()
	details := resolver.RunQueries(cmd.Context(), domain, queryType, resolvers,
		insecure, timeout, DefaultQueryConcurrency, queryRetries)

	results := &models.DNSLookupResults{
		Details:  details,
		Duration: time.Since(start).Seconds(),
	}
	printLookupResults(results, queryType == QTypePTR, queryType)
	return nil
}

func printLookupResults(results *models.DNSLookupResults, isReverse bool, queryType string) {
	nbOK := 0
	for _, result := range results.Details {
		if result.CommandStatus == "ok" {
			nbOK++
		}
	}

	fmt.Printf("\nDNS lookup succeeded for %d out of %d resolvers (%.4f seconds total)\n",
		nbOK, len(results.Details), results.Duration)

	for _, server := range sortDetailKeys(results.Details) {
		result := results.Details[server]

		if result.CommandStatus != "ok" {
			if debug {
				logResult(levelErr, fmt.Sprintf("%s - connection issue or error: %s", server, result.Error))
			} else {
				logResult(levelErr, fmt.Sprintf("%s - connection issue or error", server))
			}
			continue
		}

		dnsProtocol := result.DNSProtocol
		rcode := result.RCode
		if rcode == "" {
			rcode = "Unknown"
		}

		if rcode != "NOERROR" {
			if rcode == "NXDOMAIN" {
				logResult(levelWarn, fmt.Sprintf("%s - Domain does not exist (rcode: NXDOMAIN) - %.2f ms",
					server, result.TimeMs))
			} else {
				logResult(levelWarn, fmt.Sprintf("%s - No valid answer (rcode: %s) - %.2f ms",
					server, rcode, result.TimeMs))
			}
			continue
		}

		recordType := queryType
		if isReverse {
			recordType = QTypePTR
		}

		// Filter answers by record type
		var answers []models.DNSAnswer
		for _, ans := range result.Answers {
			if ans.Type == recordType {
				answers = append(answers, ans)
			}
		}

		if len(answers) == 0 {
			logResult(levelWarn, fmt.Sprintf("%s - %s - No %s records found - %.2f ms",
				server, dnsProtocol, recordType, result.TimeMs))
			continue
		}

		var values []string
		var ttls []uint32
		for _, ans := range answers {
			values = append(values, ans.Value)
			ttls = append(ttls, ans.TTL)
		}

		level := levelInfo
		if result.TimeMs/1000.0 > warnThreshold {
			level = levelWarn
		}

		allSameTTL := true
		for i := 1; i < len(ttls); i++ {
			if ttls[i] != ttls[0] {
				allSameTTL = false
				break
			}
		}

		if allSameTTL {
			logResult(level, fmt.Sprintf("%s - %s - %.5fms - TTL: %ds - %s",
				server, dnsProtocol, result.TimeMs, ttls[0], strings.Join(values, ", ")))
		} else {
			var valueWithTTL []string
			for _, ans := range answers {
				valueWithTTL = append(valueWithTTL, fmt.Sprintf("%s (TTL: %d)", ans.Value, ans.TTL))
			}
			logResult(level, fmt.Sprintf("%s - %s - %.5fms - %s",
				server, dnsProtocol, result.TimeMs, strings.Join(valueWithTTL, ", ")))
		}
	}
}
