// Package resolver performs DNS queries using AdGuard dnsproxy for multi-protocol support.
// Delegates protocol handling (Do53, DoT, DoH, DoQ) to AdGuard upstream library.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AdguardTeam/dnsproxy/upstream"
	"github.com/miekg/dns"
	"github.com/zonetools/zoneinfo/internal/metrics"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
)

const (
	// CommandStatusOK indicates a successful DNS query
	CommandStatusOK = "ok"
	// CommandStatusError indicates a failed DNS query
	CommandStatusError = "error"

	// DefaultTimeout is the default timeout for DNS queries
	DefaultTimeout = 5 * time.Second
	// RetryDelay is the brief delay between retries
	RetryDelay = 100 * time.Millisecond // Brief delay between retries to avoid hammering
)

// RCodeToString maps miekg/dns response codes to their display names.
func RCodeToString(rcode int) string {
	if s, ok := dns.RcodeToString[rcode]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", rcode)
}

// GetDNSProtocolFromTarget extracts display name from normalize.ProtocolConfigs.
func GetDNSProtocolFromTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" {
		return "Unknown"
	}

	if cfg, ok := normalize.ProtocolConfigs[u.Scheme]; ok {
		return cfg.DisplayName
	}

	return "Unknown"
}

// stringToQType delegates to miekg/dns.StringToType to avoid maintaining type list.
func stringToQType(qtype string) (uint16, error) {
	if dnsType, ok := dns.StringToType[strings.ToUpper(qtype)]; ok {
		return dnsType, nil
	}
	return 0, fmt.Errorf("unsupported query type: %s", qtype)
}

// qtypeToString uses miekg/dns reverse mapping.
func qtypeToString(qtype uint16) string {
	if s, ok := dns.TypeToString[qtype]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", qtype)
}

// FormatRR renders the value portion of a resource record for display.
func FormatRR(rr dns.RR) string {
	// Type switch instead of reflection for performance
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return strings.TrimSuffix(v.Target, ".")
	case *dns.MX:
		return fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, "."))
	case *dns.NS:
		return strings.TrimSuffix(v.Ns, ".")
	case *dns.PTR:
		return strings.TrimSuffix(v.Ptr, ".")
	case *dns.TXT:
		return strings.Join(v.Txt, " ")
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d %d %d %d %d",
			strings.TrimSuffix(v.Ns, "."),
			strings.TrimSuffix(v.Mbox, "."),
			v.Serial, v.Refresh, v.Retry, v.Expire, v.Minttl)
	case *dns.SRV:
		return fmt.Sprintf("%d %d %d %s",
			v.Priority, v.Weight, v.Port, strings.TrimSuffix(v.Target, "."))
	case *dns.CAA:
		return fmt.Sprintf("%d %s %s", v.Flag, v.Tag, v.Value)
	default:
		return rr.String()
	}
}

// QueryServer performs a DNS query via AdGuard dnsproxy with retry logic.
// Retries with a 100ms delay - pragmatic default for transient network issues.
func QueryServer(ctx context.Context, domain, qtype string, res models.Resolver, tlsInsecure bool, retries int, timeout time.Duration) (string, models.DNSLookupResult) {
	result := models.DNSLookupResult{
		Tags:        res.Tags,
		DNSProtocol: GetDNSProtocolFromTarget(res.Target),
	}

	dnsType, err := stringToQType(qtype)
	if err != nil {
		result.CommandStatus = CommandStatusError
		result.Error = err.Error()
		metrics.DNSLookupErrors.WithLabelValues(res.Target, "invalid_qtype").Inc()
		return res.Target, result
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dnsType)
	msg.RecursionDesired = true

	response, rtt, err := ExchangeWithRetry(ctx, msg, res.Target, tlsInsecure, retries, timeout)
	if err != nil {
		result.CommandStatus = CommandStatusError
		if ctx.Err() != nil {
			result.Error = fmt.Sprintf("context cancelled: %v", ctx.Err())
			metrics.DNSLookupErrors.WithLabelValues(res.Target, "context_cancelled").Inc()
		} else {
			result.Error = fmt.Sprintf("query failed: %v", err)
			metrics.DNSLookupErrors.WithLabelValues(res.Target, "query_failed").Inc()
		}
		return res.Target, result
	}

	if response == nil {
		result.CommandStatus = CommandStatusError
		result.Error = "no response received"
		metrics.DNSLookupErrors.WithLabelValues(res.Target, "no_response").Inc()
		return res.Target, result
	}

	result.CommandStatus = CommandStatusOK
	result.TimeMs = float64(rtt.Microseconds()) / 1000.0
	result.RCode = RCodeToString(response.Rcode)

	metrics.RecordQueryMetrics(res.Target, result.TimeMs/1000.0, result.RCode, qtype)

	if len(response.Question) > 0 {
		result.Name = strings.TrimSuffix(response.Question[0].Name, ".")
		result.QType = qtypeToString(response.Question[0].Qtype)
	}

	result.Answers = []models.DNSAnswer{}
	for _, rr := range response.Answer {
		result.Answers = append(result.Answers, models.DNSAnswer{
			Name:  strings.TrimSuffix(rr.Header().Name, "."),
			Type:  qtypeToString(rr.Header().Rrtype),
			TTL:   rr.Header().Ttl,
			Value: FormatRR(rr),
		})
	}

	return res.Target, result
}

// ExchangeWithRetry wraps Exchange with the retry/cancellation loop shared by
// point lookups and zone probes.
func ExchangeWithRetry(ctx context.Context, msg *dns.Msg, target string, tlsInsecure bool, retries int, timeout time.Duration) (*dns.Msg, time.Duration, error) {
	if retries < 1 {
		retries = 1
	}

	var response *dns.Msg
	var rtt time.Duration
	var err error

	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("query cancelled: %w", ctx.Err())
		}

		response, rtt, err = Exchange(ctx, msg, target, tlsInsecure, timeout)
		if err == nil && response != nil {
			return response, rtt, nil
		}

		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("query cancelled: %w", ctx.Err())
		}

		if attempt < retries-1 {
			time.Sleep(RetryDelay)
		}
	}

	if err == nil {
		err = fmt.Errorf("no response received")
	}
	return nil, 0, err
}

// Exchange performs a single DNS exchange via the AdGuard upstream library.
// Target must be prenormalized - passed directly to AdGuard for protocol handling.
func Exchange(ctx context.Context, msg *dns.Msg, normalizedTarget string, tlsInsecure bool, timeout time.Duration) (*dns.Msg, time.Duration, error) {
	start := time.Now()

	opts := &upstream.Options{
		Timeout: timeout,
	}
	if tlsInsecure {
		// #nosec G402 - user-controlled for testing encrypted protocols
		slog.Warn("TLS certificate verification is DISABLED - USE ONLY FOR TESTING",
			"target", normalizedTarget)
		opts.InsecureSkipVerify = true
	}

	// AdGuard upstream.AddressToUpstream handles scheme parsing, port defaults, IPv6 brackets
	up, err := upstream.AddressToUpstream(normalizedTarget, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create upstream: %w", err)
	}
	defer func() {
		_ = up.Close()
	}()

	// Run Exchange in goroutine to enable context cancellation
	type result struct {
		resp *dns.Msg
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := up.Exchange(msg)
		resultCh <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("query cancelled: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, 0, fmt.Errorf("DNS query failed: %w", res.err)
		}
		rtt := time.Since(start)
		return res.resp, rtt, nil
	}
}

// RunQueries fans out queries to multiple resolvers with a concurrency limit.
// Semaphore pattern prevents resource exhaustion when querying many resolvers.
func RunQueries(ctx context.Context, domain, qtype string, resolvers []models.Resolver, tlsInsecure bool, timeout time.Duration, maxConcurrentQueries, maxRetries int) map[string]models.DNSLookupResult {
	results := make(map[string]models.DNSLookupResult)
	var mu sync.Mutex
	var wg sync.WaitGroup
	pool := make(chan struct{}, maxConcurrentQueries)

	for _, res := range resolvers {
		wg.Add(1)
		pool <- struct{}{}

		go func(r models.Resolver) {
			defer wg.Done()
			defer func() { <-pool }()

			target, result := QueryServer(ctx, domain, qtype, r, tlsInsecure, maxRetries, timeout)
			mu.Lock()
			results[target] = result
			mu.Unlock()
		}(res)
	}

	wg.Wait()
	return results
}
