// Package zone implements zone inspection: delegation discovery, per-nameserver
// SOA probing, serial consistency checking and optional zone transfer checks.
package zone

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/zonetools/zoneinfo/internal/metrics"
	"github.com/zonetools/zoneinfo/internal/models"
	"github.com/zonetools/zoneinfo/internal/normalize"
	"github.com/zonetools/zoneinfo/internal/resolver"
)

const (
	// DefaultConcurrency bounds simultaneous nameserver probes.
	DefaultConcurrency = 8
	// DefaultProbePort is the port used for direct nameserver probes.
	DefaultProbePort = 53
)

// Inspector inspects DNS zones. Discovery queries (NS, A, AAAA) go through
// the configured recursive resolvers; SOA and AXFR probes go directly to the
// zone's nameserver addresses.
type Inspector struct {
	Resolvers   []models.Resolver
	Timeout     time.Duration
	Retries     int
	Concurrency int
	CheckAXFR   bool
	TLSInsecure bool
	ProbePort   int

	probeTarget func(scheme, ip string) string
	axfrAddr    func(ip string) string
}

func (i *Inspector) ensureDefaults() {
	if i.Timeout <= 0 {
		i.Timeout = resolver.DefaultTimeout
	}
	if i.Retries < 1 {
		i.Retries = 1
	}
	if i.Concurrency < 1 {
		i.Concurrency = DefaultConcurrency
	}
	if i.ProbePort == 0 {
		i.ProbePort = DefaultProbePort
	}
	if i.probeTarget == nil {
		port := strconv.Itoa(i.ProbePort)
		i.probeTarget = func(scheme, ip string) string {
			return scheme + "://" + net.JoinHostPort(ip, port)
		}
	}
	if i.axfrAddr == nil {
		port := strconv.Itoa(i.ProbePort)
		i.axfrAddr = func(ip string) string {
			return net.JoinHostPort(ip, port)
		}
	}
}

// Inspect runs a full inspection of the named zone.
func (i *Inspector) Inspect(ctx context.Context, zoneName string) (*models.ZoneReport, error) {
	i.ensureDefaults()

	if len(i.Resolvers) == 0 {
		return nil, fmt.Errorf("no resolvers configured")
	}

	zoneName, err := normalize.Domain(zoneName)
	if err != nil {
		return nil, err
	}
	fqdn := dns.Fqdn(zoneName)

	start := time.Now()
	report := &models.ZoneReport{Zone: zoneName}

	apexNS, err := i.lookupNS(ctx, fqdn)
	if err != nil {
		metrics.ZoneInspectionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	report.ApexNS = apexNS

	i.checkDelegation(ctx, fqdn, report)
	i.probeNameservers(ctx, fqdn, report)
	summarize(report)

	report.Duration = time.Since(start).Seconds()
	metrics.ZoneInspectionsTotal.WithLabelValues("ok").Inc()
	metrics.ZoneInspectionDuration.Observe(report.Duration)

	slog.Debug("zone inspection finished",
		"zone", zoneName,
		"nameservers", len(report.Nameservers),
		"duration_seconds", fmt.Sprintf("%.3f", report.Duration))

	return report, nil
}

// resolve issues one recursive query, trying each configured resolver in order.
func (i *Inspector) resolve(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, res := range i.Resolvers {
		resp, _, err := resolver.ExchangeWithRetry(ctx, msg, res.Target, i.TLSInsecure, i.Retries, i.Timeout)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no resolvers configured")
	}
	return nil, fmt.Errorf("all resolvers failed for %s: %w", name, lastErr)
}

// lookupNS returns the zone's NS names, sorted and lowercased without
// trailing dots.
func (i *Inspector) lookupNS(ctx context.Context, fqdn string) ([]string, error) {
	resp, err := i.resolve(ctx, fqdn, dns.TypeNS)
	if err != nil {
		return nil, err
	}

	if resp.Rcode == dns.RcodeNameError {
		return nil, fmt.Errorf("zone %s does not exist (NXDOMAIN)", strings.TrimSuffix(fqdn, "."))
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("NS query for %s failed with rcode %s", strings.TrimSuffix(fqdn, "."), resolver.RCodeToString(resp.Rcode))
	}

	names := nsNames(resp.Answer)
	if len(names) == 0 {
		return nil, fmt.Errorf("no NS records found for %s (not a zone apex?)", strings.TrimSuffix(fqdn, "."))
	}
	return names, nil
}

// lookupAddrs resolves the A and AAAA records of a nameserver host.
// IPv4 addresses come first, each group sorted lexically.
func (i *Inspector) lookupAddrs(ctx context.Context, host string) ([]string, error) {
	var v4, v6 []string
	var errs []string

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := i.resolve(ctx, dns.Fqdn(host), qtype)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				v4 = append(v4, v.A.String())
			case *dns.AAAA:
				v6 = append(v6, v.AAAA.String())
			}
		}
	}

	sort.Strings(v4)
	sort.Strings(v6)
	addrs := append(v4, v6...)

	if len(addrs) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("address lookup failed: %s", strings.Join(errs, "; "))
		}
		return nil, fmt.Errorf("no addresses found")
	}
	return addrs, nil
}

// checkDelegation asks a parent-zone server for the child's delegation NS set.
// Failure to walk the parent is reported as a warning, never as an error.
func (i *Inspector) checkDelegation(ctx context.Context, fqdn string, report *models.ZoneReport) {
	parent, ok := normalize.Parent(strings.TrimSuffix(fqdn, "."))
	if !ok {
		// Root zone has no parent, nothing to compare against.
		return
	}

	parentNS, err := i.lookupNS(ctx, dns.Fqdn(parent))
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("parent zone %s: NS lookup failed: %v", parent, err))
		return
	}

	// One parent server is enough for the delegation view.
	addrs, err := i.lookupAddrs(ctx, parentNS[0])
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("parent nameserver %s: %v", parentNS[0], err))
		return
	}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeNS)
	msg.RecursionDesired = false

	target := i.probeTarget(normalize.SchemeUDP, addrs[0])
	resp, _, err := resolver.ExchangeWithRetry(ctx, msg, target, i.TLSInsecure, i.Retries, i.Timeout)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("delegation query to %s (%s) failed: %v", parentNS[0], addrs[0], err))
		return
	}

	// Delegations live in the authority section; a parent that is also
	// authoritative for the child answers directly.
	delegation := nsNames(append(resp.Answer, resp.Ns...))
	if len(delegation) == 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("parent server %s returned no delegation for %s", addrs[0], strings.TrimSuffix(fqdn, ".")))
		return
	}
	report.ParentNS = delegation
}

// probeNameservers resolves each NS name and probes every address, fanning
// out with a bounded worker pool.
func (i *Inspector) probeNameservers(ctx context.Context, fqdn string, report *models.ZoneReport) {
	reports := make([]models.NameserverReport, len(report.ApexNS))

	var mu sync.Mutex
	var wg sync.WaitGroup
	pool := make(chan struct{}, i.Concurrency)

	for idx, name := range report.ApexNS {
		wg.Add(1)
		pool <- struct{}{}

		go func(idx int, name string) {
			defer wg.Done()
			defer func() { <-pool }()

			nsReport := models.NameserverReport{Name: name}

			addrs, err := i.lookupAddrs(ctx, name)
			if err != nil {
				nsReport.ResolveError = err.Error()
				mu.Lock()
				report.Warnings = append(report.Warnings, fmt.Sprintf("nameserver %s: %v", name, err))
				reports[idx] = nsReport
				mu.Unlock()
				return
			}

			var soa *models.SOAInfo
			for _, addr := range addrs {
				ar, s := i.probeAddr(ctx, fqdn, addr)
				nsReport.Addrs = append(nsReport.Addrs, ar)
				if soa == nil {
					soa = s
				}
			}

			mu.Lock()
			reports[idx] = nsReport
			if report.SOA == nil && soa != nil {
				report.SOA = soa
			}
			mu.Unlock()
		}(idx, name)
	}

	wg.Wait()
	report.Nameservers = reports

	sort.Slice(report.Nameservers, func(a, b int) bool {
		return report.Nameservers[a].Name < report.Nameservers[b].Name
	})
}

// probeAddr sends a non-recursive SOA query to one nameserver address,
// retries over TCP on truncation, and optionally attempts AXFR. The second
// return value carries the SOA fields when the answer was authoritative.
func (i *Inspector) probeAddr(ctx context.Context, fqdn, addr string) (models.AddrReport, *models.SOAInfo) {
	ar := models.AddrReport{Addr: addr}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeSOA)
	msg.RecursionDesired = false

	resp, rtt, err := resolver.ExchangeWithRetry(ctx, msg, i.probeTarget(normalize.SchemeUDP, addr), i.TLSInsecure, i.Retries, i.Timeout)
	if err == nil && resp != nil && resp.Truncated {
		resp, rtt, err = resolver.ExchangeWithRetry(ctx, msg, i.probeTarget(normalize.SchemeTCP, addr), i.TLSInsecure, i.Retries, i.Timeout)
	}

	// TCP reachability is checked even when the UDP probe fails, so a
	// UDP-filtered server still shows up as reachable over TCP.
	ar.TCPOk = i.probeTCP(ctx, fqdn, addr)

	if err != nil {
		ar.Error = err.Error()
		metrics.NameserverProbesTotal.WithLabelValues("unreachable").Inc()
		return ar, nil
	}

	ar.RCode = resolver.RCodeToString(resp.Rcode)
	ar.TimeMs = float64(rtt.Microseconds()) / 1000.0
	ar.Authoritative = resp.Authoritative

	var soaInfo *models.SOAInfo
	for _, rr := range resp.Answer {
		if soa, ok := rr.(*dns.SOA); ok {
			ar.Serial = soa.Serial
			ar.Answered = true
			if resp.Authoritative {
				soaInfo = &models.SOAInfo{
					MName:   strings.TrimSuffix(strings.ToLower(soa.Ns), "."),
					RName:   strings.TrimSuffix(strings.ToLower(soa.Mbox), "."),
					Serial:  soa.Serial,
					Refresh: soa.Refresh,
					Retry:   soa.Retry,
					Expire:  soa.Expire,
					Minimum: soa.Minttl,
					TTL:     soa.Header().Ttl,
				}
			}
			break
		}
	}

	if resp.Authoritative {
		metrics.NameserverProbesTotal.WithLabelValues("authoritative").Inc()
	} else {
		metrics.NameserverProbesTotal.WithLabelValues("lame").Inc()
	}

	if i.CheckAXFR {
		ar.AXFR = i.checkAXFR(ctx, fqdn, addr)
	}

	return ar, soaInfo
}

// probeTCP reports whether the server answers the SOA query over TCP.
func (i *Inspector) probeTCP(ctx context.Context, fqdn, addr string) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeSOA)
	msg.RecursionDesired = false

	resp, _, err := resolver.ExchangeWithRetry(ctx, msg, i.probeTarget(normalize.SchemeTCP, addr), i.TLSInsecure, 1, i.Timeout)
	return err == nil && resp != nil
}

// summarize fills the aggregate fields once all probes are done.
func summarize(report *models.ZoneReport) {
	serials := make(map[uint32]bool)
	answered := 0

	for _, ns := range report.Nameservers {
		for _, ar := range ns.Addrs {
			if ar.Error != "" || ar.RCode != "NOERROR" {
				continue
			}
			if !ar.Authoritative {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("nameserver %s (%s) is not authoritative for the zone (lame)", ns.Name, ar.Addr))
			}
			if ar.Answered {
				serials[ar.Serial] = true
				answered++
			}
		}
	}

	report.SerialsConsistent = answered > 0 && len(serials) == 1
	if answered == 0 {
		report.Warnings = append(report.Warnings, "no nameserver answered the SOA query")
	} else if len(serials) > 1 {
		list := make([]string, 0, len(serials))
		for s := range serials {
			list = append(list, strconv.FormatUint(uint64(s), 10))
		}
		sort.Strings(list)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("nameservers disagree on the zone serial: %s", strings.Join(list, ", ")))
	}

	if len(report.ParentNS) == 0 {
		// Parent view unavailable (root zone or failed walk); nothing to compare.
		report.DelegationMatch = true
	} else {
		report.DelegationMatch = equalNameSets(report.ApexNS, report.ParentNS)
		if !report.DelegationMatch {
			report.Warnings = append(report.Warnings,
				"delegation NS set at the parent differs from the zone's apex NS set")
		}
	}
}

// nsNames extracts, normalizes and sorts NS target names from a record list.
func nsNames(rrs []dns.RR) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rr := range rrs {
		ns, ok := rr.(*dns.NS)
		if !ok {
			continue
		}
		name := strings.TrimSuffix(strings.ToLower(ns.Ns), ".")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func equalNameSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, n := range a {
		set[n] = true
	}
	for _, n := range b {
		if !set[n] {
			return false
		}
	}
	return true
}
