package zone

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/zonetools/zoneinfo/internal/models"
)

// stubResponse describes one canned answer for the stub servers.
type stubResponse struct {
	rcode     int
	aa        bool
	answer    []string // zone file syntax
	authority []string
}

// stubServer answers from a table keyed by "name TYPE".
type stubServer map[string]stubResponse

func (s stubServer) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(req)

	if len(req.Question) != 1 {
		m.Rcode = dns.RcodeFormatError
		_ = w.WriteMsg(m)
		return
	}

	q := req.Question[0]
	key := fmt.Sprintf("%s %s", strings.ToLower(q.Name), dns.TypeToString[q.Qtype])
	resp, ok := s[key]
	if !ok {
		m.Rcode = dns.RcodeNameError
		_ = w.WriteMsg(m)
		return
	}

	m.Rcode = resp.rcode
	m.Authoritative = resp.aa
	for _, text := range resp.answer {
		m.Answer = append(m.Answer, mustRR(text))
	}
	for _, text := range resp.authority {
		m.Ns = append(m.Ns, mustRR(text))
	}
	_ = w.WriteMsg(m)
}

func mustRR(text string) dns.RR {
	rr, err := dns.NewRR(text)
	if err != nil {
		panic("bad test RR: " + text + ": " + err.Error())
	}
	return rr
}

func startUDP(t *testing.T, h dns.Handler) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	srv := &dns.Server{PacketConn: pc, Handler: h}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func startTCP(t *testing.T, h dns.Handler) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen tcp: %v", err)
	}
	srv := &dns.Server{Listener: l, Handler: h}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return l.Addr().String()
}

const testZone = "example.test."

// authServer builds the canned responses an authoritative server for
// example.test would give, with a configurable serial and AA flag.
func authServer(serial uint32, aa bool) stubServer {
	soa := fmt.Sprintf("example.test. 3600 IN SOA ns1.example.test. hostmaster.example.test. %d 7200 3600 1209600 3600", serial)
	return stubServer{
		"example.test. SOA": {aa: aa, answer: []string{soa}},
	}
}

// testSetup wires a stub recursive resolver, two authoritative servers and a
// parent server, and returns an Inspector routed at them.
type testSetup struct {
	inspector *Inspector
}

func newTestSetup(t *testing.T, serial1, serial2 uint32, aa2 bool) *testSetup {
	t.Helper()
	return newTestSetupWithDelegation(t, serial1, serial2, aa2, []string{
		"example.test. 3600 IN NS ns1.example.test.",
		"example.test. 3600 IN NS ns2.example.test.",
	})
}

func newTestSetupWithDelegation(t *testing.T, serial1, serial2 uint32, aa2 bool, delegation []string) *testSetup {
	t.Helper()

	// Recursive view: apex NS set and nameserver addresses.
	recursive := stubServer{
		"example.test. NS": {answer: []string{
			"example.test. 3600 IN NS ns1.example.test.",
			"example.test. 3600 IN NS ns2.example.test.",
		}},
		"ns1.example.test. A":    {answer: []string{"ns1.example.test. 3600 IN A 192.0.2.1"}},
		"ns1.example.test. AAAA": {},
		"ns2.example.test. A":    {answer: []string{"ns2.example.test. 3600 IN A 192.0.2.2"}},
		"ns2.example.test. AAAA": {},
		"test. NS":               {answer: []string{"test. 3600 IN NS ns.parent.test."}},
		"ns.parent.test. A":      {answer: []string{"ns.parent.test. 3600 IN A 192.0.2.10"}},
		"ns.parent.test. AAAA":   {},
	}
	resolverAddr := startUDP(t, recursive)

	auth1 := authServer(serial1, true)
	auth2 := authServer(serial2, aa2)
	auth1UDP := startUDP(t, auth1)
	auth1TCP := startTCP(t, auth1)
	auth2UDP := startUDP(t, auth2)
	auth2TCP := startTCP(t, auth2)

	// Parent view: delegation lives in the authority section.
	parent := stubServer{
		"example.test. NS": {authority: delegation},
	}
	parentUDP := startUDP(t, parent)

	udpRoutes := map[string]string{
		"192.0.2.1":  auth1UDP,
		"192.0.2.2":  auth2UDP,
		"192.0.2.10": parentUDP,
	}
	tcpRoutes := map[string]string{
		"192.0.2.1": auth1TCP,
		"192.0.2.2": auth2TCP,
	}

	ins := &Inspector{
		Resolvers: []models.Resolver{{Target: "udp://" + resolverAddr}},
		Timeout:   3 * time.Second,
		Retries:   1,
	}
	ins.probeTarget = func(scheme, ip string) string {
		routes := udpRoutes
		if scheme == "tcp" {
			routes = tcpRoutes
		}
		addr, ok := routes[ip]
		if !ok {
			return scheme + "://127.0.0.1:1" // nothing listens here
		}
		return scheme + "://" + addr
	}
	ins.axfrAddr = func(ip string) string {
		if addr, ok := tcpRoutes[ip]; ok {
			return addr
		}
		return "127.0.0.1:1"
	}

	return &testSetup{inspector: ins}
}

func TestInspectConsistentZone(t *testing.T) {
	setup := newTestSetup(t, 100, 100, true)

	report, err := setup.inspector.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if report.Zone != "example.test" {
		t.Errorf("expected zone example.test, got %q", report.Zone)
	}

	wantNS := []string{"ns1.example.test", "ns2.example.test"}
	if len(report.ApexNS) != 2 || report.ApexNS[0] != wantNS[0] || report.ApexNS[1] != wantNS[1] {
		t.Errorf("unexpected apex NS set: %v", report.ApexNS)
	}
	if !report.DelegationMatch {
		t.Errorf("expected delegation match, parent NS: %v", report.ParentNS)
	}
	if !report.SerialsConsistent {
		t.Errorf("expected consistent serials, warnings: %v", report.Warnings)
	}

	if report.SOA == nil {
		t.Fatal("expected SOA detail")
	}
	if report.SOA.Serial != 100 || report.SOA.MName != "ns1.example.test" {
		t.Errorf("unexpected SOA: %+v", report.SOA)
	}
	if report.SOA.Refresh != 7200 || report.SOA.Expire != 1209600 {
		t.Errorf("unexpected SOA timers: %+v", report.SOA)
	}

	if len(report.Nameservers) != 2 {
		t.Fatalf("expected 2 nameserver reports, got %d", len(report.Nameservers))
	}
	for _, ns := range report.Nameservers {
		if len(ns.Addrs) != 1 {
			t.Fatalf("nameserver %s: expected 1 address, got %d", ns.Name, len(ns.Addrs))
		}
		ar := ns.Addrs[0]
		if ar.Serial != 100 {
			t.Errorf("nameserver %s: expected serial 100, got %d", ns.Name, ar.Serial)
		}
		if !ar.Authoritative {
			t.Errorf("nameserver %s: expected authoritative answer", ns.Name)
		}
		if !ar.TCPOk {
			t.Errorf("nameserver %s: expected TCP to work", ns.Name)
		}
		if ar.RCode != "NOERROR" {
			t.Errorf("nameserver %s: unexpected rcode %s", ns.Name, ar.RCode)
		}
	}

	for _, w := range report.Warnings {
		if strings.Contains(w, "lame") || strings.Contains(w, "serial") {
			t.Errorf("unexpected warning: %s", w)
		}
	}
}

func TestInspectDelegationMismatch(t *testing.T) {
	// The parent delegates to a stale NS set that no longer matches the apex.
	setup := newTestSetupWithDelegation(t, 100, 100, true, []string{
		"example.test. 3600 IN NS ns-old.example.test.",
	})

	report, err := setup.inspector.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if report.DelegationMatch {
		t.Errorf("expected delegation mismatch, apex %v parent %v", report.ApexNS, report.ParentNS)
	}
	if len(report.ParentNS) != 1 || report.ParentNS[0] != "ns-old.example.test" {
		t.Errorf("unexpected parent NS set: %v", report.ParentNS)
	}

	var sawWarning bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "delegation NS set at the parent differs") {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Errorf("expected delegation mismatch warning, got %v", report.Warnings)
	}
}

func TestInspectSerialZero(t *testing.T) {
	// Serial 0 is a legitimate value and must count as an answer.
	setup := newTestSetup(t, 0, 0, true)

	report, err := setup.inspector.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if !report.SerialsConsistent {
		t.Errorf("expected consistent serials, warnings: %v", report.Warnings)
	}
	for _, w := range report.Warnings {
		if strings.Contains(w, "no nameserver answered") {
			t.Errorf("unexpected warning: %s", w)
		}
	}
	for _, ns := range report.Nameservers {
		for _, ar := range ns.Addrs {
			if !ar.Answered {
				t.Errorf("nameserver %s (%s): expected SOA answer", ns.Name, ar.Addr)
			}
			if ar.Serial != 0 {
				t.Errorf("nameserver %s (%s): expected serial 0, got %d", ns.Name, ar.Addr, ar.Serial)
			}
		}
	}
}

func TestInspectUDPFilteredNameserver(t *testing.T) {
	recursive := stubServer{
		"example.test. NS":       {answer: []string{"example.test. 3600 IN NS ns1.example.test."}},
		"ns1.example.test. A":    {answer: []string{"ns1.example.test. 3600 IN A 192.0.2.1"}},
		"ns1.example.test. AAAA": {},
	}
	resolverAddr := startUDP(t, recursive)
	authTCP := startTCP(t, authServer(100, true))

	ins := &Inspector{
		Resolvers: []models.Resolver{{Target: "udp://" + resolverAddr}},
		Timeout:   2 * time.Second,
		Retries:   1,
	}
	// UDP to the nameserver goes nowhere, TCP reaches the real server.
	ins.probeTarget = func(scheme, ip string) string {
		if scheme == "tcp" && ip == "192.0.2.1" {
			return "tcp://" + authTCP
		}
		return scheme + "://127.0.0.1:1"
	}

	report, err := ins.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if len(report.Nameservers) != 1 || len(report.Nameservers[0].Addrs) != 1 {
		t.Fatalf("unexpected nameserver reports: %+v", report.Nameservers)
	}
	ar := report.Nameservers[0].Addrs[0]
	if ar.Error == "" {
		t.Error("expected error from the failed UDP probe")
	}
	if !ar.TCPOk {
		t.Error("expected TCP reachability despite UDP probe failure")
	}
}

func TestInspectSerialMismatchAndLameServer(t *testing.T) {
	setup := newTestSetup(t, 100, 200, false)

	report, err := setup.inspector.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if report.SerialsConsistent {
		t.Error("expected serial mismatch to be detected")
	}

	var sawSerialWarning, sawLameWarning bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "disagree on the zone serial") {
			sawSerialWarning = true
		}
		if strings.Contains(w, "lame") {
			sawLameWarning = true
		}
	}
	if !sawSerialWarning {
		t.Errorf("expected serial mismatch warning, got %v", report.Warnings)
	}
	if !sawLameWarning {
		t.Errorf("expected lame server warning, got %v", report.Warnings)
	}

	// SOA detail must come from an authoritative answer only.
	if report.SOA == nil || report.SOA.Serial != 100 {
		t.Errorf("expected SOA from the authoritative server, got %+v", report.SOA)
	}
}

func TestInspectNXDOMAIN(t *testing.T) {
	recursive := stubServer{} // answers NXDOMAIN for everything
	addr := startUDP(t, recursive)

	ins := &Inspector{
		Resolvers: []models.Resolver{{Target: "udp://" + addr}},
		Timeout:   3 * time.Second,
		Retries:   1,
	}

	_, err := ins.Inspect(context.Background(), "nonexistent.test")
	if err == nil {
		t.Fatal("expected error for NXDOMAIN zone")
	}
	if !strings.Contains(err.Error(), "NXDOMAIN") {
		t.Errorf("expected NXDOMAIN in error, got: %v", err)
	}
}

func TestInspectUnresolvableNameserver(t *testing.T) {
	recursive := stubServer{
		"example.test. NS": {answer: []string{
			"example.test. 3600 IN NS ns1.example.test.",
		}},
		// No A/AAAA entries: lookups return NXDOMAIN.
	}
	addr := startUDP(t, recursive)

	ins := &Inspector{
		Resolvers: []models.Resolver{{Target: "udp://" + addr}},
		Timeout:   3 * time.Second,
		Retries:   1,
	}

	report, err := ins.Inspect(context.Background(), "example.test")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if len(report.Nameservers) != 1 {
		t.Fatalf("expected 1 nameserver report, got %d", len(report.Nameservers))
	}
	if report.Nameservers[0].ResolveError == "" {
		t.Error("expected resolve error for unresolvable nameserver")
	}
	if len(report.Nameservers[0].Addrs) != 0 {
		t.Errorf("expected no address reports, got %v", report.Nameservers[0].Addrs)
	}
}

func TestInspectNoResolvers(t *testing.T) {
	ins := &Inspector{}
	if _, err := ins.Inspect(context.Background(), "example.test"); err == nil {
		t.Fatal("expected error with no resolvers configured")
	}
}

func TestNSNames(t *testing.T) {
	rrs := []dns.RR{
		mustRR("example.test. 3600 IN NS NS2.Example.Test."),
		mustRR("example.test. 3600 IN NS ns1.example.test."),
		mustRR("example.test. 3600 IN NS ns1.example.test."), // duplicate
		mustRR("example.test. 3600 IN A 192.0.2.1"),          // ignored
	}
	got := nsNames(rrs)
	if len(got) != 2 || got[0] != "ns1.example.test" || got[1] != "ns2.example.test" {
		t.Errorf("unexpected NS names: %v", got)
	}
}

func TestEqualNameSets(t *testing.T) {
	if !equalNameSets([]string{"a", "b"}, []string{"b", "a"}) {
		t.Error("expected equal sets")
	}
	if equalNameSets([]string{"a"}, []string{"a", "b"}) {
		t.Error("expected unequal sets of different size")
	}
	if equalNameSets([]string{"a", "c"}, []string{"a", "b"}) {
		t.Error("expected unequal sets")
	}
}
