package zone

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
)

const testSOA = "example.test. 3600 IN SOA ns1.example.test. hostmaster.example.test. 100 7200 3600 1209600 3600"

func TestCheckAXFRAllowed(t *testing.T) {
	open := stubServer{
		"example.test. AXFR": {aa: true, answer: []string{
			testSOA,
			"example.test. 3600 IN NS ns1.example.test.",
			"www.example.test. 3600 IN A 192.0.2.80",
			testSOA,
		}},
	}
	addr := startTCP(t, open)

	ins := &Inspector{Timeout: 3 * time.Second}
	ins.ensureDefaults()
	ins.axfrAddr = func(string) string { return addr }

	info := ins.checkAXFR(context.Background(), "example.test.", "192.0.2.1")
	if !info.Attempted {
		t.Error("expected AXFR to be attempted")
	}
	if !info.Allowed {
		t.Fatalf("expected AXFR to be allowed, reason: %s", info.Reason)
	}
	if info.Records != 4 {
		t.Errorf("expected 4 records, got %d", info.Records)
	}
}

func TestCheckAXFRRefused(t *testing.T) {
	closed := stubServer{
		"example.test. AXFR": {rcode: dns.RcodeRefused},
	}
	addr := startTCP(t, closed)

	ins := &Inspector{Timeout: 3 * time.Second}
	ins.ensureDefaults()
	ins.axfrAddr = func(string) string { return addr }

	info := ins.checkAXFR(context.Background(), "example.test.", "192.0.2.1")
	if info.Allowed {
		t.Error("expected AXFR to be refused")
	}
	if info.Reason != "REFUSED" {
		t.Errorf("expected reason REFUSED, got %q", info.Reason)
	}
}

func TestCheckAXFRUnreachable(t *testing.T) {
	ins := &Inspector{Timeout: time.Second}
	ins.ensureDefaults()
	ins.axfrAddr = func(string) string { return "127.0.0.1:1" }

	info := ins.checkAXFR(context.Background(), "example.test.", "192.0.2.1")
	if info.Allowed {
		t.Error("expected AXFR to fail")
	}
	if info.Reason == "" {
		t.Error("expected a failure reason")
	}
}
