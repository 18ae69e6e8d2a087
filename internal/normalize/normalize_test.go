package normalize

import "testing"

func TestTarget(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"udp://9.9.9.9:53", "udp://9.9.9.9:53", false},
		{"udp://9.9.9.9", "udp://9.9.9.9:53", false},
		{"9.9.9.9", "udp://9.9.9.9:53", false},
		{"9.9.9.9:5353", "udp://9.9.9.9:5353", false},
		{"tcp://94.140.14.14", "tcp://94.140.14.14:53", false},
		{"tls://dns.quad9.net", "tls://dns.quad9.net:853", false},
		{"https://dns.quad9.net/dns-query", "https://dns.quad9.net:443/dns-query", false},
		{"https://dns.quad9.net", "https://dns.quad9.net:443/dns-query", false},
		{"quic://dns.adguard-dns.com", "quic://dns.adguard-dns.com:853", false},
		{"udp://[2620:fe::fe]:53", "udp://[2620:fe::fe]:53", false},
		{"ftp://example.com", "", true},
		{"", "", true},
		{"udp://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Target(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"Example.COM", "example.com", false},
		{"example.com.", "example.com", false},
		{".", ".", false},
		{"sub.example.co.uk", "sub.example.co.uk", false},
		{"", "", true},
		{"exa mple.com", "", true},
	}

	for _, tt := range tests {
		got, err := Domain(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Domain(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Domain(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Domain(%q): expected %q, got %q", tt.in, tt.expected, got)
		}
	}
}

func TestQType(t *testing.T) {
	if got, err := QType("soa"); err != nil || got != "SOA" {
		t.Errorf("QType(soa) = %q, %v", got, err)
	}
	if got, err := QType("ns"); err != nil || got != "NS" {
		t.Errorf("QType(ns) = %q, %v", got, err)
	}
	if _, err := QType("NOTATYPE"); err == nil {
		t.Error("QType(NOTATYPE): expected error")
	}
}

func TestIPToReverseDNS(t *testing.T) {
	got, err := IPToReverseDNS("9.9.9.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "9.9.9.9.in-addr.arpa" {
		t.Errorf("expected 9.9.9.9.in-addr.arpa, got %q", got)
	}

	if _, err := IPToReverseDNS("not-an-ip"); err == nil {
		t.Error("expected error for invalid IP")
	}
}

func TestParent(t *testing.T) {
	tests := []struct {
		in     string
		parent string
		ok     bool
	}{
		{"www.example.com", "example.com", true},
		{"example.com", "com", true},
		{"com", ".", true},
		{"", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		parent, ok := Parent(tt.in)
		if parent != tt.parent || ok != tt.ok {
			t.Errorf("Parent(%q) = %q, %v; expected %q, %v", tt.in, parent, ok, tt.parent, tt.ok)
		}
	}
}
