package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
resolvers:
  - ip: 9.9.9.9
    services: [do53/udp, do53/tcp]
    tags: [QUAD9]
  - hostname: dns.quad9.net
    services: [dot]
zone:
  check_axfr: true
  probe_port: 5353
dns:
  timeout: 7
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.Resolvers) != 2 {
		t.Fatalf("expected 2 resolvers, got %d", len(cfg.Resolvers))
	}
	if !cfg.Zone.CheckAXFR {
		t.Error("expected check_axfr true")
	}
	if cfg.GetZoneProbePort() != 5353 {
		t.Errorf("expected probe port 5353, got %d", cfg.GetZoneProbePort())
	}
	if cfg.GetDNSTimeout() != 7 {
		t.Errorf("expected timeout 7, got %d", cfg.GetDNSTimeout())
	}

	targets := cfg.GetResolverTargets()
	want := map[string]bool{
		"udp://9.9.9.9:53":        true,
		"tcp://9.9.9.9:53":        true,
		"tls://dns.quad9.net:853": true,
	}
	if len(targets) != len(want) {
		t.Fatalf("expected %d targets, got %d: %v", len(want), len(targets), targets)
	}
	for _, tgt := range targets {
		if !want[tgt.Target] {
			t.Errorf("unexpected target %q", tgt.Target)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("expected empty config for missing file, got error: %v", err)
	}
	if len(cfg.Resolvers) != 0 {
		t.Errorf("expected no resolvers, got %d", len(cfg.Resolvers))
	}
	// Defaults apply on an empty config.
	if cfg.GetZoneProbePort() != 53 {
		t.Errorf("expected default probe port 53, got %d", cfg.GetZoneProbePort())
	}
	if cfg.GetMaxRetries() != 3 {
		t.Errorf("expected default retries 3, got %d", cfg.GetMaxRetries())
	}
}

func TestLoadConfigInvalidResolver(t *testing.T) {
	path := writeConfig(t, `
resolvers:
  - ip: not-an-ip
    services: [do53/udp]
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for invalid IP")
	}

	path = writeConfig(t, `
resolvers:
  - hostname: dns.example.net
    services: [do53/udp]
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error: do53 requires an IP")
	}
}

func TestApplyOverrides(t *testing.T) {
	val := 0
	ApplyIntOverride(false, 0, &val, 5)
	if val != 5 {
		t.Errorf("expected default 5, got %d", val)
	}

	ApplyIntOverride(true, 9, &val, 5)
	if val != 9 {
		t.Errorf("expected override 9, got %d", val)
	}

	s := ""
	ApplyStringOverride("", &s, "fallback")
	if s != "fallback" {
		t.Errorf("expected fallback, got %q", s)
	}
	ApplyStringOverride("explicit", &s, "fallback")
	if s != "explicit" {
		t.Errorf("expected explicit, got %q", s)
	}
}
