// Package normalize validates and canonicalizes zone names, query types and
// resolver target URLs. It is the single source of truth for the supported
// DNS transport schemes and their default ports.
package normalize

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/miekg/dns"
)

// Supported target URL schemes.
const (
	SchemeUDP   = "udp"
	SchemeTCP   = "tcp"
	SchemeTLS   = "tls"
	SchemeHTTPS = "https"
	SchemeQUIC  = "quic"
)

// ProtocolConfig describes one DNS transport scheme.
type ProtocolConfig struct {
	Scheme       string
	DisplayName  string
	DefaultPort  int
	UsesHostname bool // TLS-based protocols verify certs against hostnames
}

// ProtocolConfigs maps scheme to transport behavior.
var ProtocolConfigs = map[string]ProtocolConfig{
	SchemeUDP:   {Scheme: SchemeUDP, DisplayName: "Do53", DefaultPort: 53},
	SchemeTCP:   {Scheme: SchemeTCP, DisplayName: "Do53", DefaultPort: 53},
	SchemeTLS:   {Scheme: SchemeTLS, DisplayName: "DoT", DefaultPort: 853, UsesHostname: true},
	SchemeHTTPS: {Scheme: SchemeHTTPS, DisplayName: "DoH", DefaultPort: 443, UsesHostname: true},
	SchemeQUIC:  {Scheme: SchemeQUIC, DisplayName: "DoQ", DefaultPort: 853, UsesHostname: true},
}

// Target normalizes a resolver target to scheme://host:port form.
// A bare IP or host:port is treated as plain DNS over UDP.
func Target(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty target")
	}

	if !strings.Contains(raw, "://") {
		// Bare IP, bare host or host:port - assume Do53/UDP
		raw = SchemeUDP + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable target %q: %w", raw, err)
	}

	cfg, ok := ProtocolConfigs[u.Scheme]
	if !ok {
		return "", fmt.Errorf("unsupported scheme %q (supported: udp, tcp, tls, https, quic)", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("target %q has no host", raw)
	}

	port := u.Port()
	if port == "" {
		port = fmt.Sprintf("%d", cfg.DefaultPort)
	}

	// DoH keeps its URL path (e.g. /dns-query); other schemes have none.
	hostport := net.JoinHostPort(host, port)
	if u.Scheme == SchemeHTTPS {
		path := u.Path
		if path == "" {
			path = "/dns-query"
		}
		return fmt.Sprintf("%s://%s%s", u.Scheme, hostport, path), nil
	}

	return fmt.Sprintf("%s://%s", u.Scheme, hostport), nil
}

// Domain validates a zone or domain name and returns it lowercased without
// the trailing dot. The root zone is returned as ".".
func Domain(raw string) (string, error) {
	name := strings.TrimSpace(strings.ToLower(raw))
	if name == "" {
		return "", fmt.Errorf("empty domain")
	}
	if name == "." {
		return ".", nil
	}

	if _, ok := dns.IsDomainName(name); !ok {
		return "", fmt.Errorf("invalid domain name %q", raw)
	}
	if strings.ContainsAny(name, " \t/\\") {
		return "", fmt.Errorf("invalid domain name %q", raw)
	}

	return strings.TrimSuffix(name, "."), nil
}

// QType validates a query type name against the miekg/dns registry and
// returns its canonical upper-case form.
func QType(raw string) (string, error) {
	q := strings.ToUpper(strings.TrimSpace(raw))
	if q == "" {
		return "", fmt.Errorf("empty query type")
	}
	if _, ok := dns.StringToType[q]; !ok {
		return "", fmt.Errorf("unknown query type %q", raw)
	}
	return q, nil
}

// IsValidIP reports whether s is a valid IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	return net.ParseIP(s) != nil
}

// IPToReverseDNS converts an IP address to its in-addr.arpa / ip6.arpa name
// without the trailing dot.
func IPToReverseDNS(ip string) (string, error) {
	rev, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("invalid IP address %q: %w", ip, err)
	}
	return strings.TrimSuffix(rev, "."), nil
}

// Parent returns the enclosing zone of name ("example.com" -> "com").
// The root zone has no parent and returns "", false.
func Parent(name string) (string, bool) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "", false
	}
	idx := strings.Index(name, ".")
	if idx < 0 {
		return ".", true // TLD's parent is the root
	}
	return name[idx+1:], true
}
