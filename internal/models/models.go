// Package models defines API request/response structures.
package models

import (
	"fmt"
	"time"

	"github.com/zonetools/zoneinfo/internal/normalize"
)

const (
	// MaxResolversPerReq limits resolvers per request to prevent resource exhaustion.
	MaxResolversPerReq = 50
)

// Resolver represents a recursive resolver target with optional tags
// @Description Resolver configuration with protocol://host:port format
type Resolver struct {
	Target string   `json:"target" example:"udp://9.9.9.9:53"`      // Resolver in format protocol://host:port
	Tags   []string `json:"tags,omitempty" example:"QUAD9,PRIMARY"` // Optional tags for identification
}

// Validate delegates target validation to normalize.Target.
func (r *Resolver) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("resolver target cannot be empty")
	}

	if _, err := normalize.Target(r.Target); err != nil {
		return fmt.Errorf("invalid resolver target '%s': %w", r.Target, err)
	}

	return nil
}

// ZoneInfoRequest represents a zone inspection API request
// @Description Zone inspection request with zone name and optional resolvers
type ZoneInfoRequest struct {
	Zone                  string     `json:"zone" binding:"required" example:"example.com"`      // Zone name to inspect
	Resolvers             []Resolver `json:"resolvers,omitempty"`                                // Recursive resolvers (optional, uses config if empty)
	CheckAXFR             bool       `json:"check_axfr,omitempty" example:"false"`               // Attempt zone transfer against each nameserver
	TLSInsecureSkipVerify bool       `json:"tls_insecure_skip_verify,omitempty" example:"false"` // Skip TLS certificate verification (testing only)
}

// Validate normalizes the zone name and checks resolver targets.
func (r *ZoneInfoRequest) Validate() error {
	zone, err := normalize.Domain(r.Zone)
	if err != nil {
		return fmt.Errorf("invalid zone: %w", err)
	}
	r.Zone = zone

	for i := range r.Resolvers {
		if err := r.Resolvers[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// DNSLookupRequest represents a generic DNS lookup API request
// @Description DNS lookup request with domain, query type, and optional resolvers
type DNSLookupRequest struct {
	Domain                string     `json:"domain" binding:"required" example:"example.com"`    // Domain name to query
	Resolvers             []Resolver `json:"resolvers,omitempty"`                                // Resolvers to query (optional, uses config if empty)
	QType                 string     `json:"qtype" binding:"required" example:"SOA"`             // Query type (A, AAAA, NS, SOA, etc.)
	TLSInsecureSkipVerify bool       `json:"tls_insecure_skip_verify,omitempty" example:"false"` // Skip TLS certificate verification (testing only)
}

// Validate checks if domain and qtype are valid.
func (r *DNSLookupRequest) Validate() error {
	normalized, err := normalize.Domain(r.Domain)
	if err != nil {
		return fmt.Errorf("invalid domain: %w", err)
	}
	r.Domain = normalized

	normalizedQType, err := normalize.QType(r.QType)
	if err != nil {
		return fmt.Errorf("invalid query type: %w", err)
	}
	r.QType = normalizedQType

	return nil
}

// SOAInfo holds the fields of a zone's SOA record
// @Description Start-of-Authority record fields
type SOAInfo struct {
	MName   string `json:"mname" example:"ns1.example.com"`        // Primary master nameserver
	RName   string `json:"rname" example:"hostmaster.example.com"` // Responsible party mailbox
	Serial  uint32 `json:"serial" example:"2024082701"`            // Zone serial number
	Refresh uint32 `json:"refresh" example:"7200"`                 // Secondary refresh interval (seconds)
	Retry   uint32 `json:"retry" example:"3600"`                   // Secondary retry interval (seconds)
	Expire  uint32 `json:"expire" example:"1209600"`               // Secondary expiry (seconds)
	Minimum uint32 `json:"minimum" example:"3600"`                 // Negative caching TTL (seconds)
	TTL     uint32 `json:"ttl" example:"3600"`                     // SOA record TTL
}

// AxfrInfo reports the outcome of a zone transfer attempt
// @Description Zone transfer (AXFR) check result for one nameserver address
type AxfrInfo struct {
	Attempted bool    `json:"attempted" example:"true"`           // Whether AXFR was attempted
	Allowed   bool    `json:"allowed" example:"false"`            // Whether the server served the zone
	Records   int     `json:"records,omitempty" example:"42"`     // Record count when allowed
	Reason    string  `json:"reason,omitempty" example:"REFUSED"` // Refusal or failure reason
	TimeMs    float64 `json:"time_ms,omitempty" example:"18.2"`   // Transfer duration in milliseconds
}

// AddrReport holds per-address probe results for one nameserver
// @Description Direct query results for a single nameserver address
type AddrReport struct {
	Addr          string    `json:"addr" example:"199.43.135.53"`          // Nameserver IP address
	Serial        uint32    `json:"serial,omitempty" example:"2024082701"` // SOA serial served by this address
	Answered      bool      `json:"answered" example:"true"`               // Whether the response carried an SOA answer
	Authoritative bool      `json:"authoritative" example:"true"`          // AA flag on the SOA response
	RCode         string    `json:"rcode,omitempty" example:"NOERROR"`     // DNS response code
	TimeMs        float64   `json:"time_ms,omitempty" example:"12.4"`      // Query round-trip in milliseconds
	TCPOk         bool      `json:"tcp_ok" example:"true"`                 // Whether the server answered over TCP
	AXFR          *AxfrInfo `json:"axfr,omitempty"`                        // Zone transfer check (when requested)
	Error         string    `json:"error,omitempty" example:"i/o timeout"` // Probe error if the query failed
}

// NameserverReport aggregates probe results for one NS name
// @Description Per-nameserver inspection results
type NameserverReport struct {
	Name         string       `json:"name" example:"a.iana-servers.net"`                    // Nameserver host name
	Addrs        []AddrReport `json:"addrs,omitempty"`                                      // Probe results per resolved address
	ResolveError string       `json:"resolve_error,omitempty" example:"no addresses found"` // Address resolution failure
}

// ZoneReport is the full result of a zone inspection
// @Description Aggregated zone inspection report
type ZoneReport struct {
	Zone              string             `json:"zone" example:"example.com"` // Inspected zone
	SOA               *SOAInfo           `json:"soa,omitempty"`              // SOA fields from the first authoritative answer
	Nameservers       []NameserverReport `json:"nameservers"`                // Per-nameserver detail, sorted by name
	ApexNS            []string           `json:"apex_ns,omitempty"`          // NS RRset as served by the zone itself
	ParentNS          []string           `json:"parent_ns,omitempty"`        // NS RRset as delegated by the parent zone
	DelegationMatch   bool               `json:"delegation_match"`           // Whether parent and apex NS sets agree
	SerialsConsistent bool               `json:"serials_consistent"`         // Whether all responding servers agree on the serial
	Warnings          []string           `json:"warnings,omitempty"`         // Anomalies found during inspection
	Duration          float64            `json:"duration" example:"0.231"`   // Total inspection duration in seconds
}

// TaskResponse is returned when an inspection or lookup task is enqueued
// @Description Task submission response with unique task ID
type TaskResponse struct {
	TaskID  string `json:"task_id" example:"abc123def456789"`          // Unique task identifier for polling
	Message string `json:"message" example:"zone inspection enqueued"` // Status message
}

// DNSAnswer represents a single DNS resource record
// @Description DNS resource record with name, type, TTL, and value
type DNSAnswer struct {
	Name  string `json:"name" example:"example.com."`   // DNS name
	Type  string `json:"type" example:"A"`              // Record type
	TTL   uint32 `json:"ttl" example:"3600"`            // Time to live in seconds
	Value string `json:"value" example:"93.184.216.34"` // Record value
}

// DNSLookupResult contains the outcome of a single resolver query
// @Description Result from a single resolver query
type DNSLookupResult struct {
	CommandStatus string      `json:"command_status" example:"ok"`                  // Command execution status
	TimeMs        float64     `json:"time_ms,omitempty" example:"23.45"`            // Query execution time in milliseconds
	Tags          []string    `json:"tags,omitempty" example:"QUAD9,PRIMARY"`       // Resolver tags
	RCode         string      `json:"rcode,omitempty" example:"NOERROR"`            // DNS response code
	Name          string      `json:"name,omitempty" example:"example.com"`         // Queried name
	QType         string      `json:"qtype,omitempty" example:"A"`                  // Query type
	Answers       []DNSAnswer `json:"answers,omitempty"`                            // DNS answers
	Error         string      `json:"error,omitempty" example:"connection timeout"` // Error message if query failed
	DNSProtocol   string      `json:"dns_protocol,omitempty" example:"Do53"`        // Protocol used (Do53, DoT, DoH, DoQ)
}

// DNSLookupResults aggregates results from multiple resolvers
// @Description Aggregated DNS lookup results from all queried resolvers
type DNSLookupResults struct {
	Details  map[string]DNSLookupResult `json:"details"`                  // Results per resolver (keyed by target)
	Duration float64                    `json:"duration" example:"0.125"` // Total query duration in seconds
}

// TaskResult carries the payload of a completed task - exactly one field is set
// @Description Completed task payload: a zone report or lookup results
type TaskResult struct {
	ZoneReport *ZoneReport       `json:"zone_report,omitempty"` // Set for zone inspection tasks
	Lookup     *DNSLookupResults `json:"lookup,omitempty"`      // Set for DNS lookup tasks
}

// TaskStatusResponse represents task status and optional result
// @Description Task status response with result when completed
type TaskStatusResponse struct {
	TaskID      string      `json:"task_id" example:"abc123def456789"`        // Task identifier
	Status      string      `json:"task_status" example:"SUCCESS"`            // Task status (PENDING, ACTIVE, SUCCESS, FAILURE)
	Result      *TaskResult `json:"task_result,omitempty"`                    // Task result (populated when status is SUCCESS)
	Error       *string     `json:"error,omitempty" example:"worker timeout"` // Error message (populated when status is FAILURE)
	CreatedAt   time.Time   `json:"created_at,omitempty"`                     // Task creation timestamp
	CompletedAt time.Time   `json:"completed_at,omitempty"`                   // Task completion timestamp
}

// HealthResponse indicates API health status
// @Description Health check response
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`                                    // Health status (ok, degraded)
	Warning string `json:"warning,omitempty" example:"no active workers detected"` // Warning message if degraded
}

// ErrorResponse represents an API error response
// @Description Error response returned for failed requests
type ErrorResponse struct {
	Error string `json:"error" example:"rate limit exceeded"` // Error message
}
