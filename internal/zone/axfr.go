package zone

import (
	"context"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/zonetools/zoneinfo/internal/metrics"
	"github.com/zonetools/zoneinfo/internal/models"
)

// checkAXFR attempts a zone transfer from one nameserver address. A refusal
// or failure is an expected outcome, reported in AxfrInfo rather than as an
// error. The transfer streams envelopes; records are counted, not kept.
func (i *Inspector) checkAXFR(ctx context.Context, fqdn, addr string) *models.AxfrInfo {
	info := &models.AxfrInfo{Attempted: true}

	msg := new(dns.Msg)
	msg.SetAxfr(fqdn)

	t := &dns.Transfer{
		DialTimeout:  i.Timeout,
		ReadTimeout:  i.Timeout,
		WriteTimeout: i.Timeout,
	}

	start := time.Now()
	env, err := t.In(msg, i.axfrAddr(addr))
	if err != nil {
		info.Reason = err.Error()
		metrics.AXFRChecksTotal.WithLabelValues("failed").Inc()
		return info
	}

	records := 0
	for e := range env {
		if e.Error != nil {
			info.Reason = axfrReason(e.Error)
			info.TimeMs = float64(time.Since(start).Microseconds()) / 1000.0
			metrics.AXFRChecksTotal.WithLabelValues(axfrOutcome(e.Error)).Inc()
			return info
		}
		records += len(e.RR)

		select {
		case <-ctx.Done():
			info.Reason = ctx.Err().Error()
			metrics.AXFRChecksTotal.WithLabelValues("failed").Inc()
			return info
		default:
		}
	}

	info.Allowed = true
	info.Records = records
	info.TimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	metrics.AXFRChecksTotal.WithLabelValues("allowed").Inc()
	return info
}

// axfrReason maps the common refusal to its rcode name, keeping other
// transfer errors verbatim.
func axfrReason(err error) string {
	s := err.Error()
	if strings.Contains(s, "bad xfr rcode: 5") {
		return "REFUSED"
	}
	if strings.Contains(s, "bad xfr rcode: 9") {
		return "NOTAUTH"
	}
	return s
}

func axfrOutcome(err error) string {
	if strings.Contains(err.Error(), "bad xfr rcode") {
		return "refused"
	}
	return "failed"
}
