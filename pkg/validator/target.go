package validator

import (
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// ValidateTarget accepts the custom URL formats users paste into the card:
// a bare host (youtube.com), host:port, or a full http(s) URL. Anything with
// a non-http scheme is rejected.
func ValidateTarget(target string) bool {
	if target == "" {
		return true
	}

	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return false
		}
		return u.Scheme == "http" || u.Scheme == "https"
	}

	return true
}

// Resolves runs an A query for the target's host. Used as a warn-only
// preflight before dispatching a custom URL test; a failure here never blocks
// the dispatch because the measurement agents may sit in a different
// resolution domain than the bot.
func Resolves(target, server string) bool {
	host := hostOf(target)
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if server == "" {
		server = "8.8.8.8:53"
	}

	client := &dns.Client{Timeout: 3 * time.Second}
	msg := dns.Msg{}
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	response, _, err := client.Exchange(&msg, server)
	if err != nil {
		return false
	}
	return response.Rcode == dns.RcodeSuccess && len(response.Answer) > 0
}

func hostOf(target string) string {
	if host, _, err := net.SplitHostPort(target); err == nil {
		return host
	}
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return strings.TrimSuffix(target, "/")
}
