package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// securityMetrics tracks security-related events.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// defaultTrustedProxies covers loopback and the RFC 1918 private ranges.
var defaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// ipResolver decides which peers may speak for the real client through
// forwarding headers.
type ipResolver struct {
	trusted []*net.IPNet
}

// newIPResolver parses the trusted proxy CIDR list; an empty list means the
// private-network defaults. Invalid CIDRs are a configuration error.
func newIPResolver(cidrs []string) (*ipResolver, error) {
	if len(cidrs) == 0 {
		cidrs = defaultTrustedProxies
	}
	trusted := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy CIDR %q: %w", c, err)
		}
		trusted = append(trusted, network)
	}
	return &ipResolver{trusted: trusted}, nil
}

func (p *ipResolver) isTrusted(ip net.IP) bool {
	for _, network := range p.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP resolves the real client address. Forwarding headers are only
// honored when the direct peer is a trusted proxy.
func (p *ipResolver) clientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !p.isTrusted(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

// maxSaneURLLength bounds request URLs; dashboard filters never come close.
const maxSaneURLLength = 2048

// suspiciousFragments are scanner paths and injection snippets legitimate
// dashboard clients never send.
var suspiciousFragments = []string{
	"../", "..\\", ".env", ".git", ".ssh", "etc/passwd",
	"wp-admin", "phpmyadmin", "admin.php", "config.php", "cmd.exe",
	"eval(", "javascript:", "<script", "union select", "base64", "0x",
}

// suspiciousAgents are tooling signatures worth flagging in the logs.
var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb",
	"curl", "wget", "python-requests", "scanner",
	"bot", "crawler", "spider", "scraper",
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// detectSuspiciousRequest flags request shapes that warrant a warning log.
// Detection only; nothing is blocked on this signal.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := containsAny(strings.ToLower(r.URL.Path), suspiciousFragments) ||
		containsAny(strings.ToLower(r.URL.RawQuery), suspiciousFragments) ||
		containsAny(strings.ToLower(r.Header.Get("User-Agent")), suspiciousAgents)

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		suspicious = true
	}
	if len(r.URL.String()) > maxSaneURLLength {
		suspicious = true
	}

	// Both forwarding headers plus a long proxy chain smells like spoofing.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" &&
		r.Header.Get("X-Real-IP") != "" && strings.Count(xff, ",") > 5 {
		suspicious = true
	}

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return suspicious
}
