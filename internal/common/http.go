package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller address, preferring the first X-Forwarded-For
// hop, then X-Real-IP, then the connection peer.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return normalizeIP(first)
	}
	if xr := r.Header.Get("X-Real-IP"); strings.TrimSpace(xr) != "" {
		return normalizeIP(xr)
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// normalizeIP canonicalises textual addresses; anything unparsable is returned trimmed.
func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
