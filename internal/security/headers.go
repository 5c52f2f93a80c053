// Package security holds response hardening middleware for the JSON API.
package security

import (
	"net/http"
	"strconv"
)

// Headers configures security headers for API responses.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware attaches security headers to each response. Quotes depend on
// mutable channel configuration, so responses are marked uncacheable.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		headers.Set("Cache-Control", "no-store")
		if h.EnableHSTS && r.TLS != nil {
			headers.Set("Strict-Transport-Security", h.hsts())
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hsts() string {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
