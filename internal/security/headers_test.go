package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	t.Parallel()
	handler := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "https://freight.example.com/api/v1/quotes", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	require.Equal(t, "max-age=600; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareSkipsHSTSWithoutTLS(t *testing.T) {
	t.Parallel()
	handler := Headers{Enable: true, EnableHSTS: true}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://freight.example.com/health/live", nil))
	require.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	t.Parallel()
	handler := Headers{Enable: false, EnableHSTS: true}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://freight.example.com", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}
