package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/common"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	require.Equal(t, "10.0.0.7", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.4")
	require.Equal(t, "192.0.2.4", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", common.ClientIP(req))
}

func TestClientIPNormalisesIPv6(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 2001:DB8:0:0::1 ")
	require.Equal(t, "2001:db8::1", common.ClientIP(req))
}

func TestDataEnvelope(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	common.Data(rr, http.StatusCreated, map[string]int{"n": 1})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"data":{"n":1}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	common.JSONError(rr, http.StatusBadRequest, "BAD", "nope", nil)
	require.JSONEq(t, `{"error":{"code":"BAD","message":"nope"}}`, rr.Body.String())
}
