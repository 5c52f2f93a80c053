package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-freight/internal/common"
)

func newIdem(t *testing.T) (common.Idem, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}, mr
}

func TestIdemRejectsReplay(t *testing.T) {
	t.Parallel()
	idem, _ := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bill-runs", nil)
		req.Header.Set(common.IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	require.Equal(t, http.StatusAccepted, do())
	require.Equal(t, http.StatusConflict, do())
	require.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnFailure(t *testing.T) {
	t.Parallel()
	idem, mr := newIdem(t)
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		common.JSONError(w, http.StatusUnprocessableEntity, "BAD", "bad", nil)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bill-runs", nil)
	req.Header.Set(common.IdempotencyHeader, "retry-me")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Empty(t, mr.Keys())
}

func TestIdemPassesThroughWithoutHeader(t *testing.T) {
	t.Parallel()
	idem, mr := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/bill-runs", nil))
	}
	require.Equal(t, 2, calls)
	require.Empty(t, mr.Keys())
}
