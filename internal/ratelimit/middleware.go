package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-freight/internal/common"
)

// New builds a limiter for the formatted rate ("600-M", "10-S"). A nil Redis
// client selects the in-process memory store.
func New(rdb *redis.Client, formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}
	var store limiter.Store
	if rdb == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "freight:ratelimit"})
	} else {
		store, err = limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "freight:ratelimit"})
		if err != nil {
			return nil, fmt.Errorf("rate limit store: %w", err)
		}
	}
	return limiter.New(store, rate), nil
}

// ByClientIP keys requests by the caller address.
func ByClientIP(r *http.Request) string { return common.ClientIP(r) }

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Store errors
// fail open.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
