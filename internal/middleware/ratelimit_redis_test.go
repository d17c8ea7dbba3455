package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisRateLimiter_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("counts down to the limit", func(t *testing.T) {
		client, _ := newTestRedis(t)
		rl := NewRedisRateLimiter(client)

		for i := 0; i < 3; i++ {
			allowed, remaining, _ := rl.Check(ctx, "alice", 3)
			assert.True(t, allowed, "request %d", i+1)
			assert.Equal(t, 3-i-1, remaining)
		}

		allowed, remaining, _ := rl.Check(ctx, "alice", 3)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("users are independent", func(t *testing.T) {
		client, _ := newTestRedis(t)
		rl := NewRedisRateLimiter(client)

		rl.Check(ctx, "alice", 1)
		allowed, _, _ := rl.Check(ctx, "bob", 1)
		assert.True(t, allowed)
	})

	t.Run("redis failure admits the request", func(t *testing.T) {
		client, mr := newTestRedis(t)
		rl := NewRedisRateLimiter(client)
		mr.Close()

		allowed, _, _ := rl.Check(ctx, "alice", 1)
		assert.True(t, allowed)
	})
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	client, _ := newTestRedis(t)
	m := NewRedisRateLimitMiddleware(client, 1)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("passes through without a caller", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects once the budget is spent", func(t *testing.T) {
		caller := &service.Caller{User: &model.User{ID: "alice"}}
		do := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithCaller(req.Context(), caller))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		first := do()
		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

		second := do()
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Contains(t, second.Body.String(), "RATE_LIMIT_EXCEEDED")
		assert.NotEmpty(t, second.Header().Get("Retry-After"))
	})
}
