package middleware

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"FluxTube/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newLimiter(t *testing.T, perMinute int64) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRateLimiter(rdb, perMinute)
	fixed := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	return l, mr
}

func TestRateLimiter_Allow(t *testing.T) {
	l, mr := newLimiter(t, 2)
	ctx := context.Background()

	tests := []struct {
		allowed   bool
		remaining int64
	}{
		{true, 1},
		{true, 0},
		{false, -1},
	}
	for i, tt := range tests {
		allowed, remaining, err := l.Allow(ctx, "user:7")
		if err != nil {
			t.Fatalf("Allow() #%d error = %v", i, err)
		}
		if allowed != tt.allowed || remaining != tt.remaining {
			t.Errorf("Allow() #%d = (%v, %d), want (%v, %d)", i, allowed, remaining, tt.allowed, tt.remaining)
		}
	}

	// 别的用户有自己的窗口
	if allowed, _, _ := l.Allow(ctx, "user:8"); !allowed {
		t.Error("Allow(user:8) = false, want true")
	}

	key := fmt.Sprintf("fluxtube:ratelimit:user:7:%d", l.now().Unix()/60)
	if !mr.Exists(key) {
		t.Fatalf("window key %q missing, keys = %v", key, mr.Keys())
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > rateLimitWindow+time.Second {
		t.Errorf("window ttl = %v, want (0, %v]", ttl, rateLimitWindow+time.Second)
	}
}

func TestRateLimiter_NewWindowResets(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()

	if allowed, _, _ := l.Allow(ctx, "ip:1.2.3.4"); !allowed {
		t.Fatal("first request rejected")
	}
	if allowed, _, _ := l.Allow(ctx, "ip:1.2.3.4"); allowed {
		t.Fatal("second request in the same window allowed")
	}
	next := l.now().Add(rateLimitWindow)
	l.now = func() time.Time { return next }
	if allowed, _, _ := l.Allow(ctx, "ip:1.2.3.4"); !allowed {
		t.Error("first request in the next window rejected")
	}
}

func TestRateLimiter_MiddlewareRejectsOverLimit(t *testing.T) {
	l, _ := newLimiter(t, 2)
	r := newEngine(AuthMiddleware(testSecret), l.Middleware())
	auth := "Bearer " + signToken(t, testSecret, validClaims(model.RoleViewer))

	for i := 0; i < 2; i++ {
		w := doGet(r, auth)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, w.Code, http.StatusOK)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("X-RateLimit-Limit = %q, want %q", got, "2")
		}
	}
	w := doGet(r, auth)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want %q", got, "0")
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
}
