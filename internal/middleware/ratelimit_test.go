package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d within burst must be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over burst must be rejected")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	if !rl.allow("10.0.0.1") {
		t.Fatal("first client's budget must be fresh")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("second client must not share the first's bucket")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.Stop()
	rl.Stop()

	select {
	case <-rl.stopCh:
	default:
		t.Fatal("Stop must release the cleanup goroutine")
	}
	if !rl.allow("10.0.0.1") {
		t.Fatal("a stopped limiter must still serve its buckets")
	}
}

func TestRateLimiterMiddlewareReturns429(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	e := echo.New()
	handler := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec.Code
	}

	if code := call(); code != http.StatusOK {
		t.Fatalf("first call status = %d, want 200", code)
	}
	if code := call(); code != http.StatusTooManyRequests {
		t.Fatalf("second call status = %d, want 429", code)
	}
}
