package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// TestWithRateLimit verifies requests above the burst get 429.
func TestWithRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := WithRateLimit(ok, 0.001, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/convert", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

// TestWithRateLimitDisabled verifies rps <= 0 returns the handler untouched.
func TestWithRateLimitDisabled(t *testing.T) {
	calls := 0
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })
	h := WithRateLimit(ok, 0, 1)
	for i := 0; i < 5; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}

// TestWithLoggingKeepsStatus verifies the wrapped writer forwards status codes.
func TestWithLoggingKeepsStatus(t *testing.T) {
	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
}
