package limits

import (
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestConnectionLimiter_PerIP(t *testing.T) {
	cl := NewConnectionLimiter(2)

	r1, err := cl.Acquire("10.0.0.1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	r2, err := cl.Acquire("10.0.0.1")
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if _, err := cl.Acquire("10.0.0.1"); !errors.Is(err, ErrTooManyConnections) {
		t.Errorf("expected ErrTooManyConnections, got %v", err)
	}
	if _, err := cl.Acquire("10.0.0.2"); err != nil {
		t.Errorf("other address should not be limited: %v", err)
	}

	r1()
	r1()
	if got := cl.Count("10.0.0.1"); got != 1 {
		t.Errorf("double release must free one slot, count=%d", got)
	}
	if _, err := cl.Acquire("10.0.0.1"); err != nil {
		t.Errorf("expected slot after release: %v", err)
	}
	r2()

	if cl.TotalBlocked() != 1 || cl.TotalAllowed() != 4 {
		t.Errorf("unexpected totals blocked=%d allowed=%d", cl.TotalBlocked(), cl.TotalAllowed())
	}
}

func TestConnectionLimiter_Unlimited(t *testing.T) {
	cl := NewConnectionLimiter(0)
	for i := 0; i < 100; i++ {
		if _, err := cl.Acquire("10.0.0.1"); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}
}

func TestConnectionLimiter_Concurrent(t *testing.T) {
	cl := NewConnectionLimiter(10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cl.Acquire("10.0.0.1"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Errorf("expected exactly 10 admitted, got %d", admitted)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("expected host only, got %q", got)
	}
	r.RemoteAddr = "not-an-addr"
	if got := ClientIP(r); got != "not-an-addr" {
		t.Errorf("expected raw addr fallback, got %q", got)
	}
}
