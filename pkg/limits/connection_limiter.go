// Package limits caps how many live connections a single client may hold
// open. Every live connection keeps a component and its timer alive, so
// the cap bounds the work one address can pin on the server.
package limits

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
)

// ErrTooManyConnections is returned when a client is at its cap.
var ErrTooManyConnections = errors.New("too many connections")

// ConnectionLimiter limits concurrent connections per IP address.
type ConnectionLimiter struct {
	maxPerIP int

	mu    sync.Mutex
	conns map[string]int

	totalBlocked atomic.Int64
	totalAllowed atomic.Int64
}

// NewConnectionLimiter creates a limiter allowing maxPerIP concurrent
// connections per address. Zero or less disables the cap.
func NewConnectionLimiter(maxPerIP int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxPerIP: maxPerIP,
		conns:    make(map[string]int),
	}
}

// Acquire takes a slot for ip. The returned release func gives it back
// and is safe to call more than once.
func (cl *ConnectionLimiter) Acquire(ip string) (release func(), err error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.maxPerIP > 0 && cl.conns[ip] >= cl.maxPerIP {
		cl.totalBlocked.Add(1)
		return nil, ErrTooManyConnections
	}
	cl.conns[ip]++
	cl.totalAllowed.Add(1)

	var once sync.Once
	return func() { once.Do(func() { cl.release(ip) }) }, nil
}

func (cl *ConnectionLimiter) release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.conns[ip]--
	if cl.conns[ip] <= 0 {
		delete(cl.conns, ip)
	}
}

// Count returns the open connections for ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conns[ip]
}

// TotalBlocked returns how many connections were refused.
func (cl *ConnectionLimiter) TotalBlocked() int64 {
	return cl.totalBlocked.Load()
}

// TotalAllowed returns how many connections were admitted.
func (cl *ConnectionLimiter) TotalAllowed() int64 {
	return cl.totalAllowed.Load()
}

// ClientIP returns the host part of RemoteAddr. Run behind
// middleware.RealIP when a proxy sits in front.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
